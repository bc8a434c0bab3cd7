// Package errand implements the Errand component (C3): named, file-backed
// prompt pairs with literal {placeholder} substitution and an optional
// multiple-choice post-filter.
//
// The file-splitting style (bufio.Scanner over a fixed delimiter, trimmed
// sections) follows the teacher's internal/skills.splitFrontmatter; the
// separator token, substitution, and multiple-choice semantics follow
// spec.md §4.2/§6 and the reference Python Errand/FileErrand/
// MultipleChoiceErrand classes in original_source/backend/frame/errands4.py.
package errand

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// Separator is the fixed token splitting an errand file into its pre_prompt
// and prompt halves.
const Separator = "===SEPARATOR==="

// Errand is a named template of (pre_prompt, prompt), optionally
// constrained to a fixed choice set on output.
type Errand struct {
	Name      string
	PrePrompt string
	Prompt    string

	// Choices, if non-empty, makes this a multiple-choice errand: Filter
	// substring-matches the LM's raw output against Choices, longest first.
	Choices []string
}

// Parse splits raw errand file content on Separator into a trimmed
// pre_prompt (before) and prompt (after). Exactly one separator is
// required, mirroring the original FileErrand's `parts == 2` check.
func Parse(name string, data []byte) (Errand, error) {
	parts := splitOnSeparator(data)
	if len(parts) != 2 {
		return Errand{}, fmt.Errorf("errand %q: expected exactly one %q separator, found %d", name, Separator, len(parts)-1)
	}
	return Errand{
		Name:      name,
		PrePrompt: strings.TrimSpace(parts[0]),
		Prompt:    strings.TrimSpace(parts[1]),
	}, nil
}

// WithChoices returns a copy of e configured as a multiple-choice errand.
// Choices are sorted by descending length before being stored, so the
// classifier post-filter tests longer candidates first — this is the
// REDESIGN FLAG fix for message_type, where "code" must not shadow
// "code_skill".
func (e Errand) WithChoices(choices ...string) Errand {
	sorted := append([]string(nil), choices...)
	sortByDescendingLength(sorted)
	e.Choices = sorted
	return e
}

func splitOnSeparator(data []byte) []string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current []string
	var parts []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == Separator {
			parts = append(parts, strings.Join(current, "\n"))
			current = nil
			continue
		}
		current = append(current, line)
	}
	parts = append(parts, strings.Join(current, "\n"))
	return parts
}

func sortByDescendingLength(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && len(s[j]) > len(s[j-1]); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// Render substitutes literal {name} tokens in e.Prompt and e.PrePrompt with
// args, replacing the first occurrence of each name only (matching the
// reference implementation's literal str.replace(f"{{{name}}}", value, 1)
// semantics). Placeholders absent from args are left as literal text.
func (e Errand) Render(args map[string]string) (prePrompt, prompt string) {
	return substituteFirst(e.PrePrompt, args), substituteFirst(e.Prompt, args)
}

func substituteFirst(text string, args map[string]string) string {
	for name, value := range args {
		token := "{" + name + "}"
		text = strings.Replace(text, token, value, 1)
	}
	return text
}

// Filter applies the multiple-choice post-filter: the first entry of
// e.Choices (already sorted longest-first) that appears as a substring of
// output wins. Returns ("", false) if none match.
func (e Errand) Filter(output string) (string, bool) {
	for _, choice := range e.Choices {
		if strings.Contains(output, choice) {
			return choice, true
		}
	}
	return "", false
}
