// Package extract implements the Code Extractor component (C4): it takes
// the LM's raw text output, strips any fence markers, canonicalizes the
// principal function's name, parses the result as Lua, and returns every
// top-level function definition as a descriptor carrying its exact source
// span.
//
// Parsing uses github.com/yuin/gopher-lua's own parse/ast packages — the
// genuine Lua 5.1 parser the embedded VM uses internally — rather than a
// hand-rolled scanner, satisfying spec.md §4.3's "AST parse" step with a
// real AST. Docstrings are not part of that AST (Lua comments are
// discarded by the lexer), so the docstring addendum step falls back to a
// raw-text scan for a `--[[ ... ]]` block immediately following the
// function signature — the same hybrid AST-plus-raw-text technique the
// reference Python implementation uses via ast.get_docstring/
// ast.get_source_segment in original_source/backend/frame/harness4.py.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	lua_ast "github.com/yuin/gopher-lua/ast"
	"github.com/yuin/gopher-lua/parse"
)

// FunctionDef is one top-level function definition recovered from LM output.
type FunctionDef struct {
	// Name is the identifier the function is declared under in the source
	// (before any rename pass is applied by the caller).
	Name string

	// Args are the formal parameter names, in declaration order.
	Args []string

	// Docstring is the text of the `--[[ ... ]]` block comment immediately
	// following the signature, if any, with the comment markers removed.
	Docstring string

	// Source is the exact text of the function declaration, start to end
	// line, as it appeared in the (fence-stripped, renamed) input.
	Source string

	// IsLocal records whether the declaration used `local function`.
	IsLocal bool
}

var fencedFirstLine = regexp.MustCompile("^```(lua)?$")
var fencedLastLine = regexp.MustCompile("^```$")

// StripFences removes a single leading/trailing blank-line run and a single
// leading ``` or ```lua fence plus a single trailing ``` fence, per
// spec.md §4.3 step 1.
func StripFences(text string) string {
	lines := strings.Split(text, "\n")
	lines = trimBlankEdges(lines)
	if len(lines) > 0 && fencedFirstLine.MatchString(strings.TrimSpace(lines[0])) {
		lines = lines[1:]
	}
	if len(lines) > 0 && fencedLastLine.MatchString(strings.TrimSpace(lines[len(lines)-1])) {
		lines = lines[:len(lines)-1]
	}
	lines = trimBlankEdges(lines)
	return strings.Join(lines, "\n")
}

func trimBlankEdges(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

// RenameFirstOccurrence replaces the first whole-word occurrence of oldName
// with newName, per spec.md §4.3 step 2's name-canonicalization pass. Not a
// full rewrite: later occurrences and any other identifiers are untouched.
func RenameFirstOccurrence(text, oldName, newName string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(oldName) + `\b`)
	loc := re.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]] + newName + text[loc[1]:]
}

// Extract parses text as Lua and returns every top-level function
// definition (spec.md §4.3 step 4: nested functions and table/class methods
// are ignored). Returns an empty, non-error slice if text fails to parse —
// the message is then recorded as producing no skill, per spec.md §4.3.
func Extract(text string) []FunctionDef {
	chunk, err := parse.Parse(strings.NewReader(text), "<message>")
	if err != nil {
		return nil
	}

	lines := strings.Split(text, "\n")
	var defs []FunctionDef
	for _, stmt := range chunk {
		switch s := stmt.(type) {
		case *lua_ast.FuncDeclStmt:
			if s.Name.Receiver != nil || s.Name.Method != "" {
				continue // table/method definitions are not top-level functions
			}
			defs = append(defs, buildFunctionDef(s.Name.Name, s.Func, lines, false))
		case *lua_ast.LocalFunctionStmt:
			defs = append(defs, buildFunctionDef(s.Name, s.Func, lines, true))
		}
	}
	return defs
}

func buildFunctionDef(name string, fn *lua_ast.FunctionExpr, lines []string, isLocal bool) FunctionDef {
	start, end := fn.Line(), fn.LastLine()
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	source := strings.Join(lines[start-1:end], "\n")

	var args []string
	if fn.ParList != nil {
		args = append(args, fn.ParList.Names...)
	}

	return FunctionDef{
		Name:      name,
		Args:      args,
		Docstring: extractDocstring(source),
		Source:    source,
		IsLocal:   isLocal,
	}
}

var blockCommentRe = regexp.MustCompile(`(?s)--\[\[(.*?)\]\]`)

// extractDocstring finds the first `--[[ ... ]]` block comment in source
// and returns its trimmed text, or "" if none is present.
func extractDocstring(source string) string {
	m := blockCommentRe.FindStringSubmatch(source)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// WithAddendum appends a one-sentence addendum identifying the originating
// message id to a docstring, per spec.md §4.3's "docstring addendum" step.
func WithAddendum(docstring string, mid int64) string {
	addendum := fmt.Sprintf("Originally synthesized from message %d.", mid)
	if docstring == "" {
		return addendum
	}
	return docstring + "\n\n" + addendum
}

// WithSourceDocstring rewrites source's `--[[ ... ]]` block comment to
// docstring (inserting one right after the signature line if none was
// present), so the addendum lands "both in the stored skill and in its
// source span" per spec.md §4.3.
func WithSourceDocstring(source, docstring string) string {
	if loc := blockCommentRe.FindStringIndex(source); loc != nil {
		return source[:loc[0]] + "--[[" + docstring + "]]" + source[loc[1]:]
	}
	lines := strings.SplitN(source, "\n", 2)
	if len(lines) != 2 {
		return source
	}
	return lines[0] + "\n--[[" + docstring + "]]\n" + lines[1]
}
