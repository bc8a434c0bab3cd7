package errand

import (
	"embed"
	"fmt"

	"github.com/nexusharness/loom/pkg/models"
)

//go:embed templates/*.txt
var templateFS embed.FS

// Names of the eleven errands named in spec.md §4.2's pipeline table, used
// as both the template filename stem and the Registry lookup key.
const (
	MessageType                   = "message_type"
	MessageCodeProcessing         = "message_code_processing"
	MessageCodeSkillProcessing    = "message_code_skill_processing"
	MessageCodeCall               = "message_code_call"
	MessageCodeVariables          = "message_code_variables"
	MessageRoutineProcessing      = "message_routine_processing"
	MessageRoutineCall            = "message_routine_call"
	MessageRoutineVariables       = "message_routine_variables"
	MessageGeneratingRoutineProc  = "message_generating_routine_processing"
	MessageGeneratingRoutineCall  = "message_generating_routine_call"
	MessageDataProcessing         = "message_data_processing"
)

// Registry holds every embedded errand, loaded once at process start.
type Registry struct {
	errands map[string]Errand
}

// NewRegistry parses every templates/*.txt file embedded in this package
// into an Errand keyed by its filename stem. message_type is additionally
// configured as a multiple-choice errand over models.Choices().
func NewRegistry() (*Registry, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("errand: read embedded templates: %w", err)
	}

	r := &Registry{errands: make(map[string]Errand, len(entries))}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := stemName(entry.Name())
		data, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("errand: read %s: %w", entry.Name(), err)
		}
		e, err := Parse(name, data)
		if err != nil {
			return nil, err
		}
		r.errands[name] = e
	}

	if e, ok := r.errands[MessageType]; ok {
		r.errands[MessageType] = e.WithChoices(models.Choices()...)
	} else {
		return nil, fmt.Errorf("errand: required errand %q missing from embedded templates", MessageType)
	}

	return r, nil
}

func stemName(filename string) string {
	for i := len(filename) - 1; i >= 0; i-- {
		if filename[i] == '.' {
			return filename[:i]
		}
	}
	return filename
}

// Get returns the named errand. ok is false if no errand with that name was
// embedded.
func (r *Registry) Get(name string) (Errand, bool) {
	e, ok := r.errands[name]
	return e, ok
}

// MustGet returns the named errand, panicking if absent. Intended for the
// fixed, compile-time-known errand names the harness wires up at startup,
// where a missing template is a packaging bug, not a runtime condition.
func (r *Registry) MustGet(name string) Errand {
	e, ok := r.errands[name]
	if !ok {
		panic(fmt.Sprintf("errand: no such errand %q", name))
	}
	return e
}
