// Package models defines the wire-level data types shared across the loom
// harness: messages, message types, and streaming notifications.
package models

import "strings"

// MessageType classifies a user message by the synthesis pipeline it should
// drive. The zero value "" is treated the same as TypeAuto.
type MessageType string

const (
	TypeAuto              MessageType = "auto"
	TypeRoutine           MessageType = "routine"
	TypeGeneratingRoutine MessageType = "generating_routine"
	TypeRoutineSkill      MessageType = "routine_skill"
	TypeQuery             MessageType = "query"
	TypeQuerySkill        MessageType = "query_skill"
	TypeCode              MessageType = "code"
	TypeCodeSkill         MessageType = "code_skill"
	TypeData              MessageType = "data"
)

// classifiableTypes are the message types a classification errand may
// return; TypeAuto is excluded because it is resolved to one of these, never
// returned by the classifier itself.
var classifiableTypes = map[MessageType]bool{
	TypeRoutine:           true,
	TypeGeneratingRoutine: true,
	TypeRoutineSkill:      true,
	TypeQuery:             true,
	TypeQuerySkill:        true,
	TypeCode:              true,
	TypeCodeSkill:         true,
	TypeData:              true,
}

// IsClassifiable reports whether t is a valid classifier output (every
// allowed message type except auto).
func (t MessageType) IsClassifiable() bool {
	return classifiableTypes[t]
}

// Valid reports whether t is one of the closed set of message types,
// including "auto" and the empty string (which resolves to auto).
func (t MessageType) Valid() bool {
	if t == "" || t == TypeAuto {
		return true
	}
	return classifiableTypes[t]
}

// Choices returns the classifiable message types as strings, sorted by
// descending length. Ordering matters for substring-based multiple-choice
// filtering: a choice that is a substring of another (e.g. "code" inside
// "code_skill") must be tested after the longer candidate, or the shorter
// one wins spuriously whenever the LM emits the longer word.
func Choices() []string {
	choices := make([]string, 0, len(classifiableTypes))
	for t := range classifiableTypes {
		choices = append(choices, string(t))
	}
	for i := 1; i < len(choices); i++ {
		for j := i; j > 0 && len(choices[j]) > len(choices[j-1]); j-- {
			choices[j], choices[j-1] = choices[j-1], choices[j]
		}
	}
	return choices
}

// Message is a single user-authored message entering the harness.
type Message struct {
	// MID is the monotonically increasing message id within a session.
	MID int64

	// SessionID identifies the owning session. Ambient field: spec.md
	// assumes a single implicit session, loom routes many concurrent ones.
	SessionID string

	// Role is almost always "user". The harness does not inspect it: every
	// message passed to Process/Stream is routed through synthesis.
	Role string

	// Content is the raw message text, possibly mixing prose and code.
	Content string

	// Type selects the synthesis pipeline, or TypeAuto/"" to classify it.
	Type MessageType
}

// Trimmed returns the message content with leading/trailing whitespace
// removed; the basis for the EmptyMessage check.
func (m Message) Trimmed() string {
	return strings.TrimSpace(m.Content)
}
