package models

import "testing"

func TestChoicesSortedByDescendingLength(t *testing.T) {
	choices := Choices()
	for i := 1; i < len(choices); i++ {
		if len(choices[i]) > len(choices[i-1]) {
			t.Fatalf("choices not sorted by descending length at %d: %v", i, choices)
		}
	}
	// code_skill must precede code, or substring matching picks code first.
	var codeSkillIdx, codeIdx = -1, -1
	for i, c := range choices {
		switch c {
		case string(TypeCodeSkill):
			codeSkillIdx = i
		case string(TypeCode):
			codeIdx = i
		}
	}
	if codeSkillIdx == -1 || codeIdx == -1 {
		t.Fatalf("expected both code and code_skill in choices: %v", choices)
	}
	if codeSkillIdx >= codeIdx {
		t.Fatalf("code_skill (%d) must come before code (%d)", codeSkillIdx, codeIdx)
	}
}

func TestMessageTypeValid(t *testing.T) {
	cases := []struct {
		t    MessageType
		want bool
	}{
		{"", true},
		{TypeAuto, true},
		{TypeCode, true},
		{TypeCodeSkill, true},
		{MessageType("bogus"), false},
	}
	for _, c := range cases {
		if got := c.t.Valid(); got != c.want {
			t.Errorf("MessageType(%q).Valid() = %v, want %v", c.t, got, c.want)
		}
	}
}

func TestMessageTypeIsClassifiable(t *testing.T) {
	if TypeAuto.IsClassifiable() {
		t.Error("TypeAuto must not be classifiable")
	}
	if !TypeCode.IsClassifiable() {
		t.Error("TypeCode must be classifiable")
	}
}

func TestMessageTrimmed(t *testing.T) {
	m := Message{Content: "  \n  hello  \n"}
	if got := m.Trimmed(); got != "hello" {
		t.Errorf("Trimmed() = %q, want %q", got, "hello")
	}
}
