package errand

import "testing"

func TestParseSplitsOnSeparator(t *testing.T) {
	data := []byte("pre line one\npre line two\n===SEPARATOR===\nprompt line\n")
	e, err := Parse("test", data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if e.PrePrompt != "pre line one\npre line two" {
		t.Errorf("PrePrompt = %q", e.PrePrompt)
	}
	if e.Prompt != "prompt line" {
		t.Errorf("Prompt = %q", e.Prompt)
	}
}

func TestParseRequiresExactlyOneSeparator(t *testing.T) {
	if _, err := Parse("none", []byte("no separator here")); err == nil {
		t.Error("expected error when separator missing")
	}
	two := []byte("a\n===SEPARATOR===\nb\n===SEPARATOR===\nc")
	if _, err := Parse("two", two); err == nil {
		t.Error("expected error when two separators present")
	}
}

func TestRenderSubstitutesFirstOccurrenceOnly(t *testing.T) {
	e := Errand{PrePrompt: "hello {name}", Prompt: "{name} again and {name} again"}
	pre, prompt := e.Render(map[string]string{"name": "Ada"})
	if pre != "hello Ada" {
		t.Errorf("PrePrompt render = %q", pre)
	}
	if prompt != "Ada again and {name} again" {
		t.Errorf("Prompt render = %q, want only first occurrence replaced", prompt)
	}
}

func TestRenderLeavesUnknownPlaceholdersLiteral(t *testing.T) {
	e := Errand{Prompt: "value is {missing}"}
	_, prompt := e.Render(map[string]string{"other": "x"})
	if prompt != "value is {missing}" {
		t.Errorf("Render() = %q, want placeholder left literal", prompt)
	}
}

func TestWithChoicesSortsDescendingLength(t *testing.T) {
	e := Errand{}.WithChoices("code", "code_skill", "data")
	if e.Choices[0] != "code_skill" {
		t.Errorf("expected code_skill first, got %v", e.Choices)
	}
}

func TestFilterPicksFirstSubstringMatch(t *testing.T) {
	e := Errand{}.WithChoices("code", "code_skill")
	got, ok := e.Filter("I think this is a code_skill request")
	if !ok || got != "code_skill" {
		t.Errorf("Filter() = (%q, %v), want (code_skill, true)", got, ok)
	}
}

func TestFilterNoMatch(t *testing.T) {
	e := Errand{}.WithChoices("code", "data")
	if _, ok := e.Filter("this matches nothing"); ok {
		t.Error("expected no match")
	}
}

func TestNewRegistryLoadsAllErrands(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	want := []string{
		MessageType, MessageCodeProcessing, MessageCodeSkillProcessing,
		MessageCodeCall, MessageCodeVariables, MessageRoutineProcessing,
		MessageRoutineCall, MessageRoutineVariables, MessageGeneratingRoutineProc,
		MessageGeneratingRoutineCall, MessageDataProcessing,
	}
	for _, name := range want {
		if _, ok := r.Get(name); !ok {
			t.Errorf("missing embedded errand %q", name)
		}
	}
}

func TestRegistryMessageTypeIsMultipleChoice(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	e := r.MustGet(MessageType)
	if len(e.Choices) == 0 {
		t.Fatal("message_type errand should carry choices")
	}
	if e.Choices[0] != "generating_routine" {
		t.Errorf("longest choice should sort first, got %v", e.Choices)
	}
}
