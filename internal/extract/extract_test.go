package extract

import (
	"strings"
	"testing"
)

func TestStripFencesRemovesLuaFence(t *testing.T) {
	input := "\n\n```lua\nfunction code() end\n```\n\n"
	got := StripFences(input)
	if got != "function code() end" {
		t.Errorf("StripFences() = %q", got)
	}
}

func TestStripFencesRemovesBareFence(t *testing.T) {
	input := "```\nfunction code() end\n```"
	got := StripFences(input)
	if got != "function code() end" {
		t.Errorf("StripFences() = %q", got)
	}
}

func TestStripFencesNoFenceIsNoop(t *testing.T) {
	input := "function code() end"
	if got := StripFences(input); got != input {
		t.Errorf("StripFences() = %q, want unchanged", got)
	}
}

func TestRenameFirstOccurrenceOnly(t *testing.T) {
	input := "function code() return code end"
	got := RenameFirstOccurrence(input, "code", "message_7_code")
	want := "function message_7_code() return code end"
	if got != want {
		t.Errorf("RenameFirstOccurrence() = %q, want %q", got, want)
	}
}

func TestRenameFirstOccurrenceWholeWordOnly(t *testing.T) {
	input := "function decode() end"
	got := RenameFirstOccurrence(input, "code", "x")
	if got != input {
		t.Errorf("RenameFirstOccurrence() should not match inside decode, got %q", got)
	}
}

func TestExtractSingleTopLevelFunction(t *testing.T) {
	src := "function add(a, b)\n  return a + b\nend\n"
	defs := Extract(src)
	if len(defs) != 1 {
		t.Fatalf("Extract() = %d defs, want 1", len(defs))
	}
	if defs[0].Name != "add" {
		t.Errorf("Name = %q", defs[0].Name)
	}
	if len(defs[0].Args) != 2 || defs[0].Args[0] != "a" || defs[0].Args[1] != "b" {
		t.Errorf("Args = %v", defs[0].Args)
	}
	if !strings.Contains(defs[0].Source, "return a + b") {
		t.Errorf("Source missing body: %q", defs[0].Source)
	}
}

func TestExtractMultipleTopLevelFunctions(t *testing.T) {
	src := "function one()\nend\n\nfunction two()\nend\n"
	defs := Extract(src)
	if len(defs) != 2 {
		t.Fatalf("Extract() = %d defs, want 2", len(defs))
	}
	if defs[0].Name != "one" || defs[1].Name != "two" {
		t.Errorf("unexpected order/names: %v", defs)
	}
}

func TestExtractIgnoresNestedFunctions(t *testing.T) {
	src := "function outer()\n  local function inner() end\n  return inner\nend\n"
	defs := Extract(src)
	if len(defs) != 1 {
		t.Fatalf("Extract() = %d defs, want 1 (nested function must be ignored)", len(defs))
	}
	if defs[0].Name != "outer" {
		t.Errorf("Name = %q, want outer", defs[0].Name)
	}
}

func TestExtractLocalFunction(t *testing.T) {
	src := "local function helper(x)\n  return x * 2\nend\n"
	defs := Extract(src)
	if len(defs) != 1 {
		t.Fatalf("Extract() = %d defs, want 1", len(defs))
	}
	if !defs[0].IsLocal {
		t.Error("expected IsLocal = true")
	}
	if defs[0].Name != "helper" {
		t.Errorf("Name = %q", defs[0].Name)
	}
}

func TestExtractReturnsEmptyOnParseFailure(t *testing.T) {
	defs := Extract("function broken( ... this is not lua")
	if len(defs) != 0 {
		t.Errorf("Extract() on invalid input = %v, want empty", defs)
	}
}

func TestExtractDocstring(t *testing.T) {
	src := "function greet(name)\n--[[ Greets name politely. ]]\n  return \"hi \" .. name\nend\n"
	defs := Extract(src)
	if len(defs) != 1 {
		t.Fatalf("Extract() = %d defs, want 1", len(defs))
	}
	if defs[0].Docstring != "Greets name politely." {
		t.Errorf("Docstring = %q", defs[0].Docstring)
	}
}

func TestWithAddendumAppendsToExistingDocstring(t *testing.T) {
	got := WithAddendum("Does a thing.", 42)
	if !strings.Contains(got, "Does a thing.") || !strings.Contains(got, "message 42") {
		t.Errorf("WithAddendum() = %q", got)
	}
}

func TestWithAddendumHandlesEmptyDocstring(t *testing.T) {
	got := WithAddendum("", 3)
	if !strings.Contains(got, "message 3") {
		t.Errorf("WithAddendum() = %q", got)
	}
}

func TestWithSourceDocstringReplacesExistingBlock(t *testing.T) {
	src := "function greet(name)\n--[[ Greets name. ]]\n  return name\nend"
	got := WithSourceDocstring(src, "Greets name.\n\nOriginally synthesized from message 7.")
	if strings.Contains(got, "Greets name. ]]") {
		t.Errorf("old docstring block still present: %q", got)
	}
	if !strings.Contains(got, "message 7") {
		t.Errorf("new docstring missing from source: %q", got)
	}
}

func TestWithSourceDocstringInsertsWhenAbsent(t *testing.T) {
	src := "function greet(name)\n  return name\nend"
	got := WithSourceDocstring(src, "Greets name.")
	if !strings.Contains(got, "--[[Greets name.]]") {
		t.Errorf("expected inserted docstring block, got %q", got)
	}
}
