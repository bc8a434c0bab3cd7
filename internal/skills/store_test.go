package skills

import (
	"strings"
	"testing"

	"github.com/nexusharness/loom/pkg/models"
)

func TestInstallSkillReplacesSameName(t *testing.T) {
	s := NewStore(nil)
	s.InstallSkill(models.Skill{LuaName: "add", Docstring: "v1"})
	s.InstallSkill(models.Skill{LuaName: "add", Docstring: "v2"})

	got, ok := s.Skill("add")
	if !ok || got.Docstring != "v2" {
		t.Fatalf("Skill(add) = %+v, ok=%v, want Docstring=v2", got, ok)
	}
	if len(s.Skills()) != 1 {
		t.Errorf("expected 1 skill after replacement, got %d", len(s.Skills()))
	}
}

func TestSkillsPreservesInsertionOrder(t *testing.T) {
	s := NewStore(nil)
	s.InstallSkill(models.Skill{LuaName: "first"})
	s.InstallSkill(models.Skill{LuaName: "second"})
	s.InstallSkill(models.Skill{LuaName: "first"}) // replacement, not reorder

	names := []string{}
	for _, sk := range s.Skills() {
		names = append(names, sk.LuaName)
	}
	if strings.Join(names, ",") != "first,second" {
		t.Errorf("order = %v, want [first second]", names)
	}
}

func TestUpsertTidingReplaces(t *testing.T) {
	s := NewStore(nil)
	s.UpsertTiding(models.Tiding{LuaName: "x", Content: 1, Description: "first"})
	s.UpsertTiding(models.Tiding{LuaName: "x", Content: 2, Description: "second"})

	got, ok := s.Tiding("x")
	if !ok || got.Content != 2 || got.Description != "second" {
		t.Fatalf("Tiding(x) = %+v, ok=%v", got, ok)
	}
}

func TestSerializeTidingsFormat(t *testing.T) {
	s := NewStore(nil)
	s.UpsertTiding(models.Tiding{LuaName: "count", Content: 3, Description: "a running total"})
	got := s.SerializeTidings()
	want := "count = 3  # a running total"
	if got != want {
		t.Errorf("SerializeTidings() = %q, want %q", got, want)
	}
}

func TestSerializeTidingsAppliesTruncator(t *testing.T) {
	s := NewStore(func(content string) string { return content[:3] })
	s.UpsertTiding(models.Tiding{LuaName: "text", Content: "abcdefgh", Description: "d"})
	got := s.SerializeTidings()
	if !strings.Contains(got, "text = abc  # d") {
		t.Errorf("SerializeTidings() with truncator = %q", got)
	}
}

func TestResetClearsStore(t *testing.T) {
	s := NewStore(nil)
	s.InstallSkill(models.Skill{LuaName: "a"})
	s.UpsertTiding(models.Tiding{LuaName: "b"})
	s.Reset()
	if len(s.Skills()) != 0 || len(s.Tidings()) != 0 {
		t.Error("Reset() should clear both stores")
	}
}
