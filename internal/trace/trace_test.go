package trace

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSinkWritesHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, "run-1", "sess-1")
	s.Write("hello")
	s.Write("world")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines (header + 2 entries), got %d: %q", len(lines), buf.String())
	}

	var h Header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("header line not valid JSON: %v", err)
	}
	if h.RunID != "run-1" || h.SessionID != "sess-1" || h.Version != 1 {
		t.Errorf("unexpected header: %+v", h)
	}
	if lines[1] != "hello" || lines[2] != "world" {
		t.Errorf("unexpected entries: %v", lines[1:])
	}
}

func TestSinkWriteSeparator(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, "run-1", "sess-1")
	s.WriteSeparator()
	if !strings.Contains(buf.String(), separatorRule) {
		t.Errorf("expected separator rule in output, got %q", buf.String())
	}
}

func TestSinkHookReceivesEntries(t *testing.T) {
	var buf bytes.Buffer
	var got []string
	s := New(&buf, "run-1", "sess-1", WithHook(func(entry string) {
		got = append(got, entry)
	}))
	s.Write("one")
	s.Write("two")

	if len(got) != 3 { // header + two entries
		t.Fatalf("expected 3 hook calls, got %d: %v", len(got), got)
	}
	if got[1] != "one" || got[2] != "two" {
		t.Errorf("unexpected hook entries: %v", got)
	}
}

func TestSinkEcho(t *testing.T) {
	var buf, echo bytes.Buffer
	s := New(&buf, "run-1", "sess-1", WithEcho(&echo))
	s.Write("duplicated")
	if buf.String() != echo.String() {
		t.Errorf("echo output diverged from primary output:\nprimary=%q\necho=%q", buf.String(), echo.String())
	}
}

func TestTracedPromptFormat(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, "run-1", "sess-1")
	s.TracedPrompt("message_type", "classify this", "is this code?", "code")

	out := buf.String()
	for _, want := range []string{"<<errand:message_type>>", "<<PRE-PROMPT>>", "classify this", "<<PROMPT>>", "is this code?", "<<RESPONSE>>", "code"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}
