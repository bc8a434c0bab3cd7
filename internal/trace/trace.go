// Package trace writes the harness's compilation and execution trace: a
// plain-text, append-only stream of LM prompts, responses, and section
// separators, with a JSON header line identifying the run.
//
// The format is grounded on two sources: the header/options/file-lifecycle
// shape follows the teacher's agent.TracePlugin (functional options,
// mutex-guarded writer, optional owned *os.File), while the text-entry and
// separator semantics follow the reference Python Trace class in
// original_source/backend/frame/trace.py (write, write_separator, optional
// stdout echo, optional hook callback).
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// separatorRule is written between sections of a trace; it is the literal
// Go equivalent of the original's `"#" * 80`.
const separatorRule = "################################################################################"

// Header is the first line written to a trace, identifying the run.
type Header struct {
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
}

// Hook is invoked with every entry written to the trace, in addition to the
// underlying writer. Useful for tests that want to assert on trace content
// without parsing the writer's output.
type Hook func(entry string)

// Option configures a Sink using the functional options pattern.
type Option func(*Sink)

// WithEcho additionally writes every entry to w (e.g. os.Stdout), mirroring
// the original's optional "also print to console" behavior.
func WithEcho(w io.Writer) Option {
	return func(s *Sink) {
		s.echo = w
	}
}

// WithHook registers a callback invoked with every entry written.
func WithHook(h Hook) Option {
	return func(s *Sink) {
		s.hook = h
	}
}

// Sink is the Trace Sink component (C2): a single append-only stream that
// every LM invocation, compilation result, and invocation result is written
// to, in order.
type Sink struct {
	mu      sync.Mutex
	writer  io.Writer
	file    *os.File // non-nil if Sink owns and must Close it
	header  Header
	started bool
	echo    io.Writer
	hook    Hook
}

// New creates a Sink writing to w. The header is written lazily, before the
// first entry.
func New(w io.Writer, runID, sessionID string, opts ...Option) *Sink {
	s := &Sink{
		writer: w,
		header: Header{
			Version:   1,
			RunID:     runID,
			SessionID: sessionID,
			StartedAt: time.Now(),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFile creates a Sink backed by a file at path, truncating any existing
// content. The caller must call Close when done.
func NewFile(path, runID, sessionID string, opts ...Option) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("trace: create file: %w", err)
	}
	s := New(f, runID, sessionID, opts...)
	s.file = f
	return s, nil
}

// Write appends a single entry to the trace, flushing immediately.
func (s *Sink) Write(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(entry)
}

// WriteSeparator writes a section-boundary rule, used between the
// classification, compilation, and execution phases of one message.
func (s *Sink) WriteSeparator() {
	s.Write(separatorRule)
}

func (s *Sink) writeLocked(entry string) {
	if !s.started {
		s.started = true
		s.writeHeaderLocked()
	}
	s.emit(entry)
}

func (s *Sink) writeHeaderLocked() {
	data, err := json.Marshal(s.header)
	if err != nil {
		return
	}
	s.emit(string(data))
}

func (s *Sink) emit(line string) {
	fmt.Fprintln(s.writer, line)
	if s.file != nil {
		_ = s.file.Sync()
	}
	if s.echo != nil {
		fmt.Fprintln(s.echo, line)
	}
	if s.hook != nil {
		s.hook(line)
	}
}

// Close closes the underlying file if the Sink opened one itself.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// TracedPrompt writes one LM call's pre-prompt, prompt, and response,
// bracketed by a separator and the section markers spec.md §6 names:
// <<PRE-PROMPT>>, <<PROMPT>>, <<RESPONSE>>.
func (s *Sink) TracedPrompt(errandName, prePrompt, prompt, response string) {
	s.WriteSeparator()
	s.Write(fmt.Sprintf("<<errand:%s>>", errandName))
	if prePrompt != "" {
		s.Write("<<PRE-PROMPT>>")
		s.Write(prePrompt)
	}
	s.Write("<<PROMPT>>")
	s.Write(prompt)
	s.Write("<<RESPONSE>>")
	s.Write(response)
}

// TracedInvocation records the synthesized snippet run by the harness and
// its outcome, under the <<system>> section marker.
func (s *Sink) TracedInvocation(snippet, outcome string) {
	s.WriteSeparator()
	s.Write("<<system>>")
	s.Write(snippet)
	s.Write("<<RESPONSE>>")
	s.Write(outcome)
}

// joinLines joins lines into one newline-separated entry, for assembling a
// multi-part trace entry (e.g. a notification list) into one Write call.
func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
