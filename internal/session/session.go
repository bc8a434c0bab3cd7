// Package session owns the per-user lifecycle spec.md assumes is ambient: a
// timestamped id, a resettable Harness instance, and the FrameConfigV4
// /get_chat_context_dict-equivalent extras recovered from
// original_source/backend/frame/harness4.py (spec.md §9's supplemented
// features). Collapsed here from the teacher's internal/sessions.MemoryStore
// (Create/Get/Reset over many concurrent sessions, backed by CockroachDB or
// memory) to the single in-process Session a loom harness actually needs —
// the multi-tenant store/backend machinery is out of scope for a core that
// explicitly disclaims multi-tenant isolation (spec.md §1 Non-goals).
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexusharness/loom/internal/errand"
	"github.com/nexusharness/loom/internal/harness"
	"github.com/nexusharness/loom/internal/llm"
	"github.com/nexusharness/loom/internal/luaenv"
	"github.com/nexusharness/loom/internal/skills"
	"github.com/nexusharness/loom/internal/trace"
)

// Config is the FrameConfigV4-equivalent per-session tuning spec.md §9
// names: long_context_cutoff, max_iterations, interaction_level.
type Config struct {
	// LongContextCutoff is used as the MaxTokens of this session's
	// completion config (see New). No long-context model variant is
	// selected from it.
	LongContextCutoff int

	// MaxIterations carries original_source's runaway-loop guard setting.
	// It is stored only: nothing in this module caps synthesis/invoke
	// rounds with it.
	MaxIterations int

	// InteractionLevel is a free-form hint ("quiet", "normal", "verbose")
	// original_source threads through to its notification rendering.
	InteractionLevel string
}

// DefaultConfig mirrors harness4.py's FrameConfigV4 field defaults.
func DefaultConfig() Config {
	return Config{
		LongContextCutoff: 8000,
		MaxIterations:     25,
		InteractionLevel:  "normal",
	}
}

// Session pairs a Harness with the identity and config spec.md treats as
// ambient. One Session owns exactly one Namespace/Store/Harness triple for
// its whole lifetime; Reset clears their contents without replacing the
// Session itself.
type Session struct {
	ID        string
	CreatedAt time.Time
	Config    Config

	Harness *harness.Harness

	client llm.Client
}

// defaultSeed is the fixed completion seed every session's LM calls use.
const defaultSeed = 42

// New creates a session with a freshly wired Harness. id may be "" to
// request a generated timestamped id (the UTC creation time followed by a
// uuid, the uuid following the teacher's internal/sessions.MemoryStore.Create
// id-generation fallback); sink may be nil to disable tracing.
func New(client llm.Client, errands *errand.Registry, sink *trace.Sink, cfg Config, id string) *Session {
	createdAt := time.Now()
	if id == "" {
		id = createdAt.UTC().Format("20060102T150405Z") + "-" + uuid.NewString()
	}
	store := skills.NewStore(nil)
	ns := luaenv.New(client)
	completion := llm.CompletionConfig{MaxTokens: cfg.LongContextCutoff, Seed: defaultSeed}
	return &Session{
		ID:        id,
		CreatedAt: createdAt,
		Config:    cfg,
		Harness:   harness.New(client, errands, store, ns, sink, completion),
		client:    client,
	}
}

// Reset discards this session's skills, tidings, and namespace state while
// keeping its id, creation time, and config, per spec.md §3's reset
// contract.
func (s *Session) Reset() {
	s.Harness.Reset(s.client)
}

// Snapshot returns the get_chat_context_dict-equivalent view of this
// session's current state.
func (s *Session) Snapshot() harness.Snapshot {
	return s.Harness.Snapshot()
}
