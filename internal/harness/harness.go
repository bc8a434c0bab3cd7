// Package harness implements the Harness component (C6): the
// classify → synthesize → parse → inject → invoke → collect → advance loop
// described in spec.md §4.5, tying together the LM Client (internal/llm),
// Trace Sink (internal/trace), Errand registry (internal/errand), Code
// Extractor (internal/extract), and Skill/Tiding Store + Execution
// Namespace (internal/skills, internal/luaenv).
package harness

import (
	"context"
	"strings"
	"sync"

	"github.com/nexusharness/loom/internal/errand"
	"github.com/nexusharness/loom/internal/extract"
	"github.com/nexusharness/loom/internal/llm"
	"github.com/nexusharness/loom/internal/luaenv"
	"github.com/nexusharness/loom/internal/skills"
	"github.com/nexusharness/loom/internal/trace"
	"github.com/nexusharness/loom/pkg/models"
)

// Harness runs one session's compile-execute-persist loop. It is not safe
// for concurrent Process/Stream calls on the same instance — spec.md §5's
// concurrency model is single-threaded cooperative per session, and callers
// owning multiple sessions should hold one Harness per session (see
// internal/session).
type Harness struct {
	client     llm.Client
	errands    *errand.Registry
	store      *skills.Store
	ns         *luaenv.Namespace
	trace      *trace.Sink
	completion llm.CompletionConfig

	mu      sync.Mutex
	lastMID int64
}

// New wires a Harness from its five collaborators. trace may be nil to
// disable tracing (tests exercising only the compile-execute contract).
func New(client llm.Client, errands *errand.Registry, store *skills.Store, ns *luaenv.Namespace, sink *trace.Sink, completion llm.CompletionConfig) *Harness {
	return &Harness{
		client:     client,
		errands:    errands,
		store:      store,
		ns:         ns,
		trace:      sink,
		completion: completion,
	}
}

// LastMID returns the highest message id successfully advanced past,
// spec.md §8 property 1's "monotonic history" value.
func (h *Harness) LastMID() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastMID
}

func (h *Harness) advance(mid int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if mid > h.lastMID {
		h.lastMID = mid
	}
}

// Reset discards this session's skills, tidings, and namespace bindings and
// zeroes last_mid, per spec.md §3's reset contract. The bootstrap namespace
// (language_model, search client, standard library) survives, re-seeded
// against client.
func (h *Harness) Reset(client llm.Client) {
	h.store.Reset()
	h.ns.Reset(client)
	h.mu.Lock()
	h.lastMID = 0
	h.mu.Unlock()
}

// Snapshot is a get_chat_context_dict-equivalent view of session state
// (spec.md §9's supplemented introspection feature): the current last_mid
// plus every installed skill and tiding, for building follow-up prompts or
// debugging without reaching into the store/namespace directly.
type Snapshot struct {
	LastMID int64
	Skills  []models.Skill
	Tidings []models.Tiding
}

// Snapshot returns the current session state.
func (h *Harness) Snapshot() Snapshot {
	return Snapshot{
		LastMID: h.LastMID(),
		Skills:  h.store.Skills(),
		Tidings: h.store.Tidings(),
	}
}

// preMutationKinds are the four error kinds spec.md §7 says are "surfaced
// before any namespace mutation and leave session state unchanged" — for
// every other kind (including SynthesisEmpty, per spec.md §8 scenario 3),
// last_mid still advances per the terminal flow's unconditional step 7.
func isPreMutation(kind Kind) bool {
	switch kind {
	case KindEmptyMessage, KindInvalidType, KindClassificationFailed, KindNotImplemented:
		return true
	default:
		return false
	}
}

func (h *Harness) advanceUnlessPreMutation(err error, mid int64) {
	if kind, ok := KindOf(err); ok && isPreMutation(kind) {
		return
	}
	h.advance(mid)
}

// commitTiding upserts a tiding in both the store (for prompt serialization)
// and the namespace (so later invocation snippets can reference it as a
// plain global), per spec.md §4.4's "the namespace is a single object
// shared by install, upsert, and invocation" note.
func (h *Harness) commitTiding(name string, value any, description string) {
	h.store.UpsertTiding(models.Tiding{
		NaturalName: name,
		LuaName:     name,
		Description: description,
		Content:     value,
	})
	h.ns.SetGlobal(name, value)
}

// classify runs the message_type multiple-choice errand (spec.md §4.2).
func (h *Harness) classify(ctx context.Context, content string) (models.MessageType, error) {
	e := h.errands.MustGet(errand.MessageType)
	prePrompt, prompt := e.Render(map[string]string{"message": content})
	out, err := h.client.Run(errand.WithName(ctx, errand.MessageType), prePrompt, prompt, h.completion)
	if h.trace != nil {
		h.trace.TracedPrompt(errand.MessageType, prePrompt, prompt, out)
	}
	if err != nil {
		return "", newErr(KindLMUnavailable, "classification call failed", err)
	}
	choice, ok := e.Filter(out)
	if !ok {
		return "", newErrContext(KindClassificationFailed, "no allowed message type matched the language model's output", out, nil)
	}
	mtype := models.MessageType(choice)
	if !mtype.IsClassifiable() {
		return "", newErrContext(KindClassificationFailed, "classifier returned a non-classifiable type", choice, nil)
	}
	return mtype, nil
}

// resolveType implements the shared preflight of both Process and Stream:
// validate the message, then classify it if its declared type is auto/"".
func (h *Harness) resolveType(ctx context.Context, msg models.Message) (string, models.MessageType, error) {
	trimmed := msg.Trimmed()
	if trimmed == "" {
		return "", "", newErr(KindEmptyMessage, "message content is empty after trimming", nil)
	}
	if !msg.Type.Valid() {
		return "", "", newErrContext(KindInvalidType, "message type is not in the closed set", string(msg.Type), nil)
	}
	mtype := msg.Type
	if mtype == "" || mtype == models.TypeAuto {
		classified, err := h.classify(ctx, trimmed)
		if err != nil {
			return "", "", err
		}
		mtype = classified
	}
	return trimmed, mtype, nil
}

// Process runs the terminal (non-streaming) flow of spec.md §4.5.1 and
// returns the invocation's __output (nil if never assigned).
func (h *Harness) Process(ctx context.Context, msg models.Message) (any, error) {
	trimmed, mtype, err := h.resolveType(ctx, msg)
	if err != nil {
		return nil, err
	}

	var output any
	switch mtype {
	case models.TypeCode:
		output, err = h.processCode(ctx, msg.MID, trimmed)
	case models.TypeCodeSkill:
		output, err = h.processCodeSkill(ctx, msg.MID, trimmed)
	case models.TypeRoutine:
		output, err = h.processRoutine(ctx, msg.MID, trimmed)
	case models.TypeData:
		output, err = h.processData(ctx, msg.MID, trimmed)
	case models.TypeGeneratingRoutine:
		err = newErrContext(KindInvocationError, "generating_routine must be driven via Stream, not Process", string(mtype), nil)
	case models.TypeRoutineSkill, models.TypeQuery, models.TypeQuerySkill:
		err = newErrContext(KindNotImplemented, "message type's pipeline is reserved", string(mtype), nil)
	default:
		err = newErrContext(KindInvalidType, "unrecognized message type", string(mtype), nil)
	}

	h.advanceUnlessPreMutation(err, msg.MID)
	if err != nil {
		return nil, err
	}
	return output, nil
}

// runInvocationAndCommit executes an invocation snippet against the
// namespace (spec.md §4.5.1 steps 5–6): it clears any stale __output/__vars
// left by a prior message, runs invocation, then upserts a tiding for every
// entry of __vars using descriptions (nil is treated as "no descriptions
// known", same as an empty map).
func (h *Harness) runInvocationAndCommit(mid int64, invocation string, descriptions map[string]string) (any, error) {
	h.ns.SetGlobal("__output", nil)
	h.ns.SetGlobal("__vars", nil)

	err := h.ns.DoString(invocation)
	outcome := "ok"
	if err != nil {
		outcome = err.Error()
	}
	if h.trace != nil {
		h.trace.TracedInvocation(invocation, outcome)
	}
	if err != nil {
		return nil, newErrContext(KindInvocationError, "invocation snippet raised", invocation, err)
	}

	output := h.ns.Global("__output")
	if vars, ok := h.ns.Global("__vars").(map[string]any); ok {
		for name, value := range vars {
			desc := ""
			if descriptions != nil {
				desc = descriptions[name]
			}
			h.commitTiding(name, value, desc)
		}
	}
	return output, nil
}

// Event is one element of a Stream's event channel: either a forwardable
// notification, or a terminal error (MissingFinalNotification,
// InvocationError, or ctx.Err() after a Cancelled notification). Exactly
// one of Notification/Err is meaningful; the channel is closed after the
// first Err or after the generator's final element is consumed internally.
type Event struct {
	Notification models.Notification
	Err          error
}

// Stream runs the streaming (generating_routine) flow of spec.md §4.5.2.
// The final element (type == "final") is never sent on the returned
// channel — spec.md §6: "it is not forwarded externally (it is consumed to
// commit tidings)" — the channel simply closes after it is processed.
func (h *Harness) Stream(ctx context.Context, msg models.Message) (<-chan Event, error) {
	trimmed, mtype, err := h.resolveType(ctx, msg)
	if err != nil {
		return nil, err
	}
	if mtype != models.TypeGeneratingRoutine {
		return nil, newErrContext(KindInvalidType, "Stream only accepts messages classified as generating_routine", string(mtype), nil)
	}

	descriptions, err := h.prepareGenerator(ctx, msg.MID, trimmed)
	if err != nil {
		h.advanceUnlessPreMutation(err, msg.MID)
		return nil, err
	}

	events := make(chan Event, 8)
	go h.runGenerator(ctx, msg.MID, descriptions, events)
	return events, nil
}

// prepareGenerator synthesizes the generating-routine function, installs
// it, asks for the invocation snippet and variable descriptions, and
// executes the invocation so that __generator is bound — everything up to
// but not including driving the coroutine itself.
func (h *Harness) prepareGenerator(ctx context.Context, mid int64, message string) (map[string]string, error) {
	defs, err := h.synthesizeCode(ctx, mid, message, errand.MessageGeneratingRoutineProc, "generator_code")
	if err != nil {
		return nil, err
	}
	principal := luaenv.FunctionSpec{LuaName: defs[0].Name, Source: defs[0].Source}
	helpers := toHelperSpecs(defs[1:])
	if err := h.ns.Install(principal, helpers); err != nil {
		return nil, newErr(KindInvocationError, "installing generating routine failed", err)
	}
	h.store.InstallSkill(models.Skill{
		LuaName:   defs[0].Name,
		Args:      defs[0].Args,
		Docstring: defs[0].Docstring,
		Source:    defs[0].Source,
		Helpers:   helperNames(defs[1:]),
	})

	callArgs := h.promptArgs(message)
	callArgs["function_name"] = defs[0].Name
	callArgs["function_args"] = joinArgs(defs[0].Args)
	invocationRaw, err := h.runErrand(ctx, errand.MessageGeneratingRoutineCall, callArgs)
	if err != nil {
		return nil, err
	}
	invocation := extract.StripFences(invocationRaw)

	varArgs := h.promptArgs(message)
	varArgs["invocation"] = invocation
	descRaw, err := h.runErrand(ctx, errand.MessageRoutineVariables, varArgs)
	if err != nil {
		return nil, err
	}
	descriptions := parseDescriptions(descRaw)

	if err := h.ns.DoString(invocation); err != nil {
		return nil, newErrContext(KindInvocationError, "invocation snippet raised while binding __generator", invocation, err)
	}
	return descriptions, nil
}

// runGenerator drives the coroutine one step at a time, forwarding every
// non-final notification and committing tidings once the final one arrives,
// per spec.md §4.5.2 and §5's cancellation rule.
func (h *Harness) runGenerator(ctx context.Context, mid int64, descriptions map[string]string, events chan<- Event) {
	defer close(events)

	fn, ok := h.ns.GlobalFunction("__generator")
	if !ok {
		h.advance(mid)
		events <- Event{Err: newErr(KindInvocationError, "invocation snippet did not bind __generator", nil)}
		return
	}

	for {
		select {
		case <-ctx.Done():
			events <- Event{Notification: models.Notification{Fields: map[string]any{"type": "cancelled"}}}
			events <- Event{Err: ctx.Err()}
			return
		default:
		}

		raw, err := h.ns.StepGenerator(fn)
		if err != nil {
			h.advance(mid)
			if strings.Contains(err.Error(), "dead coroutine") {
				events <- Event{Err: newErr(KindMissingFinalNotification, "generating routine completed without a final notification", err)}
				return
			}
			events <- Event{Err: newErr(KindInvocationError, "generating routine raised", err)}
			return
		}
		if raw == nil {
			// A coroutine.wrap closure whose body has returned yields no value.
			h.advance(mid)
			events <- Event{Err: newErr(KindMissingFinalNotification, "generating routine completed without a final notification", nil)}
			return
		}

		note, err := parseGeneratorYield(raw)
		if err != nil {
			h.advance(mid)
			events <- Event{Err: err}
			return
		}
		if note.IsFinal() {
			modifiedVars, _ := note.Fields["modified_vars"].(map[string]any)
			for name, value := range modifiedVars {
				desc := ""
				if descriptions != nil {
					desc = descriptions[name]
				}
				h.commitTiding(name, value, desc)
			}
			h.advance(mid)
			return
		}
		events <- Event{Notification: note}
	}
}

// parseGeneratorYield interprets one yielded table from __generator (always
// a map[string]any per luaenv.LuaToGo's table conversion, since generator
// yields are never dense arrays) as a Notification. The table is kept in
// full: spec.md's "all other elements are forwarded verbatim" means every
// key a routine yields, not just type/description, survives into the
// forwarded event.
func parseGeneratorYield(raw any) (models.Notification, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return models.Notification{}, newErr(KindInvocationError, "generating routine yielded a non-table value", nil)
	}
	note := models.Notification{Fields: m}
	if note.Type() == "" {
		return models.Notification{}, newErr(KindInvocationError, "generating routine yielded a table with no type field", nil)
	}
	return note, nil
}
