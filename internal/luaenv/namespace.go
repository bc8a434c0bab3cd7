// Package luaenv implements the Execution Namespace described in spec.md
// §3/§4.4: a single persistent mutable global scope, realized with
// github.com/yuin/gopher-lua (a pure-Go Lua 5.1 VM) standing in for the
// "interpreter-in-a-library" spec.md §9 calls for in a non-interpreter host
// language. Every skill install, tiding upsert, and invocation snippet in a
// session executes against the one *lua.LState this package wraps.
package luaenv

import (
	"context"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/nexusharness/loom/internal/llm"
)

// Namespace wraps a persistent *lua.LState: the bootstrap standard library,
// every installed skill, every upserted tiding, and the language_model
// callback all live as globals inside it. A Namespace belongs to exactly
// one session for its whole lifetime.
type Namespace struct {
	mu sync.Mutex
	L  *lua.LState
}

// New creates a Namespace seeded with arithmetic (Lua's builtin math
// library), the search-API client constructor, and language_model. client
// may be nil in tests that never exercise language_model from Lua code.
func New(client llm.Client) *Namespace {
	L := lua.NewState()
	L.OpenLibs() // provides math, string, table, coroutine, base — the bootstrap "minimal standard library" spec.md §6 names.

	ns := &Namespace{L: L}
	ns.registerLanguageModel(client)
	registerTavilyClient(L)
	return ns
}

// Close releases the underlying Lua state. Call once the owning session is
// torn down.
func (ns *Namespace) Close() {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.L.Close()
}

// Reset discards all namespace contents (skills, tidings, helper bindings)
// back to a fresh bootstrap state, per spec.md §3's session-reset contract.
func (ns *Namespace) Reset(client llm.Client) {
	ns.mu.Lock()
	old := ns.L
	ns.L = lua.NewState()
	ns.L.OpenLibs()
	ns.mu.Unlock()
	old.Close()
	ns.registerLanguageModel(client)
	registerTavilyClient(ns.L)
}

// registerLanguageModel binds `language_model(prompt, pre_prompt)` in the
// namespace, wrapping C1 so synthesized Lua code can call back into the LM.
func (ns *Namespace) registerLanguageModel(client llm.Client) {
	ns.L.SetGlobal("language_model", ns.L.NewFunction(func(L *lua.LState) int {
		prompt := L.CheckString(1)
		prePrompt := ""
		if L.GetTop() >= 2 {
			if s, ok := L.Get(2).(lua.LString); ok {
				prePrompt = string(s)
			}
		}
		if client == nil {
			L.RaiseError("language_model: no LM client configured for this namespace")
			return 0
		}
		reply, err := client.Run(context.Background(), prePrompt, prompt, llm.CompletionConfig{})
		if err != nil {
			L.RaiseError("language_model: %v", err)
			return 0
		}
		L.Push(lua.LString(reply))
		return 1
	}))
}

// GlobalNames returns every top-level global name currently bound in the
// namespace, in the arbitrary order gopher-lua's internal hash table
// iterates them — callers that need a stable order should sort the result.
func (ns *Namespace) GlobalNames() []string {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	var names []string
	ns.L.G.Global.ForEach(func(k, _ lua.LValue) {
		if s, ok := k.(lua.LString); ok {
			names = append(names, string(s))
		}
	})
	return names
}

// Has reports whether name is currently bound in the namespace.
func (ns *Namespace) Has(name string) bool {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.L.GetGlobal(name) != lua.LNil
}

// SetGlobal binds a Go value into the namespace as a Lua global, converting
// it with GoToLua.
func (ns *Namespace) SetGlobal(name string, value any) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.L.SetGlobal(name, GoToLua(ns.L, value))
}

// Global reads a namespace global back out as a Go value.
func (ns *Namespace) Global(name string) any {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return LuaToGo(ns.L.GetGlobal(name))
}

// DoString executes source against the persistent namespace. Any top-level
// assignments or function definitions it contains become (or replace)
// namespace globals directly — this is how install() and invocation
// execution both work, differing only in what source they run.
func (ns *Namespace) DoString(source string) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if err := ns.L.DoString(source); err != nil {
		return fmt.Errorf("luaenv: execute: %w", err)
	}
	return nil
}

// GlobalFunction reads a namespace global that must be a callable (not
// converted through LuaToGo, which has no *lua.LFunction case) — used for
// the __generator contract, where the harness needs to repeatedly invoke the
// same Lua closure rather than read its value once.
func (ns *Namespace) GlobalFunction(name string) (*lua.LFunction, bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	fn, ok := ns.L.GetGlobal(name).(*lua.LFunction)
	return fn, ok
}

// StepGenerator calls fn with no arguments and returns its single return
// value converted to Go. __generator is bound by synthesized Lua code to a
// coroutine.wrap(...) closure, so each StepGenerator call resumes the
// coroutine from its last yield point and returns the next yielded
// notification table — a plain function call from the Go side, with all of
// the suspend/resume machinery handled by Lua's own coroutine library.
func (ns *Namespace) StepGenerator(fn *lua.LFunction) (any, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if err := ns.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		return nil, fmt.Errorf("luaenv: step generator: %w", err)
	}
	v := ns.L.Get(-1)
	ns.L.Pop(1)
	return LuaToGo(v), nil
}

// Call invokes the named global function with args, returning nret values
// converted to Go. Used to run invocation-produced calls that the harness
// needs a return value from directly (rather than via __output).
func (ns *Namespace) Call(name string, nret int, args ...any) ([]any, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	fn := ns.L.GetGlobal(name)
	if fn == lua.LNil {
		return nil, fmt.Errorf("luaenv: no such global %q", name)
	}
	lvArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lvArgs[i] = GoToLua(ns.L, a)
	}
	if err := ns.L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, lvArgs...); err != nil {
		return nil, fmt.Errorf("luaenv: call %s: %w", name, err)
	}
	results := make([]any, nret)
	for i := nret - 1; i >= 0; i-- {
		results[i] = LuaToGo(ns.L.Get(-1))
		ns.L.Pop(1)
	}
	return results, nil
}
