package luaenv

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// FunctionSpec is the installable unit the Code Extractor (internal/extract)
// produces for one top-level function: its namespace name and the exact
// source text of its declaration.
type FunctionSpec struct {
	LuaName string
	Source  string
}

// Install binds principal into the namespace unconditionally (a later
// synthesis under the same name always overwrites, per spec.md §3's Skill
// invariant), then merges each of helpers in only if the namespace does not
// already bind that name.
//
// This is the Lua-native form of the original reference's
// skill_capture_context technique (original_source/backend/frame/
// harness4.py): where Python captured new bindings by executing a skill's
// source against a separate locals dict and then selectively copying into
// globals, loom has no analogous "exec into a private scope" primitive for
// top-level Lua function statements (they always assign directly into _G
// unless declared local, and a `local function` executed in its own DoString
// chunk would vanish the instant that chunk returns). Working from the
// exact per-function source spans the Code Extractor already isolated lets
// loom apply the identical overwrite/merge decision per name, one DoString
// per function, without ever needing to move a compiled function value
// between separate *lua.LState instances.
func (ns *Namespace) Install(principal FunctionSpec, helpers []FunctionSpec) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.installOneLocked(principal); err != nil {
		return fmt.Errorf("luaenv: install principal %q: %w", principal.LuaName, err)
	}

	for _, h := range helpers {
		if ns.L.GetGlobal(h.LuaName) != lua.LNil {
			continue
		}
		if err := ns.installOneLocked(h); err != nil {
			return fmt.Errorf("luaenv: install helper %q: %w", h.LuaName, err)
		}
	}
	return nil
}

func (ns *Namespace) installOneLocked(spec FunctionSpec) error {
	source := globalizeFunctionSource(spec.Source)
	if err := ns.L.DoString(source); err != nil {
		return err
	}
	return nil
}

// globalizeFunctionSource strips a leading "local " off a `local function
// name(...) ... end` declaration, so executing it as its own chunk binds
// name into the persistent namespace's globals rather than into a
// chunk-local variable that disappears the instant DoString returns.
func globalizeFunctionSource(source string) string {
	trimmed := strings.TrimLeft(source, " \t\n")
	if strings.HasPrefix(trimmed, "local function") {
		idx := strings.Index(source, "local")
		return source[:idx] + source[idx+len("local "):]
	}
	return source
}
