package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/nexusharness/loom/internal/errand"
	"github.com/nexusharness/loom/internal/extract"
	"github.com/nexusharness/loom/internal/luaenv"
	"github.com/nexusharness/loom/pkg/models"
)

// runErrand renders and calls a single-turn errand, tracing the exchange.
func (h *Harness) runErrand(ctx context.Context, name string, args map[string]string) (string, error) {
	e := h.errands.MustGet(name)
	prePrompt, prompt := e.Render(args)
	out, err := h.client.Run(errand.WithName(ctx, name), prePrompt, prompt, h.completion)
	if h.trace != nil {
		h.trace.TracedPrompt(name, prePrompt, prompt, out)
	}
	if err != nil {
		return "", newErr(KindLMUnavailable, fmt.Sprintf("errand %q call failed", name), err)
	}
	return out, nil
}

// promptArgs assembles the {message, skills, tidings} placeholders every
// processing/call/variables errand template may reference.
func (h *Harness) promptArgs(message string) map[string]string {
	return map[string]string{
		"message": message,
		"skills":  h.store.SerializeSkills(),
		"tidings": h.store.SerializeTidings(),
	}
}

// renameTarget builds the message_<mid>_<suffix> identifier the rename pass
// (spec.md §4.3 step 2) substitutes for the LM's literal `code` placeholder.
func renameTarget(mid int64, suffix string) string {
	return fmt.Sprintf("message_%d_%s", mid, suffix)
}

// extractPrincipal runs the full Code Extractor pipeline (spec.md §4.3) over
// raw LM output and returns the principal skill plus any helper functions.
// renameSuffix is "code", "routine_code", or "generator_code"; pass "" to skip the rename pass
// (code_skill, which never has a single bare `code` placeholder to rename).
func extractPrincipal(raw string, mid int64, renameSuffix string) ([]extract.FunctionDef, error) {
	text := extract.StripFences(raw)
	if renameSuffix != "" {
		text = extract.RenameFirstOccurrence(text, "code", renameTarget(mid, renameSuffix))
	}
	defs := extract.Extract(text)
	if len(defs) == 0 {
		return nil, newErr(KindSynthesisEmpty, "language model produced no parsable top-level function", nil)
	}
	defs[0].Docstring = extract.WithAddendum(defs[0].Docstring, mid)
	defs[0].Source = extract.WithSourceDocstring(defs[0].Source, defs[0].Docstring)
	return defs, nil
}

// synthesizeCode runs a pipeline's processing errand and extracts its
// function definitions. It is shared by the code, routine, and
// generating_routine message types, which differ in the processing errand
// and the rename suffix; their call and variables errands run afterwards in
// installAndInvoke or prepareGenerator.
func (h *Harness) synthesizeCode(ctx context.Context, mid int64, message string, processingErrand, renameSuffix string) ([]extract.FunctionDef, error) {
	raw, err := h.runErrand(ctx, processingErrand, h.promptArgs(message))
	if err != nil {
		return nil, err
	}
	return extractPrincipal(raw, mid, renameSuffix)
}

func toHelperSpecs(defs []extract.FunctionDef) []luaenv.FunctionSpec {
	specs := make([]luaenv.FunctionSpec, 0, len(defs))
	for _, d := range defs {
		specs = append(specs, luaenv.FunctionSpec{LuaName: d.Name, Source: d.Source})
	}
	return specs
}

func helperNames(defs []extract.FunctionDef) []string {
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	return names
}

// processCode implements the `code` pipeline: one skill, an invocation, and
// a description map (spec.md §4.2 table, row 1).
func (h *Harness) processCode(ctx context.Context, mid int64, message string) (any, error) {
	defs, err := h.synthesizeCode(ctx, mid, message, errand.MessageCodeProcessing, "code")
	if err != nil {
		return nil, err
	}
	return h.installAndInvoke(ctx, mid, defs, errand.MessageCodeCall, errand.MessageCodeVariables, message)
}

// processCodeSkill implements `code_skill`: one or more skills installed,
// no invocation (spec.md §4.2 table, row 2).
func (h *Harness) processCodeSkill(ctx context.Context, mid int64, message string) (any, error) {
	raw, err := h.runErrand(ctx, errand.MessageCodeSkillProcessing, h.promptArgs(message))
	if err != nil {
		return nil, err
	}
	defs, err := extractPrincipal(raw, mid, "")
	if err != nil {
		return nil, err
	}
	principal := luaenv.FunctionSpec{LuaName: defs[0].Name, Source: defs[0].Source}
	helpers := toHelperSpecs(defs[1:])
	if err := h.ns.Install(principal, helpers); err != nil {
		return nil, newErr(KindInvocationError, "installing code_skill definitions failed", err)
	}
	for i, d := range defs {
		others := append(append([]extract.FunctionDef(nil), defs[:i]...), defs[i+1:]...)
		h.store.InstallSkill(models.Skill{
			LuaName:   d.Name,
			Args:      d.Args,
			Docstring: d.Docstring,
			Source:    d.Source,
			Helpers:   helperNames(others),
		})
	}
	return nil, nil
}

// processRoutine implements `routine`: identical shape to `code` but driven
// by the routine errand trio (spec.md §4.2 table, row 3).
func (h *Harness) processRoutine(ctx context.Context, mid int64, message string) (any, error) {
	defs, err := h.synthesizeCode(ctx, mid, message, errand.MessageRoutineProcessing, "routine_code")
	if err != nil {
		return nil, err
	}
	return h.installAndInvoke(ctx, mid, defs, errand.MessageRoutineCall, errand.MessageRoutineVariables, message)
}

// processData implements `data`: an invocation snippet with no accompanying
// skill, assigning tidings directly from the `__vars` table it sets
// (spec.md §4.2 table, row 5).
func (h *Harness) processData(ctx context.Context, mid int64, message string) (any, error) {
	raw, err := h.runErrand(ctx, errand.MessageDataProcessing, h.promptArgs(message))
	if err != nil {
		return nil, err
	}
	invocation := extract.StripFences(raw)
	return h.runInvocationAndCommit(mid, invocation, nil)
}

// installAndInvoke is the shared back half of the code/routine pipelines:
// install the principal skill (and any helpers), ask for an invocation
// snippet and a variable-description map, then run and commit.
func (h *Harness) installAndInvoke(ctx context.Context, mid int64, defs []extract.FunctionDef, callErrand, variablesErrand, message string) (any, error) {
	principal := luaenv.FunctionSpec{LuaName: defs[0].Name, Source: defs[0].Source}
	helpers := toHelperSpecs(defs[1:])
	if err := h.ns.Install(principal, helpers); err != nil {
		return nil, newErr(KindInvocationError, "installing synthesized function failed", err)
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
	invocationRaw, err := h.runErrand(ctx, callErrand, callArgs)
	if err != nil {
		return nil, err
	}
	invocation := extract.StripFences(invocationRaw)

	varArgs := h.promptArgs(message)
	varArgs["invocation"] = invocation
	descRaw, err := h.runErrand(ctx, variablesErrand, varArgs)
	if err != nil {
		return nil, err
	}
	descriptions := parseDescriptions(descRaw)

	return h.runInvocationAndCommit(mid, invocation, descriptions)
}

func joinArgs(args []string) string {
	return strings.Join(args, ", ")
}

// parseDescriptions parses the variables errand's "name: description" lines
// (spec.md §4.2's "variable description map") into a lookup keyed by name.
// Lines that don't match the expected shape are skipped rather than erroring
// — an implementation detail of the variables errand, not part of the
// invocation contract itself.
func parseDescriptions(raw string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		name, desc, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		desc = strings.TrimSpace(desc)
		if name == "" {
			continue
		}
		out[name] = desc
	}
	return out
}
