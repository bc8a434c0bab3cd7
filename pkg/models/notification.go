package models

// Notification is one element of a streaming-routine's generator output.
// Fields is the decoded Lua table exactly as yielded — spec.md's "all other
// elements are forwarded verbatim" leaves the shape of a notification up to
// the synthesized routine, so the harness forwards the whole table rather
// than projecting out a fixed set of keys.
type Notification struct {
	Fields map[string]any `json:"fields"`
}

// Type returns the yielded table's "type" entry ("" if absent or not a
// string). The element with Type() == "final" is the distinguished terminal
// element; every element before it is a progress update.
func (n Notification) Type() string {
	t, _ := n.Fields["type"].(string)
	return t
}

// IsFinal reports whether n is the distinguished terminal notification.
func (n Notification) IsFinal() bool {
	return n.Type() == "final"
}

// Tiding is a named value persisted in the execution namespace alongside a
// natural-language description, so a later LM call can refer to it without
// re-deriving its content.
type Tiding struct {
	NaturalName string `json:"natural_name"`
	LuaName     string `json:"lua_name"`
	Description string `json:"description"`
	Content     any    `json:"content"`
}

// Skill is a named, reusable function synthesized from a code, code_skill,
// routine, or generating_routine message and installed into the execution
// namespace.
type Skill struct {
	// LuaName is the principal top-level name the skill is invoked by.
	LuaName string `json:"lua_name"`

	// Args are the formal parameter names of the principal function, in
	// declaration order.
	Args []string `json:"args"`

	// Docstring is the natural-language description extracted from the
	// function's leading block comment, if any.
	Docstring string `json:"docstring,omitempty"`

	// Source is the exact Lua source text of the skill, as installed.
	Source string `json:"source"`

	// Helpers lists any other top-level names the skill's source bound,
	// besides LuaName, captured at install time for informational purposes.
	Helpers []string `json:"helpers,omitempty"`
}
