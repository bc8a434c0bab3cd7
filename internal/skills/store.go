// Package skills implements the Skill/Tiding Store component (C5): two
// insertion-ordered mappings — skills (function name → args, docstring,
// stored source, helper names) and tidings (variable name → value,
// description). A skill's originating message id is recorded only in its
// docstring addendum; tidings carry no origin. The harness writes every
// skill and tiding both here and into the execution namespace.
//
// The mutex-guarded map plus insertion-order slice pattern is grounded on
// the teacher's internal/skills.Manager (RWMutex over the discovered/
// eligible skill maps) and internal/sessions.MemoryStore (clone-on-read
// semantics), adapted here to the much simpler install/upsert/enumerate
// contract spec.md §4.4 actually specifies.
package skills

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nexusharness/loom/pkg/models"
)

// Truncator shortens a tiding's stringified content before it is serialized
// into a prompt, per spec.md §4.4's note that "an implementation may apply
// a caller-provided truncator."
type Truncator func(content string) string

// Store holds one session's skills and tidings.
type Store struct {
	mu sync.RWMutex

	skillOrder []string
	skills     map[string]models.Skill

	tidingOrder []string
	tidings     map[string]models.Tiding

	truncate Truncator
}

// NewStore creates an empty Store. truncate may be nil, in which case
// tiding content is serialized untruncated.
func NewStore(truncate Truncator) *Store {
	return &Store{
		skills:   make(map[string]models.Skill),
		tidings:  make(map[string]models.Tiding),
		truncate: truncate,
	}
}

// InstallSkill replaces any prior skill of the same LuaName, per spec.md
// §4.4's install() contract. A name's position in enumeration order is
// fixed at first install; later replacements keep that position rather
// than moving to the end, so prompt serialization stays stable across
// re-synthesis of the same function.
func (s *Store) InstallSkill(skill models.Skill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.skills[skill.LuaName]; !exists {
		s.skillOrder = append(s.skillOrder, skill.LuaName)
	}
	s.skills[skill.LuaName] = skill
}

// Skill returns the named skill and whether it exists.
func (s *Store) Skill(name string) (models.Skill, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sk, ok := s.skills[name]
	return sk, ok
}

// Skills returns every installed skill in insertion order.
func (s *Store) Skills() []models.Skill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Skill, 0, len(s.skillOrder))
	for _, name := range s.skillOrder {
		out = append(out, s.skills[name])
	}
	return out
}

// UpsertTiding replaces any prior tiding of the same LuaName, per spec.md
// §4.4's upsert() contract. Position is likewise fixed at first write.
func (s *Store) UpsertTiding(t models.Tiding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tidings[t.LuaName]; !exists {
		s.tidingOrder = append(s.tidingOrder, t.LuaName)
	}
	s.tidings[t.LuaName] = t
}

// Tiding returns the named tiding and whether it exists.
func (s *Store) Tiding(name string) (models.Tiding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tidings[name]
	return t, ok
}

// Tidings returns every current tiding in insertion order.
func (s *Store) Tidings() []models.Tiding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Tiding, 0, len(s.tidingOrder))
	for _, name := range s.tidingOrder {
		out = append(out, s.tidings[name])
	}
	return out
}

// SerializeTidings renders every tiding as "name = content  # description"
// lines, in insertion order, for embedding into a follow-up prompt.
func (s *Store) SerializeTidings() string {
	tidings := s.Tidings()
	lines := make([]string, 0, len(tidings))
	for _, t := range tidings {
		content := fmt.Sprintf("%v", t.Content)
		if s.truncate != nil {
			content = s.truncate(content)
		}
		lines = append(lines, fmt.Sprintf("%s = %s  # %s", t.LuaName, content, t.Description))
	}
	return strings.Join(lines, "\n")
}

// SerializeSkills renders every skill as "name(args)  # docstring" lines,
// in insertion order, for embedding into a follow-up prompt.
func (s *Store) SerializeSkills() string {
	skills := s.Skills()
	lines := make([]string, 0, len(skills))
	for _, sk := range skills {
		doc := sk.Docstring
		if doc == "" {
			doc = "(no description)"
		}
		lines = append(lines, fmt.Sprintf("%s(%s)  # %s", sk.LuaName, strings.Join(sk.Args, ", "), doc))
	}
	return strings.Join(lines, "\n")
}

// Reset drops all skills and tidings, per spec.md §3's session-reset
// contract.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skillOrder = nil
	s.skills = make(map[string]models.Skill)
	s.tidingOrder = nil
	s.tidings = make(map[string]models.Tiding)
}
