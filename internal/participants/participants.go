// Package participants joins appointment participant ids with the company
// member roster and stages participant edits before they are committed.
package participants

import (
	"sort"
	"strings"
)

// Member is an entry of the company member directory.
type Member struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Avatar *string `json:"avatar,omitempty"`
	Phone  *string `json:"phone,omitempty"`
}

// Display is a participant ready to render.
type Display struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Avatar *string `json:"avatar,omitempty"`
	Phone  *string `json:"phone,omitempty"`
}

// Resolve returns the roster members whose id appears in ids, in roster order.
// Ids missing from the roster are dropped: the roster is authoritative and a
// member who left the company simply disappears.
func Resolve(ids []string, roster []Member) []Display {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[strings.TrimSpace(id)] = struct{}{}
	}
	out := make([]Display, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, m := range roster {
		if _, ok := wanted[m.ID]; !ok {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, Display(m))
	}
	return out
}

// Stage is a local edit set of participant ids, kept apart from the persisted
// appointment until the caller commits it. The zero value is an empty stage
// with nothing persisted.
type Stage struct {
	persisted map[string]struct{}
	staged    map[string]struct{}
}

// NewStage starts an edit session from the persisted participant ids.
func NewStage(persisted []string) *Stage {
	s := &Stage{persisted: toSet(persisted)}
	s.Reset()
	return s
}

// Add stages id. Adding an already staged id is a no-op.
func (s *Stage) Add(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	if s.staged == nil {
		s.staged = make(map[string]struct{})
	}
	s.staged[id] = struct{}{}
}

// Remove unstages id.
func (s *Stage) Remove(id string) {
	delete(s.staged, strings.TrimSpace(id))
}

// IDs returns the staged ids sorted.
func (s *Stage) IDs() []string {
	return sortedKeys(s.staged)
}

// Dirty reports whether the staged set differs from the persisted one.
func (s *Stage) Dirty() bool {
	added, removed := s.Diff()
	return len(added) > 0 || len(removed) > 0
}

// Diff returns the ids to add and to remove, both sorted.
func (s *Stage) Diff() (added, removed []string) {
	for id := range s.staged {
		if _, ok := s.persisted[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range s.persisted {
		if _, ok := s.staged[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// Reset discards staged edits.
func (s *Stage) Reset() {
	s.staged = make(map[string]struct{}, len(s.persisted))
	for id := range s.persisted {
		s.staged[id] = struct{}{}
	}
}

// Commit marks the staged set as persisted.
func (s *Stage) Commit() {
	s.persisted = make(map[string]struct{}, len(s.staged))
	for id := range s.staged {
		s.persisted[id] = struct{}{}
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
