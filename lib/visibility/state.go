// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package visibility

import (
	"sort"
	"sync"

	"github.com/gauravkhati/magicfolder/lib/ignore"
)

// State tracks, for every filename known to the system, which of the
// three visibility states it is in: visible (absent from this
// structure entirely — the transient bootstrap state), Hidden, or
// Classified(category).
type State struct {
	mu sync.Mutex

	// hidden is the set of filenames suppressed from the root
	// listing, awaiting or undergoing classification.
	hidden map[string]struct{}

	// categories maps a category name to the set of filenames
	// assigned to it. A category with an empty set is never
	// observable from outside this package — removeFromCategoryLocked
	// removes it as soon as its last member leaves.
	categories map[string]map[string]struct{}

	// fileCategory maps a classified filename to its category, the
	// inverse index of categories.
	fileCategory map[string]string

	// forgotten tombstones a filename that was unlinked while Hidden
	// or in-flight for classification, so a verdict that arrives
	// after the unlink cannot resurrect it under a category (spec §8
	// scenario 6). MarkHidden clears the tombstone, since recreating
	// the file under the same name starts its lifecycle over.
	forgotten map[string]struct{}
}

// New returns an empty State.
func New() *State {
	return &State{
		hidden:       make(map[string]struct{}),
		categories:   make(map[string]map[string]struct{}),
		fileCategory: make(map[string]string),
		forgotten:    make(map[string]struct{}),
	}
}

// MarkHidden inserts name into the Hidden set. Idempotent. Ignored
// filenames (see lib/ignore) are never tracked and this is a silent
// no-op for them.
func (s *State) MarkHidden(name string) {
	if ignore.Is(name) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden[name] = struct{}{}
	delete(s.forgotten, name)
}

// IsHidden reports whether name is currently in the Hidden set.
func (s *State) IsHidden(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.hidden[name]
	return ok
}

// AssignCategory records a classifier verdict. If name is already
// classified under some category (including this one), the call is a
// no-op — the first verdict wins. A verdict for a name tombstoned by
// Forget (unlinked before the verdict arrived) is also a no-op, so a
// late verdict cannot resurrect a deleted file under a category (spec
// §8 scenario 6).
func (s *State) AssignCategory(name, category string) {
	if ignore.Is(name) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, already := s.fileCategory[name]; already {
		return
	}
	if _, forgotten := s.forgotten[name]; forgotten {
		return
	}

	delete(s.hidden, name)

	if s.categories[category] == nil {
		s.categories[category] = make(map[string]struct{})
	}
	s.categories[category][name] = struct{}{}
	s.fileCategory[name] = category
}

// Forget removes name from Hidden, from its category (if any), and
// from the filename-to-category index, and tombstones it against a
// verdict that arrives afterward. Used by unlink.
func (s *State) Forget(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forgetLocked(name)
	s.forgotten[name] = struct{}{}
}

func (s *State) forgetLocked(name string) {
	delete(s.hidden, name)
	if category, ok := s.fileCategory[name]; ok {
		delete(s.fileCategory, name)
		s.removeFromCategoryLocked(category, name)
	}
}

func (s *State) removeFromCategoryLocked(category, name string) {
	members := s.categories[category]
	if members == nil {
		return
	}
	delete(members, name)
	if len(members) == 0 {
		delete(s.categories, category)
	}
}

// Rename migrates all visibility state tracked under oldName to
// newName: Hidden membership, category membership, and the
// filename-to-category mapping move atomically under the state
// mutex. Any state and tombstone already held by newName are
// dropped first, so if oldName is untracked, newName ends up
// untracked as well.
func (s *State) Rename(oldName, newName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if oldName == newName {
		return
	}

	// The destination name must not carry over any stale state of
	// its own — a rename onto an existing tracked name replaces it,
	// matching the backing store's last-writer-wins rename semantics.
	// It also loses any tombstone, since it is about to receive live
	// tracked state of its own.
	s.forgetLocked(newName)
	delete(s.forgotten, newName)

	if _, hidden := s.hidden[oldName]; hidden {
		delete(s.hidden, oldName)
		s.hidden[newName] = struct{}{}
	}

	if category, ok := s.fileCategory[oldName]; ok {
		delete(s.fileCategory, oldName)
		s.removeFromCategoryLocked(category, oldName)
		if s.categories[category] == nil {
			s.categories[category] = make(map[string]struct{})
		}
		s.categories[category][newName] = struct{}{}
		s.fileCategory[newName] = category
	}
}

// ListCategories returns every category name with at least one
// assigned file, sorted for deterministic, reproducible readdir
// output across calls.
func (s *State) ListCategories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.categories))
	for name := range s.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListCategory returns the filenames assigned to category, sorted.
// Returns an empty slice (not nil) for an unknown category.
func (s *State) ListCategory(category string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.categories[category]
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CategoryOf returns the category name assigned to filename, if any.
func (s *State) CategoryOf(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	category, ok := s.fileCategory[name]
	return category, ok
}

// HasCategory reports whether category currently has at least one
// assigned file — used by getattr/opendir to decide whether a
// top-level name is a synthetic directory.
func (s *State) HasCategory(category string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.categories[category]) > 0
}
