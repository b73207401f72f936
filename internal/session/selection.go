// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

// =============================================================================
// SELECTION MODE
// =============================================================================

// EnterSelectionMode starts a bulk selection with an empty set.
func (s *Store) EnterSelectionMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selecting = true
	s.selected = make(map[string]struct{})
}

// InSelectionMode reports whether a bulk selection is in progress.
func (s *Store) InSelectionMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selecting
}

// ExitSelectionMode leaves selection mode and clears the set.
func (s *Store) ExitSelectionMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exitSelectionLocked()
}

func (s *Store) exitSelectionLocked() {
	s.selecting = false
	s.selected = make(map[string]struct{})
}

// ToggleSelection flips the membership of id and reports whether it is now
// selected. Outside selection mode, or for unknown ids, it does nothing and
// returns false.
func (s *Store) ToggleSelection(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.selecting || s.findLocked(id) == nil {
		return false
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return false
	}
	s.selected[id] = struct{}{}
	return true
}

// SelectAll adds every conversation matching f to the selection and returns
// the selection size. It does nothing outside selection mode.
func (s *Store) SelectAll(f Filter) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.selecting {
		return 0
	}
	for _, c := range s.conversations {
		if f.match(c) {
			s.selected[c.ID] = struct{}{}
		}
	}
	return len(s.selected)
}

// Selection returns the selected ids in display order.
func (s *Store) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectionLocked()
}

func (s *Store) selectionLocked() []string {
	ids := make([]string, 0, len(s.selected))
	for _, c := range s.conversations {
		if _, ok := s.selected[c.ID]; ok {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// ArchiveSelected sets the archive flag on the selection, then clears it and
// leaves selection mode. It returns how many conversations changed.
func (s *Store) ArchiveSelected(archived bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.selecting {
		return 0
	}
	n := s.setArchivedLocked(s.selectionLocked(), archived)
	s.exitSelectionLocked()
	if n > 0 {
		s.persistLocked()
	}
	return n
}

// DeleteSelected removes the selection, then clears it and leaves selection
// mode. It returns how many conversations were removed.
func (s *Store) DeleteSelected() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.selecting {
		return 0
	}
	n := s.deleteLocked(s.selectionLocked())
	s.exitSelectionLocked()
	if n > 0 {
		s.persistLocked()
	}
	return n
}
