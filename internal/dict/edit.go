// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package dict

import (
	"errors"

	"github.com/samber/lo"
)

// errUnchanged aborts a mutation without reporting a failure.
var errUnchanged = errors.New("unchanged")

func ignoreUnchanged(err error) error {
	if errors.Is(err, errUnchanged) {
		return nil
	}
	return err
}

// Add stores values under root/name. A new slot goes right after the last
// slot of its parent group, or at the end if the group is new.
func (s *Store) Add(name string, values []string) (string, error) {
	key := Join(s.root, Normalize(name))
	err := s.mutate("add", func(m *Mapping) error {
		if m.Has(key) {
			m.Set(key, values)
			return nil
		}
		parent := Parent(key)
		last := -1
		for i, k := range m.keys {
			if Parent(k) == parent {
				last = i
			}
		}
		if last < 0 {
			m.Set(key, values)
			return nil
		}
		m.Insert(last+1, key, values)
		return nil
	})
	return key, err
}

// Rename replaces the key name with newName in place.
func (s *Store) Rename(name, newName string) error {
	name, newName = Normalize(name), Normalize(newName)
	return ignoreUnchanged(s.mutate("rename", func(m *Mapping) error {
		i := m.Index(name)
		if i < 0 {
			return notFound("slot", name)
		}
		if name == newName {
			return errUnchanged
		}
		if m.Has(newName) {
			return &ConflictError{Key: newName}
		}
		entries := m.entries[name]
		delete(m.entries, name)
		m.keys[i] = newName
		m.entries[newName] = entries
		return nil
	}))
}

// EditGroup renames the group prefix of every key under name.
func (s *Store) EditGroup(name, newName string) error {
	name, newName = Normalize(name), Normalize(newName)
	return ignoreUnchanged(s.mutate("edit-group", func(m *Mapping) error {
		members := m.Group(name)
		if len(members) == 0 {
			return notFound("group", name)
		}
		if name == newName {
			return errUnchanged
		}
		renamed := make(map[string]string, len(members))
		for _, k := range members {
			renamed[k] = newName + k[len(name):]
		}
		for _, nk := range renamed {
			if m.Has(nk) && !lo.Contains(members, nk) {
				return &ConflictError{Key: nk}
			}
		}
		entries := make(map[string][]string, len(m.keys))
		for i, k := range m.keys {
			v := m.entries[k]
			if nk, ok := renamed[k]; ok {
				m.keys[i] = nk
				k = nk
			}
			entries[k] = v
		}
		m.entries = entries
		return nil
	}))
}

// DeleteGroup removes every key under name.
func (s *Store) DeleteGroup(name string) error {
	name = Normalize(name)
	return s.mutate("delete-group", func(m *Mapping) error {
		members := m.Group(name)
		if len(members) == 0 {
			return notFound("group", name)
		}
		for _, k := range members {
			m.Delete(k)
		}
		return nil
	})
}

// DeleteSlot removes the single key name.
func (s *Store) DeleteSlot(name string) error {
	name = Normalize(name)
	return s.mutate("delete-slot", func(m *Mapping) error {
		if !m.Delete(name) {
			return notFound("slot", name)
		}
		return nil
	})
}

// MoveStatus is the outcome of MoveSlot.
type MoveStatus int

const (
	MoveDone MoveStatus = iota
	MoveConflict
	MoveFailed
)

func (s MoveStatus) String() string {
	switch s {
	case MoveConflict:
		return "conflict"
	case MoveFailed:
		return "failed"
	}
	return "success"
}

// MoveResult reports where a slot ended up, or which key blocked the move.
type MoveResult struct {
	Status MoveStatus
	Key    string
}

// MoveSlot relocates the slot from. When isTargetGroup is set, to
// names a group and the slot lands before its first member; otherwise to
// names a slot and the moved slot lands just before it.
//
// Within one group the move is a reorder. Across groups the slot is renamed
// to <group>/<base>; if that key exists and force is not set, the mapping is
// left alone and a MoveConflict result is returned. With isCopy the origin
// is kept.
func (s *Store) MoveSlot(from, to string, isTargetGroup, isCopy, force bool) (MoveResult, error) {
	from, to = Normalize(from), Normalize(to)
	group := to
	if !isTargetGroup {
		group = Parent(to)
	}
	res := MoveResult{Status: MoveDone}

	err := s.mutate("move", func(m *Mapping) error {
		if Parent(from) == group {
			entries, ok := m.Get(from)
			if !ok {
				return notFound("slot", from)
			}
			res.Key = from
			if from == to {
				return errUnchanged
			}
			m.Delete(from)
			m.Insert(anchor(m, to, group, isTargetGroup), from, entries)
			return nil
		}

		// The destination is checked first: repeating a completed move
		// reports the conflict rather than the missing origin.
		key := Join(group, Base(from))
		res.Key = key
		if m.Has(key) && !force {
			res.Status = MoveConflict
			return errUnchanged
		}
		entries, ok := m.Get(from)
		if !ok {
			return notFound("slot", from)
		}

		pos := anchor(m, to, group, isTargetGroup)
		var removed []string
		if m.Has(key) {
			removed = append(removed, key)
		}
		if !isCopy {
			removed = append(removed, from)
		}
		for _, k := range removed {
			if i := m.Index(k); i >= 0 && i < pos {
				pos--
			}
			m.Delete(k)
		}
		m.Insert(pos, key, entries)
		return nil
	})
	if err = ignoreUnchanged(err); err != nil {
		return MoveResult{Status: MoveFailed}, err
	}
	return res, nil
}

// anchor returns the insert position for a move: before the first member of
// group, or before the target slot. Missing targets append.
func anchor(m *Mapping, to, group string, isTargetGroup bool) int {
	var i int
	if isTargetGroup {
		_, i, _ = lo.FindIndexOf(m.keys, func(k string) bool { return InGroup(k, group) })
	} else {
		i = m.Index(to)
	}
	if i < 0 {
		return m.Len()
	}
	return i
}

// Position selects where ReorderGroup places a group.
type Position int

const (
	// Before places the group before the first key of the target group.
	Before Position = iota
	// End places the group at the end of the mapping.
	End
)

// ParsePosition accepts "before" and "end".
func ParsePosition(s string) (Position, bool) {
	switch s {
	case "before":
		return Before, true
	case "end", "last":
		return End, true
	}
	return Before, false
}

// ReorderGroup moves the contiguous block of keys under fromGroup either to
// the end or before the first key of toGroup. Relative order inside the
// block is kept.
func (s *Store) ReorderGroup(fromGroup, toGroup string, pos Position) error {
	fromGroup, toGroup = Normalize(fromGroup), Normalize(toGroup)
	return s.mutate("reorder-group", func(m *Mapping) error {
		block := m.Group(fromGroup)
		if len(block) == 0 {
			return notFound("group", fromGroup)
		}
		rest := lo.Without(m.keys, block...)

		at := len(rest)
		if pos == Before {
			_, i, ok := lo.FindIndexOf(rest, func(k string) bool { return InGroup(k, toGroup) })
			if !ok {
				return notFound("group", toGroup)
			}
			at = i
		}

		keys := make([]string, 0, len(m.keys))
		keys = append(keys, rest[:at]...)
		keys = append(keys, block...)
		keys = append(keys, rest[at:]...)
		m.keys = keys
		return nil
	})
}
