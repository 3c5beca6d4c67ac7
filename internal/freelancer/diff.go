// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package freelancer

import (
	"fmt"
	"strings"

	"github.com/taibuivan/freelancehub/internal/platform/apperr"
)

// ChildUpdate renames one existing child. An empty Name clears it.
type ChildUpdate struct {
	ID   int64
	Name string
}

// ChildPlan is the staged write set for one child kind.
type ChildPlan struct {
	Kind    Kind
	Deletes []int64
	Updates []ChildUpdate
	Inserts []string
}

// IsEmpty reports whether the plan writes nothing.
func (plan ChildPlan) IsEmpty() bool {
	return len(plan.Deletes) == 0 && len(plan.Updates) == 0 && len(plan.Inserts) == 0
}

/*
DiffChildren classifies a desired child list against the persisted one.

Description: Entries are processed in the order given.

  - Deletes (replace-all only): existing ids the desired list does not name.
  - Updates: a named existing id whose normalized name differs. A blank name
    clears the row; a nil name requests nothing.
  - Inserts: id 0 with a non-blank name not already held by a surviving row or
    an earlier insert. Later duplicates are dropped without error.

Names released by deletes and renames become available to later entries.

Parameters:
  - kind: Kind
  - existing: []Child (All persisted children of this kind for the parent)
  - desired: []DesiredChild
  - mode: Mode

Returns:
  - ChildPlan: The staged writes
  - error: apperr.ValidationError for foreign, negative or repeated ids,
    apperr.Conflict when a rename collides with another row's name
*/
func DiffChildren(kind Kind, existing []Child, desired []DesiredChild, mode Mode) (ChildPlan, error) {
	plan := ChildPlan{Kind: kind}
	index := newNameIndex(existing)

	byID := make(map[int64]Child, len(existing))
	for _, child := range existing {
		byID[child.ID] = child
	}

	// 1. Every referenced id must be an existing child of this parent, once.
	named := make(map[int64]struct{}, len(desired))
	for position, entry := range desired {
		if entry.ID == 0 {
			continue
		}
		if entry.ID < 0 {
			return ChildPlan{}, invalidEntry(kind, position, "Identifier must not be negative")
		}
		if _, found := byID[entry.ID]; !found {
			return ChildPlan{}, invalidEntry(kind, position,
				fmt.Sprintf("%s %d does not belong to this freelancer", kind.Label(), entry.ID))
		}
		if _, repeated := named[entry.ID]; repeated {
			return ChildPlan{}, invalidEntry(kind, position, "Identifier is listed more than once")
		}
		named[entry.ID] = struct{}{}
	}

	// 2. Deletes run first so their names are free for the rest of the batch.
	if mode == ModeReplaceAll {
		for _, child := range existing {
			if _, keep := named[child.ID]; keep {
				continue
			}
			plan.Deletes = append(plan.Deletes, child.ID)
			index.release(child.Name, child.ID)
		}
	}

	// 3. Updates
	for position, entry := range desired {
		if entry.ID == 0 || entry.Name == nil {
			continue
		}

		current := byID[entry.ID]
		incoming := strings.TrimSpace(*entry.Name)
		if index.same(incoming, current.Name) {
			continue
		}

		if owner, taken := index.owner(incoming); taken && owner != entry.ID {
			return ChildPlan{}, duplicateName(kind, position, incoming)
		}

		index.release(current.Name, entry.ID)
		index.claim(incoming, entry.ID)
		plan.Updates = append(plan.Updates, ChildUpdate{ID: entry.ID, Name: incoming})
	}

	// 4. Inserts, first occurrence wins.
	for _, entry := range desired {
		if entry.ID != 0 || entry.Name == nil {
			continue
		}

		incoming := strings.TrimSpace(*entry.Name)
		if incoming == "" {
			continue
		}
		if _, taken := index.owner(incoming); taken {
			continue
		}

		index.claim(incoming, 0)
		plan.Inserts = append(plan.Inserts, incoming)
	}

	return plan, nil
}

// entryField renders the JSON path of a desired entry, e.g. "hobbies[2].id".
func entryField(kind Kind, position int, attribute string) string {
	return fmt.Sprintf("%s[%d].%s", kind.Collection(), position, attribute)
}

func invalidEntry(kind Kind, position int, message string) error {
	return apperr.ValidationField(entryField(kind, position, "id"), message)
}

func duplicateName(kind Kind, position int, name string) error {
	conflict := apperr.Conflict(fmt.Sprintf("%s %q already exists for this freelancer", kind.Label(), name))
	conflict.Details = []apperr.FieldError{{Field: entryField(kind, position, "name"), Message: "Name already in use"}}
	return conflict
}
