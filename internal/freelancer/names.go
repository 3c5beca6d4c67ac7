// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package freelancer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// nameIndex maps normalized child names to the id that holds them.
//
// One index is built per collection per call and threaded through delete,
// update and insert classification. Queued inserts hold id 0. Blank names are
// never indexed, so any number of cleared rows may coexist.
//
// Keys are lower-cased, not case-folded, to match the lower(trim(name))
// unique index: "Straße" and "Strasse" are distinct names.
//
// A cases.Caser is stateful, so the index is not safe for concurrent use.
type nameIndex struct {
	lower  cases.Caser
	owners map[string]int64
}

// newNameIndex seeds the index from the persisted children.
func newNameIndex(existing []Child) *nameIndex {
	index := &nameIndex{
		lower:  cases.Lower(language.Und),
		owners: make(map[string]int64, len(existing)),
	}
	for _, child := range existing {
		index.claim(child.Name, child.ID)
	}
	return index
}

// normalize trims surrounding whitespace and lower-cases.
func (index *nameIndex) normalize(name string) string {
	return index.lower.String(strings.TrimSpace(name))
}

// same reports whether two names are equal after normalization.
func (index *nameIndex) same(left, right string) bool {
	return index.normalize(left) == index.normalize(right)
}

// owner returns the id holding name, if any.
func (index *nameIndex) owner(name string) (int64, bool) {
	key := index.normalize(name)
	if key == "" {
		return 0, false
	}
	id, taken := index.owners[key]
	return id, taken
}

// claim records name for id unless the name is blank or already held.
func (index *nameIndex) claim(name string, id int64) {
	key := index.normalize(name)
	if key == "" {
		return
	}
	if _, taken := index.owners[key]; !taken {
		index.owners[key] = id
	}
}

// release frees name if it is held by id.
func (index *nameIndex) release(name string, id int64) {
	key := index.normalize(name)
	if owner, taken := index.owners[key]; taken && owner == id {
		delete(index.owners, key)
	}
}
