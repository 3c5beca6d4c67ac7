// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package freelancer manages the freelancer aggregate: a parent profile plus two
uniquely-named child collections (hobbies and skillsets).

Clients submit a full or partial desired state and the package works out the
smallest set of writes that brings storage in line with it, then applies them
in a single transaction.

# Architecture

  - Entities: Freelancer, Child, Desired, Result.
  - Pure logic: MergeParent (scalar fields) and DiffChildren (child sets).
  - Engine: Reconcile orchestrates merge, diff and the atomic write.
  - Ports: Store and Tx, implemented by PostgresStore and SQLiteStore.
  - Delivery: Service for use cases, Handler for the HTTP surface.
*/
package freelancer

import (
	"context"
	"fmt"
	"time"
)

// # Child Kinds

// Kind identifies one of the child collections owned by a freelancer.
type Kind string

const (
	KindHobby    Kind = "hobby"
	KindSkillset Kind = "skillset"
)

// Kinds lists every child kind in the order writes are applied.
var Kinds = []Kind{KindHobby, KindSkillset}

// Valid reports whether kind is one of [Kinds].
func (kind Kind) Valid() bool {
	return kind == KindHobby || kind == KindSkillset
}

// Collection is the plural name used in JSON payloads and URL segments.
func (kind Kind) Collection() string {
	switch kind {
	case KindHobby:
		return "hobbies"
	case KindSkillset:
		return "skillsets"
	}
	return string(kind)
}

// Label is the human-readable singular used in error messages.
func (kind Kind) Label() string {
	switch kind {
	case KindHobby:
		return "Hobby"
	case KindSkillset:
		return "Skillset"
	}
	return string(kind)
}

// ParseKind resolves a collection segment ("hobbies", "skillsets") to its [Kind].
func ParseKind(collection string) (Kind, bool) {
	for _, kind := range Kinds {
		if kind.Collection() == collection {
			return kind, true
		}
	}
	return "", false
}

// # Reconciliation Mode

// Mode controls whether children omitted from a desired list are deleted.
type Mode int

const (
	// ModePartial leaves omitted children untouched.
	ModePartial Mode = iota
	// ModeReplaceAll deletes existing children that the desired list omits.
	ModeReplaceAll
)

// String returns the wire name of the mode.
func (mode Mode) String() string {
	if mode == ModeReplaceAll {
		return "replace_all"
	}
	return "partial"
}

// ParseMode resolves a wire name. An empty string selects [ModePartial].
func ParseMode(raw string) (Mode, error) {
	switch raw {
	case "", "partial":
		return ModePartial, nil
	case "replace_all":
		return ModeReplaceAll, nil
	}
	return ModePartial, fmt.Errorf("unknown reconciliation mode %q", raw)
}

// # Domain Entities

// Freelancer is the parent aggregate with both child collections hydrated.
type Freelancer struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Hobbies    []Child   `json:"hobbies"`
	Skillsets  []Child   `json:"skillsets"`
}

// Child is a named entry of one kind belonging to exactly one freelancer.
// A cleared entry has an empty Name.
type Child struct {
	ID           int64  `json:"id"`
	FreelancerID int64  `json:"freelancer_id"`
	Name         string `json:"name"`
}

// Fields returns the mergeable scalar fields of the freelancer.
func (entity *Freelancer) Fields() ParentFields {
	return ParentFields{
		Username:   entity.Username,
		Email:      entity.Email,
		Phone:      entity.Phone,
		IsArchived: entity.IsArchived,
	}
}

// ChildrenOf returns the hydrated collection for kind.
func (entity *Freelancer) ChildrenOf(kind Kind) []Child {
	if kind == KindSkillset {
		return entity.Skillsets
	}
	return entity.Hobbies
}

// SetChildren replaces the hydrated collection for kind.
func (entity *Freelancer) SetChildren(kind Kind, children []Child) {
	if kind == KindSkillset {
		entity.Skillsets = children
		return
	}
	entity.Hobbies = children
}

// # Desired State

// Desired is a client's requested state for one aggregate.
//
// A kind missing from Children is not touched at all. A kind present with an
// empty list is an explicit "no children" (which deletes everything in
// [ModeReplaceAll]).
type Desired struct {
	Parent   ParentPatch
	Children map[Kind][]DesiredChild
}

// DesiredChild is one requested child entry.
//
// ID 0 means "new". Name nil means "no change requested"; a blank Name on an
// existing ID clears the stored name.
type DesiredChild struct {
	ID           int64
	FreelancerID int64
	Name         *string
}

// # Reconciliation Result

// ChildChanges lists the identifiers written for one child kind.
type ChildChanges struct {
	Inserted []int64 `json:"inserted"`
	Updated  []int64 `json:"updated"`
	Deleted  []int64 `json:"deleted"`
}

// Changed reports whether any row of this kind was written.
func (changes ChildChanges) Changed() bool {
	return len(changes.Inserted)+len(changes.Updated)+len(changes.Deleted) > 0
}

// Result describes the outcome of one reconciliation.
//
// Children only holds entries for kinds present in the payload.
type Result struct {
	Found         bool                  `json:"found"`
	Changed       bool                  `json:"changed"`
	ChangedFields []Field               `json:"changed_fields,omitempty"`
	Children      map[Kind]ChildChanges `json:"children,omitempty"`
}

// Filter narrows a paged freelancer listing.
type Filter struct {
	// Query matches username or email, case-insensitively, as a substring.
	Query string
	// Archived restricts the archive flag when non-nil.
	Archived *bool
}

// # Repository Contracts

// Transactor opens the single transaction a reconciliation runs in.
type Transactor interface {
	/*
		InTx runs fn inside one transaction.

		Description: The transaction commits when fn returns nil and rolls back
		otherwise (including on context cancellation). It is acquired and
		released exactly once per call; fn must not open another.

		Parameters:
		  - context: context.Context
		  - fn: func(tx Tx) error

		Returns:
		  - error: fn's error, or begin/commit failures
	*/
	InTx(context context.Context, fn func(tx Tx) error) error
}

// Store is the persistence port for freelancer aggregates.
type Store interface {
	Transactor

	/*
		Get reads one hydrated aggregate outside any write transaction.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *Freelancer: Parent with both child collections
		  - error: apperr.NotFound or storage failures
	*/
	Get(context context.Context, id int64) (*Freelancer, error)

	/*
		List returns a filtered page of hydrated aggregates ordered by id.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - limit, offset: int

		Returns:
		  - []*Freelancer: The page
		  - int: Total matching count
		  - error: Storage failures
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]*Freelancer, int, error)
}

// Tx is the set of operations available inside one transaction.
//
// Every child operation is scoped by the owning freelancer id, so an id that
// belongs to another freelancer is never read or written.
type Tx interface {
	// FindParent reads the parent row and locks it for the rest of the transaction.
	FindParent(context context.Context, id int64) (*Freelancer, error)

	// ListChildren reads one collection of a parent ordered by id.
	ListChildren(context context.Context, kind Kind, parentID int64) ([]Child, error)

	// InsertParent creates a parent row and returns its id.
	InsertParent(context context.Context, entity *Freelancer) (int64, error)

	// UpdateParent writes exactly the fields set in changes plus the update timestamp.
	UpdateParent(context context.Context, id int64, changes ParentChanges, updatedAt time.Time) error

	// InsertChild creates a child row and returns its id.
	InsertChild(context context.Context, kind Kind, parentID int64, name string) (int64, error)

	// UpdateChild renames one child and returns the number of rows affected.
	UpdateChild(context context.Context, kind Kind, id, parentID int64, name string) (int64, error)

	// DeleteChildren removes children by id and returns the number of rows affected.
	DeleteChildren(context context.Context, kind Kind, ids []int64, parentID int64) (int64, error)

	// DeleteParent removes the parent and, by cascade, all of its children.
	DeleteParent(context context.Context, id int64) (int64, error)
}
