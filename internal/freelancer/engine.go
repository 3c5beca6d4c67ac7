// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package freelancer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/freelancehub/internal/platform/apperr"
)

// # Reconciliation Engine

// Engine brings a persisted aggregate in line with a desired state.
//
// It holds no locks and no per-aggregate state; concurrent calls for the same
// freelancer are serialized by the store's row lock and the last commit wins.
type Engine struct {
	store  Transactor
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine constructs an [Engine] on top of a transactional store.
func NewEngine(store Transactor, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// stagedChanges is everything a reconciliation will write, computed before
// the first write is issued.
type stagedChanges struct {
	parent ParentChanges
	plans  []ChildPlan
}

/*
Reconcile merges desired into the aggregate identified by parentID.

Description: Reads the parent (locked) and every child kind present in the
payload, merges the parent fields, diffs each collection, then applies the
parent update, all deletes, all updates and all inserts in that order. The
whole call runs in one transaction; any failure rolls everything back and is
returned as is. Nothing is retried.

Parameters:
  - context: context.Context
  - parentID: int64
  - desired: Desired
  - mode: Mode

Returns:
  - *Result: Found=false (and no writes) when the parent does not exist
  - error: apperr.ValidationError before any write, apperr.Conflict on
    uniqueness or concurrent-modification failures, storage failures otherwise
*/
func (engine *Engine) Reconcile(context context.Context, parentID int64, desired Desired, mode Mode) (*Result, error) {
	if err := validateDesired(parentID, desired); err != nil {
		return nil, err
	}

	var result *Result
	err := engine.store.InTx(context, func(tx Tx) error {
		result = &Result{}

		current, err := tx.FindParent(context, parentID)
		if err != nil {
			if apperr.IsNotFound(err) {
				return nil
			}
			return err
		}
		result.Found = true

		staged, err := stage(context, tx, current, desired, mode)
		if err != nil {
			return err
		}

		if !staged.parent.IsEmpty() {
			if err := tx.UpdateParent(context, parentID, staged.parent, engine.now().UTC()); err != nil {
				return err
			}
			result.ChangedFields = staged.parent.Fields()
		}

		children, err := applyPlans(context, tx, parentID, staged.plans)
		if err != nil {
			return err
		}

		result.Children = children
		result.Changed = !staged.parent.IsEmpty()
		for _, changes := range children {
			result.Changed = result.Changed || changes.Changed()
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Found {
		engine.logger.Debug("freelancer_reconcile_not_found", slog.Int64("freelancer_id", parentID))
		return result, nil
	}

	engine.logger.Info("freelancer_reconciled",
		slog.Int64("freelancer_id", parentID),
		slog.String("mode", mode.String()),
		slog.Bool("changed", result.Changed),
		slog.Any("changed_fields", result.ChangedFields),
	)

	return result, nil
}

// stage computes the parent change set and one plan per present kind.
func stage(context context.Context, tx Tx, current *Freelancer, desired Desired, mode Mode) (stagedChanges, error) {
	var staged stagedChanges
	_, staged.parent = MergeParent(current.Fields(), desired.Parent)

	for _, kind := range Kinds {
		entries, present := desired.Children[kind]
		if !present {
			continue
		}

		existing, err := tx.ListChildren(context, kind, current.ID)
		if err != nil {
			return stagedChanges{}, err
		}

		plan, err := DiffChildren(kind, existing, entries, mode)
		if err != nil {
			return stagedChanges{}, err
		}
		staged.plans = append(staged.plans, plan)
	}

	return staged, nil
}

/*
applyPlans writes staged child plans: every delete, then every update, then
every insert, kinds in the order given.

Description: A rows-affected count short of what was staged means another
transaction changed the rows after they were read, reported as a conflict.

Returns:
  - map[Kind]ChildChanges: One entry per plan, even when nothing was written
  - error: The first store failure
*/
func applyPlans(context context.Context, tx Tx, parentID int64, plans []ChildPlan) (map[Kind]ChildChanges, error) {
	changes := make(map[Kind]ChildChanges, len(plans))
	for _, plan := range plans {
		changes[plan.Kind] = ChildChanges{}
	}

	for _, plan := range plans {
		if len(plan.Deletes) == 0 {
			continue
		}
		affected, err := tx.DeleteChildren(context, plan.Kind, plan.Deletes, parentID)
		if err != nil {
			return nil, err
		}
		if affected != int64(len(plan.Deletes)) {
			return nil, concurrentModification(plan.Kind)
		}
		entry := changes[plan.Kind]
		entry.Deleted = append(entry.Deleted, plan.Deletes...)
		changes[plan.Kind] = entry
	}

	for _, plan := range plans {
		for _, update := range plan.Updates {
			affected, err := tx.UpdateChild(context, plan.Kind, update.ID, parentID, update.Name)
			if err != nil {
				return nil, err
			}
			if affected != 1 {
				return nil, concurrentModification(plan.Kind)
			}
			entry := changes[plan.Kind]
			entry.Updated = append(entry.Updated, update.ID)
			changes[plan.Kind] = entry
		}
	}

	for _, plan := range plans {
		for _, name := range plan.Inserts {
			id, err := tx.InsertChild(context, plan.Kind, parentID, name)
			if err != nil {
				return nil, err
			}
			entry := changes[plan.Kind]
			entry.Inserted = append(entry.Inserted, id)
			changes[plan.Kind] = entry
		}
	}

	return changes, nil
}

// validateDesired rejects payloads that can be refused without reading storage.
func validateDesired(parentID int64, desired Desired) error {
	if parentID <= 0 {
		return apperr.ValidationField("id", "Must be a positive integer")
	}

	for kind, entries := range desired.Children {
		if !kind.Valid() {
			return apperr.ValidationField(string(kind), "Unknown child collection")
		}
		for position, entry := range entries {
			if entry.FreelancerID != 0 && entry.FreelancerID != parentID {
				return apperr.ValidationField(entryField(kind, position, "freelancer_id"),
					"Does not match the freelancer being updated")
			}
		}
	}

	return nil
}

func concurrentModification(kind Kind) error {
	return apperr.Conflict(fmt.Sprintf("%s rows were modified concurrently", kind.Label()))
}
