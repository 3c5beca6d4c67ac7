// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package freelancer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/freelancehub/internal/platform/apperr"
	"github.com/taibuivan/freelancehub/pkg/pointer"
	"github.com/taibuivan/freelancehub/pkg/slice"
)

// # Service Layer

// Service orchestrates freelancer use cases on top of the [Engine] and [Store].
type Service struct {
	store  Store
	engine *Engine
	cache  Cache
	logger *slog.Logger
}

// NewService constructs a new [Service]. A nil cache disables caching.
func NewService(store Store, cache Cache, logger *slog.Logger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{
		store:  store,
		engine: NewEngine(store, logger),
		cache:  cache,
		logger: logger,
	}
}

// NewFreelancer is the input of [Service.Create].
type NewFreelancer struct {
	Username   string
	Email      string
	Phone      string
	IsArchived bool
	Hobbies    []string
	Skillsets  []string
}

// namesOf returns the requested names for kind.
func (input NewFreelancer) namesOf(kind Kind) []string {
	if kind == KindSkillset {
		return input.Skillsets
	}
	return input.Hobbies
}

// # Aggregate Lifecycle

/*
Create persists a new freelancer with its initial children.

Description: Parent and children are written in one transaction. Child names
are trimmed, blank names are skipped and case-insensitive duplicates keep
their first occurrence.

Parameters:
  - context: context.Context
  - input: NewFreelancer

Returns:
  - *Freelancer: The hydrated aggregate
  - error: Storage failures
*/
func (service *Service) Create(context context.Context, input NewFreelancer) (*Freelancer, error) {
	now := time.Now().UTC()
	entity := &Freelancer{
		Username:   strings.TrimSpace(input.Username),
		Email:      strings.TrimSpace(input.Email),
		Phone:      strings.TrimSpace(input.Phone),
		IsArchived: input.IsArchived,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := service.store.InTx(context, func(tx Tx) error {
		id, err := tx.InsertParent(context, entity)
		if err != nil {
			return err
		}
		entity.ID = id

		plans := make([]ChildPlan, 0, len(Kinds))
		for _, kind := range Kinds {
			desired := slice.Map(input.namesOf(kind), func(name string) DesiredChild {
				return DesiredChild{Name: pointer.To(name)}
			})
			plan, err := DiffChildren(kind, nil, desired, ModePartial)
			if err != nil {
				return err
			}
			plans = append(plans, plan)
		}

		written, err := applyPlans(context, tx, id, plans)
		if err != nil {
			return err
		}

		for _, plan := range plans {
			children := make([]Child, 0, len(plan.Inserts))
			for position, name := range plan.Inserts {
				children = append(children, Child{ID: written[plan.Kind].Inserted[position], FreelancerID: id, Name: name})
			}
			entity.SetChildren(plan.Kind, children)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("freelancer_service_create_failed: %w", err)
	}

	service.logger.Info("freelancer_created",
		slog.Int64("freelancer_id", entity.ID),
		slog.Int("hobbies", len(entity.Hobbies)),
		slog.Int("skillsets", len(entity.Skillsets)),
	)

	return entity, nil
}

/*
Get retrieves one hydrated freelancer, reading through the cache.

Returns:
  - *Freelancer: Parent with both collections
  - error: apperr.NotFound or storage failures
*/
func (service *Service) Get(context context.Context, id int64) (*Freelancer, error) {
	if cached, hit := service.cache.Get(context, id); hit {
		return cached, nil
	}

	entity, err := service.store.Get(context, id)
	if err != nil {
		return nil, fmt.Errorf("freelancer_service_get_failed: %w", err)
	}

	service.cache.Set(context, entity)
	return entity, nil
}

/*
List retrieves a filtered page of freelancers.

Returns:
  - []*Freelancer: The page, hydrated
  - int: Total matching count
  - error: Storage failures
*/
func (service *Service) List(context context.Context, filter Filter, limit, offset int) ([]*Freelancer, int, error) {
	filter.Query = strings.TrimSpace(filter.Query)

	items, total, err := service.store.List(context, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("freelancer_service_list_failed: %w", err)
	}
	return items, total, nil
}

/*
Reconcile applies a desired state through the [Engine].

Description: The cached aggregate is dropped whenever anything was written.

Returns:
  - *Result: Engine outcome (Found=false when the freelancer does not exist)
  - error: Validation, conflict or storage failures
*/
func (service *Service) Reconcile(context context.Context, id int64, desired Desired, mode Mode) (*Result, error) {
	result, err := service.engine.Reconcile(context, id, desired, mode)
	if err != nil {
		return nil, fmt.Errorf("freelancer_service_reconcile_failed: %w", err)
	}

	if result.Changed {
		service.cache.Invalidate(context, id)
	}
	return result, nil
}

/*
Delete removes a freelancer and, by cascade, all of its children.

Returns:
  - error: apperr.NotFound when the freelancer does not exist
*/
func (service *Service) Delete(context context.Context, id int64) error {
	err := service.store.InTx(context, func(tx Tx) error {
		affected, err := tx.DeleteParent(context, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperr.NotFound("Freelancer")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("freelancer_service_delete_failed: %w", err)
	}

	service.cache.Invalidate(context, id)
	service.logger.Warn("freelancer_deleted", slog.Int64("freelancer_id", id))

	return nil
}

/*
SetArchived archives or restores a freelancer.

Description: Runs through the engine with only the archive flag provided, so
an already-archived freelancer reports Changed=false.

Returns:
  - *Result: Engine outcome
  - error: apperr.NotFound when the freelancer does not exist
*/
func (service *Service) SetArchived(context context.Context, id int64, archived bool) (*Result, error) {
	result, err := service.Reconcile(context, id, Desired{Parent: ParentPatch{IsArchived: &archived}}, ModePartial)
	if err != nil {
		return nil, err
	}
	if !result.Found {
		return nil, apperr.NotFound("Freelancer")
	}
	return result, nil
}

// # Single Child Editing

/*
UpdateChild renames one child of a freelancer.

Description: Locks the parent, checks the child belongs to it and applies the
same duplicate-name rules as a reconciliation.

Parameters:
  - context: context.Context
  - parentID: int64
  - kind: Kind
  - childID: int64
  - name: string

Returns:
  - *Child: The child as stored after the edit
  - error: apperr.Validation for a blank name, apperr.NotFound, apperr.Conflict or storage failures
*/
func (service *Service) UpdateChild(context context.Context, parentID int64, kind Kind, childID int64, name string) (*Child, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.ValidationField("name", "Name is required")
	}

	var child Child
	var changed bool

	err := service.store.InTx(context, func(tx Tx) error {
		if _, err := tx.FindParent(context, parentID); err != nil {
			if apperr.IsNotFound(err) {
				return apperr.NotFound("Freelancer")
			}
			return err
		}

		existing, err := tx.ListChildren(context, kind, parentID)
		if err != nil {
			return err
		}
		stored, found := findChild(existing, childID)
		if !found {
			return apperr.NotFound(kind.Label())
		}

		plan, err := DiffChildren(kind, existing, []DesiredChild{{ID: childID, Name: &name}}, ModePartial)
		if err != nil {
			return err
		}

		written, err := applyPlans(context, tx, parentID, []ChildPlan{plan})
		if err != nil {
			return err
		}

		// A case-only edit is not a change; the stored spelling stays.
		child = stored
		changed = written[kind].Changed()
		if changed {
			child.Name = name
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("freelancer_service_update_child_failed: %w", err)
	}

	if changed {
		service.cache.Invalidate(context, parentID)
	}
	return &child, nil
}

/*
DeleteChild removes one child of a freelancer.

Returns:
  - error: apperr.NotFound when no such child belongs to the freelancer
*/
func (service *Service) DeleteChild(context context.Context, parentID int64, kind Kind, childID int64) error {
	err := service.store.InTx(context, func(tx Tx) error {
		affected, err := tx.DeleteChildren(context, kind, []int64{childID}, parentID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperr.NotFound(kind.Label())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("freelancer_service_delete_child_failed: %w", err)
	}

	service.cache.Invalidate(context, parentID)
	return nil
}

func findChild(children []Child, id int64) (Child, bool) {
	for _, child := range children {
		if child.ID == id {
			return child, true
		}
	}
	return Child{}, false
}
