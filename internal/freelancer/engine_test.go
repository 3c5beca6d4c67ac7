// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package freelancer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/freelancehub/internal/platform/apperr"
	"github.com/taibuivan/freelancehub/pkg/pointer"
)

func newTestEngine(store Transactor) *Engine {
	engine := NewEngine(store, discardLogger())
	engine.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return engine
}

func TestEngine_ReconcileIsIdempotent(t *testing.T) {
	store := newMemStore()
	id := store.seed("ada", []string{"Chess"}, []string{"Go"})
	hobbies := store.childrenOf(KindHobby, id)
	engine := newTestEngine(store)

	desired := Desired{
		Parent: ParentPatch{Email: pointer.To("ada@example.com")},
		Children: map[Kind][]DesiredChild{
			KindHobby:    {named(hobbies[0].ID, "Board games"), named(0, "Hiking"), named(0, "hiking")},
			KindSkillset: {named(0, "Rust")},
		},
	}

	first, err := engine.Reconcile(context.Background(), id, desired, ModePartial)
	require.NoError(t, err)
	assert.True(t, first.Found)
	assert.True(t, first.Changed)
	assert.Equal(t, []Field{FieldEmail}, first.ChangedFields)
	assert.Len(t, first.Children[KindHobby].Updated, 1)
	assert.Len(t, first.Children[KindHobby].Inserted, 1)
	assert.Len(t, first.Children[KindSkillset].Inserted, 1)

	second, err := engine.Reconcile(context.Background(), id, desired, ModePartial)
	require.NoError(t, err)
	assert.True(t, second.Found)
	assert.False(t, second.Changed)
	assert.Empty(t, second.ChangedFields)
	for _, kind := range Kinds {
		assert.False(t, second.Children[kind].Changed(), kind)
	}
}

func TestEngine_ReplaceAllIsIdempotent(t *testing.T) {
	store := newMemStore()
	id := store.seed("ada", []string{"Chess", "Hiking", "Drawing"}, nil)
	hobbies := store.childrenOf(KindHobby, id)
	engine := newTestEngine(store)

	desired := Desired{Children: map[Kind][]DesiredChild{
		KindHobby: {{ID: hobbies[1].ID}, named(0, "Reading")},
	}}

	first, err := engine.Reconcile(context.Background(), id, desired, ModeReplaceAll)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.ElementsMatch(t, []int64{hobbies[0].ID, hobbies[2].ID}, first.Children[KindHobby].Deleted)

	after := store.childrenOf(KindHobby, id)
	require.Len(t, after, 2)
	assert.Equal(t, "Hiking", after[0].Name)
	assert.Equal(t, "Reading", after[1].Name)

	// The reader now names the inserted row so the payload matches storage.
	stable := Desired{Children: map[Kind][]DesiredChild{
		KindHobby: {{ID: after[0].ID}, {ID: after[1].ID}, named(0, "reading")},
	}}
	second, err := engine.Reconcile(context.Background(), id, stable, ModeReplaceAll)
	require.NoError(t, err)
	assert.False(t, second.Changed)
}

func TestEngine_OmittedKindIsUntouched(t *testing.T) {
	store := newMemStore()
	id := store.seed("ada", []string{"Chess"}, []string{"Go", "Rust"})
	before := store.childrenOf(KindSkillset, id)
	engine := newTestEngine(store)

	for _, mode := range []Mode{ModePartial, ModeReplaceAll} {
		result, err := engine.Reconcile(context.Background(), id, Desired{
			Children: map[Kind][]DesiredChild{KindHobby: {}},
		}, mode)
		require.NoError(t, err)

		_, reported := result.Children[KindSkillset]
		assert.False(t, reported, mode.String())
	}

	assert.Equal(t, before, store.childrenOf(KindSkillset, id))
	assert.Zero(t, store.childReads[KindSkillset])
	assert.Empty(t, store.childrenOf(KindHobby, id))
}

func TestEngine_DeduplicatesNewNames(t *testing.T) {
	store := newMemStore()
	id := store.seed("ada", nil, nil)
	engine := newTestEngine(store)

	result, err := engine.Reconcile(context.Background(), id, Desired{
		Children: map[Kind][]DesiredChild{KindHobby: {named(0, "Chess"), named(0, " chess ")}},
	}, ModePartial)
	require.NoError(t, err)

	assert.Len(t, result.Children[KindHobby].Inserted, 1)
	hobbies := store.childrenOf(KindHobby, id)
	require.Len(t, hobbies, 1)
	assert.Equal(t, "Chess", hobbies[0].Name)
}

func TestEngine_FailureRollsBackEveryWrite(t *testing.T) {
	store := newMemStore()
	id := store.seed("ada", []string{"Chess", "Hiking"}, nil)
	hobbies := store.childrenOf(KindHobby, id)
	before := store.snapshot()

	// Four staged writes: parent update, one delete batch, one update, one insert.
	desired := Desired{
		Parent: ParentPatch{Username: pointer.To("countess")},
		Children: map[Kind][]DesiredChild{
			KindHobby: {named(hobbies[1].ID, "Climbing"), named(0, "Reading")},
		},
	}

	store.failOnWrite = 3
	_, err := newTestEngine(store).Reconcile(context.Background(), id, desired, ModeReplaceAll)
	require.ErrorIs(t, err, errInjected)
	assert.Equal(t, 3, store.writes)
	assert.Equal(t, before, store.snapshot())

	// The same payload succeeds once the failure is gone and issues all four writes.
	store.failOnWrite = 0
	result, err := newTestEngine(store).Reconcile(context.Background(), id, desired, ModeReplaceAll)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, 4, store.writes)
	assert.Equal(t, "countess", store.parent(id).Username)
}

func TestEngine_PartialParentMerge(t *testing.T) {
	store := newMemStore()
	id := store.seed("ada", nil, nil)
	engine := newTestEngine(store)

	_, err := engine.Reconcile(context.Background(), id, Desired{
		Parent: ParentPatch{Email: pointer.To("ada@example.com"), Phone: pointer.To("+44 20 7946 0958")},
	}, ModePartial)
	require.NoError(t, err)

	result, err := engine.Reconcile(context.Background(), id, Desired{
		Parent: ParentPatch{Username: pointer.To(" "), Email: pointer.To(""), Phone: pointer.To("+1 (555) 123-4567")},
	}, ModePartial)
	require.NoError(t, err)
	assert.Equal(t, []Field{FieldPhone}, result.ChangedFields)

	parent := store.parent(id)
	assert.Equal(t, "ada", parent.Username)
	assert.Equal(t, "ada@example.com", parent.Email)
	assert.Equal(t, "+1 (555) 123-4567", parent.Phone)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), parent.UpdatedAt)
}

func TestEngine_UnchangedParentIsNotWritten(t *testing.T) {
	store := newMemStore()
	id := store.seed("ada", nil, nil)

	result, err := newTestEngine(store).Reconcile(context.Background(), id, Desired{
		Parent: ParentPatch{Username: pointer.To("ada"), IsArchived: pointer.To(false)},
	}, ModePartial)
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Zero(t, store.writes)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), store.parent(id).UpdatedAt)
}

func TestEngine_MissingParent(t *testing.T) {
	store := newMemStore()

	result, err := newTestEngine(store).Reconcile(context.Background(), 42, Desired{
		Parent:   ParentPatch{Username: pointer.To("ghost")},
		Children: map[Kind][]DesiredChild{KindHobby: {named(0, "Chess")}},
	}, ModeReplaceAll)

	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.False(t, result.Changed)
	assert.Zero(t, store.writes)
	assert.Zero(t, store.childReads[KindHobby])
}

func TestEngine_RejectsBeforeWriting(t *testing.T) {
	store := newMemStore()
	id := store.seed("ada", []string{"Chess", "Hiking"}, nil)
	other := store.seed("grace", []string{"Sailing"}, nil)
	foreign := store.childrenOf(KindHobby, other)[0]
	hobbies := store.childrenOf(KindHobby, id)
	before := store.snapshot()

	tests := []struct {
		name     string
		parentID int64
		desired  Desired
		check    func(error) bool
	}{
		{
			name:     "Non-positive parent id",
			parentID: 0,
			desired:  Desired{},
			check:    apperr.IsValidation,
		},
		{
			name:     "Entry parent id mismatch",
			parentID: id,
			desired: Desired{Children: map[Kind][]DesiredChild{
				KindHobby: {{ID: 0, FreelancerID: other, Name: pointer.To("Chess")}},
			}},
			check: apperr.IsValidation,
		},
		{
			name:     "Child of another freelancer",
			parentID: id,
			desired: Desired{Children: map[Kind][]DesiredChild{
				KindHobby: {named(foreign.ID, "Mine now")},
			}},
			check: apperr.IsValidation,
		},
		{
			name:     "Unknown kind",
			parentID: id,
			desired:  Desired{Children: map[Kind][]DesiredChild{Kind("pet"): {}}},
			check:    apperr.IsValidation,
		},
		{
			name:     "Rename collides with a sibling",
			parentID: id,
			desired: Desired{
				Parent: ParentPatch{Username: pointer.To("countess")},
				Children: map[Kind][]DesiredChild{
					KindHobby: {named(hobbies[0].ID, "HIKING")},
				},
			},
			check: apperr.IsConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestEngine(store).Reconcile(context.Background(), tt.parentID, tt.desired, ModePartial)

			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
			assert.Equal(t, before, store.snapshot())
		})
	}
}

func TestEngine_CanceledContextWritesNothing(t *testing.T) {
	store := newMemStore()
	id := store.seed("ada", nil, nil)
	before := store.snapshot()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(store).Reconcile(ctx, id, Desired{
		Parent: ParentPatch{Username: pointer.To("countess")},
	}, ModePartial)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, before, store.snapshot())
}

// shortTx reports fewer affected rows than requested, as if another writer
// removed them between the read and the write.
type shortTx struct {
	Tx
}

func (shortTx) DeleteChildren(context.Context, Kind, []int64, int64) (int64, error) {
	return 0, nil
}

type shortStore struct {
	*memStore
}

func (store shortStore) InTx(context context.Context, fn func(tx Tx) error) error {
	return store.memStore.InTx(context, func(tx Tx) error {
		return fn(shortTx{Tx: tx})
	})
}

func TestEngine_RowsAffectedMismatchIsConflict(t *testing.T) {
	store := newMemStore()
	id := store.seed("ada", []string{"Chess"}, nil)

	_, err := newTestEngine(shortStore{store}).Reconcile(context.Background(), id, Desired{
		Children: map[Kind][]DesiredChild{KindHobby: {}},
	}, ModeReplaceAll)

	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
	assert.Len(t, store.childrenOf(KindHobby, id), 1)
}
