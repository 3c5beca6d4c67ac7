// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package freelancer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/freelancehub/internal/platform/apperr"
)

var errInjected = errors.New("injected write failure")

// memState is everything memStore persists.
type memState struct {
	parents  map[int64]Freelancer
	children map[Kind]map[int64]Child
	nextID   int64
}

func (state memState) clone() memState {
	copied := memState{
		parents:  maps.Clone(state.parents),
		children: make(map[Kind]map[int64]Child, len(state.children)),
		nextID:   state.nextID,
	}
	for kind, rows := range state.children {
		copied.children[kind] = maps.Clone(rows)
	}
	return copied
}

// memStore is an in-memory [Store] with snapshot rollback and write-failure
// injection. Transactions are fully serialized.
type memStore struct {
	mu    sync.Mutex
	state memState

	// failOnWrite makes the Nth write of a transaction fail (1-based, 0 = never).
	failOnWrite int
	writes      int
	childReads  map[Kind]int
	txCount     int
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			parents:  map[int64]Freelancer{},
			children: map[Kind]map[int64]Child{KindHobby: {}, KindSkillset: {}},
		},
		childReads: map[Kind]int{},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seed inserts a parent with the given child names outside any transaction.
func (store *memStore) seed(username string, hobbies, skillsets []string) int64 {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.state.nextID++
	id := store.state.nextID
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.state.parents[id] = Freelancer{ID: id, Username: username, CreatedAt: created, UpdatedAt: created}

	names := map[Kind][]string{KindHobby: hobbies, KindSkillset: skillsets}
	for _, kind := range Kinds {
		for _, name := range names[kind] {
			store.state.nextID++
			store.state.children[kind][store.state.nextID] = Child{ID: store.state.nextID, FreelancerID: id, Name: name}
		}
	}
	return id
}

// snapshot returns a deep copy of the persisted state.
func (store *memStore) snapshot() memState {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state.clone()
}

// childrenOf returns persisted children of a parent ordered by id.
func (store *memStore) childrenOf(kind Kind, parentID int64) []Child {
	store.mu.Lock()
	defer store.mu.Unlock()
	return sortedChildren(store.state.children[kind], parentID)
}

func (store *memStore) parent(id int64) Freelancer {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state.parents[id]
}

func sortedChildren(rows map[int64]Child, parentID int64) []Child {
	children := []Child{}
	for _, child := range rows {
		if child.FreelancerID == parentID {
			children = append(children, child)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children
}

func (store *memStore) InTx(context context.Context, fn func(tx Tx) error) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.txCount++
	store.writes = 0
	before := store.state.clone()

	if err := context.Err(); err != nil {
		return err
	}
	if err := fn(&memTx{store: store}); err != nil {
		store.state = before
		return err
	}
	if err := context.Err(); err != nil {
		store.state = before
		return err
	}
	return nil
}

func (store *memStore) Get(_ context.Context, id int64) (*Freelancer, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	parent, found := store.state.parents[id]
	if !found {
		return nil, apperr.NotFound("Resource")
	}
	entity := parent
	for _, kind := range Kinds {
		entity.SetChildren(kind, sortedChildren(store.state.children[kind], id))
	}
	return &entity, nil
}

func (store *memStore) List(_ context.Context, filter Filter, limit, offset int) ([]*Freelancer, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var matches []*Freelancer
	for _, parent := range store.state.parents {
		query := strings.ToLower(filter.Query)
		if query != "" && !strings.Contains(strings.ToLower(parent.Username), query) &&
			!strings.Contains(strings.ToLower(parent.Email), query) {
			continue
		}
		if filter.Archived != nil && parent.IsArchived != *filter.Archived {
			continue
		}
		entity := parent
		for _, kind := range Kinds {
			entity.SetChildren(kind, sortedChildren(store.state.children[kind], parent.ID))
		}
		matches = append(matches, &entity)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	total := len(matches)
	if offset >= total {
		return []*Freelancer{}, total, nil
	}
	end := min(offset+limit, total)
	return matches[offset:end], total, nil
}

// memTx runs against the store state; the store mutex is held by InTx.
type memTx struct {
	store *memStore
}

func (transaction *memTx) write() error {
	transaction.store.writes++
	if transaction.store.failOnWrite > 0 && transaction.store.writes == transaction.store.failOnWrite {
		return errInjected
	}
	return nil
}

func (transaction *memTx) FindParent(_ context.Context, id int64) (*Freelancer, error) {
	parent, found := transaction.store.state.parents[id]
	if !found {
		return nil, apperr.NotFound("Resource")
	}
	return &parent, nil
}

func (transaction *memTx) ListChildren(_ context.Context, kind Kind, parentID int64) ([]Child, error) {
	transaction.store.childReads[kind]++
	return sortedChildren(transaction.store.state.children[kind], parentID), nil
}

func (transaction *memTx) InsertParent(_ context.Context, entity *Freelancer) (int64, error) {
	if err := transaction.write(); err != nil {
		return 0, err
	}
	state := &transaction.store.state
	state.nextID++
	row := *entity
	row.ID = state.nextID
	row.Hobbies, row.Skillsets = nil, nil
	state.parents[row.ID] = row
	return row.ID, nil
}

func (transaction *memTx) UpdateParent(_ context.Context, id int64, changes ParentChanges, updatedAt time.Time) error {
	if err := transaction.write(); err != nil {
		return err
	}
	row, found := transaction.store.state.parents[id]
	if !found {
		return apperr.NotFound("Resource")
	}
	if changes.Username != nil {
		row.Username = *changes.Username
	}
	if changes.Email != nil {
		row.Email = *changes.Email
	}
	if changes.Phone != nil {
		row.Phone = *changes.Phone
	}
	if changes.IsArchived != nil {
		row.IsArchived = *changes.IsArchived
	}
	row.UpdatedAt = updatedAt
	transaction.store.state.parents[id] = row
	return nil
}

// nameTaken mirrors the unique index on (freelancerid, lower(trim(name))).
func (transaction *memTx) nameTaken(kind Kind, parentID, exceptID int64, name string) bool {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return false
	}
	for _, child := range transaction.store.state.children[kind] {
		if child.FreelancerID == parentID && child.ID != exceptID && strings.ToLower(strings.TrimSpace(child.Name)) == key {
			return true
		}
	}
	return false
}

func (transaction *memTx) InsertChild(_ context.Context, kind Kind, parentID int64, name string) (int64, error) {
	if err := transaction.write(); err != nil {
		return 0, err
	}
	if transaction.nameTaken(kind, parentID, 0, name) {
		return 0, apperr.Conflict("A record with the same name already exists")
	}
	state := &transaction.store.state
	state.nextID++
	state.children[kind][state.nextID] = Child{ID: state.nextID, FreelancerID: parentID, Name: name}
	return state.nextID, nil
}

func (transaction *memTx) UpdateChild(_ context.Context, kind Kind, id, parentID int64, name string) (int64, error) {
	if err := transaction.write(); err != nil {
		return 0, err
	}
	child, found := transaction.store.state.children[kind][id]
	if !found || child.FreelancerID != parentID {
		return 0, nil
	}
	if transaction.nameTaken(kind, parentID, id, name) {
		return 0, apperr.Conflict("A record with the same name already exists")
	}
	child.Name = name
	transaction.store.state.children[kind][id] = child
	return 1, nil
}

func (transaction *memTx) DeleteChildren(_ context.Context, kind Kind, ids []int64, parentID int64) (int64, error) {
	if err := transaction.write(); err != nil {
		return 0, err
	}
	var affected int64
	for _, id := range ids {
		if child, found := transaction.store.state.children[kind][id]; found && child.FreelancerID == parentID {
			delete(transaction.store.state.children[kind], id)
			affected++
		}
	}
	return affected, nil
}

func (transaction *memTx) DeleteParent(_ context.Context, id int64) (int64, error) {
	if err := transaction.write(); err != nil {
		return 0, err
	}
	state := &transaction.store.state
	if _, found := state.parents[id]; !found {
		return 0, nil
	}
	delete(state.parents, id)
	for _, kind := range Kinds {
		for childID, child := range state.children[kind] {
			if child.FreelancerID == id {
				delete(state.children[kind], childID)
			}
		}
	}
	return 1, nil
}
