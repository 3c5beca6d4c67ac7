// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// PostgreSQL implementation of the aggregate store.
//
// Tables: freelancer holds the profile and archive flag; hobby and skillset
// hold named children, unique per (freelancerid, lower(btrim(name))) and
// removed by ON DELETE CASCADE.
//
// Writers lock the parent row with SELECT ... FOR UPDATE, so reconciliations
// of the same freelancer queue behind each other under READ COMMITTED.

package freelancer

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/freelancehub/internal/platform/dberr"
	"github.com/taibuivan/freelancehub/pkg/pointer"
)

// # Repository Implementation

// PostgresStore implements [Store] using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new Postgres implementation of the aggregate store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// pgQuerier is satisfied by both the pool and an open transaction.
type pgQuerier interface {
	Query(context context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(context context.Context, sql string, args ...any) pgx.Row
}

/*
InTx runs fn inside one pgx transaction.

Description: The deferred rollback is a no-op after a successful commit. When
the context is canceled pgx abandons the connection, which aborts the
transaction on the server.
*/
func (store *PostgresStore) InTx(context context.Context, fn func(tx Tx) error) error {
	transaction, err := store.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_transaction")
	}
	defer transaction.Rollback(context)

	if err := fn(&postgresTx{tx: transaction}); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_transaction")
	}
	return nil
}

/*
Get retrieves one hydrated aggregate without locking.

Returns:
  - *Freelancer: Parent with both collections
  - error: apperr.NotFound or database failures
*/
func (store *PostgresStore) Get(context context.Context, id int64) (*Freelancer, error) {
	query, args := postgresDialect.selectParent(id, false)
	entity, err := scanParent(store.pool.QueryRow(context, query, args...))
	if err != nil {
		return nil, dberr.Wrap(err, "get_freelancer")
	}

	for _, kind := range Kinds {
		children, err := queryChildren(context, store.pool, kind, id)
		if err != nil {
			return nil, err
		}
		entity.SetChildren(kind, children)
	}

	return entity, nil
}

/*
List returns a filtered page of aggregates and the total match count.

Description: Children of the whole page are fetched with one IN query per kind.
*/
func (store *PostgresStore) List(context context.Context, filter Filter, limit, offset int) ([]*Freelancer, int, error) {
	countQuery, countArgs := postgresDialect.countParents(filter)
	var total int
	if err := store.pool.QueryRow(context, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_freelancers")
	}

	query, args := postgresDialect.listParents(filter, limit, offset)
	rows, err := store.pool.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_freelancers")
	}
	defer rows.Close()

	items, err := collectParents(rows)
	if err != nil {
		return nil, 0, err
	}
	if len(items) == 0 {
		return items, total, nil
	}

	ids := make([]int64, len(items))
	for i, entity := range items {
		ids[i] = entity.ID
	}

	for _, kind := range Kinds {
		children, err := queryChildren(context, store.pool, kind, ids...)
		if err != nil {
			return nil, 0, err
		}
		grouped := groupChildren(children)
		for _, entity := range items {
			entity.SetChildren(kind, grouped[entity.ID])
		}
	}

	return items, total, nil
}

// # Transaction Operations

type postgresTx struct {
	tx pgx.Tx
}

func (transaction *postgresTx) FindParent(context context.Context, id int64) (*Freelancer, error) {
	query, args := postgresDialect.selectParent(id, true)
	entity, err := scanParent(transaction.tx.QueryRow(context, query, args...))
	if err != nil {
		return nil, dberr.Wrap(err, "find_freelancer_for_update")
	}
	return entity, nil
}

func (transaction *postgresTx) ListChildren(context context.Context, kind Kind, parentID int64) ([]Child, error) {
	return queryChildren(context, transaction.tx, kind, parentID)
}

func (transaction *postgresTx) InsertParent(context context.Context, entity *Freelancer) (int64, error) {
	query, args := postgresDialect.insertParent(entity)
	var id int64
	if err := transaction.tx.QueryRow(context, query, args...).Scan(&id); err != nil {
		return 0, dberr.Wrap(err, "insert_freelancer")
	}
	return id, nil
}

func (transaction *postgresTx) UpdateParent(context context.Context, id int64, changes ParentChanges, updatedAt time.Time) error {
	query, args := postgresDialect.updateParent(id, changes, updatedAt)
	tag, err := transaction.tx.Exec(context, query, args...)
	if err != nil {
		return dberr.Wrap(err, "update_freelancer")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (transaction *postgresTx) InsertChild(context context.Context, kind Kind, parentID int64, name string) (int64, error) {
	query, args := postgresDialect.insertChild(kind, parentID, name)
	var id int64
	if err := transaction.tx.QueryRow(context, query, args...).Scan(&id); err != nil {
		return 0, dberr.Wrap(err, "insert_"+string(kind))
	}
	return id, nil
}

func (transaction *postgresTx) UpdateChild(context context.Context, kind Kind, id, parentID int64, name string) (int64, error) {
	query, args := postgresDialect.updateChild(kind, id, parentID, name)
	tag, err := transaction.tx.Exec(context, query, args...)
	if err != nil {
		return 0, dberr.Wrap(err, "update_"+string(kind))
	}
	return tag.RowsAffected(), nil
}

func (transaction *postgresTx) DeleteChildren(context context.Context, kind Kind, ids []int64, parentID int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args := postgresDialect.deleteChildren(kind, ids, parentID)
	tag, err := transaction.tx.Exec(context, query, args...)
	if err != nil {
		return 0, dberr.Wrap(err, "delete_"+string(kind))
	}
	return tag.RowsAffected(), nil
}

func (transaction *postgresTx) DeleteParent(context context.Context, id int64) (int64, error) {
	query, args := postgresDialect.deleteParent(id)
	tag, err := transaction.tx.Exec(context, query, args...)
	if err != nil {
		return 0, dberr.Wrap(err, "delete_freelancer")
	}
	return tag.RowsAffected(), nil
}

// # Scanning Helpers

// rowScanner is satisfied by pgx.Row, pgx.Rows and *sql.Row / *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// rowIterator is satisfied by pgx.Rows and *sql.Rows.
type rowIterator interface {
	rowScanner
	Next() bool
	Err() error
}

// collectParents drains rows into a non-nil slice, so an empty page
// serializes as [] on every backend.
func collectParents(rows rowIterator) ([]*Freelancer, error) {
	items := []*Freelancer{}
	for rows.Next() {
		entity, err := scanParent(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_freelancer")
		}
		items = append(items, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_freelancers")
	}
	return items, nil
}

// scanParent reads the columns of [schema.FreelancerTable.Columns] in order.
func scanParent(row rowScanner) (*Freelancer, error) {
	entity := &Freelancer{}
	var email, phone *string
	if err := row.Scan(
		&entity.ID,
		&entity.Username,
		&email,
		&phone,
		&entity.IsArchived,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	entity.Email = pointer.Val(email)
	entity.Phone = pointer.Val(phone)
	entity.Hobbies = []Child{}
	entity.Skillsets = []Child{}
	return entity, nil
}

// scanChild reads the columns of [schema.ChildTable.Columns] in order.
func scanChild(row rowScanner) (Child, error) {
	var child Child
	var name *string
	if err := row.Scan(&child.ID, &child.FreelancerID, &name); err != nil {
		return Child{}, err
	}
	child.Name = pointer.Val(name)
	return child, nil
}

func queryChildren(context context.Context, querier pgQuerier, kind Kind, parentIDs ...int64) ([]Child, error) {
	query, args := postgresDialect.selectChildren(kind, parentIDs...)
	rows, err := querier.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list_"+string(kind))
	}
	defer rows.Close()

	children := []Child{}
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_"+string(kind))
		}
		children = append(children, child)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_"+string(kind))
	}
	return children, nil
}
