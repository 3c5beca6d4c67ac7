// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package freelancer

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/taibuivan/freelancehub/internal/platform/dberr"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLiteStore implements [Store] on an embedded SQLite database.
//
// Transactions begin IMMEDIATE, which takes the database write lock up front
// and stands in for the row lock Postgres takes with FOR UPDATE.
type SQLiteStore struct {
	db *sql.DB
}

// sqliteDSN enables foreign keys (required for the cascade) and WAL.
func sqliteDSN(path string) string {
	return "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_txlock=immediate"
}

/*
OpenSQLite opens (creating if needed) the database file at path and applies
the schema.

Parameters:
  - context: context.Context
  - path: string (":memory:" is not supported; use a temporary file)

Returns:
  - *SQLiteStore: Ready store
  - error: Open or schema failures
*/
func OpenSQLite(context context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite_create_dir_failed: %w", err)
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite_open_failed: %w", err)
	}

	// One writer at a time; the single connection also keeps pragmas in effect.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite_schema_failed: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Ping reports whether the database is reachable.
func (store *SQLiteStore) Ping(context context.Context) error {
	return store.db.PingContext(context)
}

// Close releases the database handle.
func (store *SQLiteStore) Close() error {
	return store.db.Close()
}

// InTx runs fn inside one SQLite transaction.
func (store *SQLiteStore) InTx(context context.Context, fn func(tx Tx) error) error {
	transaction, err := store.db.BeginTx(context, nil)
	if err != nil {
		return dberr.Wrap(err, "begin_transaction")
	}
	defer transaction.Rollback()

	if err := fn(&sqliteTx{tx: transaction}); err != nil {
		return err
	}

	if err := transaction.Commit(); err != nil {
		return dberr.Wrap(err, "commit_transaction")
	}
	return nil
}

// Get retrieves one hydrated aggregate.
func (store *SQLiteStore) Get(context context.Context, id int64) (*Freelancer, error) {
	query, args := sqliteDialect.selectParent(id, false)
	entity, err := scanParent(store.db.QueryRowContext(context, query, args...))
	if err != nil {
		return nil, dberr.Wrap(err, "get_freelancer")
	}

	for _, kind := range Kinds {
		children, err := sqliteChildren(context, store.db, kind, id)
		if err != nil {
			return nil, err
		}
		entity.SetChildren(kind, children)
	}

	return entity, nil
}

// List returns a filtered page of aggregates and the total match count.
func (store *SQLiteStore) List(context context.Context, filter Filter, limit, offset int) ([]*Freelancer, int, error) {
	countQuery, countArgs := sqliteDialect.countParents(filter)
	var total int
	if err := store.db.QueryRowContext(context, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_freelancers")
	}

	query, args := sqliteDialect.listParents(filter, limit, offset)
	items, err := sqliteParents(context, store.db, query, args)
	if err != nil {
		return nil, 0, err
	}
	if len(items) == 0 {
		return items, total, nil
	}

	ids := make([]int64, 0, len(items))
	for _, entity := range items {
		ids = append(ids, entity.ID)
	}

	for _, kind := range Kinds {
		children, err := sqliteChildren(context, store.db, kind, ids...)
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

type sqliteTx struct {
	tx *sql.Tx
}

// FindParent relies on the IMMEDIATE transaction for exclusion.
func (transaction *sqliteTx) FindParent(context context.Context, id int64) (*Freelancer, error) {
	query, args := sqliteDialect.selectParent(id, true)
	entity, err := scanParent(transaction.tx.QueryRowContext(context, query, args...))
	if err != nil {
		return nil, dberr.Wrap(err, "find_freelancer_for_update")
	}
	return entity, nil
}

func (transaction *sqliteTx) ListChildren(context context.Context, kind Kind, parentID int64) ([]Child, error) {
	return sqliteChildren(context, transaction.tx, kind, parentID)
}

func (transaction *sqliteTx) InsertParent(context context.Context, entity *Freelancer) (int64, error) {
	query, args := sqliteDialect.insertParent(entity)
	return sqliteInsert(context, transaction.tx, query, args, "insert_freelancer")
}

func (transaction *sqliteTx) UpdateParent(context context.Context, id int64, changes ParentChanges, updatedAt time.Time) error {
	query, args := sqliteDialect.updateParent(id, changes, updatedAt)
	affected, err := sqliteExec(context, transaction.tx, query, args, "update_freelancer")
	if err != nil {
		return err
	}
	if affected == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (transaction *sqliteTx) InsertChild(context context.Context, kind Kind, parentID int64, name string) (int64, error) {
	query, args := sqliteDialect.insertChild(kind, parentID, name)
	return sqliteInsert(context, transaction.tx, query, args, "insert_"+string(kind))
}

func (transaction *sqliteTx) UpdateChild(context context.Context, kind Kind, id, parentID int64, name string) (int64, error) {
	query, args := sqliteDialect.updateChild(kind, id, parentID, name)
	return sqliteExec(context, transaction.tx, query, args, "update_"+string(kind))
}

func (transaction *sqliteTx) DeleteChildren(context context.Context, kind Kind, ids []int64, parentID int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args := sqliteDialect.deleteChildren(kind, ids, parentID)
	return sqliteExec(context, transaction.tx, query, args, "delete_"+string(kind))
}

func (transaction *sqliteTx) DeleteParent(context context.Context, id int64) (int64, error) {
	query, args := sqliteDialect.deleteParent(id)
	return sqliteExec(context, transaction.tx, query, args, "delete_freelancer")
}

// # Statement Helpers

// sqlQuerier is satisfied by *sql.DB and *sql.Tx.
type sqlQuerier interface {
	QueryContext(context context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(context context.Context, query string, args ...any) (sql.Result, error)
}

func sqliteInsert(context context.Context, querier sqlQuerier, query string, args []any, action string) (int64, error) {
	result, err := querier.ExecContext(context, query, args...)
	if err != nil {
		return 0, dberr.Wrap(err, action)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, dberr.Wrap(err, action)
	}
	return id, nil
}

func sqliteExec(context context.Context, querier sqlQuerier, query string, args []any, action string) (int64, error) {
	result, err := querier.ExecContext(context, query, args...)
	if err != nil {
		return 0, dberr.Wrap(err, action)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, dberr.Wrap(err, action)
	}
	return affected, nil
}

// sqliteParents drains the result set before returning so the single
// connection is free for the follow-up child queries.
func sqliteParents(context context.Context, querier sqlQuerier, query string, args []any) ([]*Freelancer, error) {
	rows, err := querier.QueryContext(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list_freelancers")
	}
	defer rows.Close()

	return collectParents(rows)
}

func sqliteChildren(context context.Context, querier sqlQuerier, kind Kind, parentIDs ...int64) ([]Child, error) {
	query, args := sqliteDialect.selectChildren(kind, parentIDs...)
	rows, err := querier.QueryContext(context, query, args...)
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
