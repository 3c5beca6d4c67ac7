// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
//
// Both storage backends funnel their failures through [Wrap] so that callers
// only ever see the [apperr] taxonomy: NOT_FOUND, CONFLICT or INTERNAL_ERROR.
package dberr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/taibuivan/freelancehub/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// Errors that already carry an [apperr.AppError] and context cancellations are
// returned untouched.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	if apperr.IsAppError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Constraint and concurrency failures become conflicts
	if message, ok := conflictMessage(err); ok {
		return apperr.ConflictCause(message, fmt.Errorf("%s: %w", action, err))
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// IsUniqueViolation reports whether err is a uniqueness failure from either backend.
func IsUniqueViolation(err error) bool {
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		return pgError.Code == pgerrcode.UniqueViolation
	}

	var sqliteError *sqlite.Error
	if errors.As(err, &sqliteError) {
		code := sqliteError.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return false
}

// conflictMessage classifies Postgres SQLSTATE codes and SQLite extended result codes.
func conflictMessage(err error) (string, bool) {
	if IsUniqueViolation(err) {
		return "A record with the same name already exists", true
	}

	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		switch pgError.Code {
		case pgerrcode.ForeignKeyViolation:
			return "The referenced record no longer exists", true
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
			return "The record was modified concurrently", true
		}
		return "", false
	}

	var sqliteError *sqlite.Error
	if errors.As(err, &sqliteError) {
		if sqliteError.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			return "The referenced record no longer exists", true
		}
		// Primary result code lives in the low byte of the extended code.
		switch sqliteError.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return "The record was modified concurrently", true
		}
	}

	return "", false
}
