// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package freelancer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/freelancehub/pkg/pointer"
)

func TestDialect_SelectParentLocksOnlyOnPostgres(t *testing.T) {
	query, args := postgresDialect.selectParent(7, true)
	assert.Equal(t, "SELECT id, username, email, phone, isarchived, createdat, updatedat FROM freelancer WHERE id = $1 FOR UPDATE", query)
	assert.Equal(t, []any{int64(7)}, args)

	query, _ = postgresDialect.selectParent(7, false)
	assert.NotContains(t, query, "FOR UPDATE")

	query, _ = sqliteDialect.selectParent(7, true)
	assert.Equal(t, "SELECT id, username, email, phone, isarchived, createdat, updatedat FROM freelancer WHERE id = ?", query)
}

func TestDialect_UpdateParentWritesOnlyChangedFields(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	query, args := postgresDialect.updateParent(7, ParentChanges{Email: pointer.To(""), IsArchived: pointer.To(true)}, at)

	assert.Equal(t, "UPDATE freelancer SET email = $1, isarchived = $2, updatedat = $3 WHERE id = $4", query)
	assert.Equal(t, []any{nil, true, at, int64(7)}, args)
}

func TestDialect_InsertReturnsIDOnPostgres(t *testing.T) {
	query, args := postgresDialect.insertChild(KindSkillset, 7, "Go")
	assert.Equal(t, "INSERT INTO skillset (freelancerid, name) VALUES ($1, $2) RETURNING id", query)
	assert.Equal(t, []any{int64(7), "Go"}, args)

	query, _ = sqliteDialect.insertChild(KindHobby, 7, "Chess")
	assert.Equal(t, "INSERT INTO hobby (freelancerid, name) VALUES (?, ?)", query)
}

func TestDialect_ChildStatementsAreScopedByParent(t *testing.T) {
	query, args := postgresDialect.updateChild(KindHobby, 3, 7, "")
	assert.Equal(t, "UPDATE hobby SET name = $1 WHERE id = $2 AND freelancerid = $3", query)
	assert.Equal(t, []any{nil, int64(3), int64(7)}, args)

	query, args = postgresDialect.deleteChildren(KindHobby, []int64{3, 4}, 7)
	assert.Equal(t, "DELETE FROM hobby WHERE id IN ($1, $2) AND freelancerid = $3", query)
	assert.Equal(t, []any{int64(3), int64(4), int64(7)}, args)

	query, _ = postgresDialect.selectChildren(KindSkillset, 1, 2)
	assert.Equal(t, "SELECT id, freelancerid, name FROM skillset WHERE freelancerid IN ($1, $2) ORDER BY id ASC", query)
}

func TestDialect_ListFilters(t *testing.T) {
	query, args := postgresDialect.listParents(Filter{Query: "Ada", Archived: pointer.To(false)}, 20, 40)

	assert.True(t, strings.HasPrefix(query, "SELECT id, username, email, phone, isarchived, createdat, updatedat FROM freelancer "+
		"WHERE (lower(username) LIKE $1 ESCAPE '\\' OR lower(email) LIKE $2 ESCAPE '\\') AND isarchived = $3 ORDER BY id ASC LIMIT"), query)
	assert.Equal(t, []any{"%ada%", "%ada%", false}, args[:3])

	_, args = sqliteDialect.countParents(Filter{Query: `50%_off\`})
	assert.Equal(t, []any{`%50\%\_off\\%`, `%50\%\_off\\%`}, args)

	query, args = sqliteDialect.countParents(Filter{})
	assert.Equal(t, "SELECT COUNT(*) FROM freelancer", query)
	assert.Empty(t, args)
}
