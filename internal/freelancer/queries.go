// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package freelancer

import (
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"

	"github.com/taibuivan/freelancehub/internal/platform/database/schema"
)

// dialect builds every statement the stores issue for one SQL flavor.
//
// Column names come from the schema package and values are always bound as
// arguments; no statement text is assembled from input.
type dialect struct {
	flavor sqlbuilder.Flavor
	// lockRows adds FOR UPDATE to the parent read inside a transaction.
	lockRows bool
	// returning adds RETURNING id to inserts instead of relying on LastInsertId.
	returning bool
}

var (
	postgresDialect = dialect{flavor: sqlbuilder.PostgreSQL, lockRows: true, returning: true}
	sqliteDialect   = dialect{flavor: sqlbuilder.SQLite}
)

// childTable maps a kind to its table definition.
func childTable(kind Kind) schema.ChildTable {
	if kind == KindSkillset {
		return schema.Skillset
	}
	return schema.Hobby
}

// nullable stores empty strings as NULL.
func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// # Parent Statements

func (d dialect) selectParent(id int64, lock bool) (string, []any) {
	table := schema.Freelancer
	sb := d.flavor.NewSelectBuilder()
	sb.Select(table.Columns()...)
	sb.From(table.Table)
	sb.Where(sb.Equal(table.ID, id))
	if lock && d.lockRows {
		sb.ForUpdate()
	}
	return sb.Build()
}

func (d dialect) insertParent(entity *Freelancer) (string, []any) {
	table := schema.Freelancer
	ib := d.flavor.NewInsertBuilder()
	ib.InsertInto(table.Table)
	ib.Cols(table.Username, table.Email, table.Phone, table.IsArchived, table.CreatedAt, table.UpdatedAt)
	ib.Values(entity.Username, nullable(entity.Email), nullable(entity.Phone), entity.IsArchived, entity.CreatedAt, entity.UpdatedAt)
	if d.returning {
		ib.Returning(table.ID)
	}
	return ib.Build()
}

// updateParent assigns only the fields set in changes, plus the timestamp.
func (d dialect) updateParent(id int64, changes ParentChanges, updatedAt time.Time) (string, []any) {
	table := schema.Freelancer
	ub := d.flavor.NewUpdateBuilder()
	ub.Update(table.Table)

	assignments := make([]string, 0, 5)
	if changes.Username != nil {
		assignments = append(assignments, ub.Assign(table.Username, *changes.Username))
	}
	if changes.Email != nil {
		assignments = append(assignments, ub.Assign(table.Email, nullable(*changes.Email)))
	}
	if changes.Phone != nil {
		assignments = append(assignments, ub.Assign(table.Phone, nullable(*changes.Phone)))
	}
	if changes.IsArchived != nil {
		assignments = append(assignments, ub.Assign(table.IsArchived, *changes.IsArchived))
	}
	assignments = append(assignments, ub.Assign(table.UpdatedAt, updatedAt))

	ub.Set(assignments...)
	ub.Where(ub.Equal(table.ID, id))
	return ub.Build()
}

func (d dialect) deleteParent(id int64) (string, []any) {
	table := schema.Freelancer
	db := d.flavor.NewDeleteBuilder()
	db.DeleteFrom(table.Table)
	db.Where(db.Equal(table.ID, id))
	return db.Build()
}

// likeEscaper makes % and _ in a search term match themselves.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsLiteral renders a case-insensitive LIKE with an explicit escape
// character. SQLite has no default escape, Postgres defaults to backslash.
func containsLiteral(cond *sqlbuilder.Cond, column, pattern string) string {
	return "lower(" + column + ") LIKE " + cond.Var(pattern) + ` ESCAPE '\'`
}

// listWhere renders the filter shared by the page and count queries.
func listWhere(cond *sqlbuilder.Cond, filter Filter) []string {
	table := schema.Freelancer
	var where []string

	if filter.Query != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(filter.Query)) + "%"
		where = append(where, cond.Or(
			containsLiteral(cond, table.Username, pattern),
			containsLiteral(cond, table.Email, pattern),
		))
	}
	if filter.Archived != nil {
		where = append(where, cond.Equal(table.IsArchived, *filter.Archived))
	}

	return where
}

func (d dialect) listParents(filter Filter, limit, offset int) (string, []any) {
	table := schema.Freelancer
	sb := d.flavor.NewSelectBuilder()
	sb.Select(table.Columns()...)
	sb.From(table.Table)
	if where := listWhere(&sb.Cond, filter); len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy(table.ID).Asc()
	sb.Limit(limit).Offset(offset)
	return sb.Build()
}

func (d dialect) countParents(filter Filter) (string, []any) {
	sb := d.flavor.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(schema.Freelancer.Table)
	if where := listWhere(&sb.Cond, filter); len(where) > 0 {
		sb.Where(where...)
	}
	return sb.Build()
}

// # Child Statements

func (d dialect) selectChildren(kind Kind, parentIDs ...int64) (string, []any) {
	table := childTable(kind)
	sb := d.flavor.NewSelectBuilder()
	sb.Select(table.Columns()...)
	sb.From(table.Table)
	if len(parentIDs) == 1 {
		sb.Where(sb.Equal(table.FreelancerID, parentIDs[0]))
	} else {
		sb.Where(sb.In(table.FreelancerID, sqlbuilder.Flatten(parentIDs)...))
	}
	sb.OrderBy(table.ID).Asc()
	return sb.Build()
}

func (d dialect) insertChild(kind Kind, parentID int64, name string) (string, []any) {
	table := childTable(kind)
	ib := d.flavor.NewInsertBuilder()
	ib.InsertInto(table.Table)
	ib.Cols(table.FreelancerID, table.Name)
	ib.Values(parentID, nullable(name))
	if d.returning {
		ib.Returning(table.ID)
	}
	return ib.Build()
}

func (d dialect) updateChild(kind Kind, id, parentID int64, name string) (string, []any) {
	table := childTable(kind)
	ub := d.flavor.NewUpdateBuilder()
	ub.Update(table.Table)
	ub.Set(ub.Assign(table.Name, nullable(name)))
	ub.Where(ub.Equal(table.ID, id), ub.Equal(table.FreelancerID, parentID))
	return ub.Build()
}

func (d dialect) deleteChildren(kind Kind, ids []int64, parentID int64) (string, []any) {
	table := childTable(kind)
	db := d.flavor.NewDeleteBuilder()
	db.DeleteFrom(table.Table)
	db.Where(db.In(table.ID, sqlbuilder.Flatten(ids)...), db.Equal(table.FreelancerID, parentID))
	return db.Build()
}

// groupChildren buckets children by owning freelancer.
func groupChildren(children []Child) map[int64][]Child {
	grouped := make(map[int64][]Child)
	for _, child := range children {
		grouped[child.FreelancerID] = append(grouped[child.FreelancerID], child)
	}
	return grouped
}
