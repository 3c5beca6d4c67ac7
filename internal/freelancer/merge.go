// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package freelancer

import "strings"

// Field names a mergeable parent column.
type Field string

const (
	FieldUsername   Field = "username"
	FieldEmail      Field = "email"
	FieldPhone      Field = "phone"
	FieldIsArchived Field = "is_archived"
)

// ParentFields holds the current scalar values of a freelancer.
type ParentFields struct {
	Username   string
	Email      string
	Phone      string
	IsArchived bool
}

// ParentPatch holds the incoming scalar values. Nil means "not provided".
type ParentPatch struct {
	Username   *string
	Email      *string
	Phone      *string
	IsArchived *bool
}

// ParentChanges holds only the fields whose merged value differs from the
// current value. It is the input of a partial parent update.
type ParentChanges struct {
	Username   *string
	Email      *string
	Phone      *string
	IsArchived *bool
}

// IsEmpty reports whether nothing changed.
func (changes ParentChanges) IsEmpty() bool {
	return changes.Username == nil && changes.Email == nil && changes.Phone == nil && changes.IsArchived == nil
}

// Fields lists the changed fields in column order.
func (changes ParentChanges) Fields() []Field {
	var fields []Field
	if changes.Username != nil {
		fields = append(fields, FieldUsername)
	}
	if changes.Email != nil {
		fields = append(fields, FieldEmail)
	}
	if changes.Phone != nil {
		fields = append(fields, FieldPhone)
	}
	if changes.IsArchived != nil {
		fields = append(fields, FieldIsArchived)
	}
	return fields
}

/*
MergeParent applies patch on top of current.

Description: A string field keeps its current value when the incoming value is
nil or blank after trimming; otherwise it takes the trimmed incoming value. A
non-nil boolean always wins. Comparison for the change set is exact.

Parameters:
  - current: ParentFields
  - patch: ParentPatch

Returns:
  - ParentFields: The merged values
  - ParentChanges: Only the fields that differ from current
*/
func MergeParent(current ParentFields, patch ParentPatch) (ParentFields, ParentChanges) {
	merged := current
	var changes ParentChanges

	merged.Username, changes.Username = mergeString(current.Username, patch.Username)
	merged.Email, changes.Email = mergeString(current.Email, patch.Email)
	merged.Phone, changes.Phone = mergeString(current.Phone, patch.Phone)

	if patch.IsArchived != nil {
		merged.IsArchived = *patch.IsArchived
		if merged.IsArchived != current.IsArchived {
			value := merged.IsArchived
			changes.IsArchived = &value
		}
	}

	return merged, changes
}

// mergeString returns the merged value and, when it differs, a pointer to it.
func mergeString(current string, incoming *string) (string, *string) {
	if incoming == nil {
		return current, nil
	}

	trimmed := strings.TrimSpace(*incoming)
	if trimmed == "" || trimmed == current {
		return current, nil
	}

	return trimmed, &trimmed
}
