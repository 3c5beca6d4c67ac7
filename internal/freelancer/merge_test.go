// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package freelancer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/freelancehub/pkg/pointer"
)

func TestMergeParent(t *testing.T) {
	current := ParentFields{Username: "ada", Email: "ada@example.com", Phone: "+44 20 7946 0958", IsArchived: false}

	tests := []struct {
		name    string
		patch   ParentPatch
		merged  ParentFields
		changed []Field
	}{
		{
			name:   "Nothing provided",
			patch:  ParentPatch{},
			merged: current,
		},
		{
			name:   "Blank strings keep current values",
			patch:  ParentPatch{Username: pointer.To(""), Email: pointer.To("   "), Phone: pointer.To("\t")},
			merged: current,
		},
		{
			name:    "Provided value is trimmed",
			patch:   ParentPatch{Email: pointer.To("  lovelace@example.com ")},
			merged:  ParentFields{Username: "ada", Email: "lovelace@example.com", Phone: "+44 20 7946 0958"},
			changed: []Field{FieldEmail},
		},
		{
			name:   "Same value after trimming is not a change",
			patch:  ParentPatch{Username: pointer.To(" ada ")},
			merged: current,
		},
		{
			name:    "Case differences are changes",
			patch:   ParentPatch{Username: pointer.To("Ada")},
			merged:  ParentFields{Username: "Ada", Email: "ada@example.com", Phone: "+44 20 7946 0958"},
			changed: []Field{FieldUsername},
		},
		{
			name:    "Bool always wins",
			patch:   ParentPatch{IsArchived: pointer.To(true)},
			merged:  ParentFields{Username: "ada", Email: "ada@example.com", Phone: "+44 20 7946 0958", IsArchived: true},
			changed: []Field{FieldIsArchived},
		},
		{
			name:   "Bool equal to current is not a change",
			patch:  ParentPatch{IsArchived: pointer.To(false)},
			merged: current,
		},
		{
			name:    "Several fields in column order",
			patch:   ParentPatch{IsArchived: pointer.To(true), Phone: pointer.To("+1 (555) 123-4567"), Username: pointer.To("countess")},
			merged:  ParentFields{Username: "countess", Email: "ada@example.com", Phone: "+1 (555) 123-4567", IsArchived: true},
			changed: []Field{FieldUsername, FieldPhone, FieldIsArchived},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, changes := MergeParent(current, tt.patch)

			assert.Equal(t, tt.merged, merged)
			assert.Equal(t, tt.changed, changes.Fields())
			assert.Equal(t, len(tt.changed) == 0, changes.IsEmpty())
		})
	}
}

func TestMergeParent_ChangesCarryMergedValues(t *testing.T) {
	_, changes := MergeParent(ParentFields{Username: "ada"}, ParentPatch{Username: pointer.To(" grace ")})

	if assert.NotNil(t, changes.Username) {
		assert.Equal(t, "grace", *changes.Username)
	}
	assert.Nil(t, changes.Email)
	assert.Nil(t, changes.Phone)
	assert.Nil(t, changes.IsArchived)
}
