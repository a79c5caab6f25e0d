package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createPermissionForm struct {
	Name     string `validate:"required,min=1,max=200"`
	Category string `validate:"required,permission_category"`
	Resource string `validate:"required"`
}

type createRuleForm struct {
	Name        string `validate:"required"`
	AccessLevel string `validate:"required,access_level"`
	SourceID    string `validate:"required,uuid"`
}

func TestValidatePermissionCategory(t *testing.T) {
	v := New()

	tests := []struct {
		name     string
		category string
		valid    bool
	}{
		{"read", "read", true},
		{"write", "write", true},
		{"delete", "delete", true},
		{"admin", "admin", true},
		{"special", "special", true},
		{"unknown value", "superuser", false},
		{"uppercase is not accepted", "READ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(createPermissionForm{
				Name:     "View Reports",
				Category: tt.category,
				Resource: "reports",
			})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateAccessLevel(t *testing.T) {
	v := New()

	for _, level := range []string{"read", "write", "full"} {
		assert.NoError(t, v.Validate(createRuleForm{
			Name:        "rule",
			AccessLevel: level,
			SourceID:    "7f6c4a4e-8f69-4f52-9a47-0d5f3a3f2f11",
		}))
	}

	assert.Error(t, v.Validate(createRuleForm{
		Name:        "rule",
		AccessLevel: "root",
		SourceID:    "7f6c4a4e-8f69-4f52-9a47-0d5f3a3f2f11",
	}))
}

func TestValidateCollectsFieldErrors(t *testing.T) {
	v := New()

	err := v.Validate(createPermissionForm{Category: "bogus"})
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 3)

	byField := make(map[string]string, len(verrs))
	for _, e := range verrs {
		byField[e.Field] = e.Message
	}
	assert.Equal(t, "is required", byField["name"])
	assert.Equal(t, "must be one of: read, write, delete, admin, special", byField["category"])
	assert.Equal(t, "is required", byField["resource"])
}

func TestValidateUUIDTag(t *testing.T) {
	v := New()

	err := v.Validate(createRuleForm{
		Name:        "rule",
		AccessLevel: "read",
		SourceID:    "not-a-uuid",
	})

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, "source_i_d", verrs[0].Field)
	assert.Equal(t, "must be a valid UUID", verrs[0].Message)
}

func TestValidationErrorsError(t *testing.T) {
	verrs := ValidationErrors{
		{Field: "name", Message: "is required"},
		{Field: "category", Message: "must be one of: read, write, delete, admin, special"},
	}

	assert.Equal(t, "name: is required; category: must be one of: read, write, delete, admin, special", verrs.Error())
	assert.Empty(t, ValidationErrors{}.Error())
}
