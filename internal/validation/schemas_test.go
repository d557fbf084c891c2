package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultSchemaValidator(t *testing.T) {
	sv, err := NewDefaultSchemaValidator()
	require.NoError(t, err)

	assert.Equal(t, []string{SchemaFeedback, SchemaSearch, SchemaUserProfile, SchemaVisit}, sv.SchemaNames())
}

func TestSchemaValidator_Feedback(t *testing.T) {
	sv, err := NewDefaultSchemaValidator()
	require.NoError(t, err)

	tests := []struct {
		name  string
		body  string
		valid bool
		field string
	}{
		{
			name:  "valid feedback",
			body:  `{"user_id":"u1","place_id":"p1","rating":4,"tags":["관심사"]}`,
			valid: true,
		},
		{
			name:  "missing user id",
			body:  `{"place_id":"p1","rating":4}`,
			field: "(root)",
		},
		{
			name:  "rating out of range",
			body:  `{"user_id":"u1","place_id":"p1","rating":6}`,
			field: "rating",
		},
		{
			name:  "fractional rating",
			body:  `{"user_id":"u1","place_id":"p1","rating":3.5}`,
			field: "rating",
		},
		{
			name:  "unknown field",
			body:  `{"user_id":"u1","place_id":"p1","rating":3,"score":9}`,
			field: "(root)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sv.Validate(SchemaFeedback, []byte(tt.body))

			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				require.NotEmpty(t, result.Errors)
				assert.Equal(t, tt.field, result.Errors[0].Field)
				assert.NotNil(t, result.Details()["fieldErrors"])
			}
		})
	}
}

func TestSchemaValidator_UserProfile(t *testing.T) {
	sv, err := NewDefaultSchemaValidator()
	require.NoError(t, err)

	assert.True(t, sv.ValidateUserProfile(map[string]interface{}{
		"personality_type": "enfp",
		"interests":        []string{"jazz", "hiking"},
	}).Valid)

	assert.False(t, sv.ValidateUserProfile(map[string]interface{}{
		"personality_type": "XYZW",
	}).Valid)
}

func TestSchemaValidator_MalformedJSON(t *testing.T) {
	sv, err := NewDefaultSchemaValidator()
	require.NoError(t, err)

	result := sv.Validate(SchemaVisit, []byte(`{"user_id":`))

	assert.False(t, result.Valid)
	assert.Equal(t, "INVALID_JSON", result.Errors[0].Code)
}

func TestSchemaValidator_UnknownSchema(t *testing.T) {
	sv := NewSchemaValidator()

	result := sv.Validate("missing", []byte(`{}`))

	assert.False(t, result.Valid)
	assert.Equal(t, "SCHEMA_NOT_FOUND", result.Errors[0].Code)
}
