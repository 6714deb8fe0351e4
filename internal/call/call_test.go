package call

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestValidateForCreate(t *testing.T) {
	tests := []struct {
		name      string
		caller    string
		contact   string
		desc      string
		services  string
		wantErr   error
		wantField string
	}{
		{"valid", "Ann", "5551234", "fire in kitchen", "fire", nil, ""},
		{"min length contact", "Ann", "911", "x", "fire", nil, ""},
		{"empty name", "  ", "5551234", "x", "fire", ErrEmptyName, "caller_name"},
		{"short contact", "Ann", "12", "x", "fire", ErrInvalidContact, "contact_number"},
		{"non-digit contact", "Ann", "555-1234", "x", "fire", ErrInvalidContact, "contact_number"},
		{"empty description", "Ann", "5551234", "", "fire", ErrEmptyDescription, "description"},
		{"empty services", "Ann", "5551234", "x", " ", ErrEmptyServices, "required_services"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateForCreate(tt.caller, tt.contact, tt.desc, tt.services)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestPatch_Validate(t *testing.T) {
	bad := Status("DONE")
	ok := StatusResolved

	assert.NoError(t, Patch{}.Validate())
	assert.NoError(t, Patch{Status: &ok, ContactNumber: strPtr("12345")}.Validate())
	assert.ErrorIs(t, Patch{ContactNumber: strPtr("12a")}.Validate(), ErrInvalidContact)
	assert.ErrorIs(t, Patch{Status: &bad}.Validate(), ErrInvalidStatus)
	assert.ErrorIs(t, Patch{CallerName: strPtr("")}.Validate(), ErrEmptyName)
}

func TestPatch_ApplyKeepsIdentity(t *testing.T) {
	created := time.Date(2024, 3, 11, 14, 5, 30, 0, time.Local)
	c := Call{ID: 7, CallerName: "Ann", ContactNumber: "555", CreatedAt: created, Status: StatusNew}
	st := StatusInProgress

	got := Patch{CallerName: strPtr("Bob"), Status: &st}.Apply(c)

	assert.Equal(t, 7, got.ID)
	assert.Equal(t, "Bob", got.CallerName)
	assert.Equal(t, "555", got.ContactNumber)
	assert.Equal(t, StatusInProgress, got.Status)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Equal(t, "Ann", c.CallerName, "original must be untouched")
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("IN_PROGRESS")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)

	_, err = ParseStatus("resolved")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	s, err = ParseStatusFold("  resolved ")
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, s)
}

func TestCall_JSON(t *testing.T) {
	c := Call{
		ID:               1,
		CallerName:       "Ann",
		ContactNumber:    "5551234",
		Description:      "fire in kitchen",
		RequiredServices: "fire",
		CreatedAt:        time.Date(2024, 3, 11, 14, 5, 30, 0, time.Local),
		Status:           StatusNew,
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"created_at":"2024-03-11T14:05:30"`)
	assert.Contains(t, string(data), `"status":"NEW"`)

	var back Call
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c.CallerName, back.CallerName)
	assert.True(t, c.CreatedAt.Equal(back.CreatedAt))
}
