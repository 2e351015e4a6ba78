package forms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusevents/campusevents/internal/shared"
)

var joinForm = Form{
	ID:       3,
	ClubID:   5,
	Name:     "Join the robotics club",
	IsActive: true,
	Fields: []Field{
		{Name: "full_name", Label: "Full name", Type: FieldText, Required: true},
		{Name: "email", Label: "Email", Type: FieldEmail, Required: true},
		{Name: "year", Label: "Year", Type: FieldSelect, Options: []string{"1", "2", "3", "4"}},
		{Name: "age", Label: "Age", Type: FieldNumber},
		{Name: "start", Label: "Available from", Type: FieldDate},
		{Name: "teams", Label: "Teams", Type: FieldCheckbox, Options: []string{"mech", "code"}},
	},
}

func TestValidateFields(t *testing.T) {
	require.NoError(t, ValidateFields(joinForm.Fields))

	cases := map[string][]Field{
		"empty":     nil,
		"no name":   {{Label: "x", Type: FieldText}},
		"duplicate": {{Name: "a", Type: FieldText}, {Name: "a", Type: FieldEmail}},
		"bad type":  {{Name: "a", Type: "color"}},
		"radio":     {{Name: "a", Type: FieldRadio}},
	}
	for name, fields := range cases {
		err := ValidateFields(fields)
		assert.ErrorIs(t, err, ErrInvalidForm, name)
		assert.ErrorIs(t, err, shared.ErrValidation, name)
	}
}

func TestFormCheck(t *testing.T) {
	ok := map[string]any{
		"full_name": "Ada Lovelace",
		"email":     "ada@campus.edu",
		"year":      "2",
		"age":       float64(20),
		"start":     "2026-09-01",
		"teams":     []any{"code"},
	}
	require.NoError(t, joinForm.Check(ok))
	require.NoError(t, joinForm.Check(map[string]any{"full_name": "Ada", "email": "ada@campus.edu"}))

	bad := []map[string]any{
		{"email": "ada@campus.edu"},
		{"full_name": "Ada", "email": "ada"},
		{"full_name": "Ada", "email": "ada@campus.edu", "year": "9"},
		{"full_name": "Ada", "email": "ada@campus.edu", "age": "twenty"},
		{"full_name": "Ada", "email": "ada@campus.edu", "start": "01/09/2026"},
		{"full_name": "Ada", "email": "ada@campus.edu", "teams": []any{"art"}},
		{"full_name": "Ada", "email": "ada@campus.edu", "shoe_size": "42"},
	}
	for _, data := range bad {
		assert.ErrorIs(t, joinForm.Check(data), ErrInvalidAnswers, "%v", data)
	}
}

func TestApplicationWorkflow(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	app := Apply(joinForm, 10, map[string]any{"full_name": "Ada"}, now)
	assert.Equal(t, StatusSubmitted, app.Status)
	assert.Equal(t, int64(5), app.ClubID)
	assert.Nil(t, app.ReviewerID)

	reviewing, err := app.MoveTo(StatusUnderReview, 5, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(5), *reviewing.ReviewerID)
	assert.Equal(t, StatusSubmitted, app.Status, "transition returns a copy")

	_, err = reviewing.MoveTo(StatusSubmitted, 5, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	accepted, err := reviewing.MoveTo(StatusAccepted, 5, now)
	require.NoError(t, err)
	assert.True(t, accepted.Status.IsTerminal())
	_, err = accepted.MoveTo(StatusRejected, 5, now)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, err = app.MoveTo("archived", 5, now)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
