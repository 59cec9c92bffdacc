package core

import (
	"encoding/json"
	"testing"

	"book-catalogue/internal/core/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() *Validator {
	return NewValidator(BookSchema, zerolog.Nop())
}

func TestValidate_ValidRecord(t *testing.T) {
	v := newTestValidator()
	res := v.Validate(model.Record{
		"title":          "Dom Casmurro",
		"author":         "Machado de Assis",
		"genre":          "Novel",
		"location":       "A1",
		"status":         "Available",
		"availableCount": 2.0,
		"addedAt":        "2024-03-01",
	})
	assert.True(t, res.Valid)
	assert.Empty(t, res.Error)
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "record is not an object"},
		{"string", "book", "record is not an object"},
		{"array", []any{1, 2}, "record is not an object"},
		{"missing status", map[string]any{"title": "X"}, `missing required field "status"`},
		{"empty status counts as missing", map[string]any{"status": ""}, `missing required field "status"`},
		{"bogus status", map[string]any{"status": "Bogus"}, `field "status" must be one of: Available, Unavailable`},
		{"non-numeric count", map[string]any{"status": "Available", "availableCount": "lots"}, `field "availableCount" must be a number`},
		{"negative count", map[string]any{"status": "Available", "availableCount": -1.0}, `field "availableCount" must be at least 0`},
		{"numeric title", map[string]any{"status": "Available", "title": 42.0}, `field "title" must be of type text`},
	}
	v := newTestValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := v.Validate(tc.in)
			assert.False(t, res.Valid)
			assert.Equal(t, tc.want, res.Error)
			require.Error(t, res.Err)
			assert.Contains(t, res.Err.Error(), tc.want)
		})
	}
}

func TestValidate_TypeAndMembershipBothReported(t *testing.T) {
	res := newTestValidator().Validate(map[string]any{"status": 1.0})
	require.False(t, res.Valid)
	assert.Equal(t, `field "status" must be of type text; field "status" must be one of: Available, Unavailable`, res.Error)
}

func TestValidate_ErrorsInSchemaOrder(t *testing.T) {
	res := newTestValidator().Validate(map[string]any{"availableCount": "x", "title": true})
	require.False(t, res.Valid)
	assert.Equal(t,
		`field "title" must be of type text; missing required field "status"; field "availableCount" must be a number`,
		res.Error)
}

func TestValidate_CoercesNumbersInPlace(t *testing.T) {
	rec := map[string]any{"status": "Bogus", "availableCount": " 3 "}
	res := newTestValidator().Validate(rec)
	assert.False(t, res.Valid)
	assert.Equal(t, 3.0, rec["availableCount"])

	num := map[string]any{"status": "Available", "availableCount": json.Number("7")}
	assert.True(t, newTestValidator().Validate(num).Valid)
	assert.Equal(t, 7.0, num["availableCount"])
}

func TestValidate_OptionalAbsentFieldsSkipped(t *testing.T) {
	rec := map[string]any{"status": "Unavailable", "title": nil, "author": "", "availableCount": nil}
	res := newTestValidator().Validate(rec)
	assert.True(t, res.Valid)
	assert.Nil(t, rec["availableCount"])
	assert.Equal(t, "", rec["author"])
}

func TestValidate_UnknownFieldsKept(t *testing.T) {
	rec := map[string]any{"status": "Available", "isbn": "978-85"}
	res := newTestValidator().Validate(rec)
	assert.True(t, res.Valid)
	assert.Equal(t, "978-85", rec["isbn"])
}

func TestValidate_Idempotent(t *testing.T) {
	v := newTestValidator()
	for _, rec := range []map[string]any{
		{"status": "Available", "availableCount": "4"},
		{"status": "Bogus", "availableCount": -2.0},
		{"title": 1.0},
	} {
		first := v.Validate(rec)
		second := v.Validate(rec)
		assert.Equal(t, first, second)
	}
}

func TestToNumber(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{2.5, 2.5, true},
		{7, 7, true},
		{"12", 12, true},
		{"  ", 0, true},
		{true, 1, true},
		{false, 0, true},
		{"1e3", 1000, true},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Infinity", 0, false},
		{map[string]any{}, 0, false},
		{[]any{}, 0, false},
	}
	for _, tc := range cases {
		got, ok := toNumber(tc.in)
		assert.Equal(t, tc.ok, ok, "%v", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "%v", tc.in)
		}
	}
}

func TestValidate_ErrorKinds(t *testing.T) {
	v := newTestValidator()
	assert.ErrorIs(t, v.Validate("book").Err, model.ErrStructural)
	assert.ErrorIs(t, v.Validate(map[string]any{"status": "Bogus"}).Err, model.ErrField)
	assert.NoError(t, v.Validate(map[string]any{"status": "Available"}).Err)
}

// addedAt is a known field of any type: a value that is not a date never
// invalidates the record.
func TestValidate_AddedAtIsLenient(t *testing.T) {
	v := newTestValidator()
	for _, added := range []any{20240101.0, true, "not-a-date", []any{2024}, map[string]any{"y": 2024.0}} {
		rec := map[string]any{"title": "Dom Casmurro", "status": "Available", "addedAt": added}
		res := v.Validate(rec)
		assert.True(t, res.Valid, "%v: %s", added, res.Error)
		assert.Equal(t, added, rec["addedAt"])
	}
}
