package core

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"book-catalogue/internal/core/model"
	xlog "book-catalogue/internal/log"

	"github.com/rs/zerolog"
)

type FieldType string

const (
	TypeText   FieldType = "text"
	TypeNumber FieldType = "number"
	// TypeAny declares a known field without a type constraint.
	TypeAny FieldType = "any"
)

// FieldRule declares the constraints of one record field.
type FieldRule struct {
	Name     string
	Type     FieldType
	Required bool
	Min      *float64
	Allowed  []string
}

// Schema is checked in declaration order.
type Schema []FieldRule

func (s Schema) rule(name string) (FieldRule, bool) {
	for _, r := range s {
		if r.Name == name {
			return r, true
		}
	}
	return FieldRule{}, false
}

var zero = 0.0

// BookSchema is the schema of a catalogue record.
var BookSchema = Schema{
	{Name: model.FieldTitle, Type: TypeText},
	{Name: model.FieldAuthor, Type: TypeText},
	{Name: model.FieldGenre, Type: TypeText},
	{Name: model.FieldLocation, Type: TypeText},
	{Name: model.FieldStatus, Type: TypeText, Required: true, Allowed: []string{model.StatusAvailable, model.StatusUnavailable}},
	{Name: model.FieldAvailableCount, Type: TypeNumber, Min: &zero},
	// addedAt is read leniently: a value that is not a date is treated as
	// absent by the query layer, never rejected here.
	{Name: model.FieldAddedAt, Type: TypeAny},
}

// Validator checks records against a schema, repairs the ones that fail and
// validates whole payloads. It never panics on malformed input.
type Validator struct {
	schema Schema
	log    zerolog.Logger
}

func NewValidator(schema Schema, logger zerolog.Logger) *Validator {
	if schema == nil {
		schema = BookSchema
	}
	return &Validator{schema: schema, log: logger}
}

// NewBookValidator returns a validator for BookSchema logging under the
// "validator" component.
func NewBookValidator() *Validator {
	return NewValidator(BookSchema, xlog.WithComponent("validator"))
}

// Validate checks a single record. Numeric fields that coerce cleanly are
// rewritten in place with their float64 value, even if the record ends up
// invalid for another reason.
func (v *Validator) Validate(in any) model.ValidationResult {
	rec, ok := asRecord(in)
	if !ok {
		msg := "record is not an object"
		return model.ValidationResult{Valid: false, Error: msg, Err: fmt.Errorf("%w: %s", model.ErrStructural, msg)}
	}

	var errs []string
	for _, rule := range v.schema {
		val := rec[rule.Name]
		if !isPresent(val) {
			if rule.Required {
				errs = append(errs, fmt.Sprintf("missing required field %q", rule.Name))
			}
			continue
		}

		switch rule.Type {
		case TypeNumber:
			n, ok := toNumber(val)
			if !ok {
				errs = append(errs, fmt.Sprintf("field %q must be a number", rule.Name))
				break
			}
			if rule.Min != nil && n < *rule.Min {
				errs = append(errs, fmt.Sprintf("field %q must be at least %s", rule.Name, formatNumber(*rule.Min)))
			}
			rec[rule.Name] = n
		case TypeText:
			if _, isText := val.(string); !isText {
				errs = append(errs, fmt.Sprintf("field %q must be of type text", rule.Name))
			}
		}

		if len(rule.Allowed) > 0 && !allowed(rule.Allowed, val) {
			errs = append(errs, fmt.Sprintf("field %q must be one of: %s", rule.Name, strings.Join(rule.Allowed, ", ")))
		}
	}

	v.warnUnknown(rec)

	if len(errs) > 0 {
		msg := strings.Join(errs, "; ")
		return model.ValidationResult{Valid: false, Error: msg, Err: fmt.Errorf("%w: %s", model.ErrField, msg)}
	}
	return model.ValidationResult{Valid: true}
}

func (v *Validator) warnUnknown(rec model.Record) {
	var unknown []string
	for k := range rec {
		if _, ok := v.schema.rule(k); !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		v.log.Warn().Str(xlog.FieldField, k).Msg("unexpected field in record")
	}
}

func asRecord(in any) (model.Record, bool) {
	switch r := in.(type) {
	case model.Record:
		return r, r != nil
	case map[string]any:
		return model.Record(r), r != nil
	default:
		return nil, false
	}
}

// isPresent treats nil and the empty string as absent.
func isPresent(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok && s == "" {
		return false
	}
	return true
}

func allowed(set []string, v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, a := range set {
		if a == s {
			return true
		}
	}
	return false
}

// toNumber coerces a decoded JSON value to a finite float64. Blank strings
// coerce to 0 and booleans to 0/1; anything else non-numeric fails.
func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if n {
			f = 1
		}
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// stringify renders a non-text value the way it would read as text.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatNumber(t)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}
