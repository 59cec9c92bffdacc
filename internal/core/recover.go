package core

import (
	"book-catalogue/internal/core/model"
)

var textFields = []string{model.FieldTitle, model.FieldAuthor, model.FieldGenre, model.FieldLocation}

// Recover repairs a record that failed validation. It works on a shallow
// copy and returns nil if the repaired copy still does not validate.
// Recovery never marks a record as available.
func (v *Validator) Recover(in any) model.Record {
	src, _ := asRecord(in)
	rec := src.Clone()

	if s, ok := rec[model.FieldStatus].(string); !ok || !v.statusAllowed(s) {
		rec[model.FieldStatus] = model.StatusUnavailable
	}

	if val := rec[model.FieldAvailableCount]; isPresent(val) {
		n, ok := toNumber(val)
		if !ok || n < 0 {
			n = 0
		}
		rec[model.FieldAvailableCount] = n
	}

	for _, f := range textFields {
		val := rec[f]
		switch {
		case !isPresent(val):
			rec[f] = model.NotInformed
		default:
			if _, ok := val.(string); !ok {
				rec[f] = stringify(val)
			}
		}
	}

	if res := v.Validate(rec); !res.Valid {
		v.log.Debug().Str("error", res.Error).Msg("record could not be recovered")
		return nil
	}
	return rec
}

func (v *Validator) statusAllowed(s string) bool {
	rule, ok := v.schema.rule(model.FieldStatus)
	if !ok {
		return s == model.StatusAvailable || s == model.StatusUnavailable
	}
	return allowed(rule.Allowed, s)
}
