package core

import (
	"fmt"

	"book-catalogue/internal/core/model"
	xlog "book-catalogue/internal/log"
)

// ValidateCollection validates every record of a payload, recovering the
// invalid ones where possible. The report is Valid only if no record failed
// validation; recovered records still clear nothing at collection level.
func (v *Validator) ValidateCollection(payload any) model.CollectionReport {
	obj, ok := asRecord(payload)
	if !ok {
		return structuralFailure("invalid payload: not an object")
	}

	items, ok := containerItems(obj)
	if !ok {
		return structuralFailure(fmt.Sprintf("invalid structure: %q field missing or not an array", model.ContainerRecords))
	}

	out := model.CollectionReport{
		Records:      make(model.Collection, 0, len(items)),
		TotalRecords: len(items),
	}
	for i, item := range items {
		res := v.Validate(item)
		if res.Valid {
			rec, _ := asRecord(item)
			out.Records = append(out.Records, rec)
			continue
		}

		out.CorruptedCount++
		out.Errors = append(out.Errors, fmt.Sprintf("record at position %d: %s", i, res.Error))
		v.log.Debug().Int(xlog.FieldPosition, i).Err(res.Err).Msg("invalid record")
		if rec := v.Recover(item); rec != nil {
			out.Records = append(out.Records, rec)
		}
	}

	out.Valid = len(out.Errors) == 0
	if !out.Valid {
		out.Err = fmt.Errorf("%w: %d of %d records failed validation", model.ErrField, out.CorruptedCount, out.TotalRecords)
	}
	out.RecoveredCount = len(out.Records) - (out.TotalRecords - out.CorruptedCount)

	if out.CorruptedCount > 0 {
		v.log.Warn().
			Int(xlog.FieldTotal, out.TotalRecords).
			Int(xlog.FieldCorrupted, out.CorruptedCount).
			Int(xlog.FieldRecovered, out.RecoveredCount).
			Msg("corrupted records found in payload")
	}
	return out
}

func structuralFailure(msg string) model.CollectionReport {
	return model.CollectionReport{
		Records: model.Collection{},
		Errors:  []string{msg},
		Err:     fmt.Errorf("%w: %s", model.ErrStructural, msg),
	}
}

// containerItems returns the record array under "records", falling back to
// the legacy "livros" name.
func containerItems(obj model.Record) ([]any, bool) {
	for _, key := range []string{model.ContainerRecords, model.ContainerLegacy} {
		switch items := obj[key].(type) {
		case []any:
			return items, true
		case model.Collection:
			return recordsToAny(items), true
		case []model.Record:
			return recordsToAny(items), true
		case []map[string]any:
			out := make([]any, len(items))
			for i, m := range items {
				out[i] = m
			}
			return out, true
		}
	}
	return nil, false
}

func recordsToAny(rs []model.Record) []any {
	out := make([]any, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}
