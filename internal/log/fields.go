package log

// Canonical field name constants for structured logging.
const (
	FieldComponent = "component"
	FieldLoadID    = "load_id"
	FieldRequestID = "request_id"

	FieldField    = "field"
	FieldPosition = "position"
	FieldKey      = "key"
	FieldBackend  = "backend"
	FieldURL      = "url"

	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldSource   = "source"

	FieldTotal     = "total"
	FieldCorrupted = "corrupted"
	FieldRecovered = "recovered"
)
