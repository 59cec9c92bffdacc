package model

import (
	"errors"
	"time"
)

// All core models live here together for simplicity.

const (
	FieldTitle          = "title"
	FieldAuthor         = "author"
	FieldGenre          = "genre"
	FieldLocation       = "location"
	FieldStatus         = "status"
	FieldAvailableCount = "availableCount"
	FieldAddedAt        = "addedAt"
)

const (
	StatusAvailable   = "Available"
	StatusUnavailable = "Unavailable"

	// NotInformed stands in for absent text fields, both when a record is
	// recovered and when a record is displayed.
	NotInformed = "Not informed"
)

// DefaultSourceURL is the published catalogue document.
const DefaultSourceURL = "https://raw.githubusercontent.com/bibliotecacidrosado/acervofisico/refs/heads/main/dados.json"

// Container field names accepted in a remote payload or cache envelope.
const (
	ContainerRecords = "records"
	ContainerLegacy  = "livros"
)

var (
	ErrStructural = errors.New("structural")
	ErrField      = errors.New("field")
	ErrTransport  = errors.New("transport")
	ErrStorage    = errors.New("storage")
	ErrIngestion  = errors.New("ingestion")
	ErrNotFound   = errors.New("not_found")
)

// Record is one catalogue item as decoded from JSON. Unknown fields are kept.
type Record map[string]any

// Text returns the field as a string if it is one.
func (r Record) Text(field string) (string, bool) {
	s, ok := r[field].(string)
	return s, ok
}

// Status returns the status field or "".
func (r Record) Status() string {
	s, _ := r.Text(FieldStatus)
	return s
}

// AvailableCount returns the numeric availableCount, 0 when absent.
func (r Record) AvailableCount() float64 {
	if f, ok := r[FieldAvailableCount].(float64); ok {
		return f
	}
	return 0
}

// AddedAt parses addedAt. Unparseable values are reported as absent.
func (r Record) AddedAt() (time.Time, bool) {
	s, ok := r.Text(FieldAddedAt)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range addedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var addedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
	"2006/01/02",
	"02/01/2006",
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Collection is an ordered sequence of records in source order.
type Collection []Record

type ValidationResult struct {
	Valid bool
	Error string // empty when valid
	// Err wraps ErrStructural or ErrField; nil when valid.
	Err error
}

type CollectionReport struct {
	Valid          bool
	Records        Collection
	Errors         []string
	TotalRecords   int
	CorruptedCount int
	RecoveredCount int
	// Err wraps ErrStructural when the payload shape is wrong and ErrField
	// when individual records failed; nil when valid.
	Err error
}

// ValidationMeta is stored alongside cached records.
type ValidationMeta struct {
	Timestamp      time.Time `json:"timestamp"`
	TotalRecords   int       `json:"totalRecords"`
	CorruptedCount int       `json:"corruptedCount"`
	RecoveredCount int       `json:"recoveredCount"`
}

type CacheEnvelope struct {
	Records    Collection      `json:"records"`
	Validation *ValidationMeta `json:"validation,omitempty"`
}

type LoadState string

const (
	StateIdle     LoadState = "idle"
	StateLoading  LoadState = "loading"
	StateReady    LoadState = "ready"
	StateDegraded LoadState = "degraded"
	StateFailed   LoadState = "failed"
)

type LoadSource string

const (
	SourceNone       LoadSource = ""
	SourceCache      LoadSource = "cache"
	SourceRemote     LoadSource = "remote"
	SourceStaleCache LoadSource = "stale-cache"
)

type Severity string

const (
	SeverityLoading Severity = "loading"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

type StatusMessage struct {
	Text     string
	Severity Severity
	At       time.Time
}

type Page[T any] struct {
	Data     []T
	Page     int
	PageSize int
	Total    int
}

type SortKey struct {
	Field string // title | author | genre | location | status | availableCount | addedAt
	Desc  bool
}

type ListQuery struct {
	Q          string // title/author/genre/location contains, case-insensitive
	Status     string // "" or "all" = any
	Genre      string // exact; "" or "all" = any
	AddedSince *time.Time
	Sort       *SortKey
	Page       int
	PageSize   int
}

type Summary struct {
	Total     int
	Available int
}
