package core

import (
	"context"

	"book-catalogue/internal/core/model"
)

// CacheStore persists the last validated collection. Implementations never
// return storage errors to the caller: failures become false / (nil, false).
type CacheStore interface {
	IsFresh(ctx context.Context) bool
	Save(ctx context.Context, env model.CacheEnvelope) bool
	Load(ctx context.Context) (any, bool)
}

// RemoteSource fetches the raw catalogue payload. Any failure, including a
// non-success status or undecodable body, is reported as an error wrapping
// model.ErrTransport.
type RemoteSource interface {
	Fetch(ctx context.Context) (any, error)
}

// Sink receives the loader's user-facing notifications.
type Sink interface {
	OnCollectionReady(records model.Collection)
	OnStatusMessage(text string, severity model.Severity)
	OnIngestionError(message string)
}

// NopSink discards every notification.
type NopSink struct{}

func (NopSink) OnCollectionReady(model.Collection) {}
func (NopSink) OnStatusMessage(string, model.Severity) {}
func (NopSink) OnIngestionError(string) {}
