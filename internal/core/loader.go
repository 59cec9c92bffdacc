package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"book-catalogue/internal/core/model"
	xlog "book-catalogue/internal/log"
	"book-catalogue/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultRefreshDelay = time.Second

type LoaderOptions struct {
	// RefreshDelay is the wait before the background refresh that follows a
	// fresh-cache load.
	RefreshDelay time.Duration
	Now          func() time.Time
	Logger       *zerolog.Logger
}

// Loader drives the cache-first / remote-refresh / stale-fallback policy and
// owns the application State.
//
// Concurrent Load calls are not deduplicated; whichever finishes last wins.
type Loader struct {
	cache     CacheStore
	source    RemoteSource
	validator *Validator
	sink      Sink
	state     *State

	refreshDelay time.Duration
	now          func() time.Time
	log          zerolog.Logger

	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewLoader(cache CacheStore, source RemoteSource, validator *Validator, sink Sink, state *State, opts LoaderOptions) *Loader {
	if sink == nil {
		sink = NopSink{}
	}
	if state == nil {
		state = NewState()
	}
	if validator == nil {
		validator = NewBookValidator()
	}
	l := &Loader{
		cache:        cache,
		source:       source,
		validator:    validator,
		sink:         sink,
		state:        state,
		refreshDelay: opts.RefreshDelay,
		now:          opts.Now,
	}
	if l.refreshDelay <= 0 {
		l.refreshDelay = DefaultRefreshDelay
	}
	if l.now == nil {
		l.now = time.Now
	}
	if opts.Logger != nil {
		l.log = *opts.Logger
	} else {
		l.log = xlog.WithComponent("loader")
	}
	l.bg, l.cancel = context.WithCancel(context.Background())
	return l
}

func (l *Loader) State() *State { return l.state }

// Load runs one load cycle and returns the resulting state. After a
// fresh-cache load it returns Ready immediately and refreshes from the
// remote source in the background.
func (l *Loader) Load(ctx context.Context) model.LoadState {
	logger := l.log.With().Str(xlog.FieldLoadID, uuid.NewString()).Logger()

	l.transition(logger, model.StateLoading)
	l.status("Loading catalogue...", model.SeverityLoading)

	if l.cache.IsFresh(ctx) {
		if payload, ok := l.cache.Load(ctx); ok {
			rep := l.validator.ValidateCollection(payload)
			if len(rep.Records) > 0 {
				l.adopt(rep, model.SourceCache)
				if rep.CorruptedCount > 0 {
					l.status(fmt.Sprintf("Data loaded from cache (%d records recovered).", rep.RecoveredCount), model.SeveritySuccess)
				} else {
					l.status("Data loaded from cache.", model.SeveritySuccess)
				}
				l.transition(logger, model.StateReady)
				metrics.IncLoad(string(model.SourceCache), string(model.StateReady))
				l.scheduleRefresh()
				return model.StateReady
			}
			logger.Warn().Msg("fresh cache held no usable records")
		}
	}

	return l.loadRemote(ctx, logger)
}

// Refresh forces a remote load, falling back to the cache like Load does.
func (l *Loader) Refresh(ctx context.Context) model.LoadState {
	logger := l.log.With().Str(xlog.FieldLoadID, uuid.NewString()).Logger()
	return l.loadRemote(ctx, logger)
}

// Close cancels a pending background refresh and waits for it to return.
func (l *Loader) Close() {
	l.cancel()
	l.wg.Wait()
}

func (l *Loader) scheduleRefresh() {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		t := time.NewTimer(l.refreshDelay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-l.bg.Done():
			return
		}
		logger := l.log.With().Str(xlog.FieldLoadID, uuid.NewString()).Bool("background", true).Logger()
		l.loadRemote(l.bg, logger)
	}()
}

func (l *Loader) loadRemote(ctx context.Context, logger zerolog.Logger) model.LoadState {
	l.status("Syncing with server...", model.SeverityLoading)

	rep, err := l.fetch(ctx)
	if err == nil {
		l.adopt(rep, model.SourceRemote)
		l.save(ctx, logger, rep)
		if rep.CorruptedCount > 0 {
			l.status(fmt.Sprintf("Data updated! %d record(s) recovered automatically.", rep.RecoveredCount), model.SeveritySuccess)
			logger.Warn().Strs("errors", rep.Errors).Msg("validation problems in remote payload")
		} else {
			l.status("Data updated successfully!", model.SeveritySuccess)
		}
		l.transition(logger, model.StateReady)
		metrics.IncLoad(string(model.SourceRemote), string(model.StateReady))
		return model.StateReady
	}

	logger.Error().Err(err).Msg("remote load failed")

	if payload, ok := l.cache.Load(ctx); ok {
		stale := l.validator.ValidateCollection(payload)
		if len(stale.Records) > 0 {
			l.adopt(stale, model.SourceStaleCache)
			l.status("Using cached data (possibly outdated).", model.SeverityError)
			l.transition(logger, model.StateDegraded)
			metrics.IncLoad(string(model.SourceStaleCache), string(model.StateDegraded))
			return model.StateDegraded
		}
	}

	msg := fmt.Sprintf("Error loading data: %v", err)
	l.status(msg, model.SeverityError)
	l.sink.OnIngestionError(msg)
	l.transition(logger, model.StateFailed)
	metrics.IncLoad(string(model.SourceNone), string(model.StateFailed))
	return model.StateFailed
}

func (l *Loader) fetch(ctx context.Context) (model.CollectionReport, error) {
	payload, err := l.source.Fetch(ctx)
	if err != nil {
		metrics.IncRemoteFetch("transport_error")
		if !errors.Is(err, model.ErrTransport) {
			err = fmt.Errorf("%w: %w", model.ErrTransport, err)
		}
		return model.CollectionReport{}, err
	}
	rep := l.validator.ValidateCollection(payload)
	if len(rep.Records) == 0 {
		metrics.IncRemoteFetch("ingestion_error")
		if rep.Err != nil {
			return model.CollectionReport{}, fmt.Errorf("%w: received data is invalid and could not be recovered: %w", model.ErrIngestion, rep.Err)
		}
		return model.CollectionReport{}, fmt.Errorf("%w: received data is invalid and could not be recovered", model.ErrIngestion)
	}
	metrics.IncRemoteFetch("success")
	return rep, nil
}

func (l *Loader) save(ctx context.Context, logger zerolog.Logger, rep model.CollectionReport) {
	env := model.CacheEnvelope{
		Records: rep.Records,
		Validation: &model.ValidationMeta{
			Timestamp:      l.now().UTC(),
			TotalRecords:   rep.TotalRecords,
			CorruptedCount: rep.CorruptedCount,
			RecoveredCount: rep.RecoveredCount,
		},
	}
	if !l.cache.Save(ctx, env) {
		logger.Warn().Msg("catalogue not cached")
	}
}

func (l *Loader) adopt(rep model.CollectionReport, src model.LoadSource) {
	l.state.adopt(rep, src, l.now())
	metrics.SetCollection(len(rep.Records), rep.CorruptedCount, rep.RecoveredCount)
	l.sink.OnCollectionReady(rep.Records)
}

func (l *Loader) status(text string, sev model.Severity) {
	l.state.setMessage(model.StatusMessage{Text: text, Severity: sev, At: l.now()})
	l.sink.OnStatusMessage(text, sev)
}

func (l *Loader) transition(logger zerolog.Logger, to model.LoadState) {
	from := l.state.transition(to)
	logger.Info().
		Str(xlog.FieldOldState, string(from)).
		Str(xlog.FieldNewState, string(to)).
		Str(xlog.FieldSource, string(l.state.Source())).
		Msg("load state changed")
}
