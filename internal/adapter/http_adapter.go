package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"book-catalogue/internal/core"
	"book-catalogue/internal/core/model"
	xlog "book-catalogue/internal/log"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// CatalogueLoader is the part of core.Loader the HTTP layer drives.
type CatalogueLoader interface {
	Refresh(ctx context.Context) model.LoadState
	State() *core.State
}

type Handler struct {
	loader   CatalogueLoader
	log      zerolog.Logger
	debounce *core.Debouncer
	limit    RateLimitConfig

	// async refreshes run on ctx and are tracked by wg until Close
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// RateLimitConfig bounds POST /refresh per client IP.
type RateLimitConfig struct {
	RequestLimit int
	WindowSize   time.Duration
}

func NewHTTPHandler(loader CatalogueLoader, logger zerolog.Logger, limit RateLimitConfig) *Handler {
	if limit.RequestLimit <= 0 {
		limit.RequestLimit = 10
	}
	if limit.WindowSize <= 0 {
		limit.WindowSize = time.Minute
	}
	h := &Handler{
		loader:   loader,
		log:      logger,
		debounce: core.NewDebouncer(core.DefaultDebounce),
		limit:    limit,
	}
	h.ctx, h.cancel = context.WithCancel(context.Background())
	return h
}

// Routes mounts the API on a chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/books", h.ListBooks)
		r.Get("/genres", h.ListGenres)
		r.Get("/summary", h.GetSummary)
		r.Get("/status", h.GetStatus)
		r.With(h.refreshLimiter()).Post("/refresh", h.Refresh)
	})
	return r
}

// Close cancels a pending debounced refresh, cancels one that is already
// running and waits for it to return.
func (h *Handler) Close() {
	h.debounce.Stop()
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()
	h.wg.Wait()
}

func (h *Handler) refreshAsync() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	state := h.loader.Refresh(h.ctx)
	h.log.Info().Str(xlog.FieldNewState, string(state)).Msg("scheduled refresh finished")
}

func (h *Handler) refreshLimiter() func(http.Handler) http.Handler {
	window := h.limit.WindowSize
	return httprate.Limit(
		h.limit.RequestLimit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many refresh requests", nil)
		}),
	)
}

type httpError struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details,omitempty"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string, details map[string]interface{}) {
	e := httpError{}
	e.Error.Code = code
	e.Error.Message = msg
	e.Error.Details = details
	writeJSON(w, status, e)
}

// ListBooksParams are the query parameters of GET /books.
type ListBooksParams struct {
	Q          *string `form:"q"`
	Status     *string `form:"status"`
	Genre      *string `form:"genre"`
	AddedSince *string `form:"added_since"`
	Sort       *string `form:"sort"`
	Desc       *bool   `form:"desc"`
	Page       *int    `form:"page"`
	PageSize   *int    `form:"page_size"`
}

func bindListParams(r *http.Request) (ListBooksParams, error) {
	var p ListBooksParams
	q := r.URL.Query()
	binds := []struct {
		name string
		dest any
	}{
		{"q", &p.Q},
		{"status", &p.Status},
		{"genre", &p.Genre},
		{"added_since", &p.AddedSince},
		{"sort", &p.Sort},
		{"desc", &p.Desc},
		{"page", &p.Page},
		{"page_size", &p.PageSize},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			return p, fmt.Errorf("invalid parameter %q: %w", b.name, err)
		}
	}
	return p, nil
}

func toListQuery(p ListBooksParams) (model.ListQuery, error) {
	var q model.ListQuery
	if p.Q != nil {
		q.Q = *p.Q
	}
	if p.Status != nil {
		s := *p.Status
		if s != "" && !strings.EqualFold(s, "all") && s != model.StatusAvailable && s != model.StatusUnavailable {
			return q, fmt.Errorf("status must be one of: all, %s, %s", model.StatusAvailable, model.StatusUnavailable)
		}
		q.Status = s
	}
	if p.Genre != nil {
		q.Genre = *p.Genre
	}
	if p.AddedSince != nil && *p.AddedSince != "" {
		t, err := parseDateParam(*p.AddedSince)
		if err != nil {
			return q, err
		}
		q.AddedSince = &t
	}
	if p.Sort != nil && *p.Sort != "" {
		if !core.IsSortable(*p.Sort) {
			return q, fmt.Errorf("sort must be one of: %s", strings.Join(core.SortableFields, ", "))
		}
		q.Sort = &model.SortKey{Field: *p.Sort, Desc: p.Desc != nil && *p.Desc}
	}
	if p.Page != nil {
		q.Page = *p.Page
	}
	if p.PageSize != nil {
		q.PageSize = *p.PageSize
	}
	return q, nil
}

func parseDateParam(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("added_since must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
}

type paginatedBooks struct {
	Data     []BookView `json:"data"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Total    int        `json:"total"`
}

func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	params, err := bindListParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PARAMETER", err.Error(), nil)
		return
	}
	q, err := toListQuery(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PARAMETER", err.Error(), nil)
		return
	}

	snap := h.loader.State().Snapshot()
	if snap.Load == model.StateFailed && len(snap.Records) == 0 {
		writeError(w, http.StatusServiceUnavailable, "CATALOGUE_UNAVAILABLE", snap.Message.Text, nil)
		return
	}

	page := core.Query(snap.Records, q)
	out := paginatedBooks{Data: make([]BookView, 0, len(page.Data)), Page: page.Page, PageSize: page.PageSize, Total: page.Total}
	for _, rec := range page.Data {
		out.Data = append(out.Data, NewBookView(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListGenres(w http.ResponseWriter, _ *http.Request) {
	genres := h.loader.State().Snapshot().Genres
	if genres == nil {
		genres = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"genres": genres})
}

func (h *Handler) GetSummary(w http.ResponseWriter, _ *http.Request) {
	s := core.Summarize(h.loader.State().Records())
	writeJSON(w, http.StatusOK, map[string]int{"total": s.Total, "available": s.Available})
}

type statusView struct {
	State          model.LoadState  `json:"state"`
	Source         model.LoadSource `json:"source,omitempty"`
	Message        string           `json:"message,omitempty"`
	Severity       model.Severity   `json:"severity,omitempty"`
	Records        int              `json:"records"`
	TotalRecords   int              `json:"total_records"`
	CorruptedCount int              `json:"corrupted_count"`
	RecoveredCount int              `json:"recovered_count"`
	LoadedAt       *time.Time       `json:"loaded_at,omitempty"`
}

func newStatusView(s core.Snapshot) statusView {
	v := statusView{
		State:          s.Load,
		Source:         s.Source,
		Message:        s.Message.Text,
		Severity:       s.Message.Severity,
		Records:        len(s.Records),
		TotalRecords:   s.Report.TotalRecords,
		CorruptedCount: s.Report.CorruptedCount,
		RecoveredCount: s.Report.RecoveredCount,
	}
	if !s.LoadedAt.IsZero() {
		t := s.LoadedAt
		v.LoadedAt = &t
	}
	return v
}

func (h *Handler) GetStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newStatusView(h.loader.State().Snapshot()))
}

// Refresh reloads from the remote source. With async=true the request is
// coalesced with others arriving shortly after and answered with 202.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var async *bool
	if err := runtime.BindQueryParameter("form", true, false, "async", r.URL.Query(), &async); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PARAMETER", err.Error(), nil)
		return
	}

	if async != nil && *async {
		h.debounce.Trigger(h.refreshAsync)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
		return
	}

	state := h.loader.Refresh(r.Context())
	h.log.Info().Str(xlog.FieldNewState, string(state)).Str(xlog.FieldRequestID, middleware.GetReqID(r.Context())).Msg("manual refresh")
	writeJSON(w, http.StatusOK, newStatusView(h.loader.State().Snapshot()))
}
