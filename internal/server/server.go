// Package server exposes a chronicle dataset over an HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/chronicle/internal/config"
	cerrors "git.home.luguber.info/inful/chronicle/internal/errors"
	"git.home.luguber.info/inful/chronicle/internal/events"
	"git.home.luguber.info/inful/chronicle/internal/logfields"
	"git.home.luguber.info/inful/chronicle/internal/metrics"
	"git.home.luguber.info/inful/chronicle/internal/record"
	"git.home.luguber.info/inful/chronicle/internal/series"
	smw "git.home.luguber.info/inful/chronicle/internal/server/middleware"
	"git.home.luguber.info/inful/chronicle/internal/server/responses"
	"git.home.luguber.info/inful/chronicle/internal/timestamp"
	"git.home.luguber.info/inful/chronicle/internal/version"
)

// Dataset is the series surface the server needs. *series.Series[record.Dynamic]
// satisfies it.
type Dataset interface {
	Put(ctx context.Context, data record.Dynamic) (record.ID, error)
	Update(ctx context.Context, rec record.Record[record.Dynamic]) error
	Delete(ctx context.Context, id record.ID) error
	Get(id record.ID) (record.Record[record.Dynamic], error)
	Records() []record.Record[record.Dynamic]
	QueryRange(start, end timestamp.Timestamp) []record.Record[record.Dynamic]
	QueryTagged(tag string) []record.Record[record.Dynamic]
	Compact(ctx context.Context) error
	JournalSize(ctx context.Context) (int64, error)
	Len() int
}

// Options carries optional server collaborators.
type Options struct {
	Publisher events.Publisher
	Logger    *slog.Logger

	// MetricsRegistry backs the /metrics endpoint. Nil falls back to the
	// default Prometheus registry.
	MetricsRegistry *prom.Registry
}

// Server serves the record API for a single dataset.
type Server struct {
	cfg          *config.Config
	dataset      Dataset
	publisher    events.Publisher
	logger       *slog.Logger
	errorAdapter *cerrors.HTTPErrorAdapter
	httpServer   *http.Server
	metricsReg   *prom.Registry
	startTime    time.Time
	mchain       func(http.Handler) http.Handler
}

// New constructs a new HTTP server wiring instance.
func New(cfg *config.Config, dataset Dataset, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}

	s := &Server{
		cfg:          cfg,
		dataset:      dataset,
		publisher:    publisher,
		logger:       logger,
		errorAdapter: cerrors.NewHTTPErrorAdapter(logger),
		metricsReg:   opts.MetricsRegistry,
		startTime:    time.Now(),
	}
	s.mchain = smw.Chain(logger, s.errorAdapter)
	return s
}

// Handler assembles the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/records", s.handleCreate)
	mux.HandleFunc("GET /api/records", s.handleList)
	mux.HandleFunc("GET /api/records/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/records/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/records/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/query", s.handleQuery)
	mux.HandleFunc("POST /api/compact", s.handleCompact)

	if s.cfg.Server.Metrics {
		mux.Handle("GET /metrics", metrics.HTTPHandler(s.metricsReg))
	}

	return s.mchain(mux)
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", logfields.Listen(s.cfg.Server.Listen))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, responses.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(s.startTime).Seconds(),
		Records:   s.dataset.Len(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	size, err := s.dataset.JournalSize(r.Context())
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, cerrors.StorageError(s.cfg.Dataset.Path, err))
		return
	}
	writeJSON(w, http.StatusOK, responses.StatsResponse{
		Dataset:      s.cfg.Dataset.Name,
		Driver:       s.cfg.Dataset.Driver,
		Records:      s.dataset.Len(),
		JournalBytes: size,
		Timestamp:    time.Now().UTC(),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload record.Dynamic
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, cerrors.ValidationFailed("body", err.Error()))
		return
	}
	payload.Labels = record.NormalizeTags(payload.Labels)
	if err := payload.Validate(); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, cerrors.ValidationFailed("record", err.Error()))
		return
	}

	id, err := s.dataset.Put(r.Context(), payload)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, mapSeriesError(err))
		return
	}

	s.publish(r.Context(), events.Change{
		Op:        events.OpPut,
		ID:        id,
		Timestamp: payload.Time,
		Tags:      payload.Labels,
	})

	writeJSON(w, http.StatusCreated, responses.PutResponse{Status: "created", ID: id.String()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toListResponse(s.dataset.Records()))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseID(w, r)
	if !ok {
		return
	}
	rec, err := s.dataset.Get(id)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, mapSeriesError(err))
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseID(w, r)
	if !ok {
		return
	}

	var payload record.Dynamic
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, cerrors.ValidationFailed("body", err.Error()))
		return
	}
	payload.Labels = record.NormalizeTags(payload.Labels)
	if err := payload.Validate(); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, cerrors.ValidationFailed("record", err.Error()))
		return
	}

	if err := s.dataset.Update(r.Context(), record.Record[record.Dynamic]{ID: id, Data: payload}); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, mapSeriesError(err))
		return
	}

	s.publish(r.Context(), events.Change{
		Op:        events.OpUpdate,
		ID:        id,
		Timestamp: payload.Time,
		Tags:      payload.Labels,
	})

	writeJSON(w, http.StatusOK, responses.PutResponse{Status: "updated", ID: id.String()})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseID(w, r)
	if !ok {
		return
	}
	if err := s.dataset.Delete(r.Context(), id); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, mapSeriesError(err))
		return
	}

	s.publish(r.Context(), events.Change{Op: events.OpDelete, ID: id})

	w.WriteHeader(http.StatusNoContent)
}

// handleQuery filters by ?from=, ?to= (wire format timestamps, both
// inclusive) and ?tag=. With no parameters it behaves like the record list.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if tag := q.Get("tag"); tag != "" {
		if q.Has("from") || q.Has("to") {
			s.errorAdapter.WriteErrorResponse(w, r,
				cerrors.ValidationFailed("query", "tag cannot be combined with from/to"))
			return
		}
		writeJSON(w, http.StatusOK, toListResponse(s.dataset.QueryTagged(tag)))
		return
	}

	from, to := timestamp.Timestamp{}, timestamp.Timestamp{}
	var err error
	if v := q.Get("from"); v != "" {
		if from, err = timestamp.Parse(v); err != nil {
			s.errorAdapter.WriteErrorResponse(w, r, cerrors.ValidationFailed("from", err.Error()))
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = timestamp.Parse(v); err != nil {
			s.errorAdapter.WriteErrorResponse(w, r, cerrors.ValidationFailed("to", err.Error()))
			return
		}
	}

	if from.IsZero() && to.IsZero() {
		writeJSON(w, http.StatusOK, toListResponse(s.dataset.Records()))
		return
	}
	if to.IsZero() {
		to = timestamp.Now()
	}
	writeJSON(w, http.StatusOK, toListResponse(s.dataset.QueryRange(from, to)))
}

func (s *Server) handleCompact(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := s.dataset.Compact(r.Context()); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, cerrors.JournalError("compact", err))
		return
	}
	writeJSON(w, http.StatusOK, responses.CompactResponse{
		Status:   "compacted",
		Records:  s.dataset.Len(),
		Duration: time.Since(start).Seconds(),
	})
}

func (s *Server) parseID(w http.ResponseWriter, r *http.Request) (record.ID, bool) {
	id, err := record.ParseID(r.PathValue("id"))
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, cerrors.ValidationFailed("id", err.Error()))
		return record.ID{}, false
	}
	return id, true
}

// publish sends a change event. Publish failures are logged, never surfaced
// to the API caller: the write already happened.
func (s *Server) publish(ctx context.Context, change events.Change) {
	if err := s.publisher.Publish(ctx, change); err != nil {
		s.logger.Warn("change event publish failed",
			logfields.Op(string(change.Op)),
			logfields.RecordID(change.ID.String()),
			logfields.Error(err))
	}
}

// mapSeriesError translates series errors into classified API errors.
func mapSeriesError(err error) error {
	var notFound series.ErrNotFound
	if errors.As(err, &notFound) {
		return cerrors.RecordNotFound(notFound.ID.String())
	}
	var exists series.ErrExists
	if errors.As(err, &exists) {
		return cerrors.RecordExists(exists.ID.String())
	}
	return cerrors.JournalError("write", err)
}

func toRecordResponse(rec record.Record[record.Dynamic]) responses.RecordResponse {
	return responses.RecordResponse{
		ID:        rec.ID.String(),
		Timestamp: rec.Data.Time.String(),
		Tags:      rec.Data.Labels,
		Fields:    rec.Data.Fields,
	}
}

func toListResponse(recs []record.Record[record.Dynamic]) responses.RecordListResponse {
	out := responses.RecordListResponse{
		Records: make([]responses.RecordResponse, 0, len(recs)),
		Count:   len(recs),
	}
	for _, rec := range recs {
		out.Records = append(out.Records, toRecordResponse(rec))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
