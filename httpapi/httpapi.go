// Package httpapi exposes the agent-facing operation table and the
// read-only Resources as thin JSON-over-HTTP handlers on
// github.com/gorilla/mux, the teacher's own router. Every handler is a
// pass-through to the library operation it names; this package adds no
// new semantics beyond request decoding, error-to-status mapping, and
// response encoding, per the reduced front-end scope the spec allows.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/memgraph/memgraph/app"
	"github.com/memgraph/memgraph/docs/adapter"
	"github.com/memgraph/memgraph/graphstore"
	"github.com/memgraph/memgraph/logger"
	"github.com/memgraph/memgraph/memerr"
	"github.com/memgraph/memgraph/reader"
	"github.com/memgraph/memgraph/reconcile"
	"github.com/memgraph/memgraph/scanner"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps an *app.App with the operation-table and resource routes.
type Server struct {
	app *app.App
	mux *mux.Router
}

// New builds a Server and registers every route.
func New(a *app.App) *Server {
	s := &Server{app: a, mux: mux.NewRouter()}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.mux

	r.HandleFunc("/v1/upsert", s.handleUpsert).Methods(http.MethodPost)
	r.HandleFunc("/v1/delete", s.handleDelete).Methods(http.MethodPost)
	r.HandleFunc("/v1/relate", s.handleRelate).Methods(http.MethodPost)
	r.HandleFunc("/v1/unrelate", s.handleUnrelate).Methods(http.MethodPost)
	r.HandleFunc("/v1/query", s.handleQuery).Methods(http.MethodGet)
	r.HandleFunc("/v1/search", s.handleSearch).Methods(http.MethodPost)
	r.HandleFunc("/v1/get-at", s.handleGetAt).Methods(http.MethodGet)
	r.HandleFunc("/v1/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/v1/changelog", s.handleChangelogOp).Methods(http.MethodGet)
	r.HandleFunc("/v1/diff", s.handleDiff).Methods(http.MethodGet)
	r.HandleFunc("/v1/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/v1/changes-since", s.handleChangesSince).Methods(http.MethodGet)
	r.HandleFunc("/v1/sync", s.handleSync).Methods(http.MethodPost)
	r.HandleFunc("/v1/validate", s.handleValidate).Methods(http.MethodPost)
	r.HandleFunc("/v1/scan", s.handleScan).Methods(http.MethodPost)

	r.HandleFunc("/v1/resources/schema", s.handleResourceSchema).Methods(http.MethodGet)
	r.HandleFunc("/v1/resources/entity/{id}", s.handleResourceEntity).Methods(http.MethodGet)
	r.HandleFunc("/v1/resources/changelog/{id}", s.handleResourceChangelog).Methods(http.MethodGet)
	r.HandleFunc("/v1/resources/audit/{id}", s.handleResourceAudit).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.HandlerFor(scanner.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON mirrors the teacher's DecodeJSONBody: reject unknown fields,
// a body that isn't exactly one JSON object, or one that's empty.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain exactly one JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := statusFor(err)
	logger.Warn("httpapi: request failed: %v", err)
	writeJSON(w, status, body)
}

// statusFor maps the memerr taxonomy onto HTTP status codes. Unrecognized
// errors fall back to 500.
func statusFor(err error) (int, map[string]any) {
	var ve *memerr.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, map[string]any{"error": "validation", "label": ve.Label, "fields": ve.Fields}
	}
	var ce *memerr.ConflictError
	if errors.As(err, &ce) {
		return http.StatusConflict, map[string]any{"error": "conflict", "entityId": ce.EntityID, "label": ce.Label}
	}
	switch {
	case errors.Is(err, memerr.NotFound):
		return http.StatusNotFound, map[string]any{"error": "not found"}
	case errors.Is(err, memerr.UnknownLabel), errors.Is(err, memerr.UnknownEdge):
		return http.StatusBadRequest, map[string]any{"error": err.Error()}
	case errors.Is(err, memerr.Target):
		return http.StatusBadRequest, map[string]any{"error": err.Error()}
	default:
		return http.StatusInternalServerError, map[string]any{"error": err.Error()}
	}
}

// --- mutation operations -----------------------------------------------

type upsertRequest struct {
	Label string         `json:"label"`
	ID    string         `json:"id,omitempty"`
	Props map[string]any `json:"props"`
	Actor string         `json:"actor"`
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := s.app.Pipeline.Upsert(r.Context(), req.Label, req.ID, req.Props, req.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type deleteRequest struct {
	ID    string `json:"id"`
	Actor string `json:"actor"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.app.Pipeline.Delete(r.Context(), req.ID, req.Actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ack": true})
}

type relateRequest struct {
	FromID    string         `json:"fromId"`
	ToID      string         `json:"toId"`
	Type      string         `json:"type"`
	FromLabel string         `json:"fromLabel"`
	ToLabel   string         `json:"toLabel"`
	Props     map[string]any `json:"props,omitempty"`
	Actor     string         `json:"actor"`
}

func (s *Server) handleRelate(w http.ResponseWriter, r *http.Request) {
	var req relateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.app.Pipeline.Relate(r.Context(), req.FromID, req.ToID, req.Type, req.FromLabel, req.ToLabel, req.Props, req.Actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ack": true})
}

type unrelateRequest struct {
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
	Type   string `json:"type"`
	Actor  string `json:"actor"`
}

func (s *Server) handleUnrelate(w http.ResponseWriter, r *http.Request) {
	var req unrelateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.app.Pipeline.Unrelate(r.Context(), req.FromID, req.ToID, req.Type, req.Actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ack": true})
}

// --- read operations -----------------------------------------------------

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if id := q.Get("id"); id != "" {
		es, err := s.app.Reader.Current(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if es == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, es)
		return
	}
	label := q.Get("label")
	if label == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query requires label or id"})
		return
	}
	entities, err := s.app.Reader.ByLabel(r.Context(), label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities)
}

type searchRequest struct {
	Label   string              `json:"label"`
	Filters []graphstore.Filter `json:"filters,omitempty"`
	Limit   int                 `json:"limit,omitempty"`
	OrderBy *graphstore.OrderBy `json:"orderBy,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	entities, err := s.app.Reader.Search(r.Context(), req.Label, req.Filters, req.Limit, req.OrderBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities)
}

func (s *Server) handleGetAt(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	t, err := parseTimeParam(r, "timestamp")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	state, err := s.app.Reader.AtTime(r.Context(), id, t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	history, err := s.app.Reader.History(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleChangelogOp(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	diffs, err := s.app.Reader.Changelog(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diffs)
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	fromV, errFrom := strconv.Atoi(r.URL.Query().Get("fromVersion"))
	toV, errTo := strconv.Atoi(r.URL.Query().Get("toVersion"))
	if errFrom != nil || errTo != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "fromVersion and toVersion must be integers"})
		return
	}
	history, err := s.app.Reader.History(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	var oldState, newState *graphstore.State
	for i := range history {
		if history[i].Version == fromV {
			oldState = &history[i]
		}
		if history[i].Version == toV {
			newState = &history[i]
		}
	}
	if oldState == nil || newState == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "version not found"})
		return
	}
	writeJSON(w, http.StatusOK, reader.DiffStates(*oldState, *newState))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	t, err := parseTimeParam(r, "timestamp")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	labels := splitCSV(r.URL.Query().Get("labels"))
	snap, err := s.app.Reader.SnapshotAt(r.Context(), t, labels)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleChangesSince(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := parseTimeParam(r, "since")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	labels := splitCSV(q.Get("labels"))
	actors := splitCSV(q.Get("actors"))
	summaries, err := s.app.Reader.ChangesSince(r.Context(), t, labels, actors, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// --- sync / validate / scan ----------------------------------------------

type syncRequest struct {
	DocsDir  string   `json:"docsDir,omitempty"`
	Strategy string   `json:"strategy,omitempty"`
	Actor    string   `json:"actor"`
	Labels   []string `json:"labels,omitempty"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	docsDir := req.DocsDir
	if docsDir == "" {
		docsDir = s.app.Config.Docs.OutputDir
	}
	strategy := reconcile.Strategy(req.Strategy)
	if strategy == "" {
		strategy = reconcile.Strategy(s.app.Config.Sync.ConflictStrategy)
	}
	fa := adapter.Resolve(s.app.Config.Docs.Framework)

	result, err := s.app.Reconcile.Sync(r.Context(), docsDir, fa, strategy, req.Actor, req.Labels)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type validateRequest struct {
	Label string         `json:"label"`
	Props map[string]any `json:"props"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if _, err := s.app.Registry.ValidateNode(req.Label, req.Props); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type scanRequest struct {
	Target string `json:"target"`
	DryRun bool   `json:"dryRun"`
	Actor  string `json:"actor"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	opts := scanner.Options{
		Target: req.Target, DryRun: req.DryRun, Actor: req.Actor,
		Include: s.app.Config.Scan.Include, Exclude: s.app.Config.Scan.Exclude,
		Languages: s.app.Config.Scan.Languages, Mappings: s.app.Config.Scan.Mappings,
		Remote: &s.app.Config.Scan.Remote,
	}
	result, err := s.app.Scanner.Scan(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- resources -------------------------------------------------------------

func (s *Server) handleResourceSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Registry.Def())
}

func (s *Server) handleResourceEntity(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	es, err := s.app.Reader.Current(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if es == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, es)
}

func (s *Server) handleResourceChangelog(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	diffs, err := s.app.Reader.Changelog(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diffs)
}

func (s *Server) handleResourceAudit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entries, err := s.app.Audit.For(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- small helpers -----------------------------------------------------

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, errors.New(name + " is required")
	}
	return time.Parse(time.RFC3339Nano, raw)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
