package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"gocausal/adapters/excel"
	"gocausal/adapters/postgres"
	"gocausal/app"
	"gocausal/domain/core"
	"gocausal/domain/dataset"
	"gocausal/domain/run"
	"gocausal/internal"
	"gocausal/internal/config"
	"gocausal/internal/pairwise"
	"gocausal/ports"
	"gocausal/ui"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := internal.NewDefaultLogger().WithComponent("api")

	var repo ports.RunRepository
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			logger.Error("connect database: %v", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = postgres.NewRunRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, keeping runs in memory")
		repo = app.NewMemoryRunRepository()
	}

	svc := app.NewDiscoveryService(excel.NewReader(), repo, internal.NewDefaultLogger(), cfg.Search.MaxConcurrent)
	srv := &apiServer{svc: svc, cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/runs", srv.createRun)
		r.Get("/runs", srv.listRuns)
		r.Get("/runs/{id}", srv.getRun)
		r.Get("/runs/{id}/report", srv.getRunReport)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	addr := ":" + cfg.Server.APIPort
	logger.Info("API listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
}

type apiServer struct {
	svc    *app.DiscoveryService
	cfg    *config.Config
	logger *internal.Logger
}

// createRunRequest accepts either a server-side dataset path or inline
// columns (one float slice per variable, equal lengths). Zero-valued search
// parameters fall back to the configured defaults.
type createRunRequest struct {
	DatasetPath  string      `json:"dataset_path,omitempty"`
	DatasetName  string      `json:"dataset_name,omitempty"`
	Names        []string    `json:"names,omitempty"`
	Columns      [][]float64 `json:"columns,omitempty"`
	Test         string      `json:"test,omitempty"`
	Alpha        float64     `json:"alpha,omitempty"`
	Q            *float64    `json:"q,omitempty"`
	ColliderOnly bool        `json:"collider_only,omitempty"`
	SkewRule     string      `json:"skew_rule,omitempty"`
}

func (s *apiServer) createRun(w http.ResponseWriter, r *http.Request) {
	var body createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	req := app.RunRequest{
		DatasetPath:  body.DatasetPath,
		DatasetName:  body.DatasetName,
		Test:         body.Test,
		Alpha:        body.Alpha,
		ColliderOnly: body.ColliderOnly,
		SkewRule:     pairwise.Rule(body.SkewRule),
		Q:            s.cfg.Search.Q,
	}
	if req.Test == "" {
		req.Test = s.cfg.Search.Test
	}
	if req.Alpha == 0 {
		req.Alpha = s.cfg.Search.Alpha
	}
	if body.Q != nil {
		req.Q = *body.Q
	}
	if len(body.Names) > 0 {
		matrix, err := dataset.NewMatrix(body.Names, body.Columns)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		req.Matrix = matrix
	}

	out, err := s.svc.Run(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, out.Record)
}

func (s *apiServer) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	summaries, err := s.svc.List(r.Context(), limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *apiServer) getRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.fetch(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *apiServer) getRunReport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.fetch(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, string(ui.RenderMarkdown(rec.Report)))
}

func (s *apiServer) fetch(r *http.Request) (*run.Record, error) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	return s.svc.Get(r.Context(), id)
}

func statusFor(err error) int {
	switch {
	case core.IsNotFoundError(err):
		return http.StatusNotFound
	case core.IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
