// Package api provides the HTTP REST API server for fundseeker.
//
// It exposes endpoints for listing companies with their fundable amounts,
// triggering EDGAR imports, and a WebSocket feed of import events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/fundseeker/internal/company"
	"github.com/seenimoa/fundseeker/internal/config"
	"github.com/seenimoa/fundseeker/internal/seeker"
	"github.com/seenimoa/fundseeker/internal/storage"
	"github.com/seenimoa/fundseeker/pkg/models"
	"github.com/seenimoa/fundseeker/pkg/utils"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportCIKs  = 100
	maxRecentLimit = 100
)

// Service is the part of *seeker.Service the API needs.
type Service interface {
	ImportBatch(ctx context.Context, ciks []int) []seeker.ImportResult
	ImportRecent(ctx context.Context, limit int) ([]seeker.ImportResult, error)
	Companies(ctx context.Context, startsWith string) ([]seeker.CompanySummary, error)
	Company(ctx context.Context, cik int) (seeker.CompanySummary, error)
}

// Options tunes a Server.
type Options struct {
	Version string
	Logger  *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	svc     Service
	wsHub   *WSHub
	log     *slog.Logger
	version string
}

// NewServer creates a configured API server with all routes and middleware.
// hub is also expected to be registered as an event publisher with svc.
func NewServer(cfg *config.Config, svc Service, hub *WSHub, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if hub == nil {
		hub = NewWSHub()
	}
	srv := &Server{
		cfg:     cfg,
		svc:     svc,
		wsHub:   hub,
		log:     opts.Logger,
		version: opts.Version,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe runs the HTTP server until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // batch imports are slow under the SEC rate limit
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.wsHub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api.listen", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("api.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	timeout := 60 * time.Second
	if s.cfg.API.RequestTimeoutSec > 0 {
		timeout = time.Duration(s.cfg.API.RequestTimeoutSec) * time.Second
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.log.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket connections are long-lived; keep them outside the timeout.
		r.Get("/ws/imports", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(timeout))

			// Health (also available at /health)
			r.Get("/health", s.handleHealth)

			// Companies
			r.Get("/companies", s.handleListCompanies)
			r.Get("/companies/{cik}", s.handleGetCompany)

			// Imports
			r.Post("/companies/import", s.handleImport)
			r.Post("/companies/import/recent", s.handleImportRecent)

			// Config
			r.Get("/config", s.handleGetConfig)
			r.Get("/config/settings", s.handleGetConfigSettings)
		})
	})

	return r
}

func (s *Server) allowedOrigins() []string {
	if len(s.cfg.API.CORSOrigins) > 0 {
		return s.cfg.API.CORSOrigins
	}
	return []string{"*"}
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse is the data of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Time      string `json:"time"`
	WSClients int    `json:"ws_clients"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: HealthResponse{
			Status:    "ok",
			Version:   s.version,
			Time:      time.Now().UTC().Format(time.RFC3339),
			WSClients: s.wsHub.ClientCount(),
		},
	})
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	letter := r.URL.Query().Get("startsWithLetter")

	summaries, err := s.svc.Companies(r.Context(), letter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]models.CompanyResponse, 0, len(summaries))
	for _, c := range summaries {
		out = append(out, toCompanyResponse(c))
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	cik, err := utils.ParseCIK(chi.URLParam(r, "cik"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := s.svc.Company(r.Context(), cik)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: toCompanyResponse(c)})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req models.ImportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.CIKs) == 0 {
		writeError(w, http.StatusBadRequest, "ciks is required")
		return
	}
	if len(req.CIKs) > maxImportCIKs {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d ciks per request", maxImportCIKs))
		return
	}
	results := s.svc.ImportBatch(r.Context(), req.Ints())
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: toImportResponse(results)})
}

func (s *Server) handleImportRecent(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.Import.RecentLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	if limit < 1 || limit > maxRecentLimit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxRecentLimit))
		return
	}

	results, err := s.svc.ImportRecent(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: toImportResponse(results)})
}

// ============================================================
// Helpers
// ============================================================

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var verr *company.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, seeker.ErrCompanyNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("api.request_failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

func toCompanyResponse(c seeker.CompanySummary) models.CompanyResponse {
	return models.CompanyResponse{
		ID:                     c.CIK,
		Name:                   c.Name,
		StandardFundableAmount: models.NewAmount(c.Standard),
		SpecialFundableAmount:  models.NewAmount(c.Special),
	}
}

func toImportResponse(results []seeker.ImportResult) models.ImportResponse {
	resp := models.ImportResponse{Results: make([]models.ImportResult, 0, len(results))}
	for _, r := range results {
		if resp.ImportID == "" {
			resp.ImportID = r.ImportID
		}
		out := models.ImportResult{
			CIK:     r.CIK,
			Name:    r.Name,
			Applied: r.Applied,
			Records: r.Records,
		}
		switch {
		case r.Err == nil:
			out.Status = models.ImportStatusImported
			std, spec := models.NewAmount(r.Standard), models.NewAmount(r.Special)
			out.StandardFundableAmount = &std
			out.SpecialFundableAmount = &spec
			resp.Imported++
		case errors.Is(r.Err, seeker.ErrCompanyNotFound):
			out.Status = models.ImportStatusNotFound
			out.Error = r.Err.Error()
			resp.Failed++
		default:
			out.Status = models.ImportStatusFailed
			out.Error = r.Err.Error()
			resp.Failed++
		}
		resp.Results = append(resp.Results, out)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
