package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/liamcoop/expectations/dataset"
	"github.com/liamcoop/expectations/expectations"
	"github.com/liamcoop/expectations/internal/logger"
	_ "github.com/lib/pq"
)

type Server struct {
	dc     *expectations.DataContext
	engine *expectations.Engine
	db     *sql.DB // nil unless the config store is Postgres-backed
	router *chi.Mux
}

func NewServer(store expectations.ConfigStore, db *sql.DB) (*Server, error) {
	engine, err := expectations.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to create expectation engine: %w", err)
	}

	s := &Server{
		dc:     expectations.NewDataContext(store),
		engine: engine,
		db:     db,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/v1/health", s.handleHealth)

	r.Route("/api/v1/assets", func(r chi.Router) {
		r.Get("/", s.handleListAssets)

		r.Route("/{assetName}", func(r chi.Router) {
			r.Get("/", s.handleGetAsset)
			r.Put("/", s.handleSaveAsset)
			r.Post("/validate", s.handleValidateAsset)
		})
	})

	r.Route("/api/v1/validations", func(r chi.Router) {
		r.Post("/", s.handleRegisterValidation)
		r.Get("/{runId}/parameters", s.handleGetParameters)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// List data asset configs handler
func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	names, err := s.dc.ListDataAssetConfigs()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list data assets", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	respondJSON(w, http.StatusOK, AssetsListResponse{DataAssets: names})
}

// Get data asset config handler (get-or-create: unknown names return an
// empty skeleton)
func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.dc.GetDataAssetConfig(chi.URLParam(r, "assetName"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load data asset config", err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// Save data asset config handler
func (s *Server) handleSaveAsset(w http.ResponseWriter, r *http.Request) {
	assetName := chi.URLParam(r, "assetName")

	var cfg expectations.DataAssetConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if cfg.DataAssetName == "" {
		cfg.DataAssetName = assetName
	}
	if cfg.DataAssetName != assetName {
		respondError(w, http.StatusBadRequest, "data_asset_name does not match url", nil)
		return
	}

	if err := s.dc.SaveDataAssetConfig(&cfg); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save data asset config", err)
		return
	}
	respondJSON(w, http.StatusOK, &cfg)
}

// Validate dataset handler: CSV body, evaluated against the asset's config
func (s *Server) handleValidateAsset(w http.ResponseWriter, r *http.Request) {
	assetName := chi.URLParam(r, "assetName")

	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		runID = uuid.New().String()
	}

	ds, err := dataset.ReadCSV(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid csv body", err)
		return
	}

	result, warnings, err := s.dc.ValidateDataset(s.engine, ds, assetName, runID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "validation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, ValidateResponse{
		RunID:    runID,
		Result:   result,
		Warnings: warnings,
	})
}

// Register externally produced validation results handler
func (s *Server) handleRegisterValidation(w http.ResponseWriter, r *http.Request) {
	var req RegisterValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Result == nil {
		respondError(w, http.StatusBadRequest, "result is required", nil)
		return
	}

	runID := req.RunID
	if runID == "" {
		runID = req.Result.Meta.RunID
	}
	if runID == "" {
		runID = uuid.New().String()
	}

	stored, warnings, err := s.dc.RegisterValidationResults(runID, req.Result)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to register validation results", err)
		return
	}

	respondJSON(w, http.StatusOK, RegisterValidationResponse{
		RunID:    runID,
		Stored:   stored,
		Warnings: warnings,
	})
}

// Bound evaluation parameters handler
func (s *Server) handleGetParameters(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")
	respondJSON(w, http.StatusOK, ParametersResponse{
		RunID:      runID,
		Parameters: s.dc.BindEvaluationParameters(runID),
	})
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

// newConfigStore picks the config store backend from the environment:
// DATABASE_URL selects Postgres, GE_CONFIG_DIR a directory of json
// documents, and an in-memory store otherwise.
func newConfigStore() (expectations.ConfigStore, *sql.DB, error) {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return expectations.NewPostgresConfigStore(db), db, nil
	}

	if dir := os.Getenv("GE_CONFIG_DIR"); dir != "" {
		store, err := expectations.NewFileConfigStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}

	logger.Warn("no DATABASE_URL or GE_CONFIG_DIR set; using ephemeral in-memory config store")
	return expectations.NewInMemoryConfigStore(), nil, nil
}

func main() {
	store, db, err := newConfigStore()
	if err != nil {
		logger.Fatal("failed to create config store", "error", err)
	}
	if db != nil {
		defer db.Close()
	}

	server, err := NewServer(store, db)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
