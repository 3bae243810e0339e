// Package api exposes HTTP endpoints for report submission and listing.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/oceaneye/oceaneye/internal/auth"
	"github.com/oceaneye/oceaneye/internal/config"
	"github.com/oceaneye/oceaneye/internal/metrics"
	"github.com/oceaneye/oceaneye/internal/model"
	"github.com/oceaneye/oceaneye/internal/report"
)

// Submitter runs the report submission pipeline.
type Submitter interface {
	Submit(ctx context.Context, authorID string, sub report.Submission) (*model.Report, error)
}

// Lister backs the public report listing.
type Lister interface {
	ListAll(ctx context.Context) ([]model.Report, error)
}

// UserGetter resolves an authenticated user id to a user record.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Server wires configuration, the pipeline, repositories, and auth into an
// HTTP handler.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	pipeline Submitter
	reports  Lister
	users    UserGetter
	tokens   *auth.Service
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	server   *http.Server
	once     sync.Once
}

// New constructs a Server.
func New(cfg *config.Config, logger *zap.Logger, pipeline Submitter, reports Lister, users UserGetter, tokens *auth.Service, m *metrics.Metrics, registry *prometheus.Registry) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		pipeline: pipeline,
		reports:  reports,
		users:    users,
		tokens:   tokens,
		metrics:  m,
		registry: registry,
	}
}

// Handler builds the route table with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/reports", s.handleReports)
	if s.cfg.MediaBackend == config.BackendDisk {
		// Static media serving, mirroring the public upload path the disk
		// store embeds in every media URL.
		mux.Handle(s.cfg.UploadPathPrefix, http.StripPrefix(s.cfg.UploadPathPrefix,
			http.FileServer(http.Dir(s.cfg.UploadDir))))
	}
	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return corsMiddleware(s.loggingMiddleware(s.metricsMiddleware(mux)))
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:    s.cfg.Address,
			Handler: s.Handler(),
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.logger.Info("api listening", zap.String("address", s.cfg.Address))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleList(w, r)
	case http.MethodPost:
		s.handleCreate(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleList is public: no authentication, no filtering, newest first.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	reports, err := s.reports.ListAll(r.Context())
	if err != nil {
		s.logger.Error("list reports failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "expecting multipart form")
		return
	}

	lat, latErr := strconv.ParseFloat(r.FormValue("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.FormValue("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeError(w, http.StatusBadRequest, "invalid coordinates")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "please upload an image or video")
		return
	}
	defer file.Close()

	contentType, err := sniffContentType(file, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable media payload")
		return
	}
	if !allowedType(contentType, s.cfg.AllowedTypes) {
		writeError(w, http.StatusBadRequest, "media type not allowed")
		return
	}

	sub := report.Submission{
		Description: strings.TrimSpace(r.FormValue("description")),
		Severity:    strings.TrimSpace(r.FormValue("severity")),
		Location:    strings.TrimSpace(r.FormValue("location")),
		Lat:         lat,
		Lon:         lon,
		Media: &report.Media{
			Reader:      file,
			Filename:    header.Filename,
			ContentType: contentType,
			Size:        header.Size,
		},
	}

	stored, err := s.pipeline.Submit(r.Context(), user.ID, sub)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, stored)
}

// respondPipelineError maps each pipeline error kind to its own status so
// clients can tell user-correctable input from upstream outages.
func (s *Server) respondPipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, report.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, report.ErrAnalysis):
		s.logger.Error("submission failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "media analysis unavailable")
	default:
		s.logger.Error("submission failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error during report creation")
	}
}

// authenticate resolves the bearer token to a user before the pipeline runs.
func (s *Server) authenticate(r *http.Request) (*model.User, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, auth.ErrInvalidToken
	}
	userID, err := s.tokens.Validate(strings.TrimPrefix(header, prefix))
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(r.Context(), userID)
}

// sniffContentType detects the MIME type from the first 512 bytes, falling
// back to the client-declared header when detection is inconclusive.
func sniffContentType(file multipart.File, declared string) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && n == 0 {
		return "", err
	}
	if _, err := file.Seek(0, 0); err != nil {
		return "", err
	}
	detected := http.DetectContentType(buf[:n])
	if detected == "application/octet-stream" && declared != "" {
		return declared, nil
	}
	return detected, nil
}

// allowedType matches a content type against the configured allow list,
// where entries may be exact ("image/png") or wildcard ("image/*").
func allowedType(contentType string, allowed []string) bool {
	for _, entry := range allowed {
		if entry == contentType {
			return true
		}
		if strings.HasSuffix(entry, "/*") && strings.HasPrefix(contentType, strings.TrimSuffix(entry, "*")) {
			return true
		}
	}
	return false
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
