package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/surveyqr/internal/adapter/metrics"
	"github.com/pscheid92/surveyqr/internal/domain"
	"github.com/pscheid92/surveyqr/internal/platform/config"
	"github.com/pscheid92/surveyqr/web"
)

type surveyService interface {
	ListSurveys(ctx context.Context) ([]domain.SurveySummary, error)
	CreateSurvey(ctx context.Context, question string) (*domain.Survey, error)
	GetQuestion(ctx context.Context, id int64) (string, error)
	SubmitVote(ctx context.Context, id int64, rawChoice string) (bool, error)
	GetResults(ctx context.Context, id int64) (*domain.Results, error)
	ClearHistory(ctx context.Context) error
}

// storeStatus reports the startup availability of the store.
type storeStatus interface {
	Available() bool
}

type linkEncoder interface {
	EncodeBase64(content string) (string, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app   surveyService
	store storeStatus
	qr    linkEncoder

	templates *template.Template

	httpMetrics  *metrics.HTTPMetrics
	registry     *prometheus.Registry
	healthChecks []HealthCheck
	startTime    time.Time
}

// Option customises a Server.
type Option func(*Server)

// WithMetrics records request metrics and serves reg on /metrics.
func WithMetrics(m *metrics.HTTPMetrics, reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.httpMetrics = m
		s.registry = reg
	}
}

// WithHealthChecks sets the checks run by /health/ready.
func WithHealthChecks(checks ...HealthCheck) Option {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func NewServer(cfg *config.Config, app surveyService, store storeStatus, qr linkEncoder, opts ...Option) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:      e,
		config:    cfg,
		app:       app,
		store:     store,
		qr:        qr,
		templates: templates,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "path", c.Request().URL.Path, "template", name, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}

// getBaseURL returns scheme://host of the request, honouring X-Forwarded-Proto
// so links stay correct behind a TLS-terminating proxy.
func (s *Server) getBaseURL(c echo.Context) string {
	scheme := "http"
	if c.Request().TLS != nil {
		scheme = "https"
	}
	if fwdProto := c.Request().Header.Get("X-Forwarded-Proto"); fwdProto == "http" || fwdProto == "https" {
		scheme = fwdProto
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request().Host)
}
