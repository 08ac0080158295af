package httpserver

import (
	"context"
	"errors"
	"html/template"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/surveyqr/internal/domain"
	"github.com/pscheid92/surveyqr/internal/platform/config"
)

// --- Mock implementations ---

type mockSurveyService struct {
	listSurveysFn  func(ctx context.Context) ([]domain.SurveySummary, error)
	createSurveyFn func(ctx context.Context, question string) (*domain.Survey, error)
	getQuestionFn  func(ctx context.Context, id int64) (string, error)
	submitVoteFn   func(ctx context.Context, id int64, rawChoice string) (bool, error)
	getResultsFn   func(ctx context.Context, id int64) (*domain.Results, error)
	clearHistoryFn func(ctx context.Context) error
}

func (m *mockSurveyService) ListSurveys(ctx context.Context) ([]domain.SurveySummary, error) {
	if m.listSurveysFn != nil {
		return m.listSurveysFn(ctx)
	}
	return nil, nil
}

func (m *mockSurveyService) CreateSurvey(ctx context.Context, question string) (*domain.Survey, error) {
	if m.createSurveyFn != nil {
		return m.createSurveyFn(ctx, question)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSurveyService) GetQuestion(ctx context.Context, id int64) (string, error) {
	if m.getQuestionFn != nil {
		return m.getQuestionFn(ctx, id)
	}
	return "", domain.ErrSurveyNotFound
}

func (m *mockSurveyService) SubmitVote(ctx context.Context, id int64, rawChoice string) (bool, error) {
	if m.submitVoteFn != nil {
		return m.submitVoteFn(ctx, id, rawChoice)
	}
	return true, nil
}

func (m *mockSurveyService) GetResults(ctx context.Context, id int64) (*domain.Results, error) {
	if m.getResultsFn != nil {
		return m.getResultsFn(ctx, id)
	}
	return nil, domain.ErrSurveyNotFound
}

func (m *mockSurveyService) ClearHistory(ctx context.Context) error {
	if m.clearHistoryFn != nil {
		return m.clearHistoryFn(ctx)
	}
	return nil
}

type mockStore struct {
	available bool
}

func (m *mockStore) Available() bool { return m.available }

type mockEncoder struct {
	encodeFn func(content string) (string, error)
}

func (m *mockEncoder) EncodeBase64(content string) (string, error) {
	if m.encodeFn != nil {
		return m.encodeFn(content)
	}
	return "UVJDT0RF", nil
}

// --- Test helpers ---

func newTestServer(t *testing.T, app surveyService, opts ...func(*Server)) *Server {
	t.Helper()

	tmpl := template.Must(template.New("home.html").Parse(`Home{{range .Surveys}} [{{.ID}}:{{.Question}}]{{end}}`))
	template.Must(tmpl.New("created.html").Parse(`Created {{.Question}} {{.VoteURL}} {{.ResultsURL}} <img src="{{.QRCode}}">`))
	template.Must(tmpl.New("vote.html").Parse(`Vote {{.SurveyID}} {{.Question}}`))
	template.Must(tmpl.New("results.html").Parse(`Results {{.Question}} yes={{.YesVotes}} no={{.NoVotes}} total={{.TotalVotes}} {{printf "%.0f" .YesPercent}}/{{printf "%.0f" .NoPercent}}`))

	srv := &Server{
		echo:      echo.New(),
		config:    &config.Config{Port: "8000", RateLimitPerSecond: 1000, RateLimitBurst: 1000},
		app:       app,
		store:     &mockStore{available: true},
		qr:        &mockEncoder{},
		templates: tmpl,
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withStore(store storeStatus) func(*Server) {
	return func(s *Server) {
		s.store = store
	}
}

func withEncoder(qr linkEncoder) func(*Server) {
	return func(s *Server) {
		s.qr = qr
	}
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withRateLimit(perSecond float64, burst int) func(*Server) {
	return func(s *Server) {
		s.config.RateLimitPerSecond = perSecond
		s.config.RateLimitBurst = burst
	}
}
