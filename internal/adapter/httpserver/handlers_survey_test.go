package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/surveyqr/internal/domain"
	"github.com/pscheid92/surveyqr/internal/platform/correlation"
	apperrors "github.com/pscheid92/surveyqr/internal/platform/errors"
)

func doRequest(srv *Server, method, target string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleHome(t *testing.T) {
	svc := &mockSurveyService{
		listSurveysFn: func(context.Context) ([]domain.SurveySummary, error) {
			return []domain.SurveySummary{{ID: 1, Question: "Tea?"}, {ID: 2, Question: "Coffee?"}}, nil
		},
	}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Home [1:Tea?] [2:Coffee?]", rec.Body.String())
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "0", rec.Header().Get("Expires"))
}

func TestHandleHome_StoreError(t *testing.T) {
	svc := &mockSurveyService{
		listSurveysFn: func(context.Context) ([]domain.SurveySummary, error) {
			return nil, fmt.Errorf("list surveys: %w", domain.ErrStoreUnavailable)
		},
	}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, apperrors.TypeUnavailable, resp.Type)
	assert.Equal(t, "Error: Redis is not connected.", resp.Error)
}

func TestHandleCreate(t *testing.T) {
	var gotQuestion, gotURL string
	svc := &mockSurveyService{
		createSurveyFn: func(_ context.Context, question string) (*domain.Survey, error) {
			gotQuestion = question
			return &domain.Survey{ID: 7, Question: question}, nil
		},
	}
	enc := &mockEncoder{encodeFn: func(content string) (string, error) {
		gotURL = content
		return "QUJD", nil
	}}
	srv := newTestServer(t, svc, withEncoder(enc))

	rec := doRequest(srv, http.MethodPost, "/create", url.Values{"question": {"Pizza tonight?"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pizza tonight?", gotQuestion)
	assert.Equal(t, "http://example.com/vote/7", gotURL)
	body := rec.Body.String()
	assert.Contains(t, body, "http://example.com/vote/7")
	assert.Contains(t, body, "http://example.com/results/7")
	assert.Contains(t, body, `src="data:image/png;base64,QUJD"`)
}

func TestHandleCreate_ForwardedProto(t *testing.T) {
	svc := &mockSurveyService{
		createSurveyFn: func(_ context.Context, q string) (*domain.Survey, error) {
			return &domain.Survey{ID: 1, Question: q}, nil
		},
	}
	srv := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/create", strings.NewReader("question=Q%3F"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Host = "surveys.example.org"
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://surveys.example.org/vote/1")
}

func TestHandleCreate_EmptyQuestion(t *testing.T) {
	called := false
	svc := &mockSurveyService{
		createSurveyFn: func(context.Context, string) (*domain.Survey, error) {
			called = true
			return nil, nil
		},
	}
	srv := newTestServer(t, svc)

	for _, form := range []url.Values{{"question": {""}}, {"question": {"   "}}, {}} {
		rec := doRequest(srv, http.MethodPost, "/create", form)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apperrors.TypeValidation, decodeError(t, rec).Type)
	}
	assert.False(t, called)
}

func TestHandleCreate_EncoderFailure(t *testing.T) {
	svc := &mockSurveyService{
		createSurveyFn: func(_ context.Context, q string) (*domain.Survey, error) {
			return &domain.Survey{ID: 1, Question: q}, nil
		},
	}
	enc := &mockEncoder{encodeFn: func(string) (string, error) { return "", errors.New("boom") }}
	srv := newTestServer(t, svc, withEncoder(enc))

	rec := doRequest(srv, http.MethodPost, "/create", url.Values{"question": {"Q?"}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperrors.TypeInternal, decodeError(t, rec).Type)
}

func TestHandleVotePage(t *testing.T) {
	svc := &mockSurveyService{
		getQuestionFn: func(_ context.Context, id int64) (string, error) {
			if id == 3 {
				return "Tacos?", nil
			}
			return "", domain.ErrSurveyNotFound
		},
	}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodGet, "/vote/3", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Vote 3 Tacos?", rec.Body.String())

	rec = doRequest(srv, http.MethodGet, "/vote/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Survey not found.", decodeError(t, rec).Error)
}

func TestSurveyID_Invalid(t *testing.T) {
	srv := newTestServer(t, &mockSurveyService{})

	for _, target := range []string{"/vote/abc", "/vote/0", "/vote/-1", "/results/1.5", "/results/x"} {
		t.Run(target, func(t *testing.T) {
			rec := doRequest(srv, http.MethodGet, target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apperrors.TypeValidation, decodeError(t, rec).Type)
		})
	}
}

func TestHandleVote_Redirects(t *testing.T) {
	var gotID int64
	var gotChoice string
	svc := &mockSurveyService{
		submitVoteFn: func(_ context.Context, id int64, raw string) (bool, error) {
			gotID, gotChoice = id, raw
			return raw == "Yes", nil
		},
	}
	srv := newTestServer(t, svc)

	for _, choice := range []string{"Yes", "maybe"} {
		rec := doRequest(srv, http.MethodPost, "/vote/4", url.Values{"vote": {choice}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/results/4", rec.Header().Get("Location"))
		assert.Equal(t, int64(4), gotID)
		assert.Equal(t, choice, gotChoice)
	}
}

func TestHandleVote_MissingField(t *testing.T) {
	called := false
	svc := &mockSurveyService{
		submitVoteFn: func(context.Context, int64, string) (bool, error) {
			called = true
			return true, nil
		},
	}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodPost, "/vote/1", url.Values{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

func TestHandleResults(t *testing.T) {
	svc := &mockSurveyService{
		getResultsFn: func(_ context.Context, id int64) (*domain.Results, error) {
			return domain.NewResults(&domain.Survey{ID: id, Question: "Pizza tonight?", Tally: domain.Tally{Yes: 3, No: 1}}), nil
		},
	}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodGet, "/results/1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Results Pizza tonight? yes=3 no=1 total=4 75/25", rec.Body.String())
}

func TestHandleResults_MissingQuestion(t *testing.T) {
	svc := &mockSurveyService{
		getResultsFn: func(_ context.Context, id int64) (*domain.Results, error) {
			return domain.NewResults(&domain.Survey{ID: id}), nil
		},
	}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodGet, "/results/1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Results N/A yes=0 no=0 total=0 0/0", rec.Body.String())
}

func TestHandleResults_NotFound(t *testing.T) {
	srv := newTestServer(t, &mockSurveyService{})

	rec := doRequest(srv, http.MethodGet, "/results/999", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleClearHistory(t *testing.T) {
	cleared := false
	svc := &mockSurveyService{
		clearHistoryFn: func(context.Context) error {
			cleared = true
			return nil
		},
	}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodPost, "/clear-history", url.Values{})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.True(t, cleared)
}

func TestRequireStore_UnavailableShortCircuits(t *testing.T) {
	called := false
	svc := &mockSurveyService{
		listSurveysFn: func(context.Context) ([]domain.SurveySummary, error) {
			called = true
			return nil, nil
		},
		createSurveyFn: func(context.Context, string) (*domain.Survey, error) {
			called = true
			return nil, nil
		},
		clearHistoryFn: func(context.Context) error {
			called = true
			return nil
		},
	}
	srv := newTestServer(t, svc, withStore(&mockStore{available: false}))

	requests := []struct {
		method string
		target string
		form   url.Values
	}{
		{http.MethodGet, "/", nil},
		{http.MethodPost, "/create", url.Values{"question": {"Q?"}}},
		{http.MethodGet, "/vote/1", nil},
		{http.MethodPost, "/vote/1", url.Values{"vote": {"yes"}}},
		{http.MethodGet, "/results/1", nil},
		{http.MethodPost, "/clear-history", url.Values{}},
	}
	for _, r := range requests {
		t.Run(r.method+" "+r.target, func(t *testing.T) {
			rec := doRequest(srv, r.method, r.target, r.form)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, "Error: Redis is not connected.", decodeError(t, rec).Error)
		})
	}
	assert.False(t, called)

	rec := doRequest(srv, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCorrelationHeader(t *testing.T) {
	srv := newTestServer(t, &mockSurveyService{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(correlation.Header, "abc-123")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(correlation.Header))

	rec = doRequest(srv, http.MethodGet, "/", nil)
	assert.Len(t, rec.Header().Get(correlation.Header), 8)
}

func TestRateLimitOnPostRoutes(t *testing.T) {
	svc := &mockSurveyService{}
	srv := newTestServer(t, svc, withRateLimit(0.01, 1))

	rec := doRequest(srv, http.MethodPost, "/clear-history", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/clear-history", url.Values{})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Reads are not limited.
	rec = doRequest(srv, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, &mockSurveyService{})

	rec := doRequest(srv, http.MethodGet, "/does-not-exist", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.TypeNotFound, decodeError(t, rec).Type)
}
