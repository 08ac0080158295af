package httpserver

import (
	"cmp"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/surveyqr/internal/domain"
	apperrors "github.com/pscheid92/surveyqr/internal/platform/errors"
)

// Shown when a stored survey has lost its question text.
const missingQuestion = "N/A"

func (s *Server) handleHome(c echo.Context) error {
	surveys, err := s.app.ListSurveys(c.Request().Context())
	if err != nil {
		return toAppError(err, "failed to list surveys")
	}

	h := c.Response().Header()
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")

	return s.renderTemplate(c, "home.html", map[string]any{
		"Surveys": surveys,
	})
}

func (s *Server) handleCreate(c echo.Context) error {
	ctx := c.Request().Context()

	question := c.FormValue("question")
	if strings.TrimSpace(question) == "" {
		return apperrors.ValidationError("question is required")
	}

	survey, err := s.app.CreateSurvey(ctx, question)
	if err != nil {
		return toAppError(err, "failed to create survey")
	}

	baseURL := s.getBaseURL(c)
	voteURL := fmt.Sprintf("%s/vote/%d", baseURL, survey.ID)
	resultsURL := fmt.Sprintf("%s/results/%d", baseURL, survey.ID)

	qr, err := s.qr.EncodeBase64(voteURL)
	if err != nil {
		return apperrors.InternalError("failed to generate QR code", err).WithField("survey_id", survey.ID)
	}

	return s.renderTemplate(c, "created.html", map[string]any{
		"SurveyID":   survey.ID,
		"Question":   survey.Question,
		"VoteURL":    voteURL,
		"ResultsURL": resultsURL,
		// Trusted: base64 alphabet only, produced by the encoder.
		"QRCode": template.URL("data:image/png;base64," + qr),
	})
}

func (s *Server) handleVotePage(c echo.Context) error {
	id, err := parseSurveyID(c)
	if err != nil {
		return err
	}

	question, err := s.app.GetQuestion(c.Request().Context(), id)
	if err != nil {
		return toAppError(err, "failed to load survey").WithField("survey_id", id)
	}

	return s.renderTemplate(c, "vote.html", map[string]any{
		"SurveyID": id,
		"Question": question,
	})
}

func (s *Server) handleVote(c echo.Context) error {
	id, err := parseSurveyID(c)
	if err != nil {
		return err
	}

	form, err := c.FormParams()
	if err != nil {
		return apperrors.ValidationError("invalid form body")
	}
	if _, ok := form["vote"]; !ok {
		return apperrors.ValidationError("vote is required").WithField("survey_id", id)
	}

	if _, err := s.app.SubmitVote(c.Request().Context(), id, form.Get("vote")); err != nil {
		return toAppError(err, "failed to record vote").WithField("survey_id", id)
	}

	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/results/%d", id))
}

func (s *Server) handleResults(c echo.Context) error {
	id, err := parseSurveyID(c)
	if err != nil {
		return err
	}

	results, err := s.app.GetResults(c.Request().Context(), id)
	if err != nil {
		return toAppError(err, "failed to load results").WithField("survey_id", id)
	}

	return s.renderTemplate(c, "results.html", map[string]any{
		"SurveyID":   results.SurveyID,
		"Question":   cmp.Or(results.Question, missingQuestion),
		"YesVotes":   results.Yes,
		"NoVotes":    results.No,
		"TotalVotes": results.Total,
		"YesPercent": results.YesPercent,
		"NoPercent":  results.NoPercent,
	})
}

func (s *Server) handleClearHistory(c echo.Context) error {
	if err := s.app.ClearHistory(c.Request().Context()); err != nil {
		return toAppError(err, "failed to clear history")
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// parseSurveyID reads the :survey_id path parameter as a positive integer.
func parseSurveyID(c echo.Context) (int64, error) {
	raw := c.Param("survey_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.ValidationError(domain.ErrInvalidSurveyID.Error()).WithField("survey_id", raw)
	}
	return id, nil
}

// toAppError maps domain errors onto HTTP error types. Anything unexpected
// becomes an internal error carrying message.
func toAppError(err error, message string) *apperrors.Error {
	switch {
	case errors.Is(err, domain.ErrSurveyNotFound):
		return apperrors.NotFoundError("Survey not found.")
	case errors.Is(err, domain.ErrInvalidQuestion):
		return apperrors.ValidationError(domain.ErrInvalidQuestion.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		return apperrors.UnavailableError(storeUnavailableMessage, err)
	default:
		return apperrors.InternalError(message, err)
	}
}
