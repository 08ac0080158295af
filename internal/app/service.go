package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/surveyqr/internal/adapter/metrics"
	"github.com/pscheid92/surveyqr/internal/domain"
)

// Pinger reports whether the backing store is reachable right now.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Service is the application layer. It orchestrates all survey use cases.
type Service struct {
	surveys   domain.SurveyRepository
	store     Pinger
	publisher domain.EventPublisher
	metrics   *metrics.SurveyMetrics
	clock     clockwork.Clock
}

// NewService creates the application layer service.
// publisher and m may be nil.
func NewService(surveys domain.SurveyRepository, store Pinger, publisher domain.EventPublisher, m *metrics.SurveyMetrics, clock clockwork.Clock) *Service {
	return &Service{
		surveys:   surveys,
		store:     store,
		publisher: publisher,
		metrics:   m,
		clock:     clock,
	}
}

// ListSurveys returns every stored survey ordered by id.
func (s *Service) ListSurveys(ctx context.Context) ([]domain.SurveySummary, error) {
	return s.surveys.ListAll(ctx)
}

// CreateSurvey stores a new survey. The question is stored as submitted and
// must not be blank.
func (s *Service) CreateSurvey(ctx context.Context, question string) (*domain.Survey, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrInvalidQuestion
	}

	survey, err := s.surveys.Create(ctx, question)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Survey created", "survey_id", survey.ID)
	if s.metrics != nil {
		s.metrics.SurveysCreated.Inc()
	}
	s.publish(ctx, domain.Event{
		Type:     domain.EventSurveyCreated,
		SurveyID: survey.ID,
		Question: survey.Question,
	})
	return survey, nil
}

// GetQuestion returns the question text of a survey.
func (s *Service) GetQuestion(ctx context.Context, id int64) (string, error) {
	return s.surveys.GetQuestion(ctx, id)
}

// SubmitVote records a vote. rawChoice is matched case-insensitively against
// yes and no; anything else is ignored and reported as not recognized.
// A vote for an unknown survey is recognized but counts nothing.
func (s *Service) SubmitVote(ctx context.Context, id int64, rawChoice string) (bool, error) {
	choice, err := domain.ParseChoice(rawChoice)
	if err != nil {
		slog.InfoContext(ctx, "Ignoring unrecognized vote", "survey_id", id, "choice", rawChoice)
		if s.metrics != nil {
			s.metrics.VotesIgnored.Inc()
		}
		return false, nil
	}

	recorded, err := s.surveys.RecordVote(ctx, id, choice)
	if err != nil {
		return false, err
	}
	if !recorded {
		return true, nil
	}

	if s.metrics != nil {
		s.metrics.VotesRecorded.WithLabelValues(string(choice)).Inc()
	}
	s.publish(ctx, domain.Event{
		Type:     domain.EventVoteRecorded,
		SurveyID: id,
		Choice:   choice,
	})
	return true, nil
}

// GetResults returns the tally of a survey with percentages.
func (s *Service) GetResults(ctx context.Context, id int64) (*domain.Results, error) {
	survey, err := s.surveys.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.NewResults(survey), nil
}

// ClearHistory deletes every survey and restarts ids at 1.
func (s *Service) ClearHistory(ctx context.Context) error {
	if err := s.surveys.ClearAll(ctx); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Survey history cleared")
	if s.metrics != nil {
		s.metrics.HistoryClears.Inc()
	}
	s.publish(ctx, domain.Event{Type: domain.EventHistoryCleared})
	return nil
}

// Ready checks that the store answers right now.
func (s *Service) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

// publish stamps and sends an event. Failures are logged only; the state
// change they describe has already happened.
func (s *Service) publish(ctx context.Context, event domain.Event) {
	if s.publisher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.OccurredAt = s.clock.Now().UTC()

	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "Failed to publish event", "type", event.Type, "survey_id", event.SurveyID, "error", err)
	}
}
