package redis

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/pscheid92/surveyqr/internal/domain"
)

// Key layout shared with every deployment of the service; do not change.
const (
	counterKey      = "next_survey_id"
	surveyKeyPrefix = "survey:"

	fieldQuestion = "question"
	fieldYes      = "yes"
	fieldNo       = "no"
)

// keyValueStore is the subset of Store the repository needs.
type keyValueStore interface {
	IncrementAndWrite(ctx context.Context, counter, keyPrefix string, fields map[string]any) (int64, error)
	IncrementFieldIfExists(ctx context.Context, key, field string) (bool, error)
	ReadField(ctx context.Context, key, field string) (string, bool, error)
	ReadFieldOfKeys(ctx context.Context, field string, keys []string) (map[string]string, error)
	ReadAllFields(ctx context.Context, key string) (map[string]string, error)
	EnumerateKeys(ctx context.Context, prefix string) ([]string, error)
	DeleteKeys(ctx context.Context, keys ...string) error
	ResetCounter(ctx context.Context, name string) error
}

// SurveyRepo implements domain.SurveyRepository on top of a Store.
type SurveyRepo struct {
	store keyValueStore
}

var _ domain.SurveyRepository = (*SurveyRepo)(nil)

func NewSurveyRepo(store keyValueStore) *SurveyRepo {
	return &SurveyRepo{store: store}
}

func surveyKey(id int64) string {
	return surveyKeyPrefix + strconv.FormatInt(id, 10)
}

// parseSurveyKey extracts the id from "survey:{id}". ok is false for
// anything that is not a positive integer id.
func parseSurveyKey(key string) (int64, bool) {
	raw, found := strings.CutPrefix(key, surveyKeyPrefix)
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func (r *SurveyRepo) Create(ctx context.Context, question string) (*domain.Survey, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrInvalidQuestion
	}

	id, err := r.store.IncrementAndWrite(ctx, counterKey, surveyKeyPrefix, map[string]any{
		fieldQuestion: question,
		fieldYes:      0,
		fieldNo:       0,
	})
	if err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}

	return &domain.Survey{ID: id, Question: question}, nil
}

func (r *SurveyRepo) GetQuestion(ctx context.Context, id int64) (string, error) {
	question, ok, err := r.store.ReadField(ctx, surveyKey(id), fieldQuestion)
	if err != nil {
		return "", fmt.Errorf("get question: %w", err)
	}
	if !ok || question == "" {
		return "", domain.ErrSurveyNotFound
	}
	return question, nil
}

func (r *SurveyRepo) Get(ctx context.Context, id int64) (*domain.Survey, error) {
	key := surveyKey(id)
	fields, err := r.store.ReadAllFields(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrSurveyNotFound
	}

	return &domain.Survey{
		ID:       id,
		Question: fields[fieldQuestion],
		Tally: domain.Tally{
			Yes: parseCounter(key, fieldYes, fields[fieldYes]),
			No:  parseCounter(key, fieldNo, fields[fieldNo]),
		},
	}, nil
}

// parseCounter reads a stored counter, treating a missing or corrupt value as 0.
func parseCounter(key, field, raw string) int64 {
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		slog.Warn("Ignoring malformed vote counter", "key", key, "field", field, "value", raw)
		return 0
	}
	return n
}

// RecordVote adds one vote and reports whether it was counted.
// Invalid choices and unknown surveys are no-ops.
func (r *SurveyRepo) RecordVote(ctx context.Context, id int64, choice domain.Choice) (bool, error) {
	if !choice.Valid() {
		return false, nil
	}
	field := fieldNo
	if choice == domain.ChoiceYes {
		field = fieldYes
	}

	existed, err := r.store.IncrementFieldIfExists(ctx, surveyKey(id), field)
	if err != nil {
		return false, fmt.Errorf("record vote: %w", err)
	}
	if !existed {
		slog.DebugContext(ctx, "Vote for unknown survey ignored", "survey_id", id)
	}
	return existed, nil
}

func (r *SurveyRepo) ListAll(ctx context.Context) ([]domain.SurveySummary, error) {
	keys, err := r.store.EnumerateKeys(ctx, surveyKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}

	ids := make(map[string]int64, len(keys))
	valid := make([]string, 0, len(keys))
	for _, key := range keys {
		id, ok := parseSurveyKey(key)
		if !ok {
			slog.WarnContext(ctx, "Skipping malformed survey key", "key", key)
			continue
		}
		ids[key] = id
		valid = append(valid, key)
	}

	questions, err := r.store.ReadFieldOfKeys(ctx, fieldQuestion, valid)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}

	summaries := make([]domain.SurveySummary, 0, len(valid))
	for _, key := range valid {
		question := questions[key]
		if question == "" {
			continue
		}
		summaries = append(summaries, domain.SurveySummary{ID: ids[key], Question: question})
	}

	slices.SortFunc(summaries, func(a, b domain.SurveySummary) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return summaries, nil
}

// ClearAll deletes every survey and resets the id counter.
func (r *SurveyRepo) ClearAll(ctx context.Context) error {
	keys, err := r.store.EnumerateKeys(ctx, surveyKeyPrefix)
	if err != nil {
		return fmt.Errorf("clear surveys: %w", err)
	}
	if err := r.store.DeleteKeys(ctx, keys...); err != nil {
		return fmt.Errorf("clear surveys: %w", err)
	}
	if err := r.store.ResetCounter(ctx, counterKey); err != nil {
		return fmt.Errorf("clear surveys: %w", err)
	}
	return nil
}
