package domain

import (
	"context"
	"strings"
)

// Survey is a yes/no question together with its vote tally.
type Survey struct {
	ID       int64
	Question string
	Tally
}

// SurveySummary is the history view of a survey.
type SurveySummary struct {
	ID       int64
	Question string
}

// Tally holds the vote counters of a survey. Both counters only ever grow.
type Tally struct {
	Yes int64
	No  int64
}

// Total returns the number of accepted votes.
func (t Tally) Total() int64 {
	return t.Yes + t.No
}

// Percentages returns the share of yes and no votes in the range [0, 100].
// Both are 0 when no votes have been cast.
func (t Tally) Percentages() (yesPercent, noPercent float64) {
	total := t.Total()
	if total == 0 {
		return 0, 0
	}
	yesPercent = float64(t.Yes) / float64(total) * 100
	noPercent = float64(t.No) / float64(total) * 100
	return yesPercent, noPercent
}

// Results is the shaped view of a survey for the results page.
type Results struct {
	SurveyID   int64
	Question   string
	Yes        int64
	No         int64
	Total      int64
	YesPercent float64
	NoPercent  float64
}

// NewResults shapes a survey into its results view.
func NewResults(s *Survey) *Results {
	yesPercent, noPercent := s.Percentages()
	return &Results{
		SurveyID:   s.ID,
		Question:   s.Question,
		Yes:        s.Yes,
		No:         s.No,
		Total:      s.Total(),
		YesPercent: yesPercent,
		NoPercent:  noPercent,
	}
}

// Choice is an accepted vote value.
type Choice string

const (
	ChoiceYes Choice = "yes"
	ChoiceNo  Choice = "no"
)

// ParseChoice maps a raw form value to a Choice, ignoring case.
// Returns ErrInvalidChoice for anything other than yes or no.
func ParseChoice(raw string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ChoiceYes):
		return ChoiceYes, nil
	case string(ChoiceNo):
		return ChoiceNo, nil
	default:
		return "", ErrInvalidChoice
	}
}

// Valid reports whether c is one of the accepted choices.
func (c Choice) Valid() bool {
	return c == ChoiceYes || c == ChoiceNo
}

// SurveyRepository abstracts survey persistence.
type SurveyRepository interface {
	Create(ctx context.Context, question string) (*Survey, error)
	GetQuestion(ctx context.Context, id int64) (string, error)
	Get(ctx context.Context, id int64) (*Survey, error)
	// RecordVote reports whether a counter changed. Unknown surveys and
	// invalid choices are no-ops that return false.
	RecordVote(ctx context.Context, id int64, choice Choice) (bool, error)
	ListAll(ctx context.Context) ([]SurveySummary, error)
	ClearAll(ctx context.Context) error
}
