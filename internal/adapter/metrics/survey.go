package metrics

import "github.com/prometheus/client_golang/prometheus"

// SurveyMetrics counts survey lifecycle events.
type SurveyMetrics struct {
	SurveysCreated prometheus.Counter
	VotesRecorded  *prometheus.CounterVec
	VotesIgnored   prometheus.Counter
	HistoryClears  prometheus.Counter
}

// NewSurveyMetrics creates and registers survey metrics on the given registry.
func NewSurveyMetrics(reg prometheus.Registerer) *SurveyMetrics {
	m := &SurveyMetrics{
		SurveysCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "surveys_created_total",
			Help:      "Total number of surveys created.",
		}),
		VotesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_recorded_total",
			Help:      "Total number of accepted votes, by choice.",
		}, []string{"choice"}),
		VotesIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_ignored_total",
			Help:      "Total number of vote submissions with an unrecognized choice.",
		}),
		HistoryClears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_clears_total",
			Help:      "Total number of clear-history requests.",
		}),
	}

	reg.MustRegister(m.SurveysCreated, m.VotesRecorded, m.VotesIgnored, m.HistoryClears)
	return m
}
