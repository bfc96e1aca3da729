package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
	OutcomeEmpty   = "empty"
)

var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelforge_generations_total",
			Help: "Total number of generation requests sent to the AI provider",
		},
		[]string{"provider", "outcome"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelforge_generation_duration_seconds",
			Help:    "Duration of AI generation calls in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		},
		[]string{"provider"},
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelforge_extractions_total",
			Help: "Total number of article URL extractions",
		},
		[]string{"outcome"},
	)

	ParseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelforge_parse_total",
			Help: "Generated packs by the parse stage that produced them",
		},
		[]string{"stage"},
	)

	LeadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelforge_leads_total",
			Help: "Total number of lead capture attempts",
		},
		[]string{"outcome"},
	)
)
