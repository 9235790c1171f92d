package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// outfitsGenerated counts generation attempts by outcome
	// ("outfit", "not_enough_garments", "error").
	outfitsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "closet_outfits_generated_total",
			Help: "Outfit generation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// outfitVetoes counts impossible outfits by the rule that vetoed them.
	outfitVetoes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "closet_outfit_vetoes_total",
			Help: "Outfits rejected by occasion/weather rules, by reason.",
		},
		[]string{"reason"},
	)

	outfitScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "closet_outfit_score",
			Help:    "Distribution of final outfit scores in [0,1].",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	outfitRatings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "closet_outfit_ratings_total",
			Help: "Outfit ratings by verdict.",
		},
		[]string{"verdict"},
	)

	// sideEffectFailures counts best-effort work that failed after a rating
	// was acknowledged ("learning", "rejection").
	sideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "closet_rating_side_effect_failures_total",
			Help: "Failed best-effort side effects of a rating.",
		},
		[]string{"effect"},
	)
)
