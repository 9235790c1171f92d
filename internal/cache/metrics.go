package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// cacheLookups counts preference cache lookups by result
// ("hit", "miss", "corrupt", "error").
var cacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "closet_preference_cache_lookups_total",
		Help: "Preference cache lookups by result.",
	},
	[]string{"result"},
)
