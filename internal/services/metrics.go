package services

import "github.com/prometheus/client_golang/prometheus"

var voteOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "votes_total",
		Help: "Votes accepted by the backend, by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(voteOutcomes)
}
