// Package metrics provides Prometheus metrics for playcast transactions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stwalsh4118/playcast/internal/apperr"
)

// Labels stay low-cardinality: no user, device or playlist ids.
var (
	// TransactionsTotal counts atomic units by operation and outcome
	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playcast_tx_total",
		Help: "Total number of atomic units run, by operation and outcome (ok or error kind).",
	}, []string{"operation", "outcome"})

	// FanoutRowsTotal counts video rows written by fan-out and removed by fan-in
	FanoutRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playcast_fanout_rows_total",
		Help: "Total number of video rows created by fan-out or deleted by fan-in, by direction.",
	}, []string{"direction"})
)

// Fan directions
const (
	DirectionOut = "out"
	DirectionIn  = "in"
)

// Outcome returns the outcome label for err
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperr.KindOf(err).String()
}

// ObserveTx records one finished atomic unit
func ObserveTx(operation string, err error) {
	TransactionsTotal.WithLabelValues(operation, Outcome(err)).Inc()
}

// ObserveRows records n video rows moved in direction
func ObserveRows(direction string, n int) {
	if n <= 0 {
		return
	}
	FanoutRowsTotal.WithLabelValues(direction).Add(float64(n))
}
