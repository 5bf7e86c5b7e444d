// Package metrics exposes Prometheus counters for cycle activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ladderbot_cycles_total",
		Help: "Completed trade cycles by terminal status.",
	}, []string{"status"})

	LegsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ladderbot_legs_total",
		Help: "Orders placed and settled across all cycles.",
	})

	StakedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ladderbot_staked_total",
		Help: "Sum of stakes placed across all cycles.",
	})

	NetResultTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ladderbot_net_result_positive_total",
		Help: "Sum of positive realized results.",
	})
)

// Serve exposes /metrics on addr. It blocks, so run it in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
