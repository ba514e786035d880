package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ChartOutcomeUploaded = "uploaded"
	ChartOutcomeSkipped  = "skipped"
	ChartOutcomeFailed   = "failed"
)

var (
	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analystbot_questions_total",
			Help: "Total number of questions received, by chat entry point.",
		},
		[]string{"source"},
	)
	answersFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analystbot_answers_failed_total",
			Help: "Total number of questions whose answer pipeline returned an error.",
		},
	)
	analystRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analystbot_analyst_requests_total",
			Help: "Total number of analyst service requests by HTTP status (0 for transport errors).",
		},
		[]string{"status"},
	)
	analystLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analystbot_analyst_latency_ms",
			Help:    "Analyst service round trip latency in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 20000, 40000},
		},
	)
	warehouseQueryLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analystbot_warehouse_query_latency_ms",
			Help:    "Warehouse statement execution latency in milliseconds.",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
	)
	warehouseQueryFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analystbot_warehouse_query_failures_total",
			Help: "Total number of failed warehouse statements.",
		},
	)
	chartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analystbot_charts_total",
			Help: "Chart render attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		answersFailedTotal,
		analystRequestsTotal,
		analystLatencyMs,
		warehouseQueryLatencyMs,
		warehouseQueryFailuresTotal,
		chartsTotal,
	)
}

func IncrementQuestions(source string) {
	questionsTotal.WithLabelValues(source).Inc()
}

func IncrementAnswersFailed() {
	answersFailedTotal.Inc()
}

func ObserveAnalystRequest(status int, elapsed time.Duration) {
	analystRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	analystLatencyMs.Observe(float64(elapsed.Milliseconds()))
}

func ObserveWarehouseQuery(elapsed time.Duration, err error) {
	warehouseQueryLatencyMs.Observe(float64(elapsed.Milliseconds()))
	if err != nil {
		warehouseQueryFailuresTotal.Inc()
	}
}

func IncrementChart(outcome string) {
	chartsTotal.WithLabelValues(outcome).Inc()
}
