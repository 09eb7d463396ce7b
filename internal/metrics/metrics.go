package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "omr", Name: "http_requests_total", Help: "Processed HTTP requests",
	}, []string{"method", "status"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "omr", Name: "handler_errors_total", Help: "Handler errors (5xx)",
	})
	Scans = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "omr", Name: "scans_total", Help: "Scoring attempts by outcome",
	}, []string{"outcome"})
	RecognizerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "omr", Name: "recognizer_duration_seconds", Help: "External recognizer latency",
		Buckets: []float64{.25, .5, 1, 2, 5, 10, 30, 60},
	}, []string{"backend"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "omr", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HandlerErrors, Scans, RecognizerDuration, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveRecognizer(backend string, d time.Duration) {
	RecognizerDuration.WithLabelValues(backend).Observe(d.Seconds())
}
