package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpilot_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskpilot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	IntentsClassifiedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpilot_chat_intents_total",
			Help: "Total chat messages classified, by intent.",
		},
		[]string{"intent"},
	)

	TaskMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpilot_task_mutations_total",
			Help: "Total task store mutations, by kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		IntentsClassifiedTotal,
		TaskMutationsTotal,
	)
}
