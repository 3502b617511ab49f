package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SQLLatency is the duration of SQL queries.
	SQLLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dataaccess_sql_latency",
			Help: "Duration of SQL queries",
		},
		[]string{"dal", "query", "table"},
	)

	// SQLTotalRequests is the total number of SQL requests.
	SQLTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_sql_total_requests",
			Help: "Total number of SQL requests",
		},
		[]string{"dal", "query", "table"},
	)
)

// ObserveQuery counts a query and starts its latency timer. Call the returned function when the query completes.
func ObserveQuery(dal, query, table string) func() {
	SQLTotalRequests.WithLabelValues(dal, query, table).Inc()
	t := prometheus.NewTimer(SQLLatency.WithLabelValues(dal, query, table))
	return func() {
		t.ObserveDuration()
	}
}
