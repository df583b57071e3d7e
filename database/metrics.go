package database

import (
	"fmt"
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

var (
	metricsSet = metrics.NewSet()

	queryDuration = metricsSet.NewHistogram("objectbase_query_duration_seconds")
)

func init() {
	metricsSet.NewGauge("objectbase_connections_open", func() float64 {
		return float64(openConnections())
	})
}

func countOp(op string) {
	metricsSet.GetOrCreateCounter(fmt.Sprintf(`objectbase_ops_total{op=%q}`, op)).Inc()
}

func countError(kind ErrorKind) {
	metricsSet.GetOrCreateCounter(fmt.Sprintf(`objectbase_errors_total{kind=%q}`, kind)).Inc()
}

func observeQuery(start time.Time) {
	queryDuration.UpdateDuration(start)
}

// WriteMetrics writes all database metrics in Prometheus text format to w.
func WriteMetrics(w io.Writer) {
	metricsSet.WritePrometheus(w)
}
