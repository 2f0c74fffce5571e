package businessflow

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var operationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "photo_moderation_operations_total",
		Help: "Total number of moderation operations by outcome",
	},
	[]string{"operation", "result"},
)

// observe counts one operation outcome. The result label is "success" or the lower-cased error code.
func observe(operation string, err error) {
	operationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	if be, ok := AsBusinessError(err); ok {
		return strings.ToLower(be.Code)
	}
	return "error"
}
