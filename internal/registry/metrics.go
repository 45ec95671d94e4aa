package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opRegister = "register"
	opAcquire  = "acquire"
	opMarkUsed = "mark_used"
	opRemove   = "remove"

	resultOk       = "ok"
	resultReused   = "reused"
	resultMiss     = "miss"
	resultRejected = "rejected"
	resultError    = "error"
)

var (
	operationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phonereuse",
			Name:      "registry_operations_total",
			Help:      "Registry operations by outcome.",
		},
		[]string{"operation", "result"}, // acquire: reused or miss; a reuse is one rental not paid for
	)

	expiredCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "phonereuse",
			Name:      "registry_expired_total",
			Help:      "Phone numbers dropped after their reuse window elapsed.",
		},
	)

	numbersGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "phonereuse",
			Name:      "registry_numbers",
			Help:      "Phone numbers currently held by the registry.",
		},
	)
)

func observe(operation, result string) {
	operationsCounter.WithLabelValues(operation, result).Inc()
}
