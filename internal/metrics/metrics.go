// Package metrics регистрирует прометеевские метрики переходов состояния.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultNoop     = "noop"
)

var (
	// TransitionsTotal считает попытки переходов состояния по операциям
	// и исходам.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miner_transitions_total",
		Help: "State transitions attempted, by operation and result.",
	}, []string{"op", "result"})

	// PersistFailuresTotal считает неудачные записи состояния в хранилище.
	// Сбой записи не прерывает переход, поэтому отдельный счётчик — всё,
	// что о нём остаётся.
	PersistFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "miner_persist_failures_total",
		Help: "Best-effort state persistence failures.",
	})
)

// Observe отмечает исход одного перехода.
func Observe(op string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultRejected
	}
	TransitionsTotal.WithLabelValues(op, result).Inc()
}
