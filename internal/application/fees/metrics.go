package fees

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resultados del contador de rollback.
const (
	RollbackResultDeleted = "deleted"
	RollbackResultBlocked = "blocked"
)

// Metrics métricas de generación masiva y rollback. Todos los métodos aceptan un receptor nil.
type Metrics struct {
	generated     prometheus.Counter
	genErrors     prometheus.Counter
	batchDuration prometheus.Histogram
	rollback      *prometheus.CounterVec
}

// NewMetrics registra las métricas en reg (prometheus.DefaultRegisterer si es nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cuotas_generated_total",
			Help: "Cuotas persistidas por la generación masiva.",
		}),
		genErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cuotas_generation_errors_total",
			Help: "Socios que fallaron durante la generación masiva.",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cuotas_batch_duration_seconds",
			Help:    "Duración de cada corrida de generación masiva.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		rollback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cuotas_rollback_total",
			Help: "Cuotas procesadas por rollback APLICAR, por resultado.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.generated, m.genErrors, m.batchDuration, m.rollback)
	return m
}

func (m *Metrics) feesGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.generated.Add(float64(n))
}

func (m *Metrics) generationFailed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.genErrors.Add(float64(n))
}

func (m *Metrics) observeBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(d.Seconds())
}

func (m *Metrics) rolledBack(deleted, blocked int) {
	if m == nil {
		return
	}
	if deleted > 0 {
		m.rollback.WithLabelValues(RollbackResultDeleted).Add(float64(deleted))
	}
	if blocked > 0 {
		m.rollback.WithLabelValues(RollbackResultBlocked).Add(float64(blocked))
	}
}
