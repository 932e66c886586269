package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Traffic: исходы конвейера submit
	SubmissionsTotal *prometheus.CounterVec

	// Latency: полный цикл решения шлюза (включая БД и рантайм)
	SubmitDuration *prometheus.HistogramVec

	// Решения людей по тикетам
	ResolutionsTotal *prometheus.CounterVec

	// Saturation: размер очереди ожидающих тикетов
	PendingTickets prometheus.Gauge

	// Тикеты, протухшие без решения
	ExpiredTotal prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		SubmissionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "hitl_submissions_total",
			Help: "Total number of task submissions by outcome.",
		}, []string{"outcome"}), // EXECUTED, AWAITING_APPROVAL, BUDGET_EXCEEDED, VALIDATION_ERROR

		SubmitDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hitl_submit_duration_seconds",
			Help:    "Histogram of submit pipeline latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),

		ResolutionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "hitl_resolutions_total",
			Help: "Total number of human ticket resolutions by final status.",
		}, []string{"status"}), // APPROVED, REJECTED

		PendingTickets: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "hitl_pending_tickets",
			Help: "Current number of tickets awaiting a human decision.",
		}),

		ExpiredTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hitl_expired_tickets_total",
			Help: "Total number of tickets expired by the sweep.",
		}),
	}
}
