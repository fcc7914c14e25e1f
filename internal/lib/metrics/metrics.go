// Package metrics публикует метрики агента ваучеров в Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vouchers"

// Collector реализует voucher.Metrics.
type Collector struct {
	cycles         *prometheus.CounterVec
	sourceFailures *prometheus.CounterVec
	stored         prometheus.Gauge
	reveals        *prometheus.CounterVec
}

// New создает Collector и регистрирует метрики в reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_cycles_total",
			Help:      "Collection cycles by result.",
		}, []string{"result"}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Failed partner page fetches by source.",
		}, []string{"source"}),
		stored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored",
			Help:      "Vouchers currently held in the repository.",
		}),
		reveals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reveals_total",
			Help:      "Reveal attempts by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(c.cycles, c.sourceFailures, c.stored, c.reveals)
	return c
}

// CycleFinished учитывает завершённый цикл сбора.
func (c *Collector) CycleFinished(result string) {
	c.cycles.WithLabelValues(result).Inc()
}

// SourceFailed учитывает сбой загрузки страницы партнёра.
func (c *Collector) SourceFailed(source string) {
	c.sourceFailures.WithLabelValues(source).Inc()
}

// VouchersStored выставляет текущий размер хранилища.
func (c *Collector) VouchersStored(n int) {
	c.stored.Set(float64(n))
}

// Revealed учитывает попытку раскрытия кода.
func (c *Collector) Revealed(outcome string) {
	c.reveals.WithLabelValues(outcome).Inc()
}
