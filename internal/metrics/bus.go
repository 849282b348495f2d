// Package metrics — prometheus-коллекторы шины событий.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Причины потери события.
const (
	ReasonFull    = "full"
	ReasonDeadBus = "dead_bus"
)

var (
	PublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ebus_published_total",
		Help: "Total number of events accepted for fan-out",
	}, []string{"bus"})

	DeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ebus_delivered_total",
		Help: "Total number of events placed into subscriber mailboxes",
	}, []string{"bus"})

	DroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ebus_dropped_total",
		Help: "Total number of events dropped by bus and reason",
	}, []string{"bus", "reason"})

	GCRemovedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ebus_gc_removed_total",
		Help: "Total number of dead subscriber entries removed by garbage collection",
	}, []string{"bus"})

	Subscribers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ebus_subscribers",
		Help: "Number of subscriber entries currently on the roster",
	}, []string{"bus"})
)

func busLabel(bus string) string {
	if bus == "" {
		return "unknown"
	}
	return bus
}

// BusCollectors — коллекторы одной шины, разрешённые по меткам один раз при
// создании шины.
type BusCollectors struct {
	Published      prometheus.Counter
	Delivered      prometheus.Counter
	DroppedFull    prometheus.Counter
	DroppedDeadBus prometheus.Counter
	GCRemoved      prometheus.Counter
	Subscribers    prometheus.Gauge
}

// ForBus возвращает коллекторы с меткой bus. Шины с одинаковым именем делят
// коллекторы: Subscribers меняется только через Inc/Sub, без Set.
func ForBus(bus string) *BusCollectors {
	b := busLabel(bus)
	return &BusCollectors{
		Published:      PublishedTotal.WithLabelValues(b),
		Delivered:      DeliveredTotal.WithLabelValues(b),
		DroppedFull:    DroppedTotal.WithLabelValues(b, ReasonFull),
		DroppedDeadBus: DroppedTotal.WithLabelValues(b, ReasonDeadBus),
		GCRemoved:      GCRemovedTotal.WithLabelValues(b),
		Subscribers:    Subscribers.WithLabelValues(b),
	}
}

// AddGCRemoved учитывает записи ростера, удалённые одной сборкой.
func (c *BusCollectors) AddGCRemoved(n int) {
	if n <= 0 {
		return
	}
	c.GCRemoved.Add(float64(n))
}
