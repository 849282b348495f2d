package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestForBusResolvesLabels(t *testing.T) {
	full := DroppedTotal.WithLabelValues("metrics-drop", ReasonFull)
	deadBus := DroppedTotal.WithLabelValues("metrics-drop", ReasonDeadBus)
	fullBefore, deadBefore := testutil.ToFloat64(full), testutil.ToFloat64(deadBus)

	c := ForBus("metrics-drop")
	c.DroppedFull.Inc()
	c.DroppedFull.Inc()
	c.DroppedDeadBus.Inc()

	require.Equal(t, fullBefore+2, testutil.ToFloat64(full))
	require.Equal(t, deadBefore+1, testutil.ToFloat64(deadBus))
}

func TestForBusEmptyNameBecomesUnknown(t *testing.T) {
	before := testutil.ToFloat64(PublishedTotal.WithLabelValues("unknown"))
	ForBus("").Published.Inc()
	require.Equal(t, before+1, testutil.ToFloat64(PublishedTotal.WithLabelValues("unknown")))
}

func TestAddGCRemovedIgnoresNonPositive(t *testing.T) {
	c := ForBus("metrics-gc")
	before := testutil.ToFloat64(c.GCRemoved)

	c.AddGCRemoved(0)
	c.AddGCRemoved(-1)
	require.Equal(t, before, testutil.ToFloat64(c.GCRemoved))

	c.AddGCRemoved(3)
	require.Equal(t, before+3, testutil.ToFloat64(c.GCRemoved))
}

func TestSubscribersGaugeSharedAcrossForBus(t *testing.T) {
	a, b := ForBus("metrics-gauge"), ForBus("metrics-gauge")
	before := testutil.ToFloat64(Subscribers.WithLabelValues("metrics-gauge"))

	a.Subscribers.Add(3)
	b.Subscribers.Inc()
	require.Equal(t, before+4, testutil.ToFloat64(Subscribers.WithLabelValues("metrics-gauge")))

	a.Subscribers.Sub(3)
	b.Subscribers.Dec()
	require.Equal(t, before, testutil.ToFloat64(Subscribers.WithLabelValues("metrics-gauge")))
}
