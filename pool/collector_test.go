package pool

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gauge(t *testing.T, c prometheus.Collector, name string) float64 {
	t.Helper()
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		require.Len(t, mf.GetMetric(), 1)
		m := mf.GetMetric()[0]
		if m.GetCounter() != nil {
			return m.GetCounter().GetValue()
		}
		return m.GetGauge().GetValue()
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func TestCollector_NotAppointed(t *testing.T) {
	h := newHarness(t)
	c := NewCollector(h.engine)

	assert.Equal(t, 7, testutil.CollectAndCount(c))
	assert.Zero(t, gauge(t, NewCollector(h.engine), "poolescrow_pools"))
	assert.Zero(t, gauge(t, NewCollector(h.engine), "poolescrow_deposited_lamports_total"))
}

func TestCollector(t *testing.T) {
	h := newHarness(t)
	h.appoint()
	h.createPool()
	h.createPool()
	h.fillPool(0)

	expected := `
# HELP poolescrow_pools Pools created.
# TYPE poolescrow_pools gauge
poolescrow_pools 2
# HELP poolescrow_pools_by_status Pools by lifecycle status.
# TYPE poolescrow_pools_by_status gauge
poolescrow_pools_by_status{status="completed"} 0
poolescrow_pools_by_status{status="in_progress"} 1
poolescrow_pools_by_status{status="open"} 1
`
	require.NoError(t, testutil.CollectAndCompare(NewCollector(h.engine), strings.NewReader(expected),
		"poolescrow_pools", "poolescrow_pools_by_status"))

	assert.Equal(t, float64(4*testDeposit), gauge(t, NewCollector(h.engine), "poolescrow_locked_lamports"))
	assert.Equal(t, float64(4*testDeposit), gauge(t, NewCollector(h.engine), "poolescrow_deposited_lamports_total"))
	assert.Zero(t, gauge(t, NewCollector(h.engine), "poolescrow_claimed_lamports_total"))
}

func TestCollector_Claims(t *testing.T) {
	h := newHarness(t)
	h.appoint()
	h.createPool()
	players := h.fillPool(0)

	_, err := h.engine.Settle(h.ctx, h.authority, 0, players)
	require.NoError(t, err)
	first, err := h.engine.Claim(h.ctx, players[0], 0)
	require.NoError(t, err)
	second, err := h.engine.Claim(h.ctx, players[1], 0)
	require.NoError(t, err)

	paid := first.PrizeAmount + second.PrizeAmount
	assert.Equal(t, float64(paid), gauge(t, NewCollector(h.engine), "poolescrow_claimed_lamports_total"))
	assert.Equal(t, float64(4*testDeposit), gauge(t, NewCollector(h.engine), "poolescrow_deposited_lamports_total"))
	assert.Equal(t, float64(4*testDeposit-paid), gauge(t, NewCollector(h.engine), "poolescrow_locked_lamports"))

	expected := `
# HELP poolescrow_pools_by_status Pools by lifecycle status.
# TYPE poolescrow_pools_by_status gauge
poolescrow_pools_by_status{status="completed"} 1
poolescrow_pools_by_status{status="in_progress"} 0
poolescrow_pools_by_status{status="open"} 0
`
	require.NoError(t, testutil.CollectAndCompare(NewCollector(h.engine), strings.NewReader(expected),
		"poolescrow_pools_by_status"))
}
