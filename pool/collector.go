package pool

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "poolescrow"
	collectTimeout   = 5 * time.Second
)

// Collector exports pool, vault and payout totals read from the ledger at
// scrape time. Every value is derived from committed records, so any process
// that can open the ledger reports the same numbers.
type Collector struct {
	engine *Engine

	pools     *prometheus.Desc
	byStatus  *prometheus.Desc
	locked    *prometheus.Desc
	deposited *prometheus.Desc
	claimed   *prometheus.Desc
}

// NewCollector returns a collector over engine's ledger.
func NewCollector(engine *Engine) *Collector {
	return &Collector{
		engine: engine,
		pools: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "pools"),
			"Pools created.", nil, nil),
		byStatus: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "pools_by_status"),
			"Pools by lifecycle status.", []string{"status"}, nil),
		locked: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "locked_lamports"),
			"Lamports held across all pool vaults.", nil, nil),
		deposited: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "deposited_lamports_total"),
			"Lamports deposited into pool vaults.", nil, nil),
		claimed: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "claimed_lamports_total"),
			"Lamports paid out of pool vaults to winners.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pools
	ch <- c.byStatus
	ch <- c.locked
	ch <- c.deposited
	ch <- c.claimed
}

// Collect implements prometheus.Collector. An unappointed ledger reports
// zeros.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	t, err := c.totals(ctx)
	if err != nil {
		c.engine.logger.Warn("collect pools", "err", err)
		ch <- prometheus.NewInvalidMetric(c.pools, err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.pools, prometheus.GaugeValue, float64(t.pools))
	for s := StatusOpen; s <= StatusCompleted; s++ {
		ch <- prometheus.MustNewConstMetric(c.byStatus, prometheus.GaugeValue, float64(t.byStatus[s]), s.String())
	}
	ch <- prometheus.MustNewConstMetric(c.locked, prometheus.GaugeValue, t.locked)
	ch <- prometheus.MustNewConstMetric(c.deposited, prometheus.CounterValue, t.deposited)
	ch <- prometheus.MustNewConstMetric(c.claimed, prometheus.CounterValue, t.claimed)
}

type ledgerTotals struct {
	pools     int
	byStatus  map[Status]int
	locked    float64
	deposited float64
	claimed   float64
}

func (c *Collector) totals(ctx context.Context) (ledgerTotals, error) {
	t := ledgerTotals{byStatus: make(map[Status]int, len(statusNames))}
	ok, err := c.engine.IsAppointed(ctx)
	if err != nil || !ok {
		return t, err
	}
	pools, err := c.engine.Pools(ctx)
	if err != nil {
		return t, err
	}

	t.pools = len(pools)
	for _, p := range pools {
		t.byStatus[p.Status]++
		t.deposited += float64(p.TotalAmount)

		bal, err := c.engine.VaultBalance(ctx, p.PoolID)
		if err != nil {
			return t, err
		}
		t.locked += float64(bal)

		// Only settled pools can have paid out.
		if p.Status != StatusCompleted {
			continue
		}
		parts, err := c.engine.Participants(ctx, p.PoolID)
		if err != nil {
			return t, err
		}
		for _, part := range parts {
			if part.HasClaimed {
				t.claimed += float64(part.PrizeAmount)
			}
		}
	}
	return t, nil
}
