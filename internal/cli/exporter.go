package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bitfsorg/poolescrow-go/pool"
)

const shutdownTimeout = 5 * time.Second

func newExporterCommand(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "exporter",
		Short: "Serve Prometheus metrics for pools and vaults",
		Long: `Serve /metrics and /healthz. The ledger is opened per scrape, so other
poolctl commands can write to a file-locked backend between scrapes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.cfg.MetricsAddr
			}
			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return err
			}
			return a.serveMetrics(cmd.Context(), ln)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default metrics_addr from config)")
	return cmd
}

// serveMetrics serves the metrics handler on ln until ctx is done.
func (a *app) serveMetrics(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.metricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.logger.Info("exporter listening", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func (a *app) metricsHandler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	gatherers := prometheus.Gatherers{reg, prometheus.GathererFunc(a.ledgerGatherer())}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// ledgerGatherer opens the ledger for the duration of one scrape and collects
// the pool gauges from it. Scrapes are serialised so a file lock is never
// contended from inside the exporter.
func (a *app) ledgerGatherer() func() ([]*dto.MetricFamily, error) {
	var mu sync.Mutex
	return func() ([]*dto.MetricFamily, error) {
		mu.Lock()
		defer mu.Unlock()

		var families []*dto.MetricFamily
		err := a.withEngine(func(e *pool.Engine) error {
			reg := prometheus.NewRegistry()
			if err := reg.Register(pool.NewCollector(e)); err != nil {
				return err
			}
			var err error
			families, err = reg.Gather()
			return err
		})
		if err != nil {
			a.logger.Warn("scrape ledger", "err", err)
		}
		return families, err
	}
}
