// Command ppplinkd runs one or more PPP links: it negotiates LCP,
// authenticates the peer (or itself) over PAP, brings up IPCP, and
// emits RADIUS-style accounting records for the resulting session.
package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dgoulet-net/ppplink/internal/accounting"
	"github.com/dgoulet-net/ppplink/internal/config"
	"github.com/dgoulet-net/ppplink/internal/metrics"
	"github.com/dgoulet-net/ppplink/internal/transport/pipe"
	"github.com/dgoulet-net/ppplink/internal/transport/pppoe"
	"github.com/dgoulet-net/ppplink/ppp"
)

var (
	configPath string
	ifName     string
	useLoop    bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ppplinkd",
		Short: "PPP link daemon",
		Long:  "ppplinkd negotiates LCP/PAP/IPCP over a PPPoE or loopback carrier and accounts the resulting session.",
		RunE:  runDaemon,
		// Silence cobra's built-in usage/error printing; we log our own.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to configuration file (YAML)")
	cmd.Flags().StringVar(&ifName, "iface", "", "Ethernet interface to run PPPoE over (omit for an in-process loopback link)")
	cmd.Flags().BoolVar(&useLoop, "loopback", false, "force the in-process loopback transport even when --iface is set")

	return cmd
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := newLogger(cfg.Log)
	log.Info().Str("metrics_addr", cfg.Metrics.Addr).Msg("ppplinkd starting")

	reg := prometheus.NewRegistry()
	mx := metrics.NewCollector(reg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	acctWorker := accounting.NewWorker(noopAccountingBackend{}, log, 0)
	defer acctWorker.Close()

	link, peerSide, err := buildLink(ctx, cfg, log, mx, acctWorker)
	if err != nil {
		return err
	}
	if peerSide != nil {
		// Loopback mode drives both ends of the link for demonstration
		// purposes; the peer side reuses the same accounting worker.
		go peerSide.Run()
	}

	go runMetricsServer(ctx, cfg.Metrics, reg, log)

	go link.Run()

	<-ctx.Done()
	log.Info().Msg("ppplinkd shutting down")
	return nil
}

func buildLink(ctx context.Context, cfg *config.Config, log zerolog.Logger, mx *metrics.Collector, sink accounting.Sink) (*ppp.Link, *ppp.Link, error) {
	linkCfg := ppp.Config{
		Link:       cfg.Link,
		Accounting: cfg.Accounting,
		Verify:     staticVerify(cfg.Link.AuthName, cfg.Link.AuthSecret),
	}

	if ifName != "" && !useLoop {
		t, err := pppoe.Dial(ctx, ifName, log)
		if err != nil {
			return nil, nil, err
		}
		return ppp.NewLink(t, linkCfg, sink, log, mx), nil, nil
	}

	a, b, err := pipe.NewPair()
	if err != nil {
		return nil, nil, err
	}
	l1 := ppp.NewLink(a, linkCfg, sink, log, mx)
	l2 := ppp.NewLink(b, linkCfg, sink, log, mx)
	return l1, l2, nil
}

// staticVerify authenticates against the single statically configured
// user/secret pair; a real deployment would back this with a RADIUS
// authentication round-trip or a local user database instead.
func staticVerify(user, secret string) func(peerID, password []byte) (bool, map[string]string) {
	return func(peerID, password []byte) (bool, map[string]string) {
		if user == "" {
			return true, nil
		}
		ok := string(peerID) == user && string(password) == secret
		return ok, nil
	}
}

type noopAccountingBackend struct{}

func (noopAccountingBackend) Send(accounting.Record) error { return nil }

func runMetricsServer(ctx context.Context, cfg config.MetricsConfig, reg *prometheus.Registry, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("metrics server exited")
	}
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	var out io.Writer = os.Stderr
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(out).Level(config.ParseLogLevel(cfg.Level)).With().Timestamp().Logger()
}
