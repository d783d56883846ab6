package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/go-sscp/go-sscp/client"
	"github.com/go-sscp/go-sscp/internal/config"
	"github.com/go-sscp/go-sscp/internal/metrics"
	"github.com/go-sscp/go-sscp/internal/mqtt"
	"github.com/go-sscp/go-sscp/internal/poller"
	"github.com/go-sscp/go-sscp/logger"
)

func newPollCmd(gf *globalFlags) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Poll the configured variables",
		Long: `Poll reads the variables of the configuration file on the poll interval.
Changed values are logged and, when enabled, published to MQTT.
Session metrics are served on /metrics when metrics.listen is set.`,
		Example: `  sscpctl poll -c sscpctl.yaml
  sscpctl poll -c sscpctl.yaml --once`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := gf.settings(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			return runPoll(ctx, cmd, cfg, once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "poll a single cycle and print the values")

	return cmd
}

func runPoll(ctx context.Context, cmd *cobra.Command, cfg *config.Config, once bool) error {
	if len(cfg.Variables) == 0 {
		return errors.New("no variables configured")
	}

	l := newLogger(cfg)

	items, err := pollItems(cfg)
	if err != nil {
		return err
	}

	c, err := newClient(cfg, l)
	if err != nil {
		return err
	}
	defer c.Close(context.Background())

	if once {
		p, err := poller.New(poller.Config{Interval: cfg.Poll.Interval, Items: items}, c, l)
		if err != nil {
			return err
		}

		return printSamples(cmd, p.PollOnce(ctx))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks := []poller.Sink{poller.NewLogSink(l)}
	if cfg.MQTT.Enabled {
		pub := mqtt.NewPublisher(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
			Retain:   cfg.MQTT.Retain,
		}, l)
		if err := pub.Connect(ctx); err != nil {
			return err
		}
		defer pub.Close()

		sinks = append(sinks, pub)
	}

	if cfg.Metrics.Listen != "" {
		shutdown, err := serveMetrics(cfg, c, l)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	p, err := poller.New(poller.Config{Interval: cfg.Poll.Interval, Items: items}, c, l, sinks...)
	if err != nil {
		return err
	}

	l.Info("polling started", "variables", len(items), "interval", cfg.Poll.Interval)
	p.Run(ctx)
	l.Info("polling stopped")

	return nil
}

func pollItems(cfg *config.Config) ([]poller.Item, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	items := make([]poller.Item, 0, len(cfg.Variables))
	for _, vc := range cfg.Variables {
		v, err := vc.Resolve(cat)
		if err != nil {
			return nil, err
		}
		items = append(items, poller.Item{Name: vc.Name, Variable: v})
	}

	return items, nil
}

func serveMetrics(cfg *config.Config, c *client.Client, l logger.Logger) (func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := metrics.Register(reg, c, prometheus.Labels{"controller": cfg.Controller.Host}); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))

	srv := &http.Server{
		Addr:              cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("metrics server failed", "listen", cfg.Metrics.Listen, "error", err)
		}
	}()

	l.Info("metrics server started", "listen", cfg.Metrics.Listen)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func printSamples(cmd *cobra.Command, samples []poller.Sample) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUID\tTYPE\tVALUE\tERROR")

	failed := 0
	for _, s := range samples {
		errText := ""
		if s.Err != nil {
			errText = s.Err.Error()
			failed++
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%v\t%s\n", s.Name, s.Variable.UID, s.Variable.Type, s.Value, errText)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d variables failed", failed, len(samples))
	}

	return nil
}
