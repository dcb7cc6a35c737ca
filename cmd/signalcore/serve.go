package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tradeforge/signalcore/internal/application/pipeline"
	"github.com/tradeforge/signalcore/internal/config"
	sigdomain "github.com/tradeforge/signalcore/internal/domain/signal"
	"github.com/tradeforge/signalcore/internal/httpapi"
	"github.com/tradeforge/signalcore/internal/marketdata"
	"github.com/tradeforge/signalcore/internal/metrics"
)

func newServeCmd() *cobra.Command {
	var (
		addr          string
		evalSchedule  string
		sweepSchedule string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine as a service with HTTP API and scheduled evaluation",
		Long:  "Evaluates the universe on a schedule, sweeps expired signals, and serves the\nactive signal set, health and metrics over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}

			reg := sigdomain.NewRegistry()
			promReg := prometheus.NewRegistry()
			met := metrics.New(promReg, func() int { return reg.LiveCount(time.Now()) })
			p, err := pipeline.New(marketdata.NewCSVSource(flagDataDir), cfg, reg, met, log.Logger, pipeline.Options{})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			scheduler := cron.New()
			if _, err := scheduler.AddFunc(evalSchedule, func() {
				if _, err := p.EvaluateUniverse(ctx); err != nil {
					log.Error().Err(err).Msg("scheduled evaluation aborted")
				}
			}); err != nil {
				return err
			}
			if _, err := scheduler.AddFunc(sweepSchedule, func() {
				if removed := reg.Sweep(time.Now()); removed > 0 {
					log.Info().Int("removed", removed).Msg("swept expired signals")
				}
			}); err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()

			srv := httpapi.NewServer(addr, reg, promReg, log.Logger)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&evalSchedule, "eval-schedule", "@every 15m", "cron schedule for universe evaluation")
	cmd.Flags().StringVar(&sweepSchedule, "sweep-schedule", "@every 1m", "cron schedule for expired signal sweep")
	return cmd
}
