package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tradeforge/signalcore/internal/application/pipeline"
	"github.com/tradeforge/signalcore/internal/config"
	"github.com/tradeforge/signalcore/internal/domain/signal"
	"github.com/tradeforge/signalcore/internal/domain/trade"
	"github.com/tradeforge/signalcore/internal/marketdata"
	"github.com/tradeforge/signalcore/internal/metrics"
)

func newEvaluateCmd() *cobra.Command {
	var (
		instrument string
		direction  string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run one offline evaluation cycle over CSV candle files",
		Long:  "Evaluates the configured universe (or a single instrument) against the criterion\nbattery and prints each outcome. Reads candles from --data-dir, writes nothing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}

			reg := signal.NewRegistry()
			met := metrics.New(prometheus.NewRegistry(), func() int { return reg.LiveCount(time.Now()) })
			p, err := pipeline.New(marketdata.NewCSVSource(flagDataDir), cfg, reg, met, log.Logger, pipeline.Options{})
			if err != nil {
				return err
			}

			outcomes, err := runEvaluation(cmd.Context(), p, instrument, direction)
			if err != nil {
				return err
			}
			return printOutcomes(outcomes, asJSON)
		},
	}

	cmd.Flags().StringVar(&instrument, "instrument", "", "evaluate a single instrument instead of the whole universe")
	cmd.Flags().StringVar(&direction, "direction", "", "with --instrument: long or short (default both)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print outcomes as JSON")
	return cmd
}

func runEvaluation(ctx context.Context, p *pipeline.Pipeline, instrument, direction string) ([]pipeline.Outcome, error) {
	if instrument == "" {
		return p.EvaluateUniverse(ctx)
	}

	directions := []trade.Direction{trade.Long, trade.Short}
	if direction != "" {
		dir, err := trade.ParseDirection(direction)
		if err != nil {
			return nil, err
		}
		directions = []trade.Direction{dir}
	}

	var outcomes []pipeline.Outcome
	for _, dir := range directions {
		out, err := p.Evaluate(ctx, instrument, dir)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func printOutcomes(outcomes []pipeline.Outcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	}

	for _, out := range outcomes {
		switch {
		case out.Signal != nil:
			fmt.Printf("%-10s %-5s SIGNAL  %s  score=%d entry=%s sl=%s rr=%s\n",
				out.Instrument, out.Direction, out.Signal.ScoreCard.Grade,
				out.Signal.ScoreCard.Score, out.Signal.Envelope.Entry,
				out.Signal.Envelope.StopLoss, out.Signal.Envelope.RewardRisk)
		case out.Rejection != nil:
			fmt.Printf("%-10s %-5s %-22s %s\n", out.Instrument, out.Direction, out.Rejection.Reason, out.Rejection.Detail)
		}
	}
	return nil
}
