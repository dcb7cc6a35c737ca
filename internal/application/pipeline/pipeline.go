// Package pipeline orchestrates one evaluation cycle: candles in,
// indicators, criterion battery, score gate, risk envelope, admission,
// signal out. Rejections are ordinary outcomes with a reason code;
// errors are infrastructure or configuration failures and are never
// folded into a rejection.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeforge/signalcore/internal/config"
	"github.com/tradeforge/signalcore/internal/domain/admission"
	"github.com/tradeforge/signalcore/internal/domain/candles"
	"github.com/tradeforge/signalcore/internal/domain/criteria"
	"github.com/tradeforge/signalcore/internal/domain/indicators"
	"github.com/tradeforge/signalcore/internal/domain/risk"
	"github.com/tradeforge/signalcore/internal/domain/scoring"
	"github.com/tradeforge/signalcore/internal/domain/sessions"
	"github.com/tradeforge/signalcore/internal/domain/signal"
	"github.com/tradeforge/signalcore/internal/domain/trade"
	"github.com/tradeforge/signalcore/internal/marketdata"
	"github.com/tradeforge/signalcore/internal/metrics"
)

// Reason codes a candidate can be rejected with.
type Reason string

const (
	ReasonNotElite    Reason = "NOT_ELITE"
	ReasonRewardRisk  Reason = "REJECTED_RISK_REWARD"
	ReasonSession     Reason = "REJECTED_SESSION"
	ReasonCorrelation Reason = "REJECTED_CORRELATION"
)

// Rejection is a negative verdict with its evidence. ScoreCard is set
// when the battery ran before the rejection fired.
type Rejection struct {
	Reason    Reason             `json:"reason"`
	Stage     string             `json:"stage"`
	Detail    string             `json:"detail"`
	ScoreCard *scoring.ScoreCard `json:"scorecard,omitempty"`
}

// Outcome is the result of evaluating one (instrument, direction)
// candidate: exactly one of Signal or Rejection is set.
type Outcome struct {
	Instrument string          `json:"instrument"`
	Direction  trade.Direction `json:"direction"`
	Signal     *signal.Signal  `json:"signal,omitempty"`
	Rejection  *Rejection      `json:"rejection,omitempty"`
}

// Options tune the evaluation shape. Zero values take the defaults.
type Options struct {
	// Timeframes ordered shortest to longest.
	Timeframes []candles.Timeframe
	// BasisIndex selects the entry timeframe within Timeframes.
	BasisIndex int
	// HistoryBars is the per-timeframe fetch depth.
	HistoryBars int
	Clock       func() time.Time
}

func (o *Options) applyDefaults() {
	if len(o.Timeframes) == 0 {
		o.Timeframes = []candles.Timeframe{candles.TF15m, candles.TF1h, candles.TF4h, candles.TF1d}
		o.BasisIndex = 1
	}
	if o.HistoryBars == 0 {
		o.HistoryBars = 200
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// Pipeline wires the stages around injected collaborators. It holds no
// mutable state of its own; the registry is the only shared state and is
// owned elsewhere.
type Pipeline struct {
	source  marketdata.Source
	cfg     *config.Config
	filter  *admission.Filter
	builder *signal.Builder
	opts    Options
	log     zerolog.Logger
	met     *metrics.Metrics
}

func New(source marketdata.Source, cfg *config.Config, registry *signal.Registry, met *metrics.Metrics, log zerolog.Logger, opts Options) (*Pipeline, error) {
	opts.applyDefaults()
	if opts.BasisIndex < 0 || opts.BasisIndex >= len(opts.Timeframes) {
		return nil, fmt.Errorf("pipeline: basis index %d out of range for %d timeframes", opts.BasisIndex, len(opts.Timeframes))
	}
	return &Pipeline{
		source:  source,
		cfg:     cfg,
		filter:  admission.NewFilter(cfg.Correlation),
		builder: signal.NewBuilder(registry, opts.Clock),
		opts:    opts,
		log:     log.With().Str("component", "pipeline").Logger(),
		met:     met,
	}, nil
}

// Evaluate runs one candidate through all stages. The error return is for
// data, indicator and configuration failures only; market verdicts come
// back as Outcome.Rejection.
func (p *Pipeline) Evaluate(ctx context.Context, instrument string, dir trade.Direction) (Outcome, error) {
	out := Outcome{Instrument: instrument, Direction: dir}
	now := p.opts.Clock()
	log := p.log.With().Str("instrument", instrument).Str("direction", string(dir)).Logger()

	resolved, err := p.cfg.Resolve(instrument)
	if err != nil {
		p.countError()
		return out, err
	}

	frames, err := p.loadFrames(ctx, instrument)
	if err != nil {
		p.countError()
		return out, err
	}

	card, err := p.score(frames, resolved, instrument, dir, now)
	if err != nil {
		p.countError()
		return out, err
	}
	if !card.Passing(resolved.MinScore) {
		log.Debug().Int("score", card.Score).Strs("failed", card.FailedCriteria()).Msg("below score floor")
		return p.reject(out, Rejection{
			Reason:    ReasonNotElite,
			Stage:     "scoring",
			Detail:    fmt.Sprintf("score %d below minimum %d", card.Score, resolved.MinScore),
			ScoreCard: &card,
		}), nil
	}

	env, err := p.envelope(frames, resolved, dir)
	if err != nil {
		p.countError()
		return out, err
	}
	if ok, detail := env.Admissible(resolved.Risk.MinRewardRisk); !ok {
		return p.reject(out, Rejection{Reason: ReasonRewardRisk, Stage: "risk", Detail: detail, ScoreCard: &card}), nil
	}

	window, open, err := p.filter.SessionOpen(resolved.Sessions, now)
	if err != nil {
		p.countError()
		return out, err
	}
	if !open {
		// Off session: a hard-gated class rejects, everyone else already
		// paid the session_fit criterion point.
		if resolved.SessionHardGate {
			return p.reject(out, Rejection{
				Reason:    ReasonSession,
				Stage:     "admission",
				Detail:    fmt.Sprintf("no preferred session open at %s", now.UTC().Format(time.RFC3339)),
				ScoreCard: &card,
			}), nil
		}
		window = sessions.Window{Name: "off_session"}
	}

	built, err := p.admit(signal.Candidate{
		Instrument:     instrument,
		Direction:      dir,
		TimeframeBasis: p.opts.Timeframes[p.opts.BasisIndex],
		ScoreCard:      card,
		Envelope:       env,
		SessionTag:     window.Name,
		Validity:       resolved.Validity,
	})
	if err != nil {
		var conflict *admission.ConflictError
		if errors.As(err, &conflict) {
			return p.reject(out, Rejection{Reason: ReasonCorrelation, Stage: "admission", Detail: conflict.Error(), ScoreCard: &card}), nil
		}
		p.countError()
		return out, err
	}

	log.Info().
		Str("signal_id", built.ID).
		Int("score", card.Score).
		Str("grade", string(card.Grade)).
		Str("session", window.Name).
		Msg("signal admitted")
	if p.met != nil {
		p.met.Evaluations.WithLabelValues("signal").Inc()
	}
	out.Signal = built
	return out, nil
}

// EvaluateUniverse runs both directions over every configured instrument.
func (p *Pipeline) EvaluateUniverse(ctx context.Context) ([]Outcome, error) {
	var outcomes []Outcome
	for _, symbol := range p.cfg.Symbols() {
		for _, dir := range []trade.Direction{trade.Long, trade.Short} {
			if err := ctx.Err(); err != nil {
				return outcomes, err
			}
			out, err := p.Evaluate(ctx, symbol, dir)
			if err != nil {
				p.log.Error().Err(err).Str("instrument", symbol).Str("direction", string(dir)).Msg("evaluation failed")
				continue
			}
			outcomes = append(outcomes, out)
		}
	}
	return outcomes, nil
}

func (p *Pipeline) loadFrames(ctx context.Context, instrument string) ([]criteria.Frame, error) {
	defer p.observe("load", time.Now())

	frames := make([]criteria.Frame, 0, len(p.opts.Timeframes))
	for _, tf := range p.opts.Timeframes {
		series, err := p.source.Candles(ctx, instrument, tf, p.opts.HistoryBars)
		if err != nil {
			return nil, fmt.Errorf("pipeline: load %s %s: %w", instrument, tf, err)
		}
		ind, err := indicators.Compute(series, indicators.StandardBattery())
		if err != nil {
			return nil, err
		}
		frames = append(frames, criteria.Frame{Series: series, Ind: ind})
	}
	return frames, nil
}

func (p *Pipeline) score(frames []criteria.Frame, resolved config.Resolved, instrument string, dir trade.Direction, now time.Time) (scoring.ScoreCard, error) {
	defer p.observe("score", time.Now())

	results, err := criteria.Evaluate(criteria.Inputs{
		Instrument: instrument,
		Direction:  dir,
		Frames:     frames,
		BasisIndex: p.opts.BasisIndex,
		Now:        now,
		Sessions:   resolved.Sessions,
		Config:     resolved.Criteria,
	})
	if err != nil {
		return scoring.ScoreCard{}, err
	}
	return scoring.Build(results)
}

func (p *Pipeline) envelope(frames []criteria.Frame, resolved config.Resolved, dir trade.Direction) (risk.Envelope, error) {
	defer p.observe("risk", time.Now())

	basis := frames[p.opts.BasisIndex]
	if basis.Series.Len() == 0 {
		return risk.Envelope{}, fmt.Errorf("pipeline: empty basis series for %s", resolved.Instrument)
	}
	entry := basis.Series.Last().Close
	atr, ok := basis.Ind.Last(indicators.NameATR14)
	if !ok {
		return risk.Envelope{}, fmt.Errorf("pipeline: ATR undefined on basis frame for %s", resolved.Instrument)
	}
	return risk.Compute(dir, entry, atr, resolved.Risk)
}

func (p *Pipeline) admit(c signal.Candidate) (*signal.Signal, error) {
	defer p.observe("admission", time.Now())
	return p.builder.Build(c, p.filter.CorrelationVeto(c.Instrument, c.Direction))
}

func (p *Pipeline) reject(out Outcome, rej Rejection) Outcome {
	if p.met != nil {
		p.met.Evaluations.WithLabelValues("rejected").Inc()
		p.met.Rejections.WithLabelValues(string(rej.Reason)).Inc()
	}
	p.log.Info().
		Str("instrument", out.Instrument).
		Str("direction", string(out.Direction)).
		Str("reason", string(rej.Reason)).
		Str("stage", rej.Stage).
		Msg("candidate rejected")
	out.Rejection = &rej
	return out
}

func (p *Pipeline) observe(stage string, start time.Time) {
	if p.met != nil {
		p.met.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

func (p *Pipeline) countError() {
	if p.met != nil {
		p.met.Evaluations.WithLabelValues("error").Inc()
	}
}
