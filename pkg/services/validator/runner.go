package validator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/services/crossdomain"
	"github.com/signal-works/pulse/pkg/services/evaluate"
	"github.com/signal-works/pulse/pkg/services/reality"
	"github.com/signal-works/pulse/pkg/services/rules"
	"github.com/signal-works/pulse/pkg/services/scoring"
)

// DatasetProvider supplies the named tables for one domain. Implementations
// sit at the ingestion boundary (CSV trees, JSON payloads, databases); the
// runner itself never touches raw files.
type DatasetProvider interface {
	Datasets(ctx context.Context, d domain.Domain) (map[string]domain.Dataset, error)
}

// Config wires the runner to its rule pack, curated signals and tunables.
type Config struct {
	RulesRoot   string
	SignalsRoot string
	Weights     map[domain.Domain]float64
	Thresholds  crossdomain.Thresholds
	Concurrency int
}

// RunRequest narrows a run to a subset of domains; empty means all of them.
// Weights override the configured domain weights for this run only. The skip
// flags drop the cross-domain bank or the curated signals; the report keeps
// its full shape either way.
type RunRequest struct {
	Domains     []domain.Domain
	Weights     map[domain.Domain]float64
	SkipCross   bool
	SkipReality bool
}

// Runner orchestrates one validation run: per-domain evaluation fans out on
// a bounded group, then the cross-domain bank, indexes and overlay run over
// the joined results.
type Runner struct {
	cfg   Config
	eval  *evaluate.Engine
	cross *crossdomain.Engine
}

const topRiskCount = 5

func NewRunner(cfg Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = len(domain.Domains())
	}
	if cfg.Thresholds == (crossdomain.Thresholds{}) {
		cfg.Thresholds = crossdomain.DefaultThresholds()
	}
	return &Runner{
		cfg:   cfg,
		eval:  evaluate.NewEngine(),
		cross: crossdomain.NewEngine(cfg.Thresholds),
	}
}

// Run always returns a complete report. Failures degrade locally: a domain
// whose datasets cannot be loaded or whose evaluation panics lands at score
// zero with Err set, missing rule or signal roots just mean empty packs, and
// sibling domains are never affected.
func (r *Runner) Run(ctx context.Context, provider DatasetProvider, req RunRequest) domain.ValidationReport {
	started := time.Now()
	runID := uuid.NewString()
	log := zerolog.Ctx(ctx).With().Str("run_id", runID).Logger()
	ctx = log.WithContext(ctx)

	targets := req.Domains
	if len(targets) == 0 {
		targets = domain.Domains()
	}

	packs, err := rules.LoadAll(ctx, r.cfg.RulesRoot)
	if err != nil {
		log.Warn().Err(err).
			Str("root", r.cfg.RulesRoot).
			Msg("rules root unreadable, evaluating with empty packs")
		packs = map[domain.Domain][]rules.Rule{}
	}

	reports := make([]domain.DomainReport, len(targets))
	payloads := make([]map[string]domain.Dataset, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, d := range targets {
		g.Go(func() error {
			reports[i], payloads[i] = r.evaluateDomain(gctx, provider, d, packs[d])
			return nil
		})
	}
	_ = g.Wait()

	crossIn := crossdomain.Inputs{}
	scores := make(map[domain.Domain]float64, len(targets))
	var anyBlocked, anyWarn bool
	for i, rep := range reports {
		scores[rep.Domain] = rep.Score
		if len(payloads[i]) > 0 {
			crossIn[rep.Domain] = evaluate.PayloadTable(payloads[i], "")
		}
		switch rep.Label {
		case scoring.LabelBlocked:
			anyBlocked = true
		case scoring.LabelNeedsAttention:
			anyWarn = true
		}
		// A domain that could not be evaluated cannot be vouched for.
		if rep.Err != "" {
			anyBlocked = true
		}
	}

	var findings []domain.CrossFinding
	if !req.SkipCross {
		findings = r.cross.Evaluate(ctx, crossIn)
	}

	var overlay domain.RealityOverlay
	if req.SkipReality {
		overlay = reality.BuildOverlay(reports, nil)
		overlay.Note = "reality overlay skipped by request"
	} else {
		signals, sigErr := reality.LoadSignals(ctx, r.cfg.SignalsRoot)
		overlay = reality.BuildOverlay(reports, signals)
		if sigErr != nil {
			log.Warn().Err(sigErr).
				Str("root", r.cfg.SignalsRoot).
				Msg("signal loading failed, overlay built from findings only")
			overlay.Note = fmt.Sprintf("signal loading failed: %v", sigErr)
		}
	}

	weights := r.cfg.Weights
	if len(req.Weights) > 0 {
		weights = req.Weights
	}

	report := domain.ValidationReport{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Label:      scoring.OutcomeLabel(anyBlocked, anyWarn),
		Domains:    reports,
		Cross:      findings,
		Index:      scoring.Combine(scores, weights),
		Triage:     scoring.Triage(scores),
		Reality:    overlay,
		TopRisks:   scoring.TopRisks(reports, topRiskCount),
	}

	log.Info().
		Float64("index", report.Index.Score).
		Str("label", report.Label).
		Int("domains", len(reports)).
		Dur("took", report.FinishedAt.Sub(started)).
		Msg("validation run complete")
	return report
}

func (r *Runner) evaluateDomain(
	ctx context.Context,
	provider DatasetProvider,
	d domain.Domain,
	pack []rules.Rule,
) (rep domain.DomainReport, payload map[string]domain.Dataset) {
	defer func() {
		if rec := recover(); rec != nil {
			zerolog.Ctx(ctx).Error().
				Str("domain", string(d)).
				Interface("panic", rec).
				Msg("domain evaluation panicked")
			rep = degraded(d, fmt.Sprintf("panic: %v", rec))
			payload = nil
		}
	}()

	payload, err := provider.Datasets(ctx, d)
	if err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("domain", string(d)).
			Msg("dataset provider failed")
		return degraded(d, err.Error()), nil
	}
	return r.eval.EvaluateTables(ctx, d, payload, pack), payload
}

func degraded(d domain.Domain, msg string) domain.DomainReport {
	return domain.DomainReport{Domain: d, Err: msg}
}
