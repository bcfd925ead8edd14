// Package pipeline orchestrates a full matching run: sample, score, tier,
// escalate, persist.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/firmable/unify/internal/judge"
	"github.com/firmable/unify/internal/match"
	"github.com/firmable/unify/internal/model"
	"github.com/firmable/unify/internal/resolve"
	"github.com/firmable/unify/internal/source"
)

// RecordSource supplies the sampled matching inputs.
type RecordSource interface {
	RegistrySample(ctx context.Context, policy source.SamplingPolicy) ([]model.RegistryRecord, error)
	CrawlSample(ctx context.Context, policy source.SamplingPolicy) ([]model.CrawlRecord, error)
}

// Reviewer escalates ambiguous candidates for semantic review.
type Reviewer interface {
	Review(ctx context.Context, pending []match.ScoredCandidate) ([]judge.Approval, judge.Stats)
}

// ResolutionWriter persists accepted pairs.
type ResolutionWriter interface {
	Upsert(ctx context.Context, dec match.Decision, crawl model.CrawlRecord, reg model.RegistryRecord) (int64, error)
}

// Summary reports what one run did. A run that returns a nil error always
// carries a complete Summary, even when individual pairs failed.
type Summary struct {
	RunID string

	RegistrySampled int
	CrawlSampled    int

	AcceptedFuzzy int
	AcceptedJudge int
	Ambiguous     int // sent to review (or left pending when review is disabled)
	Rejected      int
	Unmatched     int // crawl records with no scorable candidate

	JudgeReviewed   int
	JudgeDeclined   int
	JudgeFailures   int
	JudgeOverBudget int
	JudgeCostUSD    float64

	Written        int
	WriteErrors    int
	WriteConflicts int
}

// Runner wires one matching run together. A nil reviewer disables semantic
// escalation; ambiguous pairs then stay unresolved for the run.
type Runner struct {
	src            RecordSource
	writer         ResolutionWriter
	reviewer       Reviewer
	thresholds     match.Thresholds
	registryPolicy source.SamplingPolicy
	crawlPolicy    source.SamplingPolicy
	runID          string
}

// New creates a Runner.
func New(
	src RecordSource,
	writer ResolutionWriter,
	reviewer Reviewer,
	thresholds match.Thresholds,
	registryPolicy source.SamplingPolicy,
	crawlPolicy source.SamplingPolicy,
	runID string,
) *Runner {
	return &Runner{
		src:            src,
		writer:         writer,
		reviewer:       reviewer,
		thresholds:     thresholds,
		registryPolicy: registryPolicy,
		crawlPolicy:    crawlPolicy,
		runID:          runID,
	}
}

// Run executes the matching run. Sampling failures abort the run; scoring,
// review and write failures are per-pair and leave the rest of the run
// intact.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("run_id", r.runID))
	sum := &Summary{RunID: r.runID}

	registry, err := r.src.RegistrySample(ctx, r.registryPolicy)
	if err != nil {
		return sum, eris.Wrap(err, "pipeline: sample registry")
	}
	sum.RegistrySampled = len(registry)

	crawl, err := r.src.CrawlSample(ctx, r.crawlPolicy)
	if err != nil {
		return sum, eris.Wrap(err, "pipeline: sample crawl")
	}
	sum.CrawlSampled = len(crawl)

	log.Info("samples loaded",
		zap.Int("registry", sum.RegistrySampled),
		zap.Int("crawl", sum.CrawlSampled))

	// Ambiguous candidates accumulate in crawl order; the reviewer consumes
	// them in that same order under its own budget.
	var pending []match.ScoredCandidate

	for _, c := range crawl {
		if err := ctx.Err(); err != nil {
			return sum, eris.Wrap(err, "pipeline: run cancelled")
		}

		cand, ok := match.BestCandidate(registry, c)
		if !ok {
			sum.Unmatched++
			continue
		}

		dec := r.thresholds.Classify(cand.Score)
		switch dec.Kind {
		case match.Accepted:
			sum.AcceptedFuzzy++
			r.write(ctx, dec, cand, sum, log)
		case match.Ambiguous:
			sum.Ambiguous++
			pending = append(pending, cand)
		default:
			sum.Rejected++
		}
	}

	if r.reviewer != nil && len(pending) > 0 {
		approvals, stats := r.reviewer.Review(ctx, pending)
		sum.JudgeReviewed = stats.Reviewed
		sum.JudgeDeclined = stats.Declined
		sum.JudgeFailures = stats.Failures
		sum.JudgeOverBudget = stats.OverBudget
		sum.JudgeCostUSD = stats.TotalCostUSD

		for _, a := range approvals {
			sum.AcceptedJudge++
			r.write(ctx, a.Decision, a.Candidate, sum, log)
		}
	}

	log.Info("run complete",
		zap.Int("accepted_fuzzy", sum.AcceptedFuzzy),
		zap.Int("accepted_judge", sum.AcceptedJudge),
		zap.Int("ambiguous", sum.Ambiguous),
		zap.Int("rejected", sum.Rejected),
		zap.Int("unmatched", sum.Unmatched),
		zap.Int("written", sum.Written),
		zap.Int("write_errors", sum.WriteErrors))

	return sum, nil
}

// write persists one accepted pair, counting rather than propagating
// failures.
func (r *Runner) write(ctx context.Context, dec match.Decision, cand match.ScoredCandidate, sum *Summary, log *zap.Logger) {
	if _, err := r.writer.Upsert(ctx, dec, cand.Crawl, cand.Registry); err != nil {
		sum.WriteErrors++
		if resolve.IsConflict(err) {
			sum.WriteConflicts++
		}
		log.Warn("upsert failed, skipping pair",
			zap.Int64("commoncrawl_id", cand.Crawl.ID),
			zap.String("abn", cand.Registry.ABN),
			zap.Error(err))
		return
	}
	sum.Written++
}
