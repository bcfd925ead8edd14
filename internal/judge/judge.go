// Package judge escalates ambiguous match candidates to an external semantic
// judge (an LLM) under a strict per-run review budget, and records every
// interaction in an append-only audit log.
package judge

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/firmable/unify/internal/config"
	"github.com/firmable/unify/internal/match"
	"github.com/firmable/unify/internal/resilience"
	"github.com/firmable/unify/pkg/anthropic"
)

const systemPrompt = "You are an assistant that matches Australian companies " +
	"between website data and business registry records. Respond ONLY with JSON."

const promptTemplate = `You are matching Australian companies between a website (Common Crawl) and a business registry record.

Common Crawl company:
- Normalised name: %s
- URL: %s
- Domain: %s

Registry candidate:
- ABN: %s
- Entity name (normalised): %s
- Entity name (raw): %s
- Entity type: %s
- Status: %s
- Address: %s, %s, %s %s

Question:
Are these records referring to the same underlying company?

Respond **only** with a JSON object with the following shape:
{
  "is_match": true or false,
  "confidence": "low" | "medium" | "high",
  "reason": "short explanation here"
}`

// Approval is an ambiguous candidate the judge promoted to Accepted.
type Approval struct {
	Candidate match.ScoredCandidate
	Decision  match.Decision
	Verdict   Verdict
}

// Stats summarizes one review pass.
type Stats struct {
	Reviewed     int // judge invocations issued
	Approved     int
	Declined     int // reviewed, verdict did not approve
	Failures     int // call or parse failures (reviewed-but-not-approved)
	OverBudget   int // candidates beyond MaxReviews, left rejected this run
	TotalCostUSD float64
}

// Escalator reviews ambiguous candidates against the external judge. The
// review budget is an explicit value consumed per call, never a hidden
// process-wide counter. The call boundary goes through resilience.DoVal, so a
// retry policy is purely configuration.
type Escalator struct {
	client  anthropic.Client
	cfg     config.JudgeConfig
	audit   *AuditLog
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	runID   string
}

// NewEscalator creates an Escalator for one matching run.
func NewEscalator(client anthropic.Client, cfg config.JudgeConfig, audit *AuditLog, runID string) *Escalator {
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 2
	}
	return &Escalator{
		client:  client,
		cfg:     cfg,
		audit:   audit,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		retry: resilience.RetryConfig{
			MaxAttempts: cfg.MaxAttempts,
			OnRetry:     resilience.RetryLogger("anthropic", "judge_review"),
		},
		runID: runID,
	}
}

// Review processes pending candidates in production order, issuing at most
// cfg.MaxReviews judge calls. Candidates beyond the budget stay rejected for
// this run: cost control dominates recall. Call and parse failures are
// per-pair and non-fatal; the pair counts as reviewed-but-not-approved and
// the pass continues.
func (e *Escalator) Review(ctx context.Context, pending []match.ScoredCandidate) ([]Approval, Stats) {
	var stats Stats
	if len(pending) == 0 {
		return nil, stats
	}

	log := zap.L().With(zap.String("component", "judge"), zap.String("run_id", e.runID))

	budget := e.cfg.MaxReviews
	if budget > len(pending) {
		budget = len(pending)
	}
	stats.OverBudget = len(pending) - budget

	log.Info("starting judge review",
		zap.Int("pending", len(pending)),
		zap.Int("budget", budget),
		zap.String("model", e.cfg.Model),
	)

	var approved []Approval
	for i, cand := range pending[:budget] {
		// Waiting on the limiter is the pre-call gate; a cancelled run stops
		// here and the remaining pairs count as over budget, not reviewed.
		if err := e.limiter.Wait(ctx); err != nil {
			stats.OverBudget += budget - i
			break
		}

		verdict, ok := e.reviewOne(ctx, cand, &stats, log)
		stats.Reviewed++

		if !ok {
			stats.Failures++
			continue
		}
		if !verdict.Approves() {
			stats.Declined++
			continue
		}

		stats.Approved++
		approved = append(approved, Approval{
			Candidate: cand,
			Decision: match.Decision{
				Kind:       match.Accepted,
				Method:     match.MethodLLM,
				Confidence: e.confidenceScore(verdict.Confidence),
				Score:      cand.Score,
			},
			Verdict: verdict,
		})
	}

	log.Info("judge review complete",
		zap.Int("reviewed", stats.Reviewed),
		zap.Int("approved", stats.Approved),
		zap.Int("declined", stats.Declined),
		zap.Int("failures", stats.Failures),
		zap.Int("over_budget", stats.OverBudget),
	)

	return approved, stats
}

// reviewOne issues a single judge call and interprets the verdict. The bool
// return is false on call or parse failure. Token spend is added to stats for
// every call that returns, including ones whose response fails to parse.
func (e *Escalator) reviewOne(ctx context.Context, cand match.ScoredCandidate, stats *Stats, log *zap.Logger) (Verdict, bool) {
	prompt := buildPrompt(cand)

	temp := 0.1
	resp, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       e.cfg.Model,
			MaxTokens:   e.cfg.MaxTokens,
			System:      systemPrompt,
			Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
			Temperature: &temp,
		})
	})
	if err != nil {
		log.Warn("judge call failed",
			zap.Int64("crawl_id", cand.Crawl.ID),
			zap.String("abn", cand.Registry.ABN),
			zap.Error(err),
		)
		e.appendAudit(AuditEntry{
			CrawlID: cand.Crawl.ID,
			ABN:     cand.Registry.ABN,
			Request: prompt,
			Outcome: OutcomeCallFailure,
			Error:   err.Error(),
		}, log)
		return Verdict{}, false
	}

	stats.TotalCostUSD += resp.Usage.EstimateCost(e.cfg.Model)
	resp.Usage.LogCost(e.cfg.Model, "judge_review")
	raw := resp.Text()

	verdict, err := ParseVerdict(raw)
	if err != nil {
		log.Warn("judge response unparseable",
			zap.Int64("crawl_id", cand.Crawl.ID),
			zap.String("abn", cand.Registry.ABN),
			zap.String("raw_response", raw),
			zap.Error(err),
		)
		e.appendAudit(AuditEntry{
			CrawlID:     cand.Crawl.ID,
			ABN:         cand.Registry.ABN,
			Request:     prompt,
			RawResponse: raw,
			Outcome:     OutcomeParseFailure,
			Error:       err.Error(),
		}, log)
		return Verdict{}, false
	}

	outcome := OutcomeDeclined
	if verdict.Approves() {
		outcome = OutcomeApproved
	}
	e.appendAudit(AuditEntry{
		CrawlID:     cand.Crawl.ID,
		ABN:         cand.Registry.ABN,
		Request:     prompt,
		RawResponse: raw,
		Outcome:     outcome,
		Verdict:     &verdict,
	}, log)

	return verdict, true
}

// confidenceScore maps the judge's confidence enum to a numeric
// match_confidence using the configured scale.
func (e *Escalator) confidenceScore(confidence string) int {
	if s, ok := e.cfg.ConfidenceScores[confidence]; ok {
		return s
	}
	// Config omits the level: fall back to the built-in scale.
	switch confidence {
	case "high":
		return 95
	default:
		return 75
	}
}

func (e *Escalator) appendAudit(entry AuditEntry, log *zap.Logger) {
	if e.audit == nil {
		return
	}
	entry.RunID = e.runID
	if err := e.audit.Append(entry); err != nil {
		log.Error("audit log append failed", zap.Error(err))
	}
}

func buildPrompt(cand match.ScoredCandidate) string {
	cc := cand.Crawl
	reg := cand.Registry
	return fmt.Sprintf(promptTemplate,
		cc.NameNorm, cc.URL, cc.Domain,
		reg.ABN, reg.NameNorm, reg.NameRaw, reg.EntityType, reg.EntityStatus,
		reg.AddressFull, reg.Suburb, reg.State, reg.Postcode,
	)
}
