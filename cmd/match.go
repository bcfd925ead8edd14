package main

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/firmable/unify/internal/judge"
	"github.com/firmable/unify/internal/match"
	"github.com/firmable/unify/internal/pipeline"
	"github.com/firmable/unify/internal/resolve"
	"github.com/firmable/unify/internal/source"
	"github.com/firmable/unify/pkg/anthropic"
)

var (
	matchFullVolume     bool
	matchHighThreshold  int
	matchLowThreshold   int
	matchMaxReviews     int
	matchRegistryModulo int64
	matchCrawlModulo    int64
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run entity matching over the staged samples",
	Long:  "Scores sampled crawl companies against the staged registry, escalates ambiguous pairs to the semantic judge, and upserts accepted pairs into company_unified.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		runID := uuid.NewString()
		log := zap.L().With(zap.String("run_id", runID))

		// Flags take precedence over config file and environment.
		if cmd.Flags().Changed("high-threshold") {
			cfg.Match.HighThreshold = matchHighThreshold
		}
		if cmd.Flags().Changed("low-threshold") {
			cfg.Match.LowThreshold = matchLowThreshold
		}
		if cmd.Flags().Changed("max-reviews") {
			cfg.Judge.MaxReviews = matchMaxReviews
		}
		if cmd.Flags().Changed("registry-modulus") {
			cfg.Match.RegistryModulus = matchRegistryModulo
		}
		if cmd.Flags().Changed("crawl-modulus") {
			cfg.Match.CrawlModulus = matchCrawlModulo
		}

		var registryPolicy, crawlPolicy source.SamplingPolicy
		if matchFullVolume || cfg.Match.FullVolume {
			registryPolicy, crawlPolicy = source.FullVolumePolicy{}, source.FullVolumePolicy{}
		} else {
			registryPolicy = source.ModulusPolicy{Modulus: cfg.Match.RegistryModulus}
			crawlPolicy = source.ModulusPolicy{Modulus: cfg.Match.CrawlModulus}
		}

		var reviewer pipeline.Reviewer
		if cfg.Judge.Key != "" {
			audit, err := judge.OpenAuditLog(cfg.Judge.AuditLog)
			if err != nil {
				return eris.Wrap(err, "match: open judge audit log")
			}
			defer audit.Close()

			reviewer = judge.NewEscalator(anthropic.NewClient(cfg.Judge.Key), cfg.Judge, audit, runID)
		} else {
			log.Warn("no judge key configured, ambiguous pairs stay unresolved this run")
		}

		thresholds := match.Thresholds{High: cfg.Match.HighThreshold, Low: cfg.Match.LowThreshold}
		runner := pipeline.New(
			source.New(pool),
			resolve.NewWriter(pool),
			reviewer,
			thresholds,
			registryPolicy,
			crawlPolicy,
			runID,
		)

		sum, err := runner.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "match")
		}

		log.Info("match run complete",
			zap.Int("registry_sampled", sum.RegistrySampled),
			zap.Int("crawl_sampled", sum.CrawlSampled),
			zap.Int("accepted_fuzzy", sum.AcceptedFuzzy),
			zap.Int("accepted_judge", sum.AcceptedJudge),
			zap.Int("ambiguous", sum.Ambiguous),
			zap.Int("rejected", sum.Rejected),
			zap.Int("unmatched", sum.Unmatched),
			zap.Int("judge_reviewed", sum.JudgeReviewed),
			zap.Int("judge_over_budget", sum.JudgeOverBudget),
			zap.Int("judge_failures", sum.JudgeFailures),
			zap.Float64("judge_cost_usd", sum.JudgeCostUSD),
			zap.Int("written", sum.Written),
			zap.Int("write_errors", sum.WriteErrors),
			zap.Int("write_conflicts", sum.WriteConflicts),
		)
		return nil
	},
}

func init() {
	matchCmd.Flags().BoolVar(&matchFullVolume, "full-volume", false, "match the full staged tables instead of the configured sample")
	matchCmd.Flags().IntVar(&matchHighThreshold, "high-threshold", 0, "fuzzy score at or above which a pair is accepted outright")
	matchCmd.Flags().IntVar(&matchLowThreshold, "low-threshold", 0, "fuzzy score at or above which a pair is escalated to the judge")
	matchCmd.Flags().IntVar(&matchMaxReviews, "max-reviews", 0, "maximum judge calls per run")
	matchCmd.Flags().Int64Var(&matchRegistryModulo, "registry-modulus", 0, "sample one in N registry entities by ABN")
	matchCmd.Flags().Int64Var(&matchCrawlModulo, "crawl-modulus", 0, "sample one in N crawl companies by id")
	rootCmd.AddCommand(matchCmd)
}
