package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/firmable/unify/internal/judge"
	"github.com/firmable/unify/internal/match"
	"github.com/firmable/unify/internal/model"
	"github.com/firmable/unify/internal/source"
)

// --- RecordSource Mock ---

type mockSource struct {
	mock.Mock
}

func (m *mockSource) RegistrySample(ctx context.Context, policy source.SamplingPolicy) ([]model.RegistryRecord, error) {
	args := m.Called(ctx, policy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RegistryRecord), args.Error(1)
}

func (m *mockSource) CrawlSample(ctx context.Context, policy source.SamplingPolicy) ([]model.CrawlRecord, error) {
	args := m.Called(ctx, policy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CrawlRecord), args.Error(1)
}

// --- Reviewer Mock ---

type mockReviewer struct {
	mock.Mock
}

func (m *mockReviewer) Review(ctx context.Context, pending []match.ScoredCandidate) ([]judge.Approval, judge.Stats) {
	args := m.Called(ctx, pending)
	var approvals []judge.Approval
	if args.Get(0) != nil {
		approvals = args.Get(0).([]judge.Approval)
	}
	return approvals, args.Get(1).(judge.Stats)
}

// --- ResolutionWriter Mock ---

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) Upsert(ctx context.Context, dec match.Decision, crawl model.CrawlRecord, reg model.RegistryRecord) (int64, error) {
	args := m.Called(ctx, dec, crawl, reg)
	return args.Get(0).(int64), args.Error(1)
}
