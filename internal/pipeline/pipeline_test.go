package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/firmable/unify/internal/judge"
	"github.com/firmable/unify/internal/match"
	"github.com/firmable/unify/internal/model"
	"github.com/firmable/unify/internal/source"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var testThresholds = match.Thresholds{High: 95, Low: 0}

func newTestRunner(src RecordSource, writer ResolutionWriter, reviewer Reviewer) *Runner {
	return New(src, writer, reviewer, testThresholds,
		source.FullVolumePolicy{}, source.FullVolumePolicy{}, "test-run")
}

func registryFixture() []model.RegistryRecord {
	return []model.RegistryRecord{
		{ABN: "51824753556", NameNorm: "ACME PTY LTD", NameRaw: "Acme Pty Ltd", EntityStatus: "ACT"},
		{ABN: "99999999999", NameNorm: "WIDGETS PTY LTD", NameRaw: "Widgets Pty Ltd", EntityStatus: "ACT"},
	}
}

func TestRunFuzzyAcceptWrites(t *testing.T) {
	src := &mockSource{}
	writer := &mockWriter{}

	crawl := []model.CrawlRecord{{ID: 1, Domain: "acme.com.au", NameNorm: "ACME PTY LTD"}}
	src.On("RegistrySample", mock.Anything, mock.Anything).Return(registryFixture(), nil)
	src.On("CrawlSample", mock.Anything, mock.Anything).Return(crawl, nil)
	writer.On("Upsert", mock.Anything, mock.Anything, crawl[0], registryFixture()[0]).
		Return(int64(7), nil).Once()

	sum, err := newTestRunner(src, writer, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.AcceptedFuzzy)
	assert.Equal(t, 1, sum.Written)
	assert.Equal(t, 0, sum.Ambiguous)
	writer.AssertExpectations(t)
}

func TestRunAmbiguousEscalatesInOrder(t *testing.T) {
	src := &mockSource{}
	writer := &mockWriter{}
	reviewer := &mockReviewer{}

	// Partial token overlap keeps both below the accept threshold.
	crawl := []model.CrawlRecord{
		{ID: 1, Domain: "acme.com.au", NameNorm: "ACME"},
		{ID: 2, Domain: "widgets.net.au", NameNorm: "WIDGETS"},
	}
	src.On("RegistrySample", mock.Anything, mock.Anything).Return(registryFixture(), nil)
	src.On("CrawlSample", mock.Anything, mock.Anything).Return(crawl, nil)

	reviewer.On("Review", mock.Anything, mock.MatchedBy(func(pending []match.ScoredCandidate) bool {
		// Crawl order must survive into the review queue.
		return len(pending) == 2 && pending[0].Crawl.ID == 1 && pending[1].Crawl.ID == 2
	})).Return([]judge.Approval{
		{
			Candidate: match.ScoredCandidate{Crawl: crawl[0], Registry: registryFixture()[0], Score: 33},
			Decision:  match.Decision{Kind: match.Accepted, Method: match.MethodLLM, Confidence: 75, Score: 33},
		},
	}, judge.Stats{Reviewed: 2, Approved: 1, Declined: 1})

	writer.On("Upsert", mock.Anything, mock.Anything, crawl[0], registryFixture()[0]).
		Return(int64(9), nil).Once()

	sum, err := newTestRunner(src, writer, reviewer).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Ambiguous)
	assert.Equal(t, 1, sum.AcceptedJudge)
	assert.Equal(t, 2, sum.JudgeReviewed)
	assert.Equal(t, 1, sum.JudgeDeclined)
	assert.Equal(t, 1, sum.Written)
	writer.AssertExpectations(t)
	reviewer.AssertExpectations(t)
}

func TestRunNilReviewerLeavesAmbiguousPending(t *testing.T) {
	src := &mockSource{}
	writer := &mockWriter{}

	crawl := []model.CrawlRecord{{ID: 1, Domain: "acme.com.au", NameNorm: "ACME"}}
	src.On("RegistrySample", mock.Anything, mock.Anything).Return(registryFixture(), nil)
	src.On("CrawlSample", mock.Anything, mock.Anything).Return(crawl, nil)

	sum, err := newTestRunner(src, writer, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Ambiguous)
	assert.Equal(t, 0, sum.Written)
	writer.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunSamplingErrorIsFatal(t *testing.T) {
	src := &mockSource{}
	writer := &mockWriter{}

	src.On("RegistrySample", mock.Anything, mock.Anything).
		Return(nil, eris.New("relation does not exist"))

	_, err := newTestRunner(src, writer, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample registry")
}

func TestRunWriteErrorsAreNonFatal(t *testing.T) {
	src := &mockSource{}
	writer := &mockWriter{}

	crawl := []model.CrawlRecord{
		{ID: 1, Domain: "acme.com.au", NameNorm: "ACME PTY LTD"},
		{ID: 2, Domain: "widgets.net.au", NameNorm: "WIDGETS PTY LTD"},
	}
	src.On("RegistrySample", mock.Anything, mock.Anything).Return(registryFixture(), nil)
	src.On("CrawlSample", mock.Anything, mock.Anything).Return(crawl, nil)

	writer.On("Upsert", mock.Anything, mock.Anything, crawl[0], registryFixture()[0]).
		Return(int64(0), eris.New("connection reset")).Once()
	writer.On("Upsert", mock.Anything, mock.Anything, crawl[1], registryFixture()[1]).
		Return(int64(8), nil).Once()

	sum, err := newTestRunner(src, writer, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.AcceptedFuzzy)
	assert.Equal(t, 1, sum.WriteErrors)
	assert.Equal(t, 1, sum.Written)
	writer.AssertExpectations(t)
}

func TestRunEmptyRegistryCountsUnmatched(t *testing.T) {
	src := &mockSource{}
	writer := &mockWriter{}

	crawl := []model.CrawlRecord{{ID: 1, Domain: "acme.com.au", NameNorm: "ACME"}}
	src.On("RegistrySample", mock.Anything, mock.Anything).Return([]model.RegistryRecord{}, nil)
	src.On("CrawlSample", mock.Anything, mock.Anything).Return(crawl, nil)

	sum, err := newTestRunner(src, writer, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Unmatched)
	assert.Equal(t, 0, sum.Ambiguous)
}

func TestRunCancelledContext(t *testing.T) {
	src := &mockSource{}
	writer := &mockWriter{}

	crawl := []model.CrawlRecord{{ID: 1, Domain: "acme.com.au", NameNorm: "ACME"}}
	src.On("RegistrySample", mock.Anything, mock.Anything).Return(registryFixture(), nil)
	src.On("CrawlSample", mock.Anything, mock.Anything).Return(crawl, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRunner(src, writer, nil).Run(ctx)
	require.Error(t, err)
}
