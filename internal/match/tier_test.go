package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTiers(t *testing.T) {
	th := Thresholds{High: 95, Low: 75}

	tests := []struct {
		name  string
		score int
		kind  DecisionKind
	}{
		{"well above high", 100, Accepted},
		{"exactly high", 95, Accepted},
		{"just below high", 94, Ambiguous},
		{"exactly low", 75, Ambiguous},
		{"just below low", 74, Rejected},
		{"zero", 0, Rejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := th.Classify(tt.score)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.score, d.Score)
		})
	}
}

func TestClassifyAcceptedCarriesMethodAndConfidence(t *testing.T) {
	d := Thresholds{High: 95, Low: 0}.Classify(97)
	assert.Equal(t, Accepted, d.Kind)
	assert.Equal(t, MethodFuzzyName, d.Method)
	assert.Equal(t, 97, d.Confidence)
}

func TestClassifyLowZeroPolicy(t *testing.T) {
	// With Low=0 every sub-high score, zero included, is routed to judge
	// review; nothing in [0,100] rejects outright.
	th := Thresholds{High: 95, Low: 0}
	assert.Equal(t, Ambiguous, th.Classify(1).Kind)
	assert.Equal(t, Ambiguous, th.Classify(94).Kind)
	assert.Equal(t, Ambiguous, th.Classify(0).Kind) // score == Low classifies Ambiguous
	assert.Equal(t, Rejected, th.Classify(-1).Kind)
}

func TestClassifyExactlyOneTier(t *testing.T) {
	th := Thresholds{High: 95, Low: 40}
	for s := 0; s <= 100; s++ {
		d := th.Classify(s)
		switch {
		case s >= 95:
			assert.Equal(t, Accepted, d.Kind, "score %d", s)
		case s >= 40:
			assert.Equal(t, Ambiguous, d.Kind, "score %d", s)
		default:
			assert.Equal(t, Rejected, d.Kind, "score %d", s)
		}
	}
}

func TestDecisionKindString(t *testing.T) {
	assert.Equal(t, "accepted", Accepted.String())
	assert.Equal(t, "ambiguous", Ambiguous.String())
	assert.Equal(t, "rejected", Rejected.String())
}
