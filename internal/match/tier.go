package match

// Match method labels written to company_unified.match_method.
const (
	MethodFuzzyName = "fuzzy_name"
	MethodLLM       = "llm_disambiguation"
)

// DecisionKind enumerates the three tiering outcomes.
type DecisionKind int

const (
	Rejected DecisionKind = iota
	Ambiguous
	Accepted
)

func (k DecisionKind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case Ambiguous:
		return "ambiguous"
	default:
		return "rejected"
	}
}

// Decision is the transient outcome of tiering one scored pair. Only Accepted
// decisions carry a method and confidence; Ambiguous decisions may be promoted
// to Accepted by the judge escalator.
type Decision struct {
	Kind       DecisionKind
	Method     string
	Confidence int
	Score      int
}

// Thresholds holds the two tiering cut points. High must be >= Low.
type Thresholds struct {
	High int
	Low  int
}

// Classify maps a similarity score onto exactly one decision tier:
//
//	score >= High          → Accepted(fuzzy_name, score)
//	Low <= score < High    → Ambiguous
//	score <  Low           → Rejected
//
// A score equal to Low classifies as Ambiguous. With Low = 0 every sub-high
// score is Ambiguous and nothing rejects outright; that is intentional
// review-maximizing policy, not a bug. Raise Low to bound judge escalation
// volume in production.
func (t Thresholds) Classify(score int) Decision {
	switch {
	case score >= t.High:
		return Decision{Kind: Accepted, Method: MethodFuzzyName, Confidence: score, Score: score}
	case score >= t.Low:
		return Decision{Kind: Ambiguous, Score: score}
	default:
		return Decision{Kind: Rejected, Score: score}
	}
}
