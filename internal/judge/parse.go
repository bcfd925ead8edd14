package judge

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Verdict is the judge's parsed answer for one candidate pair.
type Verdict struct {
	IsMatch    bool   `json:"is_match"`
	Confidence string `json:"confidence"` // "low", "medium" or "high"
	Reason     string `json:"reason"`
}

// Approves reports whether this verdict accepts the pair: a positive match at
// medium or high confidence. Low-confidence matches are declined.
func (v Verdict) Approves() bool {
	return v.IsMatch && (v.Confidence == "medium" || v.Confidence == "high")
}

// ParseVerdict extracts a Verdict from the judge's raw response text. The
// response is supposed to be a bare JSON object but models sometimes wrap it
// in code fences or surrounding prose, so the parser strips fences and scans
// for the outermost braces before unmarshaling. Any remaining parse failure is
// returned to the caller, which treats the pair as reviewed-but-not-approved.
func ParseVerdict(raw string) (Verdict, error) {
	cleaned := cleanJSON(raw)
	if cleaned == "" {
		return Verdict{}, eris.New("judge: empty response")
	}

	var v Verdict
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return Verdict{}, eris.Wrap(err, "judge: parse verdict")
	}

	v.Confidence = strings.ToLower(strings.TrimSpace(v.Confidence))
	switch v.Confidence {
	case "low", "medium", "high":
	default:
		return Verdict{}, eris.Errorf("judge: unknown confidence %q", v.Confidence)
	}

	return v, nil
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
