// Package match implements fuzzy candidate selection and decision tiering
// between staged registry entities and crawl companies.
package match

import (
	"math"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/firmable/unify/internal/model"
)

// Score computes a token-sort similarity ratio between two names in [0,100].
// Both names are tokenized on whitespace, the tokens sorted lexicographically,
// and a normalized edit-distance ratio computed over the rejoined strings, so
// word order does not affect the result. Returns 0 if either input is empty.
func Score(a, b string) int {
	sa := tokenSort(a)
	sb := tokenSort(b)
	if sa == "" || sb == "" {
		return 0
	}
	if sa == sb {
		return 100
	}

	dist := levenshtein.Distance(sa, sb, nil)
	maxLen := len([]rune(sa))
	if l := len([]rune(sb)); l > maxLen {
		maxLen = l
	}

	ratio := 100 * (1 - float64(dist)/float64(maxLen))
	if ratio < 0 {
		return 0
	}
	return int(math.Round(ratio))
}

func tokenSort(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// ScoredCandidate pairs a crawl record with its best-scoring registry record.
type ScoredCandidate struct {
	Crawl    model.CrawlRecord
	Registry model.RegistryRecord
	Score    int
}

// BestCandidate returns the highest-scoring registry record for one crawl
// record. Ties break to the first-encountered registry record in input order;
// this is deliberate so runs over the same sample are reproducible. The second
// return is false when the registry sample is empty or the crawl record has no
// usable name; that is absence, not an error.
//
// Complexity is O(|registry|) per crawl record; the whole selection pass is
// O(n×m) with no blocking or indexing, which is acceptable at sample sizes in
// the low thousands.
func BestCandidate(registry []model.RegistryRecord, crawl model.CrawlRecord) (ScoredCandidate, bool) {
	name := strings.TrimSpace(crawl.NameNorm)
	if name == "" || len(registry) == 0 {
		return ScoredCandidate{}, false
	}

	best := -1
	var bestRec model.RegistryRecord
	for _, r := range registry {
		rn := strings.TrimSpace(r.NameNorm)
		if rn == "" {
			continue
		}
		if s := Score(name, rn); s > best {
			best = s
			bestRec = r
		}
	}
	if best < 0 {
		return ScoredCandidate{}, false
	}

	return ScoredCandidate{Crawl: crawl, Registry: bestRec, Score: best}, true
}
