package pattern

import (
	"sort"
	"strings"
)

// Matching constants. An exact signature hit scores a full 1.0 match;
// fuzzy candidates blend keyword overlap with trigram similarity and
// must clear MinMatchScore to count at all.
const (
	MinMatchScore   = 0.25
	keywordWeight   = 0.6
	trigramWeight   = 0.4
	exactMatchScore = 1.0
)

// Match pairs a candidate pattern with its similarity to the message
type Match struct {
	Pattern    *Pattern
	MatchScore float64
	Exact      bool
}

// EffectiveScore is the gate's input: similarity discounted by the
// pattern's own confidence
func (m *Match) EffectiveScore() float64 {
	if m == nil || m.Pattern == nil {
		return 0
	}
	return m.MatchScore * m.Pattern.Confidence()
}

// Matcher ranks candidate patterns against an incoming message signature
type Matcher struct {
	minScore float64
}

// NewMatcher creates a matcher with the default minimum match score
func NewMatcher() *Matcher {
	return &Matcher{minScore: MinMatchScore}
}

// NewMatcherWithMinScore creates a matcher with a custom score cutoff
func NewMatcherWithMinScore(minScore float64) *Matcher {
	return &Matcher{minScore: minScore}
}

// Rank scores every candidate against the message signature and returns
// matches above the cutoff, best first. Ties break toward the pattern
// with higher confidence so ranking stays deterministic.
func (m *Matcher) Rank(sig Signature, msgType PatternType, candidates []*Pattern) []*Match {
	if sig.IsEmpty() {
		return nil
	}

	matches := make([]*Match, 0, len(candidates))
	for _, p := range candidates {
		if p == nil || p.Status() == StatusDeleted {
			continue
		}
		// A typed message only considers same-typed and general patterns
		if msgType != "" && msgType != TypeGeneral &&
			p.Type() != msgType && p.Type() != TypeGeneral {
			continue
		}

		score, exact := m.score(sig, p.Signature())
		if score < m.minScore {
			continue
		}
		matches = append(matches, &Match{Pattern: p, MatchScore: score, Exact: exact})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].MatchScore != matches[j].MatchScore {
			return matches[i].MatchScore > matches[j].MatchScore
		}
		return matches[i].Pattern.Confidence() > matches[j].Pattern.Confidence()
	})
	return matches
}

// Best returns the top-ranked match, nil when nothing clears the cutoff
func (m *Matcher) Best(sig Signature, msgType PatternType, candidates []*Pattern) *Match {
	ranked := m.Rank(sig, msgType, candidates)
	if len(ranked) == 0 {
		return nil
	}
	return ranked[0]
}

func (m *Matcher) score(msg, candidate Signature) (float64, bool) {
	if msg.Hash == candidate.Hash {
		return exactMatchScore, true
	}
	kw := jaccard(msg.Keywords, candidate.Keywords)
	tg := trigramSimilarity(msg.Normalized, candidate.Normalized)
	return keywordWeight*kw + trigramWeight*tg, false
}

// jaccard computes set overlap of two sorted keyword slices
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	intersection := 0
	for _, s := range b {
		if _, ok := set[s]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// trigramSimilarity computes Jaccard overlap of character trigram sets.
// Short strings fall back to direct comparison.
func trigramSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	intersection := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

func trigrams(s string) map[string]struct{} {
	// Pad so boundary characters contribute; matches how pg_trgm frames words
	padded := "  " + strings.TrimSpace(s) + " "
	runes := []rune(padded)
	if len(runes) < 3 {
		return nil
	}
	out := make(map[string]struct{}, len(runes))
	for i := 0; i+3 <= len(runes); i++ {
		out[string(runes[i:i+3])] = struct{}{}
	}
	return out
}
