package search

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/sirupsen/logrus"
)

// Match is a search hit with its fuzzy score and a 0.0-1.0 confidence
// for the track name.
type Match struct {
	Entry
	Score      int     `json:"score"`
	Confidence float64 `json:"confidence"`
}

// IsHighConfidence returns true if the match confidence is at least 0.8
func (m Match) IsHighConfidence() bool {
	return m.Confidence >= 0.8
}

// entrySource exposes "track name artists" strings to the fuzzy matcher.
type entrySource []Entry

func (s entrySource) String(i int) string {
	return strings.ToLower(s[i].TrackName + " " + s[i].Artists)
}

func (s entrySource) Len() int { return len(s) }

// Find returns up to limit entries matching query, best first. A limit of
// zero or less returns every match.
func (ix *Index) Find(query string, limit int) ([]Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	results := fuzzy.FindFrom(strings.ToLower(query), entrySource(ix.entries))
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		entry := ix.entries[r.Index]
		matches[i] = Match{
			Entry:      entry,
			Score:      r.Score,
			Confidence: matchConfidence(query, entry.TrackName),
		}
	}

	ix.logger.WithFields(logrus.Fields{
		"component": "search",
		"operation": "find",
		"query":     query,
		"matches":   len(matches),
	}).Debug("Fuzzy search finished")

	return matches, nil
}

// matchConfidence scores how well name matches query between 0.1 and 1.0.
func matchConfidence(query, name string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	n := strings.ToLower(strings.TrimSpace(name))

	if q == n {
		return 1.0
	}

	if strings.Contains(n, q) {
		ratio := float64(len(q)) / float64(len(n))
		return 0.8 + (ratio * 0.2) // Score between 0.8 and 1.0
	}

	if strings.Contains(q, n) {
		ratio := float64(len(n)) / float64(len(q))
		return 0.7 + (ratio * 0.2) // Score between 0.7 and 0.9
	}

	found := fuzzy.Find(q, []string{n})
	if len(found) == 0 {
		return 0.1
	}

	// Fuzzy scores grow with the query; scale them into 0.1-0.7.
	confidence := float64(found[0].Score) / float64(len(q)*2) * 0.7
	return min(max(confidence, 0.1), 0.7)
}
