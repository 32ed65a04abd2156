// Package suggest finds likely intended names for a mistyped one.
package suggest

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/sahilm/fuzzy"
)

// DefaultLimit is the number of suggestions returned by Closest when
// limit is not positive.
const DefaultLimit = 3

const maxEdits = 2

// Closest returns up to limit candidates that look like input, best first.
//
// A candidate matches when input is a fuzzy subsequence of it ("vldt" for
// "validate"), when it is a subsequence of input (extra characters typed) or
// when it is within maxEdits edits of input ("retrun").
func Closest(input string, candidates []string, limit int) []string {
	if input == "" || len(candidates) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	lowered := make([]string, len(candidates))
	for i, c := range candidates {
		lowered[i] = strings.ToLower(c)
	}
	needle := strings.ToLower(input)

	type scored struct {
		name  string
		score int
	}
	best := make(map[string]int)
	for _, m := range fuzzy.Find(needle, lowered) {
		best[candidates[m.Index]] = m.Score
	}
	for i, c := range lowered {
		if _, ok := best[candidates[i]]; ok {
			continue
		}
		if ms := fuzzy.Find(c, []string{needle}); len(ms) > 0 {
			// Reverse matches rank below forward ones.
			best[candidates[i]] = ms[0].Score - len(needle)
			continue
		}
		if d := levenshtein.Distance(needle, c, nil); d <= maxEdits {
			best[candidates[i]] = -len(needle) - d
		}
	}

	result := make([]scored, 0, len(best))
	for name, score := range best {
		result = append(result, scored{name, score})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].score != result[j].score {
			return result[i].score > result[j].score
		}
		return result[i].name < result[j].name
	})

	names := make([]string, 0, limit)
	for _, s := range result {
		if len(names) == limit {
			break
		}
		names = append(names, s.name)
	}
	return names
}

// Hint formats suggestions as a " (did you mean ...?)" suffix, or "".
func Hint(input string, candidates []string) string {
	names := Closest(input, candidates, DefaultLimit)
	if len(names) == 0 {
		return ""
	}
	return " (did you mean " + strings.Join(names, ", ") + "?)"
}
