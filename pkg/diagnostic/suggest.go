package diagnostic

import (
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggest returns the candidate closest to target, or "" when nothing is
// similar enough.
func Suggest(target string, candidates []string) string {
	if target == "" || len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		// RankFindFold only matches candidates containing target as a
		// subsequence; retry the other way round so that "Printt" still
		// finds "Print".
		for _, c := range candidates {
			if fuzzy.MatchFold(c, target) {
				return c
			}
		}
		return ""
	}

	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}

// DidYouMean formats a hint for Suggest's result, or returns "".
func DidYouMean(target string, candidates []string) string {
	if s := Suggest(target, candidates); s != "" && s != target {
		return fmt.Sprintf("did you mean '%s'?", s)
	}
	return ""
}
