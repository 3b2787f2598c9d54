package util

import "github.com/sahilm/fuzzy"

// Rank returns the indexes of candidates that fuzzily match input, best
// match first. An empty input keeps every candidate in its original order.
func Rank(input string, candidates []string) []int {
	if input == "" {
		out := make([]int, len(candidates))
		for i := range candidates {
			out[i] = i
		}
		return out
	}
	matches := fuzzy.Find(input, candidates)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Index)
	}
	return out
}
