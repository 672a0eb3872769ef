package batch

import "sort"

// Top returns the results scoring at least threshold, highest score first,
// cut to topK when topK is positive. Equal scores keep manifest order.
func Top(results []Result, topK int, threshold float64) []Result {
	ranked := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Record.Score >= threshold {
			ranked = append(ranked, r)
		}
	}

	// Sort by score descending
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Record.Score > ranked[j].Record.Score
	})

	if topK > 0 && topK < len(ranked) {
		ranked = ranked[:topK]
	}
	return ranked
}
