// Package progress grades answers and keeps per-concept freshness and
// learning logs.
package progress

// NextFreshness applies the running-average rule. The first evaluation
// sets freshness to score/100; later ones average the previous freshness
// with score/100, weighting history and the latest result equally.
func NextFreshness(prev *float64, score int) float64 {
	latest := float64(clampScore(score)) / 100
	if prev == nil {
		return latest
	}
	return (*prev + latest) / 2
}

func clampScore(score int) int {
	return min(max(score, 0), 100)
}
