package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Describe computes mean/median/min/max/std over the values. Used for the
// descriptive summary aggregator, where the full value set is small (one
// entry per study). Returns zero values for an empty input.
func Describe(values []float64) (mean, median, min, max, std float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mean, std = stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		std = 0
	}
	median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return mean, median, sorted[0], sorted[len(sorted)-1], std
}
