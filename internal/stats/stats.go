// Package stats provides the summary-statistic accumulators and two-sample
// tests used for study-vs-compendium comparisons. All tests operate on
// summary statistics only (mean/std/n); raw compendium values are never
// retained after aggregation.
package stats

import (
	"math"

	"cdmcore/pkg/domain"

	"gonum.org/v1/gonum/stat/distuv"
)

// Summary is the (mean, sample std, count) triple aggregated per key.
type Summary struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Count int     `json:"count"`
}

// Usable reports whether the summary supports a two-sample comparison.
func (s Summary) Usable() bool { return s.Count >= 2 }

// Accumulator aggregates a stream of values into a Summary using Welford's
// online algorithm, so tables never need to be materialized in memory.
// Accumulation order is deterministic for a deterministic input stream,
// which keeps rebuilt baselines bit-identical.
type Accumulator struct {
	n    int
	mean float64
	m2   float64
}

// Add folds one value into the accumulator.
func (a *Accumulator) Add(x float64) {
	a.n++
	delta := x - a.mean
	a.mean += delta / float64(a.n)
	a.m2 += delta * (x - a.mean)
}

// N returns the number of accumulated values.
func (a *Accumulator) N() int { return a.n }

// Summary snapshots the accumulator. Std is the sample standard deviation;
// zero when fewer than two values contributed.
func (a *Accumulator) Summary() Summary {
	s := Summary{Mean: a.mean, Count: a.n}
	if a.n >= 2 {
		s.Std = math.Sqrt(a.m2 / float64(a.n-1))
	}
	return s
}

// TestResult is the outcome of a two-sample comparison from summary stats.
type TestResult struct {
	T  float64
	DF float64
	P  float64
}

// WelchTest runs a two-sided Welch two-sample t-test from summary statistics,
// with degrees of freedom by Welch–Satterthwaite. Returns
// domain.ErrInsufficientSamples when either side has fewer than two values.
// When both variances are zero the test degenerates: p=1 for equal means,
// p=0 otherwise.
func WelchTest(study, compendium Summary) (TestResult, error) {
	if !study.Usable() || !compendium.Usable() {
		return TestResult{}, domain.ErrInsufficientSamples
	}
	na, nb := float64(study.Count), float64(compendium.Count)
	va, vb := study.Std*study.Std, compendium.Std*compendium.Std
	sa, sb := va/na, vb/nb
	se2 := sa + sb
	diff := study.Mean - compendium.Mean
	if se2 == 0 {
		if diff == 0 {
			return TestResult{T: 0, DF: na + nb - 2, P: 1}, nil
		}
		return TestResult{T: math.Inf(sign(diff)), DF: na + nb - 2, P: 0}, nil
	}
	t := diff / math.Sqrt(se2)
	df := se2 * se2 / (sa*sa/(na-1) + sb*sb/(nb-1))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))
	if p > 1 {
		p = 1
	}
	return TestResult{T: t, DF: df, P: p}, nil
}

// CohenD computes the pooled-standard-deviation standardized mean difference
// between the study and compendium summaries. Zero when the pooled variance
// vanishes.
func CohenD(study, compendium Summary) float64 {
	na, nb := float64(study.Count), float64(compendium.Count)
	if na < 2 || nb < 2 {
		return 0
	}
	pooled := ((na-1)*study.Std*study.Std + (nb-1)*compendium.Std*compendium.Std) / (na + nb - 2)
	if pooled <= 0 {
		return 0
	}
	return (study.Mean - compendium.Mean) / math.Sqrt(pooled)
}

func sign(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}
