package stats

import (
	"errors"
	"math"
	"testing"

	"cdmcore/pkg/domain"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestAccumulatorMatchesDirectComputation(t *testing.T) {
	values := []float64{18, 20, 22}
	var acc Accumulator
	for _, v := range values {
		acc.Add(v)
	}
	s := acc.Summary()
	if s.Count != 3 {
		t.Fatalf("count = %d, want 3", s.Count)
	}
	if !almostEqual(s.Mean, 20, 1e-12) {
		t.Fatalf("mean = %v, want 20", s.Mean)
	}
	if !almostEqual(s.Std, 2, 1e-12) {
		t.Fatalf("std = %v, want 2", s.Std)
	}
}

func TestAccumulatorFewValues(t *testing.T) {
	var acc Accumulator
	if s := acc.Summary(); s.Count != 0 || s.Mean != 0 || s.Std != 0 {
		t.Fatalf("empty summary = %+v", s)
	}
	acc.Add(7.5)
	s := acc.Summary()
	if s.Count != 1 || s.Mean != 7.5 || s.Std != 0 {
		t.Fatalf("single-value summary = %+v", s)
	}
	if s.Usable() {
		t.Fatalf("single-value summary must not be usable")
	}
}

func TestWelchTestAgainstLargeBaseline(t *testing.T) {
	study := Summary{Mean: 20, Std: 2, Count: 3}
	compendium := Summary{Mean: 15, Std: 5, Count: 1000}
	res, err := WelchTest(study, compendium)
	if err != nil {
		t.Fatalf("WelchTest: %v", err)
	}
	if res.T <= 0 {
		t.Fatalf("t = %v, want positive for higher study mean", res.T)
	}
	if res.P <= 0 || res.P >= 1 {
		t.Fatalf("p = %v, want strictly inside (0, 1)", res.P)
	}
	if res.DF <= 0 {
		t.Fatalf("df = %v, want positive", res.DF)
	}
	if d := CohenD(study, compendium); d <= 0 {
		t.Fatalf("effect size = %v, want positive", d)
	}
}

func TestWelchTestInsufficientSamples(t *testing.T) {
	cases := []struct {
		name              string
		study, compendium Summary
	}{
		{"study single", Summary{Mean: 1, Count: 1}, Summary{Mean: 1, Std: 1, Count: 10}},
		{"compendium single", Summary{Mean: 1, Std: 1, Count: 5}, Summary{Mean: 1, Count: 1}},
		{"both empty", Summary{}, Summary{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := WelchTest(tc.study, tc.compendium); !errors.Is(err, domain.ErrInsufficientSamples) {
				t.Fatalf("err = %v, want ErrInsufficientSamples", err)
			}
		})
	}
}

func TestWelchTestDegenerateVariance(t *testing.T) {
	equal := Summary{Mean: 4, Std: 0, Count: 3}
	res, err := WelchTest(equal, Summary{Mean: 4, Std: 0, Count: 5})
	if err != nil {
		t.Fatalf("WelchTest: %v", err)
	}
	if res.P != 1 || res.T != 0 {
		t.Fatalf("equal means with zero variance: t=%v p=%v, want t=0 p=1", res.T, res.P)
	}

	res, err = WelchTest(Summary{Mean: 6, Std: 0, Count: 3}, Summary{Mean: 4, Std: 0, Count: 5})
	if err != nil {
		t.Fatalf("WelchTest: %v", err)
	}
	if res.P != 0 || !math.IsInf(res.T, 1) {
		t.Fatalf("unequal means with zero variance: t=%v p=%v, want t=+Inf p=0", res.T, res.P)
	}
}

func TestWelchTestSymmetry(t *testing.T) {
	a := Summary{Mean: 10, Std: 3, Count: 20}
	b := Summary{Mean: 12, Std: 4, Count: 30}
	ab, err := WelchTest(a, b)
	if err != nil {
		t.Fatalf("WelchTest: %v", err)
	}
	ba, err := WelchTest(b, a)
	if err != nil {
		t.Fatalf("WelchTest: %v", err)
	}
	if !almostEqual(ab.P, ba.P, 1e-12) {
		t.Fatalf("p not symmetric: %v vs %v", ab.P, ba.P)
	}
	if !almostEqual(ab.T, -ba.T, 1e-12) {
		t.Fatalf("t not antisymmetric: %v vs %v", ab.T, ba.T)
	}
}

func TestCohenDEdgeCases(t *testing.T) {
	if d := CohenD(Summary{Mean: 5, Std: 0, Count: 3}, Summary{Mean: 9, Std: 0, Count: 3}); d != 0 {
		t.Fatalf("zero pooled variance: d = %v, want 0", d)
	}
	if d := CohenD(Summary{Mean: 5, Std: 1, Count: 1}, Summary{Mean: 9, Std: 1, Count: 3}); d != 0 {
		t.Fatalf("single-value side: d = %v, want 0", d)
	}
	lower := CohenD(Summary{Mean: 5, Std: 2, Count: 10}, Summary{Mean: 9, Std: 2, Count: 10})
	if lower >= 0 {
		t.Fatalf("lower study mean: d = %v, want negative", lower)
	}
}

func TestDescribe(t *testing.T) {
	mean, median, min, max, std := Describe([]float64{4, 3})
	if !almostEqual(mean, 3.5, 1e-12) {
		t.Fatalf("mean = %v, want 3.5", mean)
	}
	if median != 3 {
		t.Fatalf("median = %v, want 3", median)
	}
	if min != 3 || max != 4 {
		t.Fatalf("min/max = %v/%v, want 3/4", min, max)
	}
	if std <= 0 {
		t.Fatalf("std = %v, want positive", std)
	}

	mean, median, min, max, std = Describe([]float64{7})
	if mean != 7 || median != 7 || min != 7 || max != 7 || std != 0 {
		t.Fatalf("single value describe = %v %v %v %v %v", mean, median, min, max, std)
	}
}
