// Package analyzer computes the per-study analysis artifact: descriptive
// statistics and study-vs-compendium comparisons for physical variables,
// omics abundances, and taxonomic rollups.
package analyzer

import (
	"context"
	"sort"
	"time"

	"cdmcore/internal/baseline"
	"cdmcore/internal/stats"
	"cdmcore/internal/tablestore"
	"cdmcore/pkg/domain"
)

// Thresholds bound which comparisons qualify as outliers. Both conditions
// must hold: p-value strictly below MaxPValue and absolute effect size at
// least MinEffectSize.
type Thresholds struct {
	MaxPValue     float64
	MinEffectSize float64
}

// DefaultThresholds returns the production outlier bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{MaxPValue: 0.05, MinEffectSize: 0.5}
}

// Analyzer computes study analyses against a fixed set of thresholds.
type Analyzer struct {
	thresholds Thresholds
	now        func() time.Time
}

// New returns an Analyzer. Zero threshold fields fall back to defaults.
func New(t Thresholds) *Analyzer {
	def := DefaultThresholds()
	if t.MaxPValue <= 0 {
		t.MaxPValue = def.MaxPValue
	}
	if t.MinEffectSize <= 0 {
		t.MinEffectSize = def.MinEffectSize
	}
	return &Analyzer{thresholds: t, now: time.Now}
}

// Compute runs the full analysis of one study against the given tables and
// baseline. The baseline must have been built from the same data version.
// An unknown study returns domain.NotFoundError; unavailable input tables
// degrade their category rather than failing the analysis.
func (a *Analyzer) Compute(ctx context.Context, studyID string, tables tablestore.Tables, base *baseline.Baseline) (domain.StudyAnalysisResult, error) {
	if _, err := tables.Study(studyID); err != nil {
		return domain.StudyAnalysisResult{}, err
	}
	samples, err := tables.StudySamples(studyID)
	if err != nil {
		return domain.StudyAnalysisResult{}, err
	}
	sampleSet := make(map[string]bool, len(samples))
	for _, s := range samples {
		sampleSet[s.ID] = true
	}

	result := domain.StudyAnalysisResult{
		StudyID:     studyID,
		DataVersion: tables.DataVersion(),
		ComputedAt:  a.now().UTC(),
		Physical:    a.computePhysical(samples, base),
		Ecosystem:   ecosystemProfile(samples),
		Timeline:    timeline(samples),
	}
	result.Omics, err = a.computeOmics(ctx, tables, sampleSet, base)
	if err != nil {
		return domain.StudyAnalysisResult{}, err
	}
	result.Taxonomic, err = a.computeTaxonomic(ctx, tables, sampleSet, base)
	if err != nil {
		return domain.StudyAnalysisResult{}, err
	}
	return result, nil
}

// compare runs the study-vs-compendium test for one variable. The second
// return reports whether the comparison qualifies as an outlier.
func (a *Analyzer) compare(study, compendium stats.Summary) (*domain.Comparison, bool) {
	test, err := stats.WelchTest(study, compendium)
	if err != nil {
		return nil, false
	}
	d := stats.CohenD(study, compendium)
	direction := domain.DirectionHigher
	if study.Mean < compendium.Mean {
		direction = domain.DirectionLower
	}
	cmp := &domain.Comparison{
		CompendiumMean:  compendium.Mean,
		CompendiumStd:   compendium.Std,
		CompendiumCount: compendium.Count,
		PValue:          test.P,
		EffectSize:      d,
		Direction:       direction,
	}
	outlier := test.P < a.thresholds.MaxPValue && abs(d) >= a.thresholds.MinEffectSize
	return cmp, outlier
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func ecosystemProfile(samples []domain.Sample) domain.EcosystemProfile {
	counts := make(map[string]map[string]int)
	for _, s := range samples {
		for field, value := range s.Ecosystem.Fields() {
			if value == "" {
				continue
			}
			byValue, ok := counts[field]
			if !ok {
				byValue = make(map[string]int)
				counts[field] = byValue
			}
			byValue[value]++
		}
	}
	if len(counts) == 0 {
		return domain.EcosystemProfile{}
	}
	most := make(map[string]string, len(counts))
	for field, byValue := range counts {
		values := make([]string, 0, len(byValue))
		for v := range byValue {
			values = append(values, v)
		}
		sort.Strings(values)
		best := values[0]
		for _, v := range values[1:] {
			if byValue[v] > byValue[best] {
				best = v
			}
		}
		most[field] = best
	}
	return domain.EcosystemProfile{ValueCounts: counts, MostCommon: most}
}

func timeline(samples []domain.Sample) domain.StudyTimeline {
	var tl domain.StudyTimeline
	for _, s := range samples {
		if s.CollectionDate == nil {
			continue
		}
		tl.SampleCount++
		if tl.Start == nil || s.CollectionDate.Before(*tl.Start) {
			ts := *s.CollectionDate
			tl.Start = &ts
		}
		if tl.End == nil || s.CollectionDate.After(*tl.End) {
			ts := *s.CollectionDate
			tl.End = &ts
		}
	}
	return tl
}
