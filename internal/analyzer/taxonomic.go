package analyzer

import (
	"context"
	"sort"

	"cdmcore/internal/baseline"
	"cdmcore/internal/stats"
	"cdmcore/internal/tablestore"
	"cdmcore/pkg/domain"
)

// computeTaxonomic builds per-rank top-10 and outlier lists for every
// classifier. An unavailable rollup table degrades its classifier to a
// status entry with empty rank maps, so every classifier always has a top10
// and outliers key; context cancellation aborts the whole analysis.
func (a *Analyzer) computeTaxonomic(ctx context.Context, tables tablestore.Tables, sampleSet map[string]bool, base *baseline.Baseline) (domain.TaxonomicResult, error) {
	res := domain.TaxonomicResult{
		Top10:    make(map[domain.Classifier]map[domain.Rank][]domain.TaxonItem),
		Outliers: make(map[domain.Classifier]map[domain.Rank][]domain.TaxonItem),
		Status:   make(map[domain.Classifier]domain.CategoryStatus),
	}
	for _, c := range domain.Classifiers() {
		res.Top10[c] = map[domain.Rank][]domain.TaxonItem{}
		res.Outliers[c] = map[domain.Rank][]domain.TaxonItem{}
		byRank, err := a.collectTaxa(ctx, tables, c, sampleSet)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return domain.TaxonomicResult{}, cerr
			}
			status := domain.StatusError
			if domain.IsDataUnavailable(err) {
				status = domain.StatusNoData
			}
			res.Status[c] = domain.CategoryStatus{Status: status, Message: err.Error()}
			continue
		}
		if len(byRank) == 0 {
			res.Status[c] = domain.CategoryStatus{Status: domain.StatusNoData, Message: "no rollups for study samples"}
			continue
		}
		top := make(map[domain.Rank][]domain.TaxonItem, len(byRank))
		outliers := make(map[domain.Rank][]domain.TaxonItem)
		for rank, items := range byRank {
			top[rank] = topTaxa(items)
			if o := a.taxaOutliers(items, base.Taxa[c][rank]); len(o) > 0 {
				outliers[rank] = o
			}
		}
		res.Top10[c] = top
		res.Outliers[c] = outliers
	}
	if len(res.Status) == 0 {
		res.Status = nil
	}
	return res, nil
}

// collectTaxa aggregates per-taxon summaries over the study's samples,
// grouped by rank. Species counts are summarised for classifiers that
// report them.
func (a *Analyzer) collectTaxa(ctx context.Context, tables tablestore.Tables, c domain.Classifier, sampleSet map[string]bool) (map[domain.Rank][]domain.TaxonItem, error) {
	type slot struct {
		acc     stats.Accumulator
		species stats.Accumulator
	}
	per := make(map[domain.Rank]map[string]*slot)
	err := tables.EachTaxon(c, func(rec domain.TaxonomicRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !sampleSet[rec.SampleID] {
			return nil
		}
		byKey, ok := per[rec.Rank]
		if !ok {
			byKey = make(map[string]*slot)
			per[rec.Rank] = byKey
		}
		key := rec.Key(c)
		s, ok := byKey[key]
		if !ok {
			s = &slot{}
			byKey[key] = s
		}
		s.acc.Add(rec.Abundance)
		if rec.SpeciesCount != nil {
			s.species.Add(*rec.SpeciesCount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Rank][]domain.TaxonItem, len(per))
	for rank, byKey := range per {
		items := make([]domain.TaxonItem, 0, len(byKey))
		for key, s := range byKey {
			summary := s.acc.Summary()
			item := domain.TaxonItem{
				ID:            key,
				Rank:          rank,
				MeanAbundance: summary.Mean,
				StdAbundance:  summary.Std,
				SampleCount:   summary.Count,
			}
			if c.TracksSpeciesCounts() && s.species.N() > 0 {
				sp := s.species.Summary()
				mean, std := sp.Mean, sp.Std
				item.MeanSpeciesCount = &mean
				item.StdSpeciesCount = &std
			}
			items = append(items, item)
		}
		out[rank] = items
	}
	return out, nil
}

// topTaxa returns the ten highest-mean taxa, ties broken by ascending id.
func topTaxa(items []domain.TaxonItem) []domain.TaxonItem {
	sorted := append([]domain.TaxonItem(nil), items...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].MeanAbundance != sorted[j].MeanAbundance {
			return sorted[i].MeanAbundance > sorted[j].MeanAbundance
		}
		return sorted[i].ID < sorted[j].ID
	})
	if len(sorted) > 10 {
		sorted = sorted[:10]
	}
	return sorted
}

// taxaOutliers returns taxa whose comparison against the compendium baseline
// clears the thresholds, strongest effect first.
func (a *Analyzer) taxaOutliers(items []domain.TaxonItem, base map[string]baseline.TaxonBaseline) []domain.TaxonItem {
	var out []domain.TaxonItem
	for _, item := range items {
		tb, ok := base[item.ID]
		if !ok {
			continue
		}
		study := stats.Summary{Mean: item.MeanAbundance, Std: item.StdAbundance, Count: item.SampleCount}
		cmp, outlier := a.compare(study, tb.Stats)
		if !outlier {
			continue
		}
		item.Comparison = cmp
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		ei, ej := abs(out[i].Comparison.EffectSize), abs(out[j].Comparison.EffectSize)
		if ei != ej {
			return ei > ej
		}
		return out[i].ID < out[j].ID
	})
	return out
}
