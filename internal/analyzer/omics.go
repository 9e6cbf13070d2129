package analyzer

import (
	"context"
	"sort"

	"cdmcore/internal/baseline"
	"cdmcore/internal/stats"
	"cdmcore/internal/tablestore"
	"cdmcore/pkg/domain"
)

// computeOmics builds top-10 and outlier lists for every omics type. An
// unavailable abundance table degrades its type to a status entry with empty
// lists, so every type always has a top10 and outliers key; context
// cancellation aborts the whole analysis.
func (a *Analyzer) computeOmics(ctx context.Context, tables tablestore.Tables, sampleSet map[string]bool, base *baseline.Baseline) (domain.OmicsResult, error) {
	res := domain.OmicsResult{
		Top10:    make(map[domain.OmicsType][]domain.OmicsItem),
		Outliers: make(map[domain.OmicsType][]domain.OmicsItem),
		Status:   make(map[domain.OmicsType]domain.CategoryStatus),
	}
	for _, t := range domain.OmicsTypes() {
		res.Top10[t] = []domain.OmicsItem{}
		res.Outliers[t] = []domain.OmicsItem{}
		items, err := a.collectOmics(ctx, tables, t, sampleSet)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return domain.OmicsResult{}, cerr
			}
			status := domain.StatusError
			if domain.IsDataUnavailable(err) {
				status = domain.StatusNoData
			}
			res.Status[t] = domain.CategoryStatus{Status: status, Message: err.Error()}
			continue
		}
		if len(items) == 0 {
			res.Status[t] = domain.CategoryStatus{Status: domain.StatusNoData, Message: "no measurements for study samples"}
			continue
		}
		res.Top10[t] = topOmics(items)
		res.Outliers[t] = a.omicsOutliers(items, base.Omics[t])
	}
	if len(res.Status) == 0 {
		res.Status = nil
	}
	return res, nil
}

// collectOmics aggregates per-item summaries over the study's samples.
func (a *Analyzer) collectOmics(ctx context.Context, tables tablestore.Tables, t domain.OmicsType, sampleSet map[string]bool) ([]domain.OmicsItem, error) {
	type slot struct {
		acc  stats.Accumulator
		meta map[string]string
	}
	per := make(map[string]*slot)
	err := tables.EachAbundance(t, func(rec domain.AbundanceRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !sampleSet[rec.SampleID] {
			return nil
		}
		s, ok := per[rec.ItemID]
		if !ok {
			s = &slot{meta: rec.Meta}
			per[rec.ItemID] = s
		}
		s.acc.Add(rec.Abundance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	items := make([]domain.OmicsItem, 0, len(per))
	for id, s := range per {
		summary := s.acc.Summary()
		items = append(items, domain.OmicsItem{
			ID:            id,
			MeanAbundance: summary.Mean,
			StdAbundance:  summary.Std,
			SampleCount:   summary.Count,
			Meta:          s.meta,
		})
	}
	return items, nil
}

// topOmics returns the ten highest-mean items, ties broken by ascending id.
func topOmics(items []domain.OmicsItem) []domain.OmicsItem {
	sorted := append([]domain.OmicsItem(nil), items...)
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

// omicsOutliers returns items whose comparison against the compendium
// baseline clears the thresholds, strongest effect first.
func (a *Analyzer) omicsOutliers(items []domain.OmicsItem, base map[string]baseline.ItemBaseline) []domain.OmicsItem {
	out := []domain.OmicsItem{}
	for _, item := range items {
		ib, ok := base[item.ID]
		if !ok {
			continue
		}
		study := stats.Summary{Mean: item.MeanAbundance, Std: item.StdAbundance, Count: item.SampleCount}
		cmp, outlier := a.compare(study, ib.Stats)
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
