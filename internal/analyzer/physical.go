package analyzer

import (
	"strconv"

	"cdmcore/internal/baseline"
	"cdmcore/internal/stats"
	"cdmcore/pkg/domain"
)

// computePhysical summarises every physical variable observed on the study's
// samples. A non-numeric value degrades only its own variable to an error
// entry; a single contributing value yields "no_data" carrying the value.
func (a *Analyzer) computePhysical(samples []domain.Sample, base *baseline.Baseline) map[string]domain.PhysicalVariableResult {
	type slot struct {
		acc      stats.Accumulator
		parseErr error
	}
	per := make(map[string]*slot)
	for _, sample := range samples {
		for variable, raw := range sample.Physical {
			if raw == "" {
				continue
			}
			s, ok := per[variable]
			if !ok {
				s = &slot{}
				per[variable] = s
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				if s.parseErr == nil {
					s.parseErr = domain.NumericParseError{Variable: variable, Value: raw}
				}
				continue
			}
			s.acc.Add(v)
		}
	}

	out := make(map[string]domain.PhysicalVariableResult, len(per))
	for variable, s := range per {
		if s.parseErr != nil {
			out[variable] = domain.PhysicalVariableResult{
				Status:  domain.StatusError,
				Count:   s.acc.N(),
				Message: s.parseErr.Error(),
			}
			continue
		}
		summary := s.acc.Summary()
		if !summary.Usable() {
			pv := domain.PhysicalVariableResult{
				Status:  domain.StatusNoData,
				Count:   summary.Count,
				Message: domain.ErrInsufficientSamples.Error(),
			}
			if summary.Count == 1 {
				mean := summary.Mean
				pv.Mean = &mean
			}
			out[variable] = pv
			continue
		}
		mean, std := summary.Mean, summary.Std
		pv := domain.PhysicalVariableResult{
			Status: domain.StatusOK,
			Mean:   &mean,
			Std:    &std,
			Count:  summary.Count,
		}
		if vb, ok := base.Physical[variable]; ok && !vb.NoData {
			if cmp, _ := a.compare(summary, vb.Stats); cmp != nil {
				pv.CompendiumMean = &cmp.CompendiumMean
				pv.CompendiumStd = &cmp.CompendiumStd
				pv.PValue = &cmp.PValue
				pv.EffectSize = &cmp.EffectSize
			}
		}
		out[variable] = pv
	}
	return out
}
