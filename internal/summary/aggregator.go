// Package summary computes the compendium-wide descriptive artifact served
// to the overview panel. Everything here is a pure function of the input
// tables; no statistical testing is involved.
package summary

import (
	"context"
	"sort"

	"cdmcore/internal/stats"
	"cdmcore/internal/tablestore"
	"cdmcore/pkg/domain"
)

type geoKey struct {
	lat, lon float64
	studyID  string
}

// Summarize aggregates the full compendium into a CompendiumSummary.
// Unavailable abundance or rollup tables only reduce coverage counts; any
// other table error fails the aggregation.
func Summarize(ctx context.Context, tables tablestore.Tables) (domain.CompendiumSummary, error) {
	out := domain.CompendiumSummary{DataVersion: tables.DataVersion()}

	studies, err := tables.Studies()
	if err != nil {
		return domain.CompendiumSummary{}, err
	}
	out.TotalStudies = len(studies)
	out.DateRange = dateRange(studies)
	out.MeasurementCoverage = measurementCoverage(studies)

	sampleToStudy := make(map[string]string)
	ecosystems := make(map[string]map[string]int)
	months := make(map[string]int)
	geo := make(map[geoKey]int)
	perStudySamples := make(map[string]int)
	physical := make(map[string]map[string]int) // study -> variable -> samples

	err = tables.EachSample(func(s domain.Sample) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out.TotalSamples++
		sampleToStudy[s.ID] = s.StudyID
		perStudySamples[s.StudyID]++
		for field, value := range s.Ecosystem.Fields() {
			if value == "" {
				continue
			}
			byValue, ok := ecosystems[field]
			if !ok {
				byValue = make(map[string]int)
				ecosystems[field] = byValue
			}
			byValue[value]++
		}
		if s.CollectionDate != nil {
			months[s.CollectionDate.UTC().Format("2006-01")]++
		}
		if s.HasLocation() {
			geo[geoKey{lat: *s.Latitude, lon: *s.Longitude, studyID: s.StudyID}]++
		}
		if len(s.Physical) > 0 {
			byVar, ok := physical[s.StudyID]
			if !ok {
				byVar = make(map[string]int)
				physical[s.StudyID] = byVar
			}
			for variable, raw := range s.Physical {
				if raw != "" {
					byVar[variable]++
				}
			}
		}
		return nil
	})
	if err != nil {
		return domain.CompendiumSummary{}, err
	}

	if len(ecosystems) > 0 {
		out.EcosystemDistribution = ecosystems
	}
	out.SampleCounts = sampleCountStats(studies, perStudySamples)
	out.TimeSeries = timeSeries(months)
	out.Geographic = geoBuckets(geo)

	omicsCov, taxaCov, err := categoryCoverage(ctx, tables, sampleToStudy)
	if err != nil {
		return domain.CompendiumSummary{}, err
	}
	out.Coverage = coverage(studies, perStudySamples, omicsCov, taxaCov, physical)
	return out, nil
}

func dateRange(studies []domain.Study) domain.DateRange {
	var dr domain.DateRange
	for _, s := range studies {
		if s.AddedAt == nil {
			continue
		}
		if dr.Start == nil || s.AddedAt.Before(*dr.Start) {
			ts := *s.AddedAt
			dr.Start = &ts
		}
		if dr.End == nil || s.AddedAt.After(*dr.End) {
			ts := *s.AddedAt
			dr.End = &ts
		}
	}
	return dr
}

func measurementCoverage(studies []domain.Study) map[domain.MeasurementType]int {
	cov := make(map[domain.MeasurementType]int)
	for _, s := range studies {
		for _, m := range s.Measurements {
			cov[m]++
		}
	}
	if len(cov) == 0 {
		return nil
	}
	return cov
}

// sampleCountStats describes the per-study sample count distribution. Study
// metadata counts are preferred; counts derived from the sample table fill
// in where metadata carries none.
func sampleCountStats(studies []domain.Study, perStudy map[string]int) domain.SampleCountStats {
	counts := make([]float64, 0, len(studies))
	for _, s := range studies {
		n := s.SampleCount
		if n == 0 {
			n = perStudy[s.ID]
		}
		counts = append(counts, float64(n))
	}
	if len(counts) == 0 {
		return domain.SampleCountStats{}
	}
	mean, median, min, max, std := stats.Describe(counts)
	return domain.SampleCountStats{
		Mean:   mean,
		Median: median,
		Min:    int(min),
		Max:    int(max),
		Std:    std,
	}
}

func timeSeries(months map[string]int) []domain.TimePoint {
	if len(months) == 0 {
		return nil
	}
	keys := make([]string, 0, len(months))
	for m := range months {
		keys = append(keys, m)
	}
	sort.Strings(keys)
	series := make([]domain.TimePoint, 0, len(keys))
	for _, m := range keys {
		series = append(series, domain.TimePoint{Month: m, Count: months[m]})
	}
	return series
}

func geoBuckets(geo map[geoKey]int) []domain.GeoBucket {
	if len(geo) == 0 {
		return nil
	}
	buckets := make([]domain.GeoBucket, 0, len(geo))
	for k, n := range geo {
		buckets = append(buckets, domain.GeoBucket{
			Latitude:    k.lat,
			Longitude:   k.lon,
			StudyID:     k.studyID,
			SampleCount: n,
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		a, b := buckets[i], buckets[j]
		if a.Latitude != b.Latitude {
			return a.Latitude < b.Latitude
		}
		if a.Longitude != b.Longitude {
			return a.Longitude < b.Longitude
		}
		return a.StudyID < b.StudyID
	})
	return buckets
}

// categoryCoverage counts, per study, how many distinct samples carry at
// least one record in each omics and rollup table. Missing tables contribute
// nothing.
func categoryCoverage(ctx context.Context, tables tablestore.Tables, sampleToStudy map[string]string) (map[string]map[domain.OmicsType]int, map[string]map[domain.Classifier]int, error) {
	omics := make(map[string]map[domain.OmicsType]int)
	for _, t := range domain.OmicsTypes() {
		seen := make(map[string]bool)
		err := tables.EachAbundance(t, func(rec domain.AbundanceRecord) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if seen[rec.SampleID] {
				return nil
			}
			seen[rec.SampleID] = true
			study, ok := sampleToStudy[rec.SampleID]
			if !ok {
				return nil
			}
			byType, ok := omics[study]
			if !ok {
				byType = make(map[domain.OmicsType]int)
				omics[study] = byType
			}
			byType[t]++
			return nil
		})
		if err != nil && !domain.IsDataUnavailable(err) {
			return nil, nil, err
		}
	}
	taxa := make(map[string]map[domain.Classifier]int)
	for _, c := range domain.Classifiers() {
		seen := make(map[string]bool)
		err := tables.EachTaxon(c, func(rec domain.TaxonomicRecord) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if seen[rec.SampleID] {
				return nil
			}
			seen[rec.SampleID] = true
			study, ok := sampleToStudy[rec.SampleID]
			if !ok {
				return nil
			}
			byClassifier, ok := taxa[study]
			if !ok {
				byClassifier = make(map[domain.Classifier]int)
				taxa[study] = byClassifier
			}
			byClassifier[c]++
			return nil
		})
		if err != nil && !domain.IsDataUnavailable(err) {
			return nil, nil, err
		}
	}
	return omics, taxa, nil
}

func coverage(studies []domain.Study, perStudy map[string]int, omics map[string]map[domain.OmicsType]int, taxa map[string]map[domain.Classifier]int, physical map[string]map[string]int) []domain.StudyCoverage {
	if len(studies) == 0 {
		return nil
	}
	out := make([]domain.StudyCoverage, 0, len(studies))
	for _, s := range studies {
		out = append(out, domain.StudyCoverage{
			StudyID:      s.ID,
			TotalSamples: perStudy[s.ID],
			Omics:        omics[s.ID],
			Taxonomic:    taxa[s.ID],
			Physical:     physical[s.ID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudyID < out[j].StudyID })
	return out
}
