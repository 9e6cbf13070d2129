package domain

import "time"

// SampleCountStats describes the distribution of per-study sample counts.
type SampleCountStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Std    float64 `json:"std"`
}

// DateRange bounds the study addition dates in the compendium.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// GeoBucket is one (latitude, longitude, study) sample-count bucket.
type GeoBucket struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	StudyID     string  `json:"study_id"`
	SampleCount int     `json:"sample_count"`
}

// TimePoint is one monthly bucket of the sample collection time series.
type TimePoint struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}

// StudyCoverage counts how many of a study's samples carry each data
// category, plus per-variable physical coverage.
type StudyCoverage struct {
	StudyID      string             `json:"study_id"`
	TotalSamples int                `json:"total_samples"`
	Omics        map[OmicsType]int  `json:"omics,omitempty"`
	Taxonomic    map[Classifier]int `json:"taxonomic,omitempty"`
	Physical     map[string]int     `json:"physical,omitempty"`
}

// CompendiumSummary is the study-set-wide descriptive artifact served to the
// overview panel. Pure function of the input tables; no statistics testing.
type CompendiumSummary struct {
	DataVersion           string                    `json:"data_version"`
	TotalStudies          int                       `json:"total_studies"`
	TotalSamples          int                       `json:"total_samples"`
	DateRange             DateRange                 `json:"date_range"`
	SampleCounts          SampleCountStats          `json:"sample_count_stats"`
	EcosystemDistribution map[string]map[string]int `json:"ecosystem_distribution,omitempty"`
	MeasurementCoverage   map[MeasurementType]int   `json:"measurement_coverage,omitempty"`
	TimeSeries            []TimePoint               `json:"time_series,omitempty"`
	Geographic            []GeoBucket               `json:"geographic,omitempty"`
	Coverage              []StudyCoverage           `json:"coverage,omitempty"`
}
