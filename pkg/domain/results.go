package domain

import (
	"fmt"
	"time"
)

// Status classifies the outcome of a per-variable or per-category analysis.
type Status string

// Analysis statuses encoded into result payloads.
const (
	// StatusOK marks a fully computed comparison.
	StatusOK Status = "ok"
	// StatusNoData marks insufficient contributing samples (<2); no
	// comparison fields are populated.
	StatusNoData Status = "no_data"
	// StatusError marks an isolated failure (e.g. a non-numeric value);
	// Message carries the cause.
	StatusError Status = "error"
)

func (s Status) valid() bool {
	switch s {
	case StatusOK, StatusNoData, StatusError:
		return true
	}
	return false
}

// Direction indicates which side of the compendium mean a study falls on.
type Direction string

// Outlier directions derived from the sign of the mean difference.
const (
	DirectionHigher Direction = "higher"
	DirectionLower  Direction = "lower"
)

// Comparison holds the study-vs-compendium fields shared by outlier entries.
type Comparison struct {
	CompendiumMean  float64   `json:"compendium_mean"`
	CompendiumStd   float64   `json:"compendium_std"`
	CompendiumCount int       `json:"compendium_count"`
	PValue          float64   `json:"p_value"`
	EffectSize      float64   `json:"effect_size"`
	Direction       Direction `json:"direction"`
}

// PhysicalVariableResult reports one physical variable for a study.
// Comparison fields are populated only when Status is "ok" and the
// compendium baseline for the variable is usable.
type PhysicalVariableResult struct {
	Status         Status   `json:"status"`
	Mean           *float64 `json:"mean,omitempty"`
	Std            *float64 `json:"std,omitempty"`
	Count          int      `json:"count"`
	CompendiumMean *float64 `json:"compendium_mean,omitempty"`
	CompendiumStd  *float64 `json:"compendium_std,omitempty"`
	PValue         *float64 `json:"p_value,omitempty"`
	EffectSize     *float64 `json:"effect_size,omitempty"`
	Message        string   `json:"message,omitempty"`
}

// OmicsItem is one omics entry in a top-10 or outlier list.
type OmicsItem struct {
	ID            string            `json:"id"`
	MeanAbundance float64           `json:"mean_abundance"`
	StdAbundance  float64           `json:"std_abundance"`
	SampleCount   int               `json:"sample_count"`
	Meta          map[string]string `json:"meta,omitempty"`
	Comparison    *Comparison       `json:"comparison,omitempty"`
}

// TaxonItem is one taxon entry in a top-10 or outlier list.
type TaxonItem struct {
	ID               string      `json:"id"`
	Rank             Rank        `json:"rank"`
	MeanAbundance    float64     `json:"mean_abundance"`
	StdAbundance     float64     `json:"std_abundance"`
	SampleCount      int         `json:"sample_count"`
	MeanSpeciesCount *float64    `json:"mean_species_count,omitempty"`
	StdSpeciesCount  *float64    `json:"std_species_count,omitempty"`
	Comparison       *Comparison `json:"comparison,omitempty"`
}

// CategoryStatus records why a whole category (one omics type or one
// classifier) was degraded to an empty result.
type CategoryStatus struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// OmicsResult groups the omics top-10 and outlier lists per omics type.
type OmicsResult struct {
	Top10    map[OmicsType][]OmicsItem    `json:"top10"`
	Outliers map[OmicsType][]OmicsItem    `json:"outliers"`
	Status   map[OmicsType]CategoryStatus `json:"status,omitempty"`
}

// TaxonomicResult groups taxonomic top-10 and outlier lists per classifier
// and rank.
type TaxonomicResult struct {
	Top10    map[Classifier]map[Rank][]TaxonItem `json:"top10"`
	Outliers map[Classifier]map[Rank][]TaxonItem `json:"outliers"`
	Status   map[Classifier]CategoryStatus       `json:"status,omitempty"`
}

// EcosystemProfile summarises a study's ecosystem label distribution.
type EcosystemProfile struct {
	ValueCounts map[string]map[string]int `json:"value_counts,omitempty"`
	MostCommon  map[string]string         `json:"most_common,omitempty"`
}

// StudyTimeline reports the collection date range covered by a study.
type StudyTimeline struct {
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	SampleCount int        `json:"sample_count"`
}

// StudyAnalysisResult is the full per-study analysis artifact persisted by
// the cache and consumed by the UI and summary collaborators.
type StudyAnalysisResult struct {
	StudyID     string                            `json:"study_id"`
	DataVersion string                            `json:"data_version"`
	ComputedAt  time.Time                         `json:"computed_at"`
	Physical    map[string]PhysicalVariableResult `json:"physical"`
	Omics       OmicsResult                       `json:"omics"`
	Taxonomic   TaxonomicResult                   `json:"taxonomic"`
	Ecosystem   EcosystemProfile                  `json:"ecosystem"`
	Timeline    StudyTimeline                     `json:"timeline"`
}

const topListLimit = 10

// Validate checks structural invariants before the result crosses the
// serialization boundary: statuses are legal, top-10 lists never exceed ten
// entries, comparison fields accompany ok statuses only where populated.
func (r StudyAnalysisResult) Validate() error {
	if r.StudyID == "" {
		return fmt.Errorf("analysis result: empty study id")
	}
	if r.DataVersion == "" {
		return fmt.Errorf("analysis result %s: empty data version", r.StudyID)
	}
	for variable, pv := range r.Physical {
		if !pv.Status.valid() {
			return fmt.Errorf("analysis result %s: physical %s: invalid status %q", r.StudyID, variable, pv.Status)
		}
		if pv.Status != StatusOK && pv.PValue != nil {
			return fmt.Errorf("analysis result %s: physical %s: p_value populated with status %q", r.StudyID, variable, pv.Status)
		}
	}
	for t, items := range r.Omics.Top10 {
		if len(items) > topListLimit {
			return fmt.Errorf("analysis result %s: omics %s top10 has %d entries", r.StudyID, t, len(items))
		}
	}
	for t, items := range r.Omics.Outliers {
		for _, item := range items {
			if item.Comparison == nil {
				return fmt.Errorf("analysis result %s: omics %s outlier %s missing comparison", r.StudyID, t, item.ID)
			}
		}
	}
	for c, byRank := range r.Taxonomic.Top10 {
		for rank, items := range byRank {
			if len(items) > topListLimit {
				return fmt.Errorf("analysis result %s: taxonomic %s %s top10 has %d entries", r.StudyID, c, rank, len(items))
			}
		}
	}
	for c, byRank := range r.Taxonomic.Outliers {
		for rank, items := range byRank {
			for _, item := range items {
				if item.Comparison == nil {
					return fmt.Errorf("analysis result %s: taxonomic %s %s outlier %s missing comparison", r.StudyID, c, rank, item.ID)
				}
			}
		}
	}
	return nil
}
