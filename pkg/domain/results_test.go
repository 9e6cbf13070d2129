package domain

import (
	"strings"
	"testing"
	"time"
)

func validResult() StudyAnalysisResult {
	p := 0.01
	mean := 20.0
	return StudyAnalysisResult{
		StudyID:     "STY-001",
		DataVersion: "v1",
		ComputedAt:  time.Now().UTC(),
		Physical: map[string]PhysicalVariableResult{
			"temperature": {Status: StatusOK, Mean: &mean, Count: 3, PValue: &p},
		},
		Omics: OmicsResult{
			Top10: map[OmicsType][]OmicsItem{
				OmicsMetabolomics: {{ID: "M-001", MeanAbundance: 10}},
			},
			Outliers: map[OmicsType][]OmicsItem{
				OmicsMetabolomics: {{ID: "M-001", Comparison: &Comparison{PValue: 0.01, EffectSize: 1, Direction: DirectionHigher}}},
			},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validResult().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*StudyAnalysisResult)
		wantSub string
	}{
		{
			"empty study id",
			func(r *StudyAnalysisResult) { r.StudyID = "" },
			"empty study id",
		},
		{
			"empty data version",
			func(r *StudyAnalysisResult) { r.DataVersion = "" },
			"empty data version",
		},
		{
			"invalid status",
			func(r *StudyAnalysisResult) {
				r.Physical["temperature"] = PhysicalVariableResult{Status: "unknown"}
			},
			"invalid status",
		},
		{
			"p-value without ok status",
			func(r *StudyAnalysisResult) {
				p := 0.5
				r.Physical["temperature"] = PhysicalVariableResult{Status: StatusNoData, PValue: &p}
			},
			"p_value populated",
		},
		{
			"oversized top10",
			func(r *StudyAnalysisResult) {
				items := make([]OmicsItem, 11)
				r.Omics.Top10[OmicsMetabolomics] = items
			},
			"top10 has 11",
		},
		{
			"outlier without comparison",
			func(r *StudyAnalysisResult) {
				r.Omics.Outliers[OmicsMetabolomics] = []OmicsItem{{ID: "M-002"}}
			},
			"missing comparison",
		},
		{
			"taxonomic outlier without comparison",
			func(r *StudyAnalysisResult) {
				r.Taxonomic.Outliers = map[Classifier]map[Rank][]TaxonItem{
					ClassifierKraken: {RankPhylum: {{ID: "p__X"}}},
				}
			},
			"missing comparison",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validResult()
			tc.mutate(&r)
			err := r.Validate()
			if err == nil {
				t.Fatalf("Validate accepted %s", tc.name)
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("err = %v, want substring %q", err, tc.wantSub)
			}
		})
	}
}
