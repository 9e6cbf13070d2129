package summary

import (
	"context"
	"math"
	"testing"

	"cdmcore/internal/tablestore"
	"cdmcore/pkg/domain"
	"cdmcore/testutil"
)

func TestSummarizeFixture(t *testing.T) {
	out, err := Summarize(context.Background(), testutil.SeedCompendium("v3"))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out.DataVersion != "v3" {
		t.Fatalf("data version = %q", out.DataVersion)
	}
	if out.TotalStudies != 2 || out.TotalSamples != 7 {
		t.Fatalf("totals = %d studies, %d samples", out.TotalStudies, out.TotalSamples)
	}

	sc := out.SampleCounts
	if math.Abs(sc.Mean-3.5) > 1e-9 || sc.Min != 3 || sc.Max != 4 {
		t.Fatalf("sample count stats = %+v", sc)
	}
	if sc.Median != 3 {
		t.Fatalf("median = %v, want lower empirical quantile 3", sc.Median)
	}

	dr := out.DateRange
	if dr.Start == nil || dr.End == nil {
		t.Fatalf("date range = %+v", dr)
	}
	if dr.Start.Year() != 2021 || dr.End.Year() != 2022 {
		t.Fatalf("date range = %v .. %v", dr.Start, dr.End)
	}

	if out.MeasurementCoverage[domain.MeasurementMetagenomics] != 2 {
		t.Fatalf("measurement coverage = %+v", out.MeasurementCoverage)
	}
	if out.MeasurementCoverage[domain.MeasurementMetabolomics] != 1 {
		t.Fatalf("measurement coverage = %+v", out.MeasurementCoverage)
	}

	if out.EcosystemDistribution["ecosystem_category"]["Aquatic"] != 3 {
		t.Fatalf("ecosystem distribution = %+v", out.EcosystemDistribution)
	}
}

func TestSummarizeTimeSeriesAndGeo(t *testing.T) {
	out, err := Summarize(context.Background(), testutil.SeedCompendium("v1"))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	// Dated samples: 2021-03, 2021-04, 2021-05, 2022-02 x2.
	if len(out.TimeSeries) != 4 {
		t.Fatalf("time series = %+v", out.TimeSeries)
	}
	if out.TimeSeries[0].Month != "2021-03" || out.TimeSeries[0].Count != 1 {
		t.Fatalf("first point = %+v", out.TimeSeries[0])
	}
	last := out.TimeSeries[len(out.TimeSeries)-1]
	if last.Month != "2022-02" || last.Count != 2 {
		t.Fatalf("last point = %+v", last)
	}
	for i := 1; i < len(out.TimeSeries); i++ {
		if out.TimeSeries[i-1].Month >= out.TimeSeries[i].Month {
			t.Fatalf("time series out of order: %+v", out.TimeSeries)
		}
	}

	if len(out.Geographic) != 1 {
		t.Fatalf("geo buckets = %+v", out.Geographic)
	}
	g := out.Geographic[0]
	if g.StudyID != "STY-001" || g.SampleCount != 2 || g.Latitude != 44.5 {
		t.Fatalf("geo bucket = %+v", g)
	}
}

func TestSummarizeCoverage(t *testing.T) {
	out, err := Summarize(context.Background(), testutil.SeedCompendium("v1"))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(out.Coverage) != 2 {
		t.Fatalf("coverage = %+v", out.Coverage)
	}
	a := out.Coverage[0]
	if a.StudyID != "STY-001" || a.TotalSamples != 3 {
		t.Fatalf("coverage[0] = %+v", a)
	}
	if a.Omics[domain.OmicsMetabolomics] != 3 {
		t.Fatalf("omics coverage = %+v", a.Omics)
	}
	if a.Taxonomic[domain.ClassifierKraken] != 3 || a.Taxonomic[domain.ClassifierCentrifuge] != 2 {
		t.Fatalf("taxonomic coverage = %+v", a.Taxonomic)
	}
	if a.Physical["temperature"] != 3 || a.Physical["ph"] != 1 {
		t.Fatalf("physical coverage = %+v", a.Physical)
	}

	b := out.Coverage[1]
	if b.StudyID != "STY-002" || b.TotalSamples != 4 {
		t.Fatalf("coverage[1] = %+v", b)
	}
	if b.Omics[domain.OmicsMetabolomics] != 4 {
		t.Fatalf("omics coverage = %+v", b.Omics)
	}
	if b.Taxonomic[domain.ClassifierCentrifuge] != 1 {
		t.Fatalf("taxonomic coverage = %+v", b.Taxonomic)
	}
}

func TestSummarizeEmptyCompendium(t *testing.T) {
	out, err := Summarize(context.Background(), tablestore.NewMemory("v0"))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out.TotalStudies != 0 || out.TotalSamples != 0 {
		t.Fatalf("totals = %+v", out)
	}
	if out.TimeSeries != nil || out.Geographic != nil || out.Coverage != nil {
		t.Fatalf("empty compendium produced optional sections: %+v", out)
	}
}
