package baseline

import (
	"context"
	"math"
	"reflect"
	"testing"

	"cdmcore/internal/tablestore"
	"cdmcore/pkg/domain"
	"cdmcore/testutil"
)

func TestBuildAggregatesAllCategories(t *testing.T) {
	tables := testutil.SeedCompendium("v1")
	base, err := Build(context.Background(), tables)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if base.DataVersion != "v1" {
		t.Fatalf("data version = %q", base.DataVersion)
	}

	temp, ok := base.Physical["temperature"]
	if !ok {
		t.Fatalf("temperature baseline missing; have %v", keysOf(base.Physical))
	}
	if temp.NoData {
		t.Fatalf("temperature marked no_data with %d values", temp.Stats.Count)
	}
	if temp.Stats.Count != 7 {
		t.Fatalf("temperature count = %d, want 7", temp.Stats.Count)
	}
	// 18,20,22,10,12,14,16
	if math.Abs(temp.Stats.Mean-16) > 1e-9 {
		t.Fatalf("temperature mean = %v, want 16", temp.Stats.Mean)
	}

	// depth has a single sample, and it is non-numeric, so no baseline entry.
	if _, ok := base.Physical["depth"]; ok {
		t.Fatalf("non-numeric variable made it into the baseline")
	}
	ph, ok := base.Physical["ph"]
	if !ok || ph.NoData || ph.Stats.Count != 2 {
		t.Fatalf("ph baseline = %+v ok=%v", ph, ok)
	}

	items, ok := base.Omics[domain.OmicsMetabolomics]
	if !ok {
		t.Fatalf("metabolomics baseline missing")
	}
	if ib := items["M-001"]; ib.Stats.Count != 7 || ib.Meta["name"] != "glucose" {
		t.Fatalf("M-001 baseline = %+v", ib)
	}
	if ib := items["M-002"]; ib.Stats.Count != 2 {
		t.Fatalf("M-002 baseline = %+v", ib)
	}
	if _, ok := base.Omics[domain.OmicsLipidomics]; ok {
		t.Fatalf("absent omics table produced a baseline category")
	}

	kraken, ok := base.Taxa[domain.ClassifierKraken]
	if !ok {
		t.Fatalf("kraken baseline missing")
	}
	proteo := kraken[domain.RankPhylum]["k__Bacteria;p__Proteobacteria"]
	if proteo.Stats.Count != 7 {
		t.Fatalf("proteobacteria count = %d, want 7", proteo.Stats.Count)
	}
	if proteo.Species != nil {
		t.Fatalf("kraken must not track species counts")
	}

	centrifuge := base.Taxa[domain.ClassifierCentrifuge]
	thermus := centrifuge[domain.RankGenus]["k__Bacteria;p__Proteobacteria;g__Thermus"]
	if thermus.Species == nil || thermus.Species.Count != 3 {
		t.Fatalf("centrifuge species summary = %+v", thermus.Species)
	}
	if _, ok := base.Taxa[domain.ClassifierGottcha]; ok {
		t.Fatalf("absent rollup table produced a baseline category")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	tables := testutil.SeedCompendium("v1")
	first, err := Build(context.Background(), tables)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := Build(context.Background(), tables)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("rebuild differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, testutil.SeedCompendium("v1")); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestBuildEmptyCompendium(t *testing.T) {
	base, err := Build(context.Background(), tablestore.NewMemory("v0"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(base.Physical) != 0 || len(base.Omics) != 0 || len(base.Taxa) != 0 {
		t.Fatalf("empty compendium baseline = %+v", base)
	}
}

func keysOf(m map[string]VariableBaseline) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
