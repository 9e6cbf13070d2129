package domain

import "testing"

func TestTableNames(t *testing.T) {
	if AbundanceTable(OmicsMetabolomics) != "abundance_metabolomics" {
		t.Fatalf("abundance table = %s", AbundanceTable(OmicsMetabolomics))
	}
	if TaxonomicTable(ClassifierKraken) != "taxa_kraken" {
		t.Fatalf("rollup table = %s", TaxonomicTable(ClassifierKraken))
	}
}

func TestClassifierTraits(t *testing.T) {
	if !ClassifierGottcha.UsesLabelKey() {
		t.Fatalf("gottcha must key by label")
	}
	for _, c := range []Classifier{ClassifierKraken, ClassifierCentrifuge, ClassifierContigs} {
		if c.UsesLabelKey() {
			t.Fatalf("%s must key by lineage", c)
		}
	}
	for _, c := range Classifiers() {
		want := c == ClassifierCentrifuge || c == ClassifierContigs
		if c.TracksSpeciesCounts() != want {
			t.Fatalf("%s species tracking = %v", c, c.TracksSpeciesCounts())
		}
	}
}

func TestTaxonomicRecordKey(t *testing.T) {
	rec := TaxonomicRecord{Lineage: "k__B;p__P", Label: "Pseudomonas"}
	if rec.Key(ClassifierKraken) != "k__B;p__P" {
		t.Fatalf("kraken key = %s", rec.Key(ClassifierKraken))
	}
	if rec.Key(ClassifierGottcha) != "Pseudomonas" {
		t.Fatalf("gottcha key = %s", rec.Key(ClassifierGottcha))
	}
}

func TestEcosystemFields(t *testing.T) {
	e := EcosystemLabels{Ecosystem: "Environmental", Specific: "Hot spring"}
	fields := e.Fields()
	if fields["ecosystem"] != "Environmental" || fields["specific_ecosystem"] != "Hot spring" {
		t.Fatalf("fields = %v", fields)
	}
	if len(fields) != 5 {
		t.Fatalf("field count = %d", len(fields))
	}
}

func TestSampleHasLocation(t *testing.T) {
	lat, lon := 1.0, 2.0
	if (Sample{Latitude: &lat}).HasLocation() {
		t.Fatalf("latitude alone must not count as a location")
	}
	if !(Sample{Latitude: &lat, Longitude: &lon}).HasLocation() {
		t.Fatalf("full coordinates not detected")
	}
}
