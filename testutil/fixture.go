package testutil

import (
	"time"

	"cdmcore/internal/tablestore"
	"cdmcore/pkg/domain"
)

// Float returns a pointer to v. Fixture convenience.
func Float(v float64) *float64 { return &v }

// Date returns a pointer to a UTC midnight timestamp.
func Date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

// SeedCompendium builds a small in-memory compendium used by analysis and
// engine tests: two studies, a metabolomics table, and kraken + centrifuge
// rollups. Lipidomics, proteomics, gottcha, and contigs tables are absent so
// degradation paths are exercised.
func SeedCompendium(version string) *tablestore.Memory {
	m := tablestore.NewMemory(version)

	m.AddStudy(domain.Study{
		ID:           "STY-001",
		Name:         "Warm spring sediments",
		AddedAt:      Date(2021, time.June, 1),
		Measurements: []domain.MeasurementType{domain.MeasurementMetagenomics, domain.MeasurementMetabolomics},
	})
	m.AddStudy(domain.Study{
		ID:           "STY-002",
		Name:         "Cold lake transect",
		AddedAt:      Date(2022, time.January, 15),
		Measurements: []domain.MeasurementType{domain.MeasurementMetagenomics},
	})

	eco := domain.EcosystemLabels{Ecosystem: "Environmental", Category: "Aquatic", Type: "Freshwater"}
	m.AddSamples(
		domain.Sample{
			ID: "S-A1", StudyID: "STY-001",
			CollectionDate: Date(2021, time.March, 10),
			Latitude:       Float(44.5), Longitude: Float(-110.8),
			Ecosystem: eco,
			Physical:  map[string]string{"temperature": "18", "depth": "surface"},
		},
		domain.Sample{
			ID: "S-A2", StudyID: "STY-001",
			CollectionDate: Date(2021, time.April, 12),
			Latitude:       Float(44.5), Longitude: Float(-110.8),
			Ecosystem: eco,
			Physical:  map[string]string{"temperature": "20", "ph": "7.1"},
		},
		domain.Sample{
			ID: "S-A3", StudyID: "STY-001",
			CollectionDate: Date(2021, time.May, 9),
			Ecosystem:      eco,
			Physical:       map[string]string{"temperature": "22"},
		},
		domain.Sample{
			ID: "S-B1", StudyID: "STY-002",
			CollectionDate: Date(2022, time.February, 1),
			Physical:       map[string]string{"temperature": "10"},
		},
		domain.Sample{
			ID: "S-B2", StudyID: "STY-002",
			CollectionDate: Date(2022, time.February, 2),
			Physical:       map[string]string{"temperature": "12"},
		},
		domain.Sample{
			ID: "S-B3", StudyID: "STY-002",
			Physical: map[string]string{"temperature": "14"},
		},
		domain.Sample{
			ID: "S-B4", StudyID: "STY-002",
			Physical: map[string]string{"temperature": "16", "ph": "6.8"},
		},
	)

	m.SetAbundance(domain.OmicsMetabolomics, []domain.AbundanceRecord{
		{SampleID: "S-A1", ItemID: "M-001", Abundance: 100, Meta: map[string]string{"name": "glucose"}},
		{SampleID: "S-A2", ItemID: "M-001", Abundance: 110, Meta: map[string]string{"name": "glucose"}},
		{SampleID: "S-A3", ItemID: "M-001", Abundance: 120, Meta: map[string]string{"name": "glucose"}},
		{SampleID: "S-B1", ItemID: "M-001", Abundance: 10},
		{SampleID: "S-B2", ItemID: "M-001", Abundance: 12},
		{SampleID: "S-B3", ItemID: "M-001", Abundance: 11},
		{SampleID: "S-B4", ItemID: "M-001", Abundance: 13},
		{SampleID: "S-A1", ItemID: "M-002", Abundance: 5},
		{SampleID: "S-A2", ItemID: "M-002", Abundance: 6},
	})

	proteo := "k__Bacteria;p__Proteobacteria"
	firmi := "k__Bacteria;p__Firmicutes"
	m.SetTaxa(domain.ClassifierKraken, []domain.TaxonomicRecord{
		{SampleID: "S-A1", Rank: domain.RankPhylum, Lineage: proteo, Abundance: 0.60},
		{SampleID: "S-A2", Rank: domain.RankPhylum, Lineage: proteo, Abundance: 0.62},
		{SampleID: "S-A3", Rank: domain.RankPhylum, Lineage: proteo, Abundance: 0.64},
		{SampleID: "S-B1", Rank: domain.RankPhylum, Lineage: proteo, Abundance: 0.20},
		{SampleID: "S-B2", Rank: domain.RankPhylum, Lineage: proteo, Abundance: 0.22},
		{SampleID: "S-B3", Rank: domain.RankPhylum, Lineage: proteo, Abundance: 0.21},
		{SampleID: "S-B4", Rank: domain.RankPhylum, Lineage: proteo, Abundance: 0.23},
		{SampleID: "S-A1", Rank: domain.RankPhylum, Lineage: firmi, Abundance: 0.10},
		{SampleID: "S-B1", Rank: domain.RankPhylum, Lineage: firmi, Abundance: 0.30},
		{SampleID: "S-B2", Rank: domain.RankPhylum, Lineage: firmi, Abundance: 0.32},
	})
	m.SetTaxa(domain.ClassifierCentrifuge, []domain.TaxonomicRecord{
		{SampleID: "S-A1", Rank: domain.RankGenus, Lineage: proteo + ";g__Thermus", Abundance: 0.40, SpeciesCount: Float(3)},
		{SampleID: "S-A2", Rank: domain.RankGenus, Lineage: proteo + ";g__Thermus", Abundance: 0.42, SpeciesCount: Float(4)},
		{SampleID: "S-B1", Rank: domain.RankGenus, Lineage: proteo + ";g__Thermus", Abundance: 0.15, SpeciesCount: Float(2)},
	})

	return m
}
