// Package domain defines the entities, result payloads, and error taxonomy
// shared by the compendium analysis engine and its storage backends.
package domain

import "time"

// OmicsType identifies an omics abundance category.
type OmicsType string

// Supported omics abundance categories.
const (
	// OmicsMetabolomics identifies metabolite peak-area abundance records.
	OmicsMetabolomics OmicsType = "metabolomics"
	// OmicsLipidomics identifies lipid area abundance records.
	OmicsLipidomics OmicsType = "lipidomics"
	// OmicsProteomics identifies protein peptide-abundance records.
	OmicsProteomics OmicsType = "proteomics"
)

// OmicsTypes returns the omics categories in canonical order.
func OmicsTypes() []OmicsType {
	return []OmicsType{OmicsMetabolomics, OmicsLipidomics, OmicsProteomics}
}

// Classifier identifies a taxonomic classification pipeline whose rollup
// table is part of the compendium.
type Classifier string

// Supported taxonomic classifiers.
const (
	ClassifierKraken     Classifier = "kraken"
	ClassifierCentrifuge Classifier = "centrifuge"
	ClassifierGottcha    Classifier = "gottcha"
	ClassifierContigs    Classifier = "contigs"
)

// Classifiers returns the classifiers in canonical order.
func Classifiers() []Classifier {
	return []Classifier{ClassifierGottcha, ClassifierKraken, ClassifierCentrifuge, ClassifierContigs}
}

// UsesLabelKey reports whether the classifier keys taxa by a flat label
// rather than a lineage string.
func (c Classifier) UsesLabelKey() bool { return c == ClassifierGottcha }

// TracksSpeciesCounts reports whether per-sample species counts are
// aggregated for the classifier.
func (c Classifier) TracksSpeciesCounts() bool {
	return c == ClassifierCentrifuge || c == ClassifierContigs
}

// Rank is a taxonomic rank recognised by the rollup tables.
type Rank string

// Taxonomic ranks ordered from broadest to most specific.
const (
	RankSuperkingdom Rank = "superkingdom"
	RankPhylum       Rank = "phylum"
	RankClass        Rank = "class"
	RankOrder        Rank = "order"
	RankFamily       Rank = "family"
	RankGenus        Rank = "genus"
	RankSpecies      Rank = "species"
)

// Ranks returns the valid ranks in rollup order.
func Ranks() []Rank {
	return []Rank{RankSuperkingdom, RankPhylum, RankClass, RankOrder, RankFamily, RankGenus, RankSpecies}
}

// TableName identifies an input table provided by the columnar collaborator.
type TableName string

// Core input tables.
const (
	TableSamples TableName = "samples"
	TableStudies TableName = "studies"
)

// AbundanceTable returns the table name holding records for an omics type.
func AbundanceTable(t OmicsType) TableName { return TableName("abundance_" + string(t)) }

// TaxonomicTable returns the rollup table name for a classifier.
func TaxonomicTable(c Classifier) TableName { return TableName("taxa_" + string(c)) }

// MeasurementType identifies a processed measurement category flagged on a study.
type MeasurementType string

// Measurement categories carried on study metadata.
const (
	MeasurementMetagenomics        MeasurementType = "metagenomics"
	MeasurementMetatranscriptomics MeasurementType = "metatranscriptomics"
	MeasurementProteomics          MeasurementType = "proteomics"
	MeasurementMetabolomics        MeasurementType = "metabolomics"
	MeasurementLipidomics          MeasurementType = "lipidomics"
)

// EcosystemLabels carries the hierarchical ecosystem classification of a sample.
type EcosystemLabels struct {
	Ecosystem string `json:"ecosystem,omitempty"`
	Category  string `json:"ecosystem_category,omitempty"`
	Type      string `json:"ecosystem_type,omitempty"`
	Subtype   string `json:"ecosystem_subtype,omitempty"`
	Specific  string `json:"specific_ecosystem,omitempty"`
}

// Fields returns the label values keyed by their canonical column names.
func (e EcosystemLabels) Fields() map[string]string {
	return map[string]string{
		"ecosystem":          e.Ecosystem,
		"ecosystem_category": e.Category,
		"ecosystem_type":     e.Type,
		"ecosystem_subtype":  e.Subtype,
		"specific_ecosystem": e.Specific,
	}
}

// Sample is a single collected sample. Immutable for the lifetime of a data
// version; physical variable values are kept raw because the collaborator's
// columns are loosely typed and coercion failures must surface per variable.
type Sample struct {
	ID             string            `json:"id"`
	StudyID        string            `json:"study_id"`
	CollectionDate *time.Time        `json:"collection_date,omitempty"`
	Latitude       *float64          `json:"latitude,omitempty"`
	Longitude      *float64          `json:"longitude,omitempty"`
	Ecosystem      EcosystemLabels   `json:"ecosystem_labels"`
	Physical       map[string]string `json:"physical,omitempty"`
}

// HasLocation reports whether the sample carries coordinates.
func (s Sample) HasLocation() bool { return s.Latitude != nil && s.Longitude != nil }

// Study is per-study metadata. Immutable per data version.
type Study struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	SampleCount  int               `json:"sample_count"`
	AddedAt      *time.Time        `json:"added_at,omitempty"`
	Measurements []MeasurementType `json:"measurements,omitempty"`
}

// AbundanceRecord is one omics observation: an item measured in a sample.
type AbundanceRecord struct {
	SampleID  string            `json:"sample_id"`
	ItemID    string            `json:"item_id"`
	Abundance float64           `json:"abundance"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// TaxonomicRecord is one classifier rollup row: a taxon observed in a sample
// at a given rank. Lineage is set for lineage-keyed classifiers, Label for
// gottcha. SpeciesCount and ReadCount are classifier-specific auxiliaries.
type TaxonomicRecord struct {
	SampleID     string   `json:"sample_id"`
	Rank         Rank     `json:"rank"`
	TaxonID      string   `json:"taxon_id,omitempty"`
	Lineage      string   `json:"lineage,omitempty"`
	Label        string   `json:"label,omitempty"`
	Abundance    float64  `json:"abundance"`
	SpeciesCount *float64 `json:"species_count,omitempty"`
	ReadCount    *float64 `json:"read_count,omitempty"`
}

// Key returns the aggregation key for the record under the given classifier:
// the flat label for gottcha, the lineage string otherwise.
func (r TaxonomicRecord) Key(c Classifier) string {
	if c.UsesLabelKey() {
		return r.Label
	}
	return r.Lineage
}
