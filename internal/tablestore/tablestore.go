// Package tablestore exposes the immutable input tables for a data version.
// Backends are read-only: a Tables handle is loaded once per data version and
// shared by every analysis without locking. Row access is iterator-based so
// aggregation can stream large tables instead of materializing them.
package tablestore

import (
	"cdmcore/pkg/domain"
)

// Tables is a read-only handle over one data version of the compendium.
//
// Iteration order is part of the contract: every backend yields rows in a
// stable, repeatable order for the same underlying data, which is what makes
// baseline rebuilds bit-identical.
type Tables interface {
	// DataVersion identifies the snapshot; cache entries are scoped to it.
	DataVersion() string
	// Studies lists all studies ordered by id.
	Studies() ([]domain.Study, error)
	// Study fetches one study or a domain.NotFoundError.
	Study(id string) (domain.Study, error)
	// EachSample streams every sample in the compendium ordered by id.
	EachSample(fn func(domain.Sample) error) error
	// StudySamples returns all samples of one study ordered by id.
	StudySamples(studyID string) ([]domain.Sample, error)
	// EachAbundance streams abundance records for one omics type.
	// Returns domain.DataUnavailableError when the table is absent.
	EachAbundance(t domain.OmicsType, fn func(domain.AbundanceRecord) error) error
	// EachTaxon streams taxonomic rollup records for one classifier.
	// Returns domain.DataUnavailableError when the table is absent.
	EachTaxon(c domain.Classifier, fn func(domain.TaxonomicRecord) error) error
}
