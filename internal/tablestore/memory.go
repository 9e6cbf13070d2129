package tablestore

import (
	"sort"

	"cdmcore/pkg/domain"
)

// Memory is an in-process Tables backend for tests and embedding. Tables for
// an omics type or classifier exist only once set, so absence behaves exactly
// like a missing collaborator file.
type Memory struct {
	version   string
	studies   map[string]domain.Study
	samples   []domain.Sample
	byStudy   map[string][]domain.Sample
	abundance map[domain.OmicsType][]domain.AbundanceRecord
	taxa      map[domain.Classifier][]domain.TaxonomicRecord
}

// NewMemory returns an empty in-memory backend for the given data version.
func NewMemory(version string) *Memory {
	return &Memory{
		version:   version,
		studies:   make(map[string]domain.Study),
		byStudy:   make(map[string][]domain.Sample),
		abundance: make(map[domain.OmicsType][]domain.AbundanceRecord),
		taxa:      make(map[domain.Classifier][]domain.TaxonomicRecord),
	}
}

// AddStudy registers study metadata.
func (m *Memory) AddStudy(study domain.Study) { m.studies[study.ID] = study }

// AddSamples appends samples; iteration follows sample id order regardless of
// insertion order.
func (m *Memory) AddSamples(samples ...domain.Sample) {
	m.samples = append(m.samples, samples...)
	sort.Slice(m.samples, func(i, j int) bool { return m.samples[i].ID < m.samples[j].ID })
	for _, s := range samples {
		m.byStudy[s.StudyID] = append(m.byStudy[s.StudyID], s)
	}
	for id := range m.byStudy {
		group := m.byStudy[id]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
	}
}

// SetAbundance installs the abundance table for an omics type. An installed
// empty slice still counts as a present table.
func (m *Memory) SetAbundance(t domain.OmicsType, records []domain.AbundanceRecord) {
	sorted := append([]domain.AbundanceRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ItemID != sorted[j].ItemID {
			return sorted[i].ItemID < sorted[j].ItemID
		}
		return sorted[i].SampleID < sorted[j].SampleID
	})
	m.abundance[t] = sorted
}

// SetTaxa installs the rollup table for a classifier.
func (m *Memory) SetTaxa(c domain.Classifier, records []domain.TaxonomicRecord) {
	sorted := append([]domain.TaxonomicRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if ka, kb := a.Key(c), b.Key(c); ka != kb {
			return ka < kb
		}
		return a.SampleID < b.SampleID
	})
	m.taxa[c] = sorted
}

// DataVersion implements Tables.
func (m *Memory) DataVersion() string { return m.version }

// Studies implements Tables. Sample counts are derived from the sample table
// when the study metadata carries none.
func (m *Memory) Studies() ([]domain.Study, error) {
	out := make([]domain.Study, 0, len(m.studies))
	for _, study := range m.studies {
		if study.SampleCount == 0 {
			study.SampleCount = len(m.byStudy[study.ID])
		}
		out = append(out, study)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Study implements Tables.
func (m *Memory) Study(id string) (domain.Study, error) {
	study, ok := m.studies[id]
	if !ok {
		return domain.Study{}, domain.NotFoundError{Table: domain.TableStudies, ID: id}
	}
	if study.SampleCount == 0 {
		study.SampleCount = len(m.byStudy[id])
	}
	return study, nil
}

// EachSample implements Tables.
func (m *Memory) EachSample(fn func(domain.Sample) error) error {
	for _, s := range m.samples {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

// StudySamples implements Tables.
func (m *Memory) StudySamples(studyID string) ([]domain.Sample, error) {
	return append([]domain.Sample(nil), m.byStudy[studyID]...), nil
}

// EachAbundance implements Tables.
func (m *Memory) EachAbundance(t domain.OmicsType, fn func(domain.AbundanceRecord) error) error {
	records, ok := m.abundance[t]
	if !ok {
		return domain.DataUnavailableError{Table: domain.AbundanceTable(t)}
	}
	for _, r := range records {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// EachTaxon implements Tables.
func (m *Memory) EachTaxon(c domain.Classifier, fn func(domain.TaxonomicRecord) error) error {
	records, ok := m.taxa[c]
	if !ok {
		return domain.DataUnavailableError{Table: domain.TaxonomicTable(c)}
	}
	for _, r := range records {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

var _ Tables = (*Memory)(nil)
