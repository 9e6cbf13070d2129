// Package baseline aggregates the whole compendium into per-variable summary
// statistics. A baseline is built once per data version and shared read-only
// by every study analysis against that version.
package baseline

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"cdmcore/internal/stats"
	"cdmcore/internal/tablestore"
	"cdmcore/pkg/domain"
)

// VariableBaseline is the compendium-wide distribution of one physical
// variable. NoData marks fewer than two parseable values.
type VariableBaseline struct {
	Stats  stats.Summary
	NoData bool
}

// ItemBaseline is the compendium-wide distribution of one omics item.
type ItemBaseline struct {
	Stats stats.Summary
	Meta  map[string]string
}

// TaxonBaseline is the compendium-wide distribution of one taxon at one
// rank. Species is set only for classifiers that report species counts.
type TaxonBaseline struct {
	Stats   stats.Summary
	Species *stats.Summary
}

// Baseline holds population statistics for every physical variable, omics
// item, and (classifier, rank, taxon) in one data version. Categories whose
// input table was unavailable have a nil map; analyses degrade per category.
type Baseline struct {
	DataVersion string
	Physical    map[string]VariableBaseline
	Omics       map[domain.OmicsType]map[string]ItemBaseline
	Taxa        map[domain.Classifier]map[domain.Rank]map[string]TaxonBaseline
}

// Build aggregates all tables into a Baseline. Physical variables, each
// omics type, and each classifier are aggregated concurrently; a missing
// table skips its category, any other error aborts the build.
func Build(ctx context.Context, tables tablestore.Tables) (*Baseline, error) {
	b := &Baseline{
		DataVersion: tables.DataVersion(),
		Omics:       make(map[domain.OmicsType]map[string]ItemBaseline),
		Taxa:        make(map[domain.Classifier]map[domain.Rank]map[string]TaxonBaseline),
	}

	type omicsSlot struct {
		t     domain.OmicsType
		items map[string]ItemBaseline
	}
	type taxaSlot struct {
		c     domain.Classifier
		ranks map[domain.Rank]map[string]TaxonBaseline
	}
	omicsSlots := make([]omicsSlot, len(domain.OmicsTypes()))
	taxaSlots := make([]taxaSlot, len(domain.Classifiers()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		physical, err := buildPhysical(gctx, tables)
		if err != nil {
			return err
		}
		b.Physical = physical
		return nil
	})
	for i, t := range domain.OmicsTypes() {
		g.Go(func() error {
			items, err := buildOmics(gctx, tables, t)
			if err != nil {
				if domain.IsDataUnavailable(err) {
					return nil
				}
				return err
			}
			omicsSlots[i] = omicsSlot{t: t, items: items}
			return nil
		})
	}
	for i, c := range domain.Classifiers() {
		g.Go(func() error {
			ranks, err := buildTaxa(gctx, tables, c)
			if err != nil {
				if domain.IsDataUnavailable(err) {
					return nil
				}
				return err
			}
			taxaSlots[i] = taxaSlot{c: c, ranks: ranks}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, slot := range omicsSlots {
		if slot.items != nil {
			b.Omics[slot.t] = slot.items
		}
	}
	for _, slot := range taxaSlots {
		if slot.ranks != nil {
			b.Taxa[slot.c] = slot.ranks
		}
	}
	return b, nil
}

func buildPhysical(ctx context.Context, tables tablestore.Tables) (map[string]VariableBaseline, error) {
	acc := make(map[string]*stats.Accumulator)
	err := tables.EachSample(func(sample domain.Sample) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for variable, raw := range sample.Physical {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue // non-numeric values do not contribute
			}
			a, ok := acc[variable]
			if !ok {
				a = &stats.Accumulator{}
				acc[variable] = a
			}
			a.Add(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]VariableBaseline, len(acc))
	for variable, a := range acc {
		summary := a.Summary()
		out[variable] = VariableBaseline{Stats: summary, NoData: !summary.Usable()}
	}
	return out, nil
}

func buildOmics(ctx context.Context, tables tablestore.Tables, t domain.OmicsType) (map[string]ItemBaseline, error) {
	type slot struct {
		acc  stats.Accumulator
		meta map[string]string
	}
	acc := make(map[string]*slot)
	err := tables.EachAbundance(t, func(rec domain.AbundanceRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, ok := acc[rec.ItemID]
		if !ok {
			s = &slot{meta: rec.Meta}
			acc[rec.ItemID] = s
		}
		s.acc.Add(rec.Abundance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]ItemBaseline, len(acc))
	for id, s := range acc {
		out[id] = ItemBaseline{Stats: s.acc.Summary(), Meta: s.meta}
	}
	return out, nil
}

func buildTaxa(ctx context.Context, tables tablestore.Tables, c domain.Classifier) (map[domain.Rank]map[string]TaxonBaseline, error) {
	type slot struct {
		acc     stats.Accumulator
		species stats.Accumulator
	}
	acc := make(map[domain.Rank]map[string]*slot)
	err := tables.EachTaxon(c, func(rec domain.TaxonomicRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		byKey, ok := acc[rec.Rank]
		if !ok {
			byKey = make(map[string]*slot)
			acc[rec.Rank] = byKey
		}
		key := rec.Key(c)
		s, ok := byKey[key]
		if !ok {
			s = &slot{}
			byKey[key] = s
		}
		s.acc.Add(rec.Abundance)
		if rec.SpeciesCount != nil {
			s.species.Add(*rec.SpeciesCount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Rank]map[string]TaxonBaseline, len(acc))
	for rank, byKey := range acc {
		ranked := make(map[string]TaxonBaseline, len(byKey))
		for key, s := range byKey {
			tb := TaxonBaseline{Stats: s.acc.Summary()}
			if c.TracksSpeciesCounts() && s.species.N() > 0 {
				summary := s.species.Summary()
				tb.Species = &summary
			}
			ranked[key] = tb
		}
		out[rank] = ranked
	}
	return out, nil
}
