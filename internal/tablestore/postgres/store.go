// Package postgres reads a compendium snapshot from a shared PostgreSQL
// database. Schema and ordering match the sqlite backend so the two are
// interchangeable behind the tables interface.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"cdmcore/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// sqlOpen is swappable so tests can inject a fake connection.
var sqlOpen = sql.Open

// OverrideSQLOpen replaces the connection opener and returns a restore
// function. Test hook only.
func OverrideSQLOpen(fn func(driverName, dsn string) (*sql.DB, error)) func() {
	prev := sqlOpen
	sqlOpen = fn
	return func() { sqlOpen = prev }
}

// Store streams tables out of a snapshot database.
type Store struct {
	db          *sql.DB
	version     string
	omics       map[domain.OmicsType]bool
	classifiers map[domain.Classifier]bool
}

// NewStore connects to dsn, verifies connectivity, reads the data version
// stamp, and records which tables are present.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: empty dsn")
	}
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'data_version'`)
	if err := row.Scan(&s.version); err != nil {
		return fmt.Errorf("read data_version: %w", err)
	}
	s.omics = make(map[domain.OmicsType]bool)
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT omics FROM abundance`)
	if err != nil {
		return fmt.Errorf("scan abundance presence: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		s.omics[domain.OmicsType(t)] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate abundance presence: %w", err)
	}
	s.classifiers = make(map[domain.Classifier]bool)
	crows, err := s.db.QueryContext(ctx, `SELECT DISTINCT classifier FROM taxa`)
	if err != nil {
		return fmt.Errorf("scan taxa presence: %w", err)
	}
	defer func() { _ = crows.Close() }()
	for crows.Next() {
		var c string
		if err := crows.Scan(&c); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		s.classifiers[domain.Classifier(c)] = true
	}
	if err := crows.Err(); err != nil {
		return fmt.Errorf("iterate taxa presence: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// DataVersion returns the snapshot's version stamp.
func (s *Store) DataVersion() string { return s.version }

// Studies lists all studies ordered by id.
func (s *Store) Studies() ([]domain.Study, error) {
	rows, err := s.db.Query(`SELECT id, name, description, sample_count, added_at, measurements FROM studies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select studies: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.Study
	for rows.Next() {
		study, err := scanStudy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, study)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate studies: %w", err)
	}
	return out, nil
}

// Study fetches one study.
func (s *Store) Study(id string) (domain.Study, error) {
	rows, err := s.db.Query(`SELECT id, name, description, sample_count, added_at, measurements FROM studies WHERE id = $1`, id)
	if err != nil {
		return domain.Study{}, fmt.Errorf("select study: %w", err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Study{}, fmt.Errorf("iterate study: %w", err)
		}
		return domain.Study{}, domain.NotFoundError{Table: domain.TableStudies, ID: id}
	}
	return scanStudy(rows)
}

// EachSample streams all samples ordered by id.
func (s *Store) EachSample(fn func(domain.Sample) error) error {
	return s.eachSampleQuery(`SELECT id, study_id, collection_date, latitude, longitude,
		ecosystem, ecosystem_category, ecosystem_type, ecosystem_subtype, specific_ecosystem, physical
		FROM samples ORDER BY id`, nil, fn)
}

// StudySamples returns all samples of one study ordered by id.
func (s *Store) StudySamples(studyID string) ([]domain.Sample, error) {
	var out []domain.Sample
	err := s.eachSampleQuery(`SELECT id, study_id, collection_date, latitude, longitude,
		ecosystem, ecosystem_category, ecosystem_type, ecosystem_subtype, specific_ecosystem, physical
		FROM samples WHERE study_id = $1 ORDER BY id`, []any{studyID}, func(sample domain.Sample) error {
		out = append(out, sample)
		return nil
	})
	return out, err
}

func (s *Store) eachSampleQuery(query string, args []any, fn func(domain.Sample) error) error {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("select samples: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			sample                                 domain.Sample
			date                                   sql.NullTime
			lat, lon                               sql.NullFloat64
			eco, cat, typ, sub, specific, physical sql.NullString
		)
		if err := rows.Scan(&sample.ID, &sample.StudyID, &date, &lat, &lon, &eco, &cat, &typ, &sub, &specific, &physical); err != nil {
			return fmt.Errorf("scan sample: %w", err)
		}
		if date.Valid {
			ts := date.Time.UTC()
			sample.CollectionDate = &ts
		}
		if lat.Valid {
			v := lat.Float64
			sample.Latitude = &v
		}
		if lon.Valid {
			v := lon.Float64
			sample.Longitude = &v
		}
		sample.Ecosystem = domain.EcosystemLabels{
			Ecosystem: eco.String,
			Category:  cat.String,
			Type:      typ.String,
			Subtype:   sub.String,
			Specific:  specific.String,
		}
		if physical.Valid && physical.String != "" {
			if err := json.Unmarshal([]byte(physical.String), &sample.Physical); err != nil {
				return fmt.Errorf("sample %s: decode physical: %w", sample.ID, err)
			}
		}
		if err := fn(sample); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate samples: %w", err)
	}
	return nil
}

// EachAbundance streams abundance records for one omics type ordered by
// (item_id, sample_id).
func (s *Store) EachAbundance(t domain.OmicsType, fn func(domain.AbundanceRecord) error) error {
	if !s.omics[t] {
		return domain.DataUnavailableError{Table: domain.AbundanceTable(t)}
	}
	rows, err := s.db.Query(`SELECT sample_id, item_id, abundance, meta FROM abundance WHERE omics = $1 ORDER BY item_id, sample_id`, string(t))
	if err != nil {
		return fmt.Errorf("select abundance: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			rec  domain.AbundanceRecord
			meta sql.NullString
		)
		if err := rows.Scan(&rec.SampleID, &rec.ItemID, &rec.Abundance, &meta); err != nil {
			return fmt.Errorf("scan abundance: %w", err)
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &rec.Meta); err != nil {
				return fmt.Errorf("abundance %s/%s: decode meta: %w", rec.SampleID, rec.ItemID, err)
			}
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate abundance: %w", err)
	}
	return nil
}

// EachTaxon streams rollup records for one classifier ordered by
// (rank, lineage, label, sample_id).
func (s *Store) EachTaxon(c domain.Classifier, fn func(domain.TaxonomicRecord) error) error {
	if !s.classifiers[c] {
		return domain.DataUnavailableError{Table: domain.TaxonomicTable(c)}
	}
	rows, err := s.db.Query(`SELECT sample_id, rank, taxon_id, lineage, label, abundance, species_count, read_count
		FROM taxa WHERE classifier = $1 ORDER BY rank, lineage, label, sample_id`, string(c))
	if err != nil {
		return fmt.Errorf("select taxa: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			rec                     domain.TaxonomicRecord
			rank                    string
			taxonID, lineage, label sql.NullString
			species, reads          sql.NullFloat64
		)
		if err := rows.Scan(&rec.SampleID, &rank, &taxonID, &lineage, &label, &rec.Abundance, &species, &reads); err != nil {
			return fmt.Errorf("scan taxa: %w", err)
		}
		rec.Rank = domain.Rank(rank)
		rec.TaxonID = taxonID.String
		rec.Lineage = lineage.String
		rec.Label = label.String
		if species.Valid {
			v := species.Float64
			rec.SpeciesCount = &v
		}
		if reads.Valid {
			v := reads.Float64
			rec.ReadCount = &v
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate taxa: %w", err)
	}
	return nil
}

func scanStudy(rows *sql.Rows) (domain.Study, error) {
	var (
		study        domain.Study
		desc, measys sql.NullString
		added        sql.NullTime
	)
	if err := rows.Scan(&study.ID, &study.Name, &desc, &study.SampleCount, &added, &measys); err != nil {
		return domain.Study{}, fmt.Errorf("scan study: %w", err)
	}
	study.Description = desc.String
	if added.Valid {
		ts := added.Time.UTC()
		study.AddedAt = &ts
	}
	if measys.Valid && measys.String != "" {
		if err := json.Unmarshal([]byte(measys.String), &study.Measurements); err != nil {
			return domain.Study{}, fmt.Errorf("study %s: decode measurements: %w", study.ID, err)
		}
	}
	return study, nil
}
