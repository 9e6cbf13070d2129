// Package sqlite reads a compendium snapshot produced by the columnar data
// collaborator from a single SQLite file. The store is read-only: analyses
// never write back, and a new data version means a new snapshot file.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cdmcore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Store streams tables out of a snapshot database. Each iterator call runs
// its own ordered query, so large tables are never held in memory.
type Store struct {
	db          *sql.DB
	version     string
	omics       map[domain.OmicsType]bool
	classifiers map[domain.Classifier]bool
}

// NewStore opens the snapshot at path (default cdm.db), reads the data
// version stamp, and records which abundance and rollup tables are present.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "cdm.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	row := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'data_version'`)
	if err := row.Scan(&s.version); err != nil {
		return fmt.Errorf("read data_version: %w", err)
	}
	s.omics = make(map[domain.OmicsType]bool)
	rows, err := s.db.Query(`SELECT DISTINCT omics FROM abundance`)
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
	crows, err := s.db.Query(`SELECT DISTINCT classifier FROM taxa`)
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

// Bootstrap creates the snapshot schema on db. Exported for the ingestion
// collaborator and tests that seed fixture snapshots.
func Bootstrap(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS studies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			sample_count INTEGER NOT NULL DEFAULT 0,
			added_at TEXT,
			measurements TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS samples (
			id TEXT PRIMARY KEY,
			study_id TEXT NOT NULL,
			collection_date TEXT,
			latitude REAL,
			longitude REAL,
			ecosystem TEXT,
			ecosystem_category TEXT,
			ecosystem_type TEXT,
			ecosystem_subtype TEXT,
			specific_ecosystem TEXT,
			physical TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS samples_study ON samples(study_id)`,
		`CREATE TABLE IF NOT EXISTS abundance (
			omics TEXT NOT NULL,
			sample_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			abundance REAL NOT NULL,
			meta TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS abundance_omics ON abundance(omics, item_id, sample_id)`,
		`CREATE TABLE IF NOT EXISTS taxa (
			classifier TEXT NOT NULL,
			sample_id TEXT NOT NULL,
			rank TEXT NOT NULL,
			taxon_id TEXT,
			lineage TEXT,
			label TEXT,
			abundance REAL NOT NULL,
			species_count REAL,
			read_count REAL
		)`,
		`CREATE INDEX IF NOT EXISTS taxa_classifier ON taxa(classifier, rank)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

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
	rows, err := s.db.Query(`SELECT id, name, description, sample_count, added_at, measurements FROM studies WHERE id = ?`, id)
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
		FROM samples WHERE study_id = ? ORDER BY id`, []any{studyID}, func(sample domain.Sample) error {
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
			date                                   sql.NullString
			lat, lon                               sql.NullFloat64
			eco, cat, typ, sub, specific, physical sql.NullString
		)
		if err := rows.Scan(&sample.ID, &sample.StudyID, &date, &lat, &lon, &eco, &cat, &typ, &sub, &specific, &physical); err != nil {
			return fmt.Errorf("scan sample: %w", err)
		}
		if date.Valid {
			ts, err := time.Parse(time.RFC3339, date.String)
			if err != nil {
				return fmt.Errorf("sample %s: parse collection_date: %w", sample.ID, err)
			}
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
	rows, err := s.db.Query(`SELECT sample_id, item_id, abundance, meta FROM abundance WHERE omics = ? ORDER BY item_id, sample_id`, string(t))
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
		FROM taxa WHERE classifier = ? ORDER BY rank, lineage, label, sample_id`, string(c))
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
		study               domain.Study
		desc, added, measys sql.NullString
	)
	if err := rows.Scan(&study.ID, &study.Name, &desc, &study.SampleCount, &added, &measys); err != nil {
		return domain.Study{}, fmt.Errorf("scan study: %w", err)
	}
	study.Description = desc.String
	if added.Valid {
		ts, err := time.Parse(time.RFC3339, added.String)
		if err != nil {
			return domain.Study{}, fmt.Errorf("study %s: parse added_at: %w", study.ID, err)
		}
		study.AddedAt = &ts
	}
	if measys.Valid && measys.String != "" {
		if err := json.Unmarshal([]byte(measys.String), &study.Measurements); err != nil {
			return domain.Study{}, fmt.Errorf("study %s: decode measurements: %w", study.ID, err)
		}
	}
	return study, nil
}
