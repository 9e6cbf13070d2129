// Package engine wires the table store, baseline, analyzer, cache, and
// summary aggregator into a single instrumented facade.
package engine

import (
	"context"
	"log/slog"
	"time"

	"cdmcore/internal/analyzer"
	"cdmcore/internal/baseline"
	"cdmcore/internal/cache"
	"cdmcore/internal/logging"
	"cdmcore/internal/summary"
	"cdmcore/internal/tablestore"
	"cdmcore/pkg/domain"
)

// Service serves study analyses and compendium summaries over one data
// version. The baseline is built once at construction and shared read-only
// by every analysis.
type Service struct {
	tables     tablestore.Tables
	base       *baseline.Baseline
	analyzer   *analyzer.Analyzer
	cache      *cache.Cache
	thresholds analyzer.Thresholds
	metrics    MetricsRecorder
	tracer     Tracer
	log        *slog.Logger
}

// Option customises Service construction.
type Option func(*Service)

// WithMetricsRecorder installs a metrics sink.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithThresholds overrides the outlier thresholds.
func WithThresholds(t analyzer.Thresholds) Option {
	return func(s *Service) { s.thresholds = t }
}

// New builds the baseline for the tables' data version and returns a ready
// service. Baseline construction reads every input table; an unavailable
// category degrades analyses rather than failing construction.
func New(ctx context.Context, tables tablestore.Tables, kv cache.KV, opts ...Option) (*Service, error) {
	s := &Service{
		tables:  tables,
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		log:     logging.New("engine"),
	}
	for _, opt := range opts {
		opt(s)
	}
	start := time.Now()
	base, err := baseline.Build(ctx, tables)
	s.metrics.Observe(ctx, "baseline_build", err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}
	s.base = base
	s.analyzer = analyzer.New(s.thresholds)
	s.cache = cache.New(kv, serviceBuilder{s})
	s.log.Info("baseline ready",
		"data_version", base.DataVersion,
		"physical_variables", len(base.Physical),
		"omics_types", len(base.Omics),
		"classifiers", len(base.Taxa))
	return s, nil
}

// serviceBuilder adapts the service to the cache's Builder seam.
type serviceBuilder struct{ s *Service }

func (b serviceBuilder) BuildAnalysis(ctx context.Context, studyID string) (domain.StudyAnalysisResult, error) {
	return b.s.analyzer.Compute(ctx, studyID, b.s.tables, b.s.base)
}

func (b serviceBuilder) DataVersion() string { return b.s.tables.DataVersion() }

// DataVersion returns the data version the service is bound to.
func (s *Service) DataVersion() string { return s.tables.DataVersion() }

// Studies lists the compendium's studies.
func (s *Service) Studies(ctx context.Context) ([]domain.Study, error) {
	ctx, span := s.tracer.Start(ctx, "studies")
	start := time.Now()
	studies, err := s.tables.Studies()
	s.metrics.Observe(ctx, "studies", err == nil, time.Since(start))
	span.End(err)
	return studies, err
}

// StudyAnalysis returns the analysis for studyID, serving from the cache
// when possible. force recomputes regardless of a cached entry. The second
// return reports whether the result was served from the cache.
func (s *Service) StudyAnalysis(ctx context.Context, studyID string, force bool) (domain.StudyAnalysisResult, bool, error) {
	ctx, span := s.tracer.Start(ctx, "study_analysis")
	start := time.Now()
	result, cached, err := s.cache.Get(ctx, studyID, force)
	s.metrics.Observe(ctx, "study_analysis", err == nil, time.Since(start))
	if err == nil {
		if cm, ok := s.metrics.(CacheMetrics); ok {
			cm.ObserveCache(cached)
		}
	}
	span.End(err)
	if err != nil {
		return domain.StudyAnalysisResult{}, false, err
	}
	return result, cached, nil
}

// InvalidateStudy drops the cached analysis for studyID at the current data
// version.
func (s *Service) InvalidateStudy(ctx context.Context, studyID string) error {
	return s.cache.Invalidate(ctx, studyID)
}

// Summary computes the compendium-wide descriptive summary.
func (s *Service) Summary(ctx context.Context) (domain.CompendiumSummary, error) {
	ctx, span := s.tracer.Start(ctx, "summary")
	start := time.Now()
	out, err := summary.Summarize(ctx, s.tables)
	s.metrics.Observe(ctx, "summary", err == nil, time.Since(start))
	span.End(err)
	return out, err
}
