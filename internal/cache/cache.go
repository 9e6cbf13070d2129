package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"cdmcore/internal/logging"
	"cdmcore/pkg/domain"
)

// Builder computes an analysis when the cache cannot serve one. The engine's
// analyzer satisfies this; tests substitute spies.
type Builder interface {
	// BuildAnalysis computes the full analysis for one study.
	BuildAnalysis(ctx context.Context, studyID string) (domain.StudyAnalysisResult, error)
	// DataVersion identifies the data version builds are computed against.
	DataVersion() string
}

// envelope is the persisted cache entry format. DataVersion is stored
// redundantly with the key so stale entries are detectable even when the
// key scheme changes.
type envelope struct {
	DataVersion string                     `json:"data_version"`
	CachedAt    time.Time                  `json:"cached_at"`
	Analysis    domain.StudyAnalysisResult `json:"analysis"`
}

// Key derives the cache key for a study at a data version.
func Key(studyID, version string) string { return studyID + "@" + version }

// Cache serves study analyses, computing and persisting them on miss.
// Concurrent requests for the same study and version collapse into a single
// build; a failed persist degrades to a log line and the computed result is
// still returned.
type Cache struct {
	kv      KV
	builder Builder
	group   singleflight.Group
	log     *slog.Logger
	now     func() time.Time
}

// New returns a Cache over kv that fills misses via builder.
func New(kv KV, builder Builder) *Cache {
	return &Cache{kv: kv, builder: builder, log: logging.New("cache"), now: time.Now}
}

// Get returns the analysis for studyID, serving from the cache when a fresh
// entry exists. force bypasses the cached entry and always recomputes. The
// second return reports whether the result came from the cache.
//
// Builds run detached from the caller's context: once started, a build
// completes and persists even if this caller goes away, so every collapsed
// waiter receives the result.
func (c *Cache) Get(ctx context.Context, studyID string, force bool) (domain.StudyAnalysisResult, bool, error) {
	version := c.builder.DataVersion()
	key := Key(studyID, version)

	if !force {
		if result, ok := c.lookup(ctx, key, version); ok {
			return result, true, nil
		}
	}
	c.sweepStale(ctx, studyID, key)

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.build(context.WithoutCancel(ctx), studyID, key, version)
	})
	if err != nil {
		return domain.StudyAnalysisResult{}, false, err
	}
	return v.(domain.StudyAnalysisResult), false, nil
}

// lookup reads and validates a cached entry. Any read or decode problem is
// treated as a miss; a stale data version invalidates the entry.
func (c *Cache) lookup(ctx context.Context, key, version string) (domain.StudyAnalysisResult, bool) {
	data, err := c.kv.Get(ctx, key)
	if err != nil {
		if err != ErrNotFound {
			c.log.Warn("cache read failed", "key", key, "error", err)
		}
		return domain.StudyAnalysisResult{}, false
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warn("cache entry corrupt", "key", key, "error", err)
		_ = c.kv.Invalidate(ctx, key)
		return domain.StudyAnalysisResult{}, false
	}
	if env.DataVersion != version {
		c.log.Info("cache entry stale", "key", key, "entry_version", env.DataVersion, "version", version)
		_ = c.kv.Invalidate(ctx, key)
		return domain.StudyAnalysisResult{}, false
	}
	return env.Analysis, true
}

// sweepStale removes entries for the same study computed against other data
// versions. Best effort: a failing backend only costs storage.
func (c *Cache) sweepStale(ctx context.Context, studyID, liveKey string) {
	keys, err := c.kv.Keys(ctx)
	if err != nil {
		return
	}
	prefix := studyID + "@"
	for _, k := range keys {
		if k != liveKey && strings.HasPrefix(k, prefix) {
			_ = c.kv.Invalidate(ctx, k)
		}
	}
}

func (c *Cache) build(ctx context.Context, studyID, key, version string) (domain.StudyAnalysisResult, error) {
	result, err := c.builder.BuildAnalysis(ctx, studyID)
	if err != nil {
		return domain.StudyAnalysisResult{}, err
	}
	if err := result.Validate(); err != nil {
		return domain.StudyAnalysisResult{}, err
	}
	env := envelope{DataVersion: version, CachedAt: c.now().UTC(), Analysis: result}
	data, err := json.Marshal(env)
	if err != nil {
		return domain.StudyAnalysisResult{}, err
	}
	if err := c.kv.Put(ctx, key, data); err != nil {
		werr := domain.CacheWriteError{Key: key, Err: err}
		c.log.Warn("cache persist failed", "key", key, "error", werr)
	}
	return result, nil
}

// Invalidate removes the cached entry for studyID at the current data
// version.
func (c *Cache) Invalidate(ctx context.Context, studyID string) error {
	return c.kv.Invalidate(ctx, Key(studyID, c.builder.DataVersion()))
}
