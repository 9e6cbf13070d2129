package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cdmcore/pkg/domain"
)

// spyBuilder counts builds and can stall them to exercise collapsing.
type spyBuilder struct {
	version string
	builds  atomic.Int64
	delay   time.Duration
	err     error
}

func (b *spyBuilder) BuildAnalysis(ctx context.Context, studyID string) (domain.StudyAnalysisResult, error) {
	b.builds.Add(1)
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	if b.err != nil {
		return domain.StudyAnalysisResult{}, b.err
	}
	return domain.StudyAnalysisResult{
		StudyID:     studyID,
		DataVersion: b.version,
		ComputedAt:  time.Now().UTC(),
	}, nil
}

func (b *spyBuilder) DataVersion() string { return b.version }

func TestGetMissThenHit(t *testing.T) {
	ctx := context.Background()
	builder := &spyBuilder{version: "v1"}
	c := New(NewMemory(), builder)

	result, cached, err := c.Get(ctx, "STY-001", false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cached {
		t.Fatalf("first call must miss")
	}
	if result.StudyID != "STY-001" || result.DataVersion != "v1" {
		t.Fatalf("result = %+v", result)
	}
	if n := builder.builds.Load(); n != 1 {
		t.Fatalf("builds = %d, want 1", n)
	}

	_, cached, err = c.Get(ctx, "STY-001", false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !cached {
		t.Fatalf("second call must hit")
	}
	if n := builder.builds.Load(); n != 1 {
		t.Fatalf("builds = %d after hit, want 1", n)
	}
}

func TestGetForceAlwaysBuilds(t *testing.T) {
	ctx := context.Background()
	builder := &spyBuilder{version: "v1"}
	c := New(NewMemory(), builder)

	if _, _, err := c.Get(ctx, "STY-001", false); err != nil {
		t.Fatalf("Get: %v", err)
	}
	_, cached, err := c.Get(ctx, "STY-001", true)
	if err != nil {
		t.Fatalf("forced Get: %v", err)
	}
	if cached {
		t.Fatalf("forced call reported a cache hit")
	}
	if n := builder.builds.Load(); n != 2 {
		t.Fatalf("builds = %d, want 2", n)
	}
}

func TestGetInvalidatesStaleVersion(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	builder := &spyBuilder{version: "v1"}
	c := New(kv, builder)
	if _, _, err := c.Get(ctx, "STY-001", false); err != nil {
		t.Fatalf("Get: %v", err)
	}

	// New data version: the v1 entry must not be served and must be swept.
	builder.version = "v2"
	result, cached, err := c.Get(ctx, "STY-001", false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cached {
		t.Fatalf("stale entry served as a hit")
	}
	if result.DataVersion != "v2" {
		t.Fatalf("result version = %q", result.DataVersion)
	}
	keys, err := kv.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != Key("STY-001", "v2") {
		t.Fatalf("keys after version bump = %v", keys)
	}
}

func TestGetStaleEnvelopeVersion(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	builder := &spyBuilder{version: "v2"}
	c := New(kv, builder)

	// An entry stored under the live key but stamped with an old version
	// must be rejected and rebuilt.
	env := envelope{DataVersion: "v1", CachedAt: time.Now(), Analysis: domain.StudyAnalysisResult{StudyID: "STY-001", DataVersion: "v1"}}
	data, _ := json.Marshal(env)
	if err := kv.Put(ctx, Key("STY-001", "v2"), data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	result, cached, err := c.Get(ctx, "STY-001", false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cached || result.DataVersion != "v2" {
		t.Fatalf("cached=%v version=%q", cached, result.DataVersion)
	}
}

func TestGetCorruptEntryRebuilds(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	builder := &spyBuilder{version: "v1"}
	c := New(kv, builder)

	if err := kv.Put(ctx, Key("STY-001", "v1"), []byte("{not json")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_, cached, err := c.Get(ctx, "STY-001", false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cached {
		t.Fatalf("corrupt entry served as a hit")
	}
	if n := builder.builds.Load(); n != 1 {
		t.Fatalf("builds = %d, want 1", n)
	}
}

func TestGetCollapsesConcurrentBuilds(t *testing.T) {
	ctx := context.Background()
	builder := &spyBuilder{version: "v1", delay: 50 * time.Millisecond}
	c := New(NewMemory(), builder)

	const waiters = 8
	var wg sync.WaitGroup
	errs := make([]error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, errs[i] = c.Get(ctx, "STY-001", false)
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("waiter %d: %v", i, err)
		}
	}
	if n := builder.builds.Load(); n != 1 {
		t.Fatalf("builds = %d, want 1 collapsed build", n)
	}
}

type failingPutKV struct{ KV }

func (f failingPutKV) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestGetReturnsResultWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	kv := failingPutKV{KV: NewMemory()}
	builder := &spyBuilder{version: "v1"}
	c := New(kv, builder)

	result, cached, err := c.Get(ctx, "STY-001", false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cached || result.StudyID != "STY-001" {
		t.Fatalf("cached=%v result=%+v", cached, result)
	}
	// Nothing persisted, so the next call builds again.
	if _, _, err := c.Get(ctx, "STY-001", false); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n := builder.builds.Load(); n != 2 {
		t.Fatalf("builds = %d, want 2", n)
	}
}

func TestGetBuilderError(t *testing.T) {
	wantErr := errors.New("tables offline")
	c := New(NewMemory(), &spyBuilder{version: "v1", err: wantErr})
	if _, _, err := c.Get(context.Background(), "STY-001", false); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want builder error", err)
	}
}

func TestGetRejectsInvalidResult(t *testing.T) {
	// A builder returning a structurally invalid result must not poison the
	// cache.
	c := New(NewMemory(), &invalidBuilder{})
	if _, _, err := c.Get(context.Background(), "STY-001", false); err == nil {
		t.Fatalf("expected validation error")
	}
}

type invalidBuilder struct{}

func (invalidBuilder) BuildAnalysis(context.Context, string) (domain.StudyAnalysisResult, error) {
	return domain.StudyAnalysisResult{}, nil // missing study id and version
}

func (invalidBuilder) DataVersion() string { return "v1" }

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	builder := &spyBuilder{version: "v1"}
	c := New(kv, builder)
	if _, _, err := c.Get(ctx, "STY-001", false); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := c.Invalidate(ctx, "STY-001"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, cached, err := c.Get(ctx, "STY-001", false); err != nil || cached {
		t.Fatalf("after invalidate: cached=%v err=%v", cached, err)
	}
}
