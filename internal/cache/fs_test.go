package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFilesystemRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}

	if _, err := fs.Get(ctx, "STY-001@v1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing key err = %v, want ErrNotFound", err)
	}

	if err := fs.Put(ctx, "STY-001@v1", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, err := fs.Get(ctx, "STY-001@v1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Fatalf("data = %q", data)
	}

	// Overwrite replaces the previous entry.
	if err := fs.Put(ctx, "STY-001@v1", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, err = fs.Get(ctx, "STY-001@v1")
	if err != nil || string(data) != `{"a":2}` {
		t.Fatalf("after overwrite: %q %v", data, err)
	}
}

func TestFilesystemInvalidate(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	if err := fs.Invalidate(ctx, "absent"); err != nil {
		t.Fatalf("invalidating an absent key: %v", err)
	}
	if err := fs.Put(ctx, "k", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := fs.Invalidate(ctx, "k"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := fs.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after invalidate err = %v", err)
	}
}

func TestFilesystemKeys(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fs, err := NewFilesystem(root)
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	for _, k := range []string{"b@v1", "a@v1"} {
		if err := fs.Put(ctx, k, []byte("x")); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}
	// A leftover temp file from a crashed write must not surface as a key.
	if err := os.WriteFile(filepath.Join(root, ".tmp-crashed"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	keys, err := fs.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a@v1" || keys[1] != "b@v1" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestSanitizeKey(t *testing.T) {
	cases := []struct {
		key string
		ok  bool
	}{
		{"STY-001@v1", true},
		{"nested/key", true},
		{"", false},
		{"  ", false},
		{"../escape", false},
		{"/absolute", false},
		{"a/../../b", false},
	}
	for _, tc := range cases {
		_, err := sanitizeKey(tc.key)
		if tc.ok && err != nil {
			t.Fatalf("sanitizeKey(%q) = %v, want ok", tc.key, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("sanitizeKey(%q) accepted", tc.key)
		}
	}
}

func TestMemoryKVIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	payload := []byte("abc")
	if err := m.Put(ctx, "k", payload); err != nil {
		t.Fatalf("Put: %v", err)
	}
	payload[0] = 'z'
	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("stored bytes aliased caller buffer: %q", got)
	}
	got[0] = 'q'
	again, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("returned bytes aliased store: %q", again)
	}
}
