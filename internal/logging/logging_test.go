package logging

import "testing"

func TestNewBeforeInit(t *testing.T) {
	mu.Lock()
	root = nil
	mu.Unlock()
	if New("engine") == nil {
		t.Fatalf("New returned nil before Init")
	}
}

func TestInitLevelsAndFormats(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		for _, format := range []string{"text", "json"} {
			Init(level, format)
			if New("cache") == nil {
				t.Fatalf("New returned nil for %s/%s", level, format)
			}
		}
	}
}
