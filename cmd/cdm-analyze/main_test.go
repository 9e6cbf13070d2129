package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestCLIMissingStudy(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cli(nil, &stdout, &stderr); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "-study") {
		t.Fatalf("stderr = %s", stderr.String())
	}
}

func TestCLIBadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-no-such-flag"}, &stdout, &stderr); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestCLIUnknownStudy(t *testing.T) {
	t.Setenv("CDMCORE_TABLE_DRIVER", "memory")
	t.Setenv("CDMCORE_CACHE_DRIVER", "memory")

	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-study", "STY-404"}, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "not found") {
		t.Fatalf("stderr = %s", stderr.String())
	}
}
