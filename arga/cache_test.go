package arga

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestBaselineCache(t *testing.T) {
	dir := t.TempDir()
	rows := []Attribute{{ID: "x", Name: "habitat", DataType: "String"}}

	path, err := SaveBaseline(dir, "attributes", rows)
	if err != nil {
		t.Fatalf("SaveBaseline failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "attributes_") {
		t.Errorf("unexpected cache file name %s", path)
	}

	// an older file and a file of another collection must both be ignored
	older := filepath.Join(dir, "attributes_2000-01-01T00-00-00.json")
	if err := os.WriteFile(older, []byte(`[{"id": "old"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	past := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "attributes2_2100-01-01T00-00-00.json"), []byte(`[]`), 0644); err != nil {
		t.Fatal(err)
	}

	var loaded []Attribute
	got, err := LoadLatestBaseline(dir, "attributes", &loaded)
	if err != nil {
		t.Fatalf("LoadLatestBaseline failed: %v", err)
	}
	if got != path {
		t.Errorf("expected %s, loaded %s", path, got)
	}
	if diff := cmp.Diff(rows, loaded); diff != "" {
		t.Errorf("cached rows mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLatestBaselineMissing(t *testing.T) {
	var rows []Attribute
	if _, err := LoadLatestBaseline(filepath.Join(t.TempDir(), "missing"), "attributes", &rows); err == nil {
		t.Errorf("expected an error for a missing directory")
	}
	if _, err := LoadLatestBaseline(t.TempDir(), "attributes", &rows); err == nil {
		t.Errorf("expected an error when nothing was cached")
	}
}
