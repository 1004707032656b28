package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/oceandata/cmip6qc/internal/catalog"
	"github.com/oceandata/cmip6qc/internal/harness"
	"github.com/oceandata/cmip6qc/internal/store"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// testDB opens a fresh isolated database in t.TempDir().
// It is closed and deleted automatically when the test ends.
func testDB(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testSpec() harness.Spec {
	return harness.Spec{
		SourceID:     "GFDL-CM4",
		VariableID:   "thetao",
		ExperimentID: "historical",
		GridLabel:    "gn",
	}
}

func testReport(id string) *harness.Report {
	r := &harness.Report{
		RunID:     id,
		StartedAt: time.Now().UTC(),
		Models:    []string{"GFDL-CM4"},
	}
	r.FinishedAt = r.StartedAt.Add(time.Second)
	return r
}

// ─── Open / Path ──────────────────────────────────────────────────────────────

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open with nested path: %v", err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path: expected %q, got %q", path, s.Path())
	}
}

// ─── DatasetKey ───────────────────────────────────────────────────────────────

func TestDatasetKeyFormat(t *testing.T) {
	key := store.DatasetKey(testSpec(), true)
	want := "spec:GFDL-CM4|thetao|historical|gn|preprocess:true"
	if key != want {
		t.Errorf("DatasetKey:\n  expected: %q\n  got:      %q", want, key)
	}
}

func TestDatasetKeyDistinguishesPreprocess(t *testing.T) {
	if store.DatasetKey(testSpec(), true) == store.DatasetKey(testSpec(), false) {
		t.Error("preprocessed and raw documents must not share a key")
	}
}

// ─── Catalog ──────────────────────────────────────────────────────────────────

func TestPutGetCatalog(t *testing.T) {
	s := testDB(t)
	spec := testSpec()
	entries := []catalog.Entry{{ZStore: "gs://bucket/x", MemberID: "r1i1p1f1", Version: "20190726"}}

	if err := s.PutCatalog(spec, entries); err != nil {
		t.Fatalf("PutCatalog: %v", err)
	}
	got, found, err := s.GetCatalog(spec)
	if err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}
	if !found {
		t.Fatal("expected to find cached catalog entries")
	}
	if len(got) != 1 || got[0].ZStore != "gs://bucket/x" {
		t.Errorf("entries: got %+v", got)
	}
}

func TestPutCatalogEmptyIsCacheable(t *testing.T) {
	s := testDB(t)
	spec := testSpec()

	// No data for a spec is a result worth caching too.
	if err := s.PutCatalog(spec, nil); err != nil {
		t.Fatalf("PutCatalog: %v", err)
	}
	got, found, err := s.GetCatalog(spec)
	if err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}
	if !found {
		t.Fatal("an empty search result should still be found in the cache")
	}
	if len(got) != 0 {
		t.Errorf("expected no entries, got %d", len(got))
	}
}

func TestGetCatalogMiss(t *testing.T) {
	s := testDB(t)
	_, found, err := s.GetCatalog(testSpec())
	if err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}
	if found {
		t.Error("expected cache miss")
	}
}

// ─── Datasets ─────────────────────────────────────────────────────────────────

func TestPutGetDataset(t *testing.T) {
	s := testDB(t)
	spec := testSpec()
	key := store.DatasetKey(spec, true)
	doc := []byte(`{"dims":{"x":1},"coords":{},"data_vars":{}}`)

	if err := s.PutDataset(key, spec, doc); err != nil {
		t.Fatalf("PutDataset: %v", err)
	}
	got, found, err := s.GetDataset(key)
	if err != nil {
		t.Fatalf("GetDataset: %v", err)
	}
	if !found {
		t.Fatal("expected to find cached dataset")
	}
	if string(got) != string(doc) {
		t.Errorf("document changed: %s", got)
	}
}

func TestGetDatasetMiss(t *testing.T) {
	s := testDB(t)
	_, found, err := s.GetDataset("spec:none|preprocess:false")
	if err != nil {
		t.Fatalf("GetDataset: %v", err)
	}
	if found {
		t.Error("expected miss for unknown key")
	}
}

// ─── Runs ─────────────────────────────────────────────────────────────────────

func TestPutGetRun(t *testing.T) {
	s := testDB(t)
	if err := s.PutRun(testReport("run-a")); err != nil {
		t.Fatalf("PutRun: %v", err)
	}

	got, found, err := s.GetRun("run-a")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !found {
		t.Fatal("expected to find run-a")
	}
	if got.RunID != "run-a" || len(got.Models) != 1 {
		t.Errorf("report: got %+v", got)
	}
}

func TestListRunsSortedByStart(t *testing.T) {
	s := testDB(t)
	older := testReport("run-old")
	older.StartedAt = time.Now().UTC().Add(-time.Hour)
	newer := testReport("run-new")

	_ = s.PutRun(newer)
	_ = s.PutRun(older)

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "run-old" || runs[1].RunID != "run-new" {
		t.Errorf("runs out of order: %s, %s", runs[0].RunID, runs[1].RunID)
	}
}

func TestDeleteRun(t *testing.T) {
	s := testDB(t)
	_ = s.PutRun(testReport("run-x"))
	if err := s.DeleteRun("run-x"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	_, found, _ := s.GetRun("run-x")
	if found {
		t.Error("run-x should be gone after delete")
	}
}

// ─── Stats / Clear / Compact ──────────────────────────────────────────────────

func TestStatsCountsRows(t *testing.T) {
	s := testDB(t)
	_ = s.PutCatalog(testSpec(), nil)
	_ = s.PutRun(testReport("run-1"))

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	counts := map[string]int{}
	for _, st := range stats {
		counts[st.Name] = st.Count
	}
	if counts["catalog"] != 1 {
		t.Errorf("catalog rows: expected 1, got %d", counts["catalog"])
	}
	if counts["runs"] != 1 {
		t.Errorf("runs rows: expected 1, got %d", counts["runs"])
	}
	if counts["datasets"] != 0 {
		t.Errorf("datasets rows: expected 0, got %d", counts["datasets"])
	}
}

func TestClearBucket(t *testing.T) {
	s := testDB(t)
	_ = s.PutCatalog(testSpec(), nil)
	_ = s.PutRun(testReport("run-1"))

	if err := s.ClearBucket("catalog"); err != nil {
		t.Fatalf("ClearBucket: %v", err)
	}
	_, found, _ := s.GetCatalog(testSpec())
	if found {
		t.Error("catalog should be empty after clear")
	}
	_, found, _ = s.GetRun("run-1")
	if !found {
		t.Error("runs bucket must survive clearing catalog")
	}
}

func TestClearAll(t *testing.T) {
	s := testDB(t)
	_ = s.PutCatalog(testSpec(), nil)
	_ = s.PutRun(testReport("run-1"))

	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	stats, _ := s.Stats()
	for _, st := range stats {
		if st.Count != 0 {
			t.Errorf("bucket %s not empty after ClearAll: %d rows", st.Name, st.Count)
		}
	}
}

func TestCompactKeepsData(t *testing.T) {
	s := testDB(t)
	_ = s.PutRun(testReport("run-keep"))

	before, after, err := s.Compact()
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if before <= 0 || after <= 0 {
		t.Errorf("sizes should be positive: before=%d after=%d", before, after)
	}

	// The handle must stay usable and the data must survive.
	_, found, err := s.GetRun("run-keep")
	if err != nil {
		t.Fatalf("GetRun after compact: %v", err)
	}
	if !found {
		t.Error("run-keep lost during compaction")
	}
}
