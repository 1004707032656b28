// Package store provides a thin bbolt wrapper for cmip6qc's local store.
//
// Design philosophy: the store is an intentional data accumulator, not a
// transparent HTTP cache. Catalog results and dataset documents are written
// when fetched and reused on later runs; run reports persist until cleared.
//
// Buckets:
//
//	catalog  — catalog search results keyed by spec
//	datasets — canonical dataset documents keyed by spec+preprocess flag
//	runs     — harness run reports keyed by run ID
//	_meta    — internal: schema version, created_at
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/oceandata/cmip6qc/internal/catalog"
	"github.com/oceandata/cmip6qc/internal/harness"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// Bucket name constants.
var (
	bucketCatalog  = []byte("catalog")
	bucketDatasets = []byte("datasets")
	bucketRuns     = []byte("runs")
	bucketInternal = []byte("_meta")
)

// AllBuckets lists every top-level bucket for stats and clear operations.
var AllBuckets = []string{"catalog", "datasets", "runs"}

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt database at path.
// Parent directories are created automatically.
// Runs schema migrations on every open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.db.Path()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

// migrate ensures all buckets exist and schema is current.
func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketCatalog, bucketDatasets, bucketRuns, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// ─── Catalog entries ──────────────────────────────────────────────────────────

// storedCatalog is the on-disk envelope for a catalog search result.
type storedCatalog struct {
	Spec      string          `json:"spec"`
	FetchedAt time.Time       `json:"fetched_at"`
	Entries   []catalog.Entry `json:"entries"`
}

// PutCatalog stores the search result for a spec, stamping the fetch time.
// An empty entries slice is a valid, cacheable "no data" result.
func (s *Store) PutCatalog(spec harness.Spec, entries []catalog.Entry) error {
	envelope := storedCatalog{
		Spec:      spec.String(),
		FetchedAt: time.Now().UTC(),
		Entries:   entries,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encoding catalog entries: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCatalog).Put([]byte(spec.String()), data)
	})
}

// GetCatalog retrieves the cached search result for a spec.
// Returns (entries, true, nil) if cached, (nil, false, nil) if not.
func (s *Store) GetCatalog(spec harness.Spec) ([]catalog.Entry, bool, error) {
	var envelope storedCatalog
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketCatalog).Get([]byte(spec.String()))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &envelope)
	})
	if err != nil || !found {
		return nil, false, err
	}
	return envelope.Entries, true, nil
}

// ─── Datasets ─────────────────────────────────────────────────────────────────

// DatasetKey builds the canonical key for a dataset document.
// Format: spec:<model|variable|experiment|grid>|preprocess:<bool>
func DatasetKey(spec harness.Spec, preprocess bool) string {
	return fmt.Sprintf("spec:%s|preprocess:%t", spec, preprocess)
}

// storedDataset is the on-disk envelope for a dataset document. The document
// itself stays in its canonical JSON form.
type storedDataset struct {
	Spec      string          `json:"spec"`
	FetchedAt time.Time       `json:"fetched_at"`
	Document  json.RawMessage `json:"document"`
}

// PutDataset stores a canonical dataset document under the given key.
func (s *Store) PutDataset(key string, spec harness.Spec, document []byte) error {
	envelope := storedDataset{
		Spec:      spec.String(),
		FetchedAt: time.Now().UTC(),
		Document:  document,
	}
	b, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encoding dataset envelope: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDatasets).Put([]byte(key), b)
	})
}

// GetDataset retrieves a dataset document by key.
// Returns (doc, true, nil) if found, (nil, false, nil) if not found.
func (s *Store) GetDataset(key string) ([]byte, bool, error) {
	var envelope storedDataset
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketDatasets).Get([]byte(key))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &envelope)
	})
	if err != nil {
		return nil, false, err
	}
	if envelope.Spec == "" {
		return nil, false, nil
	}
	return envelope.Document, true, nil
}

// ─── Run reports ──────────────────────────────────────────────────────────────

// PutRun saves a harness run report. The key is run:<ID>.
func (s *Store) PutRun(report *harness.Report) error {
	b, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding run report: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).Put([]byte("run:"+report.RunID), b)
	})
}

// GetRun retrieves a run report by ID.
func (s *Store) GetRun(id string) (*harness.Report, bool, error) {
	var report harness.Report
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRuns).Get([]byte("run:" + id))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &report)
	})
	if err != nil || !found {
		return nil, false, err
	}
	return &report, true, nil
}

// ListRuns returns all stored run reports sorted by start time, oldest
// first.
func (s *Store) ListRuns() ([]*harness.Report, error) {
	var reports []*harness.Report
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(k, v []byte) error {
			var r harness.Report
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			reports = append(reports, &r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartedAt.Before(reports[j].StartedAt)
	})
	return reports, nil
}

// DeleteRun removes a run report by ID.
func (s *Store) DeleteRun(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).Delete([]byte("run:" + id))
	})
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string
	Count int
	Bytes int64
}

// Stats returns row counts and approximate sizes for all buckets.
func (s *Store) Stats() ([]BucketStats, error) {
	buckets := map[string][]byte{
		"catalog":  bucketCatalog,
		"datasets": bucketDatasets,
		"runs":     bucketRuns,
	}

	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for name, bname := range buckets {
			b := tx.Bucket(bname)
			if b == nil {
				continue
			}
			var count int
			var bytes int64
			b.ForEach(func(k, v []byte) error {
				count++
				bytes += int64(len(k) + len(v))
				return nil
			})
			stats = append(stats, BucketStats{Name: name, Count: count, Bytes: bytes})
		}
		return nil
	})
	return stats, err
}

// ClearBucket deletes all entries in the named bucket.
func (s *Store) ClearBucket(name string) error {
	bname := []byte(name)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bname); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
		_, err := tx.CreateBucket(bname)
		return err
	})
}

// ClearAll deletes all entries from every user-facing bucket.
func (s *Store) ClearAll() error {
	for _, name := range AllBuckets {
		if err := s.ClearBucket(name); err != nil {
			return err
		}
	}
	return nil
}

// Compact rewrites the database to a temporary file and atomically replaces
// the original, reclaiming pages freed by prior clears. bbolt never shrinks
// the file on its own. Returns the file sizes before and after.
//
// The Store handle remains valid after Compact returns: the underlying
// bolt.DB is closed, replaced on disk, and reopened.
func (s *Store) Compact() (before, after int64, err error) {
	path := s.db.Path()

	fi, err := os.Stat(path)
	if err != nil {
		return 0, 0, fmt.Errorf("stat %s: %w", path, err)
	}
	before = fi.Size()

	tmpPath := path + ".compact"
	dst, err := bolt.Open(tmpPath, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return 0, 0, fmt.Errorf("opening compaction target: %w", err)
	}

	if err := bolt.Compact(dst, s.db, 0); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return 0, 0, fmt.Errorf("compacting: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, 0, err
	}
	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, 0, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, 0, fmt.Errorf("replacing db file: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return 0, 0, fmt.Errorf("reopening db: %w", err)
	}
	s.db = db

	fi, err = os.Stat(path)
	if err != nil {
		return 0, 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return before, fi.Size(), nil
}
