// Package history persists a record of past batch runs to a bbolt database.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/mwhitfield/ytgrab/batch"
)

var Buckets = struct {
	Metadata []byte
	Batches  []byte
}{
	Metadata: []byte("__metadata__"),
	Batches:  []byte("batches"),
}

var MetadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

// An Entry records one completed batch run.
type Entry struct {
	ID         string      `json:"id"`
	URL        string      `json:"url"`
	Title      string      `json:"title"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Total      int         `json:"total"`
	Succeeded  int         `json:"succeeded"`
	Failed     int         `json:"failed"`
	Skipped    int         `json:"skipped"`
	Items      []ItemEntry `json:"items"`
}

type ItemEntry struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
	Path     string `json:"path,omitempty"`
}

// NewEntry flattens a batch report into a persistable Entry.
func NewEntry(url string, title string, startedAt time.Time, report *batch.Report) Entry {
	e := Entry{
		ID:         uuid.NewString(),
		URL:        url,
		Title:      title,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Total:      report.Total,
		Succeeded:  report.Succeeded,
		Failed:     report.Failed,
		Skipped:    report.Skipped,
		Items:      make([]ItemEntry, 0, len(report.Results)),
	}
	for _, result := range report.Results {
		item := ItemEntry{
			ID:       result.Item.ID,
			Name:     result.Item.DisplayName,
			Status:   string(result.Status),
			Attempts: len(result.Attempts),
			Path:     result.Path(),
		}
		if err := result.LastError(); err != nil {
			item.Error = err.Error()
		}
		e.Items = append(e.Items, item)
	}
	return e
}

type Store struct {
	db *bbolt.DB
}

// Open creates or opens the history database, creating parent directories and
// buckets as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		metadata, err := tx.CreateBucketIfNotExists(Buckets.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(Buckets.Batches); err != nil {
			return err
		}

		var version int
		if versionBytes := metadata.Get(MetadataKeys.Version); versionBytes != nil {
			if err := json.Unmarshal(versionBytes, &version); err != nil {
				return err
			}
		}
		if version > currentVersion {
			return fmt.Errorf("history database version %d is newer than supported version %d", version, currentVersion)
		}

		versionBytes, err := json.Marshal(currentVersion)
		if err != nil {
			return err
		}
		return metadata.Put(MetadataKeys.Version, versionBytes)
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Write appends an entry. Keys sort by start time so List returns runs in
// chronological order.
func (s *Store) Write(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	key := []byte(e.StartedAt.UTC().Format(time.RFC3339Nano) + "/" + e.ID)
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Buckets.Batches).Put(key, data)
	})
}

// List returns all recorded runs, oldest first.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(Buckets.Batches).ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
