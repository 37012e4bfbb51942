package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	apperrors "financial-statement-service/pkg/errors"
)

// Store persists completed audit records.
type Store interface {
	// Save writes a finalized record.
	Save(record *Record) error
	// Load retrieves a record by session identifier.
	Load(sessionID string) (*Record, error)
	// List returns records whose processing started at or after the cutoff,
	// newest first.
	List(since time.Time) ([]*Record, error)
}

// FileStore keeps one JSON file per audit record in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the audit directory if needed and returns a store
// over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.AuditError(apperrors.CodePersistFailed, "", err).
			WithContext("directory", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory records are stored in.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Save(record *Record) error {
	timestamp := record.ProcessingStart.Format("20060102_150405")
	name := fmt.Sprintf("audit_%s_%s.json", record.SessionID, timestamp)
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return apperrors.AuditError(apperrors.CodePersistFailed, record.SessionID, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.AuditError(apperrors.CodePersistFailed, record.SessionID, err).
			WithContext("path", path)
	}
	return nil
}

func (s *FileStore) Load(sessionID string) (*Record, error) {
	pattern := filepath.Join(s.dir, fmt.Sprintf("audit_%s_*.json", sessionID))
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return nil, apperrors.AuditError(apperrors.CodeSessionNotFound, sessionID, err)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, apperrors.AuditError(apperrors.CodeSessionNotFound, sessionID, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, apperrors.AuditError(apperrors.CodePersistFailed, sessionID, err)
	}
	return &record, nil
}

func (s *FileStore) List(since time.Time) ([]*Record, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "audit_*.json"))
	if err != nil {
		return nil, apperrors.AuditError(apperrors.CodePersistFailed, "", err)
	}

	var records []*Record
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}
		if record.ProcessingStart.Before(since) {
			continue
		}
		records = append(records, &record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ProcessingStart.After(records[j].ProcessingStart)
	})
	return records, nil
}

// MemoryStore keeps records in memory. Intended for tests and for runs
// where persistence is disabled.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Save(record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.SessionID] = record
	return nil
}

func (s *MemoryStore) Load(sessionID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[sessionID]
	if !ok {
		return nil, apperrors.AuditError(apperrors.CodeSessionNotFound, sessionID, nil)
	}
	return record, nil
}

func (s *MemoryStore) List(since time.Time) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*Record
	for _, record := range s.records {
		if record.ProcessingStart.Before(since) {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ProcessingStart.After(records[j].ProcessingStart)
	})
	return records, nil
}
