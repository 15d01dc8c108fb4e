package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bidops-platform/api/internal/audit"
	"github.com/bidops-platform/api/internal/importer"
)

var (
	_ importer.Store = (*Store)(nil)
	_ audit.Writer   = (*Store)(nil)
)

// Store is an in-memory record store used by tests and local runs.
type Store struct {
	mu       sync.RWMutex
	records  map[importer.Kind]map[string]importer.Record
	auditLog []audit.InsertAuditLogParams
}

func New() *Store {
	return &Store{records: make(map[importer.Kind]map[string]importer.Record)}
}

func (s *Store) FindByKey(_ context.Context, kind importer.Kind, key string) (importer.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[kind][key]
	if !ok {
		return importer.Record{}, importer.ErrNotFound
	}
	return rec.Clone(), nil
}

// BulkInsert stores every record or none of them.
func (s *Store) BulkInsert(_ context.Context, records []importer.Record) ([]importer.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[importer.Kind]map[string]struct{}{}
	for _, rec := range records {
		if _, ok := s.records[rec.Kind][rec.ContractNumber]; ok {
			return nil, fmt.Errorf("insert %s %s: %w", rec.Kind, rec.ContractNumber, importer.ErrDuplicateKey)
		}
		if seen[rec.Kind] == nil {
			seen[rec.Kind] = map[string]struct{}{}
		}
		if _, ok := seen[rec.Kind][rec.ContractNumber]; ok {
			return nil, fmt.Errorf("insert %s %s: %w", rec.Kind, rec.ContractNumber, importer.ErrDuplicateKey)
		}
		seen[rec.Kind][rec.ContractNumber] = struct{}{}
	}

	out := make([]importer.Record, 0, len(records))
	for _, rec := range records {
		if s.records[rec.Kind] == nil {
			s.records[rec.Kind] = make(map[string]importer.Record)
		}
		s.records[rec.Kind][rec.ContractNumber] = rec.Clone()
		out = append(out, rec.Clone())
	}
	return out, nil
}

func (s *Store) UpdateByKey(_ context.Context, kind importer.Kind, key string, rec importer.Record) (importer.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[kind][key]; !ok {
		return importer.Record{}, importer.ErrNotFound
	}
	rec.Kind = kind
	rec.ContractNumber = key
	s.records[kind][key] = rec.Clone()
	return rec.Clone(), nil
}

// List returns all records of kind ordered by contract number.
func (s *Store) List(_ context.Context, kind importer.Kind) ([]importer.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]importer.Record, 0, len(s.records[kind]))
	for _, rec := range s.records[kind] {
		result = append(result, rec.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ContractNumber < result[j].ContractNumber
	})
	return result, nil
}

func (s *Store) InsertAuditLog(_ context.Context, params audit.InsertAuditLogParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLog = append(s.auditLog, params)
	return nil
}

// AuditLog returns a snapshot of the audit entries written so far.
func (s *Store) AuditLog() []audit.InsertAuditLogParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.InsertAuditLogParams, len(s.auditLog))
	copy(out, s.auditLog)
	return out
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}
