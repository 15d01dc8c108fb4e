package importer

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("contract number already exists")
	ErrUnknownKind  = errors.New("unknown import kind")
	ErrEmptyBatch   = errors.New("no rows provided")
	ErrTooManyRows  = errors.New("row limit exceeded")
)

// Store persists canonical records keyed by kind and contract number.
// FindByKey and UpdateByKey return ErrNotFound when no record matches;
// BulkInsert fails as a whole with ErrDuplicateKey if any key exists.
type Store interface {
	FindByKey(ctx context.Context, kind Kind, key string) (Record, error)
	BulkInsert(ctx context.Context, records []Record) ([]Record, error)
	UpdateByKey(ctx context.Context, kind Kind, key string, rec Record) (Record, error)
}
