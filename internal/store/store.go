// Package store persists named collections of records as whole JSON arrays.
//
// Every save rewrites the entire collection. Read-modify-write cycles go
// through Update, which holds a per-collection lock for the duration of the
// cycle so concurrent writers inside one process cannot lose each other's
// changes. Nothing coordinates separate processes sharing a backend.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"github.com/qri-io/jsonschema"
)

var reCollection = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// Record is anything carrying an integer id assigned by NextID.
type Record interface {
	RecordID() int
}

// Backend reads and writes the serialized form of one collection.
type Backend interface {
	// Read returns found=false, without error, when the collection was never written.
	Read(ctx context.Context, collection string) (data []byte, found bool, err error)
	Write(ctx context.Context, collection string, data []byte) error
	Close() error
}

type Store struct {
	backend Backend

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	schemas map[string]*jsonschema.Schema
}

func New(b Backend) *Store {
	return &Store{
		backend: b,
		locks:   make(map[string]*sync.Mutex),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

func (s *Store) Close() error { return s.backend.Close() }

// RegisterSchema attaches a JSON schema that the whole serialized collection
// must satisfy on every load and save.
func (s *Store) RegisterSchema(collection string, schema []byte) error {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(schema, rs); err != nil {
		return fmt.Errorf("compile schema %s: %w", collection, err)
	}
	s.mu.Lock()
	s.schemas[collection] = rs
	s.mu.Unlock()
	return nil
}

func (s *Store) lock(collection string) func() {
	s.mu.Lock()
	l, ok := s.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		s.locks[collection] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *Store) check(ctx context.Context, collection, op string, data []byte) error {
	s.mu.Lock()
	rs := s.schemas[collection]
	s.mu.Unlock()
	if rs == nil {
		return nil
	}
	kerrs, err := rs.ValidateBytes(ctx, data)
	if err != nil {
		return &StorageError{Collection: collection, Op: op, Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}
	if len(kerrs) > 0 {
		k := kerrs[0]
		return &StorageError{Collection: collection, Op: op,
			Err: fmt.Errorf("%w: %s %s", ErrCorrupt, k.PropertyPath, k.Message)}
	}
	return nil
}

// Load returns the persisted records of collection in stored order, or an
// empty slice when the collection does not exist yet.
func Load[T any](ctx context.Context, s *Store, collection string) ([]T, error) {
	if !reCollection.MatchString(collection) {
		return nil, &StorageError{Collection: collection, Op: "load", Err: ErrBadName}
	}
	data, found, err := s.backend.Read(ctx, collection)
	if err != nil {
		return nil, &StorageError{Collection: collection, Op: "load", Err: err}
	}
	if !found || len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}
	if err := s.check(ctx, collection, "load", data); err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &StorageError{Collection: collection, Op: "load", Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Save overwrites collection with records.
func Save[T any](ctx context.Context, s *Store, collection string, records []T) error {
	if !reCollection.MatchString(collection) {
		return &StorageError{Collection: collection, Op: "save", Err: ErrBadName}
	}
	unlock := s.lock(collection)
	defer unlock()
	return save(ctx, s, collection, records)
}

func save[T any](ctx context.Context, s *Store, collection string, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := encode(records)
	if err != nil {
		return &StorageError{Collection: collection, Op: "save", Err: err}
	}
	if err := s.check(ctx, collection, "save", data); err != nil {
		return err
	}
	if err := s.backend.Write(ctx, collection, data); err != nil {
		return &StorageError{Collection: collection, Op: "save", Err: err}
	}
	return nil
}

// Update loads collection, hands the records to fn and saves what fn
// returns, all under the collection lock. An error from fn aborts the save
// and is returned unchanged.
func Update[T any](ctx context.Context, s *Store, collection string, fn func([]T) ([]T, error)) error {
	if !reCollection.MatchString(collection) {
		return &StorageError{Collection: collection, Op: "update", Err: ErrBadName}
	}
	unlock := s.lock(collection)
	defer unlock()

	records, err := Load[T](ctx, s, collection)
	if err != nil {
		return err
	}
	next, err := fn(records)
	if err != nil {
		return err
	}
	return save(ctx, s, collection, next)
}

// NextID returns 1 for no records, otherwise one more than the largest id.
func NextID[T Record](records []T) int {
	top := 0
	for _, r := range records {
		if id := r.RecordID(); id > top {
			top = id
		}
	}
	return top + 1
}

// encode keeps non-ASCII text and HTML characters literal.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
