package localstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"

	"github.com/totegamma/loandesk/internal/domain"
	"github.com/totegamma/loandesk/internal/usecase"
)

// FileStore keeps one collection as a JSON array in a single file. Every call
// reads the whole file and every mutation rewrites it.
type FileStore[T domain.Record] struct {
	mu        sync.Mutex
	typ       domain.EntityType
	path      string
	lastWrite atomic.Uint64
}

func NewFileStore[T domain.Record](dir string, typ domain.EntityType) *FileStore[T] {
	return &FileStore[T]{
		typ:  typ,
		path: filepath.Join(dir, string(typ)+".json"),
	}
}

// compile-time check
var _ usecase.LocalStore[domain.Enquiry] = (*FileStore[domain.Enquiry])(nil)

func (s *FileStore[T]) Type() domain.EntityType {
	return s.typ
}

func (s *FileStore[T]) Path() string {
	return s.path
}

// Fingerprint returns the xxh3 hash of the last content this store wrote.
func (s *FileStore[T]) Fingerprint() uint64 {
	return s.lastWrite.Load()
}

func (s *FileStore[T]) List(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore[T]) Get(ctx context.Context, id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	items, err := s.read()
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if item.RecordID() == id {
			return item, nil
		}
	}
	return zero, domain.NotFoundError{Resource: string(s.typ) + " " + id}
}

func (s *FileStore[T]) Upsert(ctx context.Context, record T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return err
	}

	replaced := false
	for i, item := range items {
		if item.RecordID() == record.RecordID() {
			items[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, record)
	}
	return s.write(items)
}

func (s *FileStore[T]) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return err
	}

	kept := items[:0]
	for _, item := range items {
		if item.RecordID() != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return domain.NotFoundError{Resource: string(s.typ) + " " + id}
	}
	return s.write(kept)
}

// Records returns a copy of the collection as domain records.
func (s *FileStore[T]) Records(ctx context.Context) ([]domain.Record, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Record, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out, nil
}

func (s *FileStore[T]) Count(ctx context.Context) (int, error) {
	items, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *FileStore[T]) read() ([]T, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.path)
	}
	if len(data) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrapf(err, "decode %s", s.path)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (s *FileStore[T]) write(items []T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", s.typ)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+string(s.typ)+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp.Name())
	}

	s.lastWrite.Store(xxh3.Hash(data))
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrapf(err, "replace %s", s.path)
	}
	return nil
}
