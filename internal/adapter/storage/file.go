package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/niksmo/catalog-cache/internal/core/domain"
	"github.com/niksmo/catalog-cache/internal/core/port"
)

var _ port.CatalogStore = (*FileStore)(nil)

// A FileStore keeps the replica in memory and persists it to a single
// human-readable JSON file, safe to inspect and edit out of band.
//
// All mutations serialize through one mutex around the full
// read-modify-write-persist cycle, so concurrent upserts and a
// wholesale replace cannot lose each other's updates. Saves go to a
// temporary file first and are swapped in atomically: a failed save
// leaves the previous durable state intact.
type FileStore struct {
	mu    sync.Mutex
	path  string
	byID  map[string]domain.Product
	order []string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		byID: make(map[string]domain.Product),
	}
}

func (s *FileStore) Get(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "FileStore.Get"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return p, nil
}

func (s *FileStore) Upsert(ctx context.Context, p domain.Product) error {
	const op = "FileStore.Upsert"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertLocked(p)
	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *FileStore) UpsertBatch(
	ctx context.Context, ps []domain.Product,
) error {
	const op = "FileStore.UpsertBatch"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range ps {
		s.upsertLocked(p)
	}
	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Replace swaps the whole replica for ps. An empty ps empties the
// store: full sync is an authoritative reconciliation, not a merge.
func (s *FileStore) Replace(ctx context.Context, ps []domain.Product) error {
	const op = "FileStore.Replace"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[string]domain.Product, len(ps))
	s.order = s.order[:0]
	for _, p := range ps {
		s.upsertLocked(p)
	}
	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// List returns a snapshot in insertion order, safe to iterate
// without blocking further writers.
func (s *FileStore) List(ctx context.Context) ([]domain.Product, error) {
	const op = "FileStore.List"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ps := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		ps = append(ps, s.byID[id])
	}
	return ps, nil
}

// Load reads the replica file. A missing or empty file is a valid
// empty catalog, not an error.
func (s *FileStore) Load(ctx context.Context) error {
	const op = "FileStore.Load"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info("replica file is absent, starting empty",
				"path", s.path)
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(data) == 0 {
		return nil
	}

	var ps []domain.Product
	if err := json.Unmarshal(data, &ps); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.byID = make(map[string]domain.Product, len(ps))
	s.order = s.order[:0]
	for _, p := range ps {
		s.upsertLocked(p)
	}

	log.Info("replica loaded", "path", s.path, "nProducts", len(s.order))
	return nil
}

func (s *FileStore) Save(ctx context.Context) error {
	const op = "FileStore.Save"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *FileStore) upsertLocked(p domain.Product) {
	if _, ok := s.byID[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	s.byID[p.ID] = p
}

func (s *FileStore) saveLocked() error {
	const op = "saveLocked"
	log := slog.With("op", "FileStore."+op)

	ps := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		ps = append(ps, s.byID[id])
	}

	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			log.Error("failed to remove temp replica file", "err", rmErr)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
