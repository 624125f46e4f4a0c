// Package jsonfile keeps postings in a single JSON document on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spigell/hh-indexer/internal/posting"
	"github.com/spigell/hh-indexer/internal/store"
)

type Store struct {
	mu   sync.Mutex
	path string
}

// Open returns a store backed by path. The file is created on first Save.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("json store path is required")
	}
	return &Store{path: path}, nil
}

func (s *Store) Close() error { return nil }

// List returns all postings ordered by id.
func (s *Store) List(_ context.Context) ([]posting.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return nil, err
	}

	out := make([]posting.Posting, 0, len(items))
	for _, p := range items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetByID(_ context.Context, id string) (*posting.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return nil, err
	}
	p, ok := items[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, store.ErrNotFound)
	}
	return &p, nil
}

// Save merges postings into the file by id and rewrites it atomically.
// CreatedAt of an already stored posting is kept.
func (s *Store) Save(_ context.Context, postings []posting.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return err
	}

	for _, p := range postings {
		if existing, ok := items[p.ID]; ok && !existing.CreatedAt.IsZero() {
			p.CreatedAt = existing.CreatedAt
		}
		items[p.ID] = p
	}

	return s.write(items)
}

func (s *Store) read() (map[string]posting.Posting, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]posting.Posting{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	var list []posting.Posting
	if len(data) > 0 {
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", s.path, err)
		}
	}

	items := make(map[string]posting.Posting, len(list))
	for _, p := range list {
		items[p.ID] = p
	}
	return items, nil
}

func (s *Store) write(items map[string]posting.Posting) error {
	list := make([]posting.Posting, 0, len(items))
	for _, p := range items {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding postings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}
