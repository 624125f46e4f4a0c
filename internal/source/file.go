package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/spigell/hh-indexer/internal/posting"
)

const maxParallelFiles = 8

// File reads raw postings from JSON files. Each pattern is a path or a glob;
// a file holds either a JSON array of postings or, with the .jsonl
// extension, one posting per line.
type File struct {
	Patterns []string
}

func NewFile(patterns ...string) *File {
	return &File{Patterns: patterns}
}

func (f *File) Name() string { return "file" }

// Fetch loads every matched file concurrently. Postings keep the order of
// the sorted file list and, within a file, their order in it. Any unreadable
// file fails the whole fetch.
func (f *File) Fetch(ctx context.Context) ([]posting.RawPosting, error) {
	paths, err := f.expand()
	if err != nil {
		return nil, err
	}

	results := make([][]posting.RawPosting, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFiles)

	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			items, err := readFile(path)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []posting.RawPosting
	for _, items := range results {
		out = append(out, items...)
	}
	return out, nil
}

func (f *File) expand() ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string

	for _, pattern := range f.Patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			paths = append(paths, m)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func readFile(path string) ([]posting.RawPosting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var items []posting.RawPosting
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		items, err = decodeLines(data)
	} else if len(bytes.TrimSpace(data)) > 0 {
		err = json.Unmarshal(data, &items)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i := range items {
		if items[i].Source.Name == "" {
			items[i].Source.Name = name
		}
		if items[i].Source.Kind == "" {
			items[i].Source.Kind = "file"
		}
		if items[i].FetchedAt.IsZero() {
			items[i].FetchedAt = info.ModTime().UTC()
		}
	}
	return items, nil
}

func decodeLines(data []byte) ([]posting.RawPosting, error) {
	var items []posting.RawPosting

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var raw posting.RawPosting
		if err := json.Unmarshal(text, &raw); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, raw)
	}
	return items, scanner.Err()
}
