// Package memory keeps the list of notes ("memories") in process and
// persists it to a single JSON file.
//
// The whole file is read once at startup and rewritten atomically (temp
// file + rename) on every Add. The Store is the only owner of the list.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrNotFound is returned when no memory has the requested id.
	ErrNotFound = errors.New("memory not found")
	// ErrEmptyContent is returned when adding a memory with no content.
	ErrEmptyContent = errors.New("memory content is required")
)

var storedMemories = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "memoria",
	Name:      "memories",
	Help:      "Number of memories currently held by the store.",
})

// Memory is a single note.
type Memory struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
}

// Store holds memories in insertion order and mirrors them to a file.
type Store struct {
	mu       sync.RWMutex
	root     *os.Root
	name     string
	memories []Memory
	logger   *slog.Logger
}

// Open prepares a Store backed by the file at path, creating its parent
// directory if needed. Call Load before serving.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir, name := filepath.Split(path)
	if name == "" {
		return nil, fmt.Errorf("store path %q names a directory", path)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open store root: %w", err)
	}

	return &Store{root: root, name: name, logger: logger}, nil
}

// Close releases the store directory handle.
func (s *Store) Close() error {
	return s.root.Close()
}

// Load replaces the in-memory list with the file contents. A missing file
// leaves the store empty; malformed JSON is an error.
func (s *Store) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.root.ReadFile(s.name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Info("memory file not found, starting empty", "file", s.name)
			s.replace(nil)
			return nil
		}
		return fmt.Errorf("read memory file: %w", err)
	}

	var memories []Memory
	if err := json.Unmarshal(data, &memories); err != nil {
		return fmt.Errorf("parse memory file: %w", err)
	}

	s.replace(memories)
	s.logger.Info("memories loaded", "count", len(memories))
	return nil
}

func (s *Store) replace(memories []Memory) {
	s.mu.Lock()
	s.memories = memories
	s.mu.Unlock()
	storedMemories.Set(float64(len(memories)))
}

// All returns a copy of every memory in insertion order.
func (s *Store) All() []Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.memories)
}

// Len returns the number of memories.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.memories)
}

// Get returns the memory with the given id.
func (s *Store) Get(id int) (Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := slices.IndexFunc(s.memories, func(m Memory) bool { return m.ID == id })
	if i < 0 {
		return Memory{}, ErrNotFound
	}
	return s.memories[i], nil
}

// Add appends a memory with the next id and rewrites the file. If the
// write fails the append is undone.
func (s *Store) Add(ctx context.Context, content string) (Memory, error) {
	if content == "" {
		return Memory{}, ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := Memory{ID: s.nextID(), Content: content}
	s.memories = append(s.memories, m)

	if err := s.save(ctx); err != nil {
		s.memories = s.memories[:len(s.memories)-1]
		s.logger.Error("failed to save memory", "id", m.ID, "err", err)
		return Memory{}, err
	}

	storedMemories.Set(float64(len(s.memories)))
	return m, nil
}

// nextID is one past the last memory's id, or 1 for an empty store.
func (s *Store) nextID() int {
	if len(s.memories) == 0 {
		return 1
	}
	return s.memories[len(s.memories)-1].ID + 1
}

// save writes the list to a temp file and renames it over the target.
// Callers hold s.mu.
func (s *Store) save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	list := s.memories
	if list == nil {
		list = []Memory{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memories: %w", err)
	}

	tmp := tmpFileName()
	t, err := s.root.Create(tmp)
	if err != nil {
		return fmt.Errorf("could not open temp file: %w", err)
	}

	success := false
	defer func() {
		if !success {
			if rmErr := s.root.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				s.logger.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := t.Write(data); err != nil {
		_ = t.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := t.Sync(); err != nil {
		_ = t.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := t.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := s.root.Rename(tmp, s.name); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
