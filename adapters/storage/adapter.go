// Package storage keeps named evaluation presets: the inputs of an
// evaluation saved under a name so that it can be re-run against fresh
// quotes. Results are never stored. Backends: file, memory.
package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"craft-cost/core/engine"
	"craft-cost/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendFile   Backend = "file"
	BackendMemory Backend = "memory"
)

// presetNamespace derives stable preset IDs from names
var presetNamespace = uuid.MustParse("6f1c8f5e-3f4b-4b9e-9a37-2c0de5a1c0f7")

// Store is the storage interface
type Store interface {
	// Save creates or replaces the preset with the same name
	Save(ctx context.Context, preset *Preset) error

	// Get retrieves a preset by name
	Get(ctx context.Context, name string) (*Preset, error)

	// List lists presets ordered by name
	List(ctx context.Context, filter *ListFilter) ([]*Preset, error)

	// Delete removes a preset
	Delete(ctx context.Context, name string) error

	// Close closes the store
	Close() error
}

// Preset is a named set of evaluation inputs
type Preset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Inputs engine.Inputs `json:"inputs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PresetID returns the stable ID for name
func PresetID(name string) string {
	return uuid.NewSHA1(presetNamespace, []byte(name)).String()
}

// ListFilter filters preset listing
type ListFilter struct {
	Series string
	Part   string
	Limit  int
	Offset int
}

func (f *ListFilter) match(p *Preset) bool {
	if f == nil {
		return true
	}
	if f.Series != "" && p.Inputs.Series != f.Series {
		return false
	}
	if f.Part != "" && p.Inputs.Part != f.Part {
		return false
	}
	return true
}

// page sorts by name and applies offset and limit
func (f *ListFilter) page(presets []*Preset) []*Preset {
	sort.Slice(presets, func(i, j int) bool {
		return presets[i].Name < presets[j].Name
	})
	if f == nil {
		return presets
	}
	if f.Offset > 0 {
		if f.Offset >= len(presets) {
			return nil
		}
		presets = presets[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(presets) {
		presets = presets[:f.Limit]
	}
	return presets
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.Input("preset name is empty")
	}
	return name, nil
}

// prepare fixes the name, ID and timestamps before a save; existing is the
// stored preset being replaced, if any
func prepare(preset, existing *Preset) error {
	name, err := normalizeName(preset.Name)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	preset.Name = name
	preset.ID = PresetID(name)
	preset.UpdatedAt = now
	switch {
	case existing != nil:
		preset.CreatedAt = existing.CreatedAt
	case preset.CreatedAt.IsZero():
		preset.CreatedAt = now
	}
	return nil
}

// FileStore is a file-based storage backend, one JSON file per preset
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file store
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "failed to create storage directory", err).WithContext("path", basePath)
	}
	return &FileStore{basePath: basePath}, nil
}

// path maps a name to its file; names never reach the file system directly
func (s *FileStore) path(name string) string {
	return filepath.Join(s.basePath, PresetID(name)+".json")
}

func (s *FileStore) Save(ctx context.Context, preset *Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := normalizeName(preset.Name)
	if err != nil {
		return err
	}
	existing, err := readPreset(s.path(name), name)
	if err != nil && !errors.IsType(err, errors.TypeNotFound) {
		return err
	}
	if err := prepare(preset, existing); err != nil {
		return err
	}

	data, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return errors.Internal("failed to marshal preset", err)
	}
	if err := os.WriteFile(s.path(name), data, 0644); err != nil {
		return errors.Internal("failed to write preset", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, name string) (*Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	return readPreset(s.path(name), name)
}

func readPreset(path, name string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("preset", name)
		}
		return nil, errors.Internal("failed to read preset", err)
	}
	var preset Preset
	if err := json.Unmarshal(data, &preset); err != nil {
		return nil, errors.Internal("failed to unmarshal preset", err).WithContext("path", path)
	}
	return &preset, nil
}

func (s *FileStore) List(ctx context.Context, filter *ListFilter) ([]*Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, errors.Internal("failed to read storage", err)
	}

	var presets []*Preset
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		preset, err := readPreset(filepath.Join(s.basePath, name), name)
		if err != nil {
			// unreadable files are skipped
			continue
		}
		if filter.match(preset) {
			presets = append(presets, preset)
		}
	}
	return filter.page(presets), nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil {
		if os.IsNotExist(err) {
			return errors.NotFound("preset", name)
		}
		return errors.Internal("failed to delete preset", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// MemoryStore is an in-memory storage backend
type MemoryStore struct {
	presets map[string]*Preset
	mu      sync.RWMutex
}

// NewMemoryStore creates a memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		presets: make(map[string]*Preset),
	}
}

func (s *MemoryStore) Save(ctx context.Context, preset *Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := normalizeName(preset.Name)
	if err != nil {
		return err
	}
	if err := prepare(preset, s.presets[name]); err != nil {
		return err
	}
	s.presets[name] = clonePreset(preset)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, name string) (*Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	preset, ok := s.presets[strings.TrimSpace(name)]
	if !ok {
		return nil, errors.NotFound("preset", name)
	}
	return clonePreset(preset), nil
}

func (s *MemoryStore) List(ctx context.Context, filter *ListFilter) ([]*Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var presets []*Preset
	for _, preset := range s.presets {
		if filter.match(preset) {
			presets = append(presets, clonePreset(preset))
		}
	}
	return filter.page(presets), nil
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if _, ok := s.presets[name]; !ok {
		return errors.NotFound("preset", name)
	}
	delete(s.presets, name)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// clonePreset copies p so that callers and the store never share inputs
func clonePreset(p *Preset) *Preset {
	out := *p
	out.Inputs = p.Inputs.Clone()
	return &out
}

// StoreFactory creates stores by backend type
func StoreFactory(backend Backend, path string) (Store, error) {
	switch backend {
	case BackendFile:
		if path == "" {
			path = filepath.Join(".craft-cost", "presets")
		}
		return NewFileStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, errors.Config("unsupported storage backend: %s", backend)
	}
}

// Ensure interfaces are implemented
var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
