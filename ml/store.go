package ml

import (
	"context"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Loader turns an artifact path into a classifier.
type Loader func(path string) (Classifier, error)

// LoadObserver is told about every load attempt the store makes.
type LoadObserver func(path string, took time.Duration, err error)

type StoreOption func(*Store)

func WithLoader(load Loader) StoreOption {
	return func(s *Store) { s.load = load }
}

func WithLoadObserver(observe LoadObserver) StoreOption {
	return func(s *Store) { s.observe = observe }
}

// Store keeps loaded classifiers keyed by artifact path. Artifacts are
// immutable, so entries only leave on eviction or an explicit Invalidate.
// Failed loads are never cached.
type Store struct {
	cache   *lru.Cache[string, Classifier]
	load    Loader
	observe LoadObserver

	// generations is bumped by Invalidate so a load that raced it is not cached.
	mu          sync.Mutex
	generations map[string]uint64
}

func NewStore(size int, opts ...StoreOption) (*Store, error) {
	if size <= 0 {
		return nil, errors.New("store size must be positive")
	}
	cache, err := lru.New[string, Classifier](size)
	if err != nil {
		return nil, err
	}
	s := &Store{cache: cache, load: LoadModel, generations: make(map[string]uint64)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get returns the cached classifier for path, loading it on a miss.
func (s *Store) Get(path string) (Classifier, error) {
	if model, ok := s.cache.Get(path); ok {
		return model, nil
	}
	gen := s.generation(path)
	start := time.Now()
	model, err := s.load(path)
	if s.observe != nil {
		s.observe(path, time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.generations[path] == gen {
		s.cache.Add(path, model)
	}
	s.mu.Unlock()
	return model, nil
}

// Invalidate drops path from the cache. A load already in flight for path is
// still returned to its caller but not cached.
func (s *Store) Invalidate(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[path]++
	return s.cache.Remove(path)
}

func (s *Store) generation(path string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[path]
}

func (s *Store) Len() int {
	return s.cache.Len()
}

// Source binds the store to one artifact path.
func (s *Store) Source(path string) *FileSource {
	return &FileSource{store: s, path: path}
}

// FileSource is a ModelProvider backed by a single artifact file.
type FileSource struct {
	store *Store
	path  string
}

func (f *FileSource) Path() string { return f.path }

func (f *FileSource) Model(ctx context.Context) (Classifier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.store.Get(f.path)
}
