package tmpl

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
)

// Store loads named templates from a backing source.
type Store interface {
	Load(ctx context.Context, name string) (*template.Template, error)
}

// Lister is implemented by stores that can enumerate their template names.
// Every store in this package implements it.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// StoreOption adjusts store construction.
type StoreOption func(*storeConfig)

type storeConfig struct {
	prefix string
	funcs  template.FuncMap
	cache  bool
}

func newStoreConfig(opts []StoreOption) storeConfig {
	cfg := storeConfig{cache: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithPrefix namespaces every template name under a path prefix: a subdir
// for DirStore, a key prefix for S3Store.
func WithPrefix(prefix string) StoreOption {
	return func(cfg *storeConfig) {
		cfg.prefix = prefix
	}
}

// WithFuncs makes the function map available to every loaded template.
func WithFuncs(funcs template.FuncMap) StoreOption {
	return func(cfg *storeConfig) {
		cfg.funcs = funcs
	}
}

// WithoutCache disables compiled-template caching, so every Load re-reads
// and re-compiles. Useful while templates are being edited.
func WithoutCache() StoreOption {
	return func(cfg *storeConfig) {
		cfg.cache = false
	}
}

func (cfg *storeConfig) newTemplate(name string) *template.Template {
	t := template.New(name)
	if cfg.funcs != nil {
		t = t.Funcs(cfg.funcs)
	}
	return t
}

// ============================================================================
// MemStore
// ============================================================================

// MemStore keeps templates registered in memory. Safe for concurrent use.
type MemStore struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{templates: make(map[string]*template.Template)}
}

// Add compiles src and registers it under name, replacing any previous
// registration.
func (s *MemStore) Add(name, src string) error {
	t, err := Compile(name, src)
	if err != nil {
		return &Error{Name: name, Op: "load", Err: err}
	}
	s.AddTemplate(name, t)
	return nil
}

// AddTemplate registers an already compiled template under name.
func (s *MemStore) AddTemplate(name string, t *template.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[name] = t
}

// Remove drops the named template.
func (s *MemStore) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.templates, name)
}

// Load returns the named template or ErrNotFound.
func (s *MemStore) Load(_ context.Context, name string) (*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[name]
	if !ok {
		return nil, &Error{Name: name, Op: "load", Err: ErrNotFound}
	}
	return t, nil
}

// List returns the registered names, sorted.
func (s *MemStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ============================================================================
// DirStore
// ============================================================================

// DirStore loads templates from files under a directory. Names are
// slash-separated paths relative to the directory; anything escaping it is
// rejected. Compiled templates are cached unless WithoutCache is set.
type DirStore struct {
	dir string
	cfg storeConfig

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// NewDirStore returns a store rooted at dir.
//
// Example:
//
//	store := tmpl.NewDirStore("./templates", tmpl.WithoutCache())
//	def.Template = tmpl.Producer(ctx, store, "cards/user.html")
func NewDirStore(dir string, opts ...StoreOption) *DirStore {
	return &DirStore{
		dir:   dir,
		cfg:   newStoreConfig(opts),
		cache: make(map[string]*template.Template),
	}
}

// Load reads, compiles and returns the named template. Missing files map to
// ErrNotFound.
func (s *DirStore) Load(_ context.Context, name string) (*template.Template, error) {
	if s.cfg.cache {
		s.mu.RLock()
		t, ok := s.cache[name]
		s.mu.RUnlock()
		if ok {
			return t, nil
		}
	}

	rel := path.Join(s.cfg.prefix, name)
	if !fs.ValidPath(rel) {
		return nil, &Error{Name: name, Op: "load", Err: fmt.Errorf("invalid template name")}
	}
	src, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(rel)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Name: name, Op: "load", Err: ErrNotFound}
		}
		return nil, &Error{Name: name, Op: "load", Err: err}
	}

	t, err := s.cfg.newTemplate(name).Parse(string(src))
	if err != nil {
		return nil, &Error{Name: name, Op: "load", Err: err}
	}

	if s.cfg.cache {
		s.mu.Lock()
		s.cache[name] = t
		s.mu.Unlock()
	}
	return t, nil
}

// Exists reports whether the named template file is present.
func (s *DirStore) Exists(name string) bool {
	rel := path.Join(s.cfg.prefix, name)
	if !fs.ValidPath(rel) {
		return false
	}
	info, err := os.Stat(filepath.Join(s.dir, filepath.FromSlash(rel)))
	return err == nil && !info.IsDir()
}

// Invalidate drops the named template from the cache; an empty name drops
// everything.
func (s *DirStore) Invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		s.cache = make(map[string]*template.Template)
		return
	}
	delete(s.cache, name)
}

// List walks the store directory and returns every file name, sorted,
// relative to the prefix.
func (s *DirStore) List(_ context.Context) ([]string, error) {
	root := filepath.Join(s.dir, filepath.FromSlash(s.cfg.prefix))
	var names []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &Error{Op: "load", Err: err}
	}
	sort.Strings(names)
	return names, nil
}
