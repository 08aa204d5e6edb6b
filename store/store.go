package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/kjk/kvcli/atomicfile"
	"github.com/kjk/kvcli/u"
)

const (
	DefaultScalarFileName = "kv_store.json"
	DefaultListFileName   = "list_store.json"
)

// Store holds a scalar map (key -> value) and a list map
// (name -> values in append order). Each map lives in its own file
// which is re-written in full on every change to that map.
//
// Store is safe for concurrent use. Set and Append hold the lock
// across both the change and the file write.
type Store struct {
	// directory of backing files, "" means current directory
	Dir string
	// default: kv_store.json
	ScalarFileName string
	// default: list_store.json
	ListFileName string

	// optional, called for each backing file that exists
	// but couldn't be loaded
	OnLoadAnomaly func(a *LoadAnomaly)

	scalarPath string
	listPath   string
	anomalies  []*LoadAnomaly

	scalars map[string]string
	lists   map[string][]string
	mu      sync.Mutex
}

// Snapshot is a copy of the store's content
type Snapshot struct {
	Scalars map[string]string   `json:"kv_store"`
	Lists   map[string][]string `json:"list_store"`
}

// Keys returns keys of the scalar map, sorted
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.Scalars))
	for k := range s.Scalars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ListNames returns names of the lists, sorted
func (s Snapshot) ListNames() []string {
	names := make([]string, 0, len(s.Lists))
	for k := range s.Lists {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Open resolves backing file paths and loads both maps.
// It never fails: a missing file means an empty map and a file that
// can't be read or decoded is recorded as LoadAnomaly and also
// treated as an empty map.
func Open(s *Store) *Store {
	if s.Dir == "" {
		s.Dir = "."
	}
	if s.ScalarFileName == "" {
		s.ScalarFileName = DefaultScalarFileName
	}
	if s.ListFileName == "" {
		s.ListFileName = DefaultListFileName
	}
	s.scalarPath = filepath.Join(s.Dir, s.ScalarFileName)
	s.listPath = filepath.Join(s.Dir, s.ListFileName)

	s.mu.Lock()
	s.anomalies = nil
	s.scalars = map[string]string{}
	if m, a := loadMap[string](s.scalarPath); a != nil {
		s.anomalies = append(s.anomalies, a)
	} else if m != nil {
		s.scalars = m
	}
	s.lists = map[string][]string{}
	if m, a := loadMap[[]string](s.listPath); a != nil {
		s.anomalies = append(s.anomalies, a)
	} else if m != nil {
		s.lists = m
	}
	anomalies := s.anomalies
	s.mu.Unlock()

	if s.OnLoadAnomaly != nil {
		for _, a := range anomalies {
			s.OnLoadAnomaly(a)
		}
	}
	return s
}

// loadMap returns nil map if the file doesn't exist or is empty
func loadMap[V any](path string) (map[string]V, *LoadAnomaly) {
	if !u.PathExists(path) {
		return nil, nil
	}
	d, err := os.ReadFile(path)
	if err == nil {
		var m map[string]V
		if err = decode(path, d, &m); err == nil {
			return m, nil
		}
	}
	return nil, &LoadAnomaly{Path: path, Err: err}
}

// Anomalies returns backing files that were ignored by Open
func (s *Store) Anomalies() []*LoadAnomaly {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*LoadAnomaly(nil), s.anomalies...)
}

func (s *Store) ScalarPath() string {
	return s.scalarPath
}

func (s *Store) ListPath() string {
	return s.listPath
}

func saveMap(path string, v any) error {
	d, err := encode(path, v)
	if err == nil {
		err = os.MkdirAll(filepath.Dir(path), 0755)
	}
	if err == nil {
		err = atomicfile.WriteFile(path, d)
	}
	if err != nil {
		return &WriteFailure{Path: path, Err: err}
	}
	return nil
}

// JSON encoding would silently replace invalid bytes with U+FFFD
// and the file wouldn't match memory
func checkUTF8(name, value string) error {
	if !utf8.ValidString(name) {
		return fmt.Errorf("%q: %w", name, ErrInvalidUTF8)
	}
	if !utf8.ValidString(value) {
		return fmt.Errorf("value %q: %w", value, ErrInvalidUTF8)
	}
	return nil
}

// Set sets key to value, over-writing the previous value,
// and saves the scalar map. Returns *WriteFailure if saving failed
// and ErrInvalidUTF8, without changing anything, for invalid input.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scalars == nil {
		return fmt.Errorf("store not opened")
	}
	if err := checkUTF8(key, value); err != nil {
		return err
	}
	s.scalars[key] = value
	return saveMap(s.scalarPath, s.scalars)
}

// Append adds value at the end of list name, creating the list
// if needed, and saves the list map. Returns *WriteFailure if
// saving failed.
func (s *Store) Append(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lists == nil {
		return fmt.Errorf("store not opened")
	}
	if err := checkUTF8(name, value); err != nil {
		return err
	}
	s.lists[name] = append(s.lists[name], value)
	return saveMap(s.listPath, s.lists)
}

// Snapshot returns a copy of both maps. No file I/O.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := Snapshot{
		Scalars: make(map[string]string, len(s.scalars)),
		Lists:   make(map[string][]string, len(s.lists)),
	}
	for k, v := range s.scalars {
		res.Scalars[k] = v
	}
	for k, v := range s.lists {
		res.Lists[k] = append([]string(nil), v...)
	}
	return res
}
