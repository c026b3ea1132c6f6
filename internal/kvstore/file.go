package kvstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var ErrClosed = errors.New("kvstore: closed")

// File is a namespaced unsigned-integer store persisted as a YAML document:
//
//	xeon-pwm:
//	  pwm-frequency: 30000
//
// Other namespaces in the same file are preserved. Every write rewrites the
// file through a temp file and rename, so a crash leaves either the old or the
// new document on disk.
type File struct {
	path      string
	namespace string

	mu     sync.Mutex
	doc    map[string]map[string]uint32
	closed bool
}

// Open loads path (a missing file is an empty store) and scopes the store to
// namespace.
func Open(path, namespace string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("kvstore: path is required")
	}
	if namespace == "" {
		return nil, fmt.Errorf("kvstore: namespace is required")
	}
	doc := map[string]map[string]uint32{}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("kvstore: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("kvstore: parse %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]map[string]uint32{}
		}
	}
	return &File{path: path, namespace: namespace, doc: doc}, nil
}

// Uint returns the stored value for key, or def when it is absent.
func (f *File) Uint(key string, def uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.doc[f.namespace][key]; ok {
		return v
	}
	return def
}

func (f *File) PutUint(key string, v uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	ns := f.doc[f.namespace]
	if ns == nil {
		ns = map[string]uint32{}
		f.doc[f.namespace] = ns
	}
	old, had := ns[key]
	ns[key] = v
	if err := f.save(); err != nil {
		if had {
			ns[key] = old
		} else {
			delete(ns, key)
		}
		return err
	}
	return nil
}

// Clear removes every key in the namespace.
func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	old := f.doc[f.namespace]
	delete(f.doc, f.namespace)
	if err := f.save(); err != nil {
		if old != nil {
			f.doc[f.namespace] = old
		}
		return err
	}
	return nil
}

// Close releases the store. Later writes fail with ErrClosed; reads keep
// serving the last loaded values.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *File) save() error {
	b, err := yaml.Marshal(f.doc)
	if err != nil {
		return fmt.Errorf("kvstore: encode: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("kvstore: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("kvstore: create temp: %w", err)
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(b)
	serr := tmp.Sync()
	cerr := tmp.Close()
	if err := errors.Join(werr, serr, cerr); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("kvstore: write %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("kvstore: rename: %w", err)
	}
	return nil
}
