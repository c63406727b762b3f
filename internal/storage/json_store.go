package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const jsonExt = ".json"

// JSONStore keeps one file per key under a directory
type JSONStore struct {
	path         string
	maxBlobBytes int
	loaded       bool
}

func NewJSONStore(dir string, maxBlobBytes int) *JSONStore {
	return &JSONStore{
		path:         dir,
		maxBlobBytes: maxBlobBytes,
	}
}

func (s *JSONStore) Init() error {
	if err := os.MkdirAll(s.path, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	s.loaded = true
	return nil
}

func (s *JSONStore) Load() error {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotInitialized
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage path %s is not a directory", s.path)
	}
	s.loaded = true
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) GetPath() string {
	return s.path
}

func (s *JSONStore) fileFor(key string) string {
	return filepath.Join(s.path, url.PathEscape(key)+jsonExt)
}

func (s *JSONStore) Get(key string) ([]byte, error) {
	if !s.loaded {
		return nil, fmt.Errorf("storage not loaded")
	}
	data, err := os.ReadFile(s.fileFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return data, nil
}

// Put writes to a temp file and renames it over the target so readers never see a partial blob
func (s *JSONStore) Put(key string, value []byte) error {
	if !s.loaded {
		return fmt.Errorf("storage not loaded")
	}
	if err := checkQuota(key, value, s.maxBlobBytes); err != nil {
		return err
	}

	target := s.fileFor(key)
	tmp, err := os.CreateTemp(s.path, ".tmp-*")
	if err != nil {
		return classifyWriteError(fmt.Errorf("failed to create temp file: %w", err))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return classifyWriteError(fmt.Errorf("failed to write %q: %w", key, err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return classifyWriteError(fmt.Errorf("failed to sync %q: %w", key, err))
	}
	if err := tmp.Close(); err != nil {
		return classifyWriteError(fmt.Errorf("failed to close %q: %w", key, err))
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("failed to set permissions on %q: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to replace %q: %w", key, err)
	}
	return nil
}

func (s *JSONStore) Delete(key string) error {
	if !s.loaded {
		return fmt.Errorf("storage not loaded")
	}
	if err := os.Remove(s.fileFor(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (s *JSONStore) Keys() ([]string, error) {
	if !s.loaded {
		return nil, fmt.Errorf("storage not loaded")
	}
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, jsonExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, jsonExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
