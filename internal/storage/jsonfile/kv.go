package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Shiraishi0303/todo-claude-code/internal/model"
)

// KVStorage keeps each key in its own <key>.json file under Dir.
type KVStorage struct {
	Dir string
}

func NewKVStorage(dir string) *KVStorage {
	return &KVStorage{Dir: dir}
}

func (s *KVStorage) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.Dir, key+".json"), nil
}

func (s *KVStorage) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.ErrKeyNotFound
		}
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return data, nil
}

// Set replaces the file atomically: the value goes to a temp file in the same
// directory which is then renamed over the old one.
func (s *KVStorage) Set(_ context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return fmt.Errorf("could not create directory %s: %w", s.Dir, err)
	}

	f, err := os.CreateTemp(s.Dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	tmp := f.Name()

	if _, err := f.Write(value); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("could not write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not replace %s: %w", path, err)
	}
	return nil
}
