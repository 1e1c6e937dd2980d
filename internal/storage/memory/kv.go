package memory

import (
	"bytes"
	"context"

	"github.com/Shiraishi0303/todo-claude-code/internal/model"
)

// KVStorage keeps values in a map. Nothing survives the process. The zero
// value is ready to use.
type KVStorage struct {
	data   map[string][]byte
	writes int
}

func NewKVStorage() *KVStorage {
	return &KVStorage{data: make(map[string][]byte)}
}

func (s *KVStorage) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.data[key]
	if !ok {
		return nil, model.ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

func (s *KVStorage) Set(_ context.Context, key string, value []byte) error {
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	s.data[key] = bytes.Clone(value)
	s.writes++
	return nil
}

// Writes counts Set calls.
func (s *KVStorage) Writes() int {
	return s.writes
}
