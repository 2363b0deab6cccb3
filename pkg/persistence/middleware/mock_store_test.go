package middleware_test

import (
	"context"

	"github.com/aretw0/concierge/pkg/domain"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]string
	err  error
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]string),
	}
}

func (s *MockStore) Get(ctx context.Context, key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.data[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return v, nil
}

func (s *MockStore) Set(ctx context.Context, key, value string) error {
	if s.err != nil {
		return s.err
	}
	s.data[key] = value
	return nil
}

func (s *MockStore) Remove(ctx context.Context, key string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.data, key)
	return nil
}
