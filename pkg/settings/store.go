// Package settings persists small named values such as the Gemini API key.
package settings

import (
	"errors"
	"strings"
)

// APIKeyName is the fixed name the Gemini credential is stored under.
const APIKeyName = "geminiApiKey"

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("setting not found")

// ErrEmptyValue is returned when a blank value is offered for persistence.
var ErrEmptyValue = errors.New("value is empty")

// Store is a key/value settings store.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// NormalizeCredential trims whitespace and rejects blank input.
func NormalizeCredential(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrEmptyValue
	}
	return value, nil
}

// MemoryStore keeps values in process memory only.
type MemoryStore struct {
	values map[string]string
}

func NewMemoryStore(initial map[string]string) *MemoryStore {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryStore{values: values}
}

func (m *MemoryStore) Get(key string) (string, error) {
	v, ok := m.values[key]
	if !ok || v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	delete(m.values, key)
	return nil
}
