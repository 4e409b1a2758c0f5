package settings

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keychain service name entries are filed under.
const DefaultService = "geoshot"

// KeyringStore keeps settings in the operating system's credential store.
type KeyringStore struct {
	Service string
}

func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultService
	}
	return &KeyringStore{Service: service}
}

func (k *KeyringStore) Get(key string) (string, error) {
	v, err := keyring.Get(k.Service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s from keyring: %w", key, err)
	}
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

func (k *KeyringStore) Set(key, value string) error {
	if err := keyring.Set(k.Service, key, value); err != nil {
		return fmt.Errorf("failed to write %s to keyring: %w", key, err)
	}
	return nil
}

func (k *KeyringStore) Delete(key string) error {
	err := keyring.Delete(k.Service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}

// Available reports whether the keyring backend answers at all.
// A missing entry still counts as available.
func (k *KeyringStore) Available() bool {
	_, err := keyring.Get(k.Service, "__probe__")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
