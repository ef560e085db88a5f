package credstore

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keyring namespace used when none is configured
const DefaultService = "jamu"

// KeyringStore keeps secrets in the OS keychain (macOS Keychain, Windows
// Credential Manager, Secret Service on Linux), one entry per slot under a
// shared service name.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring-backed store in the given namespace
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultService
	}
	return &KeyringStore{service: service}
}

// Service returns the keyring namespace
func (k *KeyringStore) Service() string {
	return k.service
}

func (k *KeyringStore) Set(name, value string) error {
	return wrap("set", name, keyring.Set(k.service, name, value))
}

func (k *KeyringStore) Get(name string) (string, error) {
	v, err := keyring.Get(k.service, name)
	if err != nil {
		return "", wrap("get", name, translate(err))
	}
	return v, nil
}

func (k *KeyringStore) Delete(name string) error {
	return wrap("delete", name, translate(keyring.Delete(k.service, name)))
}

func translate(err error) error {
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
