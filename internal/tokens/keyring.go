package tokens

import (
	"errors"
	"fmt"

	"github.com/desertthunder/upl/internal/models"
	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the keychain service name used when none is configured.
const DefaultKeyringService = "com.upl.app"

// KeyringStore persists the credential in the OS keychain under service.
//
// The keychain has no transactions: Set issues three writes, and a concurrent reader may briefly see a mix of old and new values.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a store scoped to service.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service}
}

func (k *KeyringStore) Set(cred models.Credential) error {
	vals := values(cred)
	for _, field := range Fields {
		v := vals[field]
		if v == nil {
			if err := keyring.Delete(k.service, string(field)); err != nil && !errors.Is(err, keyring.ErrNotFound) {
				return fmt.Errorf("failed to delete %s from keychain: %w", field, err)
			}
			continue
		}
		if err := keyring.Set(k.service, string(field), *v); err != nil {
			return fmt.Errorf("failed to write %s to keychain: %w", field, err)
		}
	}
	return nil
}

func (k *KeyringStore) Get(field Field) (string, bool, error) {
	if err := validField(field); err != nil {
		return "", false, err
	}

	v, err := keyring.Get(k.service, string(field))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s from keychain: %w", field, err)
	}
	return v, true, nil
}

func (k *KeyringStore) Clear() error {
	for _, field := range Fields {
		if err := keyring.Delete(k.service, string(field)); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to delete %s from keychain: %w", field, err)
		}
	}
	return nil
}

func (k *KeyringStore) Close() error { return nil }
