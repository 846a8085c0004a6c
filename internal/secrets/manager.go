package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/revittco/storeadmin/internal/store"
)

// CredentialStore reads and writes the encrypted credential blob of an
// account.
type CredentialStore interface {
	GetAccount(ctx context.Context, id string) (*store.Account, error)
	UpdateAccountCredentials(ctx context.Context, id string, data []byte) error
}

// Manager keeps named secrets (for example an OAuth refresh token) per
// account, age-encrypted at rest.
type Manager struct {
	store     CredentialStore
	encryptor *AgeEncryptor
}

// NewManager creates a secrets Manager.
func NewManager(s CredentialStore, enc *AgeEncryptor) *Manager {
	return &Manager{store: s, encryptor: enc}
}

// Put encrypts and stores a secret under the given account and key.
func (m *Manager) Put(ctx context.Context, accountID, key string, plaintext []byte) error {
	secrets, err := m.load(ctx, accountID)
	if err != nil {
		return err
	}
	secrets[key] = string(plaintext)
	return m.save(ctx, accountID, secrets)
}

// Get decrypts and returns a secret.
func (m *Manager) Get(ctx context.Context, accountID, key string) ([]byte, error) {
	secrets, err := m.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	val, ok := secrets[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return []byte(val), nil
}

// List returns the secret key names of an account, sorted.
func (m *Manager) List(ctx context.Context, accountID string) ([]string, error) {
	secrets, err := m.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(secrets))
	for k := range secrets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes a secret key.
func (m *Manager) Delete(ctx context.Context, accountID, key string) error {
	secrets, err := m.load(ctx, accountID)
	if err != nil {
		return err
	}
	if _, ok := secrets[key]; !ok {
		return store.ErrNotFound
	}
	delete(secrets, key)
	return m.save(ctx, accountID, secrets)
}

func (m *Manager) load(ctx context.Context, accountID string) (map[string]string, error) {
	acct, err := m.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", accountID, err)
	}
	if len(acct.EncryptedCredentials) == 0 {
		return make(map[string]string), nil
	}

	plaintext, err := m.encryptor.Decrypt(acct.EncryptedCredentials)
	if err != nil {
		return nil, fmt.Errorf("decrypt secrets: %w", err)
	}
	var secrets map[string]string
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("unmarshal secrets: %w", err)
	}
	return secrets, nil
}

func (m *Manager) save(ctx context.Context, accountID string, secrets map[string]string) error {
	data, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}
	encrypted, err := m.encryptor.Encrypt(data)
	if err != nil {
		return fmt.Errorf("encrypt secrets: %w", err)
	}
	if err := m.store.UpdateAccountCredentials(ctx, accountID, encrypted); err != nil {
		return fmt.Errorf("update account credentials: %w", err)
	}
	return nil
}
