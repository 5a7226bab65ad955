package vault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nihmadev/Axion/internal/crypto"
	"github.com/nihmadev/Axion/internal/store"
)

// Entry is a decrypted credential entry. It only ever exists in memory while
// the session is unlocked.
type Entry struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Passwords returns all entries decrypted, most recently updated first.
// Requires Unlocked.
func (v *Vault) Passwords() ([]Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.passwordsLocked()
}

func (v *Vault) passwordsLocked() ([]Entry, error) {
	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}

	recs, err := v.store.ListCredentials()
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}

	entries := make([]Entry, 0, len(recs))
	for _, rec := range recs {
		password, dErr := crypto.Decrypt(v.key, rec.EncryptedPassword)
		if dErr != nil {
			return nil, fmt.Errorf("decrypt entry %s: %w", rec.ID, dErr)
		}
		entries = append(entries, Entry{
			ID:        rec.ID,
			URL:       rec.URL,
			Username:  rec.Username,
			Password:  string(password),
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		})
		crypto.ZeroBytes(password)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	return entries, nil
}

// PasswordsForURL returns the entries whose stored URL belongs to the same
// registrable domain as rawURL. This is the query behind the autofill popup.
// Requires Unlocked.
func (v *Vault) PasswordsForURL(rawURL string) ([]Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries, err := v.passwordsLocked()
	if err != nil {
		return nil, err
	}

	matched := entries[:0]
	for _, e := range entries {
		if SameSite(e.URL, rawURL) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// SearchPasswords returns entries whose URL or username contains query,
// case-insensitively. Requires Unlocked.
func (v *Vault) SearchPasswords(query string) ([]Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries, err := v.passwordsLocked()
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	matched := entries[:0]
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.URL), q) ||
			strings.Contains(strings.ToLower(e.Username), q) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// GetPassword returns the decrypted entry with the given id, or ErrNotFound.
// Requires Unlocked.
func (v *Vault) GetPassword(id string) (*Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}

	rec, err := v.store.GetCredential(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}

	plaintext, err := crypto.Decrypt(v.key, rec.EncryptedPassword)
	if err != nil {
		return nil, fmt.Errorf("decrypt entry %s: %w", rec.ID, err)
	}
	entry := &Entry{
		ID:        rec.ID,
		URL:       rec.URL,
		Username:  rec.Username,
		Password:  string(plaintext),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	crypto.ZeroBytes(plaintext)
	return entry, nil
}

// AddPassword creates a new entry and persists it immediately. All three
// fields are required. Requires Unlocked.
func (v *Vault) AddPassword(url, username, password string) (*Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}
	if url == "" || username == "" || password == "" {
		return nil, fmt.Errorf("%w: url, username and password are required", ErrInvalidInput)
	}

	sealed, err := crypto.Encrypt(v.key, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("encrypt password: %w", err)
	}

	now := time.Now().UTC()
	rec := &store.CredentialRecord{
		ID:                uuid.New().String(),
		URL:               url,
		Username:          username,
		EncryptedPassword: sealed,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := v.store.PutCredential(rec); err != nil {
		return nil, fmt.Errorf("put credential: %w", err)
	}

	return &Entry{
		ID:        rec.ID,
		URL:       rec.URL,
		Username:  rec.Username,
		Password:  password,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// UpdatePassword applies a partial update to the entry with the given id:
// nil fields keep their previous value. Returns ErrNotFound for unknown ids.
// Requires Unlocked.
func (v *Vault) UpdatePassword(id string, url, username, password *string) (*Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}

	rec, err := v.store.GetCredential(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}

	if url != nil {
		if *url == "" {
			return nil, fmt.Errorf("%w: url cannot be empty", ErrInvalidInput)
		}
		rec.URL = *url
	}
	if username != nil {
		if *username == "" {
			return nil, fmt.Errorf("%w: username cannot be empty", ErrInvalidInput)
		}
		rec.Username = *username
	}
	if password != nil {
		if *password == "" {
			return nil, fmt.Errorf("%w: password cannot be empty", ErrInvalidInput)
		}
		sealed, eErr := crypto.Encrypt(v.key, []byte(*password))
		if eErr != nil {
			return nil, fmt.Errorf("encrypt password: %w", eErr)
		}
		rec.EncryptedPassword = sealed
	}
	rec.UpdatedAt = time.Now().UTC()

	if err := v.store.PutCredential(rec); err != nil {
		return nil, fmt.Errorf("put credential: %w", err)
	}

	plaintext, err := crypto.Decrypt(v.key, rec.EncryptedPassword)
	if err != nil {
		return nil, fmt.Errorf("decrypt entry %s: %w", rec.ID, err)
	}
	entry := &Entry{
		ID:        rec.ID,
		URL:       rec.URL,
		Username:  rec.Username,
		Password:  string(plaintext),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	crypto.ZeroBytes(plaintext)
	return entry, nil
}

// DeletePassword removes the entry with the given id. Deleting an unknown id
// returns ErrNotFound. Requires Unlocked.
func (v *Vault) DeletePassword(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlockedLocked(); err != nil {
		return err
	}

	err := v.store.DeleteCredential(id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
