package goAccount

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newTestHasher(t *testing.T) *password.Argon2 {
	t.Helper()
	h, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	return h
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.AccessSecret = []byte("access-secret-for-tests")
	cfg.JWT.RefreshSecret = []byte("refresh-secret-for-tests")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

// mockAccountStore is an in-memory AccountStore used across engine tests.
type mockAccountStore struct {
	mu      sync.Mutex
	byID    map[string]*Account
	byEmail map[string]string
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{
		byID:    make(map[string]*Account),
		byEmail: make(map[string]string),
	}
}

func (m *mockAccountStore) put(a *Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.byID[a.ID] = &cp
	m.byEmail[a.Email] = a.ID
}

func (m *mockAccountStore) snapshot(id string) *Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

func (m *mockAccountStore) Create(_ context.Context, input CreateAccountInput) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[input.Email]; exists {
		return nil, ErrAccountExists
	}
	now := time.Now().UTC()
	a := &Account{
		ID:           uuid.NewString(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: input.PasswordHash,
		Status:       input.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.byID[a.ID] = a
	m.byEmail[a.Email] = a.ID
	cp := *a
	return &cp, nil
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAccountStore) UpdatePasswordHash(_ context.Context, id string, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.PasswordHash = newHash
	return nil
}

func (m *mockAccountStore) SetVerified(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.VerifiedAt = at
	return nil
}

func (m *mockAccountStore) UpdateProfile(_ context.Context, id string, update ProfileUpdate) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if update.Email != nil && *update.Email != a.Email {
		if _, taken := m.byEmail[*update.Email]; taken {
			return nil, ErrAccountExists
		}
		delete(m.byEmail, a.Email)
		a.Email = *update.Email
		m.byEmail[a.Email] = id
	}
	if update.Name != nil {
		a.Name = *update.Name
	}
	if update.Mobile != nil {
		a.Mobile = *update.Mobile
	}
	if update.PasswordHash != nil {
		a.PasswordHash = *update.PasswordHash
	}
	cp := *a
	return &cp, nil
}

func (m *mockAccountStore) SetAvatarURL(_ context.Context, id string, url string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	a.AvatarURL = url
	cp := *a
	return &cp, nil
}

func (m *mockAccountStore) SetLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.LastLogin = at
	return nil
}

func (m *mockAccountStore) SetRefreshDigest(_ context.Context, id string, digest [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.RefreshDigest = digest
	return nil
}

func (m *mockAccountStore) SwapRefreshDigest(_ context.Context, id string, prev, next [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	if a.RefreshDigest != prev {
		return ErrDigestMismatch
	}
	a.RefreshDigest = next
	return nil
}

func (m *mockAccountStore) ClearRefreshDigest(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.RefreshDigest = [32]byte{}
	return nil
}

func (m *mockAccountStore) SetRecoveryOTP(_ context.Context, id string, hash [32]byte, expiresAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.RecoveryOTPHash = hash
	a.RecoveryOTPExpiresAt = expiresAt
	return nil
}

func (m *mockAccountStore) ClearRecoveryOTP(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.RecoveryOTPHash = [32]byte{}
	a.RecoveryOTPExpiresAt = 0
	return nil
}

type engineTestOption func(*Builder)

func newTestEngine(t *testing.T, store AccountStore, opts ...engineTestOption) *Engine {
	t.Helper()

	_, rdb := newTestRedis(t)

	b := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithStore(store).
		WithHasher(newTestHasher(t))
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func seedAccount(t *testing.T, store *mockAccountStore, hasher *password.Argon2, email, pass string, status AccountStatus, verified bool) *Account {
	t.Helper()
	hash, err := hasher.Hash(pass)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	a := &Account{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.Split(email, "@")[0],
		PasswordHash: hash,
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	}
	if verified {
		a.VerifiedAt = time.Now().UTC()
	}
	store.put(a)
	return a
}
