package usersvc_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"
	"github.com/mkrupp/isupipe-usersvc/internal/repo/user"
)

var errBackend = errors.New("backend failure")

// mockUserRepository implements user.Repository for testing.
type mockUserRepository struct {
	m      sync.Mutex
	users  map[string]*domain.User
	nextID int64
	err    error
}

var _ user.Repository = (*mockUserRepository)(nil)

func newMockUserRepo() *mockUserRepository {
	//nolint:exhaustruct
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) CreateUser(_ context.Context, u *domain.User) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return 0, m.err
	}

	if _, exists := m.users[u.Name]; exists {
		return 0, domain.ErrUserAlreadyExists
	}

	m.nextID++

	stored := *u
	stored.ID = m.nextID
	m.users[u.Name] = &stored

	return stored.ID, nil
}

func (m *mockUserRepository) GetUserByID(_ context.Context, userID int64) (*domain.User, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}

	for _, u := range m.users {
		if u.ID == userID {
			return u, true, nil
		}
	}

	return nil, false, nil
}

func (m *mockUserRepository) GetUserByName(_ context.Context, name string) (*domain.User, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}

	u, ok := m.users[name]

	return u, ok, nil
}

func (m *mockUserRepository) DeleteUser(_ context.Context, userID int64) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	for name, u := range m.users {
		if u.ID == userID {
			delete(m.users, name)
		}
	}

	return nil
}

func (m *mockUserRepository) Close() error {
	return nil
}

// mockResolver returns a fixed hash per user and counts calls.
type mockResolver struct {
	calls atomic.Int64
}

func (m *mockResolver) ResolveHash(_ context.Context, userID int64) domain.IconHash {
	m.calls.Add(1)

	return domain.IconHash{Hash: domain.HashIconBytes([]byte{byte(userID)}), Source: domain.HashSourceStorage}
}

type mockDNSRegistrar struct {
	m     sync.Mutex
	names []string
	err   error
}

func (m *mockDNSRegistrar) AddRecord(_ context.Context, name string) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	m.names = append(m.names, name)

	return nil
}
