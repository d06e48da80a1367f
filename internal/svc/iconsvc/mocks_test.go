package iconsvc_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/session"
	"github.com/mkrupp/isupipe-usersvc/internal/repo/hashcache"
	"github.com/mkrupp/isupipe-usersvc/internal/repo/icon"
	. "github.com/mkrupp/isupipe-usersvc/internal/svc/iconsvc"
)

var errBackend = errors.New("backend failure")

type mockIconRepository struct {
	m          sync.Mutex
	icons      map[int64][]byte
	fetchCount atomic.Int64
	fetchErr   error
	storeErr   error
}

var _ icon.Repository = (*mockIconRepository)(nil)

func newMockIconRepository() *mockIconRepository {
	//nolint:exhaustruct
	return &mockIconRepository{icons: make(map[int64][]byte)}
}

func (m *mockIconRepository) Store(_ context.Context, ic *domain.Icon) error {
	if m.storeErr != nil {
		return errors.Join(domain.ErrIconStorageWrite, m.storeErr)
	}

	m.m.Lock()
	defer m.m.Unlock()

	m.icons[ic.UserID] = append([]byte(nil), ic.Body...)

	return nil
}

func (m *mockIconRepository) Fetch(_ context.Context, userID int64) (*domain.Icon, bool, error) {
	m.fetchCount.Add(1)

	if m.fetchErr != nil {
		return nil, false, errors.Join(domain.ErrIconStorageRead, m.fetchErr)
	}

	m.m.Lock()
	defer m.m.Unlock()

	body, ok := m.icons[userID]
	if !ok {
		return nil, false, nil
	}

	return domain.NewIcon(userID, body), true, nil
}

type mockHashCache struct {
	m        sync.Mutex
	entries  map[string]string
	ttls     map[string]time.Duration
	setCalls atomic.Int64
	getErr   error
	setErr   error
	hang     bool // Get blocks until its context is done
}

var _ hashcache.Cache = (*mockHashCache)(nil)

func newMockHashCache() *mockHashCache {
	//nolint:exhaustruct
	return &mockHashCache{
		entries: make(map[string]string),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *mockHashCache) Get(ctx context.Context, key string) (string, bool, error) {
	if m.hang {
		<-ctx.Done()

		return "", false, ctx.Err()
	}

	if m.getErr != nil {
		return "", false, m.getErr
	}

	m.m.Lock()
	defer m.m.Unlock()

	value, ok := m.entries[key]

	return value, ok, nil
}

func (m *mockHashCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	m.setCalls.Add(1)

	if m.setErr != nil {
		return m.setErr
	}

	m.m.Lock()
	defer m.m.Unlock()

	m.entries[key] = value
	m.ttls[key] = ttl

	return nil
}

func (m *mockHashCache) expire(key string) {
	m.m.Lock()
	defer m.m.Unlock()

	delete(m.entries, key)
	delete(m.ttls, key)
}

func (m *mockHashCache) entry(key string) (string, time.Duration, bool) {
	m.m.Lock()
	defer m.m.Unlock()

	value, ok := m.entries[key]

	return value, m.ttls[key], ok
}

type mockUserLookup struct {
	users map[string]*domain.User
	err   error
}

func (m *mockUserLookup) GetUserByName(_ context.Context, name string) (*domain.User, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}

	user, ok := m.users[name]

	return user, ok, nil
}

type mockSessionVerifier struct {
	sess session.Session
	err  error
}

func (m *mockSessionVerifier) Verify(_ *http.Request) (session.Session, error) {
	return m.sess, m.err
}

//nolint:gochecknoglobals
var testFallback = domain.NewFallbackIcon([]byte("fallback-icon"))

func defaultIconConfig() IconConfig {
	return IconConfig{
		HashTTL:           1500 * time.Millisecond,
		CacheTimeout:      100 * time.Millisecond,
		UploadConsistency: UploadConsistencyRefresh,
		SingleFlight:      false,
		FallbackFile:      "",
	}
}

func newTestService(
	t *testing.T,
	repo icon.Repository,
	cache hashcache.Cache,
	cfg IconConfig,
) *CacheAsideIconService {
	t.Helper()

	iconSvc, err := NewCacheAsideIconService(
		context.Background(),
		func(context.Context) (icon.Repository, error) { return repo, nil },
		cache,
		testFallback,
		cfg,
	)
	require.NoError(t, err)

	return iconSvc
}
