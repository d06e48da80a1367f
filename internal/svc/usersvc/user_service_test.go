package usersvc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"
	"github.com/mkrupp/isupipe-usersvc/internal/repo/user"
	. "github.com/mkrupp/isupipe-usersvc/internal/svc/usersvc"
)

type serviceFixture struct {
	svc      *UserService
	repo     *mockUserRepository
	resolver *mockResolver
	dns      *mockDNSRegistrar
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	repo := newMockUserRepo()
	//nolint:exhaustruct
	resolver := &mockResolver{}
	//nolint:exhaustruct
	dns := &mockDNSRegistrar{}

	svc, err := NewUserService(
		func() (user.Repository, error) { return repo, nil },
		NewBcryptPasswordHasher(bcrypt.MinCost),
		dns,
		NewProfileAssembler(resolver),
	)
	require.NoError(t, err)

	return &serviceFixture{svc: svc, repo: repo, resolver: resolver, dns: dns}
}

func aliceRegistration() Registration {
	return Registration{
		Name:        "alice",
		DisplayName: "Alice",
		Description: "streams at night",
		Password:    "s3cret",
		DarkMode:    true,
	}
}

func TestProfileAssembler_Assemble(t *testing.T) {
	t.Parallel()

	//nolint:exhaustruct
	resolver := &mockResolver{}
	assembler := NewProfileAssembler(resolver)

	resp := assembler.Assemble(context.Background(), &domain.User{
		ID:           7,
		Name:         "bob",
		DisplayName:  "Bob",
		Description:  "hi",
		PasswordHash: []byte("secret"),
		DarkMode:     true,
	})

	assert.Equal(t, domain.UserResponse{
		ID:          7,
		Name:        "bob",
		DisplayName: "Bob",
		Description: "hi",
		Theme:       domain.ThemeResponse{ID: 7, DarkMode: true},
		IconHash:    domain.HashIconBytes([]byte{7}),
	}, resp)
	assert.Equal(t, int64(1), resolver.calls.Load(), "icon hash must be resolved exactly once")
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, aliceRegistration())
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "alice", resp.Name)
	assert.Equal(t, "Alice", resp.DisplayName)
	assert.Equal(t, domain.ThemeResponse{ID: 1, DarkMode: true}, resp.Theme)
	assert.NotEmpty(t, resp.IconHash)
	assert.Equal(t, []string{"alice"}, f.dns.names)

	stored := f.repo.users["alice"]
	require.NotNil(t, stored)
	assert.NotEqual(t, []byte("s3cret"), stored.PasswordHash, "password must be hashed")
}

func TestUserService_RegisterErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(f *serviceFixture)
		reg     func() Registration
		wantErr error
		after   func(t *testing.T, f *serviceFixture)
	}{
		{
			name:  "reserved name",
			setup: func(*serviceFixture) {},
			reg: func() Registration {
				reg := aliceRegistration()
				reg.Name = domain.ReservedUsername

				return reg
			},
			wantErr: domain.ErrReservedUsername,
		},
		{
			name: "duplicate name",
			setup: func(f *serviceFixture) {
				_, err := f.svc.Register(context.Background(), aliceRegistration())
				require.NoError(t, err)
			},
			reg:     aliceRegistration,
			wantErr: domain.ErrUserAlreadyExists,
		},
		{
			name:    "dns failure",
			setup:   func(f *serviceFixture) { f.dns.err = errBackend },
			reg:     aliceRegistration,
			wantErr: errBackend,
			after: func(t *testing.T, f *serviceFixture) {
				t.Helper()

				assert.NotContains(t, f.repo.users, "alice", "failed registration must not keep the user")

				f.dns.err = nil

				resp, err := f.svc.Register(context.Background(), aliceRegistration())
				require.NoError(t, err, "retry after a dns failure must succeed")
				assert.Equal(t, "alice", resp.Name)
				assert.Equal(t, []string{"alice"}, f.dns.names)
			},
		},
		{
			name:    "repository failure",
			setup:   func(f *serviceFixture) { f.repo.err = errBackend },
			reg:     aliceRegistration,
			wantErr: errBackend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newServiceFixture(t)
			tt.setup(f)

			_, err := f.svc.Register(context.Background(), tt.reg())
			require.ErrorIs(t, err, tt.wantErr)

			if tt.after != nil {
				tt.after(t, f)
			}
		})
	}
}

func TestUserService_Login(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, aliceRegistration())
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid credentials", "alice", "s3cret", nil},
		{"wrong password", "alice", "guess", domain.ErrInvalidCredentials},
		{"unknown user", "mallory", "s3cret", domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			loggedIn, err := f.svc.Login(ctx, tt.username, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, loggedIn)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "alice", loggedIn.Name)
		})
	}
}

func TestUserService_GetProfile(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, aliceRegistration())
	require.NoError(t, err)

	byID, err := f.svc.GetProfileByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, registered, byID)

	byName, err := f.svc.GetProfileByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, registered, byName)

	_, err = f.svc.GetProfileByID(ctx, 99)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = f.svc.GetProfileByName(ctx, "mallory")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestBcryptPasswordHasher(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptPasswordHasher(0)

	hash, err := hasher.Hash("s3cret")
	require.NoError(t, err)

	cost, err := bcrypt.Cost(hash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	require.NoError(t, hasher.Compare(hash, "s3cret"))
	require.ErrorIs(t, hasher.Compare(hash, "guess"), domain.ErrInvalidCredentials)
	require.Error(t, hasher.Compare([]byte("not a hash"), "s3cret"))
}
