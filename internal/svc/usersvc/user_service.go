package usersvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/logging"
	"github.com/mkrupp/isupipe-usersvc/internal/repo/user"
)

// DNSRegistrar publishes a subdomain for a newly registered user.
type DNSRegistrar interface {
	AddRecord(ctx context.Context, name string) error
}

// Registration holds the details of a new account.
type Registration struct {
	Name        string
	DisplayName string
	Description string
	Password    string
	DarkMode    bool
}

// UserService provides registration, login and profile lookup.
type UserService struct {
	userRepo  user.Repository
	hasher    PasswordHasher
	dns       DNSRegistrar
	assembler *ProfileAssembler
	log       logging.Logger
}

// NewUserService creates a new UserService.
// Returns an error if the user repository cannot be created.
func NewUserService(
	repoFactory user.RepositoryFactory,
	hasher PasswordHasher,
	dns DNSRegistrar,
	assembler *ProfileAssembler,
) (*UserService, error) {
	userRepo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	return &UserService{
		userRepo:  userRepo,
		hasher:    hasher,
		dns:       dns,
		assembler: assembler,
		log:       logging.GetLogger("svc.usersvc.user_service"),
	}, nil
}

// Register creates a new account, publishes its subdomain and returns its profile.
// Returns ErrReservedUsername for the platform's own name and ErrUserAlreadyExists
// if the name is taken.
func (s *UserService) Register(ctx context.Context, reg Registration) (resp domain.UserResponse, err error) {
	log := s.log.With(logging.Group("user", "name", reg.Name))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "register user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered", logging.Group("user", "id", resp.ID))
		}
	}()

	if reg.Name == domain.ReservedUsername {
		return domain.UserResponse{}, fmt.Errorf("%w: %q", domain.ErrReservedUsername, reg.Name)
	}

	passwordHash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return domain.UserResponse{}, fmt.Errorf("hash password: %w", err)
	}

	newUser := &domain.User{
		ID:           0,
		Name:         reg.Name,
		DisplayName:  reg.DisplayName,
		Description:  reg.Description,
		PasswordHash: passwordHash,
		DarkMode:     reg.DarkMode,
	}

	newUser.ID, err = s.userRepo.CreateUser(ctx, newUser)
	if err != nil {
		return domain.UserResponse{}, fmt.Errorf("create user: %w", err)
	}

	if err := s.dns.AddRecord(ctx, reg.Name); err != nil {
		err = fmt.Errorf("add dns record: %w", err)

		// Undo the insert so the name can be registered again.
		if delErr := s.userRepo.DeleteUser(context.WithoutCancel(ctx), newUser.ID); delErr != nil {
			err = errors.Join(err, fmt.Errorf("delete user: %w", delErr))
		}

		return domain.UserResponse{}, err
	}

	return s.assembler.Assemble(ctx, newUser), nil
}

// Login checks the credentials and returns the matching user.
// Returns ErrInvalidCredentials for unknown names and wrong passwords alike.
func (s *UserService) Login(ctx context.Context, name, password string) (_ *domain.User, err error) {
	log := s.log.With(logging.Group("user", "name", name))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	found, ok, err := s.userRepo.GetUserByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	} else if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(found.PasswordHash, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, domain.ErrInvalidCredentials
		}

		return nil, fmt.Errorf("compare password: %w", err)
	}

	return found, nil
}

// GetProfileByID returns the profile of the user with the given ID.
// Returns ErrUserNotFound if there is no such user.
func (s *UserService) GetProfileByID(ctx context.Context, userID int64) (domain.UserResponse, error) {
	found, ok, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return domain.UserResponse{}, fmt.Errorf("get user: %w", err)
	} else if !ok {
		return domain.UserResponse{}, fmt.Errorf("%w: id %d", domain.ErrUserNotFound, userID)
	}

	return s.assembler.Assemble(ctx, found), nil
}

// GetProfileByName returns the profile of the user with the given name.
// Returns ErrUserNotFound if there is no such user.
func (s *UserService) GetProfileByName(ctx context.Context, name string) (domain.UserResponse, error) {
	found, ok, err := s.userRepo.GetUserByName(ctx, name)
	if err != nil {
		return domain.UserResponse{}, fmt.Errorf("get user: %w", err)
	} else if !ok {
		return domain.UserResponse{}, fmt.Errorf("%w: %q", domain.ErrUserNotFound, name)
	}

	return s.assembler.Assemble(ctx, found), nil
}

// Close releases the user repository.
func (s *UserService) Close() error {
	//nolint:wrapcheck
	return s.userRepo.Close()
}

// GetUserByName returns the user record with the given name.
// Returns false and no error if there is no such user.
func (s *UserService) GetUserByName(ctx context.Context, name string) (*domain.User, bool, error) {
	//nolint:wrapcheck
	return s.userRepo.GetUserByName(ctx, name)
}
