package usersvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"
	context_ "github.com/mkrupp/isupipe-usersvc/internal/infra/context"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/logging"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/session"
	http_ "github.com/mkrupp/isupipe-usersvc/internal/infra/transport/http"
)

// ErrNoUserInContext is returned when a protected handler runs without a session user.
var ErrNoUserInContext = errors.New("no user in context")

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	// MaxBodyBytes limits the size of JSON request bodies.
	// Default is 1MB.
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

// SessionStore starts and verifies login sessions.
type SessionStore interface {
	http_.SessionVerifier
	Save(w http.ResponseWriter, r *http.Request, userID int64, username string) (session.Session, error)
}

// PostUserRequest is the body of a registration.
type PostUserRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Password    string `json:"password"` // plain text
	Theme       struct {
		DarkMode bool `json:"dark_mode"`
	} `json:"theme"`
}

// LoginRequest is the body of a login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"` // plain text
}

// HTTPTransport handles HTTP requests for the user service.
type HTTPTransport struct {
	userSvc  *UserService
	sessions SessionStore
	log      logging.Logger
	cfg      HTTPTransportConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
func NewHTTPTransport(userSvc *UserService, sessions SessionStore, cfg HTTPTransportConfig) *HTTPTransport {
	return &HTTPTransport{
		userSvc:  userSvc,
		sessions: sessions,
		log:      logging.GetLogger("svc.usersvc.http_transport"),
		cfg:      cfg,
	}
}

// RegisterRoutes sets up routes for the user service endpoints:
// - POST /api/register: Register a new user
// - POST /api/login: Start a session
// - GET /api/user/me: Profile of the session user
// - GET /api/user/{username}: Profile of the named user.
func (ht *HTTPTransport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", ht.HandleRegister)
	mux.HandleFunc("POST /api/login", ht.HandleLogin)
	mux.Handle("GET /api/user/me", http_.RequireSession(ht.sessions, ht.log, ht.HandleGetMe))
	mux.Handle("GET /api/user/{username}", http_.RequireSession(ht.sessions, ht.log, ht.HandleGetUser))
}

// HandleRegister processes user registration requests.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user register failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}(r.Context())

	var req PostUserRequest

	if err := http_.DecodeJSON(w, r, ht.cfg.MaxBodyBytes, &req); err != nil {
		http.Error(w, "failed to decode the request body as json", http.StatusBadRequest)

		return fmt.Errorf("decode request: %w", err)
	}

	log = log.With(logging.Group("user", "name", req.Name))

	resp, err := ht.userSvc.Register(r.Context(), Registration{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Password:    req.Password,
		DarkMode:    req.Theme.DarkMode,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrReservedUsername):
			http.Error(w, "the username 'pipe' is reserved", http.StatusBadRequest)
		case errors.Is(err, domain.ErrUserAlreadyExists):
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		default:
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("register: %w", err)
	}

	//nolint:wrapcheck
	return http_.WriteJSON(w, http.StatusCreated, resp)
}

// HandleLogin processes user login requests and sets the session cookie.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user login failed", "error", err)
		} else {
			log.DebugContext(ctx, "user logged in")
		}
	}(r.Context())

	var req LoginRequest

	if err := http_.DecodeJSON(w, r, ht.cfg.MaxBodyBytes, &req); err != nil {
		http.Error(w, "failed to decode the request body as json", http.StatusBadRequest)

		return fmt.Errorf("decode request: %w", err)
	}

	log = log.With(logging.Group("user", "name", req.Username))

	loggedIn, err := ht.userSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			http.Error(w, "invalid username or password", http.StatusUnauthorized)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("login: %w", err)
	}

	if _, err := ht.sessions.Save(w, r, loggedIn.ID, loggedIn.Name); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("save session: %w", err)
	}

	w.WriteHeader(http.StatusOK)

	return nil
}

// HandleGetMe returns the profile of the session user.
func (ht *HTTPTransport) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGetMe(w, r)
}

func (ht *HTTPTransport) handleGetMe(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "get me failed", "error", err)
		} else {
			log.DebugContext(ctx, "got me")
		}
	}(r.Context())

	userID, ok := context_.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)

		return ErrNoUserInContext
	}

	resp, err := ht.userSvc.GetProfileByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.Error(w, "not found user that has the userid in session", http.StatusNotFound)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("get profile: %w", err)
	}

	//nolint:wrapcheck
	return http_.WriteJSON(w, http.StatusOK, resp)
}

// HandleGetUser returns the profile of the user named in the path.
func (ht *HTTPTransport) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGetUser(w, r)
}

func (ht *HTTPTransport) handleGetUser(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "get user failed", "error", err)
		} else {
			log.DebugContext(ctx, "got user")
		}
	}(r.Context())

	username := r.PathValue("username")
	log = log.With(logging.Group("user", "name", username))

	resp, err := ht.userSvc.GetProfileByName(r.Context(), username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.Error(w, "not found user that has the given username", http.StatusNotFound)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("get profile: %w", err)
	}

	//nolint:wrapcheck
	return http_.WriteJSON(w, http.StatusOK, resp)
}
