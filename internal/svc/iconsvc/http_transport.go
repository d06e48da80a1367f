package iconsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"
	context_ "github.com/mkrupp/isupipe-usersvc/internal/infra/context"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/logging"
	http_ "github.com/mkrupp/isupipe-usersvc/internal/infra/transport/http"
)

// ErrNoUserInContext is returned when a protected handler runs without a session user.
var ErrNoUserInContext = errors.New("no user in context")

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	// MaxUploadBytes limits the size of an icon upload request body.
	// Default is 10MB.
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

// UserLookup resolves a user by login name.
type UserLookup interface {
	GetUserByName(ctx context.Context, name string) (*domain.User, bool, error)
}

// PostIconRequest is the body of an icon upload.
type PostIconRequest struct {
	Image string `json:"image"` // base64 encoded image bytes
}

// PostIconResponse is returned after a successful icon upload.
type PostIconResponse struct {
	ID int64 `json:"id"`
}

// HTTPTransport handles HTTP requests for the icon service.
type HTTPTransport struct {
	iconSvc  IconService
	users    UserLookup
	sessions http_.SessionVerifier
	log      logging.Logger
	cfg      HTTPTransportConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
func NewHTTPTransport(
	iconSvc IconService,
	users UserLookup,
	sessions http_.SessionVerifier,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	return &HTTPTransport{
		iconSvc:  iconSvc,
		users:    users,
		sessions: sessions,
		log:      logging.GetLogger("svc.iconsvc.http_transport"),
		cfg:      cfg,
	}
}

// RegisterRoutes sets up routes for the icon service endpoints:
// - GET /api/user/{username}/icon: Download a user's icon (public)
// - POST /api/icon: Upload the session user's icon.
func (ht *HTTPTransport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/user/{username}/icon", ht.HandleGetIcon)
	mux.Handle("POST /api/icon", http_.RequireSession(ht.sessions, ht.log, ht.HandlePostIcon))
}

// HandleGetIcon serves a user's icon, or the fallback icon if none is stored.
// Answers 304 when If-None-Match carries the current icon hash.
// The hash may come from the hash cache, so with the "ttl" upload consistency
// a pre-upload ETag can still be answered with 304 until the entry expires.
func (ht *HTTPTransport) HandleGetIcon(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGetIcon(w, r)
}

func (ht *HTTPTransport) handleGetIcon(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "icon download failed", "error", err)
		} else {
			log.DebugContext(ctx, "icon downloaded")
		}
	}(r.Context())

	username := r.PathValue("username")
	log = log.With(logging.Group("user", "name", username))

	user, found, err := ht.users.GetUserByName(r.Context(), username)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("get user: %w", err)
	} else if !found {
		http.Error(w, "not found user that has the given username", http.StatusNotFound)

		return fmt.Errorf("get user: %w", domain.ErrUserNotFound)
	}

	if ifNoneMatch := r.Header.Get("If-None-Match"); ifNoneMatch != "" {
		resolved := ht.iconSvc.ResolveHash(r.Context(), user.ID)

		if etagMatches(ifNoneMatch, resolved.Hash) {
			w.Header().Set("ETag", strconv.Quote(resolved.Hash))
			w.WriteHeader(http.StatusNotModified)

			return nil
		}
	}

	body, served := ht.iconSvc.FetchIcon(r.Context(), user.ID)

	w.Header().Set("Content-Type", domain.IconMIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("ETag", strconv.Quote(served.Hash))

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}

// HandlePostIcon stores the uploaded icon of the session user.
// Expects a JSON body {"image": "<base64>"}.
func (ht *HTTPTransport) HandlePostIcon(w http.ResponseWriter, r *http.Request) {
	_ = ht.handlePostIcon(w, r)
}

func (ht *HTTPTransport) handlePostIcon(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "icon upload failed", "error", err)
		} else {
			log.DebugContext(ctx, "icon uploaded")
		}
	}(r.Context())

	userID, ok := context_.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)

		return ErrNoUserInContext
	}

	var req PostIconRequest

	if err := http_.DecodeJSON(w, r, ht.cfg.MaxUploadBytes, &req); err != nil {
		http.Error(w, "failed to decode the request body as json", http.StatusBadRequest)

		return fmt.Errorf("decode request: %w", err)
	}

	if _, err := ht.iconSvc.UploadIcon(r.Context(), userID, req.Image); err != nil {
		if errors.Is(err, domain.ErrIconDecode) {
			http.Error(w, "failed to decode the icon image", http.StatusBadRequest)
		} else {
			http.Error(w, "failed to save icon image", http.StatusInternalServerError)
		}

		return fmt.Errorf("upload icon: %w", err)
	}

	//nolint:wrapcheck
	return http_.WriteJSON(w, http.StatusCreated, PostIconResponse{ID: userID})
}

// etagMatches reports whether an If-None-Match header names hash.
func etagMatches(header string, hash string) bool {
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" {
			return true
		}

		tag = strings.TrimPrefix(tag, "W/")
		if strings.Trim(tag, `"`) == hash {
			return true
		}
	}

	return false
}
