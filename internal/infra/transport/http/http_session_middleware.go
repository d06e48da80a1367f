package http

import (
	"errors"
	"net/http"

	context_ "github.com/mkrupp/isupipe-usersvc/internal/infra/context"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/logging"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/session"
)

// SessionVerifier validates the session carried by a request.
type SessionVerifier interface {
	Verify(r *http.Request) (session.Session, error)
}

// SessionMiddleware rejects requests without a valid session.
// Missing sessions are answered with 403, expired ones with 401.
// On success the user ID and name are added to the request context.
func SessionMiddleware(next http.Handler, verifier SessionVerifier, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := verifier.Verify(r)
		if err != nil {
			log.WarnContext(r.Context(), "session rejected", "error", err)

			if errors.Is(err, session.ErrSessionExpired) {
				http.Error(w, "session has expired", http.StatusUnauthorized)
			} else {
				http.Error(w, "failed to get USERID value from session", http.StatusForbidden)
			}

			return
		}

		next.ServeHTTP(w, r.WithContext(context_.WithUser(r.Context(), sess.UserID, sess.Username)))
	})
}

// RequireSession wraps a handler func with SessionMiddleware.
func RequireSession(verifier SessionVerifier, log logging.Logger, handler http.HandlerFunc) http.Handler {
	return SessionMiddleware(handler, verifier, log)
}
