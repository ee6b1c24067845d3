package authapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"minder/cmd/identity"
	"minder/cmd/internal/auth/session"
)

// Principal is the authenticated caller for the current request.
type Principal struct {
	UserID      string
	Username    string
	SessionID   string
	SessionKind session.Kind
}

type ctxKey int

const principalKey ctxKey = 0

// PrincipalFrom extracts the authenticated principal from a request context.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// ContextWithPrincipal returns a context carrying the principal. Exposed for tests.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// WithPrincipal resolves the session cookie or bearer token to a Principal
// and stores it in the request context. Requests without valid credentials
// continue anonymously; guards decide whether that is acceptable.
func (h *Handler) WithPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := h.sessionTokenFromCookie(r)
		if !ok {
			token = bearerToken(r)
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		now := time.Now().UTC()

		row, err := h.sessions.Validate(ctx, now, token)
		if err != nil {
			// Unknown, expired and revoked sessions degrade to anonymous;
			// anything else is a storage failure and must not.
			if isNotAuthenticated(err) {
				h.metrics.validation("fail")
				next.ServeHTTP(w, r)
				return
			}
			h.metrics.validation("error")
			h.log.ErrorContext(ctx, "auth.validate.error", "err", err.Error())
			writeError(w, http.StatusInternalServerError, "internal_error", "session validation failed")
			return
		}
		h.metrics.validation("ok")

		u, err := h.identity.GetUserByID(ctx, row.UserID)
		if err != nil {
			// A session pointing at a deleted user is anonymous.
			if identity.IsNotFound(err) {
				next.ServeHTTP(w, r)
				return
			}
			h.log.ErrorContext(ctx, "auth.principal.error", "err", err.Error())
			writeError(w, http.StatusInternalServerError, "internal_error", "principal lookup failed")
			return
		}

		p := Principal{
			UserID:      u.ID,
			Username:    u.Username,
			SessionID:   row.ID,
			SessionKind: row.Kind,
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(ctx, p)))
	})
}

// isNotAuthenticated reports whether a validation error means "no valid
// session" as opposed to an infrastructure failure.
func isNotAuthenticated(err error) bool {
	return errors.Is(err, session.ErrSessionNotFound) ||
		errors.Is(err, session.ErrSessionExpired) ||
		errors.Is(err, session.ErrSessionRevoked)
}

// RequireUser rejects anonymous requests with 401 JSON.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFrom(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUserRedirect sends anonymous browsers to the login page with a
// returnUrl pointing back at the requested path.
func RequireUserRedirect(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFrom(r.Context()); !ok {
				target := loginPath + "?returnUrl=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
