package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"minder/cmd/identity"
)

// Handler wires HTTP auth endpoints to identity and session services.
type Handler struct {
	log *slog.Logger
	cfg Config

	identity IdentityStore
	sessions SessionService
	metrics  *Metrics

	dummyHash string
}

// HandlerOption configures optional auth handler dependencies.
type HandlerOption func(*Handler)

// WithMetrics attaches auth outcome counters.
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) {
		if h == nil || m == nil {
			return
		}
		h.metrics = m
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, idStore IdentityStore, sessions SessionService, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if idStore == nil || sessions == nil {
		return nil, errors.New("authapi: nil identity store or session service")
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		identity: idStore,
		sessions: sessions,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}

	// Dummy hash for timing-resistant login checks against unknown users.
	if hash, err := identity.HashPassword("dummy-password-for-timing-only"); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Register wires auth routes onto the provided mux.
//
// Every route passes through WithPrincipal; protected routes additionally
// compose a guard at registration time.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}

	// Web variant (cookie transport).
	mux.Handle("/account/register", h.WithPrincipal(http.HandlerFunc(h.handleWebRegister)))
	mux.Handle("/account/login", h.WithPrincipal(http.HandlerFunc(h.handleWebLogin)))
	mux.Handle("/account/logout", h.WithPrincipal(http.HandlerFunc(h.handleWebLogout)))

	// API variant (bearer transport).
	mux.Handle("/api/auth/register", h.WithPrincipal(http.HandlerFunc(h.handleAPIRegister)))
	mux.Handle("/api/auth/login", h.WithPrincipal(http.HandlerFunc(h.handleAPILogin)))
	mux.Handle("/api/auth/logout", h.WithPrincipal(http.HandlerFunc(h.handleAPILogout)))
	mux.Handle("/api/auth/change_password",
		h.WithPrincipal(RequireUser(http.HandlerFunc(h.handleChangePassword))))

	mux.Handle("/me", h.WithPrincipal(RequireUser(http.HandlerFunc(h.handleMe))))
	mux.Handle("/dashboard",
		h.WithPrincipal(RequireUserRedirect(h.cfg.LoginPath)(http.HandlerFunc(h.handleDashboard))))
}

// ---- web variant ----

func (h *Handler) handleWebRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	u, ok := h.createUser(w, r)
	if !ok {
		return
	}

	// Registration logs the browser in immediately.
	ctx := r.Context()
	now := time.Now().UTC()
	issued, err := h.sessions.IssueCookie(ctx, now, u.ID)
	if err != nil {
		h.log.Error("auth.register.issue_session.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	h.setSessionCookie(w, issued.Token, now)

	h.log.Info("auth.register.ok", "user_id", u.ID, "transport", "cookie")
	writeJSON(w, http.StatusCreated, loginResponse{User: toUserResponse(u)})
}

func (h *Handler) handleWebLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rec, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	issued, err := h.sessions.IssueCookie(ctx, now, rec.User.ID)
	if err != nil {
		h.log.Error("auth.login.issue_session.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	h.setSessionCookie(w, issued.Token, now)

	h.metrics.login("ok")
	h.log.Info("auth.login.ok", "user_id", rec.User.ID, "transport", "cookie")
	writeJSON(w, http.StatusOK, loginResponse{User: toUserResponse(rec.User)})
}

func (h *Handler) handleWebLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Idempotent: missing or stale cookies still log out cleanly.
	if token, ok := h.sessionTokenFromCookie(r); ok {
		if err := h.sessions.Revoke(r.Context(), time.Now().UTC(), token); err != nil {
			h.log.Error("auth.logout.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
		h.metrics.revocation()
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// ---- API variant ----

func (h *Handler) handleAPIRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	u, ok := h.createUser(w, r)
	if !ok {
		return
	}

	h.log.Info("auth.register.ok", "user_id", u.ID, "transport", "bearer")
	writeJSON(w, http.StatusCreated, meResponse{User: toUserResponse(u)})
}

func (h *Handler) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rec, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	issued, err := h.sessions.IssueBearer(ctx, now, rec.User.ID)
	if err != nil {
		h.log.Error("auth.login.issue_session.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.metrics.login("ok")
	h.log.Info("auth.login.ok", "user_id", rec.User.ID, "transport", "bearer")
	writeJSON(w, http.StatusOK, apiLoginResponse{
		User: toUserResponse(rec.User),
		Session: tokenResponse{
			Token:     issued.Token,
			ExpiresAt: *issued.ExpiresAt,
		},
	})
}

func (h *Handler) handleAPILogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Idempotent: absent, unknown and already-revoked tokens all succeed.
	if token := bearerToken(r); token != "" {
		if err := h.sessions.Revoke(r.Context(), time.Now().UTC(), token); err != nil {
			h.log.Error("auth.logout.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
		h.metrics.revocation()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p, _ := PrincipalFrom(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.CurrentPassword) == "" || strings.TrimSpace(req.NewPassword) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "current_password and new_password are required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	rec, err := h.identity.GetLoginByUsername(ctx, p.Username)
	if err != nil {
		h.log.Error("auth.change_password.lookup.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	okPw, err := identity.VerifyPassword(req.CurrentPassword, rec.PasswordHash)
	if err != nil || !okPw {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return
	}

	newHash, err := identity.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusBadRequest, "weak_password", "password does not meet policy")
		return
	}
	if err := h.identity.UpdatePassword(ctx, p.UserID, newHash, now); err != nil {
		h.log.Error("auth.change_password.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	// Every other session of the user stops validating immediately.
	if err := h.sessions.RevokeOthers(ctx, now, p.UserID, p.SessionID); err != nil {
		h.log.Error("auth.change_password.revoke_others.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	h.metrics.revocation()

	h.log.Info("auth.change_password.ok", "user_id", p.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p, _ := PrincipalFrom(r.Context())
	u, err := h.identity.GetUserByID(r.Context(), p.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "user not found")
			return
		}
		h.log.Error("auth.me.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: toUserResponse(u)})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p, _ := PrincipalFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "welcome back",
		"username": p.Username,
	})
}

// ---- shared flows ----

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) (identity.User, bool) {
	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return identity.User{}, false
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return identity.User{}, false
	}

	u, err := h.identity.CreateUser(r.Context(), identity.CreateUserInput{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Now:         time.Now().UTC(),
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			writeError(w, http.StatusConflict, "conflict", "username or email already exists")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid input")
		default:
			h.log.Error("auth.register.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return identity.User{}, false
	}
	return u, true
}

// authenticate runs the credential check shared by both login variants.
// The response never distinguishes unknown-user from bad-password, and a
// dummy verification keeps the unknown-user path on the KDF timescale.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (identity.LoginRecord, bool) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return identity.LoginRecord{}, false
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return identity.LoginRecord{}, false
	}

	rec, err := h.identity.GetLoginByUsername(r.Context(), req.Username)
	if err != nil {
		if h.dummyHash != "" {
			_, _ = identity.VerifyPassword(req.Password, h.dummyHash)
		}
		h.metrics.login("fail")
		h.log.Info("auth.login.fail", "reason", "not_found")
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return identity.LoginRecord{}, false
	}

	okPw, err := identity.VerifyPassword(req.Password, rec.PasswordHash)
	if err != nil || !okPw {
		h.metrics.login("fail")
		h.log.Info("auth.login.fail", "reason", "bad_password", "user_id", rec.User.ID)
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return identity.LoginRecord{}, false
	}

	return rec, true
}

func toUserResponse(u identity.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}
