package resource

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"minder/cmd/internal/auth/api"
)

// UserResolver resolves usernames to user IDs for sharing.
// *identity.PostgresStore satisfies it.
type UserResolver interface {
	UserIDsByUsernames(ctx context.Context, usernames []string) ([]string, error)
}

// ShareNotifier is told when a resource is shared with a user.
type ShareNotifier interface {
	ResourceShared(ctx context.Context, granteeUserID string, typ Type, resourceID, byUserID string)
}

// NoopShareNotifier ignores share events.
type NoopShareNotifier struct{}

func (NoopShareNotifier) ResourceShared(context.Context, string, Type, string, string) {}

// Handler serves the resource CRUD and sharing endpoints.
type Handler struct {
	log *slog.Logger

	store    Store
	grants   GrantStore
	access   *AccessControl
	users    UserResolver
	notifier ShareNotifier

	maxBodyBytes int64
}

// NewHandler constructs a resource Handler.
func NewHandler(log *slog.Logger, store Store, grants GrantStore, users UserResolver, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil || grants == nil || users == nil {
		return nil, errors.New("resource: nil store, grants or resolver")
	}

	h := &Handler{
		log:          log,
		store:        store,
		grants:       grants,
		access:       NewAccessControl(grants),
		users:        users,
		notifier:     NoopShareNotifier{},
		maxBodyBytes: 1 << 20,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithShareNotifier delivers share events to grantees.
func WithShareNotifier(n ShareNotifier) HandlerOption {
	return func(h *Handler) {
		if h == nil || n == nil {
			return
		}
		h.notifier = n
	}
}

// WithMaxBodyBytes bounds request body size.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if h == nil || n <= 0 {
			return
		}
		h.maxBodyBytes = n
	}
}

// Register wires resource routes onto the mux. guard must resolve the
// principal and reject anonymous callers (composed from the auth middleware).
func (h *Handler) Register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	if h == nil || mux == nil || guard == nil {
		return
	}

	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, guard(fn))
	}

	handle("GET /api/notes", h.listNotes)
	handle("POST /api/notes", h.createNote)
	handle("GET /api/notes/{id}", h.getNote)
	handle("PUT /api/notes/{id}", h.updateNote)
	handle("DELETE /api/notes/{id}", h.deleteNote)
	handle("POST /api/notes/{id}/share", h.shareNote)
	handle("POST /api/notes/{id}/unshare", h.unshareNote)

	handle("GET /api/events", h.listEvents)
	handle("POST /api/events", h.createEvent)
	handle("GET /api/events/{id}", h.getEvent)
	handle("PUT /api/events/{id}", h.updateEvent)
	handle("DELETE /api/events/{id}", h.deleteEvent)
	handle("POST /api/events/{id}/share", h.shareEvent)
	handle("POST /api/events/{id}/unshare", h.unshareEvent)

	handle("GET /api/reminders", h.listReminders)
	handle("POST /api/reminders", h.createReminder)
	handle("GET /api/reminders/{id}", h.getReminder)
	handle("PUT /api/reminders/{id}", h.updateReminder)
	handle("DELETE /api/reminders/{id}", h.deleteReminder)
	handle("POST /api/reminders/{id}/share", h.shareReminder)
	handle("POST /api/reminders/{id}/unshare", h.unshareReminder)
}

// ---- notes ----

func (h *Handler) listNotes(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	granted, err := h.grants.GrantedResourceIDs(r.Context(), TypeNote, p.UserID)
	if err != nil {
		h.fail(w, "resource.notes.list.fail", err)
		return
	}
	notes, err := h.store.ListNotesForUser(r.Context(), p.UserID, granted)
	if err != nil {
		h.fail(w, "resource.notes.list.fail", err)
		return
	}

	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	authapi.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) createNote(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	var req noteRequest
	if err := authapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}

	now := time.Now().UTC()
	n := Note{
		ID:          ulid.Make().String(),
		OwnerUserID: p.UserID,
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.CreateNote(r.Context(), n); err != nil {
		h.fail(w, "resource.notes.create.fail", err)
		return
	}

	h.shareWith(r.Context(), p.UserID, TypeNote, n.ID, req.ShareWith)
	authapi.WriteJSON(w, http.StatusCreated, toNoteResponse(n))
}

func (h *Handler) getNote(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	n, err := h.store.GetNote(r.Context(), r.PathValue("id"))
	if err != nil {
		h.notFoundOrFail(w, "resource.notes.get.fail", err)
		return
	}
	if !h.allowAccess(w, r, p.UserID, n.OwnerUserID, TypeNote, n.ID) {
		return
	}
	authapi.WriteJSON(w, http.StatusOK, toNoteResponse(n))
}

func (h *Handler) updateNote(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	n, err := h.store.GetNote(r.Context(), r.PathValue("id"))
	if err != nil {
		h.notFoundOrFail(w, "resource.notes.update.fail", err)
		return
	}
	if !h.allowAccess(w, r, p.UserID, n.OwnerUserID, TypeNote, n.ID) {
		return
	}

	var req noteRequest
	if err := authapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}

	n.Title = strings.TrimSpace(req.Title)
	n.Content = req.Content
	n.UpdatedAt = time.Now().UTC()
	if err := h.store.UpdateNote(r.Context(), n); err != nil {
		h.notFoundOrFail(w, "resource.notes.update.fail", err)
		return
	}
	authapi.WriteJSON(w, http.StatusOK, toNoteResponse(n))
}

func (h *Handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	n, err := h.store.GetNote(r.Context(), r.PathValue("id"))
	if err != nil {
		h.notFoundOrFail(w, "resource.notes.delete.fail", err)
		return
	}
	// Owner-only; a grant never allows deletion.
	if !h.access.IsOwner(p.UserID, n.OwnerUserID) {
		authapi.WriteError(w, http.StatusForbidden, "forbidden", "owner only")
		return
	}
	if err := h.store.DeleteNote(r.Context(), n.ID); err != nil {
		h.notFoundOrFail(w, "resource.notes.delete.fail", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) shareNote(w http.ResponseWriter, r *http.Request) {
	h.shareHandler(w, r, TypeNote, func(ctx context.Context, id string) (string, error) {
		n, err := h.store.GetNote(ctx, id)
		return n.OwnerUserID, err
	}, true)
}

func (h *Handler) unshareNote(w http.ResponseWriter, r *http.Request) {
	h.shareHandler(w, r, TypeNote, func(ctx context.Context, id string) (string, error) {
		n, err := h.store.GetNote(ctx, id)
		return n.OwnerUserID, err
	}, false)
}

// ---- events ----

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	granted, err := h.grants.GrantedResourceIDs(r.Context(), TypeEvent, p.UserID)
	if err != nil {
		h.fail(w, "resource.events.list.fail", err)
		return
	}
	events, err := h.store.ListEventsForUser(r.Context(), p.UserID, granted)
	if err != nil {
		h.fail(w, "resource.events.list.fail", err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	authapi.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) createEvent(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	var req eventRequest
	if err := authapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" || req.StartsAt.IsZero() {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "title and starts_at are required")
		return
	}
	if !req.EndsAt.IsZero() && req.EndsAt.Before(req.StartsAt) {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "ends_at precedes starts_at")
		return
	}

	now := time.Now().UTC()
	e := Event{
		ID:          ulid.Make().String(),
		OwnerUserID: p.UserID,
		Title:       strings.TrimSpace(req.Title),
		Location:    strings.TrimSpace(req.Location),
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.CreateEvent(r.Context(), e); err != nil {
		h.fail(w, "resource.events.create.fail", err)
		return
	}

	h.shareWith(r.Context(), p.UserID, TypeEvent, e.ID, req.ShareWith)
	authapi.WriteJSON(w, http.StatusCreated, toEventResponse(e))
}

func (h *Handler) getEvent(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	e, err := h.store.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		h.notFoundOrFail(w, "resource.events.get.fail", err)
		return
	}
	if !h.allowAccess(w, r, p.UserID, e.OwnerUserID, TypeEvent, e.ID) {
		return
	}
	authapi.WriteJSON(w, http.StatusOK, toEventResponse(e))
}

func (h *Handler) updateEvent(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	e, err := h.store.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		h.notFoundOrFail(w, "resource.events.update.fail", err)
		return
	}
	if !h.allowAccess(w, r, p.UserID, e.OwnerUserID, TypeEvent, e.ID) {
		return
	}

	var req eventRequest
	if err := authapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" || req.StartsAt.IsZero() {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "title and starts_at are required")
		return
	}

	e.Title = strings.TrimSpace(req.Title)
	e.Location = strings.TrimSpace(req.Location)
	e.StartsAt = req.StartsAt
	e.EndsAt = req.EndsAt
	e.UpdatedAt = time.Now().UTC()
	if err := h.store.UpdateEvent(r.Context(), e); err != nil {
		h.notFoundOrFail(w, "resource.events.update.fail", err)
		return
	}
	authapi.WriteJSON(w, http.StatusOK, toEventResponse(e))
}

func (h *Handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	e, err := h.store.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		h.notFoundOrFail(w, "resource.events.delete.fail", err)
		return
	}
	if !h.access.IsOwner(p.UserID, e.OwnerUserID) {
		authapi.WriteError(w, http.StatusForbidden, "forbidden", "owner only")
		return
	}
	if err := h.store.DeleteEvent(r.Context(), e.ID); err != nil {
		h.notFoundOrFail(w, "resource.events.delete.fail", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) shareEvent(w http.ResponseWriter, r *http.Request) {
	h.shareHandler(w, r, TypeEvent, func(ctx context.Context, id string) (string, error) {
		e, err := h.store.GetEvent(ctx, id)
		return e.OwnerUserID, err
	}, true)
}

func (h *Handler) unshareEvent(w http.ResponseWriter, r *http.Request) {
	h.shareHandler(w, r, TypeEvent, func(ctx context.Context, id string) (string, error) {
		e, err := h.store.GetEvent(ctx, id)
		return e.OwnerUserID, err
	}, false)
}

// ---- reminders ----

func (h *Handler) listReminders(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	granted, err := h.grants.GrantedResourceIDs(r.Context(), TypeReminder, p.UserID)
	if err != nil {
		h.fail(w, "resource.reminders.list.fail", err)
		return
	}
	reminders, err := h.store.ListRemindersForUser(r.Context(), p.UserID, granted)
	if err != nil {
		h.fail(w, "resource.reminders.list.fail", err)
		return
	}

	out := make([]reminderResponse, 0, len(reminders))
	for _, rm := range reminders {
		out = append(out, toReminderResponse(rm))
	}
	authapi.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) createReminder(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	var req reminderRequest
	if err := authapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" || req.DueAt.IsZero() {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "title and due_at are required")
		return
	}

	now := time.Now().UTC()
	rm := Reminder{
		ID:          ulid.Make().String(),
		OwnerUserID: p.UserID,
		Title:       strings.TrimSpace(req.Title),
		DueAt:       req.DueAt,
		Done:        req.Done,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.CreateReminder(r.Context(), rm); err != nil {
		h.fail(w, "resource.reminders.create.fail", err)
		return
	}

	h.shareWith(r.Context(), p.UserID, TypeReminder, rm.ID, req.ShareWith)
	authapi.WriteJSON(w, http.StatusCreated, toReminderResponse(rm))
}

func (h *Handler) getReminder(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	rm, err := h.store.GetReminder(r.Context(), r.PathValue("id"))
	if err != nil {
		h.notFoundOrFail(w, "resource.reminders.get.fail", err)
		return
	}
	if !h.allowAccess(w, r, p.UserID, rm.OwnerUserID, TypeReminder, rm.ID) {
		return
	}
	authapi.WriteJSON(w, http.StatusOK, toReminderResponse(rm))
}

func (h *Handler) updateReminder(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	rm, err := h.store.GetReminder(r.Context(), r.PathValue("id"))
	if err != nil {
		h.notFoundOrFail(w, "resource.reminders.update.fail", err)
		return
	}
	if !h.allowAccess(w, r, p.UserID, rm.OwnerUserID, TypeReminder, rm.ID) {
		return
	}

	var req reminderRequest
	if err := authapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" || req.DueAt.IsZero() {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "title and due_at are required")
		return
	}

	rm.Title = strings.TrimSpace(req.Title)
	rm.DueAt = req.DueAt
	rm.Done = req.Done
	rm.UpdatedAt = time.Now().UTC()
	if err := h.store.UpdateReminder(r.Context(), rm); err != nil {
		h.notFoundOrFail(w, "resource.reminders.update.fail", err)
		return
	}
	authapi.WriteJSON(w, http.StatusOK, toReminderResponse(rm))
}

func (h *Handler) deleteReminder(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	rm, err := h.store.GetReminder(r.Context(), r.PathValue("id"))
	if err != nil {
		h.notFoundOrFail(w, "resource.reminders.delete.fail", err)
		return
	}
	if !h.access.IsOwner(p.UserID, rm.OwnerUserID) {
		authapi.WriteError(w, http.StatusForbidden, "forbidden", "owner only")
		return
	}
	if err := h.store.DeleteReminder(r.Context(), rm.ID); err != nil {
		h.notFoundOrFail(w, "resource.reminders.delete.fail", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) shareReminder(w http.ResponseWriter, r *http.Request) {
	h.shareHandler(w, r, TypeReminder, func(ctx context.Context, id string) (string, error) {
		rm, err := h.store.GetReminder(ctx, id)
		return rm.OwnerUserID, err
	}, true)
}

func (h *Handler) unshareReminder(w http.ResponseWriter, r *http.Request) {
	h.shareHandler(w, r, TypeReminder, func(ctx context.Context, id string) (string, error) {
		rm, err := h.store.GetReminder(ctx, id)
		return rm.OwnerUserID, err
	}, false)
}

// ---- shared plumbing ----

func (h *Handler) allowAccess(w http.ResponseWriter, r *http.Request, userID, ownerID string, typ Type, resourceID string) bool {
	ok, err := h.access.CanAccess(r.Context(), userID, ownerID, typ, resourceID)
	if err != nil {
		h.fail(w, "resource.access.fail", err)
		return false
	}
	if !ok {
		authapi.WriteError(w, http.StatusForbidden, "forbidden", "no access to this resource")
		return false
	}
	return true
}

// shareHandler implements share and unshare. Owner-only; grants never confer
// the right to re-share. Unknown usernames are silently skipped.
func (h *Handler) shareHandler(w http.ResponseWriter, r *http.Request, typ Type, ownerOf func(context.Context, string) (string, error), grant bool) {
	p, _ := authapi.PrincipalFrom(r.Context())
	resourceID := r.PathValue("id")

	ownerID, err := ownerOf(r.Context(), resourceID)
	if err != nil {
		h.notFoundOrFail(w, "resource.share.fail", err)
		return
	}
	if !h.access.IsOwner(p.UserID, ownerID) {
		authapi.WriteError(w, http.StatusForbidden, "forbidden", "owner only")
		return
	}

	var req shareRequest
	if err := authapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if len(req.Usernames) == 0 {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "usernames is required")
		return
	}

	granteeIDs, err := h.users.UserIDsByUsernames(r.Context(), req.Usernames)
	if err != nil {
		h.fail(w, "resource.share.resolve.fail", err)
		return
	}

	for _, granteeID := range granteeIDs {
		if granteeID == ownerID {
			continue
		}
		if grant {
			if err := h.grants.Grant(r.Context(), typ, resourceID, granteeID); err != nil {
				h.fail(w, "resource.share.fail", err)
				return
			}
			h.notifier.ResourceShared(r.Context(), granteeID, typ, resourceID, p.UserID)
		} else {
			if err := h.grants.RevokeGrant(r.Context(), typ, resourceID, granteeID); err != nil {
				h.fail(w, "resource.unshare.fail", err)
				return
			}
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// shareWith applies share_with at creation time, best-effort.
func (h *Handler) shareWith(ctx context.Context, ownerID string, typ Type, resourceID string, usernames []string) {
	if len(usernames) == 0 {
		return
	}
	granteeIDs, err := h.users.UserIDsByUsernames(ctx, usernames)
	if err != nil {
		h.log.Error("resource.share_with.resolve.fail", "err", err)
		return
	}
	for _, granteeID := range granteeIDs {
		if granteeID == ownerID {
			continue
		}
		if err := h.grants.Grant(ctx, typ, resourceID, granteeID); err != nil {
			h.log.Error("resource.share_with.fail", "err", err)
			continue
		}
		h.notifier.ResourceShared(ctx, granteeID, typ, resourceID, ownerID)
	}
}

func (h *Handler) fail(w http.ResponseWriter, event string, err error) {
	h.log.Error(event, "err", err)
	authapi.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
}

func (h *Handler) notFoundOrFail(w http.ResponseWriter, event string, err error) {
	if errors.Is(err, ErrNotFound) {
		authapi.WriteError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}
	h.fail(w, event, err)
}
