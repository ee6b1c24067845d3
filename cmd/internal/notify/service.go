package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"minder/cmd/internal/resource"
)

// PreferenceStore resolves a user's notification preference. Users without a
// stored preference get the zero Preference, which means implicit defaults.
type PreferenceStore interface {
	PreferenceFor(ctx context.Context, userID string) (Preference, error)
}

// MemoryPreferences is an in-process PreferenceStore.
type MemoryPreferences struct {
	mu sync.RWMutex
	m  map[string]Preference
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{m: make(map[string]Preference)}
}

func (p *MemoryPreferences) Set(userID string, pref Preference) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[userID] = pref
}

func (p *MemoryPreferences) PreferenceFor(_ context.Context, userID string) (Preference, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.m[userID], nil
}

// Service evaluates channel preferences and dispatches notifications.
//
// In-app delivery always happens through the hub. External channels (email,
// SMS, WhatsApp) are evaluated per preference and handed to the logger; there
// is no outbound provider integration.
type Service struct {
	log   *slog.Logger
	hub   *Hub
	prefs PreferenceStore
}

func NewService(log *slog.Logger, hub *Hub, prefs PreferenceStore) *Service {
	if log == nil {
		log = slog.Default()
	}
	if prefs == nil {
		prefs = NewMemoryPreferences()
	}
	return &Service{log: log, hub: hub, prefs: prefs}
}

// Hub exposes the fan-out hub for the WebSocket gateway.
func (s *Service) Hub() *Hub { return s.hub }

var externalChannels = []Channel{ChannelEmail, ChannelSMS, ChannelWhatsApp}

// Dispatch publishes n to the user's live subscribers and logs which external
// channels the user's preference selects.
func (s *Service) Dispatch(ctx context.Context, userID string, n Notification) error {
	if s.hub != nil {
		s.hub.Publish(userID, n)
	}

	pref, err := s.prefs.PreferenceFor(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve notification preference: %w", err)
	}

	for _, ch := range externalChannels {
		on, err := ShouldNotify(pref, ch)
		if err != nil {
			return err
		}
		if !on {
			continue
		}
		s.log.InfoContext(ctx, "notify.channel.send",
			"user_id", userID,
			"channel", string(ch),
			"kind", string(n.Kind),
			"notification_id", n.ID,
		)
	}
	return nil
}

// ResourceShared notifies granteeUserID that byUserID shared a resource with
// them. It satisfies the share hook of the resource handlers.
func (s *Service) ResourceShared(ctx context.Context, granteeUserID string, typ resource.Type, resourceID, byUserID string) {
	n := Notification{
		ID:        ulid.Make().String(),
		Kind:      KindResourceShared,
		Message:   fmt.Sprintf("a %s was shared with you", typ),
		CreatedAt: time.Now().UTC(),
		Data: map[string]string{
			"resource_type": string(typ),
			"resource_id":   resourceID,
			"by_user_id":    byUserID,
		},
	}
	if err := s.Dispatch(ctx, granteeUserID, n); err != nil {
		s.log.WarnContext(ctx, "notify.dispatch.failed",
			"user_id", granteeUserID,
			"kind", string(n.Kind),
			"err", err.Error(),
		)
	}
}
