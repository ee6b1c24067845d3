package notify

import "time"

// Kind labels what a notification is about.
type Kind string

const (
	// KindResourceShared is sent to a user who was granted access to a resource.
	KindResourceShared Kind = "resource.shared"
)

// Notification is a single in-app notification frame, serialized as JSON on
// the WebSocket connection.
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`

	// Data carries kind-specific fields, kept flat and string-valued so
	// clients do not need per-kind decoders.
	Data map[string]string `json:"data,omitempty"`
}
