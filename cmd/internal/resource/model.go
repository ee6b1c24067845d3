package resource

import "time"

// Type identifies a shareable resource family.
type Type string

const (
	TypeNote     Type = "note"
	TypeEvent    Type = "event"
	TypeReminder Type = "reminder"
)

// ValidType reports whether t is a known resource type.
func ValidType(t Type) bool {
	switch t {
	case TypeNote, TypeEvent, TypeReminder:
		return true
	}
	return false
}

// Note is a free-form text resource.
type Note struct {
	ID          string
	OwnerUserID string
	Title       string
	Content     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Event is a scheduled calendar entry.
type Event struct {
	ID          string
	OwnerUserID string
	Title       string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reminder is a due-dated task.
type Reminder struct {
	ID          string
	OwnerUserID string
	Title       string
	DueAt       time.Time
	Done        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
