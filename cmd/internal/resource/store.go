package resource

import "context"

// Store abstracts persistence for notes, events and reminders.
//
// List methods return the union of rows owned by userID and rows whose IDs
// appear in grantedIDs; callers obtain grantedIDs from a GrantStore.
// Delete removes the resource row and its grants atomically.
type Store interface {
	CreateNote(ctx context.Context, n Note) error
	GetNote(ctx context.Context, id string) (Note, error)
	UpdateNote(ctx context.Context, n Note) error
	DeleteNote(ctx context.Context, id string) error
	ListNotesForUser(ctx context.Context, userID string, grantedIDs []string) ([]Note, error)

	CreateEvent(ctx context.Context, e Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	UpdateEvent(ctx context.Context, e Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListEventsForUser(ctx context.Context, userID string, grantedIDs []string) ([]Event, error)

	CreateReminder(ctx context.Context, rm Reminder) error
	GetReminder(ctx context.Context, id string) (Reminder, error)
	UpdateReminder(ctx context.Context, rm Reminder) error
	DeleteReminder(ctx context.Context, id string) error
	ListRemindersForUser(ctx context.Context, userID string, grantedIDs []string) ([]Reminder, error)
}
