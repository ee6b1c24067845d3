// Package resource implements Minder's user-owned resources (notes, events,
// reminders) and the access-control model that protects them.
//
// Every resource has exactly one owner. The owner can additionally grant
// access to other users; a grant confers full read/write on that resource.
// Destructive and administrative operations (delete, share, unshare) remain
// owner-exclusive and never consult grants.
package resource
