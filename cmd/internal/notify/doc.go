// Package notify decides how users are notified and delivers in-app
// notifications over WebSocket.
//
// Channel selection combines explicit per-user, per-channel preferences with
// country-based implicit defaults. An explicit preference always wins. An
// unknown channel is an error, never a silent default.
package notify
