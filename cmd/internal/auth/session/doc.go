// Package session implements Minder's server-authoritative session subsystem.
//
// Sessions come in two kinds with distinct expiry policies:
//
//   - cookie sessions slide: they stay alive while the user is active and
//     expire after a fixed idle window since the last recorded activity.
//   - bearer sessions are fixed: they expire at an absolute instant set at
//     issuance, regardless of activity.
//
// In both cases the client holds an opaque random token. The database stores
// only a digest of the token, so a leaked sessions table cannot be replayed.
package session
