// Package authapi exposes Minder's authentication endpoints over HTTP.
//
// Two transports share the same session primitives:
//
//   - the web variant under /account/* authenticates with the minder.sid
//     cookie and a sliding server-side idle window;
//   - the API variant under /api/auth/* authenticates with an
//     Authorization: Bearer token and a fixed expiry.
//
// Authentication state travels through the request context as a Principal,
// resolved once per request by WithPrincipal. Route protection is composed
// from middleware guards (RequireUser, RequireUserRedirect) at registration
// time rather than checked inside individual handlers.
package authapi
