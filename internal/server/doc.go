// Package server provides HTTP routing, middleware and the Auth Guard for the web service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// Router-level middleware ([BasicRouter.Use]) wraps the whole mux; route-level middleware is passed to
// [BasicRouter.Handle] and only wraps that route.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Auth Guard
//
// [Guard.RequireAuth] runs before every endpoint that talks to the Web API:
//
//	no access token          → 303 /login
//	now < expiry             → handler
//	now >= expiry or unknown → one refresh → save → handler
//	refresh rejected         → clear session → 303 /login
//	refresh unreachable      → 500
//
// There is no refresh margin: a token is used up to its last instant.
//
// # Middleware
//
//   - [NoCache] sets Cache-Control, Pragma and Expires on every response
//   - [RequestLogger] logs each request with charmbracelet/log
//   - [Recover] converts panics into 500 responses
//
// # Handler Interface
//
// Endpoint groups implement the [Handler] interface and register their own routes, keeping
// route definitions next to the handlers.
package server
