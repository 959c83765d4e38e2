// Package server provides HTTP routing, middleware and the loopback OAuth callback used by the CLI login flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [CallbackHandler] is the redirect target when the redirect URI points at localhost instead of the
// custom upl:// scheme. It parses the request URL exactly like a deep link, exchanges the code and
// reports the outcome on a channel. It only processes one callback.
//
// [Listen] starts a short-lived server for the handler; the CLI shuts it down after the first result.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
