// Package server provides the HTTP plumbing behind the local OAuth redirect listener.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering, answering
// requests with the wrong method with 405. [LoggingMiddleware] records each request through the
// application logger.
//
// # Callback Handler
//
// [CallbackHandler] captures the single authorization redirect. It accepts a request carrying either
// a code or an error (and the issued state, when one was issued), answers the browser with a static
// page and publishes the outcome exactly once on its result channel. Every other request, including
// a repeat after capture, gets 400.
//
// A handler must be allocated per authorization attempt so no outcome leaks between attempts.
//
// # Listener
//
// [Listen] binds the callback address and serves a handler in the background until [Listener.Close].
package server
