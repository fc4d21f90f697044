// Package server exposes the library cache and background jobs over HTTP, and hosts the OAuth callback used by
// the auth command.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] uses [http.ServeMux]
// internally with method filtering. [Middleware] wraps handlers in reverse order (last added executes first).
//
// # Job API
//
// [API] serves the library views and starts sync and analysis jobs through a [jobs.Registry]. Jobs run in the
// background; clients poll /status/{task_id} until the status leaves "running".
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback. It validates the state parameter, exchanges the
// code for a token and sends the result through a channel. Only the first callback is processed.
package server
