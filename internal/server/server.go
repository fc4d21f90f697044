package server

import "net/http"

// Middleware decorates a handler, e.g. with logging, CORS or panic recovery.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that declares the path patterns it owns, like [OAuthHandler].
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers method-scoped routes and self-describing handlers behind a shared middleware stack.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
	http.Handler
}
