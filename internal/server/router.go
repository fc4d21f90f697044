package server

import (
	"net/http"
	"strings"
)

// BasicRouter is the [Router] used by the job API and the OAuth callback server.
//
// Routes are matched by an [http.ServeMux]. Unmatched paths get a JSON 404 that still passes
// through the middleware, so CORS headers and request logs cover them too.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	notFound    http.Handler
}

func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux: http.NewServeMux(),
		notFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "Not found")
		}),
	}
}

// Use appends middleware. The first one added is the outermost.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for one method on path. Other methods get 405, after the middleware ran,
// so CORS preflight requests are answered before the method check.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	methodHandler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !strings.EqualFold(req.Method, method) {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		handler.ServeHTTP(w, req)
	})

	r.mux.Handle(path, r.Apply(methodHandler))
}

// Handler registers every route of a self-describing [Handler] for all methods.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)
	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if _, pattern := r.mux.Handler(req); pattern == "" {
		r.Apply(r.notFound).ServeHTTP(w, req)
		return
	}
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler in the registered middleware.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}
