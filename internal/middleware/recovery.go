package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicHandler is a function that handles panics and writes an error response
type PanicHandler func(w http.ResponseWriter, r *http.Request, err any)

// PanicRecorder counts recovered panics
type PanicRecorder interface {
	HTTPPanic(route string)
}

// Recovery creates panic recovery middleware. The panic is logged and counted
// under route(r); handler only runs if nothing was written before the panic.
func Recovery(logger *slog.Logger, recorder PanicRecorder, route func(r *http.Request) string, handler PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := Wrap(w)

			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}

				name := route(r)
				logger.Error("panic recovered",
					slog.Any("panic", err),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("route", name),
					slog.Bool("response_started", wrapped.Written()),
				)
				recorder.HTTPPanic(name)

				if !wrapped.Written() {
					handler(wrapped, r, err)
				}
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}

// DefaultPanicHandler returns a simple 500 Internal Server Error
func DefaultPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// Path labels a request by its raw URL path
func Path(r *http.Request) string {
	return r.URL.Path
}
