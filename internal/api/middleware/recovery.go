package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/soddle/internal/api/apierr"
	"github.com/mcoot/soddle/internal/metrics"
	"github.com/mcoot/soddle/internal/middleware"
)

// Recovery creates panic recovery middleware for the API. Panics are counted
// by route template and answered with a JSON internal error.
func Recovery(logger *slog.Logger, m *metrics.Manager) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, m, routeTemplate, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
