package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/soddle/internal/metrics"
	"github.com/mcoot/soddle/internal/middleware"
)

// unmatchedRoute labels requests no route matched
const unmatchedRoute = "unmatched"

// Metrics creates request metrics middleware for the API, labelled by route
// template so path parameters do not explode label cardinality
func Metrics(m *metrics.Manager) func(http.Handler) http.Handler {
	return middleware.Metrics(m, routeTemplate)
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return unmatchedRoute
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tmpl
}
