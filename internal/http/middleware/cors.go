package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

var corsCandidateMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// CORS lets the marketing front end call the API from its own origin. An "*"
// entry in allowedOrigins echoes back any Origin.
//
// Preflights are answered with the methods routes actually registers for the
// requested path, matched against the full URL path. A preflight for a path
// with no routes, or from an origin that is not allowed, falls through to
// next so the router answers it.
func CORS(allowedOrigins []string, routes chi.Routes) func(http.Handler) http.Handler {
	allowAny := false
	allow := map[string]struct{}{}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAny = true
			continue
		}
		allow[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || !(allowAny || isAllowedOrigin(allow, origin)) {
				next.ServeHTTP(w, r)
				return
			}

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if !preflight {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				next.ServeHTTP(w, r)
				return
			}

			methods := routeMethods(routes, r.URL.Path)
			if len(methods) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(append(methods, http.MethodOptions), ", "))
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

// routeMethods lists the candidate methods routes serves at path.
func routeMethods(routes chi.Routes, path string) []string {
	if routes == nil {
		return nil
	}
	var methods []string
	for _, method := range corsCandidateMethods {
		if routes.Match(chi.NewRouteContext(), method, path) {
			methods = append(methods, method)
		}
	}
	return methods
}

func isAllowedOrigin(allow map[string]struct{}, origin string) bool {
	_, ok := allow[origin]
	return ok
}
