package middleware

import (
	"mime"
	"net/http"
	"strings"
)

// MethodOverrideParam is the hidden form field HTML forms use to send
// PATCH, PUT and DELETE.
const MethodOverrideParam = "_method"

var overridable = map[string]bool{
	http.MethodPatch:  true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// MethodOverride rewrites form POSTs carrying _method before routing. It
// wraps the whole router because gin picks the route before any
// middleware runs.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && isForm(r) {
			method := strings.ToUpper(r.PostFormValue(MethodOverrideParam))
			if overridable[method] {
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isForm(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}
