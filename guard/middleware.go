package guard

import (
	"net/http"
)

// Middleware adapts a [Guard] to net/http. Denied requests are redirected
// to the guard's login resource with 302 Found.
func Middleware(g *Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil {
				http.Redirect(w, r, defaultLoginResource, http.StatusFound)
				return
			}

			decision := g.Authorize(r.URL.Path)
			if !decision.Allowed {
				http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Require adapts role requirements to net/http. Requests whose session
// fails any requirement are rejected with 403 Forbidden. It assumes entry
// was already gated by [Middleware]; an unauthenticated session simply
// fails every requirement.
func Require(a Authorizer, reqs ...Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Evaluate(a, reqs...) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
