package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
)

// Roles accepted for mutating catalog and cover operations.
var mutatingRoles = []string{"ADMIN", "EDITOR"}

// AuthMiddlewares returns the middleware chain for mutating routes:
// JWT bearer verification followed by a role check. Reads stay
// unauthenticated. An empty secret disables authentication, for local
// development and tests.
func AuthMiddlewares(secret string) chi.Middlewares {
	if secret == "" {
		return nil
	}

	tokenAuth := jwtauth.New("HS256", []byte(secret), nil)
	return chi.Middlewares{
		jwtauth.Verifier(tokenAuth),
		jwtauth.Authenticator,
		RequireRole(mutatingRoles...),
	}
}

// RequireRole rejects requests whose token lacks one of the given
// values in its "role" claim.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			role, _ := claims["role"].(string)
			if _, ok := allowed[role]; !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
