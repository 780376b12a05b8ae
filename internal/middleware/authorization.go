package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireRole admits requests whose token role is one of roles. It must run
// after AuthMiddleware.
func RequireRole(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := GetUserRole(r.Context())
			if _, ok := allowed[role]; !ok {
				logger.Warn("Role not allowed",
					zap.String("role", role),
					zap.Strings("allowed_roles", roles),
					zap.String("path", r.URL.Path),
				)
				RespondWithErrorDetails(w, http.StatusForbidden, "insufficient permissions", map[string]interface{}{
					"role": role,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
