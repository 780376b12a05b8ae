package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveWithAuth(handler http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	AuthMiddleware(testSecret, zap.NewNop())(handler).ServeHTTP(w, req)
	return w
}

// Feature: back-office, Property 9: Protected endpoints reject missing tokens
func TestProperty_ProtectedEndpointsRejectMissingTokens(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests without authorization header are rejected", prop.ForAll(
		func(pathSuffix string, method string) bool {
			handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())
			req := httptest.NewRequest(method, "/api/"+pathSuffix, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
		gen.OneConstOf(http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: back-office, Property 10: Valid tokens carry the owner into the context
func TestProperty_ValidTokensAllowProcessing(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid tokens expose user id and role to handlers", prop.ForAll(
		func(role string) bool {
			userID := uuid.New()
			token := signToken(t, testSecret, jwt.MapClaims{
				"user_id": userID.String(),
				"role":    role,
				"exp":     time.Now().Add(time.Hour).Unix(),
			})

			var gotID uuid.UUID
			var gotRole string
			w := serveWithAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = GetUserID(r.Context())
				gotRole, _ = GetUserRole(r.Context())
				w.WriteHeader(http.StatusOK)
			}), "Bearer "+token)

			return w.Code == http.StatusOK && gotID == userID && gotRole == role
		},
		gen.OneConstOf("user", "admin"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: back-office, Property 11: Malformed tokens are rejected
func TestProperty_InvalidTokenFormatRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("arbitrary bearer strings are rejected", prop.ForAll(
		func(invalidToken string) bool {
			return serveWithAuth(okHandler(), "Bearer "+invalidToken).Code == http.StatusUnauthorized
		},
		gen.AnyString(),
	))

	properties.Property("tokens without Bearer prefix are rejected", prop.ForAll(
		func(token string) bool {
			return serveWithAuth(okHandler(), token).Code == http.StatusUnauthorized
		},
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestExpiredTokenRejected(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"role":    "user",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	w := serveWithAuth(okHandler(), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")
}

func TestTokenClaimsMustIdentifyOwner(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	cases := map[string]jwt.MapClaims{
		"non uuid user": {"user_id": "42", "role": "user", "exp": exp},
		"missing user":  {"role": "user", "exp": exp},
		"missing role":  {"user_id": uuid.NewString(), "exp": exp},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			w := serveWithAuth(okHandler(), "Bearer "+signToken(t, testSecret, claims))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestTokenSignedWithAnotherSecretRejected(t *testing.T) {
	token := signToken(t, "another-secret", jwt.MapClaims{
		"user_id": uuid.NewString(),
		"role":    "user",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	assert.Equal(t, http.StatusUnauthorized, serveWithAuth(okHandler(), "Bearer "+token).Code)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(zap.NewNop(), "user", "admin")(okHandler())

	for role, want := range map[string]int{"user": http.StatusOK, "admin": http.StatusOK, "guest": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUser(req.Context(), uuid.New(), role))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
