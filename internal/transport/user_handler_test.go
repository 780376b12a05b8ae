package transport

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Feature: back-office, Property 17: Invalid registration data is rejected
func TestProperty_InvalidRegistrationDataIsRejected(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("registration with invalid data returns a structured 400", prop.ForAll(
		func(invalidCase int) bool {
			a := newAPI(t)

			body := map[string]string{"name": "Luisa", "email": "luisa@example.com", "password": "Galletas2024!"}
			switch invalidCase % 5 {
			case 0:
				body["email"] = ""
			case 1:
				body["email"] = "not-an-email"
			case 2:
				body["password"] = "Sh0rt!"
			case 3:
				delete(body, "name")
			case 4:
				// long enough but no special character
				body["password"] = "Galletas2024"
			}

			w := a.do(http.MethodPost, "/api/users/register", "", body)
			if w.Code != http.StatusBadRequest {
				t.Logf("FAIL: case %d expected 400, got %d", invalidCase%5, w.Code)
				return false
			}

			resp := decode[errorBody](t, w)
			return resp.Error.Message != ""
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: back-office, Property 18: Successful registration returns an inactive profile
func TestProperty_SuccessfulRegistrationReturnsProfileData(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("registration returns the profile without credentials", prop.ForAll(
		func(email, password, name string) bool {
			a := newAPI(t)

			w := a.do(http.MethodPost, "/api/users/register", "", RegisterRequest{Name: name, Email: email, Password: password})
			if w.Code != http.StatusCreated {
				t.Logf("FAIL: expected 201, got %d: %s", w.Code, w.Body.String())
				return false
			}
			if strings.Contains(w.Body.String(), "password") {
				t.Logf("FAIL: response leaks password data")
				return false
			}

			profile := decode[UserProfile](t, w)
			if _, err := uuid.Parse(profile.ID); err != nil {
				return false
			}
			return profile.Email == email && profile.Name == name && profile.Role == "user" && !profile.Active
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Z][a-z]{5,10}[0-9]{1,3}[!@#$%]`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: back-office, Property 19: Activated accounts log in with both tokens
func TestProperty_ValidLoginReturnsBothTokens(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("login after activation returns usable tokens", prop.ForAll(
		func(email, password string) bool {
			a := newAPI(t)
			ctx := context.Background()

			if _, err := a.users.Register(ctx, "Owner", email, password); err != nil {
				t.Logf("FAIL: register: %v", err)
				return false
			}
			u, err := a.store.Users().FindByEmail(ctx, email)
			if err != nil {
				return false
			}
			if w := a.do(http.MethodGet, "/api/users/activate/"+u.ActivationToken, "", nil); w.Code != http.StatusOK {
				t.Logf("FAIL: activation returned %d", w.Code)
				return false
			}

			w := a.do(http.MethodPost, "/api/users/login", "", LoginRequest{Email: email, Password: password})
			if w.Code != http.StatusOK {
				t.Logf("FAIL: expected 200, got %d", w.Code)
				return false
			}
			resp := decode[LoginResponse](t, w)
			if resp.AccessToken == "" || resp.RefreshToken == "" || resp.User.Email != email {
				return false
			}

			claims, err := a.users.ValidateToken(resp.AccessToken)
			if err != nil || claims.UserID.String() != resp.User.ID {
				return false
			}

			w = a.do(http.MethodPost, "/api/users/refresh", "", RefreshRequest{RefreshToken: resp.RefreshToken})
			return w.Code == http.StatusOK && decode[RefreshResponse](t, w).AccessToken != ""
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Z][a-z]{5,10}[0-9]{1,3}[!@#$%]`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestLoginBeforeActivationIsForbidden(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodPost, "/api/users/register", "", RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "Galletas2024!"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(http.MethodPost, "/api/users/login", "", LoginRequest{Email: "ana@example.com", Password: "Galletas2024!"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodGet, "/api/users/activate/not-a-token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	a := newAPI(t)
	a.signUp("ana@example.com")

	w := a.do(http.MethodPost, "/api/users/register", "", RegisterRequest{Name: "Ana", Email: "ANA@example.com", Password: "Galletas2024!"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestWrongPasswordUnauthorized(t *testing.T) {
	a := newAPI(t)
	a.signUp("ana@example.com")

	w := a.do(http.MethodPost, "/api/users/login", "", LoginRequest{Email: "ana@example.com", Password: "Otra2024!!"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileEndpoints(t *testing.T) {
	a := newAPI(t)
	token := a.signUp("ana@example.com")

	w := a.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[UserProfile](t, w).Active)

	w = a.do(http.MethodPatch, "/api/users/me", token, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid fields to update role", decode[errorBody](t, w).Error.Message)

	w = a.do(http.MethodPatch, "/api/users/me", token, map[string]string{"name": "Ana María"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ana María", decode[UserProfile](t, w).Name)

	w = a.do(http.MethodPatch, "/api/users/me", token, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	a := newAPI(t)
	a.signUp("ana@example.com")
	w := a.do(http.MethodPost, "/api/users/login", "", LoginRequest{Email: "ana@example.com", Password: "Galletas2024!"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[LoginResponse](t, w)

	w = a.do(http.MethodPost, "/api/users/logout", resp.AccessToken, RefreshRequest{RefreshToken: resp.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodPost, "/api/users/refresh", "", RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteAccountRemovesOwnedData(t *testing.T) {
	a := newAPI(t)
	token := a.signUp("ana@example.com")
	p := a.createProduct(token, 10, 4)

	w := a.do(http.MethodDelete, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/products/"+p.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(http.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
