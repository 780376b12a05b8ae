package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"backoffice/internal/clock"
	"backoffice/internal/domain"
	"backoffice/internal/repository"
	"backoffice/internal/repository/memory"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var epoch = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

type sentMail struct {
	kind, to, name, link string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) SendWelcome(_ context.Context, to, name, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "welcome", to: to, name: name, link: link})
	return nil
}

func (m *recordingMailer) SendCancellation(_ context.Context, to, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "cancellation", to: to, name: name})
	return nil
}

type userFixture struct {
	store  *memory.Store
	mailer *recordingMailer
	clock  *clock.Fixed
	svc    UserService
}

func newUserFixture() *userFixture {
	store := memory.New()
	mailer := &recordingMailer{}
	clk := clock.NewFixed(epoch)
	svc := NewUserService(store.Users(), store.RefreshTokens(), mailer, clk, zap.NewNop(), AuthConfig{
		JWTSecret: "test-secret-key",
		WebURL:    "http://localhost:3000",
	})
	return &userFixture{store: store, mailer: mailer, clock: clk, svc: svc}
}

// registerActive registers and activates an account, returning its tokens
func (f *userFixture) registerActive(t *testing.T, name, email, password string) (string, string, *domain.User) {
	t.Helper()
	user, err := f.svc.Register(context.Background(), name, email, password)
	require.NoError(t, err)
	access, refresh, activated, err := f.svc.Activate(context.Background(), user.ActivationToken)
	require.NoError(t, err)
	return access, refresh, activated
}

func propertyParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	return parameters
}

var (
	genEmail    = gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`)
	genPassword = gen.RegexMatch(`[A-Z][a-z]{5,10}[0-9]{1,3}[!@#$%]`)
	genName     = gen.RegexMatch(`[A-Z][a-z]{2,15}`)
)

// Feature: back-office, Property 5: Registration stores only a bcrypt hash
func TestProperty_RegistrationCreatesHashedPasswords(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("passwords are hashed with bcrypt and not stored as plaintext", prop.ForAll(
		func(email, password, name string) bool {
			f := newUserFixture()
			ctx := context.Background()

			user, err := f.svc.Register(ctx, name, email, password)
			if err != nil {
				t.Logf("FAIL: registration failed: %v", err)
				return false
			}
			if user.PasswordHash == password {
				return false
			}

			stored, err := f.store.Users().FindByEmail(ctx, email)
			if err != nil {
				t.Logf("FAIL: could not find stored user: %v", err)
				return false
			}
			return stored.PasswordHash == user.PasswordHash &&
				bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(password)) == nil
		},
		genEmail, genPassword, genName,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: back-office, Property 6: JWT tokens contain required claims
func TestProperty_JWTTokensContainRequiredClaims(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("access tokens contain user ID and role claims", prop.ForAll(
		func(email, password, name, role string) bool {
			f := newUserFixture()
			ctx := context.Background()
			_, _, user := f.registerActive(t, name, email, password)

			user.Role = role
			if err := f.store.Users().Update(ctx, user); err != nil {
				return false
			}

			accessToken, _, _, err := f.svc.Login(ctx, email, password)
			if err != nil {
				t.Logf("FAIL: login failed: %v", err)
				return false
			}
			claims, err := f.svc.ValidateToken(accessToken)
			if err != nil {
				t.Logf("FAIL: token validation failed: %v", err)
				return false
			}
			return claims.UserID == user.ID &&
				claims.Role == role &&
				claims.ExpiresAt != nil &&
				claims.IssuedAt != nil
		},
		genEmail, genPassword, genName,
		gen.OneConstOf(domain.RoleUser, domain.RoleAdmin),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: back-office, Property 7: Token refresh round trip
func TestProperty_TokenRefreshRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("valid refresh token returns new valid access token", prop.ForAll(
		func(email, password, name string) bool {
			f := newUserFixture()
			ctx := context.Background()
			_, refreshToken, user := f.registerActive(t, name, email, password)

			newAccessToken, err := f.svc.RefreshToken(ctx, refreshToken)
			if err != nil {
				t.Logf("FAIL: token refresh failed: %v", err)
				return false
			}
			claims, err := f.svc.ValidateToken(newAccessToken)
			if err != nil {
				return false
			}
			return claims.UserID == user.ID && claims.Role == user.Role
		},
		genEmail, genPassword, genName,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: back-office, Property 8: Logout invalidates refresh token
func TestProperty_LogoutInvalidatesRefreshToken(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("logout marks refresh token as revoked", prop.ForAll(
		func(email, password, name string) bool {
			f := newUserFixture()
			ctx := context.Background()
			_, refreshToken, user := f.registerActive(t, name, email, password)

			if err := f.svc.Logout(ctx, user.ID, refreshToken); err != nil {
				return false
			}
			if _, err := f.svc.RefreshToken(ctx, refreshToken); !errors.Is(err, ErrInvalidToken) {
				t.Logf("FAIL: expected ErrInvalidToken, got: %v", err)
				return false
			}
			_, err := f.store.RefreshTokens().FindByToken(ctx, refreshToken)
			return errors.Is(err, repository.ErrRefreshTokenRevoked)
		},
		genEmail, genPassword, genName,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRegisterSendsActivationLink(t *testing.T) {
	f := newUserFixture()

	user, err := f.svc.Register(context.Background(), "  Ana  ", "Ana@Example.COM", "Secret123!")
	require.NoError(t, err)

	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.False(t, user.Active)
	assert.NotEmpty(t, user.ActivationToken)
	assert.Equal(t, domain.RoleUser, user.Role)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "welcome", f.mailer.sent[0].kind)
	assert.Equal(t, "http://localhost:3000/api/users/activate/"+user.ActivationToken, f.mailer.sent[0].link)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Ana", "not-an-email", "Secret123!")
	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "email", verrs[0].Field)

	_, err = f.svc.Register(ctx, "Ana", "ana@example.com", "secret")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = f.svc.Register(ctx, "", "ana@example.com", "Secret123!")
	assert.True(t, errors.As(err, &verrs))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	_, err := f.svc.Register(ctx, "Ana", "ana@example.com", "Secret123!")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "Other", "ANA@example.com", "Secret123!")
	assert.ErrorIs(t, err, repository.ErrUserAlreadyExists)
}

func TestLoginRequiresActivation(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	user, err := f.svc.Register(ctx, "Ana", "ana@example.com", "Secret123!")
	require.NoError(t, err)

	_, _, _, err = f.svc.Login(ctx, "ana@example.com", "Secret123!")
	assert.ErrorIs(t, err, ErrAccountInactive)

	_, _, activated, err := f.svc.Activate(ctx, user.ActivationToken)
	require.NoError(t, err)
	assert.True(t, activated.Active)
	assert.Empty(t, activated.ActivationToken)

	_, _, _, err = f.svc.Activate(ctx, user.ActivationToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, _, err = f.svc.Login(ctx, "ana@example.com", "wrong-Pass1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = f.svc.Login(ctx, "ANA@example.com", "Secret123!")
	assert.NoError(t, err)
}

func TestAccessTokenExpires(t *testing.T) {
	f := newUserFixture()
	access, _, _ := f.registerActive(t, "Ana", "ana@example.com", "Secret123!")

	f.clock.Advance(AccessTokenExpiration + time.Second)

	_, err := f.svc.ValidateToken(access)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshTokenExpires(t *testing.T) {
	f := newUserFixture()
	_, refresh, _ := f.registerActive(t, "Ana", "ana@example.com", "Secret123!")

	f.clock.Advance(RefreshTokenExpiration + time.Second)

	_, err := f.svc.RefreshToken(context.Background(), refresh)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	f := newUserFixture()
	access, _, _ := f.registerActive(t, "Ana", "ana@example.com", "Secret123!")

	other := NewUserService(f.store.Users(), f.store.RefreshTokens(), f.mailer, f.clock, zap.NewNop(), AuthConfig{JWTSecret: "another-secret"})
	_, err := other.ValidateToken(access)
	assert.Error(t, err)
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	_, first, user := f.registerActive(t, "Ana", "ana@example.com", "Secret123!")
	_, second, _, err := f.svc.Login(ctx, "ana@example.com", "Secret123!")
	require.NoError(t, err)

	require.NoError(t, f.svc.LogoutAll(ctx, user.ID))

	for _, token := range []string{first, second} {
		_, err := f.svc.RefreshToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
	assert.NoError(t, f.svc.Logout(ctx, user.ID, "unknown-token"))
}

func TestLogoutIgnoresAnotherUsersToken(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	_, token, _ := f.registerActive(t, "Ana", "ana@example.com", "Secret123!")
	_, _, intruder := f.registerActive(t, "Luis", "luis@example.com", "Secret123!")

	require.NoError(t, f.svc.Logout(ctx, intruder.ID, token))

	_, err := f.svc.RefreshToken(ctx, token)
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	_, refresh, user := f.registerActive(t, "Ana", "ana@example.com", "Secret123!")

	name := "Ana María"
	email := "ANA.MARIA@example.com"
	updated, err := f.svc.UpdateProfile(ctx, user.ID, UserUpdate{Name: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.Name)
	assert.Equal(t, "ana.maria@example.com", updated.Email)

	// profile edits keep sessions alive
	_, err = f.svc.RefreshToken(ctx, refresh)
	require.NoError(t, err)

	weak := "short"
	_, err = f.svc.UpdateProfile(ctx, user.ID, UserUpdate{Password: &weak})
	assert.ErrorIs(t, err, ErrWeakPassword)

	password := "NewSecret9?"
	_, err = f.svc.UpdateProfile(ctx, user.ID, UserUpdate{Password: &password})
	require.NoError(t, err)

	_, err = f.svc.RefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, _, _, err = f.svc.Login(ctx, "ana.maria@example.com", password)
	assert.NoError(t, err)
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	f := newUserFixture()
	_, _, _ = f.registerActive(t, "Ana", "ana@example.com", "Secret123!")
	_, _, bob := f.registerActive(t, "Bob", "bob@example.com", "Secret123!")

	taken := "ana@example.com"
	_, err := f.svc.UpdateProfile(context.Background(), bob.ID, UserUpdate{Email: &taken})
	assert.ErrorIs(t, err, repository.ErrUserAlreadyExists)
}

func TestDeleteAccountSendsCancellation(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	_, _, user := f.registerActive(t, "Ana", "ana@example.com", "Secret123!")

	deleted, err := f.svc.DeleteAccount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, deleted.ID)

	_, err = f.svc.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	last := f.mailer.sent[len(f.mailer.sent)-1]
	assert.Equal(t, "cancellation", last.kind)
	assert.True(t, strings.EqualFold(last.to, "ana@example.com"))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{"Secret123!", true},
		{"Aa1*aaaa", true},
		{"Aa1*aaa", false},
		{"secret123!", false},
		{"SECRET123!", false},
		{"Secretabc!", false},
		{"Secret1234", false},
		{"Aa1*" + strings.Repeat("a", 28), true},
		{"Aa1*" + strings.Repeat("a", 29), false},
		{"Ñandú12#x", true},
	}
	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if tt.valid {
			assert.NoError(t, err, tt.password)
		} else {
			assert.ErrorIs(t, err, ErrWeakPassword, tt.password)
		}
	}
}
