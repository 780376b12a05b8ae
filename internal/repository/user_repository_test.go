package repository

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"backoffice/internal/database"
	"backoffice/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

var epoch = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func setupTestDB() (func(context.Context) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := dbContainer.ConnectionString(context.Background(), "sslmode=disable")
	if err != nil {
		return dbContainer.Terminate, err
	}

	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	if err := database.RunMigrations(testDB, "../../migrations", zap.NewNop()); err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		// repository tests need docker
		os.Exit(0)
	}

	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	code := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
	os.Exit(code)
}

// newUser stores an active account and returns it
func newUser(t *testing.T) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         "Owner",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		Active:       true,
		CreatedAt:    epoch,
		UpdatedAt:    epoch,
	}
	require.NoError(t, NewUserRepository(testDB).Create(context.Background(), user))
	return user
}

// Feature: back-office, Property 20: Stored passwords are bcrypt hashes
func TestProperty_RegistrationCreatesHashedPasswords(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 20
	properties := gopter.NewProperties(params)

	properties.Property("passwords are hashed with bcrypt and not stored as plaintext", prop.ForAll(
		func(email string, password string, name string) bool {
			// Clean up before each test
			_, _ = testDB.Exec("DELETE FROM users WHERE email = $1", email)

			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
			if err != nil {
				t.Logf("Failed to hash password: %v", err)
				return false
			}

			user := &domain.User{
				ID:           uuid.New(),
				Name:         name,
				Email:        email,
				PasswordHash: string(hashedPassword),
				Role:         domain.RoleUser,
				CreatedAt:    epoch,
				UpdatedAt:    epoch,
			}
			if err := repo.Create(ctx, user); err != nil {
				t.Logf("Failed to create user: %v", err)
				return false
			}

			retrievedUser, err := repo.FindByEmail(ctx, email)
			if err != nil {
				t.Logf("Failed to find user: %v", err)
				return false
			}

			if retrievedUser.PasswordHash == password {
				t.Logf("Password was stored as plaintext!")
				return false
			}
			if err := bcrypt.CompareHashAndPassword([]byte(retrievedUser.PasswordHash), []byte(password)); err != nil {
				t.Logf("Stored hash does not match password: %v", err)
				return false
			}

			return retrievedUser.Name == name && !retrievedUser.Active
		},
		gen.RegexMatch(`[a-z]{5,10}@[a-z]{3,8}\.(com|org)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestUserEmailIsUnique(t *testing.T) {
	repo := NewUserRepository(testDB)
	user := newUser(t)

	dup := *user
	dup.ID = uuid.New()
	err := repo.Create(context.Background(), &dup)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestUserActivationTokenLookup(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()
	user := newUser(t)
	user.Active = false
	user.ActivationToken = uuid.NewString()
	require.NoError(t, repo.Update(ctx, user))

	found, err := repo.FindByActivationToken(ctx, user.ActivationToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.False(t, found.Active)

	_, err = repo.FindByActivationToken(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRefreshTokensRevokeAll(t *testing.T) {
	repo := NewRefreshTokenRepository(testDB)
	ctx := context.Background()
	user := newUser(t)

	tokens := []string{uuid.NewString(), uuid.NewString()}
	for _, tok := range tokens {
		require.NoError(t, repo.Create(ctx, &domain.RefreshToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			Token:     tok,
			ExpiresAt: epoch.Add(time.Hour),
			CreatedAt: epoch,
		}))
	}

	_, err := repo.FindByToken(ctx, tokens[0])
	require.NoError(t, err)

	require.NoError(t, repo.RevokeAllForUser(ctx, user.ID))
	for _, tok := range tokens {
		_, err := repo.FindByToken(ctx, tok)
		assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
	}
}

func TestUserDeleteCascadesOwnedRows(t *testing.T) {
	ctx := context.Background()
	user := newUser(t)
	product := newProduct(t, user.ID, 5)

	require.NoError(t, NewUserRepository(testDB).Delete(ctx, user.ID))

	_, err := NewProductRepository(testDB).FindByIDForUpdate(ctx, product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, err = NewUserRepository(testDB).FindByID(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRefreshTokenRevokeIsOwnerScoped(t *testing.T) {
	repo := NewRefreshTokenRepository(testDB)
	ctx := context.Background()
	owner, other := newUser(t), newUser(t)

	token := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    owner.ID,
		Token:     uuid.NewString(),
		ExpiresAt: epoch.Add(time.Hour),
		CreatedAt: epoch,
	}
	require.NoError(t, repo.Create(ctx, token))

	assert.ErrorIs(t, repo.Revoke(ctx, other.ID, token.Token), ErrRefreshTokenNotFound)
	_, err := repo.FindByToken(ctx, token.Token)
	require.NoError(t, err)

	require.NoError(t, repo.Revoke(ctx, owner.ID, token.Token))
	_, err = repo.FindByToken(ctx, token.Token)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)

	orphan := *token
	orphan.ID, orphan.UserID, orphan.Token = uuid.New(), uuid.New(), uuid.NewString()
	assert.ErrorIs(t, repo.Create(ctx, &orphan), ErrUserNotFound)
}
