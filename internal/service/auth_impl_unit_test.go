package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"auth-server/internal/config"
	"auth-server/internal/token"
	"auth-server/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- In-memory fakes ---

type fakeUserRepo struct {
	users     map[string]*models.User
	passwords map[string]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[string]*models.User),
		passwords: make(map[string]string),
	}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *models.User, password string) error {
	if _, ok := f.users[user.Username]; ok {
		return models.ErrUserAlreadyExists
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return models.ErrEmailAlreadyExists
		}
	}
	cp := *user
	f.users[user.Username] = &cp
	f.passwords[user.Username] = password
	return nil
}

func (f *fakeUserRepo) FindByName(_ context.Context, username string) (*models.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) CheckPassword(user *models.User, password string) bool {
	return f.passwords[user.Username] == password
}

func (f *fakeUserRepo) ChangePassword(_ context.Context, username, currentPassword, newPassword string) error {
	if _, ok := f.users[username]; !ok {
		return models.ErrUserNotFound
	}
	if f.passwords[username] != currentPassword {
		return models.ErrInvalidCredentials
	}
	f.passwords[username] = newPassword
	return nil
}

func (f *fakeUserRepo) GetRoles(_ context.Context, username string) ([]string, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return u.Roles, nil
}

func (f *fakeUserRepo) AddToRole(_ context.Context, username, role string) error {
	u, ok := f.users[username]
	if !ok {
		return models.ErrUserNotFound
	}
	if !models.HasRole(u.Roles, role) {
		u.Roles = append(u.Roles, role)
	}
	return nil
}

type fakeTokenRecordRepo struct {
	records    map[string]*models.TokenRecord
	failUpsert bool
	upserts    int
}

func newFakeTokenRecordRepo() *fakeTokenRecordRepo {
	return &fakeTokenRecordRepo{records: make(map[string]*models.TokenRecord)}
}

func (f *fakeTokenRecordRepo) FindByUserName(_ context.Context, userName string) (*models.TokenRecord, error) {
	r, ok := f.records[userName]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	cp := *r
	if r.RefreshToken != nil {
		tok := *r.RefreshToken
		cp.RefreshToken = &tok
	}
	return &cp, nil
}

func (f *fakeTokenRecordRepo) Upsert(_ context.Context, record *models.TokenRecord) error {
	if f.failUpsert {
		return fmt.Errorf("%w: connection refused", models.ErrStorage)
	}
	f.upserts++
	cp := *record
	if record.RefreshToken != nil {
		tok := *record.RefreshToken
		cp.RefreshToken = &tok
	}
	f.records[record.UserName] = &cp
	return nil
}

func (f *fakeTokenRecordRepo) Clear(_ context.Context, userName string) error {
	r, ok := f.records[userName]
	if !ok {
		return models.ErrRecordNotFound
	}
	r.RefreshToken = nil
	return nil
}

type fakePublisher struct {
	revoked []string
}

func (f *fakePublisher) PublishSessionRevoked(_ context.Context, userName string) error {
	f.revoked = append(f.revoked, userName)
	return nil
}

// --- Harness ---

type testEnv struct {
	svc       AuthService
	users     *fakeUserRepo
	records   *fakeTokenRecordRepo
	publisher *fakePublisher
	codec     *token.Codec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	keys, err := token.NewKeyProvider(strings.Repeat("k", 32), "auth-server", "auth-server-clients")
	require.NoError(t, err)
	codec := token.NewCodec(keys)

	cfg := &config.Config{
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
	users := newFakeUserRepo()
	records := newFakeTokenRecordRepo()
	publisher := &fakePublisher{}

	return &testEnv{
		svc:       NewAuthService(users, records, codec, publisher, cfg, zap.NewNop()),
		users:     users,
		records:   records,
		publisher: publisher,
		codec:     codec,
	}
}

func (e *testEnv) seedUser(t *testing.T, name, password string, roles ...string) {
	t.Helper()
	err := e.users.CreateUser(context.Background(), &models.User{
		Username: name,
		Email:    name + "@example.com",
		Roles:    roles,
	}, password)
	require.NoError(t, err)
}

// --- Tests ---

func TestLoginIssuesPairAndPersistsRecord(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "correct", models.RoleUser)
	ctx := context.Background()

	pair, err := env.svc.Login(ctx, "alice", "correct")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Minute), pair.ExpiresAt, 5*time.Second)

	// The returned refresh token is exactly what the store holds.
	record, err := env.records.FindByUserName(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, record.RefreshToken)
	assert.Equal(t, pair.RefreshToken, *record.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), record.RefreshTokenExpiry, 5*time.Second)

	// Claims carry the username and every assigned role.
	claims, err := env.svc.ValidateAccessToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Name)
	assert.ElementsMatch(t, []string{models.RoleUser}, claims.Roles)
	assert.NotEmpty(t, claims.ID)
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "correct", models.RoleUser)
	ctx := context.Background()

	_, err := env.svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	// Unknown user reports the same error as a wrong password.
	_, err = env.svc.Login(ctx, "nobody", "whatever")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = env.records.FindByUserName(ctx, "alice")
	assert.ErrorIs(t, err, models.ErrRecordNotFound, "failed logins must not create records")
}

func TestLoginAbortsWhenRecordCannotBePersisted(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "correct", models.RoleUser)
	env.records.failUpsert = true

	pair, err := env.svc.Login(context.Background(), "alice", "correct")
	assert.ErrorIs(t, err, models.ErrStorage)
	assert.Nil(t, pair, "no token pair may leave the service if the store did not record it")
}

func TestRefreshRotatesPair(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "correct", models.RoleUser)
	ctx := context.Background()

	pair, err := env.svc.Login(ctx, "alice", "correct")
	require.NoError(t, err)
	before, err := env.records.FindByUserName(ctx, "alice")
	require.NoError(t, err)

	newPair, err := env.svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken, "refresh token must rotate")
	assert.NotEmpty(t, newPair.AccessToken)

	after, err := env.records.FindByUserName(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, after.RefreshToken)
	assert.Equal(t, newPair.RefreshToken, *after.RefreshToken)
	// Rotation replaces the token value only; the expiry is extended on login,
	// never on refresh.
	assert.Equal(t, before.RefreshTokenExpiry, after.RefreshTokenExpiry)

	// The superseded refresh token no longer matches the store.
	_, err = env.svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "correct", models.RoleUser)
	ctx := context.Background()

	pair, err := env.svc.Login(ctx, "alice", "correct")
	require.NoError(t, err)

	// An expired but correctly signed access token is the normal refresh input.
	expired, _, err := env.codec.Issue("alice", []string{models.RoleUser}, -time.Minute)
	require.NoError(t, err)

	newPair, err := env.svc.Refresh(ctx, expired, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, newPair.AccessToken)
}

func TestRefreshRejectsAnyViolatedCondition(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "correct", models.RoleUser)
	ctx := context.Background()

	pair, err := env.svc.Login(ctx, "alice", "correct")
	require.NoError(t, err)
	upsertsAfterLogin := env.records.upserts

	otherKeys, err := token.NewKeyProvider(strings.Repeat("z", 32), "auth-server", "auth-server-clients")
	require.NoError(t, err)
	forged, _, err := token.NewCodec(otherKeys).Issue("alice", []string{models.RoleUser}, time.Minute)
	require.NoError(t, err)

	// Tampered signature.
	_, err = env.svc.Refresh(ctx, forged, pair.RefreshToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)

	// Mismatched refresh token.
	_, err = env.svc.Refresh(ctx, pair.AccessToken, "not-the-stored-token")
	assert.ErrorIs(t, err, models.ErrTokenInvalid)

	// No record for the user named in the token.
	ghost, _, err := env.codec.Issue("ghost", nil, time.Minute)
	require.NoError(t, err)
	_, err = env.svc.Refresh(ctx, ghost, pair.RefreshToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)

	// Expired stored record.
	stale := pair.RefreshToken
	err = env.records.Upsert(ctx, &models.TokenRecord{
		UserName:           "alice",
		RefreshToken:       &stale,
		RefreshTokenExpiry: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)
	_, err = env.svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)

	// No rejection above may have rotated the stored token.
	record, err := env.records.FindByUserName(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, record.RefreshToken)
	assert.Equal(t, pair.RefreshToken, *record.RefreshToken)
	assert.Equal(t, upsertsAfterLogin+1, env.records.upserts, "only the test's own upsert may have written")
}

func TestRevokeClearsRecordAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "correct", models.RoleUser)
	ctx := context.Background()

	_, err := env.svc.Login(ctx, "alice", "correct")
	require.NoError(t, err)

	require.NoError(t, env.svc.Revoke(ctx, "alice"))
	record, err := env.records.FindByUserName(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, record.RefreshToken)

	// Second revoke still succeeds while the record exists.
	require.NoError(t, env.svc.Revoke(ctx, "alice"))
	record, err = env.records.FindByUserName(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, record.RefreshToken)

	assert.Equal(t, []string{"alice", "alice"}, env.publisher.revoked)

	// Absence of a record is the only revoke error.
	err = env.svc.Revoke(ctx, "nobody")
	assert.ErrorIs(t, err, models.ErrRecordNotFound)
}

func TestRevokedTokenCannotRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "correct", models.RoleUser)
	ctx := context.Background()

	pair, err := env.svc.Login(ctx, "alice", "correct")
	require.NoError(t, err)
	require.NoError(t, env.svc.Revoke(ctx, "alice"))

	_, err = env.svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestRegisterAssignsDefaultRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.svc.Register(ctx, "bob", "bob@example.com", "Bob", "password1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{models.RoleUser}, user.Roles)

	_, err = env.svc.Register(ctx, "bob", "other@example.com", "Bob", "password1")
	assert.ErrorIs(t, err, models.ErrUserAlreadyExists)

	_, err = env.svc.Register(ctx, "carol", "not-an-email", "Carol", "password1")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestChangePasswordSignalsRevocation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "old-password", models.RoleUser)
	ctx := context.Background()

	err := env.svc.ChangePassword(ctx, "alice", "wrong", "new-password")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.Empty(t, env.publisher.revoked)

	require.NoError(t, env.svc.ChangePassword(ctx, "alice", "old-password", "new-password"))
	assert.Equal(t, []string{"alice"}, env.publisher.revoked)

	_, err = env.svc.Login(ctx, "alice", "new-password")
	assert.NoError(t, err)
}
