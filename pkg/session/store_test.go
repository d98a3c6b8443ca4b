package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coverdesk/coverdesk/pkg/identity"
	"github.com/coverdesk/coverdesk/pkg/rank"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// stubValidator answers from a fixed account map.
type stubValidator struct {
	accounts map[string]struct {
		password string
		user     identity.User
	}
	err error
}

func (v *stubValidator) Validate(_ context.Context, email, password string) (*identity.User, error) {
	if v.err != nil {
		return nil, v.err
	}
	acct, ok := v.accounts[email]
	if !ok || acct.password != password {
		return nil, nil
	}
	u := acct.user
	return &u, nil
}

func testUser(id string, rankID string) identity.User {
	u := identity.User{ID: id, Email: id + "@coverdesk.test", Name: "Test User", IsActive: true}
	if rankID != "" {
		u.Ranks = []identity.RankAssignment{{UserID: id, RankID: rankID, SiteID: "site-main", State: identity.AssignmentActive}}
	}
	return u
}

func newStore(t *testing.T) (*Store, *MemoryStorage, *fakeClock, *stubValidator) {
	t.Helper()
	storage := NewMemoryStorage()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	validator := &stubValidator{accounts: map[string]struct {
		password string
		user     identity.User
	}{
		"agent@coverdesk.test": {password: "agent123", user: testUser("u-agent", rank.RankAgent)},
		"inactive@coverdesk.test": {password: "pw", user: func() identity.User {
			u := testUser("u-gone", rank.RankAgent)
			u.IsActive = false
			return u
		}()},
	}}
	store := NewStore(storage, clock, validator, identity.SystemCatalog{}, nil, Config{})
	return store, storage, clock, validator
}

func TestLogin_Success(t *testing.T) {
	store, storage, clock, _ := newStore(t)
	ctx := context.Background()

	sess, err := store.Login(ctx, "agent@coverdesk.test", "agent123")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "u-agent", sess.User.ID)
	assert.Equal(t, clock.now.Add(DefaultTTL), sess.ExpiresAt)
	require.NoError(t, ValidateTokenFormat(sess.Token))

	// Convenience scalars are readable without deserializing the session.
	role, ok, _ := storage.Get(ctx, KeyUserRole)
	require.True(t, ok)
	assert.Equal(t, "internal", role)
	email, _, _ := storage.Get(ctx, KeyUserEmail)
	assert.Equal(t, "u-agent@coverdesk.test", email)
	token, _, _ := storage.Get(ctx, KeyAuthToken)
	assert.Equal(t, sess.Token, token)
}

func TestLogin_BadCredentials(t *testing.T) {
	store, _, _, _ := newStore(t)

	_, err := store.Login(context.Background(), "agent@coverdesk.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = store.Login(context.Background(), "nobody@coverdesk.test", "agent123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveAccount(t *testing.T) {
	store, _, _, _ := newStore(t)

	_, err := store.Login(context.Background(), "inactive@coverdesk.test", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_ValidatorFault(t *testing.T) {
	store, _, _, validator := newStore(t)
	validator.err = errors.New("directory down")

	_, err := store.Login(context.Background(), "agent@coverdesk.test", "agent123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestSession_RoundTrip(t *testing.T) {
	store, _, _, _ := newStore(t)
	ctx := context.Background()

	u := testUser("u-agent", rank.RankAgent)
	created, err := store.CreateSession(ctx, u, "cvd_roundtrip")
	require.NoError(t, err)

	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u, got.User)
	assert.Equal(t, "cvd_roundtrip", got.Token)
	assert.Equal(t, created.ExpiresAt, got.ExpiresAt)
}

func TestGetSession_Absent(t *testing.T) {
	store, _, _, _ := newStore(t)
	got, err := store.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetSession_LazyExpiry(t *testing.T) {
	store, storage, clock, _ := newStore(t)
	ctx := context.Background()

	_, err := store.CreateSession(ctx, testUser("u-agent", rank.RankAgent), "cvd_t")
	require.NoError(t, err)

	clock.advance(DefaultTTL + time.Second)

	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Expiry clears storage as a side effect, convenience keys included.
	_, ok, _ := storage.Get(ctx, KeySession)
	assert.False(t, ok)
	_, ok, _ = storage.Get(ctx, KeyAuthToken)
	assert.False(t, ok)
}

func TestGetSession_StampsStaleActivity(t *testing.T) {
	store, _, clock, _ := newStore(t)
	ctx := context.Background()

	_, err := store.CreateSession(ctx, testUser("u-agent", rank.RankAgent), "cvd_t")
	require.NoError(t, err)

	// Within the threshold: no stamping.
	clock.advance(2 * time.Minute)
	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(-2*time.Minute), got.LastActivity)

	// Beyond it: the read refreshes LastActivity.
	clock.advance(10 * time.Minute)
	got, err = store.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, clock.now, got.LastActivity)
}

func TestGetSession_MalformedDataSelfHeals(t *testing.T) {
	store, storage, _, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, KeySession, "{not json"))
	require.NoError(t, storage.Set(ctx, KeyAuthToken, "stale"))

	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, ok, _ := storage.Get(ctx, KeySession)
	assert.False(t, ok, "corrupt entry must be cleared")
	_, ok, _ = storage.Get(ctx, KeyAuthToken)
	assert.False(t, ok)
}

func TestExtendSession(t *testing.T) {
	store, _, clock, _ := newStore(t)
	ctx := context.Background()

	_, err := store.CreateSession(ctx, testUser("u-agent", rank.RankAgent), "cvd_t")
	require.NoError(t, err)

	clock.advance(10 * time.Hour)
	extended, err := store.ExtendSession(ctx)
	require.NoError(t, err)
	assert.True(t, extended)

	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(DefaultTTL), got.ExpiresAt)
	assert.Equal(t, clock.now, got.LastActivity)
}

func TestExtendSession_NeverResurrects(t *testing.T) {
	store, _, clock, _ := newStore(t)
	ctx := context.Background()

	_, err := store.CreateSession(ctx, testUser("u-agent", rank.RankAgent), "cvd_t")
	require.NoError(t, err)

	clock.advance(DefaultTTL + time.Minute)
	extended, err := store.ExtendSession(ctx)
	require.NoError(t, err)
	assert.False(t, extended)

	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExtendSession_NoSession(t *testing.T) {
	store, _, _, _ := newStore(t)
	extended, err := store.ExtendSession(context.Background())
	require.NoError(t, err)
	assert.False(t, extended)
}

func TestLogout_Idempotent(t *testing.T) {
	store, storage, _, _ := newStore(t)
	ctx := context.Background()

	_, err := store.CreateSession(ctx, testUser("u-agent", rank.RankAgent), "cvd_t")
	require.NoError(t, err)

	require.NoError(t, store.Logout(ctx))
	require.NoError(t, store.Logout(ctx), "second logout is a no-op")

	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	_, ok, _ := storage.Get(ctx, KeyUserEmail)
	assert.False(t, ok)
}

func TestSetViewState(t *testing.T) {
	store, storage, _, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetViewState(ctx, "external", true))

	mode, ok, _ := storage.Get(ctx, KeyViewMode)
	require.True(t, ok)
	assert.Equal(t, "external", mode)
	tm, _, _ := storage.Get(ctx, KeyTestMode)
	assert.Equal(t, "true", tm)
}

func TestRanklessLoginDerivesExternalRole(t *testing.T) {
	store, storage, _, validator := newStore(t)
	validator.accounts["guest@coverdesk.test"] = struct {
		password string
		user     identity.User
	}{password: "guest123", user: testUser("u-guest", "")}

	sess, err := store.Login(context.Background(), "guest@coverdesk.test", "guest123")
	require.NoError(t, err)
	assert.Empty(t, sess.User.Ranks)

	role, ok, _ := storage.Get(context.Background(), KeyUserRole)
	require.True(t, ok)
	assert.Equal(t, "external", role)
}
