package session

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coverdesk/coverdesk/pkg/identity"
	"github.com/coverdesk/coverdesk/pkg/rank"
)

func setupDirectory(t *testing.T) (*Directory, *fakeClock) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	d := NewDirectory(db, clock)
	require.NoError(t, d.Migrate(context.Background()))
	return d, clock
}

func TestDirectory_CreateAndValidate(t *testing.T) {
	d, _ := setupDirectory(t)
	ctx := context.Background()

	u, err := d.CreateUser(ctx, "june@coverdesk.test", "June Park", "s3cret", true)
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	got, err := d.Validate(ctx, "june@coverdesk.test", "s3cret")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	got, err = d.Validate(ctx, "june@coverdesk.test", "wrong")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = d.Validate(ctx, "nobody@coverdesk.test", "s3cret")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDirectory_AssignAndRevokeRank(t *testing.T) {
	d, _ := setupDirectory(t)
	ctx := context.Background()

	u, err := d.CreateUser(ctx, "june@coverdesk.test", "June Park", "s3cret", true)
	require.NoError(t, err)

	a, err := d.AssignRank(ctx, u.ID, rank.RankAgent, "site-main", "u-admin")
	require.NoError(t, err)
	assert.Equal(t, identity.AssignmentActive, a.State)

	loaded, err := d.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Ranks, 1)
	assert.Equal(t, identity.RoleInternal, identity.CoarseRole(identity.SystemCatalog{}, *loaded, ""))

	// Revocation is soft: the record survives with audit fields set.
	require.NoError(t, d.RevokeRank(ctx, a.ID, "u-admin"))
	loaded, err = d.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Ranks, 1)
	got := loaded.Ranks[0]
	assert.Equal(t, identity.AssignmentRevoked, got.State)
	assert.Equal(t, "u-admin", got.RevokedBy)
	require.NotNil(t, got.RevokedAt)
	assert.Equal(t, identity.RoleExternal, identity.CoarseRole(identity.SystemCatalog{}, *loaded, ""))
}

func TestDirectory_RevokeIsIdempotent(t *testing.T) {
	d, clock := setupDirectory(t)
	ctx := context.Background()

	u, err := d.CreateUser(ctx, "june@coverdesk.test", "June Park", "s3cret", true)
	require.NoError(t, err)
	a, err := d.AssignRank(ctx, u.ID, rank.RankAgent, "site-main", "u-admin")
	require.NoError(t, err)

	require.NoError(t, d.RevokeRank(ctx, a.ID, "u-admin"))
	firstRevokedAt := clock.now

	clock.advance(time.Hour)
	require.NoError(t, d.RevokeRank(ctx, a.ID, "someone-else"))

	loaded, err := d.GetUser(ctx, u.ID)
	require.NoError(t, err)
	got := loaded.Ranks[0]
	assert.Equal(t, "u-admin", got.RevokedBy, "second revoke must not overwrite the audit trail")
	assert.WithinDuration(t, firstRevokedAt, *got.RevokedAt, time.Second)
}

func TestDirectory_GetUserByEmail_Unknown(t *testing.T) {
	d, _ := setupDirectory(t)
	u, err := d.GetUserByEmail(context.Background(), "ghost@coverdesk.test")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestDirectory_SeedIsIdempotent(t *testing.T) {
	d, _ := setupDirectory(t)
	ctx := context.Background()

	require.NoError(t, d.Seed(ctx, DefaultSeedAccounts()))

	admin, err := d.Validate(ctx, "admin@coverdesk.test", "admin123")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, identity.RoleAdmin, identity.CoarseRole(identity.SystemCatalog{}, *admin, ""))

	// Re-seeding a populated directory changes nothing.
	require.NoError(t, d.Seed(ctx, DefaultSeedAccounts()))
	again, err := d.Validate(ctx, "admin@coverdesk.test", "admin123")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, admin.ID, again.ID)
}

func TestDirectory_SeededGuestHasNoRanks(t *testing.T) {
	d, _ := setupDirectory(t)
	ctx := context.Background()
	require.NoError(t, d.Seed(ctx, DefaultSeedAccounts()))

	guest, err := d.Validate(ctx, "guest@coverdesk.test", "guest123")
	require.NoError(t, err)
	require.NotNil(t, guest)
	assert.Empty(t, guest.Ranks)
	assert.Equal(t, identity.RoleExternal, identity.CoarseRole(identity.SystemCatalog{}, *guest, ""))
}
