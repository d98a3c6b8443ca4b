package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/coverdesk/coverdesk/pkg/identity"
	"github.com/coverdesk/coverdesk/pkg/rank"
)

// Directory is the user store backing credential validation and rank
// assignment lifecycle. It implements CredentialValidator.
type Directory struct {
	db    *sql.DB
	clock Clock
}

// NewDirectory creates a directory over an opened database handle (SQLite
// in the default deployment).
func NewDirectory(db *sql.DB, clock Clock) *Directory {
	return &Directory{db: db, clock: clock}
}

// Migrate creates the directory schema if it does not exist.
func (d *Directory) Migrate(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL,
			is_active     INTEGER NOT NULL DEFAULT 1,
			password_salt TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS rank_assignments (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id),
			rank_id     TEXT NOT NULL,
			site_id     TEXT NOT NULL,
			state       TEXT NOT NULL,
			assigned_at TIMESTAMP NOT NULL,
			assigned_by TEXT,
			revoked_at  TIMESTAMP,
			revoked_by  TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_rank_assignments_user
			ON rank_assignments(user_id);
	`)
	if err != nil {
		return fmt.Errorf("directory migrate: %w", err)
	}
	return nil
}

// CreateUser inserts a user with the given password.
func (d *Directory) CreateUser(ctx context.Context, email, name, password string, isActive bool) (*identity.User, error) {
	salt, hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	u := identity.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		IsActive:  isActive,
		CreatedAt: d.clock.Now(),
	}
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, is_active, password_salt, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Name, boolToInt(u.IsActive), salt, hash, u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail loads a user with its rank assignments. Returns nil when
// no user matches.
func (d *Directory) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	u, _, _, err := d.getUser(ctx, "email = ?", email)
	return u, err
}

// GetUser loads a user by ID with its rank assignments. Returns nil when no
// user matches.
func (d *Directory) GetUser(ctx context.Context, userID string) (*identity.User, error) {
	u, _, _, err := d.getUser(ctx, "id = ?", userID)
	return u, err
}

// Validate implements CredentialValidator. A non-matching pair returns
// (nil, nil); only storage faults surface as errors.
func (d *Directory) Validate(ctx context.Context, email, password string) (*identity.User, error) {
	u, salt, hash, err := d.getUser(ctx, "email = ?", email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	if !verifyPassword(password, salt, hash) {
		return nil, nil
	}
	return u, nil
}

// AssignRank records an active rank assignment for the user within a site.
func (d *Directory) AssignRank(ctx context.Context, userID, rankID, siteID, assignedBy string) (*identity.RankAssignment, error) {
	a := identity.RankAssignment{
		ID:         uuid.NewString(),
		UserID:     userID,
		RankID:     rankID,
		SiteID:     siteID,
		State:      identity.AssignmentActive,
		AssignedAt: d.clock.Now(),
		AssignedBy: assignedBy,
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO rank_assignments (id, user_id, rank_id, site_id, state, assigned_at, assigned_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.UserID, a.RankID, a.SiteID, a.State, a.AssignedAt, a.AssignedBy)
	if err != nil {
		return nil, fmt.Errorf("assign rank: %w", err)
	}
	return &a, nil
}

// RevokeRank soft-deletes an assignment, preserving the audit trail. It is
// idempotent: revoking an already-revoked assignment changes nothing.
func (d *Directory) RevokeRank(ctx context.Context, assignmentID, revokedBy string) error {
	now := d.clock.Now()
	_, err := d.db.ExecContext(ctx, `
		UPDATE rank_assignments
		SET state = ?, revoked_at = ?, revoked_by = ?
		WHERE id = ? AND state = ?
	`, identity.AssignmentRevoked, now, revokedBy, assignmentID, identity.AssignmentActive)
	if err != nil {
		return fmt.Errorf("revoke rank: %w", err)
	}
	return nil
}

// Assignments returns every assignment for a user, active and revoked.
func (d *Directory) Assignments(ctx context.Context, userID string) ([]identity.RankAssignment, error) {
	return d.loadAssignments(ctx, userID)
}

func (d *Directory) getUser(ctx context.Context, where string, arg interface{}) (*identity.User, string, string, error) {
	var (
		u        identity.User
		isActive int
		salt     string
		hash     string
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT id, email, name, is_active, password_salt, password_hash, created_at
		FROM users WHERE `+where, arg).Scan(&u.ID, &u.Email, &u.Name, &isActive, &salt, &hash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, "", "", nil
	}
	if err != nil {
		return nil, "", "", fmt.Errorf("load user: %w", err)
	}
	u.IsActive = isActive != 0

	u.Ranks, err = d.loadAssignments(ctx, u.ID)
	if err != nil {
		return nil, "", "", err
	}
	return &u, salt, hash, nil
}

func (d *Directory) loadAssignments(ctx context.Context, userID string) ([]identity.RankAssignment, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, rank_id, site_id, state, assigned_at, assigned_by, revoked_at, revoked_by
		FROM rank_assignments
		WHERE user_id = ?
		ORDER BY assigned_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}
	defer rows.Close()

	var assignments []identity.RankAssignment
	for rows.Next() {
		var (
			a          identity.RankAssignment
			assignedBy sql.NullString
			revokedAt  sql.NullTime
			revokedBy  sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.RankID, &a.SiteID, &a.State, &a.AssignedAt, &assignedBy, &revokedAt, &revokedBy); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.AssignedBy = assignedBy.String
		if revokedAt.Valid {
			t := revokedAt.Time
			a.RevokedAt = &t
		}
		a.RevokedBy = revokedBy.String
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// SeedAccount is one entry of the seeded account set used at first start.
type SeedAccount struct {
	Email    string
	Name     string
	Password string
	RankID   string
	SiteID   string
}

// DefaultSeedAccounts returns the seeded account set for a fresh directory:
// one account per system rank plus a rankless external user.
func DefaultSeedAccounts() []SeedAccount {
	return []SeedAccount{
		{Email: "admin@coverdesk.test", Name: "Ada Moreau", Password: "admin123", RankID: rank.RankAdministrator, SiteID: "site-main"},
		{Email: "director@coverdesk.test", Name: "Iris Okafor", Password: "director123", RankID: rank.RankAgencyDirector, SiteID: "site-main"},
		{Email: "manager@coverdesk.test", Name: "Tomás Rivera", Password: "manager123", RankID: rank.RankBranchManager, SiteID: "site-main"},
		{Email: "agent@coverdesk.test", Name: "June Park", Password: "agent123", RankID: rank.RankAgent, SiteID: "site-main"},
		{Email: "client@coverdesk.test", Name: "Noor Haddad", Password: "client123", RankID: rank.RankClient, SiteID: "site-main"},
		{Email: "guest@coverdesk.test", Name: "Sam Walker", Password: "guest123"},
	}
}

// Seed inserts the given accounts if the directory is empty. Re-running it
// against a populated directory is a no-op.
func (d *Directory) Seed(ctx context.Context, accounts []SeedAccount) error {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("directory seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, acct := range accounts {
		u, err := d.CreateUser(ctx, acct.Email, acct.Name, acct.Password, true)
		if err != nil {
			return err
		}
		if acct.RankID != "" {
			if _, err := d.AssignRank(ctx, u.ID, acct.RankID, acct.SiteID, "seed"); err != nil {
				return err
			}
		}
	}
	return nil
}

func hashPassword(password string) (salt, hash string, err error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	salt = hex.EncodeToString(raw)
	return salt, digest(password, salt), nil
}

func verifyPassword(password, salt, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(digest(password, salt)), []byte(hash)) == 1
}

func digest(password, salt string) string {
	sum := sha256.Sum256([]byte(salt + ":" + password))
	return hex.EncodeToString(sum[:])
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ CredentialValidator = (*Directory)(nil)
