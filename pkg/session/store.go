package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coverdesk/coverdesk/pkg/identity"
	"github.com/coverdesk/coverdesk/pkg/observability"
)

// Well-known storage keys. The session record is stored as JSON under
// KeySession; the rest are convenience scalars readable without
// deserializing the whole record.
const (
	KeySession   = "coverdesk_session"
	KeyAuthToken = "auth_token"
	KeyUserEmail = "user_email"
	KeyUserName  = "user_name"
	KeyUserRole  = "user_role"
	KeyViewMode  = "view_mode"
	KeyTestMode  = "test_mode"
)

var convenienceKeys = []string{KeyAuthToken, KeyUserEmail, KeyUserName, KeyUserRole, KeyViewMode, KeyTestMode}

const (
	// DefaultTTL is how long a session lives from creation or extension.
	DefaultTTL = 24 * time.Hour
	// DefaultRefreshThreshold is the activity staleness beyond which a
	// read stamps LastActivity.
	DefaultRefreshThreshold = 5 * time.Minute
)

// ErrInvalidCredentials is returned by Login when the email/password pair
// does not resolve to an active account. It is an expected outcome, not a
// fault; callers surface it as a failed login, never a 5xx.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is the authenticated state persisted between requests.
type Session struct {
	User         identity.User `json:"user"`
	Token        string        `json:"token"`
	CreatedAt    time.Time     `json:"created_at"`
	ExpiresAt    time.Time     `json:"expires_at"`
	LastActivity time.Time     `json:"last_activity"`
}

// CredentialValidator resolves an email/password pair to a full user with
// its rank assignments, or nil when the pair does not match.
type CredentialValidator interface {
	Validate(ctx context.Context, email, password string) (*identity.User, error)
}

// Store is the session/identity provider. It owns all session state and is
// the only writer to its storage; collaborators (storage, clock, credential
// validator) are injected so tests can run against fakes.
type Store struct {
	storage   Storage
	clock     Clock
	validator CredentialValidator
	catalog   identity.Catalog
	logger    *observability.Logger
	metrics   *Metrics

	ttl              time.Duration
	refreshThreshold time.Duration
}

// SetMetrics attaches lifecycle metrics. A nil receiver-side metrics handle
// is tolerated everywhere, so calling this is optional.
func (s *Store) SetMetrics(m *Metrics) {
	s.metrics = m
}

// Config carries Store construction options. Zero durations fall back to
// the defaults.
type Config struct {
	TTL              time.Duration
	RefreshThreshold time.Duration
}

// NewStore creates a session store over the given collaborators. logger may
// be nil.
func NewStore(storage Storage, clock Clock, validator CredentialValidator, catalog identity.Catalog, logger *observability.Logger, cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.RefreshThreshold <= 0 {
		cfg.RefreshThreshold = DefaultRefreshThreshold
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Store{
		storage:          storage,
		clock:            clock,
		validator:        validator,
		catalog:          catalog,
		logger:           logger,
		ttl:              cfg.TTL,
		refreshThreshold: cfg.RefreshThreshold,
	}
}

// Login validates credentials and establishes a session. Bad credentials and
// inactive accounts return ErrInvalidCredentials; account activity is only
// checked here, never per-request.
func (s *Store) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.validator.Validate(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("credential validation: %w", err)
	}
	if user == nil || !user.IsActive {
		s.logger.WithField("email", email).Info("login rejected")
		s.metrics.observeLogin(false)
		return nil, ErrInvalidCredentials
	}

	token, _, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	sess, err := s.CreateSession(ctx, *user, token)
	if err == nil {
		s.metrics.observeLogin(true)
	}
	return sess, err
}

// CreateSession persists a fresh session for the user under the given
// token, replacing any existing session.
func (s *Store) CreateSession(ctx context.Context, user identity.User, token string) (*Session, error) {
	now := s.clock.Now()
	sess := &Session{
		User:         user,
		Token:        token,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
		LastActivity: now,
	}
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.WithFields(map[string]interface{}{
		"user_id":    user.ID,
		"expires_at": sess.ExpiresAt,
	}).Info("session created")
	return sess, nil
}

// GetSession returns the active session, or nil when there is none. Expiry
// is detected lazily here: a lapsed or malformed session is cleared as a
// side effect and reported as absent. Reads after the refresh threshold
// stamp LastActivity.
func (s *Store) GetSession(ctx context.Context) (*Session, error) {
	raw, ok, err := s.storage.Get(ctx, KeySession)
	if err != nil {
		return nil, fmt.Errorf("session read: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// Corrupt entry: self-heal by clearing it.
		s.logger.WithField("error", err.Error()).Warn("malformed session data, clearing")
		if clearErr := s.Clear(ctx); clearErr != nil {
			return nil, clearErr
		}
		return nil, nil
	}

	now := s.clock.Now()
	if !now.Before(sess.ExpiresAt) {
		if err := s.Clear(ctx); err != nil {
			return nil, err
		}
		s.metrics.observeExpiry()
		return nil, nil
	}

	if now.Sub(sess.LastActivity) > s.refreshThreshold {
		sess.LastActivity = now
		if err := s.persist(ctx, &sess); err != nil {
			return nil, err
		}
	}

	return &sess, nil
}

// ExtendSession resets the expiry to now+TTL. It reports false without
// side effects when no live session exists; a lapsed session is never
// resurrected.
func (s *Store) ExtendSession(ctx context.Context) (bool, error) {
	sess, err := s.GetSession(ctx)
	if err != nil {
		return false, err
	}
	if sess == nil {
		return false, nil
	}

	now := s.clock.Now()
	sess.ExpiresAt = now.Add(s.ttl)
	sess.LastActivity = now
	if err := s.persist(ctx, sess); err != nil {
		return false, err
	}
	s.metrics.observeExtension()
	return true, nil
}

// Logout removes all session state. Calling it without a session is a
// no-op.
func (s *Store) Logout(ctx context.Context) error {
	sess, err := s.GetSession(ctx)
	if err == nil && sess != nil {
		s.logger.WithField("user_id", sess.User.ID).Info("session ended")
	}
	return s.Clear(ctx)
}

// Clear removes the session record and every convenience key.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, KeySession); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	for _, k := range convenienceKeys {
		if err := s.storage.Delete(ctx, k); err != nil {
			return fmt.Errorf("session clear %s: %w", k, err)
		}
	}
	return nil
}

// SetViewState mirrors the simulator's current view and test-mode flags
// into the convenience keys so UI code can read them without deserializing
// the session.
func (s *Store) SetViewState(ctx context.Context, viewMode string, testMode bool) error {
	if err := s.storage.Set(ctx, KeyViewMode, viewMode); err != nil {
		return err
	}
	return s.storage.Set(ctx, KeyTestMode, fmt.Sprintf("%t", testMode))
}

func (s *Store) persist(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := s.storage.Set(ctx, KeySession, string(raw)); err != nil {
		return fmt.Errorf("session write: %w", err)
	}

	role := identity.CoarseRole(s.catalog, sess.User, "")
	scalars := map[string]string{
		KeyAuthToken: sess.Token,
		KeyUserEmail: sess.User.Email,
		KeyUserName:  sess.User.Name,
		KeyUserRole:  string(role),
	}
	for k, v := range scalars {
		if err := s.storage.Set(ctx, k, v); err != nil {
			return fmt.Errorf("session write %s: %w", k, err)
		}
	}
	return nil
}
