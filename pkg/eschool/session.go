package eschool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/reschool/eschool-gateway/pkg/domain"
)

// UpstreamClient is the set of upstream calls the session manager performs.
type UpstreamClient interface {
	Login(ctx context.Context, username, password string) (*domain.UpstreamSession, error)
	State(ctx context.Context, session *domain.UpstreamSession) (*domain.UpstreamState, error)
	Threads(ctx context.Context, session *domain.UpstreamSession) ([]domain.ThreadSummary, error)
	ThreadMessages(ctx context.Context, session *domain.UpstreamSession, threadID int64) ([]domain.ThreadMessage, error)
}

// SessionStore persists the serialized session across restarts.
type SessionStore interface {
	Save(ctx context.Context, blob []byte) error
	Load(ctx context.Context) ([]byte, error)
}

// Manager owns the single process-wide upstream session. Readers get an
// atomic snapshot; re-login replaces the session wholesale. Concurrent
// callers that hit an expired session share one re-login round trip.
type Manager struct {
	client   UpstreamClient
	store    SessionStore
	logger   *slog.Logger
	username string
	password string

	mu      sync.RWMutex
	session *domain.UpstreamSession // nil while unauthenticated

	relogin singleflight.Group
}

// NewManager creates a session manager for the configured upstream account.
func NewManager(client UpstreamClient, store SessionStore, username, password string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		client:   client,
		store:    store,
		logger:   logger,
		username: username,
		password: password,
	}
}

// Current returns the live session snapshot, or ErrNotAuthenticated when no
// login has succeeded yet.
func (m *Manager) Current() (*domain.UpstreamSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return m.session, nil
}

// PersonID returns the identity the server is authenticated as.
func (m *Manager) PersonID() (int64, error) {
	s, err := m.Current()
	if err != nil {
		return 0, err
	}
	return s.PersonID, nil
}

func (m *Manager) replace(s *domain.UpstreamSession) {
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
}

// Initialize establishes the session at startup: a persisted session is
// revalidated against /state, and a fresh login is attempted when that
// fails. A failed fresh login leaves the manager unauthenticated; dependent
// operations fail fast until an operator intervenes.
func (m *Manager) Initialize(ctx context.Context) error {
	if restored := m.restore(ctx); restored {
		return nil
	}
	return m.login(ctx)
}

// restore tries to bring back the session persisted by the previous run.
func (m *Manager) restore(ctx context.Context) bool {
	blob, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotPersisted) {
			m.logger.Warn("loading persisted session failed", "error", err)
		}
		return false
	}

	var session domain.UpstreamSession
	if err := json.Unmarshal(blob, &session); err != nil {
		m.logger.Warn("persisted session is corrupt, discarding", "error", err)
		return false
	}

	state, err := m.client.State(ctx, &session)
	if err != nil {
		m.logger.Info("persisted session expired, falling back to fresh login")
		return false
	}

	session.PersonID = state.User.PersonID
	m.replace(&session)
	m.logger.Info("upstream session restored",
		"person_id", state.User.PersonID,
		"first_name", state.Profile.FirstName,
	)
	return true
}

// login performs a fresh upstream login and persists the new session.
func (m *Manager) login(ctx context.Context) error {
	session, err := m.client.Login(ctx, m.username, m.password)
	if err != nil {
		m.replace(nil)
		return fmt.Errorf("upstream login: %w", err)
	}

	state, err := m.client.State(ctx, session)
	if err != nil {
		m.replace(nil)
		return fmt.Errorf("validating fresh session: %w", err)
	}
	session.PersonID = state.User.PersonID

	m.replace(session)

	if blob, err := json.Marshal(session); err == nil {
		if err := m.store.Save(ctx, blob); err != nil {
			m.logger.Warn("persisting session failed", "error", err)
		}
	}

	m.logger.Info("authenticated against upstream",
		"person_id", session.PersonID,
		"first_name", state.Profile.FirstName,
	)
	return nil
}

// Relogin re-authenticates after the upstream rejected the session.
// Concurrent callers are coalesced behind one in-flight login: the first
// performs the round trip, the rest wait on its result.
func (m *Manager) Relogin(ctx context.Context) error {
	_, err, _ := m.relogin.Do("relogin", func() (any, error) {
		return nil, m.login(ctx)
	})
	return err
}

// Threads lists the most recent conversation threads, transparently
// re-authenticating once when the session has expired mid-request.
func (m *Manager) Threads(ctx context.Context) ([]domain.ThreadSummary, error) {
	return fetchWithRelogin(ctx, m, func(s *domain.UpstreamSession) ([]domain.ThreadSummary, error) {
		return m.client.Threads(ctx, s)
	})
}

// ThreadMessages fetches one thread's messages with the same single-retry
// re-authentication as Threads.
func (m *Manager) ThreadMessages(ctx context.Context, threadID int64) ([]domain.ThreadMessage, error) {
	return fetchWithRelogin(ctx, m, func(s *domain.UpstreamSession) ([]domain.ThreadMessage, error) {
		return m.client.ThreadMessages(ctx, s, threadID)
	})
}

// fetchWithRelogin runs an authenticated call and retries it exactly once
// after a re-login when the upstream answered 401. Any further failure is
// reported upward; there are no unbounded retries against the upstream.
func fetchWithRelogin[T any](ctx context.Context, m *Manager, fn func(*domain.UpstreamSession) (T, error)) (T, error) {
	var zero T

	session, err := m.Current()
	if err != nil {
		return zero, err
	}

	out, err := fn(session)
	if !errors.Is(err, domain.ErrUpstreamUnauthorized) {
		return out, err
	}

	m.logger.Info("upstream session expired mid-request, re-authenticating")
	if err := m.Relogin(ctx); err != nil {
		return zero, err
	}

	session, err = m.Current()
	if err != nil {
		return zero, err
	}
	return fn(session)
}
