// Package session owns the agent session: who is logged in, mirrored to
// durable storage and validated against the profile endpoint.
//
// Every change of session identity (login, logout, forced teardown) bumps a
// generation counter. A profile refresh only commits if the generation it
// started in is still current, so a refresh that loses a race with a logout
// can never re-authenticate the agent.
package session

import (
	"afribook/pkg/errors"
	"afribook/pkg/events"
	"afribook/pkg/logger"
	"afribook/pkg/metrics"
	"afribook/pkg/model"
	"afribook/pkg/storage"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultLoginError = "Login failed. Please check your credentials."
	RejectedLogin     = "Login failed"
)

// ErrStaleRefresh is returned by RefreshUser when the session changed while
// the profile request was in flight. The result was discarded.
var ErrStaleRefresh = stderrors.New("session changed during profile refresh")

// API is the part of the bookings API the session talks to.
type API interface {
	SignIn(ctx context.Context, identifier, password string) (*model.SignInResponse, error)
	Profile(ctx context.Context) (map[string]any, error)
}

type Manager struct {
	api       API
	store     storage.Store
	navigator Navigator
	log       *logger.Logger
	metrics   *metrics.Metrics
	publisher events.Publisher
	ttl       time.Duration
	now       func() time.Time

	// mu guards the fields below and every read-modify-persist sequence.
	// It is never held across a network call to the API.
	mu         sync.Mutex
	user       *model.User
	generation uint64
	loading    bool

	initOnce sync.Once
	initErr  error
}

type Option func(*Manager)

func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

func WithPublisher(p events.Publisher) Option {
	return func(mgr *Manager) { mgr.publisher = p }
}

func WithTTL(ttl time.Duration) Option {
	return func(mgr *Manager) { mgr.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(mgr *Manager) { mgr.now = now }
}

func New(api API, store storage.Store, navigator Navigator, log *logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		api:       api,
		store:     store,
		navigator: navigator,
		log:       log,
		ttl:       storage.DefaultTTL,
		now:       time.Now,
		loading:   true,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.navigator == nil {
		m.navigator = nopNavigator{}
	}
	if m.log == nil {
		m.log = logger.Nop()
	}
	if m.metrics == nil {
		m.metrics = metrics.Nop()
	}
	if m.publisher == nil {
		m.publisher = events.NopPublisher{}
	}
	if m.ttl <= 0 {
		m.ttl = storage.DefaultTTL
	}
	return m
}

// User returns a copy of the signed-in agent, or nil.
func (m *Manager) User() *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user.Clone()
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil
}

// Loading reports whether the session is still undecided: Initialize has
// not finished and no Login or Logout has settled it. A loading session is
// undecided, not unauthenticated.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Initialize restores a persisted session and validates it. Only the first
// call does any work; later calls return the first result.
func (m *Manager) Initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		m.initErr = m.initialize(ctx)

		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	})
	return m.initErr
}

func (m *Manager) initialize(ctx context.Context) error {
	var (
		rawUser string
		hasUser bool
	)
	token, hasToken, err := m.store.Get(ctx, storage.KeyAuthToken)
	if err == nil {
		rawUser, hasUser, err = m.store.Get(ctx, storage.KeyUser)
	}
	if stderrors.Is(err, storage.ErrUnreadable) {
		m.log.Warn("Stored session cannot be read, signing out", "error", errors.CorruptState(err))
		return m.Logout(ctx)
	}
	if err != nil {
		return fmt.Errorf("read stored session: %w", err)
	}

	if !hasToken && !hasUser {
		m.log.Debug("No stored session")
		return nil
	}
	if !hasToken || !hasUser {
		m.log.Warn("Stored session is incomplete, signing out",
			"has_token", hasToken,
			"has_user", hasUser,
		)
		return m.Logout(ctx)
	}

	user, err := model.ParseUser(rawUser)
	if err != nil {
		m.log.Warn("Stored user is corrupt, signing out", "error", errors.CorruptState(err))
		return m.Logout(ctx)
	}

	if m.tokenExpired(token) {
		m.log.Info("Stored token has expired, signing out", "agent_id", user.AgentID())
		return m.Logout(ctx)
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()

	if err := m.RefreshUser(ctx); err != nil {
		// RefreshUser already resolved the session to signed out
		m.log.Info("Stored session could not be validated", "error", err)
	}
	return nil
}

// Login signs the agent in, persists the session, hydrates the profile and
// navigates to booking creation. Every failure is a single *errors.AppError
// carrying a human-readable message, and nothing is persisted for it.
func (m *Manager) Login(ctx context.Context, identifier, password string) error {
	resp, err := m.api.SignIn(ctx, identifier, password)
	if err != nil {
		m.metrics.SessionTransitions.WithLabelValues("login_failed").Inc()
		return errors.LoginRejected(errors.UserMessage(err, DefaultLoginError), err)
	}

	if !resp.Succeeded() {
		m.metrics.SessionTransitions.WithLabelValues("login_failed").Inc()
		message := resp.Message
		if message == "" || message == model.LoginSuccessMessage {
			message = RejectedLogin
		}
		return errors.LoginRejected(message, nil)
	}

	user := model.UserFromFields(resp.Agent).Merge(map[string]any{"accessToken": resp.AccessToken})
	if user.AgentID() == "" {
		m.metrics.SessionTransitions.WithLabelValues("login_failed").Inc()
		return errors.LoginRejected(RejectedLogin, fmt.Errorf("sign-in response has no agent id"))
	}

	encoded, err := json.Marshal(user)
	if err != nil {
		return errors.LoginRejected(DefaultLoginError, err)
	}

	m.mu.Lock()
	if err := storage.SaveSession(ctx, m.store, resp.AccessToken, string(encoded), m.ttl); err != nil {
		m.mu.Unlock()
		m.log.Error("Failed to persist session", "agent_id", user.AgentID(), "error", err)
		return errors.LoginRejected(DefaultLoginError, err)
	}
	m.user = user
	m.generation++
	m.loading = false
	m.mu.Unlock()

	m.metrics.SessionTransitions.WithLabelValues("login").Inc()
	m.log.Info("Agent signed in", "agent_id", user.AgentID())
	m.publish(ctx, events.TypeLogin, user.AgentID(), nil)

	if err := m.RefreshUser(ctx); err != nil {
		return errors.LoginRejected(errors.UserMessage(err, DefaultLoginError), err)
	}

	m.navigator.Navigate(ctx, BookingCreation)
	return nil
}

// RefreshUser merges the remote profile into the current user and persists
// the pair again. Any failure signs the agent out. A refresh that was
// overtaken by another session change is dropped with ErrStaleRefresh.
func (m *Manager) RefreshUser(ctx context.Context) error {
	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()

	profile, err := m.api.Profile(ctx)

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		m.log.Debug("Discarding stale profile refresh", "error", err)
		if err != nil {
			return err
		}
		return ErrStaleRefresh
	}
	if err != nil {
		m.mu.Unlock()
		return m.failRefresh(ctx, err)
	}

	token, ok, err := m.store.Get(ctx, storage.KeyAuthToken)
	if err != nil || !ok {
		m.mu.Unlock()
		if err == nil {
			err = errors.Unauthorized("Session token is missing")
		}
		return m.failRefresh(ctx, err)
	}

	merged := m.user.Merge(profile)
	encoded, err := json.Marshal(merged)
	if err == nil {
		err = storage.SaveSession(ctx, m.store, token, string(encoded), m.ttl)
	}
	if err != nil {
		m.mu.Unlock()
		return m.failRefresh(ctx, err)
	}
	m.user = merged
	m.mu.Unlock()

	m.metrics.SessionTransitions.WithLabelValues("refresh").Inc()
	m.log.Debug("Agent profile refreshed", "agent_id", merged.AgentID())
	return nil
}

func (m *Manager) failRefresh(ctx context.Context, cause error) error {
	agentID := m.User().AgentID()
	m.metrics.SessionTransitions.WithLabelValues("refresh_failed").Inc()
	m.log.Warn("Profile refresh failed, signing out", "agent_id", agentID, "error", cause)
	m.publish(ctx, events.TypeRefreshFailed, agentID, map[string]any{"reason": errors.UserMessage(cause, "unknown")})

	if err := m.Logout(ctx); err != nil {
		return stderrors.Join(cause, err)
	}
	return cause
}

// Logout clears the session everywhere and navigates to sign-in. Calling it
// without a session only navigates.
func (m *Manager) Logout(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	agentID := m.user.AgentID()
	m.user = nil
	m.generation++
	m.loading = false
	err := storage.ClearSession(ctx, m.store)
	m.mu.Unlock()

	if err != nil {
		m.log.Error("Failed to clear stored session", "agent_id", agentID, "error", err)
		err = fmt.Errorf("clear stored session: %w", err)
	}

	m.metrics.SessionTransitions.WithLabelValues("logout").Inc()
	if agentID != "" {
		m.log.Info("Agent signed out", "agent_id", agentID)
		m.publish(ctx, events.TypeLogout, agentID, nil)
	}

	m.navigator.Navigate(ctx, SignIn)
	return err
}

// HandleUnauthorized is the gateway teardown hook. Storage is already
// cleared; the in-memory session follows and the agent is sent to sign-in.
func (m *Manager) HandleUnauthorized(ctx context.Context, status int) {
	m.mu.Lock()
	agentID := m.user.AgentID()
	m.user = nil
	m.generation++
	m.mu.Unlock()

	m.metrics.SessionTransitions.WithLabelValues("forced_logout").Inc()
	m.log.Warn("Session revoked by API", "agent_id", agentID, "status", status)
	if agentID != "" {
		m.publish(ctx, events.TypeForcedLogout, agentID, map[string]any{"status": status})
	}

	m.navigator.Navigate(ctx, SignIn)
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens are left for the API to judge.
func (m *Manager) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(m.now())
}

func (m *Manager) publish(ctx context.Context, eventType, agentID string, payload map[string]any) {
	if agentID == "" {
		return
	}
	if err := m.publisher.Publish(ctx, events.New(eventType, agentID, payload)); err != nil {
		m.log.Warn("Failed to publish session event", "type", eventType, "agent_id", agentID, "error", err)
	}
}
