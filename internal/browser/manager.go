// File: internal/browser/manager.go

// Package browser holds the session registry: one singleton browser session
// per caller identity, created on demand and torn down as a group.
package browser

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/browser/session"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
	"github.com/xkilldash9x/webpilot-cli/internal/observability"
)

// sessionKeyPrefix and defaultIdentity fix the registry key scheme: the key
// for identity "u1" is "browser_u1", an absent identity maps to
// "browser_default".
const (
	sessionKeyPrefix = "browser_"
	defaultIdentity  = "default"
)

// DriverFactory spawns one fresh driver handle. Injected so tests run the
// registry against mocks.
type DriverFactory func(ctx context.Context) (schemas.Driver, error)

// Manager is the session registry. Creation for the same key is deduplicated
// through the singleflight group, so two concurrent starts for one identity
// share a single browser launch.
type Manager struct {
	cfg       *config.Config
	newDriver DriverFactory
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session.Session
	group    singleflight.Group
}

// NewManager builds a registry spawning drivers via factory.
func NewManager(cfg *config.Config, factory DriverFactory) *Manager {
	return &Manager{
		cfg:       cfg,
		newDriver: factory,
		logger:    observability.GetLogger().Named("manager"),
		sessions:  make(map[string]*session.Session),
	}
}

// SessionKey derives the registry key for a caller identity.
func SessionKey(identity string) string {
	if identity == "" {
		identity = defaultIdentity
	}
	return sessionKeyPrefix + identity
}

// GetOrCreate returns the session for identity, creating it first if none
// exists. A failed creation leaves no registry entry.
func (m *Manager) GetOrCreate(ctx context.Context, identity string) (*session.Session, error) {
	key := SessionKey(identity)

	m.mu.Lock()
	if s, ok := m.sessions[key]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(key, func() (any, error) {
		// Re-check under the lock: a concurrent Do for this key may have
		// finished between the fast path and here.
		m.mu.Lock()
		if s, ok := m.sessions[key]; ok {
			m.mu.Unlock()
			return s, nil
		}
		m.mu.Unlock()

		// The browser must outlive the call that created it; sessions end on
		// an explicit stop or process exit, not when the creating request's
		// context is cancelled.
		drv, err := m.newDriver(context.WithoutCancel(ctx))
		if err != nil {
			return nil, fmt.Errorf("spawning browser for %s: %w", key, err)
		}
		s := session.New(key, drv, m.cfg.Scan)

		m.mu.Lock()
		m.sessions[key] = s
		m.mu.Unlock()

		m.logger.Info("session created", zap.String("session_key", key))
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*session.Session), nil
}

// Lookup returns the live session for identity without creating one.
func (m *Manager) Lookup(identity string) (*session.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[SessionKey(identity)]
	return s, ok
}

// Start creates the session for identity if needed. Starting an already
// running session succeeds with an explicit message.
func (m *Manager) Start(ctx context.Context, identity string) schemas.ActionResult {
	key := SessionKey(identity)

	m.mu.Lock()
	_, running := m.sessions[key]
	m.mu.Unlock()
	if running {
		return schemas.OK("browser session %s already running", key)
	}

	if _, err := m.GetOrCreate(ctx, identity); err != nil {
		return schemas.Errorf("failed to start browser session %s: %v", key, err)
	}
	return schemas.OK("browser session %s started", key)
}

// Stop closes and removes the session for identity. Stopping an absent
// session is a successful no-op.
func (m *Manager) Stop(ctx context.Context, identity string) schemas.ActionResult {
	key := SessionKey(identity)

	m.mu.Lock()
	s, ok := m.sessions[key]
	if ok {
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	if !ok {
		return schemas.OK("no browser session %s to stop", key)
	}
	if err := s.Close(); err != nil {
		// The entry is already gone; the handle is at worst leaked until the
		// process exits.
		m.logger.Warn("session close reported error", zap.String("session_key", key), zap.Error(err))
		return schemas.Errorf("browser session %s stopped with error: %v", key, err)
	}
	m.logger.Info("session stopped", zap.String("session_key", key))
	return schemas.OK("browser session %s stopped", key)
}

// List returns metadata for every live session, ordered by key.
func (m *Manager) List(ctx context.Context) []schemas.SessionInfo {
	m.mu.Lock()
	sessions := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	infos := make([]schemas.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info(ctx))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}

// CloseAll tears down every session concurrently and empties the registry.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*session.Session)
	m.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, s := range sessions {
		g.Go(func() error {
			if err := s.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", s.Key(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	m.logger.Info("all sessions closed", zap.Int("count", len(sessions)))
	return nil
}
