package session

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"insightminer/adapters/analytics"
	"insightminer/domain/core"
	"insightminer/domain/dataset"
	"insightminer/domain/insight"
	"insightminer/internal"
	"insightminer/internal/explain"
)

// ManagerConfig sizes the manager.
type ManagerConfig struct {
	// Workers bounds explain calls running at once across all sessions.
	Workers int
	Explain explain.Options
	Build   analytics.BuildOptions
}

// Manager owns sessions and schedules their explain requests. For each
// session only the latest request surfaces a result; an older one still
// running is canceled and reports core.ErrSuperseded.
type Manager struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*Session
	sem      *semaphore.Weighted
	cfg      ManagerConfig
	logger   *internal.Logger
}

// NewManager creates a manager
func NewManager(cfg ManagerConfig, logger *internal.Logger) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Manager{
		sessions: make(map[core.SessionID]*Session),
		sem:      semaphore.NewWeighted(int64(cfg.Workers)),
		cfg:      cfg,
		logger:   logger.Named("sessions"),
	}
}

// Create runs the full lifecycle up to ready and registers the session.
func (m *Manager) Create(ctx context.Context, rows []dataset.Row, source string, dimensions, measures []string) (*Session, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: dataset has no rows", core.ErrEmptyInput)
	}
	s := New(rows, source, m.cfg.Explain, m.cfg.Build, m.logger)
	if err := s.Declare(dimensions, measures); err != nil {
		return nil, err
	}
	if err := s.Prepare(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.logger.Debug("session %s registered", s.ID)
	return s, nil
}

// Get returns a registered session
func (m *Manager) Get(id core.SessionID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	return s, nil
}

// List returns summaries of every session, oldest first
func (m *Manager) List() []Info {
	m.mu.RLock()
	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	m.mu.RUnlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.Before(infos[j].CreatedAt) })
	return infos
}

// Close discards a session, canceling its in-flight request
func (m *Manager) Close(id core.SessionID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	s.close()
	m.logger.Debug("session %s closed", id)
	return nil
}

// CloseAll discards every session
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[core.SessionID]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}

type outcome struct {
	resp insight.ExplainResponse
	err  error
}

// Explain schedules q on the session. A newer Explain on the same session
// cancels this one, which then returns core.ErrSuperseded and no result. A
// panic while answering is returned as an engine fault.
func (m *Manager) Explain(ctx context.Context, id core.SessionID, q explain.Query) (insight.ExplainResponse, error) {
	s, err := m.Get(id)
	if err != nil {
		return insight.EmptyResponse(), err
	}

	runCtx, gen := s.begin(ctx)
	if err := m.sem.Acquire(runCtx, 1); err != nil {
		if !s.isLatest(gen) {
			return insight.EmptyResponse(), core.ErrSuperseded
		}
		return insight.EmptyResponse(), err
	}

	done := make(chan outcome, 1)
	go func() {
		defer m.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("session %s request %d panicked: %v\n%s", id, gen, r, debug.Stack())
				done <- outcome{resp: insight.EmptyResponse(), err: core.NewEngineFaultError("explain", fmt.Errorf("%v", r))}
			}
		}()
		resp, err := s.run(runCtx, q)
		done <- outcome{resp: resp, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-runCtx.Done():
		if !s.isLatest(gen) {
			m.logger.Debug("session %s request %d superseded", id, gen)
			return insight.EmptyResponse(), core.ErrSuperseded
		}
		return insight.EmptyResponse(), runCtx.Err()
	}

	if !s.isLatest(gen) {
		m.logger.Debug("session %s request %d finished after being superseded", id, gen)
		return insight.EmptyResponse(), core.ErrSuperseded
	}
	if out.err != nil {
		return insight.EmptyResponse(), out.err
	}
	if !s.finish(gen, out.resp) {
		return insight.EmptyResponse(), core.ErrSuperseded
	}
	return out.resp, nil
}
