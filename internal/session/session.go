// Package session owns analysis sessions: one dataset and field declaration
// with a built engine, serving explain requests until closed.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"insightminer/adapters/analytics"
	"insightminer/domain/core"
	"insightminer/domain/dataset"
	"insightminer/domain/insight"
	"insightminer/internal"
	"insightminer/internal/explain"
	"insightminer/ports"
)

// State is a session's lifecycle position.
type State string

const (
	StateNew      State = "new"
	StateDeclared State = "declared"
	StateReady    State = "ready"
	StateClosed   State = "closed"
)

// responder answers one explain query against a built engine.
type responder interface {
	Respond(ctx context.Context, q explain.Query) (insight.ExplainResponse, error)
}

// Session is a caller-owned analysis session. Its lifecycle runs
// New -> Declare -> Prepare -> Explain* -> Close. Explain calls share the
// read lock; Declare and Prepare take the write lock.
type Session struct {
	ID        core.SessionID
	CreatedAt time.Time
	Source    string

	mu         sync.RWMutex
	state      State
	rows       []dataset.Row
	dimensions []string
	measures   []string
	engine     ports.AnalyticsBuilder
	explainer  responder
	opts       explain.Options
	build      analytics.BuildOptions
	logger     *internal.Logger

	// request scheduling, guarded by reqMu
	reqMu      sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	last       *insight.ExplainResponse
	lastAt     time.Time
}

// New creates a session over rows. The rows are not copied until Prepare.
func New(rows []dataset.Row, source string, opts explain.Options, build analytics.BuildOptions, logger *internal.Logger) *Session {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	id := core.NewSessionID()
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		Source:    source,
		state:     StateNew,
		rows:      rows,
		opts:      opts,
		build:     build,
		logger:    logger.Named("session"),
	}
}

// Declare sets the dimension and measure fields. A ready session must be
// prepared again.
func (s *Session) Declare(dimensions, measures []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return fmt.Errorf("session %s is closed", s.ID)
	}
	if len(dimensions) == 0 && len(measures) == 0 {
		return fmt.Errorf("%w: declare at least one dimension or measure", core.ErrEmptyInput)
	}
	s.dimensions = append([]string(nil), dimensions...)
	s.measures = append([]string(nil), measures...)
	s.engine = nil
	s.explainer = nil
	s.state = StateDeclared
	return nil
}

// Prepare builds the correlation graph, clusters, subspaces and cube.
func (s *Session) Prepare(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDeclared && s.state != StateReady {
		return fmt.Errorf("session %s cannot be prepared in state %s", s.ID, s.state)
	}

	start := time.Now()
	engine, err := analytics.Build(ctx, s.rows, s.dimensions, s.measures, s.build, s.logger)
	if err != nil {
		return err
	}
	ex, err := explain.New(engine, s.opts, s.logger)
	if err != nil {
		return err
	}
	s.engine = engine
	s.explainer = ex
	s.state = StateReady
	s.logger.Info("session %s prepared: %d rows, %d dimensions, %d measures in %s",
		s.ID, len(s.rows), len(s.dimensions), len(s.measures), time.Since(start))
	return nil
}

// Redeclare changes the field declaration and rebuilds the engine.
func (s *Session) Redeclare(ctx context.Context, dimensions, measures []string) error {
	if err := s.Declare(dimensions, measures); err != nil {
		return err
	}
	return s.Prepare(ctx)
}

// State returns the lifecycle state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Fields returns the field summary of the built engine
func (s *Session) Fields() ([]dataset.Field, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.engine == nil {
		return nil, fmt.Errorf("session %s: %w", s.ID, core.ErrGraphUnavailable)
	}
	return s.engine.Fields(), nil
}

// Subspaces returns the enumerated view combinations of the built engine
func (s *Session) Subspaces() []ports.Subspace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.engine == nil {
		return nil
	}
	return s.engine.Subspaces()
}

// Clusters recomputes the field clusters at threshold
func (s *Session) Clusters(threshold float64) ([]ports.FieldCluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return nil, fmt.Errorf("session %s: %w", s.ID, core.ErrGraphUnavailable)
	}
	return s.engine.ClusterFields(threshold)
}

// run executes one explain on the caller's goroutine under the read lock
func (s *Session) run(ctx context.Context, q explain.Query) (insight.ExplainResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateReady || s.explainer == nil {
		return insight.EmptyResponse(), fmt.Errorf("session %s is %s: %w", s.ID, s.state, core.ErrCubeUnavailable)
	}
	return s.explainer.Respond(ctx, q)
}

// begin starts a new request generation and cancels the previous one
func (s *Session) begin(parent context.Context) (context.Context, uint64) {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.generation++
	s.cancel = cancel
	return ctx, s.generation
}

// finish surfaces resp if gen is still the latest generation
func (s *Session) finish(gen uint64, resp insight.ExplainResponse) bool {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()
	if gen != s.generation {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.last = &resp
	s.lastAt = time.Now()
	return true
}

func (s *Session) isLatest(gen uint64) bool {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()
	return gen == s.generation
}

// Last returns the most recently surfaced response, if any
func (s *Session) Last() (insight.ExplainResponse, time.Time, bool) {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()
	if s.last == nil {
		return insight.ExplainResponse{}, time.Time{}, false
	}
	return *s.last, s.lastAt, true
}

// close cancels any in-flight request and releases the engine
func (s *Session) close() {
	s.reqMu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.reqMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
	s.engine = nil
	s.explainer = nil
	s.rows = nil
}

// Info is a summary for listings
type Info struct {
	ID         string    `json:"id"`
	State      State     `json:"state"`
	Source     string    `json:"source"`
	Rows       int       `json:"rows"`
	Dimensions []string  `json:"dimensions"`
	Measures   []string  `json:"measures"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Info returns a summary of the session
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{
		ID:         s.ID.String(),
		State:      s.state,
		Source:     s.Source,
		Rows:       len(s.rows),
		Dimensions: append([]string{}, s.dimensions...),
		Measures:   append([]string{}, s.measures...),
		CreatedAt:  s.CreatedAt,
	}
}
