package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"insightminer/adapters/analytics"
	"insightminer/domain/core"
	"insightminer/domain/dataset"
	"insightminer/domain/insight"
	"insightminer/internal"
	"insightminer/internal/explain"
	"insightminer/internal/session"
)

// ExplainService answers explain requests arriving from outside the process.
// Stateless calls carry their dataset; session calls reuse a built engine.
type ExplainService struct {
	sessions *session.Manager
	opts     explain.Options
	build    analytics.BuildOptions
	logger   *internal.Logger
}

// NewExplainService creates an explain service
func NewExplainService(sessions *session.Manager, opts explain.Options, build analytics.BuildOptions, logger *internal.Logger) *ExplainService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ExplainService{
		sessions: sessions,
		opts:     opts,
		build:    build,
		logger:   logger.Named("explain-service"),
	}
}

// Explain builds an engine over the request's dataset and explains its
// current space. It never fails: any error or panic is logged and yields an
// empty response.
func (s *ExplainService) Explain(ctx context.Context, req insight.ExplainRequest) (resp insight.ExplainResponse) {
	reqID := core.NewRequestID()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("request %s panicked: %v\n%s", reqID, r, debug.Stack())
			resp = insight.EmptyResponse()
		}
	}()

	s.logger.Debug("request %s: %d rows, view %v x %v", reqID, len(req.Dataset), req.CurrentSpace.Dimensions, req.CurrentSpace.Measures)

	out, err := s.explain(ctx, req)
	if err != nil {
		s.logger.Error("request %s failed: %v", reqID, err)
		return insight.EmptyResponse()
	}
	s.logger.Debug("request %s: %d explanations in %s", reqID, len(out.Explanations), time.Since(start))
	return out
}

func (s *ExplainService) explain(ctx context.Context, req insight.ExplainRequest) (insight.ExplainResponse, error) {
	engine, err := analytics.Build(ctx, req.Dataset, req.Dimensions, dataset.MeasureKeys(req.Measures), s.build, s.logger)
	if err != nil {
		return insight.EmptyResponse(), fmt.Errorf("build engine: %w", err)
	}
	ex, err := explain.New(engine, s.opts, s.logger)
	if err != nil {
		return insight.EmptyResponse(), err
	}
	return ex.Respond(ctx, explain.QueryFromRequest(req))
}

// CreateSession registers a session over rows with the declared fields
func (s *ExplainService) CreateSession(ctx context.Context, rows []dataset.Row, source string, dimensions []string, measures []string) (session.Info, error) {
	sess, err := s.sessions.Create(ctx, rows, source, dimensions, measures)
	if err != nil {
		return session.Info{}, err
	}
	return sess.Info(), nil
}

// ExplainSession explains the current space of req on a session. The
// request's dataset and field declaration are ignored. Unlike Explain,
// errors are returned so callers can tell a superseded request apart.
func (s *ExplainService) ExplainSession(ctx context.Context, id core.SessionID, req insight.ExplainRequest) (resp insight.ExplainResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session %s explain panicked: %v\n%s", id, r, debug.Stack())
			resp, err = insight.EmptyResponse(), core.NewEngineFaultError("explain", fmt.Errorf("%v", r))
		}
	}()

	resp, err = s.sessions.Explain(ctx, id, explain.QueryFromRequest(req))
	if err != nil && !core.IsSuperseded(err) && !core.IsNotFoundError(err) {
		s.logger.Error("session %s explain failed: %v", id, err)
	}
	return resp, err
}

// Session returns a registered session
func (s *ExplainService) Session(id core.SessionID) (*session.Session, error) {
	return s.sessions.Get(id)
}

// Sessions lists every registered session
func (s *ExplainService) Sessions() []session.Info {
	return s.sessions.List()
}

// CloseSession discards a session
func (s *ExplainService) CloseSession(id core.SessionID) error {
	return s.sessions.Close(id)
}
