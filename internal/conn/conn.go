package conn

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vanshika/graphbind/internal/binder"
	"github.com/vanshika/graphbind/internal/cursor"
	"github.com/vanshika/graphbind/internal/graph"
	"github.com/vanshika/graphbind/internal/logging"
	"github.com/vanshika/graphbind/internal/metrics"
)

// Conn binds caller parameters and runs queries through a graph executor.
// Queries issued on one Conn never interleave at the executor; cursors
// returned by earlier calls may stay open while later queries run.
type Conn struct {
	mu       sync.Mutex
	executor graph.Executor
	logger   *slog.Logger
	open     atomic.Int64
}

// Option customizes a Conn.
type Option func(*Conn)

// WithLogger sets the logger used for execution and cursor events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conn) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a Conn over executor.
func New(executor graph.Executor, opts ...Option) *Conn {
	c := &Conn{
		executor: executor,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "conn")
	return c
}

// Execute validates params, runs query and returns a cursor over its rows.
// Binding errors are returned before the engine is contacted; engine errors
// are returned unchanged. The caller must Close the cursor.
func (c *Conn) Execute(ctx context.Context, query string, params []any) (*cursor.Cursor, error) {
	set, err := binder.Bind(params)
	if err != nil {
		metrics.BindFailures.WithLabelValues(bindFailureReason(err)).Inc()
		c.logger.Debug("rejected query parameters", "error", err)
		return nil, err
	}
	return c.ExecuteSet(ctx, query, set)
}

// ExecuteSet runs query with an already bound parameter set.
func (c *Conn) ExecuteSet(ctx context.Context, query string, params binder.ParameterSet) (*cursor.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	result, err := c.executor.Execute(ctx, query, params)
	if err != nil {
		metrics.Executions.WithLabelValues("error").Inc()
		c.logger.Debug("query failed", "error", err, "parameters", params.Len())
		return nil, err
	}

	cur, err := cursor.New(ctx, result,
		cursor.WithLogger(c.logger),
		cursor.OnClose(func() { c.open.Add(-1) }),
	)
	metrics.ExecutionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Executions.WithLabelValues("error").Inc()
		c.logger.Debug("query failed", "error", err, "parameters", params.Len())
		return nil, err
	}

	c.open.Add(1)
	metrics.Executions.WithLabelValues("ok").Inc()
	c.logger.Debug("query executed",
		"cursor_id", cur.ID(),
		"parameters", params.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return cur, nil
}

// Ping checks engine connectivity.
func (c *Conn) Ping(ctx context.Context) error {
	return c.executor.VerifyConnectivity(ctx)
}

// OpenCursors is the number of cursors from this Conn not yet closed.
func (c *Conn) OpenCursors() int {
	return int(c.open.Load())
}

// Close closes the underlying executor. Open cursors should be closed first.
func (c *Conn) Close(ctx context.Context) error {
	if n := c.OpenCursors(); n > 0 {
		c.logger.Warn("closing connection with open cursors", "open_cursors", n)
	}
	return c.executor.Close(ctx)
}

func bindFailureReason(err error) string {
	var (
		shapeErr *binder.ShapeError
		nameErr  *binder.NameTypeError
		valueErr *binder.ValueTypeError
	)
	switch {
	case errors.As(err, &shapeErr):
		return "shape"
	case errors.As(err, &nameErr):
		return "name_type"
	case errors.As(err, &valueErr):
		return "value_type"
	default:
		return "other"
	}
}
