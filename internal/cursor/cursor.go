package cursor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vanshika/graphbind/internal/graph"
	"github.com/vanshika/graphbind/internal/logging"
	"github.com/vanshika/graphbind/internal/metrics"
)

var (
	// ErrClosed is returned by any cursor operation after Close.
	ErrClosed = errors.New("cursor is closed")
	// ErrExhausted is returned by Next when no rows remain.
	ErrExhausted = errors.New("no more rows in cursor")
)

// State is the cursor lifecycle state.
type State int

const (
	StateHasMore State = iota
	StateExhausted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateHasMore:
		return "open-has-more"
	case StateExhausted:
		return "open-exhausted"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Cursor is a forward-only, single-pass view over a query result. It owns the
// result and is the only thing that releases it. A Cursor is not safe for
// concurrent use.
type Cursor struct {
	ctx      context.Context
	id       string
	result   graph.QueryResult
	logger   *slog.Logger
	onClose  func()
	state    State
	next     graph.Row
	err      error
	position int
}

// Option customizes a Cursor.
type Option func(*Cursor)

// WithLogger attaches a logger; the default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cursor) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// OnClose registers fn to run once after the result has been released.
func OnClose(fn func()) Option {
	return func(c *Cursor) { c.onClose = fn }
}

// New wraps result, reading one row ahead to decide the initial state. If the
// engine fails before the first row, the result is released and the engine
// error is returned as is.
func New(ctx context.Context, result graph.QueryResult, opts ...Option) (*Cursor, error) {
	c := &Cursor{
		ctx:    ctx,
		id:     uuid.NewString(),
		result: result,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("cursor_id", c.id)

	c.advance()
	if c.err != nil {
		if cerr := result.Close(ctx); cerr != nil {
			c.logger.Warn("releasing query result failed", "error", cerr)
		}
		return nil, c.err
	}

	metrics.OpenCursors.Inc()
	c.logger.Debug("cursor opened", "state", c.state.String())
	return c, nil
}

// ID identifies the cursor in logs.
func (c *Cursor) ID() string { return c.id }

func (c *Cursor) State() State { return c.state }

// Position is the number of rows returned so far.
func (c *Cursor) Position() int { return c.position }

// HasNext reports whether Next will return a row. It does not move the cursor.
// A streaming engine error is reported here with false.
func (c *Cursor) HasNext() (bool, error) {
	if c.state == StateClosed {
		return false, ErrClosed
	}
	if c.err != nil {
		return false, c.err
	}
	return c.state == StateHasMore, nil
}

// Next returns the next row and advances by one.
func (c *Cursor) Next() (graph.Row, error) {
	switch {
	case c.state == StateClosed:
		return nil, ErrClosed
	case c.err != nil:
		return nil, c.err
	case c.state == StateExhausted:
		return nil, ErrExhausted
	}

	row := c.next
	c.position++
	metrics.RowsFetched.Inc()
	c.advance()
	return row, nil
}

// Collect drains the remaining rows.
func (c *Cursor) Collect() ([]graph.Row, error) {
	var rows []graph.Row
	for {
		ok, err := c.HasNext()
		if err != nil {
			return rows, err
		}
		if !ok {
			return rows, nil
		}
		row, err := c.Next()
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}

// Close releases the underlying result. Calling it again is a no-op. Release
// failures are logged, never returned.
func (c *Cursor) Close() error {
	if c.state == StateClosed {
		return nil
	}
	c.release()
	metrics.OpenCursors.Dec()
	c.logger.Debug("cursor closed", "rows", c.position)
	return nil
}

func (c *Cursor) advance() {
	if c.result.Next(c.ctx) {
		c.next = c.result.Row()
		c.state = StateHasMore
		return
	}
	c.next = nil
	c.state = StateExhausted
	c.err = c.result.Err()
}

func (c *Cursor) release() {
	c.state = StateClosed
	c.next = nil
	if err := c.result.Close(c.ctx); err != nil {
		c.logger.Warn("releasing query result failed", "error", err)
	}
	if c.onClose != nil {
		c.onClose()
	}
}
