package graph

import (
	"context"
	"strings"
	"sync"

	"github.com/tidwall/btree"

	"github.com/vanshika/graphbind/internal/binder"
)

// Handler computes the rows for one query template from its bound parameters.
type Handler func(params binder.ParameterSet) ([]Row, error)

// MemoryExecutor is an in-process implementation of the Executor interface used
// for unit testing and dry runs without a running graph database. Queries are
// matched by template with whitespace collapsed.
type MemoryExecutor struct {
	mu           sync.Mutex
	handlers     *btree.Map[string, Handler]
	calls        []ExecutedQuery
	err          error
	closeErr     error
	connectivity error
	open         int
	released     int
}

// ExecutedQuery captures a query template and parameters executed against the graph.
type ExecutedQuery struct {
	Query  string
	Params binder.ParameterSet
}

// NewMemoryExecutor instantiates an executor with no registered queries.
func NewMemoryExecutor() *MemoryExecutor {
	return &MemoryExecutor{handlers: btree.NewMap[string, Handler](0)}
}

// Handle registers fn for the given query template.
func (m *MemoryExecutor) Handle(query string, fn Handler) *MemoryExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers.Set(normalizeQuery(query), fn)
	return m
}

// HandleRows registers a template that always yields rows.
func (m *MemoryExecutor) HandleRows(query string, rows ...Row) *MemoryExecutor {
	return m.Handle(query, func(binder.ParameterSet) ([]Row, error) {
		return rows, nil
	})
}

// WithError configures the executor to return the provided error for subsequent calls.
func (m *MemoryExecutor) WithError(err error) *MemoryExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithCloseError makes every result fail on release with err.
func (m *MemoryExecutor) WithCloseError(err error) *MemoryExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeErr = err
	return m
}

// WithConnectivityError forces VerifyConnectivity to return the supplied error.
func (m *MemoryExecutor) WithConnectivityError(err error) *MemoryExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

func (m *MemoryExecutor) Execute(_ context.Context, query string, params binder.ParameterSet) (QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	m.calls = append(m.calls, ExecutedQuery{
		Query:  query,
		Params: append(binder.ParameterSet(nil), params...),
	})

	fn, ok := m.handlers.Get(normalizeQuery(query))
	if !ok {
		return nil, ErrUnknownQuery
	}
	if err := CheckParameters(query, params); err != nil {
		return nil, err
	}

	rows, err := fn(params)
	if err != nil {
		return nil, err
	}

	m.open++
	return &memoryResult{owner: m, rows: rows, closeErr: m.closeErr}, nil
}

func (m *MemoryExecutor) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryExecutor) Close(context.Context) error {
	return nil
}

// Calls returns a snapshot of executed queries.
func (m *MemoryExecutor) Calls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.calls...)
}

// Queries lists registered templates in sorted order.
func (m *MemoryExecutor) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	m.handlers.Scan(func(key string, _ Handler) bool {
		out = append(out, key)
		return true
	})
	return out
}

// OpenResults reports results handed out and not yet released.
func (m *MemoryExecutor) OpenResults() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Released reports how many results have been closed.
func (m *MemoryExecutor) Released() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

func (m *MemoryExecutor) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open--
	m.released++
}

type memoryResult struct {
	owner    *MemoryExecutor
	rows     []Row
	pos      int
	current  Row
	closed   bool
	closeErr error
}

func (r *memoryResult) Next(context.Context) bool {
	if r.closed || r.pos >= len(r.rows) {
		r.current = nil
		return false
	}
	r.current = r.rows[r.pos]
	r.pos++
	return true
}

func (r *memoryResult) Row() Row { return r.current }

func (r *memoryResult) Err() error { return nil }

func (r *memoryResult) Close(context.Context) error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.owner.release()
	return r.closeErr
}

func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
