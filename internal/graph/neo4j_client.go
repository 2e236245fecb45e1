package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/vanshika/graphbind/internal/binder"
	"github.com/vanshika/graphbind/internal/value"
)

// NewNeo4jExecutor establishes a Bolt connection using the official Neo4j driver.
// Any Bolt-speaking engine (Neo4j, Memgraph, Neptune openCypher) works.
func NewNeo4jExecutor(ctx context.Context, opts Options) (Executor, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(c *neo4j.Config) {
		if opts.MaxConnections > 0 {
			c.MaxConnectionPoolSize = opts.MaxConnections
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	mode := neo4j.AccessModeWrite
	if opts.AccessMode == AccessModeRead {
		mode = neo4j.AccessModeRead
	}

	return &neo4jExecutor{
		driver:   driver,
		database: opts.Database,
		mode:     mode,
	}, nil
}

type neo4jExecutor struct {
	driver   neo4j.DriverWithContext
	database string
	mode     neo4j.AccessMode
}

// Execute opens a session that stays alive until the returned result is closed.
func (c *neo4jExecutor) Execute(ctx context.Context, query string, params binder.ParameterSet) (QueryResult, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   c.mode,
	})

	res, err := session.Run(ctx, query, DriverParams(params))
	if err != nil {
		_ = session.Close(ctx)
		return nil, err
	}

	return &neo4jResult{session: session, result: res}, nil
}

func (c *neo4jExecutor) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *neo4jExecutor) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

type neo4jResult struct {
	session neo4j.SessionWithContext
	result  neo4j.ResultWithContext
	row     Row
}

func (r *neo4jResult) Next(ctx context.Context) bool {
	if !r.result.Next(ctx) {
		r.row = nil
		return false
	}
	rec := r.result.Record()
	row := make(Row, len(rec.Values))
	for i, v := range rec.Values {
		row[i] = fromDriver(v)
	}
	r.row = row
	return true
}

func (r *neo4jResult) Row() Row { return r.row }

func (r *neo4jResult) Err() error { return r.result.Err() }

func (r *neo4jResult) Close(ctx context.Context) error {
	_, consumeErr := r.result.Consume(ctx)
	return errors.Join(consumeErr, r.session.Close(ctx))
}

// DriverParams converts a parameter set into the driver's parameter map.
// For duplicate names the first occurrence wins.
func DriverParams(params binder.ParameterSet) map[string]any {
	out := make(map[string]any, len(params))
	for _, p := range params {
		if _, ok := out[p.Name]; ok {
			continue
		}
		out[p.Name] = toDriver(p.Value)
	}
	return out
}

func toDriver(v value.Value) any {
	switch v.Kind() {
	case value.KindDate:
		d, _ := v.AsDate()
		return neo4j.Date(d.Time())
	case value.KindTimestamp:
		t, _ := v.AsTime()
		return neo4j.LocalDateTime(t)
	default:
		return v.Native()
	}
}

func fromDriver(v any) any {
	switch x := v.(type) {
	case neo4j.Date:
		return value.DateFromTime(x.Time())
	case neo4j.LocalDateTime:
		return x.Time()
	default:
		return v
	}
}
