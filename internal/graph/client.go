package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vanshika/graphbind/internal/binder"
	"github.com/vanshika/graphbind/internal/config"
)

// Executor runs a query template against the graph engine with a bound
// parameter set. Errors it returns are engine errors and are surfaced to
// callers unchanged.
type Executor interface {
	Execute(ctx context.Context, query string, params binder.ParameterSet) (QueryResult, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// QueryResult is an engine-owned row stream. It must be closed to release
// engine-side resources such as sessions and open iterators.
type QueryResult interface {
	Next(ctx context.Context) bool
	Row() Row
	Err() error
	Close(ctx context.Context) error
}

// Row holds column values in projection order.
type Row []any

// Options configures a graph executor implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	AccessMode     AccessMode
}

// AccessMode selects the session mode used for queries.
type AccessMode string

const (
	AccessModeWrite AccessMode = "write"
	AccessModeRead  AccessMode = "read"
)

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")

// ErrUnknownQuery is returned by the memory executor for templates it has no
// handler for.
var ErrUnknownQuery = errors.New("no handler registered for query")

// UnknownParameterError reports a placeholder with no bound parameter.
type UnknownParameterError struct {
	Name string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("Parameter %s not found.", e.Name)
}

// OptionsFromConfig maps the graph section of the application config.
func OptionsFromConfig(cfg config.GraphConfig) Options {
	return Options{
		URI:            cfg.URI,
		Database:       cfg.Database,
		Username:       cfg.Username,
		Password:       cfg.Password,
		MaxConnections: cfg.MaxConnections,
		AccessMode:     AccessMode(strings.ToLower(cfg.AccessMode)),
	}
}
