package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vanshika/graphbind/internal/binder"
	"github.com/vanshika/graphbind/internal/config"
	"github.com/vanshika/graphbind/internal/conn"
	"github.com/vanshika/graphbind/internal/graph"
	"github.com/vanshika/graphbind/internal/logging"
)

var errMissingQuery = errors.New("a query is required (-q or -file)")

func main() {
	var (
		queryText  = flag.String("q", "", "Query template with $name placeholders")
		queryFile  = flag.String("file", "", "Read the query template from a file")
		paramsJSON = flag.String("params", "", `Parameters as JSON, e.g. [["AGE", 1], ["D", {"$date": "1900-01-01"}]]`)
		paramsFile = flag.String("params-file", "", "Read parameters JSON from a file")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewWithWriter(cfg.Logging, os.Stderr).With("component", "query")

	query, err := resolveText(*queryText, *queryFile)
	if err != nil {
		logger.Error("query resolution failed", "error", err)
		os.Exit(1)
	}
	if strings.TrimSpace(query) == "" {
		logger.Error("query resolution failed", "error", errMissingQuery)
		os.Exit(2)
	}

	rawParams, err := resolveText(*paramsJSON, *paramsFile)
	if err != nil {
		logger.Error("failed to read parameters", "error", err)
		os.Exit(1)
	}
	params, err := binder.DecodeJSON([]byte(rawParams))
	if err != nil {
		logger.Error("failed to decode parameters", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if cfg.Query.Timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, cfg.Query.Timeout)
		defer timeoutCancel()
	}

	if cfg.Graph.URI == "" {
		logger.Error("GRAPH_URI is required", "error", graph.ErrMissingURI)
		os.Exit(1)
	}
	executor, err := graph.NewNeo4jExecutor(ctx, graph.OptionsFromConfig(cfg.Graph))
	if err != nil {
		logger.Error("failed to create graph executor", "error", err)
		os.Exit(1)
	}

	c := conn.New(executor, conn.WithLogger(logger))
	start := time.Now()
	count, err := run(ctx, c, query, params, os.Stdout)
	if cerr := c.Close(context.Background()); cerr != nil {
		logger.Warn("closing graph executor failed", "error", cerr)
	}
	if err != nil {
		logger.Error("query failed", "error", err)
		os.Exit(1)
	}
	logger.Info("query complete", "rows", count, "duration", time.Since(start).String())
}

// run executes one query and writes every row as a JSON line.
func run(ctx context.Context, c *conn.Conn, query string, params []any, out io.Writer) (int, error) {
	cur, err := c.Execute(ctx, query, params)
	if err != nil {
		return 0, err
	}
	defer cur.Close()

	enc := json.NewEncoder(out)
	for {
		ok, err := cur.HasNext()
		if err != nil {
			return cur.Position(), err
		}
		if !ok {
			return cur.Position(), nil
		}
		row, err := cur.Next()
		if err != nil {
			return cur.Position(), err
		}
		if err := enc.Encode(row); err != nil {
			return cur.Position(), fmt.Errorf("write row: %w", err)
		}
	}
}

func resolveText(inline, path string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
