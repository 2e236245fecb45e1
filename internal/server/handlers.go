package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vanshika/graphbind/internal/binder"
	"github.com/vanshika/graphbind/internal/cursor"
	"github.com/vanshika/graphbind/internal/graph"
)

const maxRequestBytes = 1 << 20

// QueryRunner is the execute surface the HTTP API depends on.
type QueryRunner interface {
	Execute(ctx context.Context, query string, params []any) (*cursor.Cursor, error)
}

// QueryHandlers exposes parameterized query execution over HTTP.
type QueryHandlers struct {
	logger  *slog.Logger
	runner  QueryRunner
	timeout time.Duration
	maxRows int
}

// NewQueryHandlers constructs a QueryHandlers instance. A zero timeout or
// maxRows disables the corresponding limit.
func NewQueryHandlers(logger *slog.Logger, runner QueryRunner, timeout time.Duration, maxRows int) *QueryHandlers {
	return &QueryHandlers{
		logger:  logger,
		runner:  runner,
		timeout: timeout,
		maxRows: maxRows,
	}
}

type queryRequest struct {
	Query      string          `json:"query"`
	Parameters json.RawMessage `json:"parameters"`
}

type queryResponse struct {
	Rows      []graph.Row `json:"rows"`
	Count     int         `json:"count"`
	Truncated bool        `json:"truncated"`
}

func (h *QueryHandlers) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	params, err := binder.DecodeJSON(req.Parameters)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	cur, err := h.runner.Execute(ctx, req.Query, params)
	if err != nil {
		if isBindError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Warn("query execution failed", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	defer cur.Close()

	resp := queryResponse{Rows: []graph.Row{}}
	for {
		ok, err := cur.HasNext()
		if err != nil {
			h.logger.Warn("reading query result failed", "error", err, "cursor_id", cur.ID())
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if !ok {
			break
		}
		if h.maxRows > 0 && len(resp.Rows) >= h.maxRows {
			resp.Truncated = true
			break
		}
		row, err := cur.Next()
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		resp.Rows = append(resp.Rows, row)
	}
	resp.Count = len(resp.Rows)

	respondJSON(w, http.StatusOK, resp)
}

func isBindError(err error) bool {
	var (
		shapeErr *binder.ShapeError
		nameErr  *binder.NameTypeError
		valueErr *binder.ValueTypeError
	)
	return errors.As(err, &shapeErr) || errors.As(err, &nameErr) || errors.As(err, &valueErr)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
