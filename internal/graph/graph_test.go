package graph

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/vanshika/graphbind/internal/binder"
	"github.com/vanshika/graphbind/internal/config"
	"github.com/vanshika/graphbind/internal/value"
)

func TestPlaceholders(t *testing.T) {
	cases := []struct {
		query string
		want  []string
	}{
		{"MATCH (a:person) WHERE a.isStudent = $1 AND a.isWorker = $k RETURN COUNT(*)", []string{"1", "k"}},
		{"MATCH (a) WHERE a.age < $AGE AND a.age > $AGE RETURN a", []string{"AGE"}},
		{"RETURN '$notParam', \"$nope\", `$ident`, $real", []string{"real"}},
		{"RETURN 'it\\'s $x', $y", []string{"y"}},
		{"RETURN $ + 1", nil},
		{"RETURN concat(a.fName, $S);", []string{"S"}},
	}

	for _, tc := range cases {
		got := Placeholders(tc.query)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Placeholders(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestCheckParameters(t *testing.T) {
	set, err := binder.Bind([]any{[]any{"a", 1}})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := CheckParameters("RETURN $a", set); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	err = CheckParameters("RETURN $a + $b", set)
	var unknown *UnknownParameterError
	if !errors.As(err, &unknown) || unknown.Name != "b" {
		t.Fatalf("expected unknown parameter b, got %v", err)
	}
}

func TestMemoryExecutor_Execute(t *testing.T) {
	mem := NewMemoryExecutor().HandleRows("RETURN   $x", Row{int64(1)}, Row{int64(2)})

	set, _ := binder.Bind([]any{[]any{"x", 1}})
	res, err := mem.Execute(context.Background(), "RETURN $x", set)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var rows []Row
	for res.Next(context.Background()) {
		rows = append(rows, res.Row())
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if mem.OpenResults() != 1 {
		t.Fatalf("expected 1 open result, got %d", mem.OpenResults())
	}
	if err := res.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	_ = res.Close(context.Background())
	if mem.OpenResults() != 0 || mem.Released() != 1 {
		t.Fatalf("expected result released once, open=%d released=%d", mem.OpenResults(), mem.Released())
	}

	calls := mem.Calls()
	if len(calls) != 1 || calls[0].Params.Len() != 1 {
		t.Fatalf("expected one recorded call, got %+v", calls)
	}
}

func TestMemoryExecutor_EngineErrors(t *testing.T) {
	mem := NewMemoryExecutor().HandleRows("RETURN $x", Row{int64(1)})

	_, err := mem.Execute(context.Background(), "RETURN $x", nil)
	var unknown *UnknownParameterError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownParameterError, got %v", err)
	}

	if _, err := mem.Execute(context.Background(), "RETURN 1", nil); !errors.Is(err, ErrUnknownQuery) {
		t.Fatalf("expected ErrUnknownQuery, got %v", err)
	}

	boom := errors.New("storage failure")
	mem.WithError(boom)
	if _, err := mem.Execute(context.Background(), "RETURN $x", nil); err != boom {
		t.Fatalf("expected engine error verbatim, got %v", err)
	}
}

func TestMemoryExecutor_Queries(t *testing.T) {
	mem := NewMemoryExecutor().
		HandleRows("RETURN 2").
		HandleRows("RETURN 1")
	got := mem.Queries()
	want := []string{"RETURN 1", "RETURN 2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDriverParams(t *testing.T) {
	ts := time.Date(2011, 8, 20, 11, 25, 30, 0, time.UTC)
	set, err := binder.Bind([]any{
		[]any{"b", false},
		[]any{"i", 1},
		[]any{"d", value.NewDate(1900, time.January, 1)},
		[]any{"t", ts},
		[]any{"i", 99},
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	params := DriverParams(set)
	if len(params) != 4 {
		t.Fatalf("expected 4 driver params, got %d", len(params))
	}
	if params["b"] != false {
		t.Errorf("expected b=false, got %v", params["b"])
	}
	if params["i"] != int64(1) {
		t.Errorf("expected first i to win, got %v", params["i"])
	}
	if d, ok := params["d"].(neo4j.Date); !ok || !d.Time().Equal(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected neo4j.Date, got %T %v", params["d"], params["d"])
	}
	if ldt, ok := params["t"].(neo4j.LocalDateTime); !ok || !ldt.Time().Equal(ts) {
		t.Errorf("expected neo4j.LocalDateTime, got %T %v", params["t"], params["t"])
	}
}

func TestFromDriver(t *testing.T) {
	got := fromDriver(neo4j.Date(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)))
	if got != value.NewDate(1900, time.January, 1) {
		t.Fatalf("expected value.Date, got %#v", got)
	}
	if fromDriver(int64(3)) != int64(3) {
		t.Fatal("expected int64 passthrough")
	}
}

func TestNewNeo4jExecutorRequiresURI(t *testing.T) {
	if _, err := NewNeo4jExecutor(context.Background(), Options{}); !errors.Is(err, ErrMissingURI) {
		t.Fatalf("expected ErrMissingURI, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.GraphConfig{
		URI:            "bolt://localhost:7687",
		Database:       "people",
		MaxConnections: 4,
		AccessMode:     "READ",
	})
	if opts.AccessMode != AccessModeRead {
		t.Fatalf("expected read access mode, got %q", opts.AccessMode)
	}
	if opts.URI != "bolt://localhost:7687" || opts.Database != "people" || opts.MaxConnections != 4 {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestDriverParams_TimestampWallClock(t *testing.T) {
	plusOne := time.FixedZone("plus-one", 3600)
	set, err := binder.Bind([]any{
		[]any{"a", time.Date(2011, 8, 20, 11, 25, 30, 0, plusOne)},
		[]any{"b", time.Date(2011, 8, 20, 11, 25, 30, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if !set[0].Value.Equal(set[1].Value) {
		t.Fatalf("expected equal timestamps, got %s and %s", set[0].Value, set[1].Value)
	}

	params := DriverParams(set)
	a, _ := params["a"].(neo4j.LocalDateTime)
	b, _ := params["b"].(neo4j.LocalDateTime)
	if a.String() != b.String() {
		t.Fatalf("expected identical driver values, got %s and %s", a, b)
	}
}
