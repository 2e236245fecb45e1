package conn

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vanshika/graphbind/internal/binder"
	"github.com/vanshika/graphbind/internal/cursor"
	"github.com/vanshika/graphbind/internal/graph"
	"github.com/vanshika/graphbind/internal/value"
)

type person struct {
	id           int64
	fName        string
	isStudent    bool
	isWorker     bool
	age          int64
	eyeSight     float64
	birthdate    value.Date
	registerTime time.Time
}

var people = []person{
	{0, "Alice", true, false, 35, 5.0, value.NewDate(1900, 1, 1), time.Date(2011, 8, 20, 11, 25, 30, 0, time.UTC)},
	{2, "Bob", true, false, 30, 5.1, value.NewDate(1900, 1, 1), time.Date(2008, 11, 3, 15, 25, 30, 526000, time.UTC)},
	{3, "Carol", false, true, 45, 5.0, value.NewDate(1940, 6, 22), time.Date(1911, 8, 20, 2, 32, 21, 0, time.UTC)},
	{5, "Dan", false, true, 20, 4.8, value.NewDate(1950, 7, 23), time.Date(2031, 11, 30, 12, 25, 30, 0, time.UTC)},
	{7, "Elizabeth", false, true, 20, 4.7, value.NewDate(1980, 10, 26), time.Date(1976, 12, 23, 11, 21, 42, 0, time.UTC)},
	{8, "Farooq", true, false, 25, 4.5, value.NewDate(1980, 10, 26), time.Date(1972, 7, 31, 13, 22, 30, 678559000, time.UTC)},
	{9, "Greg", false, false, 40, 4.9, value.NewDate(1980, 10, 26), time.Date(1976, 12, 23, 4, 41, 42, 0, time.UTC)},
	{10, "Hubert", false, true, 83, 4.9, value.NewDate(1990, 11, 27), time.Date(2023, 2, 21, 13, 25, 30, 0, time.UTC)},
}

const (
	boolQuery      = "MATCH (a:person) WHERE a.isStudent = $1 AND a.isWorker = $k RETURN COUNT(*)"
	ageQuery       = "MATCH (a:person) WHERE a.age < $AGE RETURN COUNT(*)"
	eyeSightQuery  = "MATCH (a:person) WHERE a.eyeSight = $E RETURN COUNT(*)"
	concatQuery    = "MATCH (a:person) WHERE a.ID = 0 RETURN concat(a.fName, $S);"
	birthdateQuery = "MATCH (a:person) WHERE a.birthdate = $1 RETURN COUNT(*);"
	registerQuery  = "MATCH (a:person) WHERE a.registerTime = $1 RETURN COUNT(*);"
)

type typeMismatchError struct {
	param string
	want  value.Kind
	got   value.Kind
}

func (e *typeMismatchError) Error() string {
	return fmt.Sprintf("Binder exception: parameter %s has type %s, expected %s", e.param, e.got, e.want)
}

func param(params binder.ParameterSet, name string, want value.Kind) (value.Value, error) {
	v, _ := params.Lookup(name)
	if v.Kind() != want {
		return value.Value{}, &typeMismatchError{param: name, want: want, got: v.Kind()}
	}
	return v, nil
}

func countWhere(match func(person) bool) []graph.Row {
	var n int64
	for _, p := range people {
		if match(p) {
			n++
		}
	}
	return []graph.Row{{n}}
}

func newPersonEngine() *graph.MemoryExecutor {
	mem := graph.NewMemoryExecutor()

	mem.Handle(boolQuery, func(params binder.ParameterSet) ([]graph.Row, error) {
		s, err := param(params, "1", value.KindBool)
		if err != nil {
			return nil, err
		}
		w, err := param(params, "k", value.KindBool)
		if err != nil {
			return nil, err
		}
		student, _ := s.AsBool()
		worker, _ := w.AsBool()
		return countWhere(func(p person) bool { return p.isStudent == student && p.isWorker == worker }), nil
	})

	mem.Handle(ageQuery, func(params binder.ParameterSet) ([]graph.Row, error) {
		v, err := param(params, "AGE", value.KindInt64)
		if err != nil {
			return nil, err
		}
		age, _ := v.AsInt64()
		return countWhere(func(p person) bool { return p.age < age }), nil
	})

	mem.Handle(eyeSightQuery, func(params binder.ParameterSet) ([]graph.Row, error) {
		v, err := param(params, "E", value.KindDouble)
		if err != nil {
			return nil, err
		}
		e, _ := v.AsDouble()
		return countWhere(func(p person) bool { return p.eyeSight == e }), nil
	})

	mem.Handle(concatQuery, func(params binder.ParameterSet) ([]graph.Row, error) {
		v, err := param(params, "S", value.KindString)
		if err != nil {
			return nil, err
		}
		suffix, _ := v.AsString()
		var rows []graph.Row
		for _, p := range people {
			if p.id == 0 {
				rows = append(rows, graph.Row{p.fName + suffix})
			}
		}
		return rows, nil
	})

	mem.Handle(birthdateQuery, func(params binder.ParameterSet) ([]graph.Row, error) {
		v, err := param(params, "1", value.KindDate)
		if err != nil {
			return nil, err
		}
		d, _ := v.AsDate()
		return countWhere(func(p person) bool { return p.birthdate == d }), nil
	})

	mem.Handle(registerQuery, func(params binder.ParameterSet) ([]graph.Row, error) {
		v, err := param(params, "1", value.KindTimestamp)
		if err != nil {
			return nil, err
		}
		ts, _ := v.AsTime()
		return countWhere(func(p person) bool { return p.registerTime.Equal(ts) }), nil
	})

	return mem
}

// expectSingleRow walks the cursor the way a well-behaved caller does.
func expectSingleRow(t *testing.T, cur *cursor.Cursor, want graph.Row) {
	t.Helper()
	defer cur.Close()

	ok, err := cur.HasNext()
	if err != nil || !ok {
		t.Fatalf("expected a row, got %v, %v", ok, err)
	}
	row, err := cur.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !reflect.DeepEqual(row, want) {
		t.Fatalf("expected row %v, got %v", want, row)
	}
	ok, err = cur.HasNext()
	if err != nil || ok {
		t.Fatalf("expected cursor exhausted, got %v, %v", ok, err)
	}
}

func TestConn_ExecuteParameterKinds(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		params []any
		want   graph.Row
	}{
		{"bool", boolQuery, []any{[]any{"1", false}, []any{"k", false}}, graph.Row{int64(1)}},
		{"int", ageQuery, []any{[]any{"AGE", 1}}, graph.Row{int64(0)}},
		{"double", eyeSightQuery, []any{[]any{"E", 5.0}}, graph.Row{int64(2)}},
		{"string", concatQuery, []any{[]any{"S", "HH"}}, graph.Row{"AliceHH"}},
		{"date", birthdateQuery, []any{[]any{"1", value.NewDate(1900, 1, 1)}}, graph.Row{int64(2)}},
		{"timestamp", registerQuery, []any{[]any{"1", time.Date(2011, 8, 20, 11, 25, 30, 0, time.UTC)}}, graph.Row{int64(1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mem := newPersonEngine()
			c := New(mem)

			cur, err := c.Execute(context.Background(), tc.query, tc.params)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			expectSingleRow(t, cur, tc.want)

			if mem.OpenResults() != 0 {
				t.Fatalf("expected result released after close, %d open", mem.OpenResults())
			}
		})
	}
}

func TestConn_BindErrorsNeverReachEngine(t *testing.T) {
	cases := []struct {
		name    string
		params  []any
		message string
	}{
		{"int name", []any{[]any{1, 1}}, "Parameter name must be of type string but get int"},
		{"bare scalar", []any{"asd"}, "Each parameter must be in the form of <name, val>"},
		{"three elements", []any{[]any{"asd", 1, 1}}, "Each parameter must be in the form of <name, val>"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mem := newPersonEngine()
			c := New(mem)

			cur, err := c.Execute(context.Background(), registerQuery, tc.params)
			if cur != nil {
				t.Fatal("expected no cursor")
			}
			if err == nil || !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("expected error containing %q, got %v", tc.message, err)
			}
			if calls := mem.Calls(); len(calls) != 0 {
				t.Fatalf("expected engine untouched, got %d calls", len(calls))
			}
		})
	}
}

func TestConn_EngineErrorsPropagateUnchanged(t *testing.T) {
	mem := newPersonEngine()
	c := New(mem)

	_, err := c.Execute(context.Background(), ageQuery, []any{[]any{"AGE", "old"}})
	var mismatch *typeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected engine type mismatch, got %v", err)
	}

	_, err = c.Execute(context.Background(), ageQuery, []any{[]any{"age", 1}})
	var unknown *graph.UnknownParameterError
	if !errors.As(err, &unknown) || unknown.Name != "AGE" {
		t.Fatalf("expected unknown parameter AGE, got %v", err)
	}

	boom := errors.New("storage unavailable")
	mem.WithError(boom)
	if _, err := c.Execute(context.Background(), ageQuery, []any{[]any{"AGE", 1}}); err != boom {
		t.Fatalf("expected engine error verbatim, got %v", err)
	}
}

func TestConn_CursorsCoexist(t *testing.T) {
	mem := newPersonEngine()
	c := New(mem)
	ctx := context.Background()

	first, err := c.Execute(ctx, eyeSightQuery, []any{binder.P("E", 5.0)})
	if err != nil {
		t.Fatalf("first execute: %v", err)
	}
	second, err := c.Execute(ctx, concatQuery, []any{binder.P("S", "!")})
	if err != nil {
		t.Fatalf("second execute: %v", err)
	}
	if mem.OpenResults() != 2 {
		t.Fatalf("expected 2 open results, got %d", mem.OpenResults())
	}
	if c.OpenCursors() != 2 {
		t.Fatalf("expected 2 open cursors, got %d", c.OpenCursors())
	}

	expectSingleRow(t, second, graph.Row{"Alice!"})
	expectSingleRow(t, first, graph.Row{int64(2)})
	_ = first.Close()

	if mem.OpenResults() != 0 {
		t.Fatalf("expected all results released, %d open", mem.OpenResults())
	}
	if c.OpenCursors() != 0 {
		t.Fatalf("expected no open cursors, got %d", c.OpenCursors())
	}
}

func TestConn_FailedExecuteLeavesNoOpenCursor(t *testing.T) {
	mem := newPersonEngine()
	c := New(mem)

	if _, err := c.Execute(context.Background(), ageQuery, []any{"asd"}); err == nil {
		t.Fatal("expected bind error")
	}
	if _, err := c.Execute(context.Background(), ageQuery, nil); err == nil {
		t.Fatal("expected engine error for missing parameter")
	}
	if c.OpenCursors() != 0 {
		t.Fatalf("expected no open cursors, got %d", c.OpenCursors())
	}
}

func TestConn_ConcurrentExecuteIsSerialized(t *testing.T) {
	mem := newPersonEngine()
	c := New(mem)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(age int) {
			defer wg.Done()
			cur, err := c.Execute(context.Background(), ageQuery, []any{[]any{"AGE", age}})
			if err != nil {
				errs <- err
				return
			}
			defer cur.Close()
			if _, err := cur.Collect(); err != nil {
				errs <- err
			}
		}(i * 10)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mem.Calls()) != 8 {
		t.Fatalf("expected 8 engine calls, got %d", len(mem.Calls()))
	}
}

func TestConn_Ping(t *testing.T) {
	mem := graph.NewMemoryExecutor()
	c := New(mem)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("expected healthy ping, got %v", err)
	}
	down := errors.New("down")
	mem.WithConnectivityError(down)
	if err := c.Ping(context.Background()); err != down {
		t.Fatalf("expected connectivity error, got %v", err)
	}
}
