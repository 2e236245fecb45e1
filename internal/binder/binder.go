package binder

import (
	"reflect"

	"github.com/vanshika/graphbind/internal/value"
)

// Parameter is a named literal bound to a $name placeholder.
type Parameter struct {
	Name  string
	Value value.Value
}

// ParameterSet is an ordered list of parameters as supplied by the caller.
// Duplicate names are kept; resolving them is up to the executor.
type ParameterSet []Parameter

func (ps ParameterSet) Len() int { return len(ps) }

// Names returns parameter names in input order, duplicates included.
func (ps ParameterSet) Names() []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return names
}

// Lookup returns the first parameter with the given name.
func (ps ParameterSet) Lookup(name string) (value.Value, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p.Value, true
		}
	}
	return value.Value{}, false
}

// Pair is a typed convenience entry for Go callers. Its name still has to be
// a string when passed through Bind.
type Pair struct {
	Name  any
	Value any
}

// P builds a Pair.
func P(name string, v any) Pair {
	return Pair{Name: name, Value: v}
}

// Bind validates caller-supplied entries and builds a ParameterSet. Each
// entry must be a Pair or a two-element slice/array holding (name, value).
// The first invalid entry aborts binding; no partial set is returned.
func Bind(entries []any) (ParameterSet, error) {
	set := make(ParameterSet, 0, len(entries))
	for i, entry := range entries {
		rawName, rawValue, ok := splitPair(entry)
		if !ok {
			return nil, &ShapeError{Index: i}
		}

		name, ok := nameOf(rawName)
		if !ok {
			return nil, &NameTypeError{Index: i, Type: typeName(rawName)}
		}

		v, err := value.Classify(rawValue)
		if err != nil {
			return nil, &ValueTypeError{Index: i, Name: name, Type: typeName(rawValue), Err: err}
		}

		set = append(set, Parameter{Name: name, Value: v})
	}
	return set, nil
}

func splitPair(entry any) (any, any, bool) {
	switch e := entry.(type) {
	case Pair:
		return e.Name, e.Value, true
	case *Pair:
		if e == nil {
			return nil, nil, false
		}
		return e.Name, e.Value, true
	case []any:
		if len(e) != 2 {
			return nil, nil, false
		}
		return e[0], e[1], true
	case [2]any:
		return e[0], e[1], true
	case nil, string:
		return nil, nil, false
	}

	rv := reflect.ValueOf(entry)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		// Byte slices are binary payloads, not pairs.
		if rv.Type().Elem().Kind() == reflect.Uint8 || rv.Len() != 2 {
			return nil, nil, false
		}
		return rv.Index(0).Interface(), rv.Index(1).Interface(), true
	default:
		return nil, nil, false
	}
}

func nameOf(raw any) (string, bool) {
	switch n := raw.(type) {
	case string:
		return n, true
	case value.Value:
		return n.AsString()
	default:
		return "", false
	}
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	if lit, ok := v.(value.Value); ok {
		return lit.Kind().String()
	}
	return reflect.TypeOf(v).String()
}
