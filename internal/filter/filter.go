// Package filter compiles CEL expressions that select changes for a
// subscriber.
//
// Variables visible to an expression:
//
//	key        string  changed key
//	type_name  string  stored Go type name
//	value      dyn     value as decoded JSON (map, list, number, string, bool)
//	ts_ms      int     write time in ms, taken from the change ID
//	now_ms     int     evaluation time in ms
//
// Example: key.startsWith("user/") && value.age >= 18
package filter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/rzbill/folio/internal/bus"
)

// Filter is a compiled expression. The zero Filter matches everything.
type Filter struct {
	expr string
	prog cel.Program
}

var env = mustEnv()

func mustEnv() *cel.Env {
	e, err := cel.NewEnv(
		cel.Variable("key", cel.StringType),
		cel.Variable("type_name", cel.StringType),
		cel.Variable("value", cel.DynType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("now_ms", cel.IntType),
		// JSON numbers decode as double; let them compare with int literals
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		panic(err)
	}
	return e
}

// Compile parses and type-checks expr. An empty expression yields the
// match-all Filter.
func Compile(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{}, nil
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, fmt.Errorf("filter: parse: %w", iss.Err())
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return Filter{}, fmt.Errorf("filter: check: %w", iss2.Err())
	}
	if t := checked.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return Filter{}, fmt.Errorf("filter: expression yields %s, want bool", t)
	}
	prog, err := env.Program(checked)
	if err != nil {
		return Filter{}, err
	}
	return Filter{expr: expr, prog: prog}, nil
}

// String returns the source expression.
func (f Filter) String() string { return f.expr }

// Enabled reports whether f filters anything.
func (f Filter) Enabled() bool { return f.prog != nil }

// Match evaluates f against c. Evaluation errors (a missing field, a
// non-bool result) are returned to the caller.
func (f Filter) Match(c bus.Change) (bool, error) {
	if f.prog == nil {
		return true, nil
	}
	var doc any
	if c.Value != nil {
		raw, err := json.Marshal(c.Value)
		if err != nil {
			return false, fmt.Errorf("filter: value: %w", err)
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return false, fmt.Errorf("filter: value: %w", err)
		}
	}
	var ts int64
	if !c.ID.IsZero() {
		ts = c.ID.Time().UnixMilli()
	}
	out, _, err := f.prog.Eval(map[string]any{
		"key":       c.Key,
		"type_name": c.Type,
		"value":     doc,
		"ts_ms":     ts,
		"now_ms":    time.Now().UnixMilli(),
	})
	if err != nil {
		return false, fmt.Errorf("filter %q: %w", f.expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q: result %v is not bool", f.expr, out.Value())
	}
	return b, nil
}

// Eval is Match with errors treated as a non-match.
func (f Filter) Eval(c bus.Change) bool {
	ok, err := f.Match(c)
	return err == nil && ok
}
