package filter

import (
	"testing"

	"github.com/rzbill/folio/internal/bus"
	"github.com/rzbill/folio/pkg/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestEmptyMatchesAll(t *testing.T) {
	f, err := Compile("  ")
	require.NoError(t, err)
	assert.False(t, f.Enabled())
	assert.True(t, f.Eval(bus.Change{Key: "anything"}))
}

func TestMatchOnKeyAndValue(t *testing.T) {
	f, err := Compile(`key.startsWith("user/") && value.age >= 18`)
	require.NoError(t, err)
	assert.True(t, f.Enabled())

	assert.True(t, f.Eval(bus.Change{Key: "user/ann", Value: person{Name: "ann", Age: 30}}))
	assert.False(t, f.Eval(bus.Change{Key: "user/bob", Value: person{Name: "bob", Age: 9}}))
	assert.False(t, f.Eval(bus.Change{Key: "team/x", Value: person{Age: 40}}))
}

func TestMatchTypeAndTime(t *testing.T) {
	f, err := Compile(`type_name == "string" && ts_ms > 0 && ts_ms <= now_ms`)
	require.NoError(t, err)
	c := bus.Change{ID: id.NewGenerator().Next(), Key: "k", Type: "string", Value: "v"}
	ok, err := f.Match(c)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMissingFieldIsError(t *testing.T) {
	f, err := Compile(`value.nope == 1`)
	require.NoError(t, err)
	_, err = f.Match(bus.Change{Key: "k", Value: person{}})
	assert.Error(t, err)
	assert.False(t, f.Eval(bus.Change{Key: "k", Value: person{}}))
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(`key ==`)
	assert.Error(t, err)
	_, err = Compile(`unknown_var == 1`)
	assert.Error(t, err)
	_, err = Compile(`key + "x"`)
	assert.ErrorContains(t, err, "want bool")
}
