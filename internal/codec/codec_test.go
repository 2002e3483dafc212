package codec

import (
	"encoding/hex"
	"reflect"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "github.com/rzbill/folio/internal/codec.person", TypeOf(person{}))
	assert.Equal(t, TypeOf(person{}), TypeOf(&person{}))
	assert.Equal(t, "string", TypeOf(""))
	assert.Equal(t, "[]int", TypeOf([]int{1}))
	assert.Equal(t, "map[string]int", TypeName(reflect.TypeOf(map[string]int{})))
}

func TestEncodeDecode(t *testing.T) {
	b, err := Encode(&person{Name: "ann", Age: 30})
	require.NoError(t, err)

	rec, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, TypeOf(person{}), rec.Type)

	var p person
	require.NoError(t, rec.Into(&p))
	assert.Equal(t, person{Name: "ann", Age: 30}, p)
}

func TestEncodeNil(t *testing.T) {
	_, err := Encode(nil)
	assert.ErrorIs(t, err, ErrNil)
	var p *person
	_, err = Encode(p)
	assert.ErrorIs(t, err, ErrNil)
}

func TestDecodeCorrupt(t *testing.T) {
	b, err := Encode("hello")
	require.NoError(t, err)

	flipped := append([]byte(nil), b...)
	flipped[len(flipped)-5] ^= 0xff
	for name, in := range map[string][]byte{
		"short":     {1, 2},
		"truncated": b[:len(b)-1],
		"flipped":   flipped,
		"hugehdr":   {0xff, 0xff, 0xff, 0xff, 0x0f, 0, 0, 0, 0},
	} {
		_, err := Decode(in)
		assert.ErrorIs(t, err, ErrCorrupt, name)
	}
}

func TestFrameGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "string_record", []byte(hex.EncodeToString(Frame("string", []byte(`"hi"`)))))
}
