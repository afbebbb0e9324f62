package domain

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOrderedMap(t *testing.T) {
	require := require.New(t)

	m := NewOrderedMap[int]()
	m.Set("z", 1)
	m.Set("a", 2)
	m.Set("z", 3)

	require.Equal([]string{"z", "a"}, m.Keys())
	require.Equal(2, m.Len())

	v, ok := m.Get("z")
	require.True(ok)
	require.Equal(3, v)

	_, ok = m.Get("missing")
	require.False(ok)

	var lazy OrderedMap[string]
	lazy.Set("k", "v")
	require.Equal(1, lazy.Len())

	var absent *OrderedMap[string]
	require.Zero(absent.Len())
	require.Nil(absent.Keys())
	_, ok = absent.Get("k")
	require.False(ok)
}

func TestOrderedMapMarshal(t *testing.T) {
	require := require.New(t)

	m := NewOrderedMap[*Schema]()
	m.Set("zeta", &Schema{Type: "string"})
	m.Set("<alpha>", RefSchema("model"))

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	require.NoError(encoder.Encode(m))
	require.Equal(`{"zeta":{"type":"string"},"<alpha>":{"$ref":"#/definitions/model"}}`+"\n", buf.String())

	ordered := NewOrderedMap[*Schema]()
	ordered.Set("zeta", &Schema{Type: "string"})
	ordered.Set("alpha", RefSchema("model"))

	out, err := yaml.Marshal(ordered)
	require.NoError(err)
	require.Equal("zeta:\n    type: string\nalpha:\n    $ref: '#/definitions/model'\n", string(out))

	empty, err := json.Marshal(NewOrderedMap[int]())
	require.NoError(err)
	require.Equal("{}", string(empty))
}

func TestRefHelpers(t *testing.T) {
	require := require.New(t)

	require.Equal("#/definitions/account", RefSchema("account").Ref)
	require.Equal("account", RefName("#/definitions/account"))
	require.Equal("x", *StringPtr("x"))
	require.False(*BoolPtr(false))
}
