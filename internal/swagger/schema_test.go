package swagger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/GabrielNunesIT/bargen/internal/domain"
)

func typeNode(t *testing.T, text string) *yaml.Node {
	t.Helper()

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(text), &doc))

	return doc.Content[0]
}

func TestInferSchema(t *testing.T) {
	tests := []struct {
		name     string
		typeSpec string
		expected *domain.Schema
	}{
		{
			name:     "primitive passes through",
			typeSpec: "boolean",
			expected: &domain.Schema{Type: "boolean"},
		},
		{
			name:     "unknown primitive passes through",
			typeSpec: "geopoint",
			expected: &domain.Schema{Type: "geopoint"},
		},
		{
			name:     "date becomes date-time string",
			typeSpec: "date",
			expected: &domain.Schema{Type: "string", Format: "date-time"},
		},
		{
			name:     "empty object",
			typeSpec: "{}",
			expected: &domain.Schema{Type: "object", Properties: domain.NewOrderedMap[*domain.Schema]()},
		},
		{
			name:     "empty array",
			typeSpec: "[]",
			expected: &domain.Schema{Type: "array", Items: &domain.Schema{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, InferSchema(typeNode(t, tt.typeSpec)))
		})
	}
}

func TestInferSchemaNestedDate(t *testing.T) {
	require := require.New(t)

	schema := InferSchema(typeNode(t, `
outer:
  type:
    inner:
      type:
        - when:
            type: date
`))

	outer, _ := schema.Properties.Get("outer")
	inner, _ := outer.Properties.Get("inner")
	require.Equal("array", inner.Type)

	when, _ := inner.Items.Properties.Get("when")
	require.Equal(&domain.Schema{Type: "string", Format: "date-time"}, when)
}

func TestInferSchemaUsesFirstArrayElement(t *testing.T) {
	require := require.New(t)

	single := InferSchema(typeNode(t, "[number]"))
	many := InferSchema(typeNode(t, "[number, string, boolean]"))

	require.Equal(single, many)
	require.Equal(&domain.Schema{Type: "number"}, many.Items)
}

func TestModelDefinitionEmpty(t *testing.T) {
	require := require.New(t)

	def := ModelDefinition(nil)
	require.Equal("object", def.Type)
	require.Equal(0, def.Properties.Len())
	require.Equal("", *def.Description)
	require.False(*def.AdditionalProperties)
}

func TestParseOperationKind(t *testing.T) {
	require := require.New(t)

	require.Equal(KindRetrieve, ParseOperationKind("retrieve"))
	require.Equal(KindCreate, ParseOperationKind("create"))
	require.Equal(KindRetrieveAll, ParseOperationKind("retrieveall"))
	require.Equal(KindUpsertWithWhere, ParseOperationKind("upsertwithwhere"))
	require.Equal(KindReplaceOrCreate, ParseOperationKind("replaceorcreate"))
	require.Equal(KindCustom, ParseOperationKind("customget"))
}

func TestCustomPath(t *testing.T) {
	require := require.New(t)

	require.Equal("/account/{name}/customget1", customPath("account", "/:name/customget1"))
	require.Equal("/account", customPath("account", ""))
	require.Equal("/account/a/{b}", customPath("account", "a//:b/"))
}
