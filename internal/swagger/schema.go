package swagger

import (
	"gopkg.in/yaml.v3"

	"github.com/GabrielNunesIT/bargen/internal/domain"
)

// InferSchema derives a schema from a property type declaration.
//
// A sequence declares a repeated type and only its first element is used for
// the items. A mapping declares nested properties. The primitive "date"
// becomes a date-time string and every other primitive passes through.
// Malformed input yields a best-effort schema rather than an error.
func InferSchema(typeSpec *yaml.Node) *domain.Schema {
	n := domain.Resolve(typeSpec)

	switch {
	case n == nil:
		return &domain.Schema{}
	case n.Kind == yaml.SequenceNode:
		var first *yaml.Node
		if len(n.Content) > 0 {
			first = n.Content[0]
		}

		return &domain.Schema{Type: "array", Items: InferSchema(first)}
	case n.Kind == yaml.MappingNode:
		return &domain.Schema{Type: "object", Properties: inferProperties(n)}
	case n.Value == "date":
		return &domain.Schema{Type: "string", Format: "date-time"}
	default:
		return &domain.Schema{Type: domain.ScalarString(n)}
	}
}

// ModelDefinition builds the top-level definition of a model from its
// properties mapping.
func ModelDefinition(properties *yaml.Node) *domain.Schema {
	return &domain.Schema{
		Description:          domain.StringPtr(""),
		Type:                 "object",
		Properties:           inferProperties(properties),
		AdditionalProperties: domain.BoolPtr(false),
	}
}

func inferProperties(properties *yaml.Node) *domain.OrderedMap[*domain.Schema] {
	out := domain.NewOrderedMap[*domain.Schema]()

	for _, prop := range domain.Entries(properties) {
		out.Set(prop.Key, InferSchema(domain.MappingValue(prop.Value, "type")))
	}

	return out
}
