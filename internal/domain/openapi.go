// Package domain provides core models and ports for the BAR generator: the
// decoded flow document, the generated Swagger document and the structured
// build errors.
package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

const definitionsPrefix = "#/definitions/"

// Swagger is a Swagger 2.0 document generated from a flow.
type Swagger struct {
	Swagger     string                 `json:"swagger" yaml:"swagger"`
	Info        Info                   `json:"info" yaml:"info"`
	Schemes     []string               `json:"schemes" yaml:"schemes"`
	BasePath    string                 `json:"basePath" yaml:"basePath"`
	Consumes    []string               `json:"consumes" yaml:"consumes"`
	Produces    []string               `json:"produces" yaml:"produces"`
	Paths       *OrderedMap[*PathItem] `json:"paths" yaml:"paths"`
	Definitions *OrderedMap[*Schema]   `json:"definitions,omitempty" yaml:"definitions,omitempty"`
}

// Info holds the API title and version.
type Info struct {
	Title   string `json:"title" yaml:"title"`
	Version string `json:"version" yaml:"version"`
}

// PathItem maps lower-case HTTP verbs to operations.
type PathItem = OrderedMap[*Operation]

// Operation represents an HTTP operation on a path.
type Operation struct {
	Tags        []string               `json:"tags" yaml:"tags"`
	Summary     string                 `json:"summary,omitempty" yaml:"summary,omitempty"`
	OperationID string                 `json:"operationId" yaml:"operationId"`
	Parameters  Parameters             `json:"parameters,omitzero" yaml:"parameters,omitempty"`
	Responses   *OrderedMap[*Response] `json:"responses" yaml:"responses"`
}

// Parameters is the parameter list of an operation. A nil list is omitted
// from the encoded document, an empty one is kept.
type Parameters []*Parameter

// IsZero reports whether the list is nil.
func (p Parameters) IsZero() bool {
	return p == nil
}

// Parameter represents a request parameter.
type Parameter struct {
	Name        string  `json:"name" yaml:"name"`
	In          string  `json:"in" yaml:"in"` // path, query, body, header
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool    `json:"required" yaml:"required"`
	Type        string  `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string  `json:"format,omitempty" yaml:"format,omitempty"`
	Schema      *Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Response represents an API response.
type Response struct {
	Description string  `json:"description" yaml:"description"`
	Schema      *Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Schema is the JSON-Schema subset used for definitions and responses.
type Schema struct {
	Ref                  string               `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Description          *string              `json:"description,omitempty" yaml:"description,omitempty"`
	Type                 string               `json:"type,omitempty" yaml:"type,omitempty"`
	Format               string               `json:"format,omitempty" yaml:"format,omitempty"`
	Items                *Schema              `json:"items,omitempty" yaml:"items,omitempty"`
	Properties           *OrderedMap[*Schema] `json:"properties,omitempty" yaml:"properties,omitempty"`
	AdditionalProperties *bool                `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
}

// RefSchema returns a schema pointing at a named definition.
func RefSchema(name string) *Schema {
	return &Schema{Ref: definitionsPrefix + name}
}

// RefName extracts the definition name from a $ref.
func RefName(ref string) string {
	return strings.TrimPrefix(ref, definitionsPrefix)
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// OrderedMap is a string-keyed map that remembers insertion order and
// marshals its entries in that order.
type OrderedMap[V any] struct {
	keys   []string
	values map[string]V
}

// NewOrderedMap creates an empty ordered map.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{values: make(map[string]V)}
}

// Set stores v under key. An existing key keeps its original position.
func (m *OrderedMap[V]) Set(key string, v V) {
	if m.values == nil {
		m.values = make(map[string]V)
	}

	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.values[key] = v
}

// Get returns the value stored under key.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	var zero V
	if m == nil {
		return zero, false
	}

	v, ok := m.values[key]

	return v, ok
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	if m == nil {
		return nil
	}

	return append([]string(nil), m.keys...)
}

// Len returns the number of entries.
func (m *OrderedMap[V]) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// MarshalJSON encodes the entries as a JSON object in insertion order.
func (m *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		k, err := marshalJSON(key)
		if err != nil {
			return nil, err
		}

		v, err := marshalJSON(m.values[key])
		if err != nil {
			return nil, err
		}

		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// MarshalYAML encodes the entries as a YAML mapping in insertion order.
func (m *OrderedMap[V]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, key := range m.keys {
		var value yaml.Node
		if err := value.Encode(m.values[key]); err != nil {
			return nil, err
		}

		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&value,
		)
	}

	return node, nil
}

// marshalJSON encodes v without HTML escaping.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
