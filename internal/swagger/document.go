// Package swagger generates the Swagger 2.0 definition of the REST API
// described by an integration flow document.
package swagger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/GabrielNunesIT/bargen/internal/domain"
)

// ErrIncompleteFlow is returned for flow documents that lack the API trigger
// interface or its resources.
var ErrIncompleteFlow = errors.New("incomplete flow document")

const apiVersion = "0.0.1"

// Document is the API definition generated from one flow document.
type Document struct {
	flow    *domain.FlowDocument
	swagger *domain.Swagger
}

// New normalizes the flow name in place and generates the API definition.
// All models live under trigger-interface-1 in an API flow.
func New(flow *domain.FlowDocument) (*Document, error) {
	if flow.Name() == "" {
		return nil, fmt.Errorf("%w: integration.name is missing or empty", ErrIncompleteFlow)
	}

	resources := flow.Lookup("integration", "trigger-interfaces", "trigger-interface-1", "options", "resources")
	if resources == nil || resources.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: trigger-interface-1 has no resources", ErrIncompleteFlow)
	}

	flow.NormalizeName()
	name := flow.Name()

	d := &Document{
		flow: flow,
		swagger: &domain.Swagger{
			Swagger:     "2.0",
			Info:        domain.Info{Title: name, Version: apiVersion},
			Schemes:     []string{"http", "https"},
			BasePath:    "/" + name,
			Consumes:    []string{"application/json"},
			Produces:    []string{"application/json"},
			Paths:       domain.NewOrderedMap[*domain.PathItem](),
			Definitions: domain.NewOrderedMap[*domain.Schema](),
		},
	}

	for _, resource := range domain.Items(resources) {
		if err := d.addResource(resource); err != nil {
			return nil, err
		}
	}

	return d, nil
}

func (d *Document) addResource(resource *yaml.Node) error {
	name := domain.ScalarString(domain.MappingValue(resource, "business-object"))
	if name == "" {
		return domain.NewInvalidFlowError("resource has no business-object")
	}

	node := d.flow.Lookup("models", name)
	if node == nil {
		return domain.NewInvalidFlowError("model %q is not defined", name)
	}

	m := model{name: name, node: node}
	d.swagger.Definitions.Set(name, ModelDefinition(domain.MappingValue(node, "properties")))

	for _, operation := range domain.MappingKeys(domain.MappingValue(resource, "triggers")) {
		if err := d.addOperation(operation, m); err != nil {
			return err
		}
	}

	return nil
}

// path returns the path item for p, creating it on first use so that
// operations sharing a path merge into one item.
func (d *Document) path(p string) *domain.PathItem {
	if item, ok := d.swagger.Paths.Get(p); ok {
		return item
	}

	item := domain.NewOrderedMap[*domain.Operation]()
	d.swagger.Paths.Set(p, item)

	return item
}

// Swagger returns the live document.
func (d *Document) Swagger() *domain.Swagger {
	return d.swagger
}

// Title returns the normalized flow name.
func (d *Document) Title() string {
	return d.swagger.Info.Title
}

// JSON encodes the document as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(d.swagger); err != nil {
		return nil, fmt.Errorf("failed to encode API definition: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// YAML encodes the document as YAML.
func (d *Document) YAML() ([]byte, error) {
	var buf bytes.Buffer

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(d.swagger); err != nil {
		return nil, fmt.Errorf("failed to encode API definition: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode API definition: %w", err)
	}

	return buf.Bytes(), nil
}

// FlowDoc re-serializes the source flow document, including the name
// normalization applied by New.
func (d *Document) FlowDoc() ([]byte, error) {
	return d.flow.Encode()
}
