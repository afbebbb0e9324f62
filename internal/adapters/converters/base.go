// Package converters renders a generated API definition as reference
// documentation.
package converters

import (
	"fmt"
	"strings"

	"github.com/GabrielNunesIT/bargen/internal/domain"
)

const defaultTag = "Default"

type endpoint struct {
	path   string
	method string
	op     *domain.Operation
}

type tagGroup struct {
	name      string
	endpoints []endpoint
}

// groupByTag groups operations by their first tag. Groups and endpoints keep
// the order in which the paths were generated.
func groupByTag(doc *domain.Swagger) []tagGroup {
	var groups []tagGroup

	index := make(map[string]int)

	for _, path := range doc.Paths.Keys() {
		item, _ := doc.Paths.Get(path)

		for _, method := range item.Keys() {
			op, _ := item.Get(method)

			tag := defaultTag
			if len(op.Tags) > 0 {
				tag = op.Tags[0]
			}

			i, ok := index[tag]
			if !ok {
				i = len(groups)
				index[tag] = i
				groups = append(groups, tagGroup{name: tag})
			}

			groups[i].endpoints = append(groups[i].endpoints, endpoint{path: path, method: method, op: op})
		}
	}

	return groups
}

// formatMethod returns a styled method string.
func formatMethod(method string) string {
	return strings.ToUpper(method)
}

// schemaLabel describes a schema in a few words.
func schemaLabel(s *domain.Schema) string {
	switch {
	case s == nil:
		return ""
	case s.Ref != "":
		return domain.RefName(s.Ref)
	case s.Type == "array":
		if item := schemaLabel(s.Items); item != "" {
			return "array of " + item
		}

		return "array"
	case s.Format != "":
		return fmt.Sprintf("%s (%s)", s.Type, s.Format)
	default:
		return s.Type
	}
}

// parameterType returns the declared type of p, or the label of its schema
// for body parameters.
func parameterType(p *domain.Parameter) string {
	if p.Schema != nil {
		return schemaLabel(p.Schema)
	}

	return schemaLabel(&domain.Schema{Type: p.Type, Format: p.Format})
}

// formatParameter returns a one-line parameter description.
func formatParameter(p *domain.Parameter) string {
	required := ""
	if p.Required {
		required = " (required)"
	}

	line := fmt.Sprintf("%s (%s, %s)", p.Name, p.In, parameterType(p))
	if p.Description != "" {
		line += ": " + p.Description
	}

	return line + required
}

// formatResponse returns a one-line response description.
func formatResponse(code string, r *domain.Response) string {
	line := fmt.Sprintf("%s: %s", code, r.Description)
	if label := schemaLabel(r.Schema); label != "" {
		line += " (" + label + ")"
	}

	return line
}

// formatProperty returns a one-line description of a model property.
func formatProperty(name string, s *domain.Schema) string {
	return fmt.Sprintf("%s: %s", name, schemaLabel(s))
}
