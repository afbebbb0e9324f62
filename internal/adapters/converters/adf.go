package converters

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/GabrielNunesIT/bargen/internal/domain"
)

const adfFormat = "confluence"

// ADFConverter renders the API as Atlassian Document Format (ADF) for Confluence.
type ADFConverter struct{}

// NewADFConverter creates a new ADF converter.
func NewADFConverter() *ADFConverter {
	return &ADFConverter{}
}

// Format returns the output format name.
func (c *ADFConverter) Format() string {
	return adfFormat
}

// ADF node types.
type adfDocument struct {
	Version int       `json:"version"`
	Type    string    `json:"type"`
	Content []adfNode `json:"content"`
}

type adfNode struct {
	Type    string    `json:"type"`
	Attrs   *adfAttrs `json:"attrs,omitempty"`
	Content []adfNode `json:"content,omitempty"`
	Text    string    `json:"text,omitempty"`
	Marks   []adfMark `json:"marks,omitempty"`
}

type adfAttrs struct {
	Level int `json:"level,omitempty"`
}

type adfMark struct {
	Type string `json:"type"`
}

// Convert writes doc as ADF JSON.
func (c *ADFConverter) Convert(doc *domain.Swagger, output io.Writer) error {
	adf := &adfDocument{
		Version: 1,
		Type:    "doc",
		Content: []adfNode{
			c.heading(doc.Info.Title, 1),
			c.paragraph(fmt.Sprintf("Version: %s", doc.Info.Version)),
			{
				Type: "paragraph",
				Content: []adfNode{
					{Type: "text", Text: "Base path: "},
					c.codeText(doc.BasePath),
				},
			},
			c.paragraph(fmt.Sprintf("Schemes: %s", strings.Join(doc.Schemes, ", "))),
		},
	}

	if groups := groupByTag(doc); len(groups) > 0 {
		adf.Content = append(adf.Content, c.heading("API Endpoints", 2))

		for _, group := range groups {
			adf.Content = append(adf.Content, c.heading(group.name, 3))

			for _, ep := range group.endpoints {
				adf.Content = append(adf.Content, c.endpointNodes(ep)...)
			}
		}
	}

	if doc.Definitions.Len() > 0 {
		adf.Content = append(adf.Content, c.heading("Models", 2))

		for _, name := range doc.Definitions.Keys() {
			def, _ := doc.Definitions.Get(name)
			adf.Content = append(adf.Content, c.heading(name, 3))

			var props []string
			for _, prop := range def.Properties.Keys() {
				schema, _ := def.Properties.Get(prop)
				props = append(props, formatProperty(prop, schema))
			}

			if len(props) > 0 {
				adf.Content = append(adf.Content, c.bulletList(props))
			}
		}
	}

	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(adf); err != nil {
		return fmt.Errorf("failed to encode ADF: %w", err)
	}

	return nil
}

func (c *ADFConverter) endpointNodes(ep endpoint) []adfNode {
	nodes := []adfNode{c.heading(fmt.Sprintf("%s %s", formatMethod(ep.method), ep.path), 4)}

	if ep.op.Summary != "" {
		nodes = append(nodes, adfNode{
			Type:    "paragraph",
			Content: []adfNode{c.boldText(ep.op.Summary)},
		})
	}

	nodes = append(nodes, adfNode{
		Type: "paragraph",
		Content: []adfNode{
			{Type: "text", Text: "Operation ID: "},
			c.codeText(ep.op.OperationID),
		},
	})

	if len(ep.op.Parameters) > 0 {
		lines := make([]string, 0, len(ep.op.Parameters))
		for _, p := range ep.op.Parameters {
			lines = append(lines, formatParameter(p))
		}

		nodes = append(nodes, c.heading("Parameters", 5), c.bulletList(lines))
	}

	if ep.op.Responses.Len() > 0 {
		lines := make([]string, 0, ep.op.Responses.Len())
		for _, code := range ep.op.Responses.Keys() {
			r, _ := ep.op.Responses.Get(code)
			lines = append(lines, formatResponse(code, r))
		}

		nodes = append(nodes, c.heading("Responses", 5), c.bulletList(lines))
	}

	// Divider between endpoints
	return append(nodes, adfNode{Type: "rule"})
}

func (c *ADFConverter) heading(text string, level int) adfNode {
	return adfNode{
		Type:  "heading",
		Attrs: &adfAttrs{Level: level},
		Content: []adfNode{
			{Type: "text", Text: text},
		},
	}
}

func (c *ADFConverter) paragraph(text string) adfNode {
	return adfNode{
		Type: "paragraph",
		Content: []adfNode{
			{Type: "text", Text: text},
		},
	}
}

func (c *ADFConverter) boldText(text string) adfNode {
	return adfNode{Type: "text", Text: text, Marks: []adfMark{{Type: "strong"}}}
}

func (c *ADFConverter) codeText(text string) adfNode {
	return adfNode{Type: "text", Text: text, Marks: []adfMark{{Type: "code"}}}
}

func (c *ADFConverter) bulletList(lines []string) adfNode {
	items := make([]adfNode, 0, len(lines))
	for _, line := range lines {
		items = append(items, adfNode{
			Type:    "listItem",
			Content: []adfNode{c.paragraph(line)},
		})
	}

	return adfNode{Type: "bulletList", Content: items}
}
