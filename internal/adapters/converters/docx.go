package converters

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/GabrielNunesIT/bargen/internal/domain"
)

const docxFormat = "docx"

// DocxConverter renders the API as a Word (DOCX) document.
type DocxConverter struct{}

// NewDocxConverter creates a new DOCX converter.
func NewDocxConverter() *DocxConverter {
	return &DocxConverter{}
}

// Format returns the output format name.
func (c *DocxConverter) Format() string {
	return docxFormat
}

// Convert writes doc as a DOCX file.
func (c *DocxConverter) Convert(doc *domain.Swagger, output io.Writer) error {
	document, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	c.addTitle(document, doc)
	c.addEndpoints(document, doc)
	c.addModels(document, doc)

	if err := document.Write(output); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	return nil
}

func (c *DocxConverter) addTitle(document *docx.RootDoc, doc *domain.Swagger) {
	_, _ = document.AddHeading(doc.Info.Title, 0) // Level 0 = Title style
	document.AddParagraph(fmt.Sprintf("Version: %s", doc.Info.Version))
	document.AddParagraph(fmt.Sprintf("Base path: %s", doc.BasePath))
	document.AddParagraph(fmt.Sprintf("Schemes: %s", strings.Join(doc.Schemes, ", ")))
	document.AddEmptyParagraph()
}

func (c *DocxConverter) addEndpoints(document *docx.RootDoc, doc *domain.Swagger) {
	groups := groupByTag(doc)
	if len(groups) == 0 {
		return
	}

	_, _ = document.AddHeading("API Endpoints", 1)

	for _, group := range groups {
		_, _ = document.AddHeading(group.name, 2)

		for _, ep := range group.endpoints {
			c.addEndpoint(document, ep)
		}
	}
}

func (c *DocxConverter) addEndpoint(document *docx.RootDoc, ep endpoint) {
	_, _ = document.AddHeading(fmt.Sprintf("%s %s", formatMethod(ep.method), ep.path), 3)

	if ep.op.Summary != "" {
		document.AddParagraph(ep.op.Summary)
	}

	document.AddParagraph(fmt.Sprintf("Operation ID: %s", ep.op.OperationID))

	if len(ep.op.Parameters) > 0 {
		_, _ = document.AddHeading("Parameters", 4)

		for _, p := range ep.op.Parameters {
			document.AddParagraph("• " + formatParameter(p))
		}
	}

	if ep.op.Responses.Len() > 0 {
		_, _ = document.AddHeading("Responses", 4)

		for _, code := range ep.op.Responses.Keys() {
			r, _ := ep.op.Responses.Get(code)
			document.AddParagraph("• " + formatResponse(code, r))
		}
	}

	document.AddEmptyParagraph()
}

func (c *DocxConverter) addModels(document *docx.RootDoc, doc *domain.Swagger) {
	if doc.Definitions.Len() == 0 {
		return
	}

	_, _ = document.AddHeading("Models", 1)

	for _, name := range doc.Definitions.Keys() {
		def, _ := doc.Definitions.Get(name)
		_, _ = document.AddHeading(name, 2)

		for _, prop := range def.Properties.Keys() {
			schema, _ := def.Properties.Get(prop)
			document.AddParagraph("• " + formatProperty(prop, schema))
		}
	}
}
