package converters

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/GabrielNunesIT/bargen/internal/domain"
)

const (
	pdfFormat      = "pdf"
	pdfPageWidth   = 190.0
	pdfMarginLeft  = 10.0
	pdfMarginTop   = 10.0
	pdfMarginRight = 10.0
	pdfLineHeight  = 5.0
)

// PDFConverter renders the API as a PDF reference.
type PDFConverter struct {
	pdf        *gofpdf.Fpdf
	tocItems   []tocItem
	modelLinks map[string]int
}

type tocItem struct {
	title  string
	level  int
	linkID int
}

// NewPDFConverter creates a new PDF converter.
func NewPDFConverter() *PDFConverter {
	return &PDFConverter{}
}

// Format returns the output format name.
func (c *PDFConverter) Format() string {
	return pdfFormat
}

// Convert writes doc as a PDF document.
func (c *PDFConverter) Convert(doc *domain.Swagger, output io.Writer) error {
	c.pdf = gofpdf.New("P", "mm", "A4", "")
	c.pdf.SetMargins(pdfMarginLeft, pdfMarginTop, pdfMarginRight)
	c.pdf.SetDrawColor(180, 180, 180) // Light gray for all borders
	c.tocItems = nil
	c.modelLinks = make(map[string]int)

	groups := groupByTag(doc)

	// Links are created up front so the table of contents can point forward.
	c.collectTOC(doc, groups)

	c.addTitlePage(doc)
	c.addTableOfContents()
	c.addContent(doc, groups)

	if err := c.pdf.Output(output); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	return nil
}

func (c *PDFConverter) collectTOC(doc *domain.Swagger, groups []tagGroup) {
	c.tocItems = append(c.tocItems,
		tocItem{title: "Overview", level: 1, linkID: c.pdf.AddLink()},
		tocItem{title: "API Endpoints", level: 1, linkID: c.pdf.AddLink()},
	)

	for _, group := range groups {
		c.tocItems = append(c.tocItems, tocItem{title: group.name, level: 2, linkID: c.pdf.AddLink()})

		for _, ep := range group.endpoints {
			title := fmt.Sprintf("%s %s", formatMethod(ep.method), ep.path)
			c.tocItems = append(c.tocItems, tocItem{title: title, level: 3, linkID: c.pdf.AddLink()})
		}
	}

	if doc.Definitions.Len() == 0 {
		return
	}

	c.tocItems = append(c.tocItems, tocItem{title: "Models", level: 1, linkID: c.pdf.AddLink()})

	for _, name := range doc.Definitions.Keys() {
		link := c.pdf.AddLink()
		c.modelLinks[name] = link
		c.tocItems = append(c.tocItems, tocItem{title: name, level: 2, linkID: link})
	}
}

func (c *PDFConverter) addTitlePage(doc *domain.Swagger) {
	c.pdf.AddPage()

	c.pdf.SetFont("Arial", "B", 28)
	c.pdf.Ln(40)
	c.pdf.CellFormat(pdfPageWidth, 15, doc.Info.Title, "", 1, "C", false, 0, "")
	c.pdf.Ln(5)

	c.pdf.SetFont("Arial", "", 14)
	c.pdf.SetTextColor(100, 100, 100)
	c.pdf.CellFormat(pdfPageWidth, 8, fmt.Sprintf("Version %s", doc.Info.Version), "", 1, "C", false, 0, "")
	c.pdf.SetTextColor(0, 0, 0)
	c.pdf.Ln(50)

	c.pdf.SetFont("Arial", "", 10)
	c.pdf.SetTextColor(128, 128, 128)
	c.pdf.CellFormat(pdfPageWidth, 6, fmt.Sprintf("Swagger %s API Reference", doc.Swagger), "", 1, "C", false, 0, "")
	c.pdf.SetTextColor(0, 0, 0)
}

func (c *PDFConverter) addTableOfContents() {
	c.pdf.AddPage()

	c.pdf.SetFont("Arial", "B", 20)
	c.pdf.CellFormat(pdfPageWidth, 10, "Table of Contents", "", 1, "", false, 0, "")
	c.pdf.Ln(8)

	for _, item := range c.tocItems {
		indent := float64(item.level-1) * 8

		switch item.level {
		case 1:
			c.pdf.SetFont("Arial", "B", 12)
		case 2:
			c.pdf.SetFont("Arial", "B", 10)
		default:
			c.pdf.SetFont("Arial", "", 9)
		}

		c.pdf.SetX(pdfMarginLeft + indent)
		c.pdf.CellFormat(pdfPageWidth-indent, pdfLineHeight, truncate(item.title, 60), "", 1, "", false, item.linkID, "")
	}
}

func (c *PDFConverter) addContent(doc *domain.Swagger, groups []tagGroup) {
	tocIndex := 0

	c.pdf.AddPage()
	c.setLinkDest(&tocIndex)
	c.addSectionHeader("Overview")

	c.pdf.SetFont("Arial", "", 10)
	for _, line := range []string{
		"Base path: " + doc.BasePath,
		"Schemes: " + strings.Join(doc.Schemes, ", "),
		"Consumes: " + strings.Join(doc.Consumes, ", "),
		"Produces: " + strings.Join(doc.Produces, ", "),
	} {
		c.pdf.CellFormat(pdfPageWidth, 6, line, "", 1, "", false, 0, "")
	}

	c.pdf.AddPage()
	c.setLinkDest(&tocIndex)
	c.addSectionHeader("API Endpoints")

	for _, group := range groups {
		c.checkPageBreak(60)
		c.setLinkDest(&tocIndex)

		c.pdf.SetFont("Arial", "B", 14)
		c.pdf.SetFillColor(240, 240, 240)
		c.pdf.CellFormat(pdfPageWidth, 8, group.name, "", 1, "", true, 0, "")
		c.pdf.Ln(4)

		for _, ep := range group.endpoints {
			c.checkPageBreak(50)
			c.setLinkDest(&tocIndex)
			c.addEndpoint(ep)
		}
	}

	if doc.Definitions.Len() == 0 {
		return
	}

	c.pdf.AddPage()
	c.setLinkDest(&tocIndex)
	c.addSectionHeader("Models")

	for _, name := range doc.Definitions.Keys() {
		def, _ := doc.Definitions.Get(name)

		c.checkPageBreak(30)
		c.setLinkDest(&tocIndex)
		c.addModel(name, def)
	}
}

// setLinkDest points the next table of contents entry at the current position.
func (c *PDFConverter) setLinkDest(tocIndex *int) {
	if *tocIndex < len(c.tocItems) {
		c.pdf.SetLink(c.tocItems[*tocIndex].linkID, -1, -1)
	}

	*tocIndex++
}

func (c *PDFConverter) addSectionHeader(title string) {
	c.pdf.SetFont("Arial", "B", 18)
	c.pdf.CellFormat(pdfPageWidth, 10, title, "", 1, "", false, 0, "")
	c.pdf.Ln(4)
}

func (c *PDFConverter) addEndpoint(ep endpoint) {
	methodColors := map[string][3]int{
		"GET":    {97, 175, 254},
		"POST":   {73, 204, 144},
		"PUT":    {252, 161, 48},
		"DELETE": {249, 62, 62},
		"PATCH":  {80, 227, 194},
		"HEAD":   {144, 97, 249},
	}

	method := formatMethod(ep.method)

	color, ok := methodColors[method]
	if !ok {
		color = [3]int{128, 128, 128}
	}

	c.pdf.SetFont("Arial", "B", 11)
	c.pdf.SetFillColor(color[0], color[1], color[2])
	c.pdf.SetTextColor(255, 255, 255)
	methodWidth := float64(len(method)*3) + 8
	c.pdf.CellFormat(methodWidth, 7, method, "", 0, "C", true, 0, "")

	c.pdf.SetTextColor(0, 0, 0)
	c.pdf.CellFormat(pdfPageWidth-methodWidth, 7, " "+ep.path, "", 1, "", false, 0, "")
	c.pdf.Ln(2)

	c.pdf.SetFont("Arial", "", 8)
	c.pdf.SetTextColor(128, 128, 128)
	c.pdf.CellFormat(pdfPageWidth, 4, fmt.Sprintf("Operation ID: %s", ep.op.OperationID), "", 1, "", false, 0, "")
	c.pdf.SetTextColor(0, 0, 0)

	if ep.op.Summary != "" {
		c.pdf.SetFont("Arial", "B", 10)
		c.pdf.MultiCell(pdfPageWidth, 5, ep.op.Summary, "", "", false)
	}
	c.pdf.Ln(2)

	if len(ep.op.Parameters) > 0 {
		c.addSubHeader("Parameters")
		c.addParameterTable(ep.op.Parameters)
	}

	if ep.op.Responses.Len() > 0 {
		c.addSubHeader("Responses")
		c.addResponseTable(ep.op.Responses)
	}

	c.pdf.Ln(2)
	c.pdf.SetDrawColor(220, 220, 220)
	c.pdf.Line(pdfMarginLeft, c.pdf.GetY(), pdfMarginLeft+pdfPageWidth, c.pdf.GetY())
	c.pdf.SetDrawColor(180, 180, 180)
	c.pdf.Ln(6)
}

func (c *PDFConverter) addSubHeader(title string) {
	c.pdf.SetFont("Arial", "B", 10)
	c.pdf.SetTextColor(60, 60, 60)
	c.pdf.CellFormat(pdfPageWidth, 6, title, "", 1, "", false, 0, "")
	c.pdf.SetTextColor(0, 0, 0)
}

func (c *PDFConverter) addTableHeader(colWidths []float64, headers []string) {
	c.pdf.SetFont("Arial", "B", 8)
	c.pdf.SetFillColor(245, 245, 245)

	for i, header := range headers {
		c.pdf.CellFormat(colWidths[i], 6, header, "1", 0, "", true, 0, "")
	}
	c.pdf.Ln(-1)

	c.pdf.SetFont("Arial", "", 8)
}

func (c *PDFConverter) addParameterTable(params []*domain.Parameter) {
	colWidths := []float64{35, 20, 15, 50, 70}
	c.addTableHeader(colWidths, []string{"Name", "In", "Required", "Type", "Description"})

	for _, p := range params {
		required := "No"
		if p.Required {
			required = "Yes"
		}

		links := make([]int, len(colWidths))
		if p.Schema != nil {
			links[3] = c.modelLinks[domain.RefName(p.Schema.Ref)]
		}

		c.addTableRow(colWidths,
			[]string{p.Name, p.In, required, parameterType(p), p.Description},
			[]string{"L", "L", "C", "L", "L"},
			links,
		)
	}
	c.pdf.Ln(3)
}

func (c *PDFConverter) addResponseTable(responses *domain.OrderedMap[*domain.Response]) {
	colWidths := []float64{20, 90, 80}
	c.addTableHeader(colWidths, []string{"Code", "Description", "Schema"})

	for _, code := range responses.Keys() {
		r, _ := responses.Get(code)

		links := make([]int, len(colWidths))
		if r.Schema != nil {
			links[2] = c.modelLinks[domain.RefName(r.Schema.Ref)]
		}

		c.addTableRow(colWidths, []string{code, r.Description, schemaLabel(r.Schema)}, nil, links)
	}
	c.pdf.Ln(3)
}

func (c *PDFConverter) addModel(name string, def *domain.Schema) {
	c.pdf.SetFont("Arial", "B", 12)
	c.pdf.CellFormat(pdfPageWidth, 7, name, "", 1, "", false, 0, "")

	if def.Properties.Len() == 0 {
		c.pdf.SetFont("Arial", "I", 9)
		c.pdf.CellFormat(pdfPageWidth, 5, "No properties", "", 1, "", false, 0, "")
		c.pdf.Ln(4)

		return
	}

	colWidths := []float64{60, 130}
	c.addTableHeader(colWidths, []string{"Property", "Type"})

	for _, prop := range def.Properties.Keys() {
		schema, _ := def.Properties.Get(prop)
		c.addTableRow(colWidths, []string{prop, schemaLabel(schema)}, nil, nil)
	}
	c.pdf.Ln(6)
}

func (c *PDFConverter) checkPageBreak(height float64) {
	_, pageHeight := c.pdf.GetPageSize()
	_, _, _, bottomMargin := c.pdf.GetMargins()

	if c.pdf.GetY()+height > pageHeight-bottomMargin-10 {
		c.pdf.AddPage()
	}
}

func (c *PDFConverter) addTableRow(colWidths []float64, contents []string, aligns []string, linkIDs []int) {
	// Row height follows the cell that wraps onto the most lines.
	maxLines := 1
	for i, content := range contents {
		if lines := c.pdf.SplitLines([]byte(content), colWidths[i]); len(lines) > maxLines {
			maxLines = len(lines)
		}
	}

	rowHeight := float64(maxLines) * pdfLineHeight

	c.checkPageBreak(rowHeight)

	startX := c.pdf.GetX()
	startY := c.pdf.GetY()

	for i, content := range contents {
		width := colWidths[i]

		align := ""
		if len(aligns) > i {
			align = aligns[i]
		}

		linkID := 0
		if len(linkIDs) > i {
			linkID = linkIDs[i]
		}

		if linkID > 0 {
			c.pdf.SetTextColor(0, 102, 204)
		}

		c.pdf.SetXY(startX, startY)
		c.pdf.MultiCell(width, pdfLineHeight, content, "0", align, false)

		if linkID > 0 {
			c.pdf.Link(startX, startY, width, rowHeight, linkID)
			c.pdf.SetTextColor(0, 0, 0)
		}

		c.pdf.Rect(startX, startY, width, rowHeight, "D")

		startX += width
	}

	c.pdf.SetXY(pdfMarginLeft, startY+rowHeight)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return s[:limit-3] + "..."
}
