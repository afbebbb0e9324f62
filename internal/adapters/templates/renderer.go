// Package templates expands the named templates that make up the generated
// message flows, descriptors and policies of a BAR.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"text/template"
)

// Template names.
const (
	Policy            = "policy"
	Descriptor        = "descriptor"
	ESQL              = "esql"
	ESQLFailure       = "esql_FailureHandler"
	MainFlow          = "mainflow"
	BrokerXML         = "brokerxml"
	SubflowWithBody   = "subflow_with_body"
	SubflowNoBody     = "subflow_no_body"
	templateExtension = ".tmpl"
)

//go:embed assets/*.tmpl
var assetsFS embed.FS

//go:embed all:boilerplate
var boilerplateFS embed.FS

// Renderer expands embedded templates by name.
type Renderer struct {
	templates *template.Template
}

// New parses every embedded template.
func New() (*Renderer, error) {
	tpl, err := template.New("bar").Option("missingkey=error").ParseFS(assetsFS, "assets/*"+templateExtension)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{templates: tpl}, nil
}

// Render expands the template called name against params.
func (r *Renderer) Render(name string, params any) (string, error) {
	tpl := r.templates.Lookup(name + templateExtension)
	if tpl == nil {
		return "", fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}

	return buf.String(), nil
}

// Boilerplate returns the static files copied verbatim into every BAR.
func Boilerplate() fs.FS {
	sub, err := fs.Sub(boilerplateFS, "boilerplate")
	if err != nil {
		panic(err)
	}

	return sub
}
