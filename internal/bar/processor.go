package bar

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/GabrielNunesIT/bargen/internal/adapters/templates"
	"github.com/GabrielNunesIT/bargen/internal/domain"
	"github.com/GabrielNunesIT/bargen/internal/gate"
	"github.com/GabrielNunesIT/bargen/internal/swagger"
)

const (
	manifestPath         = "META-INF/manifest.mf"
	policyDescriptorPath = "PolicyProject/policy.descriptor"
)

// decode turns raw text or an already decoded tree into a flow document.
func decode(input any) (*domain.FlowDocument, error) {
	switch v := input.(type) {
	case *domain.FlowDocument:
		return v, nil
	case *yaml.Node:
		return domain.NewFlowDocument(v)
	case []byte:
		return domain.ParseFlow(v)
	case string:
		return domain.ParseFlow([]byte(v))
	default:
		return domain.FlowFromValue(v)
	}
}

// process adds one integration document to bar and returns its flow name.
// Failures that are not already classified are reported as a generic build
// failure.
func (b *Builder) process(ctx context.Context, bar domain.Archive, input any, params BuildParams) (string, error) {
	name, err := b.processIntegrationDoc(ctx, bar, input, params)
	if err != nil {
		return "", b.classify(ctx, err)
	}

	return name, nil
}

// classify returns err unchanged when it is already a BuildError and the
// generic build failure otherwise.
func (b *Builder) classify(ctx context.Context, err error) *domain.BuildError {
	if be, ok := domain.AsBuildError(err); ok {
		b.errorf(ctx, "%s", be.Message)
		return be
	}

	b.errorf(ctx, "Unable to create a bar file from the integration doc provided: %v", err)

	return domain.NewBuildFailedError(err)
}

func (b *Builder) processIntegrationDoc(ctx context.Context, bar domain.Archive, input any, params BuildParams) (string, error) {
	flow, err := decode(input)
	if err != nil {
		return "", err
	}

	if b.isolate {
		if flow, err = flow.Clone(); err != nil {
			return "", err
		}
	}

	if err := b.checkUnsupportedActions(ctx, flow); err != nil {
		return "", err
	}

	doc, err := swagger.New(flow)
	if err != nil {
		return "", err
	}

	def := ParseAPIDefinition(doc.Swagger())
	def.CSInstanceID = params.InstanceID
	def.CSURL = params.ServiceURL
	def.CSAPIKeyName = params.APIKeyName
	if def.CSAPIKeyName == "" {
		def.CSAPIKeyName = def.MainFlowName
	}

	if err := b.addIntegration(ctx, bar, def, doc); err != nil {
		return "", err
	}

	return def.MainFlowName, nil
}

func (b *Builder) checkUnsupportedActions(ctx context.Context, flow *domain.FlowDocument) error {
	err := gate.Check(flow, b.unsupportedActions())
	if err == nil {
		b.infof(ctx, "No unsupported actions found in flow")
		return nil
	}

	if be, ok := domain.AsBuildError(err); ok && len(be.PositionalInserts) > 0 {
		b.infof(ctx, "Flow contains the following unsupported actions: %s", strings.Join(be.PositionalInserts[0], ","))
	}

	return err
}

// addIntegration adds the policy project and the appzip of one flow.
func (b *Builder) addIntegration(ctx context.Context, bar domain.Archive, def *APIDefinition, doc *swagger.Document) error {
	flow := def.MainFlowName
	project := flow + "PolicyProject/"

	policy, err := b.renderer.Render(templates.Policy, def)
	if err != nil {
		return err
	}

	if err := bar.Append(project+flow+".policyxml", []byte(policy)); err != nil {
		return err
	}

	if err := bar.File(project+"policy.descriptor", b.boilerplate, policyDescriptorPath); err != nil {
		return err
	}

	appzip, err := b.createAppzip(ctx, def, doc)
	if err != nil {
		return err
	}

	return bar.Append(flow+".appzip", appzip)
}

type renderedEntry struct {
	template string
	entry    string
	params   any
}

// createAppzip builds the nested application archive of one flow.
func (b *Builder) createAppzip(ctx context.Context, def *APIDefinition, doc *swagger.Document) ([]byte, error) {
	flow := def.MainFlowName

	var buf bytes.Buffer
	appzip := b.newArchive(&buf)

	rendered := []renderedEntry{
		{templates.Descriptor, "restapi.descriptor", def},
		{templates.ESQL, flow + "_Compute.esql", def},
		{templates.ESQLFailure, flow + "_FailureHandler.esql", def},
		{templates.MainFlow, "gen/" + flow + ".msgflow", def},
	}

	for _, op := range def.Operations {
		name := templates.SubflowNoBody
		if op.HasBody() {
			name = templates.SubflowWithBody
		}

		rendered = append(rendered, renderedEntry{name, op.SubflowName + ".subflow", op})
	}

	for _, r := range rendered {
		if err := b.appendTemplate(appzip, r.template, r.entry, r.params); err != nil {
			return nil, err
		}
	}

	api, err := doc.JSON()
	if err != nil {
		return nil, err
	}

	if err := appzip.Append(flow+".json", api); err != nil {
		return nil, err
	}

	source, err := doc.FlowDoc()
	if err != nil {
		return nil, fmt.Errorf("failed to encode flow document: %w", err)
	}

	if err := appzip.Append(flow+".yaml", source); err != nil {
		return nil, err
	}

	if err := appzip.File(manifestPath, b.boilerplate, manifestPath); err != nil {
		return nil, err
	}

	if err := b.appendTemplate(appzip, templates.BrokerXML, "META-INF/broker.xml", def); err != nil {
		return nil, err
	}

	if err := appzip.Finalize(); err != nil {
		return nil, err
	}

	b.infof(ctx, "Successfully built appzip")

	return buf.Bytes(), nil
}

func (b *Builder) appendTemplate(a domain.Archive, template, entry string, params any) error {
	text, err := b.renderer.Render(template, params)
	if err != nil {
		return err
	}

	return a.Append(entry, []byte(text))
}
