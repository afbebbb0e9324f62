package bar

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/GabrielNunesIT/bargen/internal/adapters/archive"
	"github.com/GabrielNunesIT/bargen/internal/adapters/templates"
	"github.com/GabrielNunesIT/bargen/internal/domain"
	"github.com/GabrielNunesIT/bargen/internal/gate"
	"github.com/GabrielNunesIT/bargen/internal/metrics"
)

// responseSink behaves like an HTTP response.
type responseSink struct {
	bytes.Buffer
	attachment string
	status     int
	err        *domain.BuildError
}

func (s *responseSink) Attachment(filename string) { s.attachment = filename }

func (s *responseSink) Respond(statusCode int, err *domain.BuildError) {
	s.status = statusCode
	s.err = err
}

// streamSink behaves like a plain file stream.
type streamSink struct {
	bytes.Buffer
	err    *domain.BuildError
	closed bool
}

func (s *streamSink) RecordError(err *domain.BuildError) { s.err = err }

func (s *streamSink) Close() error {
	s.closed = true
	return nil
}

func newZip(w io.Writer) domain.Archive {
	return archive.NewZip(w)
}

func newBuilder(t *testing.T, opts ...Option) *Builder {
	t.Helper()

	renderer, err := templates.New()
	require.NoError(t, err)

	return New(newZip, renderer, templates.Boilerplate(), opts...)
}

func readFlow(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	return string(data)
}

func unzip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := make(map[string][]byte, len(reader.File))
	for _, f := range reader.File {
		rc, err := f.Open()
		require.NoError(t, err)

		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		entries[f.Name] = content
	}

	return entries
}

func names(entries map[string][]byte) []string {
	out := make([]string, 0, len(entries))
	for name := range entries {
		out = append(out, name)
	}
	sort.Strings(out)

	return out
}

func TestBuildSingleFlow(t *testing.T) {
	require := require.New(t)

	counters := metrics.NewCounters()
	b := newBuilder(t, WithMetrics(counters))

	sink := &responseSink{}
	outcome := b.Build(context.Background(), sink, []any{readFlow(t, "account.yaml")}, BuildParams{
		InstanceID: "instance-1",
		ServiceURL: "https://cs.example.com",
	})

	require.True(outcome.OK())
	require.Equal("Account_Service", outcome.Name)
	require.Equal("Account_Service.bar", sink.attachment)
	require.Zero(sink.status)
	require.Equal(int64(1), counters.Get(metrics.BuildSucceeded))

	entries := unzip(t, sink.Bytes())
	require.Equal([]string{
		"Account_Service.appzip",
		"Account_ServicePolicyProject/Account_Service.policyxml",
		"Account_ServicePolicyProject/policy.descriptor",
		"META-INF/manifest.mf",
	}, names(entries))

	policy := string(entries["Account_ServicePolicyProject/Account_Service.policyxml"])
	require.Contains(policy, "<connectorServiceInstanceId>instance-1</connectorServiceInstanceId>")
	require.Contains(policy, "<connectorServiceUrl>https://cs.example.com</connectorServiceUrl>")
	require.Contains(policy, "<connectorServiceApiKeyName>Account_Service</connectorServiceApiKeyName>")

	appzip := unzip(t, entries["Account_Service.appzip"])
	require.Equal([]string{
		"Account_Service.json",
		"Account_Service.yaml",
		"Account_Service_Compute.esql",
		"Account_Service_FailureHandler.esql",
		"META-INF/broker.xml",
		"META-INF/manifest.mf",
		"account_create.subflow",
		"account_findById.subflow",
		"account_patchAttributes.subflow",
		"gen/Account_Service.msgflow",
		"restapi.descriptor",
	}, names(appzip))

	require.Contains(string(appzip["account_findById.subflow"]), `includeBody="false"`)
	require.Contains(string(appzip["account_create.subflow"]), `includeBody="true"`)
	require.Contains(string(appzip["account_patchAttributes.subflow"]), `includeBody="true"`)

	require.Contains(string(appzip["Account_Service.json"]), `"title": "Account_Service"`)
	require.Contains(string(appzip["Account_Service.yaml"]), "name: Account_Service")
	require.Contains(string(appzip["gen/Account_Service.msgflow"]), `xmi:id="FCMComposite_1_10" location="440,375" labelName="account.create"`)
}

func TestBuildOverridesAPIKeyName(t *testing.T) {
	b := newBuilder(t)

	sink := &responseSink{}
	outcome := b.Build(context.Background(), sink, []any{readFlow(t, "account.yaml")}, BuildParams{APIKeyName: "shared-key"})
	require.True(t, outcome.OK())

	entries := unzip(t, sink.Bytes())
	require.Contains(t, string(entries["Account_ServicePolicyProject/Account_Service.policyxml"]),
		"<connectorServiceApiKeyName>shared-key</connectorServiceApiKeyName>")
}

func TestBuildMultipleFlows(t *testing.T) {
	require := require.New(t)

	b := newBuilder(t)

	sink := &responseSink{}
	outcome := b.Build(context.Background(), sink, []any{readFlow(t, "account.yaml"), []byte(readFlow(t, "lead.yaml"))}, BuildParams{})

	require.True(outcome.OK())
	require.Equal(MultiFlowBarName, outcome.Name)
	require.Equal("App-Connect-REST-API.bar", sink.attachment)

	entries := unzip(t, sink.Bytes())
	require.Equal([]string{
		"Account_Service.appzip",
		"Account_ServicePolicyProject/Account_Service.policyxml",
		"Account_ServicePolicyProject/policy.descriptor",
		"META-INF/manifest.mf",
		"leads.appzip",
		"leadsPolicyProject/leads.policyxml",
		"leadsPolicyProject/policy.descriptor",
	}, names(entries))

	leads := unzip(t, entries["leads.appzip"])
	require.Contains(leads, "lead_upsertWithWhere.subflow")
	require.Contains(leads, "lead_find.subflow")
	require.Contains(leads, "lead_lookup.subflow")
}

func TestBuildEmptyInput(t *testing.T) {
	require := require.New(t)

	sink := &streamSink{}
	outcome := newBuilder(t).Build(context.Background(), sink, nil, BuildParams{})

	require.True(outcome.OK())
	require.Equal(MultiFlowBarName, outcome.Name)
	require.True(sink.closed)
	require.Equal([]string{"META-INF/manifest.mf"}, names(unzip(t, sink.Bytes())))
}

func TestBuildDecodesInputs(t *testing.T) {
	text := readFlow(t, "account.yaml")

	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(text), &node))

	var value map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(text), &value))

	flow, err := domain.ParseFlow([]byte(text))
	require.NoError(t, err)

	inputs := map[string]any{
		"string":        text,
		"bytes":         []byte(text),
		"node":          &node,
		"value":         value,
		"flow document": flow,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			outcome := newBuilder(t).Build(context.Background(), &responseSink{}, []any{input}, BuildParams{})
			require.True(t, outcome.OK(), "%v", outcome.Err)
			require.Equal(t, "Account_Service", outcome.Name)
		})
	}

	t.Run("parsed input is normalized in place", func(t *testing.T) {
		name := domain.LookupPath(node.Content[0], "integration", "name")
		require.Equal(t, "Account_Service", name.Value)
	})
}

func TestBuildUnsupportedActions(t *testing.T) {
	require := require.New(t)

	counters := metrics.NewCounters()
	b := newBuilder(t,
		WithMetrics(counters),
		WithUnsupportedActions(new(gate.Denylist).Add("salesforce", "Salesforce")),
	)

	sink := &responseSink{}
	outcome := b.Build(context.Background(), sink, []any{readFlow(t, "account.yaml")}, BuildParams{})

	require.False(outcome.OK())
	require.Equal(domain.CodeUnsupportedActions, outcome.Err.MessageCode)
	require.Equal([][]string{{"Salesforce"}}, outcome.Err.PositionalInserts)
	require.Equal(400, sink.status)
	require.Same(outcome.Err, sink.err)
	require.Empty(sink.attachment)
	require.Zero(sink.Len())
	require.Equal(int64(1), counters.Get("bargen.failed.400"))
	require.Equal(int64(0), counters.Get(metrics.BuildSucceeded))

	b.SetUnsupportedActions(nil)
	require.True(b.Build(context.Background(), &responseSink{}, []any{readFlow(t, "account.yaml")}, BuildParams{}).OK())
}

func TestBuildFailures(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		code   string
		status int
	}{
		{
			name:   "undecodable text",
			input:  "integration: [",
			code:   domain.CodeBuildFailed,
			status: 400,
		},
		{
			name:   "incomplete flow",
			input:  "integration:\n  name: broken\n",
			code:   domain.CodeBuildFailed,
			status: 400,
		},
		{
			name:   "null flow name",
			input:  "integration:\n  name:\n  trigger-interfaces:\n    trigger-interface-1:\n      options:\n        resources: []\n",
			code:   domain.CodeBuildFailed,
			status: 400,
		},
		{
			name: "invalid flow keeps its classification",
			input: `
integration:
  name: broken
  trigger-interfaces:
    trigger-interface-1:
      options:
        resources:
          - business-object: ghost
            triggers:
              retrieve: {}
`,
			code:   domain.CodeInvalidFlow,
			status: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			sink := &streamSink{}
			outcome := newBuilder(t).Build(context.Background(), sink, []any{tt.input}, BuildParams{})

			require.False(outcome.OK())
			require.Equal(domain.Catalog, outcome.Err.Catalog)
			require.Equal(tt.code, outcome.Err.MessageCode)
			require.Equal(tt.status, outcome.Err.StatusCode)
			require.Same(outcome.Err, sink.err)
			require.True(sink.closed)
			require.Zero(sink.Len())
		})
	}
}

func TestBuildGenericFailureHidesDetail(t *testing.T) {
	require := require.New(t)

	outcome := newBuilder(t).Build(context.Background(), &streamSink{}, []any{"integration:\n  name: broken\n"}, BuildParams{})
	require.Equal("Unable to create bar from integration doc.", outcome.Err.Message)
	require.NotContains(outcome.Err.Message, "trigger-interface-1")
}

func TestBuildOneFailureFailsAll(t *testing.T) {
	require := require.New(t)

	sink := &responseSink{}
	outcome := newBuilder(t).Build(context.Background(), sink, []any{readFlow(t, "account.yaml"), "integration: {}"}, BuildParams{})

	require.False(outcome.OK())
	require.Empty(outcome.Name)
	require.Equal(domain.CodeBuildFailed, outcome.Err.MessageCode)
	require.Zero(sink.Len())
}

func TestBuildUnclassifiedFailureDefaultsTo500(t *testing.T) {
	require := require.New(t)

	renderer, err := templates.New()
	require.NoError(err)

	counters := metrics.NewCounters()
	b := New(newZip, renderer, fstest.MapFS{}, WithMetrics(counters))

	sink := &streamSink{}
	outcome := b.Build(context.Background(), sink, []any{readFlow(t, "account.yaml")}, BuildParams{})

	require.False(outcome.OK())
	require.Equal(500, outcome.Err.StatusCode)
	require.Empty(outcome.Err.MessageCode)
	require.Contains(outcome.Err.Message, "manifest.mf")
	require.Equal(int64(1), counters.Get("bargen.failed.500"))
	require.True(sink.closed)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestBuildSinkWriteFailure(t *testing.T) {
	outcome := newBuilder(t).Build(context.Background(), failingWriter{}, []any{readFlow(t, "account.yaml")}, BuildParams{})

	require.False(t, outcome.OK())
	require.Equal(t, 500, outcome.Err.StatusCode)
	require.ErrorContains(t, outcome.Err, "disk full")
}

type unclosableSink struct {
	bytes.Buffer
}

func (*unclosableSink) Close() error { return errors.New("flush failed") }

func TestBuildSinkCloseFailure(t *testing.T) {
	require := require.New(t)

	counters := metrics.NewCounters()
	outcome := newBuilder(t, WithMetrics(counters)).Build(context.Background(), &unclosableSink{}, []any{readFlow(t, "account.yaml")}, BuildParams{})

	require.False(outcome.OK())
	require.Equal(500, outcome.Err.StatusCode)
	require.ErrorContains(outcome.Err, "flush failed")
	require.Equal(int64(0), counters.Get(metrics.BuildSucceeded))
	require.Equal(int64(1), counters.Get("bargen.failed.500"))
}

func TestBuildIsolatedInputs(t *testing.T) {
	require := require.New(t)

	var node yaml.Node
	require.NoError(yaml.Unmarshal([]byte(readFlow(t, "account.yaml")), &node))

	outcome := newBuilder(t, WithIsolatedInputs()).Build(context.Background(), &responseSink{}, []any{&node}, BuildParams{})
	require.True(outcome.OK(), "%v", outcome.Err)
	require.Equal("Account_Service", outcome.Name)

	name := domain.LookupPath(node.Content[0], "integration", "name")
	require.Equal("Account Service", name.Value)
}

func TestSetMetricsReporterReset(t *testing.T) {
	require := require.New(t)

	counters := metrics.NewCounters()
	b := newBuilder(t, WithMetrics(counters))

	b.SetMetricsReporter(nil)
	require.True(b.Build(context.Background(), &responseSink{}, []any{readFlow(t, "account.yaml")}, BuildParams{}).OK())
	require.Equal(int64(0), counters.Get(metrics.BuildSucceeded))
}
