package cli

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/GabrielNunesIT/go-libs/logger"
	"github.com/stretchr/testify/require"
)

const flow = `
integration:
  name: My Flow
  trigger-interfaces:
    trigger-interface-1:
      options:
        resources:
          - business-object: item
            triggers:
              retrieve: {}
              create: {}
  action-interfaces:
    action-interface-1:
      connector-type: box
models:
  item:
    properties:
      id:
        id: true
        type: string
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	c := New(logger.NewConsoleLogger(os.Stdout))

	var out bytes.Buffer
	c.rootCmd.SetOut(&out)
	c.rootCmd.SetErr(&out)
	c.rootCmd.SetArgs(args)

	err := c.Execute()

	return out.String(), err
}

func TestBuildCommand(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	input := writeFile(t, dir, "flow.yaml", flow)
	output := filepath.Join(dir, "out.bar")

	_, err := run(t, "build", input, "-o", output, "--instance-id", "i-1")
	require.NoError(err)

	reader, err := zip.OpenReader(output)
	require.NoError(err)
	defer reader.Close()

	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	require.Contains(names, "My_Flow.appzip")
	require.Contains(names, "META-INF/manifest.mf")
}

func TestBuildCommandRejectsUnsupportedActions(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	input := writeFile(t, dir, "flow.yaml", flow)
	cfg := writeFile(t, dir, "bargen.yaml", "unsupported_actions:\n  box: Box\n")
	output := filepath.Join(dir, "out.bar")

	_, err := run(t, "--config", cfg, "build", input, "-o", output)
	require.ErrorContains(err, "dfs0002")

	_, statErr := os.Stat(output)
	require.True(os.IsNotExist(statErr))
}

func TestBuildCommandRequiresOutput(t *testing.T) {
	_, err := run(t, "build", "flow.yaml")
	require.Error(t, err)
}

func TestSwaggerCommand(t *testing.T) {
	require := require.New(t)

	input := writeFile(t, t.TempDir(), "flow.yaml", flow)

	out, err := run(t, "swagger", input, "--validate")
	require.NoError(err)

	var doc map[string]any
	require.NoError(json.Unmarshal([]byte(out), &doc))
	require.Equal("/My_Flow", doc["basePath"])

	out, err = run(t, "swagger", input, "-f", "yaml")
	require.NoError(err)
	require.Contains(out, "basePath: /My_Flow")

	_, err = run(t, "swagger", input, "-f", "xml")
	require.ErrorContains(err, "unsupported format")
}

func TestDocsCommand(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	input := writeFile(t, dir, "flow.yaml", flow)

	for _, format := range []string{"pdf", "docx", "confluence"} {
		output := filepath.Join(dir, "api."+format)

		_, err := run(t, "docs", input, "-f", format, "-o", output)
		require.NoError(err, format)

		info, err := os.Stat(output)
		require.NoError(err)
		require.NotZero(info.Size())
	}

	_, err := run(t, "docs", input, "-f", "html", "-o", filepath.Join(dir, "api.html"))
	require.ErrorContains(err, "unsupported format")
}
