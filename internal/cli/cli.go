// Package cli provides the command-line interface for bargen.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/GabrielNunesIT/go-libs/logger"
	"github.com/spf13/cobra"

	"github.com/GabrielNunesIT/bargen/internal/adapters/archive"
	"github.com/GabrielNunesIT/bargen/internal/adapters/converters"
	"github.com/GabrielNunesIT/bargen/internal/adapters/templates"
	"github.com/GabrielNunesIT/bargen/internal/bar"
	"github.com/GabrielNunesIT/bargen/internal/config"
	"github.com/GabrielNunesIT/bargen/internal/domain"
	"github.com/GabrielNunesIT/bargen/internal/gate"
	"github.com/GabrielNunesIT/bargen/internal/metrics"
	"github.com/GabrielNunesIT/bargen/internal/server"
	"github.com/GabrielNunesIT/bargen/internal/swagger"
)

// CLI holds the command-line interface configuration.
type CLI struct {
	log        logger.ILogger
	rootCmd    *cobra.Command
	cfg        *config.Config
	configFile string

	outputFile    string
	swaggerFormat string
	docsFormat    string
	validate      bool
	params        bar.BuildParams
	listenAddr    string
}

// New creates a new CLI instance.
func New(log logger.ILogger) *CLI {
	cli := &CLI{
		log: log,
	}

	cli.rootCmd = &cobra.Command{
		Use:               "bargen",
		Short:             "Generate REST API definitions and BAR archives from integration flows",
		Long:              "A CLI tool that turns integration flow documents into Swagger 2.0 API definitions, API reference documents and deployable BAR archives.",
		SilenceUsage:      true,
		PersistentPreRunE: cli.loadConfig,
	}

	cli.rootCmd.PersistentFlags().StringVarP(&cli.configFile, "config", "c", "", "Path to a YAML configuration file")

	cli.rootCmd.AddCommand(cli.buildCmd(), cli.swaggerCmd(), cli.docsCmd(), cli.serveCmd())

	return cli
}

// Execute runs the CLI.
func (c *CLI) Execute() error {
	return c.rootCmd.Execute()
}

func (c *CLI) loadConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return err
	}

	c.cfg = cfg

	return nil
}

func (c *CLI) buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <flow.yaml>...",
		Short: "Build a BAR archive from one or more flow documents",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.runBuild,
	}

	cmd.Flags().StringVarP(&c.outputFile, "output", "o", "", "Path for the BAR file (required)")
	cmd.Flags().StringVar(&c.params.InstanceID, "instance-id", "", "Connector service instance ID")
	cmd.Flags().StringVar(&c.params.ServiceURL, "cs-url", "", "Connector service URL")
	cmd.Flags().StringVar(&c.params.APIKeyName, "api-key-name", "", "Resource holding the connector service API key (defaults to the flow name)")

	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (c *CLI) swaggerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swagger <flow.yaml>",
		Short: "Generate the Swagger 2.0 definition of a flow",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runSwagger,
	}

	cmd.Flags().StringVarP(&c.outputFile, "output", "o", "", "Path for the output file (default stdout)")
	cmd.Flags().StringVarP(&c.swaggerFormat, "format", "f", "json", "Output format: json, yaml")
	cmd.Flags().BoolVar(&c.validate, "validate", false, "Validate the generated definition")

	return cmd
}

func (c *CLI) docsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs <flow.yaml>",
		Short: "Render the API reference of a flow as PDF, Word or Confluence",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runDocs,
	}

	cmd.Flags().StringVarP(&c.outputFile, "output", "o", "", "Path for the output file (required)")
	cmd.Flags().StringVarP(&c.docsFormat, "format", "f", "pdf", "Output format: pdf, docx, confluence")

	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (c *CLI) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve BAR generation over HTTP",
		Args:  cobra.NoArgs,
		RunE:  c.runServe,
	}

	cmd.Flags().StringVar(&c.listenAddr, "addr", "", "Listen address (overrides the configuration)")

	return cmd
}

func (c *CLI) newBuilder(reporter domain.MetricsReporter) (*bar.Builder, error) {
	renderer, err := templates.New()
	if err != nil {
		return nil, err
	}

	return bar.New(
		func(w io.Writer) domain.Archive { return archive.NewZip(w) },
		renderer,
		templates.Boilerplate(),
		bar.WithLogger(c.log),
		bar.WithMetrics(reporter),
		bar.WithUnsupportedActions(gate.NewDenylist(c.cfg.UnsupportedActions)),
	), nil
}

func (c *CLI) runBuild(cmd *cobra.Command, args []string) error {
	docs := make([]any, 0, len(args))

	for _, path := range args {
		c.log.Infof("Loading flow document from: %s", path)

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read flow document: %w", err)
		}

		docs = append(docs, data)
	}

	if dir := filepath.Dir(c.outputFile); dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("output directory %s does not exist", dir)
		}
	}

	builder, err := c.newBuilder(nil)
	if err != nil {
		return err
	}

	outputFile, err := os.Create(c.outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	params := bar.BuildParams{
		InstanceID: valueOr(c.params.InstanceID, c.cfg.InstanceID),
		ServiceURL: valueOr(c.params.ServiceURL, c.cfg.ServiceURL),
		APIKeyName: valueOr(c.params.APIKeyName, c.cfg.APIKeyName),
	}

	// The builder closes the file once the archive is written.
	outcome := builder.Build(contextOf(cmd), outputFile, docs, params)
	if !outcome.OK() {
		_ = os.Remove(c.outputFile)
		return fmt.Errorf("failed to build BAR: %w", outcome.Err)
	}

	c.log.Infof("Successfully created: %s", c.outputFile)

	return nil
}

func (c *CLI) loadDocument(path string) (*swagger.Document, error) {
	c.log.Infof("Loading flow document from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow document: %w", err)
	}

	flow, err := domain.ParseFlow(data)
	if err != nil {
		return nil, err
	}

	doc, err := swagger.New(flow)
	if err != nil {
		return nil, fmt.Errorf("failed to generate API definition: %w", err)
	}

	c.log.Infof("Generated API: %s (%d paths)", doc.Title(), doc.Swagger().Paths.Len())

	return doc, nil
}

func (c *CLI) runSwagger(cmd *cobra.Command, args []string) error {
	doc, err := c.loadDocument(args[0])
	if err != nil {
		return err
	}

	if c.validate || c.cfg.Validate {
		if err := swagger.Validate(contextOf(cmd), doc.Swagger()); err != nil {
			return err
		}
	}

	var out []byte

	switch strings.ToLower(c.swaggerFormat) {
	case "json":
		out, err = doc.JSON()
		out = append(out, '\n')
	case "yaml", "yml":
		out, err = doc.YAML()
	default:
		return fmt.Errorf("unsupported format: %s (supported: json, yaml)", c.swaggerFormat)
	}

	if err != nil {
		return err
	}

	if c.outputFile == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}

	if err := os.WriteFile(c.outputFile, out, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	c.log.Infof("Successfully created: %s", c.outputFile)

	return nil
}

func (c *CLI) runDocs(_ *cobra.Command, args []string) error {
	converter, err := c.getConverter()
	if err != nil {
		return err
	}

	doc, err := c.loadDocument(args[0])
	if err != nil {
		return err
	}

	c.log.Infof("Converting to %s format...", converter.Format())

	outputFile, err := os.Create(c.outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outputFile.Close()

	if err := converter.Convert(doc.Swagger(), outputFile); err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	c.log.Infof("Successfully created: %s", c.outputFile)

	return nil
}

func (c *CLI) getConverter() (domain.Converter, error) {
	switch strings.ToLower(c.docsFormat) {
	case "pdf":
		return converters.NewPDFConverter(), nil
	case "docx", "word":
		return converters.NewDocxConverter(), nil
	case "confluence", "adf":
		return converters.NewADFConverter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: pdf, docx, confluence)", c.docsFormat)
	}
}

func (c *CLI) runServe(cmd *cobra.Command, _ []string) error {
	if c.listenAddr != "" {
		c.cfg.ListenAddr = c.listenAddr
	}

	counters := metrics.NewCounters()

	builder, err := c.newBuilder(counters)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(builder, counters, c.cfg, c.log).Run(ctx)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

func valueOr(v, fallback string) string {
	if v != "" {
		return v
	}

	return fallback
}
