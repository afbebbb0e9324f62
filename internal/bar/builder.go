// Package bar assembles deployable BAR archives from integration flow
// documents.
package bar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/GabrielNunesIT/bargen/internal/domain"
	"github.com/GabrielNunesIT/bargen/internal/gate"
	"github.com/GabrielNunesIT/bargen/internal/metrics"
)

// MultiFlowBarName names a BAR built from more than one document.
const MultiFlowBarName = "App-Connect-REST-API"

// BarExtension is appended to the flow name to form the attachment name.
const BarExtension = ".bar"

// ArchiveFactory creates an archive writing to w.
type ArchiveFactory func(w io.Writer) domain.Archive

// BuildParams are the connector service settings written into every policy.
// An empty APIKeyName defaults to the flow name.
type BuildParams struct {
	InstanceID string
	ServiceURL string
	APIKeyName string
}

// Outcome is the result of a build. Err is nil on success.
type Outcome struct {
	Name string
	Err  *domain.BuildError
}

// OK reports whether the build succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(log domain.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// WithMetrics sets the metrics reporter.
func WithMetrics(reporter domain.MetricsReporter) Option {
	return func(b *Builder) {
		b.SetMetricsReporter(reporter)
	}
}

// WithUnsupportedActions sets the denylist checked before generation.
func WithUnsupportedActions(denylist *gate.Denylist) Option {
	return func(b *Builder) {
		b.SetUnsupportedActions(denylist)
	}
}

// WithIsolatedInputs makes the builder copy pre-parsed trees before
// normalizing their flow name, leaving the caller's trees untouched.
func WithIsolatedInputs() Option {
	return func(b *Builder) {
		b.isolate = true
	}
}

// Builder drives integration documents into a BAR.
type Builder struct {
	newArchive  ArchiveFactory
	renderer    domain.Renderer
	boilerplate fs.FS
	log         domain.Logger
	isolate     bool

	mu       sync.RWMutex
	metrics  domain.MetricsReporter
	denylist *gate.Denylist
}

// New creates a Builder. boilerplate holds the static files copied into every
// archive.
func New(newArchive ArchiveFactory, renderer domain.Renderer, boilerplate fs.FS, opts ...Option) *Builder {
	b := &Builder{
		newArchive:  newArchive,
		renderer:    renderer,
		boilerplate: boilerplate,
		log:         domain.NopLogger{},
		metrics:     metrics.Nop{},
		denylist:    new(gate.Denylist),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// SetMetricsReporter replaces the metrics reporter. nil restores the no-op
// reporter.
func (b *Builder) SetMetricsReporter(reporter domain.MetricsReporter) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if reporter == nil {
		reporter = metrics.Nop{}
	}

	b.metrics = reporter
}

// SetUnsupportedActions replaces the denylist. nil clears it.
func (b *Builder) SetUnsupportedActions(denylist *gate.Denylist) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if denylist == nil {
		denylist = new(gate.Denylist)
	}

	b.denylist = denylist
}

func (b *Builder) reporter() domain.MetricsReporter {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.metrics
}

func (b *Builder) unsupportedActions() *gate.Denylist {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.denylist
}

// Build processes every document concurrently into one BAR and writes it to
// sink. Build never fails: the outcome is reported through the returned
// Outcome and the capabilities sink implements (domain.Attacher,
// domain.Responder, domain.ErrorRecorder and io.Closer).
//
// Documents are raw YAML/JSON text, *yaml.Node trees, *domain.FlowDocument
// values or any value encodable as YAML. The flow name of each is normalized
// in place.
func (b *Builder) Build(ctx context.Context, sink io.Writer, docs []any, params BuildParams) Outcome {
	b.infof(ctx, "Generating bar file for instance '%s'", params.InstanceID)

	var buf bytes.Buffer
	bar := b.newArchive(&buf)

	if err := bar.File(manifestPath, b.boilerplate, manifestPath); err != nil {
		return b.fail(ctx, sink, fmt.Errorf("failed to create bar: %w", err))
	}

	names := make([]string, len(docs))

	var g errgroup.Group
	for i, doc := range docs {
		g.Go(func() error {
			name, err := b.process(ctx, bar, doc, params)
			if err != nil {
				return err
			}

			names[i] = name

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return b.fail(ctx, sink, err)
	}

	name := MultiFlowBarName
	if len(docs) == 1 {
		name = names[0]
	}

	if err := bar.Finalize(); err != nil {
		return b.fail(ctx, sink, err)
	}

	if a, ok := sink.(domain.Attacher); ok {
		a.Attachment(name + BarExtension)
	}

	if _, err := buf.WriteTo(sink); err != nil {
		return b.fail(ctx, sink, fmt.Errorf("failed to write bar: %w", err))
	}

	if err := closeSink(sink); err != nil {
		return b.fail(ctx, sink, fmt.Errorf("failed to close bar: %w", err))
	}

	b.infof(ctx, "Successfully created BAR file %s", name)
	b.reporter().Counter(metrics.BuildSucceeded)

	return Outcome{Name: name}
}

func (b *Builder) fail(ctx context.Context, sink io.Writer, err error) Outcome {
	be := domain.FromError(err)

	b.errorf(ctx, "Failed to build BAR. Error: %s", be.Message)
	b.reporter().Counter(fmt.Sprintf("%s%d", metrics.BuildFailedPrefix, be.StatusCode))

	if r, ok := sink.(domain.Responder); ok {
		r.Respond(be.StatusCode, be)
	} else {
		if rec, ok := sink.(domain.ErrorRecorder); ok {
			rec.RecordError(be)
		}

		_ = closeSink(sink)
	}

	return Outcome{Err: be}
}

func closeSink(sink io.Writer) error {
	if c, ok := sink.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

func (b *Builder) infof(ctx context.Context, format string, args ...interface{}) {
	b.log.Infof("[%s] "+format, append([]interface{}{domain.RequestID(ctx)}, args...)...)
}

func (b *Builder) errorf(ctx context.Context, format string, args ...interface{}) {
	b.log.Errorf("[%s] "+format, append([]interface{}{domain.RequestID(ctx)}, args...)...)
}
