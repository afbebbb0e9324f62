package domain

import (
	"context"
	"io"
	"io/fs"
)

// Converter renders a generated API definition in a document format.
type Converter interface {
	// Convert writes the API reference for doc to output.
	Convert(doc *Swagger, output io.Writer) error

	// Format returns the output format name (e.g., "pdf", "docx").
	Format() string
}

// Archive is a container of named entries. Append and File may be called
// concurrently before Finalize.
type Archive interface {
	Append(name string, data []byte) error
	File(name string, fsys fs.FS, path string) error
	Finalize() error
}

// Renderer expands a named template against a parameter object.
type Renderer interface {
	Render(name string, params any) (string, error)
}

// MetricsReporter receives build counters.
type MetricsReporter interface {
	Counter(name string)
}

// Logger is the subset of the application logger used by the build pipeline.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NopLogger discards every message.
type NopLogger struct{}

// Infof implements Logger.
func (NopLogger) Infof(string, ...interface{}) {}

// Errorf implements Logger.
func (NopLogger) Errorf(string, ...interface{}) {}

// Attacher is implemented by sinks that can name the archive they receive.
type Attacher interface {
	Attachment(filename string)
}

// Responder is implemented by sinks that answer a failed build with a status
// code and the error body.
type Responder interface {
	Respond(statusCode int, err *BuildError)
}

// ErrorRecorder is implemented by sinks that keep the failure of a build.
type ErrorRecorder interface {
	RecordError(err *BuildError)
}

type requestIDKey struct{}

// ContextWithRequestID tags ctx with the id used to correlate log lines.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by ContextWithRequestID, or "-".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}

	return "-"
}
