// Package httpsink adapts an HTTP response to the sink capabilities of a BAR
// build.
package httpsink

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/GabrielNunesIT/bargen/internal/domain"
)

const (
	zipContentType  = "application/zip"
	jsonContentType = "application/json"
)

// ResponseSink streams a built archive into an HTTP response.
type ResponseSink struct {
	w http.ResponseWriter
}

// New wraps w.
func New(w http.ResponseWriter) *ResponseSink {
	return &ResponseSink{w: w}
}

// Write implements io.Writer. The first write sends the headers.
func (s *ResponseSink) Write(p []byte) (int, error) {
	header := s.w.Header()
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", zipContentType)
	}

	return s.w.Write(p)
}

// Attachment implements domain.Attacher.
func (s *ResponseSink) Attachment(filename string) {
	s.w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}

// Respond implements domain.Responder by sending err as JSON.
func (s *ResponseSink) Respond(statusCode int, err *domain.BuildError) {
	WriteError(s.w, statusCode, err)
}

// WriteError sends err as a JSON body with statusCode.
func WriteError(w http.ResponseWriter, statusCode int, err *domain.BuildError) {
	header := w.Header()
	header.Del("Content-Disposition")
	header.Set("Content-Type", jsonContentType)
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(err)
}
