package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Catalog is the message catalog every build error belongs to.
const Catalog = "designer-flows-software"

// Message codes of the build errors.
const (
	CodeUnsupportedActions = "dfs0002"
	CodeBuildFailed        = "dfs0003"
	CodeInvalidFlow        = "dfs0004"
)

// BuildError is a classified failure reported to the caller of a build.
type BuildError struct {
	Catalog           string     `json:"catalog"`
	MessageCode       string     `json:"messageCode"`
	Message           string     `json:"message"`
	PositionalInserts [][]string `json:"positionalInserts,omitempty"`
	StatusCode        int        `json:"statusCode"`

	cause error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.MessageCode == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.MessageCode, e.Message)
}

// Unwrap returns the underlying failure, if any.
func (e *BuildError) Unwrap() error {
	return e.cause
}

// NewUnsupportedActionsError reports the labels of the denied actions found in a flow.
func NewUnsupportedActionsError(labels []string) *BuildError {
	return &BuildError{
		Catalog:           Catalog,
		MessageCode:       CodeUnsupportedActions,
		Message:           "Flow contains unsupported actions.",
		PositionalInserts: [][]string{labels},
		StatusCode:        http.StatusBadRequest,
	}
}

// NewBuildFailedError hides cause behind the generic build failure.
func NewBuildFailedError(cause error) *BuildError {
	return &BuildError{
		Catalog:     Catalog,
		MessageCode: CodeBuildFailed,
		Message:     "Unable to create bar from integration doc.",
		StatusCode:  http.StatusBadRequest,
		cause:       cause,
	}
}

// NewInvalidFlowError reports a flow document that is complete but cannot be
// turned into an API definition.
func NewInvalidFlowError(format string, args ...any) *BuildError {
	return &BuildError{
		Catalog:           Catalog,
		MessageCode:       CodeInvalidFlow,
		Message:           "Integration doc is not valid.",
		PositionalInserts: [][]string{{fmt.Sprintf(format, args...)}},
		StatusCode:        http.StatusBadRequest,
	}
}

// AsBuildError returns the classified error in err's chain, if any.
func AsBuildError(err error) (*BuildError, bool) {
	var be *BuildError
	if errors.As(err, &be) {
		return be, true
	}

	return nil, false
}

// FromError converts any failure into a BuildError, defaulting the status
// code to 500 when none is set.
func FromError(err error) *BuildError {
	be, ok := AsBuildError(err)
	if !ok {
		be = &BuildError{Message: err.Error(), cause: err}
	}

	if be.StatusCode == 0 {
		be.StatusCode = http.StatusInternalServerError
	}

	return be
}
