package render

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks a rendering backend that could not serve the call:
// not installed, not reachable, or timed out. Callers degrade the affected
// output format instead of failing the whole request.
var ErrUnavailable = errors.New("render: backend unavailable")

// Director is one entry of the governing-body list printed in the letter.
type Director struct {
	Name string `json:"nombre"`
	Role string `json:"cargo"`
}

// Letter carries the normalized field values a renderer consumes. All text is
// trimmed, flags are real booleans and dates are parsed calendar dates.
type Letter struct {
	OfficeAddress string
	PostalCode    string
	OfficeCity    string
	ClientName    string

	Dates map[string]time.Time
	Flags map[string]bool
	Texts map[string]string

	Directors     []Director
	SignatoryName string
	SignatoryRole string
}

// Renderer turns a normalized letter into an editable document artifact.
type Renderer interface {
	Render(ctx context.Context, letter Letter) ([]byte, error)
}

// Converter produces the portable rendering of an editable artifact.
// Available is a cheap reachability probe consumed by the status endpoint
// and by the pipeline's degrade decision.
type Converter interface {
	Convert(ctx context.Context, editable []byte) ([]byte, error)
	Available(ctx context.Context) bool
}
