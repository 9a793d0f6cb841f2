package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// SofficeConverter shells out to LibreOffice to produce the portable PDF
// rendering of an editable document.
type SofficeConverter struct {
	Path string
}

var _ Converter = (*SofficeConverter)(nil)

// LocateSoffice finds a LibreOffice binary on PATH.
func LocateSoffice() (string, bool) {
	for _, name := range []string{"soffice", "libreoffice"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// NewSofficeConverter builds a converter for the given binary path. An empty
// path triggers a PATH lookup; the converter still constructs when nothing is
// found and reports unavailable instead.
func NewSofficeConverter(path string) *SofficeConverter {
	if path == "" {
		path, _ = LocateSoffice()
	}
	return &SofficeConverter{Path: path}
}

// Available reports whether the converter binary exists.
func (c *SofficeConverter) Available(ctx context.Context) bool {
	if c == nil || c.Path == "" {
		return false
	}
	_, err := os.Stat(c.Path)
	return err == nil
}

// Convert writes the editable bytes to a scratch directory and runs a
// headless conversion. Context cancellation kills the process; both a missing
// binary and a timeout surface as ErrUnavailable so callers degrade the
// portable output only.
func (c *SofficeConverter) Convert(ctx context.Context, editable []byte) ([]byte, error) {
	if !c.Available(ctx) {
		return nil, ErrUnavailable
	}

	dir, err := os.MkdirTemp("", "carta-convert-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input.docx")
	if err := os.WriteFile(in, editable, 0o600); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, c.Path, "--headless", "--convert-to", "pdf", "--outdir", dir, in)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, firstLine(out))
	}

	pdf, err := os.ReadFile(filepath.Join(dir, "input.pdf"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrUnavailable
	}
	return pdf, err
}

func firstLine(out []byte) string {
	for i, b := range out {
		if b == '\n' {
			return string(out[:i])
		}
	}
	return string(out)
}
