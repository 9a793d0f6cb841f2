package download

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/artifact"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/auth"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/integrity"
)

var (
	// ErrNotFound covers unknown trace ids and formats the run never
	// produced. Both look identical to the caller.
	ErrNotFound = errors.New("download: not found")
	// ErrForbidden indicates the account tier lacks the capability for the
	// requested format.
	ErrForbidden = errors.New("download: forbidden")
)

// Handle is a ready-to-serve artifact.
type Handle struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Gate authorizes artifact downloads. Checks run in a fixed order: record
// existence, format existence, then tier capability. A download never
// consumes or mutates anything, so repeated requests for the same artifact
// keep succeeding.
type Gate struct {
	registry  integrity.Registry
	artifacts artifact.Store
}

// NewGate constructs a Gate over the given registry and artifact store.
func NewGate(registry integrity.Registry, artifacts artifact.Store) *Gate {
	return &Gate{registry: registry, artifacts: artifacts}
}

// Authorize resolves one artifact for an authenticated user.
func (g *Gate) Authorize(ctx context.Context, user auth.User, traceID string, format integrity.Format) (Handle, error) {
	rec, err := g.registry.Lookup(ctx, traceID)
	if err != nil {
		if errors.Is(err, integrity.ErrNotFound) {
			return Handle{}, ErrNotFound
		}
		return Handle{}, err
	}
	if !rec.Produced(format) {
		return Handle{}, ErrNotFound
	}

	perms := auth.CapabilitiesFor(user.Tier)
	allowed := false
	switch format {
	case integrity.FormatPortable:
		allowed = perms.DownloadPortable
	case integrity.FormatEditable:
		allowed = perms.DownloadEditable
	}
	if !allowed {
		return Handle{}, ErrForbidden
	}

	data, err := g.artifacts.Get(ctx, rec.Artifacts[format].Ref)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return Handle{}, ErrNotFound
		}
		return Handle{}, err
	}

	return Handle{
		Filename:    Filename(rec, format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// Filename builds the download name from the client and the short hash code.
// The name ends up inside a quoted Content-Disposition header, so anything
// that is not filename-safe is replaced.
func Filename(rec integrity.Record, format integrity.Format) string {
	client := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, strings.TrimSpace(rec.ClientName))
	code := rec.HashCode
	if len(code) > 8 {
		code = code[:8]
	}
	return fmt.Sprintf("Carta_Manifestacion_%s_%s%s", client, code, format.Extension())
}
