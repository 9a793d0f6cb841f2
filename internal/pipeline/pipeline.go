package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/artifact"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/auth"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/ids"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/integrity"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/obs"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/render"
)

// ErrInternal wraps unexpected faults during rendering, hashing or
// registration. Callers surface a generic message; the cause is logged.
var ErrInternal = errors.New("pipeline: internal failure")

// Result carries the outcome of one generation run.
type Result struct {
	Success          bool
	Message          string
	TraceID          string
	Record           integrity.Record
	Degraded         bool
	ValidationErrors []FieldError
	Duration         time.Duration
}

// Pipeline validates a generation request, renders the letter, computes the
// hash chain and registers the integrity record.
type Pipeline struct {
	registry  integrity.Registry
	artifacts artifact.Store
	renderer  render.Renderer
	converter render.Converter
	pool      *render.Pool

	now        func() time.Time
	newTraceID func() string
}

// Option configures Pipeline behavior.
type Option func(*Pipeline)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.now = fn
		}
	}
}

// WithTraceIDs overrides trace id generation (useful for tests).
func WithTraceIDs(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newTraceID = fn
		}
	}
}

// WithPool overrides the renderer worker pool.
func WithPool(pool *render.Pool) Option {
	return func(p *Pipeline) {
		if pool != nil {
			p.pool = pool
		}
	}
}

// New constructs a Pipeline. The converter may be nil, in which case every
// run degrades the portable output.
func New(registry integrity.Registry, artifacts artifact.Store, renderer render.Renderer, converter render.Converter, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry:   registry,
		artifacts:  artifacts,
		renderer:   renderer,
		converter:  converter,
		pool:       render.NewPool(0, 0),
		now:        time.Now,
		newTraceID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ConverterAvailable reports whether portable-document conversion is
// currently reachable; consumed by the status boundary.
func (p *Pipeline) ConverterAvailable(ctx context.Context) bool {
	return p.converter != nil && p.converter.Available(ctx)
}

// Generate runs the full pipeline for an authenticated user. Validation
// failures and degraded conversions are reported in the Result; a non-nil
// error means an internal failure, in which case no registry record exists
// for the returned trace id.
func (p *Pipeline) Generate(ctx context.Context, req Request, user auth.User) (Result, error) {
	start := p.now()

	letter, ferrs := normalize(req)
	if len(ferrs) > 0 {
		obs.ObserveGeneration("validation_failed")
		return Result{
			Message:          "Validacion fallida.",
			ValidationErrors: ferrs,
			Duration:         p.now().Sub(start),
		}, nil
	}

	traceID := p.newTraceID()

	editable, err := p.pool.Do(ctx, func(ctx context.Context) ([]byte, error) {
		return p.renderer.Render(ctx, letter)
	})
	if err != nil {
		obs.ObserveGeneration("internal_error")
		return Result{TraceID: traceID, Duration: p.now().Sub(start)},
			fmt.Errorf("%w: render editable: %v", ErrInternal, err)
	}

	portable, degraded := p.convert(ctx, editable)

	createdAt := p.now().UTC()
	contentHash := integrity.ContentHash(editable)
	combined := integrity.CombinedHash(contentHash, traceID, user.Username, createdAt)

	rec := integrity.Record{
		TraceID:      traceID,
		HashCode:     integrity.DisplayCode(combined),
		Algorithm:    integrity.Algorithm,
		ContentHash:  contentHash,
		CombinedHash: combined,
		CreatedAt:    createdAt,
		FileSize:     int64(len(editable)),
		OwnerID:      user.Username,
		ClientName:   letter.ClientName,
		Artifacts:    make(map[integrity.Format]integrity.Artifact),
	}

	stored, err := p.storeArtifacts(ctx, &rec, editable, portable)
	if err != nil {
		p.discard(stored)
		obs.ObserveGeneration("internal_error")
		return Result{TraceID: traceID, Duration: p.now().Sub(start)},
			fmt.Errorf("%w: store artifacts: %v", ErrInternal, err)
	}

	// An abandoned request must not register: the hash-and-register step
	// completes fully or not at all.
	if err := ctx.Err(); err != nil {
		p.discard(stored)
		obs.ObserveGeneration("internal_error")
		return Result{TraceID: traceID, Duration: p.now().Sub(start)},
			fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if err := p.registry.Store(ctx, rec); err != nil {
		p.discard(stored)
		obs.ObserveGeneration("internal_error")
		return Result{TraceID: traceID, Duration: p.now().Sub(start)},
			fmt.Errorf("%w: register: %v", ErrInternal, err)
	}

	message := "Carta generada exitosamente."
	outcome := "ok"
	if degraded {
		message = "Carta generada. Conversion a PDF no disponible."
		outcome = "degraded"
	}
	obs.ObserveGeneration(outcome)

	return Result{
		Success:  true,
		Message:  message,
		TraceID:  traceID,
		Record:   rec,
		Degraded: degraded,
		Duration: p.now().Sub(start),
	}, nil
}

// convert produces the portable rendering. Any converter fault, including
// unavailability and timeout, degrades this single output only.
func (p *Pipeline) convert(ctx context.Context, editable []byte) ([]byte, bool) {
	if p.converter == nil || !p.converter.Available(ctx) {
		return nil, true
	}
	portable, err := p.pool.Do(ctx, func(ctx context.Context) ([]byte, error) {
		return p.converter.Convert(ctx, editable)
	})
	if err != nil {
		obs.LogRequest(map[string]any{
			"level": "warn",
			"msg":   "portable conversion degraded",
			"error": err.Error(),
		})
		return nil, true
	}
	return portable, false
}

func (p *Pipeline) storeArtifacts(ctx context.Context, rec *integrity.Record, editable, portable []byte) ([]string, error) {
	var stored []string

	edRef := ids.New() + integrity.FormatEditable.Extension()
	if err := p.artifacts.Put(ctx, edRef, editable); err != nil {
		return stored, err
	}
	stored = append(stored, edRef)
	rec.Artifacts[integrity.FormatEditable] = integrity.Artifact{
		Ref:         edRef,
		Size:        int64(len(editable)),
		ContentHash: rec.ContentHash,
	}

	if portable != nil {
		pdfRef := ids.New() + integrity.FormatPortable.Extension()
		if err := p.artifacts.Put(ctx, pdfRef, portable); err != nil {
			return stored, err
		}
		stored = append(stored, pdfRef)
		rec.Artifacts[integrity.FormatPortable] = integrity.Artifact{
			Ref:         pdfRef,
			Size:        int64(len(portable)),
			ContentHash: integrity.ContentHash(portable),
		}
	}
	return stored, nil
}

// discard removes artifacts of a run that will not register. Best effort;
// an orphaned blob is harmless, a registered record without its blob is not.
func (p *Pipeline) discard(refs []string) {
	for _, ref := range refs {
		_ = p.artifacts.Delete(context.Background(), ref)
	}
}
