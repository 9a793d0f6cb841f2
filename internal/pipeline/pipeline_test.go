package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/artifact"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/auth"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/integrity"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/render"
)

type stubRenderer struct {
	out []byte
	err error
}

func (s stubRenderer) Render(ctx context.Context, letter render.Letter) ([]byte, error) {
	return s.out, s.err
}

type stubConverter struct {
	out       []byte
	err       error
	available bool
}

func (s stubConverter) Convert(ctx context.Context, editable []byte) ([]byte, error) {
	return s.out, s.err
}

func (s stubConverter) Available(ctx context.Context) bool { return s.available }

type failingRegistry struct{}

func (failingRegistry) Store(ctx context.Context, rec integrity.Record) error {
	return errors.New("db down")
}

func (failingRegistry) Lookup(ctx context.Context, traceID string) (integrity.Record, error) {
	return integrity.Record{}, integrity.ErrNotFound
}

func testUser() auth.User {
	return auth.User{Username: "juan.garcia", DisplayName: "Juan Garcia", Tier: auth.TierNormal}
}

func newTestPipeline(reg integrity.Registry, store artifact.Store, r render.Renderer, c render.Converter) *Pipeline {
	return New(reg, store, r, c,
		WithPool(render.NewPool(2, time.Second)),
		WithTraceIDs(newSequentialIDs()),
	)
}

func newSequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "trace-" + string(rune('0'+n))
	}
}

func TestGenerateSuccess(t *testing.T) {
	reg := integrity.NewInMemory()
	store := artifact.NewMemory()
	p := newTestPipeline(reg, store,
		stubRenderer{out: []byte("editable bytes")},
		stubConverter{out: []byte("portable bytes"), available: true})

	result, err := p.Generate(context.Background(), validRequest(), testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !result.Success || result.Degraded {
		t.Fatalf("expected clean success, got %+v", result)
	}
	if result.TraceID == "" {
		t.Fatalf("missing trace id")
	}

	rec, err := reg.Lookup(context.Background(), result.TraceID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if rec.ContentHash != integrity.ContentHash([]byte("editable bytes")) {
		t.Fatalf("content hash does not match the editable bytes")
	}
	want := integrity.CombinedHash(rec.ContentHash, rec.TraceID, "juan.garcia", rec.CreatedAt)
	if rec.CombinedHash != want {
		t.Fatalf("combined hash chain broken: %q vs %q", rec.CombinedHash, want)
	}
	if rec.HashCode != integrity.DisplayCode(rec.CombinedHash) {
		t.Fatalf("display code mismatch")
	}
	if !rec.Produced(integrity.FormatEditable) || !rec.Produced(integrity.FormatPortable) {
		t.Fatalf("both formats expected, got %v", rec.Artifacts)
	}

	// Artifacts must be retrievable under the recorded refs.
	data, err := store.Get(context.Background(), rec.Artifacts[integrity.FormatPortable].Ref)
	if err != nil {
		t.Fatalf("get portable: %v", err)
	}
	if string(data) != "portable bytes" {
		t.Fatalf("unexpected portable bytes: %q", data)
	}
}

func TestGenerateValidationFailureRegistersNothing(t *testing.T) {
	reg := integrity.NewInMemory()
	p := newTestPipeline(reg, artifact.NewMemory(),
		stubRenderer{out: []byte("x")},
		stubConverter{available: true})

	result, err := p.Generate(context.Background(), Request{}, testUser())
	if err != nil {
		t.Fatalf("validation failure is not an internal error: %v", err)
	}
	if result.Success {
		t.Fatalf("expected failure result")
	}
	if len(result.ValidationErrors) == 0 {
		t.Fatalf("expected validation errors")
	}
	if result.TraceID != "" {
		t.Fatalf("no trace id may be assigned before validation passes")
	}
	if reg.Len() != 0 {
		t.Fatalf("nothing may register on validation failure")
	}
}

func TestGenerateDegradesPortableOnly(t *testing.T) {
	reg := integrity.NewInMemory()
	p := newTestPipeline(reg, artifact.NewMemory(),
		stubRenderer{out: []byte("editable bytes")},
		stubConverter{err: render.ErrUnavailable, available: true})

	result, err := p.Generate(context.Background(), validRequest(), testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !result.Success || !result.Degraded {
		t.Fatalf("expected degraded success, got %+v", result)
	}

	rec, err := reg.Lookup(context.Background(), result.TraceID)
	if err != nil {
		t.Fatalf("degraded run must still register: %v", err)
	}
	if !rec.Produced(integrity.FormatEditable) {
		t.Fatalf("editable artifact must survive degradation")
	}
	if rec.Produced(integrity.FormatPortable) {
		t.Fatalf("degraded run must not record a portable artifact")
	}
}

func TestGenerateDegradesWhenConverterAbsent(t *testing.T) {
	reg := integrity.NewInMemory()
	p := newTestPipeline(reg, artifact.NewMemory(),
		stubRenderer{out: []byte("editable bytes")}, nil)

	result, err := p.Generate(context.Background(), validRequest(), testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !result.Degraded {
		t.Fatalf("missing converter must degrade")
	}
}

func TestGenerateRendererFailureIsInternal(t *testing.T) {
	reg := integrity.NewInMemory()
	p := newTestPipeline(reg, artifact.NewMemory(),
		stubRenderer{err: errors.New("template corrupt")},
		stubConverter{available: true})

	_, err := p.Generate(context.Background(), validRequest(), testUser())
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("failed run must not register")
	}
}

func TestGenerateRegistryFailureCleansArtifacts(t *testing.T) {
	store := artifact.NewMemory()
	p := newTestPipeline(failingRegistry{}, store,
		stubRenderer{out: []byte("editable bytes")},
		stubConverter{out: []byte("portable"), available: true})

	result, err := p.Generate(context.Background(), validRequest(), testUser())
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if result.Success {
		t.Fatalf("registry failure must not report success")
	}
}

func TestGenerateCancelledContextRegistersNothing(t *testing.T) {
	reg := integrity.NewInMemory()
	ctx, cancel := context.WithCancel(context.Background())

	p := New(reg, artifact.NewMemory(),
		stubRenderer{out: []byte("editable bytes")},
		stubConverter{available: false},
		WithPool(render.NewPool(1, time.Second)))

	cancel()
	if _, err := p.Generate(ctx, validRequest(), testUser()); err == nil {
		t.Fatalf("cancelled context must fail")
	}
	if reg.Len() != 0 {
		t.Fatalf("cancelled run must not register")
	}
}
