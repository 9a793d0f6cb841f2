package artifact

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if err := s.Put(ctx, "a.docx", []byte("hola")); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, err := s.Get(ctx, "a.docx")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "hola" {
		t.Fatalf("unexpected data: %q", data)
	}

	// Mutating the returned slice must not touch the stored copy.
	data[0] = 'X'
	again, err := s.Get(ctx, "a.docx")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(again) != "hola" {
		t.Fatalf("stored bytes were mutated: %q", again)
	}
}

func TestMemoryNotFoundAndDelete(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Put(ctx, "a.pdf", []byte("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete(ctx, "a.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "a.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDirRoundTrip(t *testing.T) {
	s, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("new dir: %v", err)
	}
	ctx := context.Background()

	if err := s.Put(ctx, "a.docx", []byte("hola")); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, err := s.Get(ctx, "a.docx")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "hola" {
		t.Fatalf("unexpected data: %q", data)
	}
	if err := s.Delete(ctx, "a.docx"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "a.docx"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Deleting twice is a no-op.
	if err := s.Delete(ctx, "a.docx"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestDirRejectsEscapingRefs(t *testing.T) {
	s, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("new dir: %v", err)
	}
	for _, ref := range []string{"", "../etc/passwd", "a/b.docx", `a\b.docx`, "..", "a..b/../c"} {
		if err := s.Put(context.Background(), ref, []byte("x")); err == nil {
			t.Fatalf("ref %q should be rejected", ref)
		}
	}
}
