package render

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func sampleLetter() Letter {
	return Letter{
		OfficeAddress: "Calle Mayor 1",
		PostalCode:    "28001",
		OfficeCity:    "Madrid",
		ClientName:    "Acme SL",
		Dates: map[string]time.Time{
			"Fecha_de_hoy": time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			"Fecha_cierre": time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		Flags: map[string]bool{
			"comision": true,
			"junta":    false,
		},
		Texts: map[string]string{
			"organo":         "Consejo de Administracion",
			"Lista_Abogados": "",
		},
		Directors: []Director{
			{Name: "Juan Garcia", Role: "Presidente"},
			{Name: "Maria Lopez", Role: "Consejera"},
		},
		SignatoryName: "Juan Garcia",
		SignatoryRole: "Presidente",
	}
}

func TestLetterRendererDeterministic(t *testing.T) {
	r := LetterRenderer{}
	first, err := r.Render(context.Background(), sampleLetter())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Render(context.Background(), sampleLetter())
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("identical input must render identical bytes")
		}
	}
}

func TestLetterRendererContent(t *testing.T) {
	out, err := LetterRenderer{}.Render(context.Background(), sampleLetter())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	text := string(out)
	for _, want := range []string{
		"Acme SL",
		"Calle Mayor 1, 28001 Madrid",
		"Fecha_cierre: 31/12/2024",
		"comision: si",
		"junta: no",
		"1. Juan Garcia - Presidente",
		"2. Maria Lopez - Consejera",
		"Firmado: Juan Garcia, Presidente",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("rendered letter missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Lista_Abogados") {
		t.Fatalf("empty text fields must be omitted:\n%s", text)
	}
}

func TestLetterRendererHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (LetterRenderer{}).Render(ctx, sampleLetter()); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
