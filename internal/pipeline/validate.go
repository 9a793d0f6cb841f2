package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/render"
)

// FieldError describes one validation violation. Validation never stops at
// the first problem; callers always receive the complete list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"2006/01/02",
	"02.01.2006",
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFlag(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "si", "sí", "yes", "true", "1":
		return true, true
	case "", "no", "false", "0":
		return false, true
	default:
		return false, false
	}
}

// normalize trims, parses and converts the raw request into a renderer
// letter, collecting every violation instead of failing fast.
func normalize(req Request) (render.Letter, []FieldError) {
	var errs []FieldError

	letter := render.Letter{
		OfficeAddress: strings.TrimSpace(req.OfficeAddress),
		PostalCode:    strings.TrimSpace(req.PostalCode),
		OfficeCity:    strings.TrimSpace(req.OfficeCity),
		ClientName:    strings.TrimSpace(req.ClientName),
		Dates:         make(map[string]time.Time),
		Flags:         make(map[string]bool),
		Texts:         make(map[string]string),
		SignatoryName: strings.TrimSpace(req.SignatoryName),
		SignatoryRole: strings.TrimSpace(req.SignatoryRole),
	}

	required := []struct {
		field, value string
	}{
		{"Direccion_Oficina", letter.OfficeAddress},
		{"CP", letter.PostalCode},
		{"Ciudad_Oficina", letter.OfficeCity},
		{"Nombre_Cliente", letter.ClientName},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, FieldError{Field: r.field, Message: "el campo es requerido"})
		}
	}

	for field, raw := range req.dateFields() {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		t, ok := parseDate(raw)
		if !ok {
			errs = append(errs, FieldError{Field: field, Message: "debe ser una fecha valida"})
			continue
		}
		letter.Dates[field] = t
	}

	for field, raw := range req.flagFields() {
		v, ok := parseFlag(raw)
		if !ok {
			errs = append(errs, FieldError{Field: field, Message: "debe ser 'si' o 'no'"})
			continue
		}
		letter.Flags[field] = v
	}

	for field, raw := range req.textFields() {
		letter.Texts[field] = strings.TrimSpace(raw)
	}

	letter.Directors, errs = normalizeDirectors(req, errs)

	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Field != errs[j].Field {
			return errs[i].Field < errs[j].Field
		}
		return errs[i].Message < errs[j].Message
	})
	return letter, errs
}

func normalizeDirectors(req Request, errs []FieldError) ([]render.Director, []FieldError) {
	count := req.DirectorCount
	if count < 0 {
		return nil, append(errs, FieldError{Field: "director_count", Message: "no puede ser negativo"})
	}
	if count > len(req.Directors) {
		return nil, append(errs, FieldError{
			Field:   "director_count",
			Message: fmt.Sprintf("declara %d directores pero la lista contiene %d", count, len(req.Directors)),
		})
	}

	out := make([]render.Director, 0, count)
	for i := 0; i < count; i++ {
		d := render.Director{
			Name: strings.TrimSpace(req.Directors[i].Name),
			Role: strings.TrimSpace(req.Directors[i].Role),
		}
		if d.Name == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("lista_alto_directores[%d].nombre", i),
				Message: "el nombre es requerido",
			})
		}
		if d.Role == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("lista_alto_directores[%d].cargo", i),
				Message: "el cargo es requerido",
			})
		}
		out = append(out, d)
	}
	return out, errs
}
