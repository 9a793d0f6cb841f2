package render

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// LetterRenderer is the built-in deterministic renderer used when no external
// rendering service is configured. Identical input always yields identical
// bytes: sections are emitted in a fixed order and map-backed fields are
// sorted by key before writing.
type LetterRenderer struct{}

func (LetterRenderer) Render(ctx context.Context, letter Letter) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("CARTA DE MANIFESTACION\n")
	b.WriteString("======================\n\n")
	fmt.Fprintf(&b, "Oficina: %s, %s %s\n", letter.OfficeAddress, letter.PostalCode, letter.OfficeCity)
	fmt.Fprintf(&b, "Cliente: %s\n\n", letter.ClientName)

	writeSortedDates(&b, letter.Dates)
	writeSortedTexts(&b, letter.Texts)
	writeSortedFlags(&b, letter.Flags)

	if len(letter.Directors) > 0 {
		b.WriteString("\nAlta direccion:\n")
		for i, d := range letter.Directors {
			fmt.Fprintf(&b, "  %d. %s - %s\n", i+1, d.Name, d.Role)
		}
	}

	if letter.SignatoryName != "" || letter.SignatoryRole != "" {
		fmt.Fprintf(&b, "\nFirmado: %s, %s\n", letter.SignatoryName, letter.SignatoryRole)
	}

	return []byte(b.String()), nil
}

func writeSortedDates(b *strings.Builder, dates map[string]time.Time) {
	for _, k := range sortedKeys(dates) {
		fmt.Fprintf(b, "%s: %s\n", k, dates[k].Format("02/01/2006"))
	}
}

func writeSortedTexts(b *strings.Builder, texts map[string]string) {
	for _, k := range sortedKeys(texts) {
		if texts[k] == "" {
			continue
		}
		fmt.Fprintf(b, "%s: %s\n", k, texts[k])
	}
}

func writeSortedFlags(b *strings.Builder, flags map[string]bool) {
	for _, k := range sortedKeys(flags) {
		v := "no"
		if flags[k] {
			v = "si"
		}
		fmt.Fprintf(b, "%s: %s\n", k, v)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
