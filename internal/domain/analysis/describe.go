package analysis

import "strings"

// DescribeFurniture renders suggestions as a comma separated clause,
// e.g. "Rack (sala) em MDF com acabamento laca fosca, Sofá (estofado)".
func DescribeFurniture(items []FurnitureSuggestion) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		var b strings.Builder
		b.WriteString(strings.TrimSpace(it.Name))
		b.WriteString(" (")
		b.WriteString(strings.TrimSpace(it.Type))
		b.WriteString(")")
		if v := optional(it.Material); v != "" {
			b.WriteString(" em ")
			b.WriteString(v)
		}
		if v := optional(it.Finish); v != "" {
			b.WriteString(" com acabamento ")
			b.WriteString(v)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ", ")
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
