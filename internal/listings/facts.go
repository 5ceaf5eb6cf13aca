package listings

import (
	"fmt"
	"sort"
	"strings"
)

// FactBlock renders a listing into the plain-text block fed to the
// completion provider. A nil listing renders to the empty string so a
// missing subject degrades the prompt instead of failing the exchange.
func FactBlock(l *Listing) string {
	if l == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Property: %s\n", l.Title)
	if l.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", l.Address)
	}
	if l.PriceCents > 0 {
		fmt.Fprintf(&b, "Price: $%s\n", formatPrice(l.PriceCents))
	}
	fmt.Fprintf(&b, "Bedrooms: %d | Bathrooms: %s | Square feet: %d\n", l.Beds, formatBaths(l.Baths), l.Sqft)
	if l.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", l.Description)
	}
	if len(l.Features) > 0 {
		fmt.Fprintf(&b, "Features: %s\n", strings.Join(l.Features, ", "))
	}
	writeAttrMap(&b, "Neighborhood", l.Neighborhood)
	writeAttrMap(&b, "Market data", l.Market)
	return strings.TrimRight(b.String(), "\n")
}

// writeAttrMap renders an untyped attribute map in stable key order.
func writeAttrMap(b *strings.Builder, label string, attrs map[string]any) {
	if len(attrs) == 0 {
		return
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s: %v", k, attrs[k]))
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(pairs, "; "))
}

func formatPrice(cents int64) string {
	dollars := cents / 100
	s := fmt.Sprintf("%d", dollars)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 && c != '-' {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}

func formatBaths(baths float64) string {
	if baths == float64(int(baths)) {
		return fmt.Sprintf("%d", int(baths))
	}
	return fmt.Sprintf("%.1f", baths)
}
