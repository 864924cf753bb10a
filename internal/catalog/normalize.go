package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical casing for common apparel size tokens, keyed by the label
// lowercased with spaces removed.
var canonicalSizes = map[string]string{
	"xs":       "XS",
	"s":        "S",
	"m":        "M",
	"l":        "L",
	"xl":       "XL",
	"xxl":      "XXL",
	"xxxl":     "XXXL",
	"xxxxl":    "XXXXL",
	"2xl":      "2XL",
	"3xl":      "3XL",
	"4xl":      "4XL",
	"onesize":  "One Size",
	"os":       "One Size",
	"free":     "Free Size",
	"freesize": "Free Size",
}

// Region code prefixes are preserved in upper case ("eu 42" -> "EU 42").
var regionCodes = map[string]string{
	"eu": "EU",
	"us": "US",
	"uk": "UK",
	"jp": "JP",
}

var titleCaser = cases.Title(language.English)

// NormalizeSize maps a size label to its canonical form. Known apparel
// tokens, numeric sizes and region codes keep their conventional casing;
// any other free text is title-cased. The function is idempotent.
func NormalizeSize(label string) string {
	trimmed := strings.Join(strings.Fields(label), " ")
	if trimmed == "" {
		return ""
	}

	key := strings.ToLower(strings.ReplaceAll(trimmed, " ", ""))
	if canon, ok := canonicalSizes[key]; ok {
		return canon
	}

	if isNumeric(trimmed) {
		return trimmed
	}

	// "eu 42" / "EU42" style region-coded sizes.
	for prefix, canon := range regionCodes {
		rest := strings.TrimPrefix(key, prefix)
		if rest != key && isNumeric(rest) {
			return canon + " " + rest
		}
	}

	return titleCaser.String(strings.ToLower(trimmed))
}

// NormalizeColor upper-cases the first letter and lower-cases the rest.
func NormalizeColor(color string) string {
	trimmed := strings.Join(strings.Fields(color), " ")
	if trimmed == "" {
		return ""
	}
	first, width := utf8.DecodeRuneInString(trimmed)
	return string(unicode.ToUpper(first)) + strings.ToLower(trimmed[width:])
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
