// Package slug derives URL slugs, normalized natural keys and stable
// document ids from supplier-provided names and identifiers.
package slug

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds generated slugs.
const MaxLength = 96

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9 -]`)
	whitespace   = regexp.MustCompile(`\s+`)
	dashes       = regexp.MustCompile(`-{2,}`)
	nonIDChars   = regexp.MustCompile(`[^a-zA-Z0-9-]`)

	folder = cases.Fold()
)

// Make converts a display name into a slug: accents are folded to their base
// letters, anything outside [a-z0-9 -] is dropped and whitespace becomes '-'.
func Make(name string) string {
	s := strings.ToLower(stripMarks(name))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(strings.TrimSpace(s), "-")
	s = dashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// NormalizeKey is the matching form of a natural key: trimmed and case-folded.
func NormalizeKey(key string) string {
	return folder.String(strings.TrimSpace(key))
}

// Sanitize replaces every character outside [a-zA-Z0-9-] with '-'.
func Sanitize(key string) string {
	return nonIDChars.ReplaceAllString(strings.TrimSpace(key), "-")
}

// BrandID is the stable document id for a brand name. Names that reduce to an
// empty slug fall back to a digest of their normalized form.
func BrandID(name string) string {
	if s := Make(name); s != "" {
		return "brand-" + s
	}
	return "brand-" + digest(NormalizeKey(name))
}

// CategoryID is the stable document id for a supplier category id.
func CategoryID(supplierID string) string {
	return "category-" + Sanitize(supplierID)
}

// DistinctCategoryID is CategoryID suffixed with a digest of the supplier id,
// for supplier ids whose sanitized form is already taken by another id.
func DistinctCategoryID(supplierID string) string {
	return CategoryID(supplierID) + "-" + digest(NormalizeKey(supplierID))
}

// ProductID is the stable document id for a SKU.
func ProductID(sku string) string {
	return "product-" + Sanitize(sku)
}

func digest(s string) string {
	sum := sha1.Sum([]byte(s))
	return "x" + hex.EncodeToString(sum[:6])
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
