package annot

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	urlPattern    = regexp.MustCompile(`(?i)^https?://`)
	disallowedRe  = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	hyphenRunRe   = regexp.MustCompile(`-+`)
	punctReplacer = strings.NewReplacer(
		"–", "-", // en dash
		"—", "-", // em dash
		"…", "", // ellipsis
		"...", "",
	)
)

// ToID derives a URL-friendly destination id from a title.
// e.g., "Chapter 1: The Beginning…" -> "chapter-1-the-beginning"
// e.g., "Café — Menü" -> "cafe-menu"
func ToID(title string) string {
	id := strings.ToLower(title)
	id = punctReplacer.Replace(id)
	return slug(foldAccents(id))
}

// StrippedID derives an id the way older tools did, dropping accented
// letters instead of folding them.
// e.g., "Café Menü" -> "caf-men"
func StrippedID(title string) string {
	id := strings.ToLower(title)
	id = punctReplacer.Replace(id)
	return slug(id)
}

func slug(id string) string {
	id = disallowedRe.ReplaceAllString(id, "")
	id = whitespaceRe.ReplaceAllString(id, "-")
	id = hyphenRunRe.ReplaceAllString(id, "-")
	return strings.Trim(id, "-")
}

// foldAccents strips combining marks so that "é" becomes "e".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// IsURL reports whether s starts with an http or https scheme.
func IsURL(s string) bool {
	return urlPattern.MatchString(s)
}

// TitleFromID turns an id back into a readable title.
// e.g., "getting-started" -> "Getting Started"
func TitleFromID(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "-", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
