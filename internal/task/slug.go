package task

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLength = 50

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug turns a title into a filename-safe slug. Accents are folded
// ("Revisión" becomes "revision") and the result is cut at a word boundary
// to at most maxSlugLength bytes.
func GenerateSlug(title string) string {
	folded, _, err := transform.String(foldAccents(), title)
	if err != nil {
		folded = title
	}
	slug := strings.Trim(nonAlphanumeric.ReplaceAllString(strings.ToLower(folded), "-"), "-")
	if len(slug) <= maxSlugLength {
		return slug
	}

	cut := slug[:maxSlugLength]
	if slug[maxSlugLength] != '-' {
		if i := strings.LastIndexByte(cut, '-'); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(cut, "-")
}

// foldAccents decomposes characters and drops the combining marks.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// GenerateFilename names the file for a task: "<id>-<slug>.md", or
// "<id>.md" when the title has no usable characters.
func GenerateFilename(id, slug string) string {
	if slug == "" {
		return id + fileExt
	}
	return id + "-" + slug + fileExt
}
