package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps the normalized part of a slug.
const MaxLength = 60

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases title, strips diacritics and collapses every run of
// other characters into a single hyphen. The result may be empty.
func Slugify(title string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.ToLower(title),
	)
	if err != nil {
		stripped = strings.ToLower(title)
	}

	s := nonAlphanumeric.ReplaceAllString(stripped, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// Unique returns a slug for title that is not in existing. Collisions get the
// lowest free numeric suffix: "hello-world", "hello-world-1", ...
// A title with no usable characters falls back to "post-" plus a random token.
func Unique(title string, existing map[string]struct{}) string {
	base := Slugify(title)
	if base == "" {
		base = Fallback("post")
	}
	return Next(base, existing)
}

// Next returns base, or base with the lowest numeric suffix not in existing.
func Next(base string, existing map[string]struct{}) string {
	if _, taken := existing[base]; !taken {
		return base
	}
	for n := 1; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if _, taken := existing[candidate]; !taken {
			return candidate
		}
	}
}

// Set builds the lookup set Unique expects.
func Set(slugs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		set[s] = struct{}{}
	}
	return set
}

// Fallback is prefix plus eight random hex characters, for names that
// slugify to nothing.
func Fallback(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
