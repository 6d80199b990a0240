package match

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify makes a URL-safe slug: diacritics are stripped, letters are
// lowercased, and every run of characters other than [a-z0-9_] becomes a
// single hyphen.
// "Team A" becomes "team-a" and "Movistar KOI" becomes "movistar-koi".
func Slugify(s string) string {
	ascii, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		ascii = s
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(ascii) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return b.String()
}

// TeamSlug returns the calendar slug for a team. Names with no ASCII
// letters or digits fall back to "team-<id>".
func TeamSlug(name, id string) string {
	if slug := Slugify(name); slug != "" {
		return slug
	}
	return fallbackSlug("team", id, name)
}

func fallbackSlug(prefix, id, name string) string {
	if s := Slugify(id); s != "" {
		return prefix + "-" + s
	}
	sum := sha1.Sum([]byte(name))
	return fmt.Sprintf("%s-%x", prefix, sum[:4])
}
