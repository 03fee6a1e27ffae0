package workspace

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugFold decomposes accented characters and strips the combining marks,
// so "Café" slugs as "cafe" instead of losing the rune.
var slugFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

const defaultSlug = "workspace"

// BranchSlug derives a git-safe branch fragment from a free-form task
// title. The result is lowercase, dash-separated ascii with no leading or
// trailing dash, and never empty.
func BranchSlug(title string) string {
	folded, _, err := transform.String(slugFold, title)
	if err != nil {
		folded = title
	}
	folded = cases.Lower(language.Und).String(folded)

	var b strings.Builder
	lastDash := true // Suppress a leading dash
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return defaultSlug
	}
	return slug
}

// SessionBranch names the branch for one agent session: the task title's
// slug plus a short unique suffix, so retries of the same task never
// collide.
func SessionBranch(title string, sessionID uuid.UUID) string {
	return BranchSlug(title) + "-" + sessionID.String()[:8]
}
