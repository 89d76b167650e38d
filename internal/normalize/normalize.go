// Package normalize provides the name folding and slug rules shared by the
// aggregation, override and persistence stages.
package normalize

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnumSpace = regexp.MustCompile(`[^a-z0-9\s]`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9_\s-]`)
	slugSeparator = regexp.MustCompile(`[\s_-]+`)
	multiSpace    = regexp.MustCompile(`\s+`)
)

// fold lowercases s and strips diacritics ("Peñasquitos" -> "penasquitos").
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Name folds a community or city name for matching: lowercase, no
// punctuation, single spaces.
func Name(s string) string {
	n := nonAlnumSpace.ReplaceAllString(fold(s), "")
	return strings.TrimSpace(multiSpace.ReplaceAllString(n, " "))
}

// Identity is the (name, city) matching key used across stages.
func Identity(name, city string) string {
	return Name(name) + "|" + Name(city)
}

// OverrideKey is the lookup key for manual override records.
func OverrideKey(name, city string) string {
	return Name(name) + "-" + Name(city)
}

// Slugify turns s into a URL slug.
func Slugify(s string) string {
	n := nonSlugChars.ReplaceAllString(fold(s), "")
	n = slugSeparator.ReplaceAllString(n, "-")
	return strings.Trim(n, "-")
}

// Allocator hands out unique slugs. The first identity to claim a slug
// keeps it; later identities that slugify the same get a short hash suffix
// derived from their own identity, so a fixed input order always yields
// the same slugs. Slugs reserved from an earlier run stay with their
// identity regardless of order.
type Allocator struct {
	owners map[string]string // slug -> identity
	held   map[string]string // identity -> reserved slug
}

// NewAllocator creates an empty Allocator.
func NewAllocator() *Allocator {
	return &Allocator{owners: make(map[string]string), held: make(map[string]string)}
}

// Reserve pins slug to identity. A slug that is already owned, or an
// identity that already holds a slug, is left alone.
func (a *Allocator) Reserve(slug, identity string) {
	if slug == "" || identity == "" {
		return
	}
	if _, taken := a.owners[slug]; taken {
		return
	}
	if _, ok := a.held[identity]; ok {
		return
	}
	a.owners[slug] = identity
	a.held[identity] = slug
}

// Assign returns the slug for base owned by identity. collided is true when
// a suffix had to be added.
func (a *Allocator) Assign(base, identity string) (slug string, collided bool) {
	if held, ok := a.held[identity]; ok {
		return held, false
	}

	slug = Slugify(base)
	if slug == "" {
		slug = "unnamed"
	}
	if a.claim(slug, identity) {
		return slug, false
	}

	h := sha1.Sum([]byte(identity))
	sum := hex.EncodeToString(h[:])
	for n := 6; n <= len(sum); n += 2 {
		if suffixed := slug + "-" + sum[:n]; a.claim(suffixed, identity) {
			return suffixed, true
		}
	}
	for i := 2; ; i++ {
		if suffixed := fmt.Sprintf("%s-%s-%d", slug, sum, i); a.claim(suffixed, identity) {
			return suffixed, true
		}
	}
}

// claim takes slug for identity unless another identity owns it.
func (a *Allocator) claim(slug, identity string) bool {
	owner, taken := a.owners[slug]
	if taken && owner != identity {
		return false
	}
	a.owners[slug] = identity
	a.held[identity] = slug
	return true
}
