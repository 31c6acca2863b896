// Package codec holds the pure text functions used by the book store: title
// slugs and markdown/HTML transcoding.
package codec

import (
	"errors"
	"strings"

	"github.com/goliatone/go-slug"
)

// errEmptySlug is returned when a title normalizes to nothing.
var errEmptySlug = errors.New("title has no sluggable characters")

// Slugify converts a human entered title into a lower case, dash separated
// slug. Letters are transliterated through the character map ("é" becomes
// "e", "&" becomes "and") before anything outside [a-z0-9-] is dropped. It is
// deterministic and has no side effects.
func Slugify(title string) (string, error) {
	t, err := slug.HashNormalize(strings.TrimSpace(title))
	if err != nil {
		return "", err
	}
	s, err := slug.Normalize(t)
	if err != nil {
		if errors.Is(err, slug.ErrEmptySlug) {
			return "", errEmptySlug
		}
		return "", err
	}
	return s, nil
}
