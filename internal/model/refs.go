package model

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
)

// slugRe matches characters that are not lowercase alphanumeric or hyphens.
var slugRe = regexp.MustCompile(`[^a-z0-9-]+`)

// slugify converts a label to a URL-safe slug: lowercase, hyphens for spaces/special chars.
func slugify(s string) string {
	s = strings.ToLower(s)
	s = slugRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	if len(s) > 40 {
		s = s[:40]
		s = strings.TrimRight(s, "-")
	}
	return s
}

// bestLabel returns the most descriptive stable label for an element:
// title > test id > first marker > text.
func bestLabel(el Element) string {
	switch {
	case el.Title != "":
		return el.Title
	case el.TestID != "":
		return el.TestID
	case len(el.Markers) > 0:
		return el.Markers[0]
	default:
		return el.Text
	}
}

// Ref returns a short human-readable reference for an element, e.g.
// "btn/bonsai-icon-caret-right#12". Used in logs and reports.
func Ref(el Element) string {
	label := slugify(bestLabel(el))
	if label == "" {
		return fmt.Sprintf("%s#%d", el.Role, el.ID)
	}
	return fmt.Sprintf("%s/%s#%d", el.Role, label, el.ID)
}

// Digest computes a stable hash over the identity, geometry and state of a
// set of elements. Two reads of an unchanged document produce equal digests.
func Digest(elements []Element) string {
	h := sha256.New()
	for _, el := range elements {
		fmt.Fprintf(h, "%d|%s|%s|%s|%s|%v|%v|%v\n",
			el.ID, el.Role, el.Title, el.TestID, el.Text, el.Bounds, el.Disabled(), el.Hidden)
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
