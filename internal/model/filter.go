package model

import "strings"

// FilterEligible returns the elements that are visible and not disabled,
// preserving order.
func FilterEligible(elements []Element) []Element {
	var result []Element
	for _, el := range elements {
		if el.Eligible() {
			result = append(result, el)
		}
	}
	return result
}

// Rightmost returns the index of the element with the largest left edge.
// Ties keep the first encountered. Returns -1 for an empty slice.
func Rightmost(elements []Element) int {
	best := -1
	for i, el := range elements {
		if best < 0 || el.Left() > elements[best].Left() {
			best = i
		}
	}
	return best
}

// MatchesText reports whether the element's title, text, class, test id or
// markers contain text (case-insensitive).
func MatchesText(el Element, text string) bool {
	textLower := strings.ToLower(text)
	if strings.Contains(strings.ToLower(el.Title), textLower) ||
		strings.Contains(strings.ToLower(el.Text), textLower) ||
		strings.Contains(strings.ToLower(el.Class), textLower) ||
		strings.Contains(strings.ToLower(el.TestID), textLower) {
		return true
	}
	for _, m := range el.Markers {
		if strings.Contains(strings.ToLower(m), textLower) {
			return true
		}
	}
	return false
}

// Dedup removes repeated element IDs, keeping the first occurrence.
func Dedup(elements []Element) []Element {
	seen := make(map[int]bool, len(elements))
	var result []Element
	for _, el := range elements {
		if seen[el.ID] {
			continue
		}
		seen[el.ID] = true
		result = append(result, el)
	}
	return result
}

// boundsIntersect checks if two [x, y, width, height] rectangles overlap.
func boundsIntersect(a, b [4]int) bool {
	ax1, ay1, ax2, ay2 := a[0], a[1], a[0]+a[2], a[1]+a[3]
	bx1, by1, bx2, by2 := b[0], b[1], b[0]+b[2], b[1]+b[3]
	return ax1 < bx2 && ax2 > bx1 && ay1 < by2 && ay2 > by1
}

// InViewport reports whether the element's box overlaps the viewport.
func InViewport(el Element, vp Viewport) bool {
	return boundsIntersect(el.Bounds, [4]int{0, 0, vp.Width, vp.Height})
}
