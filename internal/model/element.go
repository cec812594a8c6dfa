package model

// Element is a measured snapshot of one DOM element at the time it was read.
type Element struct {
	ID      int      `yaml:"i"            json:"i"`            // Page-scoped id stamped on the node by the host
	Tag     string   `yaml:"tag"          json:"tag"`          // Lowercase tag name
	Role    string   `yaml:"r"            json:"r"`            // Abbreviated role code
	Title   string   `yaml:"t,omitempty"  json:"t,omitempty"`  // aria-label or title attribute
	Text    string   `yaml:"x,omitempty"  json:"x,omitempty"`  // Trimmed text content
	Class   string   `yaml:"cl,omitempty" json:"cl,omitempty"` // class attribute
	TestID  string   `yaml:"ti,omitempty" json:"ti,omitempty"` // data-testid attribute
	Markers []string `yaml:"m,omitempty"  json:"m,omitempty"`  // data-testid values of descendants
	HTML    string   `yaml:"h,omitempty"  json:"h,omitempty"`  // Inner HTML prefix
	Bounds  [4]int   `yaml:"b"            json:"b"`            // [x, y, width, height] in viewport pixels
	Enabled *bool    `yaml:"e,omitempty"  json:"e,omitempty"`  // nil or true = enabled; false = disabled
	Hidden  bool     `yaml:"hd,omitempty" json:"hd,omitempty"` // Not rendered (no offsetParent, display:none)
}

// Left returns the x coordinate of the element's left edge.
func (el Element) Left() int { return el.Bounds[0] }

// Width returns the rendered width.
func (el Element) Width() int { return el.Bounds[2] }

// Disabled reports whether the element is explicitly disabled.
func (el Element) Disabled() bool {
	return el.Enabled != nil && !*el.Enabled
}

// Visible reports whether the element has a non-zero rendered box and is
// not hidden by layout.
func (el Element) Visible() bool {
	return !el.Hidden && el.Bounds[2] > 0 && el.Bounds[3] > 0
}

// Eligible reports whether the element may be chosen as a navigation
// target: visible and not disabled.
func (el Element) Eligible() bool {
	return el.Visible() && !el.Disabled()
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
