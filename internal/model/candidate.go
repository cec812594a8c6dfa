package model

// Candidate is an element considered as a possible "next page" control,
// together with the tier that produced it.
type Candidate struct {
	Element Element `yaml:"element" json:"element"`
	Tier    string  `yaml:"tier"    json:"tier"`
	Order   int     `yaml:"order"   json:"order"` // Position among the tier's matches, in document order
}

// X returns the candidate's horizontal screen position (left edge).
func (c Candidate) X() int { return c.Element.Left() }

// Resolution is the outcome of one discovery pass: a single chosen
// candidate, or none.
type Resolution struct {
	Candidate *Candidate `yaml:"candidate,omitempty" json:"candidate,omitempty"`
	Viewport  Viewport   `yaml:"viewport"            json:"viewport"`
}

// Found reports whether the resolution carries a candidate.
func (r Resolution) Found() bool { return r.Candidate != nil }
