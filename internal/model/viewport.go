package model

// Viewport is the visible area of the page in CSS pixels.
type Viewport struct {
	Width  int `yaml:"width"  json:"width"`
	Height int `yaml:"height" json:"height"`
}

// FromRight returns the x coordinate at which the rightmost fraction of the
// viewport begins. FromRight(0.3) on a 1000px viewport is 700.
func (v Viewport) FromRight(fraction float64) float64 {
	return float64(v.Width) * (1 - fraction)
}
