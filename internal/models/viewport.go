package models

// ViewportKind discriminates the closed set of viewport variants.
type ViewportKind string

const (
	// KindStack is a 2D viewport scrolling through a stack of images
	KindStack ViewportKind = "stack"
	// KindVolume is an orthographic/MPR viewport over a volume
	KindVolume ViewportKind = "volume"
	// KindVideo plays a multi-frame video
	KindVideo ViewportKind = "video"
)

// VOIRange is the value-of-interest intensity window.
type VOIRange struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

// Width returns Upper-Lower.
func (r VOIRange) Width() float64 {
	return r.Upper - r.Lower
}

// Center returns the midpoint of the window.
func (r VOIRange) Center() float64 {
	return (r.Lower + r.Upper) / 2
}

// WindowLevel is the width/center form of a VOI window.
type WindowLevel struct {
	Window float64 `yaml:"window"`
	Level  float64 `yaml:"level"`
}

// Range converts the window/level pair to lower/upper bounds.
func (wl WindowLevel) Range() VOIRange {
	return VOIRange{
		Lower: wl.Level - wl.Window/2.0,
		Upper: wl.Level + wl.Window/2.0,
	}
}

// Camera holds the presentation camera of a stack viewport.
type Camera struct {
	// ParallelScale is half the visible height in world units; smaller is more zoomed in
	ParallelScale float64 `yaml:"parallelScale"`

	// Pan is the in-plane offset of the focal point
	Pan [2]float64 `yaml:"pan"`

	FlipHorizontal bool `yaml:"flipHorizontal"`
	FlipVertical   bool `yaml:"flipVertical"`
}

// Properties holds the display properties of a stack viewport.
type Properties struct {
	// VOIRange is nil until a window has been applied or computed
	VOIRange *VOIRange `yaml:"voiRange,omitempty"`

	Invert bool `yaml:"invert"`

	// Rotation is in degrees, kept in [0, 360)
	Rotation float64 `yaml:"rotation"`
}
