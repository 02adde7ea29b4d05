package viewport

import "viewercore/pkg/services"

// ScrollThroughStack moves the displayed image by delta, clamped to the
// first and last image. It reports whether the index changed.
func ScrollThroughStack(vp services.StackViewport, delta int) bool {
	n := vp.NumImages()
	if n == 0 || delta == 0 {
		return false
	}
	current := vp.ImageIndex()
	next := clamp(current+delta, 0, n-1)
	if next == current {
		return false
	}
	vp.SetImageIndex(next)
	return true
}
