package terminal

import "sync"

// NearBottomThreshold is how close (in display units) the view must be
// to the bottom for appended content to pull it down. A reader who has
// scrolled further up into the backlog is left alone.
const NearBottomThreshold = 500

// Viewport tracks the visible window over the transcript and applies
// the stick-to-bottom heuristic on every append.
type Viewport struct {
	mu      sync.Mutex
	height  int
	content int
	offset  int
}

func NewViewport(height int) *Viewport {
	return &Viewport{height: height}
}

// Append grows the content and, when the view was near the bottom
// before the growth, scrolls to the new bottom.
func (v *Viewport) Append(units int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	wasNear := v.distanceFromBottomLocked() < NearBottomThreshold
	v.content += units
	if wasNear {
		v.scrollToBottomLocked()
	}
}

// ScrollTo moves the top of the visible window.
func (v *Viewport) ScrollTo(offset int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if offset < 0 {
		offset = 0
	}
	if max := v.content - v.height; offset > max {
		offset = max
		if offset < 0 {
			offset = 0
		}
	}
	v.offset = offset
}

func (v *Viewport) Offset() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.offset
}

// DistanceFromBottom reports how far the bottom of the visible window
// is from the end of the content.
func (v *Viewport) DistanceFromBottom() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.distanceFromBottomLocked()
}

func (v *Viewport) distanceFromBottomLocked() int {
	d := v.content - (v.offset + v.height)
	if d < 0 {
		return 0
	}
	return d
}

func (v *Viewport) scrollToBottomLocked() {
	v.offset = v.content - v.height
	if v.offset < 0 {
		v.offset = 0
	}
}
