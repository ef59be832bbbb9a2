package pagedoc

// Viewer zoom bounds, in quarter steps so the arithmetic stays exact.
const (
	zoomStepsMin     = 2  // 0.5x
	zoomStepsMax     = 12 // 3.0x
	zoomStepsDefault = 4  // 1.0x
)

// ViewState tracks the operator's position in a rendered document: current
// page, zoom level and rotation. It has a single designated writer (the
// preview controller) and is not safe for unsynchronized concurrent use.
type ViewState struct {
	page      int
	pageCount int
	zoomSteps int
	rotation  int
}

// NewViewState creates the initial view for a document: page 1, 1.0x zoom,
// no rotation.
func NewViewState(pageCount int) *ViewState {
	if pageCount < 1 {
		pageCount = 1
	}
	return &ViewState{page: 1, pageCount: pageCount, zoomSteps: zoomStepsDefault}
}

// Page returns the current 1-based page index.
func (v *ViewState) Page() int { return v.page }

// PageCount returns the number of pages in the document.
func (v *ViewState) PageCount() int { return v.pageCount }

// Zoom returns the current zoom factor.
func (v *ViewState) Zoom() float64 { return float64(v.zoomSteps) * 0.25 }

// Rotation returns the current rotation in degrees (0, 90, 180 or 270).
func (v *ViewState) Rotation() int { return v.rotation }

// NextPage advances one page. At the last page it is a no-op.
func (v *ViewState) NextPage() {
	if v.page < v.pageCount {
		v.page++
	}
}

// PrevPage goes back one page. At the first page it is a no-op.
func (v *ViewState) PrevPage() {
	if v.page > 1 {
		v.page--
	}
}

// JumpTo moves to the given page, clamped to [1, PageCount].
func (v *ViewState) JumpTo(page int) {
	switch {
	case page < 1:
		v.page = 1
	case page > v.pageCount:
		v.page = v.pageCount
	default:
		v.page = page
	}
}

// ZoomIn increases zoom by one step, clamped to 3.0x.
func (v *ViewState) ZoomIn() {
	if v.zoomSteps < zoomStepsMax {
		v.zoomSteps++
	}
}

// ZoomOut decreases zoom by one step, clamped to 0.5x.
func (v *ViewState) ZoomOut() {
	if v.zoomSteps > zoomStepsMin {
		v.zoomSteps--
	}
}

// ZoomReset returns to 1.0x.
func (v *ViewState) ZoomReset() {
	v.zoomSteps = zoomStepsDefault
}

// Rotate advances rotation by 90 degrees, wrapping at 360. It always
// advances; there is no upper bound to hit.
func (v *ViewState) Rotate() {
	v.rotation = (v.rotation + 90) % 360
}
