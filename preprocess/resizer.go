package preprocess

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Mode sets how a Resizer fits the source frame into the destination size
type Mode int

const (
	// Stretch scales each axis independently to fill the destination
	Stretch Mode = 0
	// LetterBox keeps the source aspect ratio and pads the remainder
	LetterBox Mode = 1
)

// String returns the name of the mode
func (m Mode) String() string {
	switch m {
	case Stretch:
		return "stretch"
	case LetterBox:
		return "letterbox"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses a resize mode name
func ParseMode(s string) (Mode, error) {
	switch s {
	case "stretch", "":
		return Stretch, nil
	case "letterbox":
		return LetterBox, nil
	default:
		return Stretch, fmt.Errorf("unknown resize mode: %s", s)
	}
}

// Resizer scales frames of one size to another, eg: when a rendered frame
// does not match the dimensions the video writer was opened with
type Resizer struct {
	src  image.Point
	dest image.Point
	mode Mode
	// tempMat is a Mat used during the letterbox process
	tempMat gocv.Mat
	// letterbox parameters used in scaling
	xPad  int
	yPad  int
	scale float64
	// resize dimensions
	resizeW int
	resizeH int
}

// NewResizer returns a resizer used for scaling frames of size src to size
// dest
func NewResizer(src, dest image.Point, mode Mode) *Resizer {
	r := &Resizer{
		src:     src,
		dest:    dest,
		mode:    mode,
		tempMat: gocv.NewMat(),
	}

	// precalculate scaling dimensions
	r.preCalc()

	return r
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// preCalc the scaling factors for source and destination sizes
func (r *Resizer) preCalc() {

	r.resizeW = r.dest.X
	r.resizeH = r.dest.Y

	if r.src.X <= 0 || r.src.Y <= 0 {
		return
	}

	scaleW := float64(r.dest.X) / float64(r.src.X)
	scaleH := float64(r.dest.Y) / float64(r.src.Y)
	r.scale = scaleH

	if r.mode == Stretch {
		r.scale = min(scaleW, scaleH)
		return
	}

	if scaleW < scaleH {
		r.scale = scaleW
		r.resizeH = int(float64(r.src.Y) * r.scale)
	} else {
		r.resizeW = int(float64(r.src.X) * r.scale)
	}

	r.yPad = (r.dest.Y - r.resizeH) / 2 // padding height / 2
	r.xPad = (r.dest.X - r.resizeW) / 2 // padding width / 2
}

// Resize scales src into dest.  In LetterBox mode the aspect ratio is kept
// and the padding is filled with the given color.
func (r *Resizer) Resize(src gocv.Mat, dest *gocv.Mat, fill color.RGBA) error {

	size := image.Pt(src.Cols(), src.Rows())

	if size != r.src {
		return fmt.Errorf("resizer expects %v frames, got %v", r.src, size)
	}

	if r.mode == Stretch {
		gocv.Resize(src, dest, r.dest, 0, 0, gocv.InterpolationLinear)
		return nil
	}

	gocv.Resize(src, &r.tempMat, image.Pt(r.resizeW, r.resizeH),
		0, 0, gocv.InterpolationArea)

	gocv.CopyMakeBorder(r.tempMat, dest, r.yPad, r.dest.Y-r.resizeH-r.yPad,
		r.xPad, r.dest.X-r.resizeW-r.xPad, gocv.BorderConstant, fill)

	return nil
}

// ScaleFactor returns the smaller of the two axis scale factors
func (r *Resizer) ScaleFactor() float64 {
	return r.scale
}

// XPad returns the x padding used in letterbox resize
func (r *Resizer) XPad() int {
	return r.xPad
}

// YPad returns the y padding used in letterbox resize
func (r *Resizer) YPad() int {
	return r.yPad
}

// Src returns the frame size the resizer accepts
func (r *Resizer) Src() image.Point {
	return r.src
}

// Dest returns the frame size the resizer produces
func (r *Resizer) Dest() image.Point {
	return r.dest
}
