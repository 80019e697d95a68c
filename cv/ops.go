package cv

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"github.com/swdee/go-vidstab/preprocess"
	"github.com/swdee/go-vidstab/transform"
	"github.com/swdee/go-vidstab/video"
)

var black = color.RGBA{R: 0, G: 0, B: 0, A: 255}

// resizeKey identifies a cached Resizer
type resizeKey struct {
	src, dest image.Point
}

// Ops implements video.FrameOps with OpenCV
type Ops struct {
	mode     preprocess.Mode
	mu       sync.Mutex
	resizers map[resizeKey]*preprocess.Resizer
}

// NewOps returns frame ops that resize frames with the given mode
func NewOps(mode preprocess.Mode) *Ops {
	return &Ops{
		mode:     mode,
		resizers: make(map[resizeKey]*preprocess.Resizer),
	}
}

// Gray implements video.FrameOps
func (o *Ops) Gray(f video.Frame) (video.Frame, error) {

	cf, err := asFrame(f)

	if err != nil {
		return nil, err
	}

	gray := gocv.NewMat()

	switch cf.mat.Channels() {
	case 1:
		cf.mat.CopyTo(&gray)
	case 3:
		gocv.CvtColor(cf.mat, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(cf.mat, &gray, gocv.ColorBGRAToGray)
	default:
		gray.Close()
		return nil, fmt.Errorf("unsupported channel count %d", cf.mat.Channels())
	}

	return NewFrame(gray, cf.index), nil
}

// Warp implements video.FrameOps
func (o *Ops) Warp(f video.Frame, m transform.Affine, size image.Point) (video.Frame, error) {

	cf, err := asFrame(f)

	if err != nil {
		return nil, err
	}

	if !m.IsFinite() {
		return nil, fmt.Errorf("transform %v is not finite", m)
	}

	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("invalid output size %v", size)
	}

	mm := affineMat(m)
	defer mm.Close()

	dst := gocv.NewMat()

	gocv.WarpAffineWithParams(cf.mat, &dst, mm, size, gocv.InterpolationLinear,
		gocv.BorderConstant, black)

	return NewFrame(dst, cf.index), nil
}

// Resize implements video.FrameOps
func (o *Ops) Resize(f video.Frame, size image.Point) (video.Frame, error) {

	cf, err := asFrame(f)

	if err != nil {
		return nil, err
	}

	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("invalid output size %v", size)
	}

	dst := gocv.NewMat()

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.resizer(cf.Size(), size).Resize(cf.mat, &dst, black); err != nil {
		dst.Close()
		return nil, err
	}

	return NewFrame(dst, cf.index), nil
}

// resizer returns the cached resizer for the size pair, o.mu must be held
func (o *Ops) resizer(src, dest image.Point) *preprocess.Resizer {

	key := resizeKey{src: src, dest: dest}

	r, ok := o.resizers[key]

	if !ok {
		r = preprocess.NewResizer(src, dest, o.mode)
		o.resizers[key] = r
	}

	return r
}

// Close frees the cached resizers
func (o *Ops) Close() error {

	o.mu.Lock()
	defer o.mu.Unlock()

	for key, r := range o.resizers {
		r.Close()
		delete(o.resizers, key)
	}

	return nil
}

// affineMat converts m to the 2x3 CV_64F matrix OpenCV expects
func affineMat(m transform.Affine) gocv.Mat {

	mm := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)

	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			mm.SetDoubleAt(r, c, m[r][c])
		}
	}

	return mm
}

// matAffine converts a 2x3 CV_64F matrix to an Affine
func matAffine(mm gocv.Mat) transform.Affine {

	var m transform.Affine

	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			m[r][c] = mm.GetDoubleAt(r, c)
		}
	}

	return m
}
