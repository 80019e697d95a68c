package cv

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/swdee/go-vidstab/video"
)

// CLAHE equalizes local contrast on the luminance channel of the Lab color
// space, leaving the color untouched.  It is not safe for concurrent use.
type CLAHE struct {
	clipLimit float64
	tileGrid  int
	clahe     gocv.CLAHE
}

// NewCLAHE returns a CLAHE enhancer, eg: clip limit 2.0 on an 8x8 tile grid
func NewCLAHE(clipLimit float64, tileGrid int) *CLAHE {
	return &CLAHE{
		clipLimit: clipLimit,
		tileGrid:  tileGrid,
		clahe:     gocv.NewCLAHEWithParams(clipLimit, image.Pt(tileGrid, tileGrid)),
	}
}

// Enhance implements video.Enhancer
func (c *CLAHE) Enhance(f video.Frame) error {

	cf, err := asFrame(f)

	if err != nil {
		return err
	}

	if cf.mat.Channels() == 1 {
		out := gocv.NewMat()
		defer out.Close()

		c.clahe.Apply(cf.mat, &out)
		out.CopyTo(&cf.mat)

		return nil
	}

	if cf.mat.Channels() != 3 {
		return fmt.Errorf("unsupported channel count %d", cf.mat.Channels())
	}

	lab := gocv.NewMat()
	defer lab.Close()

	gocv.CvtColor(cf.mat, &lab, gocv.ColorBGRToLab)

	planes := gocv.Split(lab)
	defer func() {
		for _, p := range planes {
			p.Close()
		}
	}()

	lum := gocv.NewMat()
	defer lum.Close()

	c.clahe.Apply(planes[0], &lum)
	lum.CopyTo(&planes[0])

	gocv.Merge(planes, &lab)
	gocv.CvtColor(lab, &cf.mat, gocv.ColorLabToBGR)

	return nil
}

// Name implements video.Enhancer
func (c *CLAHE) Name() string {
	return fmt.Sprintf("clahe(%.1f,%dx%d)", c.clipLimit, c.tileGrid, c.tileGrid)
}

// Close frees the OpenCV CLAHE instance
func (c *CLAHE) Close() error {
	return c.clahe.Close()
}

// AutoGamma picks a gamma per frame that moves the mean brightness towards
// mid grey and applies it with a lookup table
type AutoGamma struct{}

// Enhance implements video.Enhancer
func (AutoGamma) Enhance(f video.Frame) error {

	cf, err := asFrame(f)

	if err != nil {
		return err
	}

	gamma := video.AutoGamma(meanBrightness(cf.mat))

	if math.Abs(gamma-1) <= video.AutoGammaTolerance {
		return nil
	}

	table := video.GammaTable(gamma)

	lut, err := gocv.NewMatFromBytes(1, 256, gocv.MatTypeCV8U, table[:])

	if err != nil {
		return fmt.Errorf("failed to create gamma table: %w", err)
	}

	defer lut.Close()

	out := gocv.NewMat()
	defer out.Close()

	gocv.LUT(cf.mat, lut, &out)
	out.CopyTo(&cf.mat)

	return nil
}

// Name implements video.Enhancer
func (AutoGamma) Name() string {
	return "autogamma"
}

// meanBrightness averages the color channel means
func meanBrightness(m gocv.Mat) float64 {

	mean := m.Mean()

	switch m.Channels() {
	case 1:
		return mean.Val1
	default:
		return (mean.Val1 + mean.Val2 + mean.Val3) / 3
	}
}
