package memvideo

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/swdee/go-vidstab/video"
)

// GammaEnhancer applies a fixed gamma curve out = in^Gamma to each frame.
// Gamma above 1 darkens, below 1 lightens.
type GammaEnhancer struct {
	Gamma float64
}

// Enhance implements video.Enhancer
func (g GammaEnhancer) Enhance(f video.Frame) error {

	mf, err := asFrame(f)

	if err != nil {
		return err
	}

	if g.Gamma <= 0 {
		return fmt.Errorf("gamma must be positive, got %f", g.Gamma)
	}

	// imaging raises to the power of 1/gamma
	mf.replace(imaging.AdjustGamma(mf.img, 1/g.Gamma))

	return nil
}

// Name implements video.Enhancer
func (g GammaEnhancer) Name() string {
	return fmt.Sprintf("gamma(%.2f)", g.Gamma)
}

// AutoGammaEnhancer picks a gamma per frame that moves the mean brightness
// towards mid grey, clamped to [0.8, 1.2].  Frames already within 0.05 of
// gamma 1 are left untouched.
type AutoGammaEnhancer struct{}

// Enhance implements video.Enhancer
func (AutoGammaEnhancer) Enhance(f video.Frame) error {

	mf, err := asFrame(f)

	if err != nil {
		return err
	}

	gamma := video.AutoGamma(MeanBrightness(mf.img))

	if math.Abs(gamma-1) <= video.AutoGammaTolerance {
		return nil
	}

	mf.replace(imaging.AdjustGamma(mf.img, 1/gamma))

	return nil
}

// Name implements video.Enhancer
func (AutoGammaEnhancer) Name() string {
	return "autogamma"
}

// MeanBrightness returns the mean of the red, green and blue channels over
// all pixels in the range [0,255]
func MeanBrightness(img image.Image) float64 {

	b := img.Bounds()

	if b.Empty() {
		return 0
	}

	sum := 0.0

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			sum += float64(r>>8+g>>8+bl>>8) / 3
		}
	}

	return sum / float64(b.Dx()*b.Dy())
}

// ContrastEnhancer adjusts the global contrast by Percentage in the range
// (-100, 100).  It is the pure Go stand in for local contrast equalization.
type ContrastEnhancer struct {
	Percentage float64
}

// Enhance implements video.Enhancer
func (c ContrastEnhancer) Enhance(f video.Frame) error {

	mf, err := asFrame(f)

	if err != nil {
		return err
	}

	mf.replace(imaging.AdjustContrast(mf.img, c.Percentage))

	return nil
}

// Name implements video.Enhancer
func (c ContrastEnhancer) Name() string {
	return fmt.Sprintf("contrast(%+.0f%%)", c.Percentage)
}
