package video

import (
	"math"
)

// Auto gamma limits
const (
	AutoGammaMin = 0.8
	AutoGammaMax = 1.2
	// AutoGammaTolerance is how far from 1 a gamma must be before it is
	// applied
	AutoGammaTolerance = 0.05
)

// AutoGamma returns the gamma that maps the given mean brightness [0,255]
// to mid grey, clamped to [AutoGammaMin, AutoGammaMax]
func AutoGamma(brightness float64) float64 {

	if brightness <= 0 || brightness >= 255 {
		return 1
	}

	gamma := math.Log(0.5) / math.Log(brightness/255)

	return math.Max(AutoGammaMin, math.Min(gamma, AutoGammaMax))
}

// GammaTable returns the 8 bit lookup table out = (in/255)^gamma * 255
func GammaTable(gamma float64) [256]uint8 {

	var lut [256]uint8

	for i := range lut {
		v := math.Round(math.Pow(float64(i)/255, gamma) * 255)
		lut[i] = uint8(math.Max(0, math.Min(v, 255)))
	}

	return lut
}
