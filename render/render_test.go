package render

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/swdee/go-vidstab/tracker"
	"gocv.io/x/gocv"
)

func TestPlaceLabel(t *testing.T) {

	font := DefaultFont()
	text := image.Pt(40, 10)

	tests := []struct {
		name    string
		box     image.Rectangle
		align   Alignment
		wantMin image.Point
		wantMax image.Point
	}{
		{"left above", image.Rect(100, 100, 200, 150), Left, image.Pt(99, 80), image.Pt(147, 100)},
		{"center above", image.Rect(100, 100, 200, 150), Center, image.Pt(126, 80), image.Pt(174, 100)},
		// no room above the top edge so the label drops inside the box
		{"left inside", image.Rect(10, 5, 110, 60), Left, image.Pt(9, 5), image.Pt(57, 25)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			font.Alignment = tt.align
			l := placeLabel(tt.box, text, font, 2)
			assert.Equal(t, tt.wantMin, l.rect.Min)
			assert.Equal(t, tt.wantMax, l.rect.Max)
			assert.Equal(t, l.rect.Max.Y-font.BottomPad, l.textPos.Y)
		})
	}
}

func TestPointColor(t *testing.T) {
	assert.Equal(t, classColors[0], PointColor(0))
	assert.Equal(t, classColors[1], PointColor(len(classColors)+1))
	assert.Equal(t, classColors[3], PointColor(-3))
}

func TestBGR(t *testing.T) {
	c := bgr(Orange)
	assert.Equal(t, Orange.B, c.R)
	assert.Equal(t, Orange.R, c.B)
}

func TestDrawOverlays(t *testing.T) {

	img := gocv.Zeros(120, 160, gocv.MatTypeCV8UC3)
	defer img.Close()

	ROIBox(&img, image.Rect(40, 40, 120, 100), "tracking", Green, DefaultFont(), 2)
	Points(&img, []image.Point{{50, 50}, {60, 70}}, DefaultPointStyle())
	Trail(&img, []tracker.Point{{X: 10, Y: 10}, {X: 30, Y: 20}, {X: 50, Y: 50}}, DefaultTrailStyle())
	Status(&img, []string{"frame 1", "coverage 0.95"}, Black, DefaultFont())

	// outline of the box is drawn in green, stored as BGR
	px := img.GetVecbAt(100, 80)
	assert.Equal(t, Green.G, px[1])
	assert.Equal(t, Green.R, px[2])

	// drawing nothing is safe
	ROIBox(&img, image.Rectangle{}, "empty", Red, DefaultFont(), 1)
	Trail(&img, nil, DefaultTrailStyle())
}
