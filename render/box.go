package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// ROIBox renders the region of interest rectangle with a text label on its
// top edge, eg: the object-lock search window and tracker state
func ROIBox(img *gocv.Mat, roi image.Rectangle, text string, clr color.RGBA,
	font Font, lineThickness int) {

	if roi.Empty() {
		return
	}

	gocv.Rectangle(img, roi, bgr(clr), lineThickness)

	if text == "" {
		return
	}

	textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)
	l := placeLabel(roi, textSize, font, lineThickness)

	drawLabel(img, l, text, clr, font)
}
