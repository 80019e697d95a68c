package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the box it is attached to
	Alignment Alignment
}

// DefaultFont returns default font settings
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
	}
}

// label is a precalculated text label
type label struct {
	rect    image.Rectangle
	textPos image.Point
}

// placeLabel calculates where a text label sits on top of the box.  If there
// is no room above the box the label is placed inside its top edge.
func placeLabel(box image.Rectangle, textSize image.Point, font Font,
	lineThickness int) label {

	var centerX int

	switch font.Alignment {
	case Center:
		centerX = (box.Min.X + box.Max.X) / 2

	case Right:
		centerX = box.Max.X - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

	case Left:
		fallthrough
	default:
		centerX = box.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
	}

	height := textSize.Y + font.TopPad + font.BottomPad
	bottom := box.Min.Y

	if bottom-height < 0 {
		bottom = box.Min.Y + height
	}

	return label{
		rect: image.Rect(centerX-textSize.X/2-font.LeftPad, bottom-height,
			centerX+textSize.X/2+font.RightPad, bottom),
		textPos: image.Pt(centerX-textSize.X/2, bottom-font.BottomPad),
	}
}

// drawLabel draws the text over a filled background
func drawLabel(img *gocv.Mat, l label, text string, bg color.RGBA, font Font) {

	gocv.Rectangle(img, l.rect, bgr(bg), -1)

	gocv.PutTextWithParams(img, text, l.textPos, font.Face, font.Scale,
		bgr(font.Color), font.Thickness, font.LineType, false)
}

// Status draws lines of text in the top left corner of the image, one below
// the other
func Status(img *gocv.Mat, lines []string, bg color.RGBA, font Font) {

	top := 0

	for _, text := range lines {
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)
		height := textSize.Y + font.TopPad + font.BottomPad

		l := label{
			rect:    image.Rect(0, top, textSize.X+font.LeftPad+font.RightPad, top+height),
			textPos: image.Pt(font.LeftPad, top+height-font.BottomPad),
		}

		drawLabel(img, l, text, bg, font)
		top += height
	}
}
