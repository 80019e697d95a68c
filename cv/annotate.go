package cv

import (
	"fmt"
	"image"
	"math"

	vidstab "github.com/swdee/go-vidstab"
	"github.com/swdee/go-vidstab/motion"
	"github.com/swdee/go-vidstab/render"
	"github.com/swdee/go-vidstab/tracker"
	"github.com/swdee/go-vidstab/transform"
	"github.com/swdee/go-vidstab/video"
)

// Annotator draws the debug overlay onto rendered frames: the frame status
// in the top left corner and, in track mode, the search ROI, the tracked
// feature points and the subject trail
type Annotator struct {
	Font          render.Font
	Points        render.PointStyle
	Trail         render.TrailStyle
	LineThickness int
}

// NewAnnotator returns an Annotator with the default render styles
func NewAnnotator() *Annotator {
	return &Annotator{
		Font:          render.DefaultFont(),
		Points:        render.DefaultPointStyle(),
		Trail:         render.DefaultTrailStyle(),
		LineThickness: 2,
	}
}

// Annotate implements vidstab.Annotator
func (a *Annotator) Annotate(f video.Frame, o vidstab.Overlay) error {

	cf, err := asFrame(f)

	if err != nil {
		return err
	}

	if cf.mat.Channels() != 3 {
		return fmt.Errorf("annotation needs a color frame, got %d channels", cf.mat.Channels())
	}

	img := &cf.mat

	if o.Mode == vidstab.ModeTrack {
		clr := render.Green

		if o.State == tracker.Reseeding {
			clr = render.Orange
		}

		render.ROIBox(img, mapRect(o.Transform, o.ROI), o.State.String(), clr,
			a.Font, a.LineThickness)
		render.Points(img, mapPoints(o.Transform, o.Points), a.Points)
		render.Trail(img, mapTrail(o.Transform, o.Trail), a.Trail)
	}

	bg := render.Black

	if o.Fallback != motion.FallbackNone {
		bg = render.Red
	}

	render.Status(img, statusLines(o), bg, a.Font)

	return nil
}

// statusLines returns the status text for the overlay
func statusLines(o vidstab.Overlay) []string {

	lines := []string{
		fmt.Sprintf("%s frame %d", o.Mode, o.Index),
		fmt.Sprintf("coverage %.2f", o.Coverage),
	}

	if o.Fallback != motion.FallbackNone {
		lines = append(lines, "fallback "+o.Fallback.String())
	}

	if o.Mode == vidstab.ModeTrack {
		lines = append(lines, fmt.Sprintf("points %d", len(o.Points)))
	}

	return lines
}

// mapRect returns the bounding box of r after transform m
func mapRect(m transform.Affine, r image.Rectangle) image.Rectangle {

	if r.Empty() {
		return r
	}

	corners := [4][2]float64{
		{float64(r.Min.X), float64(r.Min.Y)},
		{float64(r.Max.X), float64(r.Min.Y)},
		{float64(r.Min.X), float64(r.Max.Y)},
		{float64(r.Max.X), float64(r.Max.Y)},
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for _, c := range corners {
		x, y := m.Apply(c[0], c[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	return image.Rect(int(math.Round(minX)), int(math.Round(minY)),
		int(math.Round(maxX)), int(math.Round(maxY)))
}

// mapPoints returns the feature points after transform m
func mapPoints(m transform.Affine, pts []motion.Point) []image.Point {

	out := make([]image.Point, len(pts))

	for i, p := range pts {
		x, y := m.Apply(p.X, p.Y)
		out[i] = image.Pt(int(math.Round(x)), int(math.Round(y)))
	}

	return out
}

// mapTrail returns the trail points after transform m
func mapTrail(m transform.Affine, pts []tracker.Point) []tracker.Point {

	out := make([]tracker.Point, len(pts))

	for i, p := range pts {
		x, y := m.Apply(float64(p.X), float64(p.Y))
		out[i] = tracker.Point{X: int(math.Round(x)), Y: int(math.Round(y))}
	}

	return out
}
