// Package pathplot renders top-down plots of sampled camera sequence paths.
// Plots are drawn on the world XZ plane (+Z up) with region boxes, one polyline
// per sequence and a marker at every keyframe change.
package pathplot

import (
	"image"
	"image/color"
	"math"

	"github.com/decker502/camseq/pkg/systems"
	"github.com/decker502/camseq/pkg/vecmath"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Default canvas settings
const (
	DefaultWidth  = 1024
	DefaultHeight = 768
	DefaultMargin = 32
)

var (
	BackgroundColor = color.NRGBA{24, 26, 32, 255}
	RegionColor     = color.NRGBA{90, 110, 140, 255}
	LabelColor      = color.NRGBA{230, 230, 230, 255}
)

// Palette cycles through track colors
var Palette = []color.NRGBA{
	{220, 90, 200, 255},
	{90, 200, 220, 255},
	{240, 190, 70, 255},
	{120, 220, 120, 255},
	{240, 110, 90, 255},
}

// Region is an axis aligned room box
type Region struct {
	Name     string
	Min, Max vecmath.Vec3
}

// Track is one sampled sequence path
type Track struct {
	Label   string
	Samples []systems.PathSample
	Color   color.NRGBA // zero picks from Palette
}

// Options controls the canvas
type Options struct {
	Width, Height int
	Margin        int

	// Backdrop is scaled to the canvas before anything else is drawn
	Backdrop image.Image

	// LineWidth in pixels, default 2
	LineWidth float64
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Margin < 0 || o.Margin*2 >= o.Width || o.Margin*2 >= o.Height {
		o.Margin = DefaultMargin
	}
	if o.LineWidth <= 0 {
		o.LineWidth = 2
	}
	return o
}

// projection maps world XZ to canvas pixels
type projection struct {
	minX, minZ float64
	scale      float64
	margin     float64
	height     float64
}

func newProjection(tracks []Track, regions []Region, o Options) projection {
	minX, minZ := math.Inf(1), math.Inf(1)
	maxX, maxZ := math.Inf(-1), math.Inf(-1)
	grow := func(p vecmath.Vec3) {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minZ, maxZ = math.Min(minZ, p[2]), math.Max(maxZ, p[2])
	}
	for _, r := range regions {
		grow(r.Min)
		grow(r.Max)
	}
	for _, t := range tracks {
		for _, s := range t.Samples {
			grow(s.State.Position)
		}
	}
	if math.IsInf(minX, 1) {
		minX, maxX, minZ, maxZ = 0, 1, 0, 1
	}

	w := math.Max(maxX-minX, 1)
	h := math.Max(maxZ-minZ, 1)
	m := float64(o.Margin)
	viewW := float64(o.Width) - 2*m
	viewH := float64(o.Height) - 2*m
	return projection{
		minX:   minX,
		minZ:   minZ,
		scale:  math.Min(viewW/w, viewH/h),
		margin: m,
		height: float64(o.Height),
	}
}

func (p projection) point(v vecmath.Vec3) (float32, float32) {
	x := p.margin + (v[0]-p.minX)*p.scale
	y := p.height - p.margin - (v[2]-p.minZ)*p.scale
	return float32(x), float32(y)
}

// Render draws regions and tracks onto a new canvas
func Render(tracks []Track, regions []Region, opts Options) *image.NRGBA {
	o := opts.withDefaults()
	dst := image.NewNRGBA(image.Rect(0, 0, o.Width, o.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(BackgroundColor), image.Point{}, draw.Src)
	if o.Backdrop != nil {
		draw.CatmullRom.Scale(dst, dst.Bounds(), o.Backdrop, o.Backdrop.Bounds(), draw.Over, nil)
	}

	proj := newProjection(tracks, regions, o)
	lw := float32(o.LineWidth)

	for _, r := range regions {
		x0, y0 := proj.point(vecmath.Vec3{r.Min[0], 0, r.Max[2]})
		x1, y1 := proj.point(vecmath.Vec3{r.Max[0], 0, r.Min[2]})
		strokeRect(dst, x0, y0, x1, y1, 1, RegionColor)
		drawLabel(dst, r.Name, int(x0)+4, int(y0)+14, RegionColor)
	}

	for i, t := range tracks {
		clr := t.Color
		if clr.A == 0 {
			clr = Palette[i%len(Palette)]
		}
		pts := make([][2]float32, len(t.Samples))
		for j, s := range t.Samples {
			x, y := proj.point(s.State.Position)
			pts[j] = [2]float32{x, y}
		}
		strokePolyline(dst, pts, lw, clr)

		for j := range t.Samples {
			if j == 0 || t.Samples[j].Keyframe != t.Samples[j-1].Keyframe {
				fillSquare(dst, pts[j][0], pts[j][1], 3+lw, clr)
			}
		}
		if len(pts) > 0 && t.Label != "" {
			drawLabel(dst, t.Label, int(pts[0][0])+8, int(pts[0][1])-6, LabelColor)
		}
	}
	return dst
}

func newRasterizer(dst *image.NRGBA) *vector.Rasterizer {
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	return z
}

// addSegment adds a quad covering the segment a-b with the given width
func addSegment(z *vector.Rasterizer, a, b [2]float32, width float32) {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l < 1e-3 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	z.MoveTo(a[0]+nx, a[1]+ny)
	z.LineTo(b[0]+nx, b[1]+ny)
	z.LineTo(b[0]-nx, b[1]-ny)
	z.LineTo(a[0]-nx, a[1]-ny)
	z.ClosePath()
}

func strokePolyline(dst *image.NRGBA, pts [][2]float32, width float32, clr color.NRGBA) {
	// one rasterizer per segment so overlapping joints do not cancel out
	for i := 1; i < len(pts); i++ {
		z := newRasterizer(dst)
		addSegment(z, pts[i-1], pts[i], width)
		z.Draw(dst, dst.Bounds(), image.NewUniform(clr), image.Point{})
	}
}

func strokeRect(dst *image.NRGBA, x0, y0, x1, y1, width float32, clr color.NRGBA) {
	corners := [][2]float32{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}
	strokePolyline(dst, corners, width, clr)
}

func fillSquare(dst *image.NRGBA, x, y, half float32, clr color.NRGBA) {
	z := newRasterizer(dst)
	z.MoveTo(x-half, y-half)
	z.LineTo(x+half, y-half)
	z.LineTo(x+half, y+half)
	z.LineTo(x-half, y+half)
	z.ClosePath()
	z.Draw(dst, dst.Bounds(), image.NewUniform(clr), image.Point{})
}

func drawLabel(dst *image.NRGBA, s string, x, y int, clr color.NRGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(clr),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
