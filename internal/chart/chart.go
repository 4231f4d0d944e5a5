// Package chart renders the journey's overview and detail maps as PNGs.
// Charts are drawn on a plain canvas; there is no tile fetching.
package chart

import (
	"bytes"
	"errors"
	"math"

	"github.com/fogleman/gg"
)

type Point struct {
	Lat float64
	Lon float64
}

// Segment is one person's colored stretch of the day's route.
type Segment struct {
	Name     string
	ColorHex string
	Points   []Point
}

const margin = 24.0

// projector maps lat/lon onto canvas pixels, equirectangular with the x axis
// scaled by cos(mid latitude), fitted and centered within the canvas.
type projector struct {
	minLat, minLon float64
	scale          float64
	cosMid         float64
	offsetX        float64
	offsetY        float64
	height         float64
}

func newProjector(points []Point, width, height int) (projector, error) {
	if len(points) < 2 {
		return projector{}, errors.New("not enough points to project")
	}
	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon
	for _, p := range points[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
	}
	cosMid := math.Cos((minLat + maxLat) / 2 * math.Pi / 180)

	spanX := (maxLon - minLon) * cosMid
	spanY := maxLat - minLat
	if spanX == 0 && spanY == 0 {
		return projector{}, errors.New("degenerate point set")
	}
	usableW := float64(width) - 2*margin
	usableH := float64(height) - 2*margin
	scale := math.Min(safeDiv(usableW, spanX), safeDiv(usableH, spanY))

	return projector{
		minLat:  minLat,
		minLon:  minLon,
		scale:   scale,
		cosMid:  cosMid,
		offsetX: margin + (usableW-spanX*scale)/2,
		offsetY: margin + (usableH-spanY*scale)/2,
		height:  float64(height),
	}, nil
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return math.Inf(1)
	}
	return a / b
}

func (pr projector) xy(p Point) (float64, float64) {
	x := pr.offsetX + (p.Lon-pr.minLon)*pr.cosMid*pr.scale
	y := pr.height - pr.offsetY - (p.Lat-pr.minLat)*pr.scale
	return x, y
}

// RenderOverview draws the whole traveled route with today's stretch
// highlighted and a marker at each prior daily checkpoint.
func RenderOverview(traveled, today, checkpoints []Point, width, height int) ([]byte, error) {
	all := append(append([]Point{}, traveled...), today...)
	pr, err := newProjector(all, width, height)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(width, height)
	dc.SetHexColor("#f5f2e9")
	dc.Clear()

	drawLine(dc, pr, traveled, "#7f8c8d", 3)
	drawLine(dc, pr, today, "#c0392b", 4)

	dc.SetHexColor("#2c3e50")
	for _, cp := range checkpoints {
		x, y := pr.xy(cp)
		dc.DrawCircle(x, y, 3)
		dc.Fill()
	}
	if len(today) > 0 {
		x, y := pr.xy(today[len(today)-1])
		dc.SetHexColor("#c0392b")
		dc.DrawCircle(x, y, 6)
		dc.Fill()
	}

	return encode(dc)
}

// RenderDetail draws each person's segment of the day in their own color,
// with start/end markers and a name legend.
func RenderDetail(segments []Segment, width, height int) ([]byte, error) {
	var all []Point
	for _, seg := range segments {
		all = append(all, seg.Points...)
	}
	pr, err := newProjector(all, width, height)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(width, height)
	dc.SetHexColor("#f5f2e9")
	dc.Clear()

	for _, seg := range segments {
		drawLine(dc, pr, seg.Points, seg.ColorHex, 4)
	}

	if first := firstPoint(segments); first != nil {
		x, y := pr.xy(*first)
		dc.SetHexColor("#2c3e50")
		dc.DrawCircle(x, y, 5)
		dc.Fill()
	}
	if last := lastPoint(segments); last != nil {
		x, y := pr.xy(*last)
		dc.SetHexColor("#2c3e50")
		dc.DrawCircle(x, y, 6)
		dc.Stroke()
	}

	// Legend, one row per person.
	for i, seg := range segments {
		y := margin + float64(i)*16
		dc.SetHexColor(seg.ColorHex)
		dc.DrawRectangle(margin, y, 10, 10)
		dc.Fill()
		dc.SetHexColor("#2c3e50")
		dc.DrawString(seg.Name, margin+16, y+9)
	}

	return encode(dc)
}

func drawLine(dc *gg.Context, pr projector, points []Point, colorHex string, lineWidth float64) {
	if len(points) < 2 {
		return
	}
	dc.SetHexColor(colorHex)
	dc.SetLineWidth(lineWidth)
	for i, p := range points {
		x, y := pr.xy(p)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()
}

func firstPoint(segments []Segment) *Point {
	for _, seg := range segments {
		if len(seg.Points) > 0 {
			return &seg.Points[0]
		}
	}
	return nil
}

func lastPoint(segments []Segment) *Point {
	for i := len(segments) - 1; i >= 0; i-- {
		if pts := segments[i].Points; len(pts) > 0 {
			return &pts[len(pts)-1]
		}
	}
	return nil
}

func encode(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
