// Package annotate renders numbered redline markers and a legend onto a
// review screenshot (§4.5).
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sort"
	"strings"

	"github.com/fogleman/gg"

	"github.com/raysh454/design-review/internal/checks"
	"github.com/raysh454/design-review/internal/model"
)

const (
	markerDiameter  = 32.0
	markerBorder    = 2.0
	markerFontSize  = 18.0
	edgeClamp       = 5.0
	elementBorder   = 3.0
	stackOffset     = 20.0
	legendPadding   = 20.0
	legendLineHeight = 28.0
	legendSeparator = 2.0
	legendMaxDescLen = 60
)

var severityColor = map[model.Severity]color.RGBA{
	model.SeverityBlocking: {R: 0xDC, G: 0x35, B: 0x45, A: 0xFF},
	model.SeverityMajor:    {R: 0xFF, G: 0x91, B: 0x00, A: 0xFF},
	model.SeverityMinor:    {R: 0xFF, G: 0xC1, B: 0x07, A: 0xFF},
}

var severityEmoji = map[model.Severity]string{
	model.SeverityBlocking: "⚫", // black circle
	model.SeverityMajor:    "\U0001F7E0", // orange circle
	model.SeverityMinor:    "\U0001F7E1", // yellow circle
}

var fallbackBlack = color.RGBA{R: 0, G: 0, B: 0, A: 0xFF}
var legendBG = color.RGBA{R: 0xF8, G: 0xF9, B: 0xFA, A: 0xFF}

// markerPosition is where one numbered marker's center lands.
type markerPosition struct {
	x, y float64
}

// Annotate reads screenshotPath, draws one marker + border per issue
// with a non-null bounding box plus a legend strip below, and writes the
// result to outPath. Returns the number of markers drawn (§8 invariant
// 6: marker count must equal the number of issues with a bounding box).
func Annotate(screenshotPath string, issues []model.Issue, outPath string) (int, error) {
	src, err := loadPNG(screenshotPath)
	if err != nil {
		return 0, model.NewEngineError(model.ErrAnnotationError, "annotate.Annotate", err)
	}

	bounds := src.Bounds()
	legendHeight := legendHeightFor(len(issues))

	dc := gg.NewContext(bounds.Dx(), bounds.Dy()+legendHeight)
	dc.DrawImage(src, 0, 0)

	positions := make(map[int]markerPosition)
	markerCount := 0

	for _, issue := range issues {
		if issue.BoundingBox == nil {
			continue
		}
		markerCount++

		col := severityColor[issue.Severity]
		if contrastFallback(severityColor[model.SeverityBlocking], effectiveBackground(issue)) {
			col = fallbackBlack
		}

		drawElementBorder(dc, *issue.BoundingBox, col)
		pos := markerPositionFor(*issue.BoundingBox, positions, float64(bounds.Dx()), float64(bounds.Dy()))
		positions[issue.ID] = pos
		drawMarker(dc, pos, issue.ID, col)
	}

	drawLegend(dc, float64(bounds.Dy()), float64(bounds.Dx()), issues)

	if err := dc.SavePNG(outPath); err != nil {
		return 0, model.NewEngineError(model.ErrAnnotationError, "annotate.Annotate", err)
	}

	return markerCount, nil
}

func legendHeightFor(issueCount int) int {
	return int(legendPadding*2 + float64(issueCount)*legendLineHeight)
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

// markerPositionFor computes the top-right-of-box position, clamped
// inside the screenshot, then applies the deterministic stacking offset
// when an earlier marker already claimed an overlapping position.
func markerPositionFor(box model.Box, existing map[int]markerPosition, width, height float64) markerPosition {
	radius := markerDiameter / 2
	x := box.X + box.Width + radius
	y := box.Y - radius

	x = clamp(x, edgeClamp+radius, width-edgeClamp-radius)
	y = clamp(y, edgeClamp+radius, height-edgeClamp-radius)

	pos := markerPosition{x: x, y: y}
	if overlaps(pos, existing, radius) {
		pos.x += stackOffset
		pos.y += stackOffset
	}
	return pos
}

func overlaps(pos markerPosition, existing map[int]markerPosition, radius float64) bool {
	for _, other := range existing {
		dx := pos.x - other.x
		dy := pos.y - other.y
		if dx*dx+dy*dy < (radius*2)*(radius*2) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func drawElementBorder(dc *gg.Context, box model.Box, col color.RGBA) {
	dc.SetColor(col)
	dc.SetLineWidth(elementBorder)
	dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
	dc.Stroke()
}

func drawMarker(dc *gg.Context, pos markerPosition, id int, col color.RGBA) {
	radius := markerDiameter / 2

	dc.SetColor(col)
	dc.DrawCircle(pos.x, pos.y, radius)
	dc.Fill()

	dc.SetColor(color.White)
	dc.SetLineWidth(markerBorder)
	dc.DrawCircle(pos.x, pos.y, radius)
	dc.Stroke()

	label := fmt.Sprintf("%d", id)
	if id > 20 {
		label = fmt.Sprintf("(%d)", id)
	}
	dc.SetColor(color.White)
	if err := dc.LoadFontFace(defaultFontPath(), markerFontSize); err == nil {
		dc.DrawStringAnchored(label, pos.x, pos.y, 0.5, 0.4)
	}
}

func drawLegend(dc *gg.Context, top, width float64, issues []model.Issue) {
	dc.SetColor(legendBG)
	dc.DrawRectangle(0, top, width, float64(legendHeightFor(len(issues))))
	dc.Fill()

	dc.SetColor(color.Gray{Y: 200})
	dc.SetLineWidth(legendSeparator)
	dc.DrawLine(0, top, width, top)
	dc.Stroke()

	y := top + legendPadding
	for _, issue := range issues {
		emoji := severityEmoji[issue.Severity]
		desc := ellipsize(issue.Description, legendMaxDescLen)
		line1 := fmt.Sprintf("%s #%d: %s", emoji, issue.ID, desc)

		dc.SetColor(color.Black)
		dc.DrawString(line1, legendPadding, y)

		if issue.CSSSelector != "" {
			dc.SetColor(color.Gray{Y: 120})
			dc.DrawString("→ "+issue.CSSSelector, legendPadding+24, y+legendLineHeight/2)
		}

		y += legendLineHeight
	}
}

func ellipsize(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-1]) + "…"
}

// effectiveBackground samples the element's background for the
// contrast-fallback check. Falls back to white when no evidence is
// available (e.g. this issue's check never recorded one).
func effectiveBackground(issue model.Issue) color.RGBA {
	if bg, ok := issue.Evidence["bg"]; ok {
		if s, ok := bg.(string); ok {
			if c, ok := checks.ParseCSSColor(s); ok {
				return c
			}
		}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

// contrastFallback reports whether col (red, in practice) fails a 3:1
// contrast check against background and must be substituted with black
// (§4.5 "Severity color" / §9 "Annotator contrast fallback").
func contrastFallback(markerColor, background color.RGBA) bool {
	return checks.ContrastRatio(markerColor, background) < 3.0
}

// defaultFontPath returns a path to a usable TTF on common Linux
// distributions; LoadFontFace failures are non-fatal (the numbered
// marker still renders as a filled, bordered circle without a glyph).
func defaultFontPath() string {
	candidates := []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
		"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// SortIssuesForAnnotation orders issues for deterministic marker
// stacking: issue id ascending (§4.5 "Stacking policy": "deterministic
// in issue order").
func SortIssuesForAnnotation(issues []model.Issue) []model.Issue {
	out := append([]model.Issue{}, issues...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
