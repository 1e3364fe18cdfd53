package checks

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/raysh454/design-review/internal/model"
)

// RelativeLuminance computes the WCAG relative luminance of c in [0,1].
func RelativeLuminance(c color.RGBA) float64 {
	lin := func(v uint8) float64 {
		s := float64(v) / 255.0
		if s <= 0.03928 {
			return s / 12.92
		}
		return math.Pow((s+0.055)/1.055, 2.4)
	}
	r, g, b := lin(c.R), lin(c.G), lin(c.B)
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ContrastRatio computes the WCAG contrast ratio between two colors,
// always ≥ 1.
func ContrastRatio(a, b color.RGBA) float64 {
	la, lb := RelativeLuminance(a), RelativeLuminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// ParseCSSColor parses a subset of CSS color syntax sufficient for
// computed-style values reported by a browser: #rgb, #rrggbb, rgb(...),
// rgba(...). Returns ok=false (and alpha 0) for "transparent"/unparsed.
func ParseCSSColor(s string) (c color.RGBA, ok bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "transparent", "rgba(0, 0, 0, 0)":
		return color.RGBA{}, false
	}

	if strings.HasPrefix(s, "#") {
		return parseHexColor(s)
	}
	if strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(") {
		return parseRGBFunc(s)
	}
	return color.RGBA{}, false
}

func parseHexColor(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(s, "#")
	expand := func(h string) (uint8, bool) {
		v, err := strconv.ParseUint(h, 16, 8)
		if err != nil {
			return 0, false
		}
		return uint8(v), true
	}
	switch len(s) {
	case 3:
		r, ok1 := expand(string([]byte{s[0], s[0]}))
		g, ok2 := expand(string([]byte{s[1], s[1]}))
		b, ok3 := expand(string([]byte{s[2], s[2]}))
		if ok1 && ok2 && ok3 {
			return color.RGBA{R: r, G: g, B: b, A: 255}, true
		}
	case 6:
		r, ok1 := expand(s[0:2])
		g, ok2 := expand(s[2:4])
		b, ok3 := expand(s[4:6])
		if ok1 && ok2 && ok3 {
			return color.RGBA{R: r, G: g, B: b, A: 255}, true
		}
	}
	return color.RGBA{}, false
}

func parseRGBFunc(s string) (color.RGBA, bool) {
	open := strings.Index(s, "(")
	closeIdx := strings.LastIndex(s, ")")
	if open < 0 || closeIdx < 0 || closeIdx < open {
		return color.RGBA{}, false
	}
	parts := strings.Split(s[open+1:closeIdx], ",")
	if len(parts) < 3 {
		return color.RGBA{}, false
	}
	vals := make([]float64, 0, 4)
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return color.RGBA{}, false
		}
		vals = append(vals, v)
	}
	alpha := 1.0
	if len(vals) >= 4 {
		alpha = vals[3]
	}
	if alpha == 0 {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(vals[0]), G: uint8(vals[1]), B: uint8(vals[2]), A: 255}, true
}

// EffectiveBackground walks el's ancestor chain until an opaque
// background is found, treating a transparent/unset background as
// inheriting from its parent (§4.3 "color-contrast").
func EffectiveBackground(el model.ElementInfo, elements map[model.ElementHandle]model.ElementInfo) (color.RGBA, bool) {
	cur := el
	for {
		if bg, ok := ParseCSSColor(cur.ComputedCSS["background-color"]); ok {
			return bg, true
		}
		if cur.ParentHandle == "" {
			break
		}
		parent, ok := elements[cur.ParentHandle]
		if !ok {
			break
		}
		cur = parent
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}, false
}

// ColorContrast is the §4.3 color-contrast evaluator: for every visible
// text-bearing element, compute the WCAG contrast ratio of foreground
// vs. effective background and compare against config.minimum_ratio
// (default 4.5).
func ColorContrast(ctx context.Context, capture *model.Capture, check model.Check) ([]model.ProtoIssue, error) {
	minRatio := floatConfig(check.Config, "minimum_ratio", 4.5)

	var issues []model.ProtoIssue
	for _, handle := range orderedHandles(capture) {
		el := capture.Elements[handle]
		if strings.TrimSpace(el.Text) == "" {
			continue
		}

		fgStr, ok := el.ComputedCSS["color"]
		if !ok {
			continue
		}
		fg, ok := ParseCSSColor(fgStr)
		if !ok {
			continue
		}

		bg, _ := EffectiveBackground(el, capture.Elements)
		ratio := ContrastRatio(fg, bg)
		if ratio >= minRatio {
			continue
		}

		issues = append(issues, model.ProtoIssue{
			CheckID:     check.ID,
			Severity:    check.Severity,
			Description: fmt.Sprintf("contrast ratio %.1f:1 is below the required %.1f:1", ratio, minRatio),
			Element:     handle,
			Evidence: map[string]any{
				"ratio":   ratio,
				"minimum": minRatio,
				"fg":      fgStr,
				"bg":      colorHex(bg),
			},
		})
	}

	return issues, nil
}

func colorHex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func floatConfig(cfg map[string]any, key string, def float64) float64 {
	v, ok := cfg[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err == nil {
			return f
		}
	}
	return def
}

// orderedHandles returns capture's element handles in document order
// (§4.3 "Determinism & ordering").
func orderedHandles(capture *model.Capture) []model.ElementHandle {
	handles := make([]model.ElementHandle, 0, len(capture.Elements))
	for h := range capture.Elements {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool {
		return documentOrderKey(handles[i]) < documentOrderKey(handles[j])
	})
	return handles
}

// documentOrderKey recovers the numeric index the browser driver
// assigned a handle in (snapshot.js's nextHandle counter, "e"+n, not
// zero-padded), so sorting by this key tracks true document order
// instead of lexical handle order, which breaks at 10+ elements
// ("e10" < "e2").
func documentOrderKey(h model.ElementHandle) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(string(h), "e"))
	return n
}
