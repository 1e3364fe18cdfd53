package compare

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/raysh454/design-review/internal/model"
)

// Method selects which signal(s) decide Match (§4.2 "compare" options).
type Method string

const (
	MethodPixel  Method = "pixel"
	MethodSSIM   Method = "ssim"
	MethodHybrid Method = "hybrid"
)

// DiffStyle selects the visualization rendered alongside diff regions
// (§4.6 "Visualisation").
type DiffStyle string

const (
	StyleOverlay    DiffStyle = "overlay"
	StyleSideBySide DiffStyle = "sidebyside"
	StyleHeatmap    DiffStyle = "heatmap"
)

// Options controls one Compare invocation. PixelThreshold/SSIMThreshold
// default to the spec.md §9 open-question values (5%, 0.95), kept as
// tunable defaults rather than hardcoded constants.
type Options struct {
	Method         Method
	DiffStyle      DiffStyle
	PixelThreshold float64 // percent, 0-100
	SSIMThreshold  float64 // 0-1
}

// DefaultOptions returns the documented tunable defaults.
func DefaultOptions() Options {
	return Options{
		Method:         MethodHybrid,
		DiffStyle:      StyleOverlay,
		PixelThreshold: 5.0,
		SSIMThreshold:  0.95,
	}
}

// Compare loads referencePath and currentPath, resizes current to
// reference dimensions on mismatch, computes pixel/SSIM diffs per
// opts.Method, extracts diff regions, renders opts.DiffStyle to
// diffOutPath, and returns a model.CompareResult.
func Compare(referencePath, currentPath, diffOutPath string, opts Options) (*model.CompareResult, error) {
	ref, err := loadImage(referencePath)
	if err != nil {
		return nil, model.NewEngineError(model.ErrReferenceNotFound, "compare.Compare", err)
	}
	cur, err := loadImage(currentPath)
	if err != nil {
		return nil, model.NewEngineError(model.ErrReferenceUnreadable, "compare.Compare", err)
	}

	sizeMismatch := ref.Bounds().Dx() != cur.Bounds().Dx() || ref.Bounds().Dy() != cur.Bounds().Dy()
	if sizeMismatch {
		cur = imaging.Resize(cur, ref.Bounds().Dx(), ref.Bounds().Dy(), imaging.Lanczos)
	}

	pixelRatio, mask := PixelDiff(ref, cur)
	pixelPercent := pixelRatio * 100

	var ssimScore float64
	switch opts.Method {
	case MethodPixel:
		ssimScore = 1
	default:
		ssimScore = SSIM(ref, cur)
	}

	regions := ExtractRegions(mask)

	// A page still "matches" its reference only when both the aggregate
	// signal(s) clear their threshold AND no connected-component region
	// survived filtering — a single 100x50 drift can sit well under a
	// whole-image pixel/SSIM threshold while still being a real,
	// reportable difference.
	withinThreshold := true
	switch opts.Method {
	case MethodPixel:
		withinThreshold = pixelPercent <= opts.PixelThreshold
	case MethodSSIM:
		withinThreshold = ssimScore >= opts.SSIMThreshold
	default:
		withinThreshold = pixelPercent <= opts.PixelThreshold && ssimScore >= opts.SSIMThreshold
	}
	match := withinThreshold && len(regions) == 0

	if err := renderVisualization(opts.DiffStyle, ref, cur, mask, regions, diffOutPath); err != nil {
		return nil, model.NewEngineError(model.ErrAnnotationError, "compare.Compare.render", err)
	}

	return &model.CompareResult{
		ReferencePath:  referencePath,
		CurrentPath:    currentPath,
		DiffImagePath:  diffOutPath,
		PixelDiffRatio: pixelPercent,
		SSIM:           ssimScore,
		Match:          match,
		Regions:        regions,
	}, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func renderVisualization(style DiffStyle, ref, cur image.Image, mask *DiffMask, regions []model.DiffRegion, outPath string) error {
	switch style {
	case StyleSideBySide:
		return renderSideBySide(ref, cur, mask, outPath)
	case StyleHeatmap:
		return renderHeatmap(mask, outPath)
	default:
		return renderOverlay(cur, regions, outPath)
	}
}

// renderOverlay stamps each diff region onto the current screenshot
// with a semi-transparent red fill and red border.
func renderOverlay(cur image.Image, regions []model.DiffRegion, outPath string) error {
	b := cur.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(cur, 0, 0)

	for _, r := range regions {
		dc.SetColor(color.RGBA{R: 255, A: 80})
		dc.DrawRectangle(r.Box.X, r.Box.Y, r.Box.Width, r.Box.Height)
		dc.Fill()

		dc.SetColor(color.RGBA{R: 255, A: 255})
		dc.SetLineWidth(2)
		dc.DrawRectangle(r.Box.X, r.Box.Y, r.Box.Width, r.Box.Height)
		dc.Stroke()
	}

	return dc.SavePNG(outPath)
}

// renderSideBySide composes reference | diff mask | current
// horizontally, with labels.
func renderSideBySide(ref, cur image.Image, mask *DiffMask, outPath string) error {
	w, h := mask.Width, mask.Height
	labelHeight := 24

	dc := gg.NewContext(w*3, h+labelHeight)
	dc.SetColor(color.White)
	dc.Clear()

	dc.DrawImage(ref, 0, labelHeight)
	dc.DrawImage(maskImage(mask), w, labelHeight)
	dc.DrawImage(cur, w*2, labelHeight)

	dc.SetColor(color.Black)
	labels := []string{"reference", "diff mask", "current"}
	for i, l := range labels {
		dc.DrawStringAnchored(l, float64(i*w+w/2), float64(labelHeight)/2, 0.5, 0.5)
	}

	return dc.SavePNG(outPath)
}

func maskImage(mask *DiffMask) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, mask.Width, mask.Height))
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if mask.at(x, y) {
				img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{A: 255})
			}
		}
	}
	return img
}

// renderHeatmap renders the diff mask in two colors: changed pixels red,
// unchanged pixels translucent blue. The size of each pixel's delta is
// not shown.
func renderHeatmap(mask *DiffMask, outPath string) error {
	img := image.NewRGBA(image.Rect(0, 0, mask.Width, mask.Height))
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if mask.at(x, y) {
				img.SetRGBA(x, y, color.RGBA{R: 220, G: 20, B: 20, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{R: 20, G: 20, B: 220, A: 40})
			}
		}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating heatmap output: %w", err)
	}
	defer f.Close()
	return png.Encode(f, img)
}
