package compare

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// TestCompareIdenticalImagesMatch covers Scenario D: identical reference
// and current screenshots yield pixelDiffPercent=0, ssimScore=1,
// match=true, and no diff regions.
func TestCompareIdenticalImagesMatch(t *testing.T) {
	dir := t.TempDir()
	blue := color.RGBA{R: 30, G: 60, B: 200, A: 255}
	img := solidImage(800, 600, blue)

	refPath := writePNG(t, dir, "ref.png", img)
	curPath := writePNG(t, dir, "cur.png", img)

	result, err := Compare(refPath, curPath, filepath.Join(dir, "diff.png"), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.PixelDiffRatio)
	assert.InDelta(t, 1.0, result.SSIM, 1e-9)
	assert.True(t, result.Match)
	assert.Empty(t, result.Regions)
}

// TestCompareSingleDriftRegion covers Scenario E: an 800x600 blue
// reference vs. the same image with a 100x50 red rectangle drawn at
// (10,10) in current, expecting exactly one diff region covering that
// rectangle with severity "moderate" (pixelCount=5000) and match=false.
func TestCompareSingleDriftRegion(t *testing.T) {
	dir := t.TempDir()
	blue := color.RGBA{R: 30, G: 60, B: 200, A: 255}
	red := color.RGBA{R: 220, G: 20, B: 20, A: 255}

	ref := solidImage(800, 600, blue)

	cur := image.NewRGBA(image.Rect(0, 0, 800, 600))
	for y := 0; y < 600; y++ {
		for x := 0; x < 800; x++ {
			cur.Set(x, y, blue)
		}
	}
	for y := 10; y < 60; y++ {
		for x := 10; x < 110; x++ {
			cur.Set(x, y, red)
		}
	}

	refPath := writePNG(t, dir, "ref.png", ref)
	curPath := writePNG(t, dir, "cur.png", cur)

	result, err := Compare(refPath, curPath, filepath.Join(dir, "diff.png"), DefaultOptions())
	require.NoError(t, err)

	require.Len(t, result.Regions, 1)
	region := result.Regions[0]
	assert.Equal(t, 5000, region.PixelCount)
	assert.Equal(t, 10.0, region.Box.X)
	assert.Equal(t, 10.0, region.Box.Y)
	assert.Equal(t, 100.0, region.Box.Width)
	assert.Equal(t, 50.0, region.Box.Height)
	assert.EqualValues(t, "moderate", region.Severity)
	assert.False(t, result.Match)
}

func TestCompareResizesMismatchedDimensions(t *testing.T) {
	dir := t.TempDir()
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	ref := solidImage(400, 300, white)
	cur := solidImage(800, 600, white)

	refPath := writePNG(t, dir, "ref.png", ref)
	curPath := writePNG(t, dir, "cur.png", cur)

	result, err := Compare(refPath, curPath, filepath.Join(dir, "diff.png"), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, result.Match)
}

func TestPixelDiffCountsChangedPixels(t *testing.T) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{R: 0, G: 0, B: 0, A: 255}

	ref := solidImage(10, 10, white)
	cur := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x < 5 {
				cur.Set(x, y, black)
			} else {
				cur.Set(x, y, white)
			}
		}
	}

	ratio, mask := PixelDiff(ref, cur)
	assert.InDelta(t, 0.5, ratio, 1e-9)
	assert.True(t, mask.at(0, 0))
	assert.False(t, mask.at(9, 9))
}

func TestExtractRegionsFiltersSmallComponents(t *testing.T) {
	mask := &DiffMask{Width: 20, Height: 20, Changed: make([]bool, 400)}
	mask.set(0, 0, true)

	regions := ExtractRegions(mask)
	assert.Empty(t, regions, "single-pixel region below minRegionPixels must be filtered")
}
