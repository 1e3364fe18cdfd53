package compare

import "github.com/raysh454/design-review/internal/model"

// minRegionPixels filters out connected components smaller than this
// area (§4.6 "minimum-region-size filter").
const minRegionPixels = 100

// ExtractRegions runs 4-connectivity connected-component labeling over
// mask, filters components below minRegionPixels, and assigns a
// severity per §4.6: major > 10000px, moderate > 1000px, else minor.
func ExtractRegions(mask *DiffMask) []model.DiffRegion {
	visited := make([]bool, len(mask.Changed))
	var regions []model.DiffRegion

	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			idx := y*mask.Width + x
			if visited[idx] || !mask.Changed[idx] {
				continue
			}

			region := floodFill(mask, visited, x, y)
			if region.PixelCount < minRegionPixels {
				continue
			}
			region.Severity = severityForRegion(region.PixelCount)
			regions = append(regions, region)
		}
	}

	return regions
}

// floodFill performs a BFS 4-connected flood fill starting at (startX,
// startY), marking visited and returning the component's bounding box
// and pixel count.
func floodFill(mask *DiffMask, visited []bool, startX, startY int) model.DiffRegion {
	type point struct{ x, y int }

	queue := []point{{startX, startY}}
	visited[startY*mask.Width+startX] = true

	minX, minY := startX, startY
	maxX, maxY := startX, startY
	count := 0

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		count++

		if p.x < minX {
			minX = p.x
		}
		if p.x > maxX {
			maxX = p.x
		}
		if p.y < minY {
			minY = p.y
		}
		if p.y > maxY {
			maxY = p.y
		}

		neighbors := [4]point{{p.x - 1, p.y}, {p.x + 1, p.y}, {p.x, p.y - 1}, {p.x, p.y + 1}}
		for _, n := range neighbors {
			if n.x < 0 || n.x >= mask.Width || n.y < 0 || n.y >= mask.Height {
				continue
			}
			nIdx := n.y*mask.Width + n.x
			if visited[nIdx] || !mask.Changed[nIdx] {
				continue
			}
			visited[nIdx] = true
			queue = append(queue, n)
		}
	}

	return model.DiffRegion{
		Box: model.Box{
			X:      float64(minX),
			Y:      float64(minY),
			Width:  float64(maxX - minX + 1),
			Height: float64(maxY - minY + 1),
		},
		PixelCount: count,
	}
}

func severityForRegion(pixelCount int) model.Severity {
	switch {
	case pixelCount > 10000:
		return model.SeverityMajor
	case pixelCount > 1000:
		return model.SeverityModerate
	default:
		return model.SeverityMinor
	}
}
