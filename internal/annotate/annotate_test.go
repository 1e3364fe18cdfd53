package annotate

import (
	"image/color"
	"testing"

	"github.com/raysh454/design-review/internal/model"
)

func TestContrastFallbackTriggersOnRedBackground(t *testing.T) {
	// §8 invariant 7: given a synthetic red background, the annotator
	// emits marker colour #000000.
	red := severityColor[model.SeverityBlocking]
	background := color.RGBA{R: 0xDC, G: 0x35, B: 0x45, A: 0xFF} // same red

	if !contrastFallback(red, background) {
		t.Fatal("expected fallback to trigger for red-on-red")
	}
}

func TestContrastFallbackDoesNotTriggerOnWhite(t *testing.T) {
	red := severityColor[model.SeverityBlocking]
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	if contrastFallback(red, white) {
		t.Fatal("expected no fallback against a white background")
	}
}

func TestMarkerPositionClampsInsideBounds(t *testing.T) {
	box := model.Box{X: -10, Y: -10, Width: 20, Height: 20}
	pos := markerPositionFor(box, map[int]markerPosition{}, 100, 100)

	radius := markerDiameter / 2
	if pos.x < edgeClamp+radius || pos.y < edgeClamp+radius {
		t.Fatalf("marker not clamped inside bounds: %+v", pos)
	}
}

func TestMarkerPositionStacksOnOverlap(t *testing.T) {
	box := model.Box{X: 10, Y: 10, Width: 20, Height: 20}
	existing := map[int]markerPosition{1: markerPositionFor(box, map[int]markerPosition{}, 500, 500)}

	pos := markerPositionFor(box, existing, 500, 500)
	first := existing[1]
	if pos == first {
		t.Fatal("expected second marker to shift away from the first")
	}
	if pos.x != first.x+stackOffset || pos.y != first.y+stackOffset {
		t.Fatalf("expected a +20/+20 stack offset, got %+v vs %+v", pos, first)
	}
}

func TestLegendHeightScalesWithIssueCount(t *testing.T) {
	if legendHeightFor(0) != int(legendPadding*2) {
		t.Fatalf("empty legend height = %d", legendHeightFor(0))
	}
	if legendHeightFor(1) != int(legendPadding*2+legendLineHeight) {
		t.Fatalf("one-issue legend height = %d", legendHeightFor(1))
	}
}

func TestEllipsizeRespectsLimit(t *testing.T) {
	long := "this description is most certainly longer than sixty characters in total length"
	got := ellipsize(long, 20)
	if len([]rune(got)) > 20 {
		t.Fatalf("ellipsize did not respect limit: %q (%d runes)", got, len([]rune(got)))
	}
}
