package tui

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestRenderThumbnailDimensions(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	out := renderThumbnail(img, 10, 4)

	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("rendered %d rows, want 4", len(lines))
	}
	for i, line := range lines {
		if n := strings.Count(line, "▀"); n != 10 {
			t.Errorf("row %d has %d cells, want 10", i, n)
		}
	}
}

func TestRenderThumbnailNilImage(t *testing.T) {
	if out := renderThumbnail(nil, 10, 4); out != "" {
		t.Errorf("nil image rendered %q, want empty", out)
	}
	if out := renderThumbnail(image.NewRGBA(image.Rect(0, 0, 0, 0)), 10, 4); out != "" {
		t.Errorf("empty image rendered %q, want empty", out)
	}
}

func TestSampleHexColors(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{B: 255, A: 255})

	if got := sampleHex(img, img.Bounds(), 0, 0, 2, 1); got != "#ff0000" {
		t.Errorf("left pixel = %s, want #ff0000", got)
	}
	if got := sampleHex(img, img.Bounds(), 1, 0, 2, 1); got != "#0000ff" {
		t.Errorf("right pixel = %s, want #0000ff", got)
	}
}
