package tui

import (
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderThumbnail converts a captured image into a half-block cell
// grid. Each character row shows two pixel rows: the upper half block
// takes its foreground color from the top pixel and the cell
// background from the bottom one.
func renderThumbnail(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return ""
	}

	var b strings.Builder
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			top := sampleHex(img, bounds, col, row*2, cols, rows*2)
			bottom := sampleHex(img, bounds, col, row*2+1, cols, rows*2)
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom)).
				Render("▀"))
		}
		if row < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// sampleHex picks the source pixel for a cell via nearest-neighbor.
func sampleHex(img image.Image, bounds image.Rectangle, x, y, gridW, gridH int) string {
	srcX := bounds.Min.X + x*bounds.Dx()/gridW
	srcY := bounds.Min.Y + y*bounds.Dy()/gridH
	r, g, bl, _ := img.At(srcX, srcY).RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(bl>>8))
}
