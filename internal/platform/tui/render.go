package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// cellWidth is how many terminal columns one map cell takes.
const cellWidth = 2

// averageColor returns the mean color of img inside r.
func averageColor(img image.Image, r image.Rectangle) color.RGBA {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return color.RGBA{}
	}

	var sr, sg, sb, sa, n uint64
	if rgba, ok := img.(*image.RGBA); ok {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			off := rgba.PixOffset(r.Min.X, y)
			for x := r.Min.X; x < r.Max.X; x++ {
				sr += uint64(rgba.Pix[off])
				sg += uint64(rgba.Pix[off+1])
				sb += uint64(rgba.Pix[off+2])
				sa += uint64(rgba.Pix[off+3])
				off += 4
				n++
			}
		}
	} else {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
				sr += uint64(c.R)
				sg += uint64(c.G)
				sb += uint64(c.B)
				sa += uint64(c.A)
				n++
			}
		}
	}
	return color.RGBA{R: uint8(sr / n), G: uint8(sg / n), B: uint8(sb / n), A: uint8(sa / n)}
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B))
}

// contrast picks black or white text for a background.
func contrast(c color.RGBA) lipgloss.Color {
	luma := (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000
	if luma > 128 {
		return lipgloss.Color("#000000")
	}
	return lipgloss.Color("#FFFFFF")
}

func swatch(c color.RGBA, text string) string {
	return lipgloss.NewStyle().
		Background(hexColor(c)).
		Foreground(contrast(c)).
		Render(text)
}

// RenderFrame draws a composed frame as a grid of colored cells, one per map
// square, marking the cursor cell. A nil frame draws an empty grid.
func RenderFrame(frame *image.RGBA, cols, rows, tileSize int, cursor image.Point) string {
	var sb strings.Builder
	blank := strings.Repeat(" ", cellWidth)

	for y := range rows {
		if y > 0 {
			sb.WriteRune('\n')
		}
		for x := range cols {
			c := color.RGBA{A: 0xFF}
			if frame != nil {
				c = averageColor(frame, image.Rect(x*tileSize, y*tileSize, (x+1)*tileSize, (y+1)*tileSize))
			}
			text := blank
			if x == cursor.X && y == cursor.Y {
				text = "[]"
			}
			sb.WriteString(swatch(c, text))
		}
	}
	return sb.String()
}

// colorSource is anything that can hand back tile images by index.
type colorSource interface {
	NumTiles() int
	Tile(index int) (*image.RGBA, bool)
}

// RenderPalette draws up to maxTiles swatches from sheet, marking selected.
// The window scrolls so the selected tile stays visible.
func RenderPalette(sheet colorSource, selected, maxTiles int) string {
	n := sheet.NumTiles()
	if n == 0 || maxTiles <= 0 {
		return ""
	}

	start := 0
	if selected >= maxTiles {
		start = selected - maxTiles + 1
	}
	end := min(n, start+maxTiles)

	var sb strings.Builder
	if start > 0 {
		sb.WriteString("<")
	}
	for i := start; i < end; i++ {
		tile, ok := sheet.Tile(i)
		if !ok {
			continue
		}
		text := strings.Repeat(" ", cellWidth)
		if i == selected {
			text = "[]"
		}
		sb.WriteString(swatch(averageColor(tile, tile.Bounds()), text))
	}
	if end < n {
		sb.WriteString(">")
	}
	return sb.String()
}

// centerText centers text within the given width.
func centerText(text string, width int) string {
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}
	padding := (width - textWidth) / 2
	return strings.Repeat(" ", padding) + text
}
