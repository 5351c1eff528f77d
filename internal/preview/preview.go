// Package preview renders images and tables on a terminal.
package preview

import (
	"bufio"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/yyyoichi/svdimage/internal/imageio"
)

// Ramp maps intensity to characters, darkest first.
const Ramp = " .:-=+*#%@"

// MaxCellWidth truncates table cells wider than this.
const MaxCellWidth = 40

// ASCII draws img into at most cols x rows terminal cells.
// A cell is about twice as tall as it is wide, so two pixel rows make one line.
func ASCII(w io.Writer, img image.Image, cols, rows int) error {
	if cols < 1 || rows < 1 {
		return nil
	}
	fit := imageio.Fit(img, cols, rows*2)
	b := fit.Bounds()

	bw := bufio.NewWriter(w)
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := intensity(fit.At(x, y))
			if y+1 < b.Max.Y {
				v = (v + intensity(fit.At(x, y+1))) / 2
			}
			_ = bw.WriteByte(Ramp[v*(len(Ramp)-1)/255])
		}
		_ = bw.WriteByte('\n')
	}
	return bw.Flush()
}

func intensity(c color.Color) int {
	return int(color.GrayModel.Convert(c).(color.Gray).Y)
}

// Table writes header and rows as aligned columns separated by " | ".
func Table(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	cell := func(row []string, i int) string {
		if i >= len(row) {
			return ""
		}
		return runewidth.Truncate(row[i], MaxCellWidth, "…")
	}
	for i := range header {
		widths[i] = runewidth.StringWidth(cell(header, i))
		for _, row := range rows {
			widths[i] = max(widths[i], runewidth.StringWidth(cell(row, i)))
		}
	}

	bw := bufio.NewWriter(w)
	line := func(row []string) {
		parts := make([]string, len(header))
		for i := range header {
			parts[i] = runewidth.FillRight(cell(row, i), widths[i])
		}
		_, _ = bw.WriteString(strings.TrimRight(strings.Join(parts, " | "), " ") + "\n")
	}
	line(header)
	sep := make([]string, len(header))
	for i, n := range widths {
		sep[i] = strings.Repeat("-", n)
	}
	_, _ = bw.WriteString(strings.Join(sep, "-+-") + "\n")
	for _, row := range rows {
		line(row)
	}
	return bw.Flush()
}
