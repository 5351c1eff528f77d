package preview

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestASCII(t *testing.T) {
	t.Run("black_and_white", func(t *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 4, 4))
		for y := range 4 {
			for x := 2; x < 4; x++ {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
		var buf bytes.Buffer
		require.NoError(t, ASCII(&buf, img, 4, 2))
		assert.Equal(t, "  @@\n  @@\n", buf.String())
	})

	t.Run("fits_frame", func(t *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 200, 100))
		var buf bytes.Buffer
		require.NoError(t, ASCII(&buf, img, 40, 30))
		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		assert.Len(t, lines, 10)
		for _, l := range lines {
			assert.Len(t, l, 40)
		}
	})

	t.Run("empty_frame", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ASCII(&buf, image.NewGray(image.Rect(0, 0, 4, 4)), 0, 5))
		assert.Empty(t, buf.String())
	})
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	err := Table(&buf,
		[]string{"#", "mode", "value"},
		[][]string{
			{"0", "RANK", "20"},
			{"1", "ERROR", "90.5"},
			{"2", "画像"},
		},
	)
	require.NoError(t, err)
	exp := "" +
		"# | mode  | value\n" +
		"--+-------+------\n" +
		"0 | RANK  | 20\n" +
		"1 | ERROR | 90.5\n" +
		"2 | 画像  |\n"
	assert.Equal(t, exp, buf.String())

	t.Run("truncates_long_cells", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Table(&buf, []string{"name"}, [][]string{{strings.Repeat("x", 100)}}))
		for _, l := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
			assert.LessOrEqual(t, len([]rune(l)), MaxCellWidth)
		}
	})
}
