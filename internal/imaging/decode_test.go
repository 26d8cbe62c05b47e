package imaging

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/Brownie44l1/riceleaf-api/internal/imaging/imagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestDecodePNG(t *testing.T) {
	data := imagetest.PNG(t, imagetest.Solid(300, 200, imagetest.LeafGreen))

	decoded, err := Decode(data, 224)
	require.NoError(t, err)

	assert.Equal(t, "png", decoded.Format)
	assert.Equal(t, "image/png", decoded.MIME)
	assert.Equal(t, 300, decoded.Image.Bounds().Dx())
	assert.Equal(t, 224, decoded.Grid.Width)
	assert.Equal(t, 224, decoded.Grid.Height)
	assert.Len(t, decoded.Grid.Pix, 224*224*3)

	assertRGB(t, decoded.Grid, 100, 100, 40, 160, 30)
}

func TestDecodeBMP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, imagetest.Solid(32, 32, color.RGBA{10, 20, 30, 255})))

	decoded, err := Decode(buf.Bytes(), 16)
	require.NoError(t, err)
	assert.Equal(t, "bmp", decoded.Format)

	assertRGB(t, decoded.Grid, 8, 8, 10, 20, 30)
}

func TestDecodeDropsAlpha(t *testing.T) {
	data := imagetest.PNG(t, imagetest.Solid(8, 8, color.NRGBA{200, 100, 50, 128}))

	decoded, err := Decode(data, 8)
	require.NoError(t, err)

	assertRGB(t, decoded.Grid, 0, 0, 200, 100, 50)
}

func TestDecodeFailures(t *testing.T) {
	png := imagetest.PNG(t, imagetest.Solid(64, 64, imagetest.Black))

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("definitely not an image")},
		{"truncated png", png[:len(png)/2]},
		{"png header only", png[:16]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := Decode(tt.data, 224)
			assert.Nil(t, decoded)

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.NotEmpty(t, decodeErr.Error())
		})
	}
}

func TestDecodeRefusesOversizedHeader(t *testing.T) {
	decoded, err := Decode(imagetest.PNGHeader(40000, 40000), 224)
	assert.Nil(t, decoded)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.Equal(t, "image/png", decodeErr.MIME)
}

func TestDecodeLimited(t *testing.T) {
	data := imagetest.PNG(t, imagetest.Solid(20, 10, imagetest.LeafGreen))

	_, err := DecodeLimited(data, 8, 199)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	decoded, err := DecodeLimited(data, 8, 200)
	require.NoError(t, err)
	assert.Equal(t, 8, decoded.Grid.Width)

	_, err = DecodeLimited(data, 8, 0)
	assert.NoError(t, err)
}

func TestDecodeInvalidSize(t *testing.T) {
	_, err := Decode(imagetest.PNG(t, imagetest.Solid(4, 4, imagetest.Black)), 0)
	assert.Error(t, err)
}

func TestNewPixelGridOffsetBounds(t *testing.T) {
	img := imagetest.Solid(10, 10, imagetest.Black)
	img.Set(5, 5, color.RGBA{1, 2, 3, 255})

	grid := NewPixelGrid(img.SubImage(img.Rect.Inset(5)))
	assert.Equal(t, 0, grid.Width)

	grid = NewPixelGrid(img.SubImage(image.Rect(5, 5, 7, 7)))
	require.Equal(t, 2, grid.Width)
	r, g, b := grid.RGB(0, 0)
	assert.Equal(t, []uint8{1, 2, 3}, []uint8{r, g, b})
	assert.Equal(t, 4, grid.Len())
}

func assertRGB(t *testing.T, grid *PixelGrid, x, y int, r, g, b int) {
	t.Helper()

	gr, gg, gb := grid.RGB(x, y)
	assert.InDelta(t, r, int(gr), 2, "red")
	assert.InDelta(t, g, int(gg), 2, "green")
	assert.InDelta(t, b, int(gb), 2, "blue")
}
