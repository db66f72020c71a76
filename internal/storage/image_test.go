package storage

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCompress(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"small image keeps size", 300, 200, 300, 200},
		{"exact max width", MaxImageWidth, 600, MaxImageWidth, 600},
		{"wide image scaled down", 2400, 1600, MaxImageWidth, 800},
		{"tall thin image", 4000, 10, MaxImageWidth, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodePNG(t, solid(tt.width, tt.height, color.NRGBA{R: 200, G: 10, B: 10, A: 255}))

			out, err := Compress(data)
			require.NoError(t, err)

			cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
			assert.Equal(t, tt.wantW, cfg.Width)
			assert.Equal(t, tt.wantH, cfg.Height)
		})
	}
}

func TestCompress_FlattensTransparencyOntoWhite(t *testing.T) {
	data := encodePNG(t, solid(20, 20, color.NRGBA{}))

	out, err := Compress(data)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	r, g, b, _ := img.At(10, 10).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestCompress_RejectsNonImages(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("not an image"), {0x89, 'P', 'N', 'G'}} {
		_, err := Compress(data)
		assert.ErrorIs(t, err, ErrUnsupportedImage)
	}
}

// withPNGDimensions rewrites the IHDR chunk of a PNG to declare width x height
// without changing the (small) pixel data.
func withPNGDimensions(t *testing.T, data []byte, width, height uint32) []byte {
	t.Helper()
	require.Equal(t, "IHDR", string(data[12:16]))

	out := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(out[16:20], width)
	binary.BigEndian.PutUint32(out[20:24], height)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestCompress_RejectsDecompressionBombs(t *testing.T) {
	small := encodePNG(t, solid(8, 8, color.Black))

	tests := []struct {
		name          string
		width, height uint32
	}{
		{"12000 square", 12000, 12000},
		{"just over the cap", 40_000_001, 1},
		{"very wide strip", 1 << 30, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compress(withPNGDimensions(t, small, tt.width, tt.height))
			assert.ErrorIs(t, err, ErrUnsupportedImage)
		})
	}
}
