package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 180, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDataURIRoundTrip(t *testing.T) {
	original := testPNG(t)

	uri := ToDataURI(original, "image/png")
	assert.True(t, IsDataURI(uri))

	data, mime, err := ParseDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, original, data)
}

func TestParseDataURIRejectsGarbage(t *testing.T) {
	_, _, err := ParseDataURI("http://host/a.png")
	require.ErrorIs(t, err, ErrNotDataURI)

	_, _, err = ParseDataURI("data:image/png;base64,!!!not-base64!!!")
	require.Error(t, err)
}

func TestDetectMime(t *testing.T) {
	data := testPNG(t)

	assert.Equal(t, "image/png", DetectMime(data, ""))
	assert.Equal(t, "image/webp", DetectMime(data, "image/webp"))
	assert.Equal(t, "image/jpeg", DetectMime([]byte("plain text"), ""))
	assert.Equal(t, "image/jpeg", DetectMime(data, "application/json"))
}

func TestProbe(t *testing.T) {
	w, h, format, err := Probe(testPNG(t))
	require.NoError(t, err)
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)
	assert.Equal(t, "png", format)
}

func TestReencodeJPEG(t *testing.T) {
	out, err := ReencodeJPEG(testPNG(t), 85)
	require.NoError(t, err)

	_, _, format, err := Probe(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestStamperProducesDecodableJPEG(t *testing.T) {
	s, err := NewStamper("Virtually staged")
	require.NoError(t, err)

	out, err := s.Stamp(testPNG(t))
	require.NoError(t, err)

	w, h, format, err := Probe(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)

	assert.NotEqual(t, out, testPNG(t))
}
