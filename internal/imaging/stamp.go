package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"restage-service/internal/domain"
)

// Stamper draws a disclosure label (e.g. "Virtually staged") into the bottom
// right corner of a restaged image. Several jurisdictions require virtually
// staged listing photos to be labeled as such.
type Stamper struct {
	font *truetype.Font
	text string
}

func NewStamper(text string) (*Stamper, error) {
	if text == "" {
		text = domain.DefaultStampText
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse stamp font: %w", err)
	}
	return &Stamper{font: f, text: text}, nil
}

// Stamp decodes the image, draws the label, and re-encodes as JPEG.
func (s *Stamper) Stamp(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image for stamping: %w", err)
	}

	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, image.Point{}, draw.Src)

	fontSize := float64(bounds.Dy()) / 30
	if fontSize < 14 {
		fontSize = 14
	}

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(s.font)
	c.SetFontSize(fontSize)
	c.SetClip(result.Bounds())
	c.SetDst(result)
	c.SetSrc(image.NewUniform(color.RGBA{255, 255, 255, 200}))
	c.SetHinting(font.HintingFull)

	textWidth := int(float64(len(s.text)) * fontSize * 0.55)
	margin := int(fontSize)
	pt := freetype.Pt(bounds.Dx()-textWidth-margin, bounds.Dy()-margin)
	if _, err := c.DrawString(s.text, pt); err != nil {
		return nil, fmt.Errorf("draw stamp text: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, result, &jpeg.Options{Quality: domain.DefaultJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode stamped image: %w", err)
	}
	return buf.Bytes(), nil
}
