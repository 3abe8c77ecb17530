package model

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"
)

var (
	ErrInvalidBitmap = errors.New("invalid bitmap")
)

// Bitmap is a raster image held by value: Width*Height pixels in
// non-premultiplied RGBA order, 4 bytes per pixel, rows packed without padding.
type Bitmap struct {
	Width  int
	Height int
	Pix    []byte
}

func NewBitmap(width, height int) *Bitmap {
	return &Bitmap{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
}

// BitmapFromImage copies any image into a Bitmap.
func BitmapFromImage(img image.Image) *Bitmap {
	b := img.Bounds()

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	pix := make([]byte, len(nrgba.Pix))
	copy(pix, nrgba.Pix)

	return &Bitmap{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    pix,
	}
}

// DecodeBitmap reads a PNG or JPEG stream.
func DecodeBitmap(r io.Reader) (*Bitmap, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return BitmapFromImage(img), nil
}

func (b *Bitmap) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: no image", ErrInvalidBitmap)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidBitmap, b.Width, b.Height)
	}
	if len(b.Pix) != b.Width*b.Height*4 {
		return fmt.Errorf("%w: pixel buffer has %d bytes, want %d", ErrInvalidBitmap, len(b.Pix), b.Width*b.Height*4)
	}
	return nil
}

// Image returns an image.NRGBA view over the pixel buffer.
func (b *Bitmap) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

func (b *Bitmap) At(x, y int) color.NRGBA {
	return b.Image().NRGBAAt(x, y)
}

func (b *Bitmap) Set(x, y int, c color.NRGBA) {
	b.Image().SetNRGBA(x, y, c)
}

// PNG encodes the bitmap losslessly.
func (b *Bitmap) PNG() ([]byte, error) {
	err := b.Validate()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = png.Encode(&buf, b.Image())
	if err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (b *Bitmap) Equal(other *Bitmap) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.Width == other.Width && b.Height == other.Height && bytes.Equal(b.Pix, other.Pix)
}

// Value stores the bitmap as a PNG blob.
func (b Bitmap) Value() (driver.Value, error) {
	return b.PNG()
}

func (b *Bitmap) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Bitmap", src)
	}

	decoded, err := DecodeBitmap(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*b = *decoded
	return nil
}
