package raster

import (
	"errors"
	"fmt"
	"image"
	"io"

	_ "image/jpeg"
	_ "image/png"
)

// channels is the number of interleaved channels per pixel (R, G, B, A).
const channels = 4

// Image is a raw RGBA pixel buffer with interleaved channels, each 0-255.
// The buffer length is always Width*Height*4. Every transform consumes its
// input and returns a freshly allocated Image; callers never observe
// aliasing across stages.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// DecodeError indicates that a source could not be loaded as a raster image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("raster: decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SurfaceError indicates that a pixel buffer could not be allocated.
type SurfaceError struct {
	Width  int
	Height int
}

func (e *SurfaceError) Error() string {
	return fmt.Sprintf("raster: cannot allocate %dx%d surface", e.Width, e.Height)
}

// New allocates a zeroed raster image of the given dimensions.
func New(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, &SurfaceError{Width: width, Height: height}
	}
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*channels),
	}, nil
}

// Decode reads an encoded image (PNG, JPEG) and converts it to a raster image.
func Decode(r io.Reader) (*Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return FromImage(img)
}

// FromImage converts any image.Image into an interleaved RGBA buffer.
func FromImage(img image.Image) (*Image, error) {
	if img == nil {
		return nil, &DecodeError{Err: errors.New("nil image")}
	}
	bounds := img.Bounds()
	out, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			out.Pix[i] = uint8(r >> 8)
			out.Pix[i+1] = uint8(g >> 8)
			out.Pix[i+2] = uint8(b >> 8)
			out.Pix[i+3] = uint8(a >> 8)
			i += channels
		}
	}
	return out, nil
}

// ToImage converts the raster buffer back into a standard library image.
func (m *Image) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	copy(img.Pix, m.Pix)
	return img
}

// Clone returns a deep copy of the image.
func (m *Image) Clone() *Image {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)
	return &Image{Width: m.Width, Height: m.Height, Pix: pix}
}

// at returns the buffer offset of pixel (x, y).
func (m *Image) at(x, y int) int {
	return (y*m.Width + x) * channels
}
