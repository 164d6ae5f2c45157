package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"strconv"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

var (
	ErrUnsupportedFormat    = errors.New("image format must be either webp or png")
	ErrAspectRequiresSquare = errors.New("keeping the aspect ratio requires a square output")
	ErrInvalidSize          = errors.New("max size must be positive")
)

type Options struct {
	Format               Format
	MaxSize              int
	Square               bool
	KeepAspectRatio      bool
	CropTransparentAreas bool
}

func (o Options) Validate() error {
	if o.Format != FormatPNG && o.Format != FormatWebP {
		return ErrUnsupportedFormat
	}
	if o.KeepAspectRatio && !o.Square {
		return ErrAspectRequiresSquare
	}
	if o.MaxSize <= 0 {
		return ErrInvalidSize
	}
	return nil
}

// Transform crops and resizes img according to opts. Encoding is left to the caller.
func Transform(img image.Image, opts Options) (image.Image, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if opts.CropTransparentAreas {
		img = CropTransparency(img)
	}

	size := img.Bounds().Size()
	switch {
	case size.X == size.Y || (opts.Square && !opts.KeepAspectRatio):
		return imaging.Resize(img, opts.MaxSize, opts.MaxSize, imaging.Lanczos), nil
	case opts.Square && opts.KeepAspectRatio:
		return resizeKeepRatio(img, opts.MaxSize), nil
	}

	needResize := size.X > opts.MaxSize || size.Y > opts.MaxSize
	needResize = needResize || (size.X != opts.MaxSize && size.Y != opts.MaxSize)
	if !needResize {
		return img, nil
	}

	w, h := CorrectSize(size.X, size.Y, opts.MaxSize)
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}

// Process decodes a PNG, WEBP or JPEG image from r, transforms it and returns
// the encoded result.
func Process(r io.Reader, opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img, err = Transform(img, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, opts.Format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case FormatWebP:
		return nativewebp.Encode(w, img, nil)
	default:
		return ErrUnsupportedFormat
	}
}

// CorrectSize scales (w, h) so that the longest side becomes maxSize. The ratio
// is rounded to 4 decimals before it is applied to the shorter side, and the
// result is floored. Older outputs were produced this way.
func CorrectSize(w, h, maxSize int) (int, int) {
	longest, shortest := h, w
	if w > h {
		longest, shortest = w, h
	}

	ratio := roundDecimals(float64(maxSize)/float64(longest), 4)
	scaled := int(math.Floor(float64(shortest) * ratio))
	if scaled < 1 {
		scaled = 1
	}

	if w > h {
		return maxSize, scaled
	}
	return scaled, maxSize
}

// roundDecimals rounds the exact binary value of x half to even, like the
// decimal formatter does.
func roundDecimals(x float64, decimals int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', decimals, 64), 64)
	if err != nil {
		return x
	}
	return r
}

func resizeKeepRatio(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := CorrectSize(b.Dx(), b.Dy(), size)
	scaled := imaging.Resize(img, w, h, imaging.Lanczos)

	canvas := imaging.New(size, size, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
	x := (size - w) / 2
	y := (size - h) / 2
	return imaging.Paste(canvas, scaled, image.Pt(x, y))
}

// CropTransparency crops img to the bounding box of its fully opaque pixels.
// Images without an alpha channel, or without any opaque pixel, are returned
// as an unchanged copy.
func CropTransparency(img image.Image) image.Image {
	src := imaging.Clone(img)
	if !hasAlpha(img) {
		return src
	}

	box, ok := opaqueBounds(src)
	if !ok {
		return src
	}
	return imaging.Crop(src, box)
}

func hasAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.YCbCr, *image.Gray, *image.Gray16, *image.CMYK:
		return false
	}
	return true
}

func opaqueBounds(img *image.NRGBA) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := -1, -1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[(x-b.Min.X)*4+3] != 255 {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}

	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}
