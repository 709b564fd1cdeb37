package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

const (
	// DefaultSize is the edge length, in pixels, the classifier was trained on.
	DefaultSize = 224
	Channels    = 3

	// DefaultMaxPixels bounds the decoded bitmap (roughly 64 megapixels).
	DefaultMaxPixels = 64 << 20
)

var (
	errEmptyImage = errors.New("image is empty")
	errTooLarge   = errors.New("image dimensions exceed limit")
)

// DecodeError reports bytes that could not be turned into a usable bitmap.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Preprocessor turns arbitrary images into the fixed input tensor of the model.
type Preprocessor struct {
	Size      int
	MaxPixels int
}

func NewPreprocessor(size int) *Preprocessor {
	if size <= 0 {
		size = DefaultSize
	}
	return &Preprocessor{
		Size:      size,
		MaxPixels: DefaultMaxPixels,
	}
}

// Decode parses JPEG, PNG or GIF bytes. The header is inspected first so that
// oversized bitmaps are rejected before any pixel memory is allocated.
func (p *Preprocessor) Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", &DecodeError{Err: errEmptyImage}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", &DecodeError{Err: err}
	}
	if p.MaxPixels > 0 && cfg.Width*cfg.Height > p.MaxPixels {
		return nil, "", &DecodeError{Err: fmt.Errorf("%w: %dx%d", errTooLarge, cfg.Width, cfg.Height)}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &DecodeError{Err: err}
	}
	return img, format, nil
}

// Normalize converts img to RGB, fits it to Size x Size by center-cropping to
// a square and resampling with Lanczos3, then scales every channel value to
// v/127.5 - 1. The result is a single-image NHWC batch.
func (p *Preprocessor) Normalize(img image.Image) (*Tensor, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, &DecodeError{Err: errEmptyImage}
	}

	size := p.Size
	rgb := toRGB(img)
	cropped := fitCrop(rgb, size, size)
	resized := resize.Resize(uint(size), uint(size), cropped, resize.Lanczos3)

	t := NewTensor(size)
	bounds := resized.Bounds()
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			t.Data[i] = scale(r >> 8)
			t.Data[i+1] = scale(g >> 8)
			t.Data[i+2] = scale(b >> 8)
			i += Channels
		}
	}
	return t, nil
}

// DecodeAndNormalize is Decode followed by Normalize.
func (p *Preprocessor) DecodeAndNormalize(data []byte) (*Tensor, image.Image, string, error) {
	img, format, err := p.Decode(data)
	if err != nil {
		return nil, nil, "", err
	}
	t, err := p.Normalize(img)
	if err != nil {
		return nil, nil, "", err
	}
	return t, img, format, nil
}

func scale(v uint32) float32 {
	return float32(v)/127.5 - 1.0
}

// toRGB copies img into an opaque NRGBA bitmap anchored at the origin.
// Alpha is discarded rather than composited over a background.
func toRGB(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			srcOff := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()*4], src.Pix[srcOff:srcOff+b.Dx()*4])
		}
	} else {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}

	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// fitCrop returns the largest centered region of img with the aspect ratio
// width:height, copied into a new bitmap anchored at the origin.
func fitCrop(img *image.NRGBA, width, height int) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	cropW, cropH := w, h

	// Compare w/h against width/height without floating point.
	switch {
	case w*height > h*width:
		cropW = h * width / height
	case w*height < h*width:
		cropH = w * height / width
	}
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}
	if cropW == w && cropH == h {
		return img
	}

	left := (w - cropW) / 2
	top := (h - cropH) / 2
	dst := image.NewNRGBA(image.Rect(0, 0, cropW, cropH))
	for y := 0; y < cropH; y++ {
		srcOff := img.PixOffset(left, top+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+cropW*4], img.Pix[srcOff:srcOff+cropW*4])
	}
	return dst
}
