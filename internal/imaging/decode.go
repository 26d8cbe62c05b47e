package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels bounds the declared width×height accepted by Decode.
const DefaultMaxPixels = 50_000_000

var (
	ErrEmptyImage    = errors.New("empty image")
	ErrImageTooLarge = errors.New("image dimensions exceed the pixel limit")
)

// Upload is the raw image as received from a client.
type Upload struct {
	Data        []byte
	ContentType string
	Filename    string
}

type DecodeError struct {
	MIME string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.MIME != "" {
		return fmt.Sprintf("cannot decode image (%s): %v", e.MIME, e.Err)
	}
	return fmt.Sprintf("cannot decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decoded holds the source image alongside its fixed-size RGB grid.
type Decoded struct {
	Image  image.Image
	Format string
	MIME   string
	Grid   *PixelGrid
}

// Decode parses data with any registered codec and resizes the result to
// a size×size RGB grid. Corrupt or truncated input returns a *DecodeError.
func Decode(data []byte, size int) (*Decoded, error) {
	return DecodeLimited(data, size, DefaultMaxPixels)
}

// DecodeLimited is Decode with an explicit pixel limit. The header is read
// first so an oversized image is refused before its raster is allocated.
// A maxPixels of zero or less disables the check.
func DecodeLimited(data []byte, size, maxPixels int) (decoded *Decoded, err error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid target size %d", size)
	}
	if len(data) == 0 {
		return nil, &DecodeError{Err: ErrEmptyImage}
	}

	mime := mimetype.Detect(data).String()

	defer func() {
		if r := recover(); r != nil {
			decoded = nil
			err = &DecodeError{MIME: mime, Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{MIME: mime, Err: err}
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, &DecodeError{
			MIME: mime,
			Err:  fmt.Errorf("%w: %dx%d is over %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels),
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{MIME: mime, Err: err}
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, &DecodeError{MIME: mime, Err: ErrEmptyImage}
	}

	resized := resize.Resize(uint(size), uint(size), img, resize.Bilinear)

	return &Decoded{
		Image:  img,
		Format: format,
		MIME:   mime,
		Grid:   NewPixelGrid(resized),
	}, nil
}
