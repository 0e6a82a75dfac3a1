package storage

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	// ErrInvalidThumbnailSize is returned for a non-positive bounding box.
	ErrInvalidThumbnailSize = errors.New("thumbnail size must be positive")
	// ErrImageTooLarge is returned when width*height exceeds the pixel budget.
	ErrImageTooLarge = errors.New("image dimensions exceed the pixel budget")
)

// CheckDimensions reads only the image header and rejects images with more than
// maxPixels pixels. A non-positive maxPixels disables the check.
func CheckDimensions(data []byte, maxPixels int64) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return ErrImageTooLarge
	}
	return nil
}

// Thumbnail decodes an image and scales it to fit a maxSize square, keeping the
// aspect ratio. Images already inside the box are re-encoded without upscaling.
// The header is checked against maxPixels before any pixel data is decoded.
// The result is always JPEG.
func Thumbnail(data []byte, maxSize int, maxPixels int64) ([]byte, error) {
	if maxSize <= 0 {
		return nil, ErrInvalidThumbnailSize
	}
	if err := CheckDimensions(data, maxPixels); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxSize)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fitWithin(width, height, maxSize int) (int, int) {
	if width <= maxSize && height <= maxSize {
		return max(width, 1), max(height, 1)
	}
	if width >= height {
		return maxSize, max(height*maxSize/width, 1)
	}
	return max(width*maxSize/height, 1), maxSize
}
