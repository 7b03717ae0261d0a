package imaging

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"examtools/internal/logger"
)

// Crop fractions for the assumed map region: maps sit centered on the page
// with margin noise around them, so take the middle 80% width and 60% height.
const (
	cropWidthFraction  = 0.8
	cropHeightFraction = 0.6
)

// CropMapRegion writes a centered crop of the source image next to it and
// returns the cropped file's path. On any processing failure the original
// path is returned unchanged; cropping is best effort and never fails the
// surrounding pipeline.
func CropMapRegion(imagePath string) string {
	log := logger.WithComponent("imaging")

	src, format, err := decodeImage(imagePath)
	if err != nil {
		log.Warn().Err(err).Str("image", imagePath).Msg("Failed to decode image, keeping original")
		return imagePath
	}

	sub, ok := src.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		log.Warn().Str("image", imagePath).Msg("Image type does not support cropping, keeping original")
		return imagePath
	}

	bounds := src.Bounds()
	cropWidth := int(float64(bounds.Dx()) * cropWidthFraction)
	cropHeight := int(float64(bounds.Dy()) * cropHeightFraction)
	x0 := bounds.Min.X + (bounds.Dx()-cropWidth)/2
	y0 := bounds.Min.Y + (bounds.Dy()-cropHeight)/2
	rect := image.Rect(x0, y0, x0+cropWidth, y0+cropHeight)

	cropped := sub.SubImage(rect)

	ext := filepath.Ext(imagePath)
	croppedPath := strings.TrimSuffix(imagePath, ext) + "_map" + ext
	out, err := os.Create(croppedPath)
	if err != nil {
		log.Warn().Err(err).Str("image", imagePath).Msg("Failed to create cropped file, keeping original")
		return imagePath
	}
	defer out.Close()

	switch format {
	case "jpeg":
		err = jpeg.Encode(out, cropped, nil)
	default:
		err = png.Encode(out, cropped)
	}
	if err != nil {
		log.Warn().Err(err).Str("image", imagePath).Msg("Failed to encode cropped image, keeping original")
		os.Remove(croppedPath)
		return imagePath
	}

	return croppedPath
}

func decodeImage(imagePath string) (image.Image, string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", err
	}
	return img, format, nil
}
