package cert

import (
	"crypto/sha256"
	"encoding/hex"
)

// Image is a decoded signature raster ready to be placed on a page.
type Image struct {
	Name   string
	Data   []byte
	Format string
	Width  int
	Height int
	Hash   string
}

// NewImage wraps raw image bytes whose pixel size is already known.
func NewImage(name string, data []byte, format string, width, height int) *Image {
	sum := sha256.Sum256(data)
	return &Image{
		Name:   name,
		Data:   data,
		Format: format,
		Width:  width,
		Height: height,
		Hash:   hex.EncodeToString(sum[:]),
	}
}

// AspectRatio returns height divided by width, or 0 for an empty image.
func (img *Image) AspectRatio() float64 {
	if img == nil || img.Width <= 0 {
		return 0
	}
	return float64(img.Height) / float64(img.Width)
}

// Usable reports whether the image can be drawn.
func (img *Image) Usable() bool {
	return img != nil && img.Width > 0 && img.Height > 0
}
