package export

import (
	"bytes"
	"compress/zlib"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/r3d91ll/qoscert/pkg/cert"
)

// pdfImage is an image prepared as a PDF XObject.
type pdfImage struct {
	width, height int
	colorSpace    string
	filter        string
	data          []byte
	alpha         []byte // Flate-compressed DeviceGray soft mask, nil if opaque
}

// preparePDFImage converts an image for embedding. Baseline JPEGs in RGB or
// gray pass through untouched; everything else is decoded and stored as
// Flate-compressed RGB with an optional alpha soft mask.
func preparePDFImage(img *cert.Image) (*pdfImage, error) {
	if img.Format == "jpeg" {
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(img.Data))
		if err == nil {
			switch cfg.ColorModel {
			case color.YCbCrModel:
				return &pdfImage{width: cfg.Width, height: cfg.Height, colorSpace: "/DeviceRGB", filter: "/DCTDecode", data: img.Data}, nil
			case color.GrayModel:
				return &pdfImage{width: cfg.Width, height: cfg.Height, colorSpace: "/DeviceGray", filter: "/DCTDecode", data: img.Data}, nil
			}
		}
	}

	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	rgb := make([]byte, 0, w*h*3)
	alpha := make([]byte, 0, w*h)
	opaque := true
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			rgb = append(rgb, c.R, c.G, c.B)
			alpha = append(alpha, c.A)
			if c.A != 0xff {
				opaque = false
			}
		}
	}

	out := &pdfImage{width: w, height: h, colorSpace: "/DeviceRGB", filter: "/FlateDecode", data: deflate(rgb)}
	if !opaque {
		out.alpha = deflate(alpha)
	}
	return out, nil
}

// pngBytes re-encodes any decodable image as PNG.
func pngBytes(img *cert.Image) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deflate(p []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(p)
	w.Close()
	return buf.Bytes()
}
