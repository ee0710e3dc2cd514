package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/r3d91ll/qoscert/pkg/cert"
	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
	"github.com/r3d91ll/qoscert/pkg/layout"
	"github.com/r3d91ll/qoscert/pkg/textmetrics"
)

// FpdfRenderer renders through github.com/go-pdf/fpdf. fpdf measures from
// the top-left corner, so y coordinates are flipped against the page height.
type FpdfRenderer struct {
	config *PDFConfig
}

// NewFpdfRenderer creates an fpdf-backed renderer. A nil config selects defaults.
func NewFpdfRenderer(config *PDFConfig) *FpdfRenderer {
	if config == nil {
		config = DefaultPDFConfig()
	}
	return &FpdfRenderer{config: config}
}

// Name implements Renderer.
func (r *FpdfRenderer) Name() string { return FpdfName }

// Render implements Renderer.
func (r *FpdfRenderer) Render(doc *layout.Document, w io.Writer) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: doc.PageWidth, Ht: doc.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(r.config.Compress)
	pdf.SetCatalogSort(true)
	if r.config.IncludeMetadata {
		pdf.SetTitle(r.config.Title, true)
		pdf.SetAuthor(r.config.Author, true)
		pdf.SetSubject(r.config.Subject, true)
		pdf.SetProducer(PDFProducer, false)
		pdf.SetCreator(r.config.creator(), false)
	}
	if !doc.GeneratedAt.IsZero() {
		pdf.SetCreationDate(doc.GeneratedAt)
		pdf.SetModificationDate(doc.GeneratedAt)
	}

	metrics := r.config.metrics()
	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, c := range page.Commands {
			switch c := c.(type) {
			case layout.TextCommand:
				f := c.Font.Resolved()
				pdf.SetFont(f.Family, f.FpdfStyle(), c.Size)
				s := string(textmetrics.EncodeWinAnsi(c.Text))
				pdf.Text(c.LeftX(metrics), doc.PageHeight-c.Y, s)
			case layout.ImageCommand:
				if !c.Image.Usable() {
					continue
				}
				name, tp, err := registerFpdfImage(pdf, c.Image)
				if err != nil {
					return certerrors.RenderWrap(err, certerrors.ErrRenderFailed, "failed to embed image").
						WithContext("page", fmt.Sprint(page.Number))
				}
				pdf.ImageOptions(name, c.X, doc.PageHeight-c.Y-c.Height, c.Width, c.Height,
					false, fpdf.ImageOptions{ImageType: tp}, 0, "")
			}
		}
		if err := pdf.Error(); err != nil {
			return certerrors.RenderWrap(err, certerrors.ErrRenderFailed, "failed to render page").
				WithContext("page", fmt.Sprint(page.Number))
		}
	}

	if err := pdf.Output(w); err != nil {
		return certerrors.IOWrap(err, certerrors.ErrIOWriteFailed, "failed to write PDF")
	}
	return nil
}

// registerFpdfImage registers an image once per document under its content
// hash. Formats fpdf cannot parse are converted to PNG first.
func registerFpdfImage(pdf *fpdf.Fpdf, img *cert.Image) (string, string, error) {
	tp := img.Format
	data := img.Data
	switch tp {
	case "png", "gif":
	case "jpeg", "jpg":
		tp = "jpg"
	default:
		converted, err := pngBytes(img)
		if err != nil {
			return "", "", err
		}
		tp, data = "png", converted
	}

	name := img.Hash
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: tp}, bytes.NewReader(data))
	return name, tp, pdf.Error()
}
