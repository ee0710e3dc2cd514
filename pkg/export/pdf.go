package export

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/r3d91ll/qoscert/pkg/cert"
	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
	"github.com/r3d91ll/qoscert/pkg/layout"
	"github.com/r3d91ll/qoscert/pkg/textmetrics"
)

// PDF constants for document generation.
const (
	// PDFVersion is the PDF specification version used.
	PDFVersion = "1.4"

	// PDFProducer is the producer string embedded in PDF metadata.
	PDFProducer = "qoscert"
)

// PDFConfig specifies options shared by the renderers.
type PDFConfig struct {
	// Title is the document title in metadata.
	Title string

	// Author is the document author in metadata.
	Author string

	// Subject is the document subject in metadata.
	Subject string

	// ToolVersion is the bare version recorded in the creator, e.g. "1.0.0".
	ToolVersion string

	// Compress enables Flate compression of page content streams.
	// Image data is always compressed.
	Compress bool

	// IncludeMetadata embeds an Info dictionary.
	IncludeMetadata bool

	// Metrics resolves centered and right-aligned text. It must agree with
	// the metrics used for layout. Defaults to core-font metrics.
	Metrics textmetrics.Metrics
}

// DefaultPDFConfig returns a configuration with sensible defaults.
func DefaultPDFConfig() *PDFConfig {
	return &PDFConfig{
		Title:           "QoS Certificates",
		Subject:         "Service quality certificates",
		Compress:        true,
		IncludeMetadata: true,
	}
}

func (c *PDFConfig) metrics() textmetrics.Metrics {
	if c.Metrics == nil {
		c.Metrics = textmetrics.NewCoreMetrics()
	}
	return c.Metrics
}

// creator names the producing tool. ToolVersion carries the bare version.
func (c *PDFConfig) creator() string {
	if c.ToolVersion == "" {
		return "qoscert"
	}
	return "qoscert " + c.ToolVersion
}

// NativeRenderer writes PDF directly, using the core Type1 fonts and
// embedding each distinct image once.
type NativeRenderer struct {
	config *PDFConfig
}

// NewNativeRenderer creates a renderer. A nil config selects defaults.
func NewNativeRenderer(config *PDFConfig) *NativeRenderer {
	if config == nil {
		config = DefaultPDFConfig()
	}
	config.metrics()
	return &NativeRenderer{config: config}
}

// Name implements Renderer.
func (r *NativeRenderer) Name() string { return NativeName }

// Render implements Renderer.
func (r *NativeRenderer) Render(doc *layout.Document, w io.Writer) error {
	pdf := newPDFDocument(r.config, doc.GeneratedAt)
	for _, page := range doc.Pages {
		if err := pdf.addPage(doc.PageWidth, doc.PageHeight, page); err != nil {
			return certerrors.RenderWrap(err, certerrors.ErrRenderFailed, "failed to render page").
				WithContext("page", fmt.Sprint(page.Number))
		}
	}
	if _, err := w.Write(pdf.build()); err != nil {
		return certerrors.IOWrap(err, certerrors.ErrIOWriteFailed, "failed to write PDF")
	}
	return nil
}

// escapePDFString escapes special characters for PDF text strings.
func escapePDFString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "(", "\\(")
	s = strings.ReplaceAll(s, ")", "\\)")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}

// -----------------------------------------------------------------------------
// PDF Document Builder (Internal)
// -----------------------------------------------------------------------------

const (
	catalogObj = 1
	pagesObj   = 2
)

type pdfResource struct {
	name string
	obj  int
}

// pdfDocument builds a complete PDF file. Objects 1 and 2 are reserved for
// the catalog and the page tree and are filled in by build.
type pdfDocument struct {
	config    *PDFConfig
	createdAt time.Time
	objects   []string
	pages     []int
	fonts     map[string]pdfResource
	images    map[string]pdfResource
}

func newPDFDocument(config *PDFConfig, createdAt time.Time) *pdfDocument {
	doc := &pdfDocument{
		config:    config,
		createdAt: createdAt,
		fonts:     make(map[string]pdfResource),
		images:    make(map[string]pdfResource),
	}
	doc.addObject("") // catalog
	doc.addObject("") // pages
	return doc
}

// addObject adds an object and returns its object number.
func (doc *pdfDocument) addObject(content string) int {
	doc.objects = append(doc.objects, content)
	return len(doc.objects) // 1-based object numbering
}

func (doc *pdfDocument) addStream(dict string, data []byte) int {
	return doc.addObject(fmt.Sprintf("<< %s/Length %d >>\nstream\n%s\nendstream", dict, len(data), data))
}

func (doc *pdfDocument) font(f textmetrics.Font) pdfResource {
	base := f.PostScriptName()
	if res, ok := doc.fonts[base]; ok {
		return res
	}
	obj := doc.addObject(fmt.Sprintf("<< /Type /Font\n/Subtype /Type1\n/BaseFont /%s\n/Encoding /WinAnsiEncoding\n>>", base))
	res := pdfResource{name: fmt.Sprintf("F%d", len(doc.fonts)+1), obj: obj}
	doc.fonts[base] = res
	return res
}

func (doc *pdfDocument) image(img *cert.Image) (pdfResource, error) {
	if res, ok := doc.images[img.Hash]; ok {
		return res, nil
	}
	pi, err := preparePDFImage(img)
	if err != nil {
		return pdfResource{}, fmt.Errorf("image %s: %w", img.Name, err)
	}

	smask := ""
	if pi.alpha != nil {
		n := doc.addStream(fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8 /Filter /FlateDecode ",
			pi.width, pi.height), pi.alpha)
		smask = fmt.Sprintf("/SMask %d 0 R ", n)
	}
	obj := doc.addStream(fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace %s /BitsPerComponent 8 /Filter %s %s",
		pi.width, pi.height, pi.colorSpace, pi.filter, smask), pi.data)

	res := pdfResource{name: fmt.Sprintf("Im%d", len(doc.images)+1), obj: obj}
	doc.images[img.Hash] = res
	return res, nil
}

// addPage translates one page of commands into a content stream.
func (doc *pdfDocument) addPage(width, height float64, page layout.Page) error {
	var sb strings.Builder
	fonts := map[string]int{}
	images := map[string]int{}

	for _, c := range page.Commands {
		switch c := c.(type) {
		case layout.TextCommand:
			res := doc.font(c.Font)
			fonts[res.name] = res.obj
			text := escapePDFString(string(textmetrics.EncodeWinAnsi(c.Text)))
			sb.WriteString(fmt.Sprintf("BT\n/%s %.2f Tf\n%.2f %.2f Td\n(%s) Tj\nET\n",
				res.name, c.Size, c.LeftX(doc.config.metrics()), c.Y, text))
		case layout.ImageCommand:
			if !c.Image.Usable() {
				continue
			}
			res, err := doc.image(c.Image)
			if err != nil {
				return err
			}
			images[res.name] = res.obj
			sb.WriteString(fmt.Sprintf("q\n%.4f 0 0 %.4f %.4f %.4f cm\n/%s Do\nQ\n",
				c.Width, c.Height, c.X, c.Y, res.name))
		}
	}

	content := []byte(sb.String())
	filter := ""
	if doc.config.Compress {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		zw.Write(content)
		zw.Close()
		content = buf.Bytes()
		filter = "/Filter /FlateDecode "
	}
	streamObjNum := doc.addStream(filter, content)

	pageObj := fmt.Sprintf("<< /Type /Page\n/Parent %d 0 R\n/MediaBox [0 0 %.2f %.2f]\n/Contents %d 0 R\n/Resources << /Font << %s>> /XObject << %s>> >>\n>>",
		pagesObj, width, height, streamObjNum, resourceDict(fonts), resourceDict(images))
	doc.pages = append(doc.pages, doc.addObject(pageObj))
	return nil
}

func resourceDict(res map[string]int) string {
	names := make([]string, 0, len(res))
	for name := range res {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("/%s %d 0 R ", name, res[name]))
	}
	return sb.String()
}

// build generates the complete PDF file.
func (doc *pdfDocument) build() []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%%PDF-%s\n", PDFVersion))
	buf.WriteString("%\xE2\xE3\xCF\xD3\n") // Binary marker

	kids := make([]string, len(doc.pages))
	for i, n := range doc.pages {
		kids[i] = fmt.Sprintf("%d 0 R", n)
	}
	doc.objects[catalogObj-1] = fmt.Sprintf("<< /Type /Catalog\n/Pages %d 0 R\n>>", pagesObj)
	doc.objects[pagesObj-1] = fmt.Sprintf("<< /Type /Pages\n/Kids [%s]\n/Count %d\n>>",
		strings.Join(kids, " "), len(doc.pages))

	infoObjNum := 0
	if doc.config.IncludeMetadata {
		infoObjNum = doc.addObject(doc.buildInfoDict())
	}

	xref := make([]int, len(doc.objects)+1)
	for i, obj := range doc.objects {
		xref[i+1] = buf.Len()
		buf.WriteString(fmt.Sprintf("%d 0 obj\n%s\nendobj\n", i+1, obj))
	}

	xrefPos := buf.Len()
	buf.WriteString("xref\n")
	buf.WriteString(fmt.Sprintf("0 %d\n", len(doc.objects)+1))
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(doc.objects); i++ {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", xref[i]))
	}

	buf.WriteString("trailer\n")
	buf.WriteString(fmt.Sprintf("<< /Size %d\n/Root %d 0 R\n", len(doc.objects)+1, catalogObj))
	if infoObjNum > 0 {
		buf.WriteString(fmt.Sprintf("/Info %d 0 R\n", infoObjNum))
	}
	buf.WriteString(">>\n")
	buf.WriteString("startxref\n")
	buf.WriteString(fmt.Sprintf("%d\n", xrefPos))
	buf.WriteString("%%EOF\n")

	return buf.Bytes()
}

// buildInfoDict creates the Info dictionary. Dates come from the document's
// generation time so identical documents produce identical bytes.
func (doc *pdfDocument) buildInfoDict() string {
	var sb strings.Builder
	sb.WriteString("<<\n")

	if doc.config.Title != "" {
		sb.WriteString(fmt.Sprintf("/Title (%s)\n", escapePDFString(doc.config.Title)))
	}
	if doc.config.Author != "" {
		sb.WriteString(fmt.Sprintf("/Author (%s)\n", escapePDFString(doc.config.Author)))
	}
	if doc.config.Subject != "" {
		sb.WriteString(fmt.Sprintf("/Subject (%s)\n", escapePDFString(doc.config.Subject)))
	}

	sb.WriteString(fmt.Sprintf("/Producer (%s)\n", escapePDFString(PDFProducer)))
	sb.WriteString(fmt.Sprintf("/Creator (%s)\n", escapePDFString(doc.config.creator())))

	if !doc.createdAt.IsZero() {
		dateStr := doc.createdAt.UTC().Format("D:20060102150405Z")
		sb.WriteString(fmt.Sprintf("/CreationDate (%s)\n", dateStr))
		sb.WriteString(fmt.Sprintf("/ModDate (%s)\n", dateStr))
	}

	sb.WriteString(">>")
	return sb.String()
}
