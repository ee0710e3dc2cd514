// Package layout turns certificate records into pages of draw commands.
//
// Layout is a pure function of the records, the page geometry, the shared
// counter-signature and the generation timestamp. Nothing here performs
// I/O; renderers in pkg/export serialize the resulting Document.
package layout

import (
	"time"

	"go.uber.org/zap"

	"github.com/r3d91ll/qoscert/pkg/cert"
	"github.com/r3d91ll/qoscert/pkg/clock"
	"github.com/r3d91ll/qoscert/pkg/textmetrics"
)

// Page is the ordered command list of one certificate.
type Page struct {
	Number   int
	Commands []Command
}

// Document is an ordered set of pages sharing one generation timestamp.
type Document struct {
	Pages              []Page
	GeneratedTimestamp string
	GeneratedAt        time.Time
	PageWidth          float64
	PageHeight         float64
}

// Assembler lays out documents. It holds configuration only, so one value
// may serve concurrent Assemble calls.
type Assembler struct {
	Geometry Geometry
	Metrics  textmetrics.Metrics
	Clock    clock.Clock
	Logger   *zap.Logger
}

// NewAssembler creates an assembler using the system clock and a no-op logger.
func NewAssembler(g Geometry, m textmetrics.Metrics) *Assembler {
	return &Assembler{
		Geometry: g,
		Metrics:  m,
		Clock:    clock.SystemClock{},
		Logger:   zap.NewNop(),
	}
}

// Assemble lays out one page per record, stamping every page with the
// current time read once from the clock.
func (a *Assembler) Assemble(records []cert.Record, counter *cert.Image) *Document {
	c := a.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return a.AssembleAt(records, counter, c.Now())
}

// AssembleAt is Assemble with an explicit generation time.
func (a *Assembler) AssembleAt(records []cert.Record, counter *cert.Image, at time.Time) *Document {
	g := a.Geometry
	ts := at.Format(g.TimestampLayout)
	doc := &Document{
		Pages:              make([]Page, 0, len(records)),
		GeneratedTimestamp: ts,
		GeneratedAt:        at,
		PageWidth:          g.PageWidth,
		PageHeight:         g.PageHeight,
	}
	for i, r := range records {
		doc.Pages = append(doc.Pages, Page{
			Number:   i + 1,
			Commands: LayoutPage(r, g, a.Metrics, counter, ts),
		})
	}

	if a.Logger != nil {
		a.Logger.Debug("document assembled",
			zap.Int("pages", len(doc.Pages)),
			zap.String("timestamp", ts),
			zap.Bool("counter_signature", counter.Usable()),
		)
	}
	return doc
}
