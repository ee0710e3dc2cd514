package layout

import (
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/r3d91ll/qoscert/pkg/cert"
	"github.com/r3d91ll/qoscert/pkg/clock"
	"github.com/r3d91ll/qoscert/pkg/textmetrics"
)

var fixedTime = time.Date(2024, time.February, 5, 10, 30, 0, 0, time.UTC)

func newTestAssembler() *Assembler {
	a := NewAssembler(DefaultGeometry(), textmetrics.NewCoreMetrics())
	a.Clock = clock.FixedClock{T: fixedTime}
	return a
}

func records(n int) []cert.Record {
	out := make([]cert.Record, n)
	for i := range out {
		r := sampleRecord()
		r.TIPName = []string{"alpha_net", "M/s Beta", "gamma"}[i%3]
		r.PenaltyApplicable = i%2 == 1
		r.PenaltyAmount = cert.Amount(1000 * i)
		if i%2 == 0 {
			r.IssuerSignature = signature(300, 100)
		}
		out[i] = r
	}
	return out
}

func TestAssemblePageCount(t *testing.T) {
	a := newTestAssembler()
	for _, n := range []int{0, 1, 2, 7} {
		doc := a.Assemble(records(n), nil)
		if len(doc.Pages) != n {
			t.Errorf("records %d: pages %d", n, len(doc.Pages))
		}
		for i, p := range doc.Pages {
			if p.Number != i+1 {
				t.Errorf("page %d numbered %d", i, p.Number)
			}
		}
	}
}

func TestAssemblePreservesOrder(t *testing.T) {
	doc := newTestAssembler().Assemble(records(3), nil)
	wantPrefix := []string{"M/S. alpha net", "M/s Beta", "M/S. gamma"}
	for i, p := range doc.Pages {
		var lines []string
		for _, tc := range texts(p.Commands, RoleBody) {
			lines = append(lines, tc.Text)
		}
		if body := strings.Join(lines, " "); !strings.Contains(body, wantPrefix[i]+",") {
			t.Errorf("page %d body %q does not mention %q", i+1, body, wantPrefix[i])
		}
	}
}

func TestAssembleSingleTimestamp(t *testing.T) {
	calls := 0
	a := newTestAssembler()
	a.Clock = clock.Func(func() time.Time {
		calls++
		return fixedTime.Add(time.Duration(calls) * time.Hour)
	})

	doc := a.Assemble(records(4), signature(100, 50))
	if calls != 1 {
		t.Fatalf("clock read %d times, want 1", calls)
	}
	want := fixedTime.Add(time.Hour).Format("02-01-2006 15:04")
	if doc.GeneratedTimestamp != want {
		t.Errorf("GeneratedTimestamp = %q, want %q", doc.GeneratedTimestamp, want)
	}
	for _, p := range doc.Pages {
		if got := texts(p.Commands, RoleTimestamp)[0].Text; got != want {
			t.Errorf("page %d header timestamp %q", p.Number, got)
		}
		if got := texts(p.Commands, RoleFootnote)[0].Text; got != "Generated: "+want {
			t.Errorf("page %d footnote %q", p.Number, got)
		}
	}
}

func TestAssembleDeterministic(t *testing.T) {
	a := newTestAssembler()
	counter := signature(120, 60)

	d1 := a.AssembleAt(records(5), counter, fixedTime)
	d2 := a.AssembleAt(records(5), counter, fixedTime)
	if !reflect.DeepEqual(d1, d2) {
		t.Error("identical inputs produced different documents")
	}
	if Fingerprint(d1) != Fingerprint(d2) {
		t.Error("identical inputs produced different fingerprints")
	}

	d3 := a.AssembleAt(records(5), counter, fixedTime.Add(time.Minute))
	if Fingerprint(d1) == Fingerprint(d3) {
		t.Error("different timestamps should change the fingerprint")
	}
	if len(ShortFingerprint(d1)) != 12 {
		t.Error("short fingerprint should be 12 characters")
	}
}

func TestAssembleEmpty(t *testing.T) {
	doc := newTestAssembler().Assemble(nil, signature(10, 10))
	if doc == nil || len(doc.Pages) != 0 {
		t.Fatalf("expected empty document, got %+v", doc)
	}
	if doc.PageWidth != A4Width || doc.PageHeight != A4Height {
		t.Errorf("page size %vx%v", doc.PageWidth, doc.PageHeight)
	}
}

func TestAssembleConcurrent(t *testing.T) {
	a := newTestAssembler()
	want := Fingerprint(a.AssembleAt(records(3), nil, fixedTime))

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := Fingerprint(a.AssembleAt(records(3), nil, fixedTime)); got != want {
				errs <- got
			}
		}()
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Errorf("concurrent assemble fingerprint %s, want %s", got, want)
	}
}

func TestAssembleLogs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	a := newTestAssembler()
	a.Logger = zap.New(core)

	a.Assemble(records(2), nil)

	entries := logs.FilterMessage("document assembled").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if pages := entries[0].ContextMap()["pages"]; pages != int64(2) {
		t.Errorf("logged pages = %v", pages)
	}
}

func TestFallbackFamilies(t *testing.T) {
	g := DefaultGeometry()
	if got := g.FallbackFamilies(); len(got) != 0 {
		t.Errorf("default geometry has fallbacks %v", got)
	}
	g.Body.Font.Family = "Garamond"
	g.Caption.Font.Family = "Garamond"
	if got := g.FallbackFamilies(); len(got) != 1 || got[0] != "Garamond" {
		t.Errorf("FallbackFamilies = %v", got)
	}
}
