package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/r3d91ll/qoscert/pkg/cert"
	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
	"github.com/r3d91ll/qoscert/pkg/export"
	"github.com/r3d91ll/qoscert/pkg/layout"
	"github.com/r3d91ll/qoscert/pkg/shell"
	"github.com/r3d91ll/qoscert/pkg/spinner"
)

// timestampLayout is accepted by -timestamp to pin the generation time.
const timestampLayout = "2006-01-02 15:04"

type renderOptions struct {
	records   string
	out       string
	counter   string
	renderer  string
	timestamp string
	force     bool
}

func parseRenderFlags(args []string) (renderOptions, error) {
	var o renderOptions
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.StringVar(&o.records, "records", "", "YAML records file (required)")
	fs.StringVar(&o.out, "out", "", "Output PDF (default: QoS_Certificates_<time>.pdf)")
	fs.StringVar(&o.counter, "counter", "", "Counter-signature file, overriding config and records file")
	fs.StringVar(&o.renderer, "renderer", "", "PDF renderer: native or fpdf")
	fs.StringVar(&o.timestamp, "timestamp", "", `Generation time "YYYY-MM-DD HH:MM" (default: now)`)
	fs.BoolVar(&o.force, "force", false, "Overwrite the output file without asking")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.records == "" {
		return o, certerrors.Validation(certerrors.ErrRecordParseFailed, "-records is required")
	}
	return o, nil
}

func runRender(ctx context.Context, a *app, args []string) error {
	opts, err := parseRenderFlags(args)
	if err != nil {
		return err
	}
	var prompter shell.Prompter
	if spinner.IsTerminal(os.Stdin) {
		prompter = shell.NewInteractivePrompter(os.Stdin, os.Stderr)
	}
	path, err := renderFile(ctx, a, opts, prompter, os.Stderr)
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Println(path)
	}
	return nil
}

// renderFile renders a records file and returns the written path. An
// existing output is only replaced with -force or a confirmed prompt; it
// returns "" when the user declines.
func renderFile(ctx context.Context, a *app, opts renderOptions, prompter shell.Prompter, status io.Writer) (string, error) {
	renderer, err := a.renderer(opts.renderer)
	if err != nil {
		return "", err
	}

	at := a.clock.Now()
	if opts.timestamp != "" {
		at, err = time.ParseInLocation(timestampLayout, opts.timestamp, time.Local)
		if err != nil {
			return "", certerrors.Validation(certerrors.ErrDateInvalid, "invalid -timestamp").
				WithContext("value", opts.timestamp).
				WithSuggestion(`Use the form "2024-01-31 14:05"`)
		}
	}

	batch, err := cert.LoadRecords(opts.records)
	if err != nil {
		return "", err
	}

	out := opts.out
	if out == "" {
		out = filepath.Join(filepath.Dir(opts.records), export.DownloadFilename(at))
	}
	if _, err := os.Stat(out); err == nil && !opts.force {
		if prompter == nil {
			return "", certerrors.New(certerrors.ErrIOWriteFailed, certerrors.CategoryIO, "output file exists").
				WithContext("path", out).
				WithSuggestion("Pass -force to overwrite")
		}
		ok, err := prompter.Confirm(fmt.Sprintf("%s exists. Overwrite?", out))
		if err != nil || !ok {
			return "", err
		}
	}

	records, counter := a.resolveSignatures(batch, opts.counter, status)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	spin := spinner.NewWithConfig(spinner.Config{
		Message: fmt.Sprintf("Rendering %d certificate(s) with %s", len(records), renderer.Name()),
		Writer:  status,
	})
	spin.Start()

	doc := a.assembler.AssembleAt(records, counter, at)
	var buf bytes.Buffer
	if err := renderer.Render(doc, &buf); err != nil {
		spin.Fail("Rendering failed")
		return "", err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		spin.Fail("Could not write " + out)
		return "", certerrors.IOWrap(err, certerrors.ErrIOWriteFailed, "write document").WithContext("path", out)
	}
	fp := layout.Fingerprint(doc)
	spin.Success(fmt.Sprintf("%d page(s), fingerprint %s", len(doc.Pages), layout.ShortFingerprint(doc)))

	a.logger.Info("document rendered",
		zap.String("path", out),
		zap.Int("pages", len(doc.Pages)),
		zap.String("renderer", renderer.Name()),
		zap.String("fingerprint", fp),
	)
	return out, nil
}

// resolveSignatures loads each record's issuer signature and the
// counter-signature. Missing or broken images are logged and omitted.
func (a *app) resolveSignatures(batch *cert.Batch, counterRef string, status io.Writer) ([]cert.Record, *cert.Image) {
	records := batch.Plain()
	progress := spinner.NewProgress(len(batch.Records), "Signatures", status)
	for i, e := range batch.Records {
		if img, err := a.assets.Resolve(e.Signature); err != nil {
			a.logger.Warn("issuer signature omitted", zap.Int("index", i), zap.String("tip", e.TIPName), zap.Error(err))
		} else {
			records[i].IssuerSignature = img
		}
		progress.Increment()
	}

	if counterRef == "" {
		counterRef = batch.CounterSignature
	}
	var (
		counter *cert.Image
		err     error
	)
	if counterRef != "" {
		counter, err = a.assets.Resolve(counterRef)
	} else {
		counter, err = a.assets.CounterSignature()
	}
	if err != nil {
		a.logger.Warn("counter-signature omitted", zap.Error(err))
		counter = nil
	}
	return records, counter
}
