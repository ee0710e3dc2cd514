package main

import (
	"go.uber.org/zap"

	"github.com/r3d91ll/qoscert/pkg/assets"
	"github.com/r3d91ll/qoscert/pkg/clock"
	"github.com/r3d91ll/qoscert/pkg/config"
	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
	"github.com/r3d91ll/qoscert/pkg/export"
	"github.com/r3d91ll/qoscert/pkg/layout"
	"github.com/r3d91ll/qoscert/pkg/roster"
	"github.com/r3d91ll/qoscert/pkg/session"
	"github.com/r3d91ll/qoscert/pkg/textmetrics"
)

// app holds the components shared by every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	clock     clock.Clock
	metrics   textmetrics.Metrics
	assembler *layout.Assembler
	renderers *export.Registry
	assets    *assets.Store
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	metrics, err := textmetrics.New(cfg.Metrics)
	if err != nil {
		return nil, certerrors.ConfigWrap(err, certerrors.ErrConfigInvalid, "metrics unavailable").
			WithContext("metrics", cfg.Metrics)
	}

	c := clock.Clock(clock.SystemClock{})
	assembler := layout.NewAssembler(cfg.Geometry(), metrics)
	assembler.Clock = c
	assembler.Logger = logger.Named("layout")

	renderers := export.Default(&export.PDFConfig{
		Title:           cfg.Renderer.Title,
		Author:          cfg.Renderer.Author,
		Subject:         "QoS certificates",
		ToolVersion:     version,
		Compress:        cfg.Renderer.Compress,
		IncludeMetadata: cfg.Renderer.Metadata,
		Metrics:         metrics,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		clock:     c,
		metrics:   metrics,
		assembler: assembler,
		renderers: renderers,
		assets:    assets.NewStore(cfg.Assets.Dir, cfg.Assets.CounterSignature),
	}, nil
}

// renderer returns the named renderer, or the configured one when name is empty.
func (a *app) renderer(name string) (export.Renderer, error) {
	if name == "" {
		name = a.cfg.Renderer.Name
	}
	r, ok := a.renderers.Get(name)
	if !ok {
		return nil, certerrors.Validationf(certerrors.ErrRendererUnknown, "unknown renderer %q", name)
	}
	return r, nil
}

// manager loads the roster and builds a session manager around it.
func (a *app) manager(publisher session.Publisher) (*session.Manager, error) {
	pins := make(map[string]string, len(roster.DefaultPINs)+len(a.cfg.Roster.PINs))
	for k, v := range roster.DefaultPINs {
		pins[k] = v
	}
	for k, v := range a.cfg.Roster.PINs {
		pins[k] = v
	}
	r, err := roster.Load(a.cfg.Roster.Path, roster.Options{
		DefaultPIN:    a.cfg.Roster.DefaultPIN,
		PINs:          pins,
		DefaultMTName: a.cfg.Roster.DefaultMTName,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("roster loaded",
		zap.String("path", a.cfg.Roster.Path),
		zap.Int("officers", r.Len()),
		zap.String("encoding", r.Encoding),
	)

	renderer, err := a.renderer("")
	if err != nil {
		return nil, err
	}
	return session.NewManager(r, a.assets, session.Options{
		Geometry:  a.assembler.Geometry,
		Metrics:   a.metrics,
		Renderer:  renderer,
		Clock:     a.clock,
		IdleTTL:   a.cfg.Session.IdleTTL,
		Logger:    a.logger.Named("session"),
		Publisher: publisher,
	}), nil
}
