package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/r3d91ll/qoscert/pkg/api"
	"github.com/r3d91ll/qoscert/pkg/shell"
)

// sweepInterval is how often idle sessions are expired.
const sweepInterval = time.Minute

func runServe(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", a.cfg.Server.Addr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	hub := api.NewHub(a.logger.Named("ws"))
	defer hub.Stop()

	manager, err := a.manager(hub)
	if err != nil {
		return err
	}
	go manager.Run(ctx, sweepInterval)

	tokens, err := api.NewTokenIssuer(a.cfg.Auth.Secret, a.cfg.Auth.Issuer, a.cfg.Auth.TokenTTL, a.clock)
	if err != nil {
		return err
	}
	if a.cfg.Auth.Secret == "" {
		a.logger.Warn("auth.secret not set; tokens will not survive a restart")
	}

	srv := api.NewServer(&api.ServerConfig{
		Addr:         *addr,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		CORSOrigins:  a.cfg.Server.AllowedOrigins,
	}, a.logger.Named("http"))

	handler := api.NewHandler(api.HandlerDeps{
		Manager:         manager,
		Tokens:          tokens,
		Assembler:       a.assembler,
		Renderers:       a.renderers,
		DefaultRenderer: a.cfg.Renderer.Name,
		Assets:          a.assets,
		Hub:             hub,
		AllowedOrigins:  a.cfg.Server.AllowedOrigins,
		Logger:          a.logger.Named("api"),
	})
	handler.RegisterRoutes(srv.Router())

	if err := srv.Start(); err != nil {
		return err
	}
	fmt.Printf("Listening on %s\n", srv.Address())

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

func runShell(ctx context.Context, a *app) error {
	manager, err := a.manager(nil)
	if err != nil {
		return err
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║              qoscert - QoS Certificate Console            ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	homeDir, _ := os.UserHomeDir()
	sh, err := shell.New(manager, shell.Config{
		HistoryFile: filepath.Join(homeDir, ".qoscert_history"),
		OutputDir:   ".",
		Clock:       a.clock,
	})
	if err != nil {
		return err
	}
	return sh.Run(ctx)
}
