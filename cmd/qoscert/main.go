// qoscert - QoS Certificate Generator
//
// qoscert lays out one QoS certificate page per TIP and writes them into a
// single PDF. It runs in three modes:
//
//   - render: batch-render a YAML records file
//   - serve:  HTTP/WebSocket API for officer sessions
//   - shell:  interactive console for one officer
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/r3d91ll/qoscert/pkg/config"
	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
	"github.com/r3d91ll/qoscert/pkg/logging"
)

const version = "1.0.0"

const usage = `Usage: qoscert [flags] <command> [args]

Commands:
  render -records <file.yaml> [-out <file.pdf>] [-counter <path>]
         [-renderer native|fpdf] [-timestamp "YYYY-MM-DD HH:MM"] [-force]
  serve  [-addr host:port]
  shell

Flags:
`

func main() {
	configPath := flag.String("config", "", "Config file path (default: ~/.config/qoscert/config.yaml)")
	initConfig := flag.Bool("init", false, "Initialize default config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("qoscert %s\n", version)
		os.Exit(0)
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}

	if *initConfig {
		if err := config.InitConfig(cfgPath); err != nil {
			certerrors.Display(err)
			os.Exit(1)
		}
		fmt.Printf("Config initialized at: %s\n", cfgPath)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		certerrors.Display(err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger)
	if err != nil {
		certerrors.Display(err)
		os.Exit(1)
	}

	args := flag.Args()
	switch args[0] {
	case "render":
		err = runRender(ctx, a, args[1:])
	case "serve":
		err = runServe(ctx, a, args[1:])
	case "shell":
		err = runShell(ctx, a)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}

	if err != nil && err != context.Canceled {
		certerrors.Display(err)
		os.Exit(1)
	}
}
