// xaytool inspects, verifies and converts XAY static mesh files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/xaytool/internal/config"
	"github.com/Faultbox/xaytool/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitWithOptions(logOptions(cfg.Logging)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, cfg, config.Args(), os.Stdout, os.Stderr)
	logger.Sync()
	os.Exit(code)
}

func logOptions(c config.LoggingConfig) logger.Options {
	opts := logger.Options{
		Level: c.Level,
		JSON:  c.Format == "json",
	}
	if c.LogFile != "" {
		opts.File = logger.FileConfig{
			Path:       c.LogFile,
			MaxSizeMB:  c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAgeDays: c.MaxAgeDays,
			Compress:   c.Compress,
		}
	}
	return opts
}

// run dispatches a command and returns the process exit code.
func run(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	command := args[0]
	args = args[1:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args, stdout)
	case "dump":
		err = cmdDump(args, stdout)
	case "verify", "check":
		err = cmdVerify(ctx, cfg, args, stdout)
	case "convert", "x":
		err = cmdConvert(ctx, cfg, args, stdout)
	case "serve":
		err = cmdServe(ctx, cfg)
	case "config":
		err = cmdConfig(cfg, args, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return 1
	}

	if err != nil {
		logger.Debug("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `xaytool - XAY static mesh utility

Usage:
  xaytool [flags] <command> [options]

Commands:
  info <file.xay>...            Show header, sections and bounds
  dump [-n N] <file.xay>        Dump the decoded file (first N vertices and faces)
  verify <file|dir>...          Strictly decode files and report corrupt ones
  convert <file|dir>...         Convert files to -format (glb, gltf, obj)
  serve                         Run the HTTP conversion service on -addr
  config [show]                 Print the effective configuration as YAML
  config init [path]            Write the effective configuration to a file

Flags:
  -config <path>   Config file (default ./xaytool.yaml or the user config dir)
  -format <name>   Output format
  -out <dir>       Output directory (default: next to each input)
  -workers <n>     Files converted in parallel
  -strict          Reject dangling face indices and bad section ranges
  -addr <addr>     Listen address for serve
  -log-file <path> Also write logs to a rotated file
  -debug           Enable debug logging

Examples:
  xaytool info wall.xay
  xaytool dump -n 4 wall.xay
  xaytool -format obj -out ./export convert ./meshes
  xaytool -strict verify ./meshes
  xaytool -addr :8740 serve`)
}
