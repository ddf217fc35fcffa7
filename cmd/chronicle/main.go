package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/chronicle/internal/config"
	"git.home.luguber.info/inful/chronicle/internal/daemon"
	cerrors "git.home.luguber.info/inful/chronicle/internal/errors"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"chronicle.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Serve struct{} `cmd:"" help:"Run the chronicle daemon (HTTP API, compaction, events)"`

	Put struct {
		Time   string   `short:"t" help:"Record timestamp in wire format (default: now)"`
		Tags   []string `help:"Tags to attach to the record"`
		Fields string   `arg:"" optional:"" help:"Record fields as a JSON object, or - for stdin"`
	} `cmd:"" help:"Append a record to the dataset"`

	Get struct {
		ID string `arg:"" help:"Record ID"`
	} `cmd:"" help:"Print a single record"`

	Delete struct {
		ID string `arg:"" help:"Record ID"`
	} `cmd:"" help:"Delete a record"`

	List struct{} `cmd:"" help:"List all records in timestamp order"`

	Query struct {
		From string `help:"Range start in wire format (inclusive)"`
		To   string `help:"Range end in wire format (inclusive)"`
		Tag  string `help:"Return only records carrying this tag"`
	} `cmd:"" help:"Query records by time range or tag"`

	Compact struct{} `cmd:"" help:"Rewrite the journal down to the live records"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	adapter := cerrors.NewCLIErrorAdapter(CLI.Verbose, logger)

	switch ctx.Command() {
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			adapter.HandleError(cerrors.Wrap(err, cerrors.CategoryConfig, cerrors.SeverityFatal, "init failed"))
		}
	case "serve":
		cfg := loadConfig(adapter)
		slog.SetDefault(slog.New(cfg.Logging.NewHandler(os.Stderr)))
		d, err := daemon.New(cfg, slog.Default())
		if err != nil {
			adapter.HandleError(cerrors.Wrap(err, cerrors.CategoryDaemon, cerrors.SeverityFatal, "daemon startup failed"))
		}
		if err := d.Run(context.Background()); err != nil {
			adapter.HandleError(cerrors.Wrap(err, cerrors.CategoryDaemon, cerrors.SeverityError, "daemon failed"))
		}
	case "put", "put <fields>":
		runWithDataset(adapter, runPut)
	case "get <id>":
		runWithDataset(adapter, runGet)
	case "delete <id>":
		runWithDataset(adapter, runDelete)
	case "list":
		runWithDataset(adapter, runList)
	case "query":
		runWithDataset(adapter, runQuery)
	case "compact":
		runWithDataset(adapter, runCompact)
	default:
		adapter.HandleError(cerrors.New(cerrors.CategoryValidation, cerrors.SeverityWarning, "unknown command"))
	}
}

func loadConfig(adapter *cerrors.CLIErrorAdapter) *config.Config {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		adapter.HandleError(cerrors.Wrap(err, cerrors.CategoryConfig, cerrors.SeverityFatal, "failed to load configuration"))
	}
	return cfg
}
