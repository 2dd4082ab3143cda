package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/lexandro/sourcescan/watcher"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	baseDir    string
	configFile string
	properties []string
	logLevel   string
	logFile    string
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand creates the sourcescan command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "sourcescan",
		Short: "Discover, filter and classify the source files of a project",
		Long: `sourcescan walks the source and test folders of every module of a project,
applies inclusion, exclusion and SCM ignore rules, detects the encoding and
language of each file and builds the catalog later analysis stages read.`,
		Version:      Version,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.baseDir, "base-dir", ".", "Project base directory")
	flags.StringVar(&opts.configFile, "config", "", "Project configuration file (default: sourcescan.yaml|yml|toml in the base directory)")
	flags.StringArrayVarP(&opts.properties, "define", "D", nil, "Set a project property, key=value (repeatable)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	flags.StringVar(&opts.logFile, "log-file", "", "Log file path (default: stderr)")

	cmd.AddCommand(newScanCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))
	return cmd
}

func newScanCommand(global *globalOptions) *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Index the project and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, closeLog := setupLogger(global.logLevel, global.logFile)
			defer closeLog()

			run, err := performScan(cmd.Context(), global, opts, logger)
			if err != nil {
				logger.Error("scan failed", "error", err)
				return err
			}
			writeSummary(cmd.OutOrStdout(), run)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.baselinePath, "baseline", "", "Baseline database of the previous analysis (default: <work dir>/baseline.db)")
	cmd.Flags().BoolVar(&opts.saveBaseline, "save-baseline", false, "Record this analysis as the baseline of the next one")
	cmd.Flags().BoolVar(&opts.noBaseline, "no-baseline", false, "Ignore the previous analysis, every file is ADDED unless the SCM knows better")
	return cmd
}

func newListCommand(global *globalOptions) *cobra.Command {
	opts := &scanOptions{noBaseline: true}
	var list listOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Index the project and list the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, closeLog := setupLogger(global.logLevel, global.logFile)
			defer closeLog()

			run, err := performScan(cmd.Context(), global, opts, logger)
			if err != nil {
				logger.Error("scan failed", "error", err)
				return err
			}
			return writeFileList(cmd.OutOrStdout(), run, list)
		},
	}
	cmd.Flags().StringVar(&list.glob, "glob", "", "Only list files whose project relative path matches this glob")
	cmd.Flags().IntVar(&list.maxResults, "max-results", 0, "Maximum number of files listed with --glob (0: no limit)")
	cmd.Flags().StringVar(&list.strategy, "strategy", "", "File system view: global|module (default: filesystem.strategy property, then global)")
	cmd.Flags().StringVar(&list.module, "module", "", "Module the view is built for (default: the project)")
	cmd.Flags().StringVar(&list.language, "language", "", "Only list files of this language")
	cmd.Flags().BoolVar(&list.details, "details", false, "Print type, language, charset, status and line count")
	return cmd
}

func newWatchCommand(global *globalOptions) *cobra.Command {
	opts := &scanOptions{}
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Index the project and index it again whenever its files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, closeLog := setupLogger(global.logLevel, global.logFile)
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := watchAndScan(ctx, global, opts, interval, logger, cmd.OutOrStdout()); err != nil {
				logger.Error("watch failed", "error", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.baselinePath, "baseline", "", "Baseline database of the previous analysis (default: <work dir>/baseline.db)")
	cmd.Flags().BoolVar(&opts.noBaseline, "no-baseline", false, "Ignore the previous analysis")
	cmd.Flags().DurationVar(&interval, "debounce", watcher.DefaultDebounceInterval, "Quiet period before changes trigger a scan")
	return cmd
}

// setupLogger creates an slog.Logger writing to stderr or a file. Terminals
// get the charm handler, anything else the plain text handler.
func setupLogger(level string, logFile string) (*slog.Logger, func()) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer io.Writer = os.Stderr
	closeFn := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
		} else {
			writer = f
			closeFn = func() { _ = f.Close() }
		}
	}

	if f, ok := writer.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		handler := charmlog.NewWithOptions(f, charmlog.Options{
			Level:           charmlog.Level(logLevel),
			ReportTimestamp: true,
		})
		return slog.New(handler), closeFn
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler), closeFn
}
