package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/destinator/internal/api"
	"github.com/jackzampolin/destinator/internal/config"
	"github.com/jackzampolin/destinator/internal/home"
	"github.com/jackzampolin/destinator/internal/render"
	"github.com/jackzampolin/destinator/internal/svcctx"
	"github.com/jackzampolin/destinator/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "destinator",
	Short: "Place named destinations and links in PDF files",
	Long: `Destinator edits the named destinations and link annotations of a PDF.

Open a document with "destinator edit", pick destinations from a list,
position them with clicks on page previews, and drag link regions that
jump to them. Saving writes the destination catalog and link annotations
back into the file.

Page previews are rendered with pdftoppm (poppler-utils).`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.destinator/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "destinator home directory (default: ~/.destinator)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "", "output format: table, yaml or json (default: table on a terminal, yaml otherwise)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log at debug level",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads home and configuration, builds the services and attaches
// them to the command's context. Logs go to logOut.
func setup(cmd *cobra.Command, logOut io.Writer) (*svcctx.Services, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}

	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()

	level := cfg.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: level,
	}))
	if f := mgr.ConfigFile(); f != "" {
		logger.Debug("loaded config", "file", f)
	}

	s := &svcctx.Services{
		Config: mgr,
		Home:   h,
		Logger: logger,
		Renderer: render.New(render.Options{
			Binary:         cfg.Render.Pdftoppm,
			BaseDPI:        cfg.Render.BaseDPI,
			CacheDir:       h.CacheDir(),
			CacheSizeBytes: cfg.Render.CacheSizeBytes,
			Logger:         logger,
		}),
	}
	cmd.SetContext(svcctx.WithServices(cmd.Context(), s))
	return s, nil
}

// openLog opens the file the editor logs to while it owns the terminal.
func openLog(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// message prints a human-readable line unless structured output was asked for.
func message(format string, args ...any) {
	if api.IsStructuredOutput() {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
