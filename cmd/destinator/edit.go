package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/destinator/internal/api"
	"github.com/jackzampolin/destinator/internal/config"
	"github.com/jackzampolin/destinator/internal/desired"
	"github.com/jackzampolin/destinator/internal/home"
	"github.com/jackzampolin/destinator/internal/pdfdoc"
	"github.com/jackzampolin/destinator/internal/reconcile"
	"github.com/jackzampolin/destinator/internal/render"
	"github.com/jackzampolin/destinator/internal/report"
	"github.com/jackzampolin/destinator/internal/session"
	"github.com/jackzampolin/destinator/internal/tui"
)

var (
	editTitles      []string
	editFile        string
	editAutoPreview bool
	editKeepPreview bool
)

var editCmd = &cobra.Command{
	Use:   "edit <pdf>",
	Short: "Edit the destinations and links of a PDF",
	Long: `Open an interactive editing session on a PDF.

The destination list is the document's own destinations merged with the
titles given by --titles and --file. Select a destination, press p to write
a preview of the current page, and read pixel coordinates off it:

  :click x y            position the selected destination
  :drag x0 y0 x1 y1     add a link region that jumps to it
  :click on a region    removes the region

ctrl+s saves and exits, esc exits without saving. Logs are written to
~/.destinator/destinator.log while the editor runs.

Examples:
  destinator edit book.pdf --titles "Introduction,Chapter 1"
  destinator edit book.pdf --file destinations.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pdfPath := args[0]

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}
		logFile, err := openLog(h.LogPath())
		if err != nil {
			return err
		}
		defer logFile.Close()

		svcs, err := setup(cmd, logFile)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		cfg := svcs.Config.Get()
		logger := svcs.Logger

		// Fail before the document is touched.
		if _, err := render.CheckDependencies(cfg.Render.Pdftoppm); err != nil {
			return err
		}

		want, err := loadDesired(editTitles, editFile, pdfPath, logger)
		if err != nil {
			return err
		}

		doc, err := pdfdoc.Open(pdfPath, logger)
		if err != nil {
			return err
		}
		store, diags := reconcile.Load(doc.Discover(), want, cfg.Policy())
		sess, err := session.New(session.Config{
			Document:    doc,
			Store:       store,
			Diagnostics: diags,
			Options:     cfg.EditorOptions(),
			Logger:      logger,
		})
		if err != nil {
			_ = doc.Close()
			return err
		}

		previewDir := cfg.PreviewDir(svcs.Home.PreviewsDir())
		model := tui.New(ctx, tui.Options{
			Session:     sess,
			Previewer:   tui.RenderPreviewer{Renderer: svcs.Renderer, Dir: previewDir},
			Logger:      logger,
			AutoPreview: editAutoPreview,
		})
		p := tea.NewProgram(model, tea.WithAltScreen())

		if svcs.Config.ConfigFile() != "" {
			svcs.Config.OnChange(func(c *config.Config) {
				p.Send(tui.OptionsMsg{Options: c.EditorOptions()})
			})
			svcs.Config.WatchConfig()
		}

		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				p.Quit()
			case <-done:
			}
		}()

		_, runErr := p.Run()
		if !sess.Closed() {
			_ = sess.Cancel()
		}
		if !editKeepPreview {
			if err := home.RemovePreviews(previewDir, sess.ID()); err != nil {
				logger.Warn("preview cleanup failed", "error", err)
			}
		}
		if runErr != nil {
			return fmt.Errorf("editor failed: %w", runErr)
		}

		if rep := model.Report(); rep != nil {
			return api.Output(report.Save{Report: *rep})
		}
		message("%s: closed without saving", pdfPath)
		return nil
	},
}

func init() {
	editCmd.Flags().StringSliceVar(&editTitles, "titles", nil, "destination titles to offer (comma separated)")
	editCmd.Flags().StringVar(&editFile, "file", "", "JSON or YAML file listing destinations")
	editCmd.Flags().BoolVar(&editAutoPreview, "auto-preview", true, "write a new preview after every change")
	editCmd.Flags().BoolVar(&editKeepPreview, "keep-previews", false, "keep preview images after the session ends")
}

// loadDesired merges --titles with the entries of --file for pdfPath.
func loadDesired(titles []string, file, pdfPath string, logger *slog.Logger) ([]desired.Entry, error) {
	want := desired.FromTitles(titles)
	if file == "" {
		return want, nil
	}
	entries, err := desired.LoadFile(file, filepath.Base(pdfPath))
	switch {
	case errors.Is(err, desired.ErrNotFound):
		logger.Warn("no destinations listed for this file", "file", file, "pdf", filepath.Base(pdfPath))
		return want, nil
	case err != nil:
		return nil, err
	}
	return append(want, entries...), nil
}
