package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/destinator/internal/annot"
	"github.com/jackzampolin/destinator/internal/api"
	"github.com/jackzampolin/destinator/internal/pdfdoc"
	"github.com/jackzampolin/destinator/internal/reconcile"
	"github.com/jackzampolin/destinator/internal/render"
)

var (
	renderPage       int
	renderZoom       float64
	renderOut        string
	renderNoOverlay  bool
	renderClearCache bool
)

// renderResult is what the render command reports.
type renderResult struct {
	Path  string  `json:"path" yaml:"path"`
	Page  int     `json:"page" yaml:"page"`
	Zoom  float64 `json:"zoom" yaml:"zoom"`
	DPI   int     `json:"dpi" yaml:"dpi"`
	Boxes int     `json:"boxes" yaml:"boxes"`
	Marks int     `json:"markers" yaml:"markers"`
}

var renderCmd = &cobra.Command{
	Use:   "render <pdf>",
	Short: "Write a page preview with destinations and links drawn on it",
	Long: `Rasterize one page with pdftoppm and draw the document's link regions
and positioned destinations over it.

Pixel coordinates read from the image at a given zoom are the ones the
editor's click and drag commands take at that zoom. The image has
render.base_dpi/72 pixels per point at zoom 1.

Examples:
  destinator render book.pdf --page 3
  destinator render book.pdf --page 3 --zoom 2 --out page3.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pdfPath := args[0]
		svcs, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}
		cfg := svcs.Config.Get()

		if _, err := render.CheckDependencies(cfg.Render.Pdftoppm); err != nil {
			return err
		}
		if renderClearCache {
			if err := svcs.Renderer.ClearCache(); err != nil {
				return err
			}
		}

		doc, err := pdfdoc.Open(pdfPath, svcs.Logger)
		if err != nil {
			return err
		}
		defer doc.Close()

		page := renderPage - 1
		if page < 0 || page >= doc.PageCount() {
			return fmt.Errorf("%w: page %d of %d", annot.ErrOutOfRange, renderPage, doc.PageCount())
		}
		zoom := renderZoom
		if zoom <= 0 {
			zoom = cfg.Editor.ZoomDefault
		}

		img, err := svcs.Renderer.Render(cmd.Context(), pdfPath, page, zoom)
		if err != nil {
			return err
		}

		var ov render.Overlay
		if !renderNoOverlay {
			store, _ := reconcile.Load(doc.Discover(), nil, cfg.Policy())
			ov = render.OverlayFor(store, page, svcs.Renderer.Scale(zoom), "", -1)
		}

		out := renderOut
		if out == "" {
			base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
			out = filepath.Join(cfg.PreviewDir(svcs.Home.PreviewsDir()), fmt.Sprintf("%s-page-%04d.png", base, renderPage))
		}
		if err := render.WritePNG(out, render.DrawOverlay(img, ov)); err != nil {
			return err
		}

		return api.Output(renderResult{
			Path:  out,
			Page:  renderPage,
			Zoom:  zoom,
			DPI:   svcs.Renderer.DPI(zoom),
			Boxes: len(ov.Boxes),
			Marks: len(ov.Markers),
		})
	},
}

func init() {
	renderCmd.Flags().IntVar(&renderPage, "page", 1, "page number, starting at 1")
	renderCmd.Flags().Float64Var(&renderZoom, "zoom", 0, "zoom factor (default: editor.zoom_default)")
	renderCmd.Flags().StringVar(&renderOut, "out", "", "output PNG (default: in the preview directory)")
	renderCmd.Flags().BoolVar(&renderNoOverlay, "no-overlay", false, "write the bare page")
	renderCmd.Flags().BoolVar(&renderClearCache, "clear-cache", false, "drop cached renders first")
}
