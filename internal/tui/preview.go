package tui

import (
	"context"
	"fmt"

	"github.com/jackzampolin/destinator/internal/home"
	"github.com/jackzampolin/destinator/internal/render"
)

// PreviewRequest is a snapshot of what to draw, taken on the event loop so
// the preview can be produced off it.
type PreviewRequest struct {
	SessionID string
	Path      string
	Page      int
	// DPI is the render resolution. Overlay.Scale must match it.
	DPI     int
	Overlay render.Overlay
}

// Previewer turns a request into an image file and returns its path.
type Previewer interface {
	Preview(ctx context.Context, req PreviewRequest) (string, error)
}

// RenderPreviewer rasterizes the page and draws the overlay on it.
type RenderPreviewer struct {
	Renderer *render.Renderer
	// Dir is the preview root. Each session writes to its own subdirectory.
	Dir string
}

// Preview implements Previewer.
func (p RenderPreviewer) Preview(ctx context.Context, req PreviewRequest) (string, error) {
	img, err := p.Renderer.RenderDPI(ctx, req.Path, req.Page, req.DPI)
	if err != nil {
		return "", fmt.Errorf("render page %d: %w", req.Page+1, err)
	}
	out := home.PreviewPath(p.Dir, req.SessionID, req.Page)
	if err := render.WritePNG(out, render.DrawOverlay(img, req.Overlay)); err != nil {
		return "", err
	}
	return out, nil
}
