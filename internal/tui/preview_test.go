package tui

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/destinator/internal/coords"
	"github.com/jackzampolin/destinator/internal/render"
	"github.com/jackzampolin/destinator/internal/testutil"
)

func TestRenderPreviewer(t *testing.T) {
	bin, logPath := testutil.FakeRasterizer(t, 40, 30)
	pdf := testutil.WritePDF(t, testutil.Spec{Pages: testutil.Letter(3)})
	dir := t.TempDir()
	p := RenderPreviewer{
		Renderer: render.New(render.Options{Binary: bin, Logger: testutil.Logger(t)}),
		Dir:      dir,
	}

	req := PreviewRequest{
		SessionID: "s1",
		Path:      pdf,
		Page:      2,
		DPI:       144,
		Overlay: render.Overlay{Scale: 2, Markers: []render.Marker{
			{Point: coords.Point{X: 5, Y: 5}, Label: "x", Selected: true},
		}},
	}
	path, err := p.Preview(context.Background(), req)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if want := filepath.Join(dir, "s1", "page_0003.png"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("bounds = %v", b)
	}
	// The marker at (5,5) zoomed to (10,10) is drawn over the blank page.
	if _, _, _, a := img.At(10, 10).RGBA(); a == 0 {
		t.Error("expected the marker to be drawn")
	}

	calls := testutil.RasterizerCalls(t, logPath)
	if len(calls) != 1 || !strings.Contains(calls[0], "-f 3 -l 3 -r 144") {
		t.Errorf("rasterizer calls = %v", calls)
	}
}

func TestRenderPreviewer_Error(t *testing.T) {
	p := RenderPreviewer{
		Renderer: render.New(render.Options{Binary: "destinator-no-such-binary"}),
		Dir:      t.TempDir(),
	}
	pdf := testutil.WritePDF(t, testutil.Spec{Pages: testutil.Letter(1)})
	if _, err := p.Preview(context.Background(), PreviewRequest{Path: pdf, DPI: 72}); err == nil {
		t.Error("expected an error without a rasterizer")
	}
}
