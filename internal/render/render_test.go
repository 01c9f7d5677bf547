package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/destinator/internal/annot"
	"github.com/jackzampolin/destinator/internal/coords"
	"github.com/jackzampolin/destinator/internal/testutil"
)

func TestCheckDependencies(t *testing.T) {
	if _, err := CheckDependencies("destinator-no-such-binary"); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("CheckDependencies() error = %v, want ErrMissingDependency", err)
	}

	bin, _ := testutil.FakeRasterizer(t, 10, 20)
	path, err := CheckDependencies(bin)
	if err != nil || path != bin {
		t.Errorf("CheckDependencies(%q) = %q, %v", bin, path, err)
	}
}

func TestRenderer_DPI(t *testing.T) {
	tests := []struct {
		base, zoom float64
		want       int
	}{
		{0, 1, 72},
		{0, 1.5, 108},
		{0, 0.25, 18},
		{150, 2, 300},
		{72, 0.001, 1},
	}
	for _, tt := range tests {
		r := New(Options{BaseDPI: tt.base})
		if got := r.DPI(tt.zoom); got != tt.want {
			t.Errorf("DPI(base=%v, zoom=%v) = %d, want %d", tt.base, tt.zoom, got, tt.want)
		}
	}
}

func TestRenderer_RenderAndCache(t *testing.T) {
	bin, logPath := testutil.FakeRasterizer(t, 10, 20)
	pdf := testutil.WritePDF(t, testutil.Spec{Pages: testutil.Letter(2)})
	r := New(Options{Binary: bin, CacheDir: filepath.Join(t.TempDir(), "cache")})

	img, err := r.Render(context.Background(), pdf, 1, 2)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 20 {
		t.Errorf("bounds = %v", img.Bounds())
	}

	got := testutil.RasterizerCalls(t, logPath)
	if len(got) != 1 {
		t.Fatalf("calls = %v", got)
	}
	if !strings.Contains(got[0], "-f 2 -l 2 -r 144 -singlefile") {
		t.Errorf("arguments = %q", got[0])
	}

	if _, err := r.Render(context.Background(), pdf, 1, 2); err != nil {
		t.Fatal(err)
	}
	if n := len(testutil.RasterizerCalls(t, logPath)); n != 1 {
		t.Errorf("second render should hit the cache, rasterizer ran %d times", n)
	}

	if _, err := r.Render(context.Background(), pdf, 1, 1); err != nil {
		t.Fatal(err)
	}
	if n := len(testutil.RasterizerCalls(t, logPath)); n != 2 {
		t.Errorf("a new zoom must render again, rasterizer ran %d times", n)
	}

	if err := r.ClearCache(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Render(context.Background(), pdf, 1, 2); err != nil {
		t.Fatal(err)
	}
	if n := len(testutil.RasterizerCalls(t, logPath)); n != 3 {
		t.Errorf("cleared cache must render again, rasterizer ran %d times", n)
	}
}

func TestRenderer_Errors(t *testing.T) {
	pdf := testutil.WritePDF(t, testutil.Spec{Pages: testutil.Letter(1)})

	r := New(Options{Binary: "destinator-no-such-binary"})
	if _, err := r.Render(context.Background(), pdf, 0, 1); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("missing binary error = %v", err)
	}
	if _, err := r.Render(context.Background(), pdf, -1, 1); err == nil {
		t.Error("expected error for negative page")
	}
	if _, err := r.Render(context.Background(), pdf, 0, 0); err == nil {
		t.Error("expected error for zero zoom")
	}
	if _, err := r.Render(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), 0, 1); err == nil {
		t.Error("expected error for missing file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, pdf, 0, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled render error = %v", err)
	}
}

func TestPageCount(t *testing.T) {
	pdf := testutil.WritePDF(t, testutil.Spec{Pages: testutil.Letter(4)})
	n, err := PageCount(pdf)
	if err != nil || n != 4 {
		t.Errorf("PageCount() = %d, %v", n, err)
	}
	if _, err := PageCount(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCacheKey(t *testing.T) {
	pdf := testutil.WritePDF(t, testutil.Spec{Pages: testutil.Letter(1)})

	a, err := cacheKey(pdf, 0, 72)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := cacheKey(pdf, 0, 72)
	c, _ := cacheKey(pdf, 0, 144)
	d, _ := cacheKey(pdf, 1, 72)
	if a != b {
		t.Error("key should be stable")
	}
	if a == c || a == d {
		t.Error("key should depend on page and dpi")
	}

	pk := keyToPathTransform(a)
	if pk.Path[0] != a[:2] || pathToKeyTransform(pk) != a {
		t.Errorf("path transform = %+v", pk)
	}
}

func TestOverlayFor(t *testing.T) {
	store := annot.NewStore(2)
	store.SeedDestination(annot.Destination{ID: "a", Kind: annot.KindLocal, Origin: annot.OriginDocument})
	store.SeedDestination(annot.Destination{ID: "b", Kind: annot.KindLocal, Origin: annot.OriginDocument})
	store.SeedPosition("a", annot.Position{Page: 0, X: 10, Y: 10})
	store.SeedPosition("b", annot.Position{Page: 1, X: 10, Y: 10})
	store.SeedLink(annot.LinkRegion{Page: 0, Rect: coords.Rect{X1: 5, Y1: 5}, TargetID: "b", Kind: annot.LinkLocal})
	if _, err := store.AddLinkRegion(0, coords.Rect{X0: 20, Y0: 20, X1: 30, Y1: 30}, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddLinkRegion(1, coords.Rect{X0: 20, Y0: 20, X1: 30, Y1: 30}, "a"); err != nil {
		t.Fatal(err)
	}

	ov := OverlayFor(store, 0, 2, "a", 0)
	if ov.Scale != 2 || len(ov.Boxes) != 2 || len(ov.Markers) != 1 {
		t.Fatalf("overlay = %+v", ov)
	}
	if !ov.Boxes[0].Highlight || ov.Boxes[0].User {
		t.Errorf("hovered document box = %+v", ov.Boxes[0])
	}
	if !ov.Boxes[1].Highlight || !ov.Boxes[1].User {
		t.Errorf("box targeting selection = %+v", ov.Boxes[1])
	}
	if m := ov.Markers[0]; m.Label != "a" || !m.Selected {
		t.Errorf("marker = %+v", m)
	}

	ov = OverlayFor(store, 1, 1, "", -1)
	if len(ov.Boxes) != 1 || ov.Boxes[0].Highlight || len(ov.Markers) != 1 || ov.Markers[0].Selected {
		t.Errorf("page 2 overlay = %+v", ov)
	}
}

func TestDrawOverlay(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 200))
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			src.Set(x, y, white)
		}
	}

	ov := Overlay{
		Scale: 2,
		Boxes: []Box{
			{Rect: coords.Rect{X0: 10, Y0: 10, X1: 40, Y1: 40}, Kind: annot.LinkExternal},
			{Rect: coords.Rect{X0: 50, Y0: 50, X1: 90, Y1: 60}, Kind: annot.LinkLocal, User: true},
		},
		Markers: []Marker{{Point: coords.Point{X: 5, Y: 80}, Label: "intro", Selected: true}},
	}
	out := DrawOverlay(src, ov)

	if got := out.RGBAAt(20, 20); got != colorExternal {
		t.Errorf("box corner = %v, want %v", got, colorExternal)
	}
	if got := out.RGBAAt(50, 50); got != white {
		t.Errorf("box interior = %v, want white", got)
	}
	if got := out.RGBAAt(100, 100); got != colorLocal {
		t.Errorf("dashed box start = %v, want %v", got, colorLocal)
	}
	if got := out.RGBAAt(105, 100); got != white {
		t.Errorf("dashed box gap = %v, want white", got)
	}
	if got := out.RGBAAt(10, 160); got != colorHighlight {
		t.Errorf("selected marker = %v, want %v", got, colorHighlight)
	}
	if got := src.RGBAAt(20, 20); got != white {
		t.Error("source image must not be modified")
	}
}

func TestRenderer_OverlayAlignsWithBaseDPI(t *testing.T) {
	bin, logPath := testutil.FakeRasterizer(t, 300, 300)
	pdf := testutil.WritePDF(t, testutil.Spec{Pages: testutil.Letter(1)})
	r := New(Options{Binary: bin, BaseDPI: 144})

	if got := r.Scale(1); got != 2 {
		t.Fatalf("Scale(1) = %v, want 2", got)
	}
	img, err := r.RenderDPI(context.Background(), pdf, 0, r.DPI(1))
	if err != nil {
		t.Fatalf("RenderDPI() error = %v", err)
	}
	calls := testutil.RasterizerCalls(t, logPath)
	if len(calls) != 1 || !strings.Contains(calls[0], "-r 144") {
		t.Fatalf("rasterizer calls = %v", calls)
	}

	store := annot.NewStore(1)
	store.SeedDestination(annot.Destination{ID: "a", Kind: annot.KindLocal, Origin: annot.OriginDocument})
	store.SeedLink(annot.LinkRegion{Page: 0, Rect: coords.Rect{X0: 100, Y0: 50, X1: 120, Y1: 60}, TargetID: "a", Kind: annot.LinkLocal})

	out := DrawOverlay(img, OverlayFor(store, 0, r.Scale(1), "", -1))
	// The region starts at 100pt, which is pixel 200 at 144 dpi.
	if got := out.RGBAAt(200, 110); got != colorLocal {
		t.Errorf("pixel (200,110) = %v, want the box edge %v", got, colorLocal)
	}
	if got := out.RGBAAt(100, 50); got == colorLocal {
		t.Error("box drawn at the unscaled position")
	}
}

func TestRenderer_RenderDPIErrors(t *testing.T) {
	r := New(Options{Binary: "destinator-no-such-binary"})
	if _, err := r.RenderDPI(context.Background(), "x.pdf", 0, 0); err == nil {
		t.Error("expected an error for 0 dpi")
	}
	if _, err := r.RenderDPI(context.Background(), "x.pdf", -1, 72); err == nil {
		t.Error("expected an error for a negative page")
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "page.png")
	if err := WritePNG(path, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("WritePNG() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("preview not written: %v", err)
	}
}

func TestRenderer_Pdftoppm(t *testing.T) {
	bin := testutil.RequireBinary(t, DefaultBinary)
	pdf := testutil.WritePDF(t, testutil.Spec{Pages: testutil.Letter(2)})
	r := New(Options{Binary: bin, Logger: testutil.Logger(t)})

	img, err := r.Render(context.Background(), pdf, 1, 0.5)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	// 612x792 points at 36 dpi
	if b := img.Bounds(); b.Dx() != 306 || b.Dy() != 396 {
		t.Errorf("bounds = %v, want 306x396", b)
	}
}
