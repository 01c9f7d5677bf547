// Package render rasterizes PDF pages with pdftoppm (poppler-utils) and
// draws destinations and link regions over the result.
package render

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/peterbourgon/diskv/v3"

	"github.com/jackzampolin/destinator/internal/coords"
)

// ErrMissingDependency is returned when the rasterizer binary is not installed.
var ErrMissingDependency = errors.New("missing dependency")

const (
	// DefaultBinary is the rasterizer looked up on PATH.
	DefaultBinary = "pdftoppm"
	// DefaultBaseDPI renders one PDF point as one pixel at zoom 1.
	DefaultBaseDPI = 72.0
	// DefaultCacheSize bounds the in-memory part of the render cache.
	DefaultCacheSize = 32 * 1024 * 1024
)

// CheckDependencies verifies that bin can be executed and returns its path.
func CheckDependencies(bin string) (string, error) {
	if bin == "" {
		bin = DefaultBinary
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %s not found (install poppler-utils): %v", ErrMissingDependency, bin, err)
	}
	return path, nil
}

// Options configures a Renderer.
type Options struct {
	// Binary is the pdftoppm executable. Defaults to DefaultBinary.
	Binary string
	// BaseDPI is the resolution at zoom 1. Defaults to DefaultBaseDPI.
	BaseDPI float64
	// CacheDir enables the on-disk cache of rendered pages when set.
	CacheDir string
	// CacheSizeBytes bounds the in-memory cache. Defaults to DefaultCacheSize.
	CacheSizeBytes uint64
	Logger         *slog.Logger
}

// Renderer rasterizes pages. It is not safe for concurrent use.
type Renderer struct {
	bin     string
	baseDPI float64
	cache   *diskv.Diskv
	logger  *slog.Logger
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	r := &Renderer{
		bin:     opts.Binary,
		baseDPI: opts.BaseDPI,
		logger:  opts.Logger,
	}
	if r.bin == "" {
		r.bin = DefaultBinary
	}
	if r.baseDPI <= 0 {
		r.baseDPI = DefaultBaseDPI
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if opts.CacheDir != "" {
		size := opts.CacheSizeBytes
		if size == 0 {
			size = DefaultCacheSize
		}
		r.cache = diskv.New(diskv.Options{
			BasePath:          opts.CacheDir,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      size,
		})
	}
	return r
}

// BaseDPI returns the resolution at zoom 1.
func (r *Renderer) BaseDPI() float64 { return r.baseDPI }

// DPI returns the resolution used for zoom.
func (r *Renderer) DPI(zoom float64) int {
	return coords.DPI(r.baseDPI, zoom)
}

// Scale returns the pixels per point of a page rendered at zoom. Overlays
// and pixel coordinates read off the image use it.
func (r *Renderer) Scale(zoom float64) float64 {
	return coords.PixelScale(r.baseDPI, zoom)
}

// Render rasterizes the zero-based page of the PDF at pdfPath.
func (r *Renderer) Render(ctx context.Context, pdfPath string, page int, zoom float64) (image.Image, error) {
	data, err := r.RenderPNG(ctx, pdfPath, page, zoom)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered page: %w", err)
	}
	return img, nil
}

// RenderDPI rasterizes the zero-based page at an explicit resolution.
func (r *Renderer) RenderDPI(ctx context.Context, pdfPath string, page, dpi int) (image.Image, error) {
	data, err := r.renderPNG(ctx, pdfPath, page, dpi)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered page: %w", err)
	}
	return img, nil
}

// RenderPNG returns the PNG encoding of the zero-based page, from the cache
// when the file has not changed since it was rendered.
func (r *Renderer) RenderPNG(ctx context.Context, pdfPath string, page int, zoom float64) ([]byte, error) {
	if zoom <= 0 {
		return nil, fmt.Errorf("invalid zoom %v", zoom)
	}
	return r.renderPNG(ctx, pdfPath, page, r.DPI(zoom))
}

func (r *Renderer) renderPNG(ctx context.Context, pdfPath string, page, dpi int) ([]byte, error) {
	if page < 0 {
		return nil, fmt.Errorf("invalid page %d", page+1)
	}
	if dpi < 1 {
		return nil, fmt.Errorf("invalid resolution %d dpi", dpi)
	}

	key, err := cacheKey(pdfPath, page, dpi)
	if err != nil {
		return nil, err
	}
	if r.cache != nil && r.cache.Has(key) {
		if data, err := r.cache.Read(key); err == nil {
			r.logger.Debug("render cache hit", "page", page+1, "dpi", dpi)
			return data, nil
		}
	}

	data, err := r.rasterize(ctx, pdfPath, page+1, dpi)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		if err := r.cache.Write(key, data); err != nil {
			r.logger.Warn("failed to cache rendered page", "page", page+1, "error", err)
		}
	}
	return data, nil
}

// ClearCache removes every cached page.
func (r *Renderer) ClearCache() error {
	if r.cache == nil {
		return nil
	}
	return r.cache.EraseAll()
}

// rasterize runs pdftoppm for one 1-based page.
func (r *Renderer) rasterize(ctx context.Context, pdfPath string, pageNum, dpi int) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	tmpDir, err := os.MkdirTemp("", "destinator-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")

	// -singlefile: no page number suffix on the output name
	pageStr := strconv.Itoa(pageNum)
	cmd := exec.CommandContext(ctx, r.bin,
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(dpi),
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("%w: %v", ErrMissingDependency, err)
		}
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	data, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	r.logger.Debug("rendered page", "page", pageNum, "dpi", dpi, "bytes", len(data))
	return data, nil
}

// PageCount returns the number of pages of the PDF at path.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create preview directory: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}

// cacheKey identifies a rendering of one page of one version of a file.
func cacheKey(pdfPath string, page, dpi int) (string, error) {
	abs, err := filepath.Abs(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", pdfPath, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", pdfPath, err)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d|%d|%d", abs, info.ModTime().UnixNano(), info.Size(), page, dpi)))
	return hex.EncodeToString(sum[:]), nil
}

// keyToPathTransform shards keys by their first two characters.
func keyToPathTransform(key string) *diskv.PathKey {
	if len(key) < 3 {
		return &diskv.PathKey{FileName: key}
	}
	return &diskv.PathKey{
		Path:     []string{key[:2]},
		FileName: key,
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return pathKey.FileName
}
