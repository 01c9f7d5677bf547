// Package pdfdoc reads and writes the destination catalog and link
// annotations of a PDF file using pdfcpu.
package pdfdoc

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func init() {
	// Keep pdfcpu from creating a config directory under the user's home.
	api.DisableConfigDir()
}

// ErrClosed is returned by operations on a closed document.
var ErrClosed = errors.New("document is closed")

// DefaultRenameAttempts is how often the final rename of a save is tried.
const DefaultRenameAttempts = 3

// Document is an open PDF file.
type Document struct {
	path   string
	logger *slog.Logger

	r      *reader
	closed bool

	// RenameAttempts bounds the retries of the atomic rename on save.
	RenameAttempts uint
}

// Open reads and validates the PDF at path.
func Open(path string, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r, err := readFile(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened document", "path", path, "pages", len(r.pages))
	return &Document{
		path:           path,
		logger:         logger,
		r:              r,
		RenameAttempts: DefaultRenameAttempts,
	}, nil
}

// Path returns the file path of the document.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.r.pages) }

// PageHeight returns the unscaled height of the zero-based page, or 0 when
// page is out of range.
func (d *Document) PageHeight(page int) float64 {
	if page < 0 || page >= len(d.r.pages) {
		return 0
	}
	return d.r.pages[page].height
}

// PageSize returns the unscaled width and height of the zero-based page.
func (d *Document) PageSize(page int) (float64, float64) {
	if page < 0 || page >= len(d.r.pages) {
		return 0, 0
	}
	return d.r.pages[page].width, d.r.pages[page].height
}

// Close releases the document. Further writes return ErrClosed.
func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.logger.Debug("closed document", "path", d.path)
	return nil
}

// page is one page of a reader, in document order.
type page struct {
	dict   types.Dict
	ref    types.IndirectRef
	width  float64
	height float64
}

// reader resolves pages and destinations of a pdfcpu context.
type reader struct {
	pc    *model.Context
	pages []page
	// byObj maps page object numbers to zero-based page indexes.
	byObj map[int]int
}

func readFile(path string) (*reader, error) {
	pc, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF %s: %w", path, err)
	}
	return newReader(pc)
}

func newReader(pc *model.Context) (*reader, error) {
	dims, err := pc.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	r := &reader{pc: pc, byObj: make(map[int]int)}
	for i := 1; i <= pc.PageCount; i++ {
		dict, ref, _, err := pc.PageDict(i, false)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", i, err)
		}
		if dict == nil || ref == nil {
			return nil, fmt.Errorf("page %d is missing", i)
		}
		p := page{dict: dict, ref: *ref}
		if i-1 < len(dims) {
			p.width, p.height = dims[i-1].Width, dims[i-1].Height
		}
		r.byObj[ref.ObjectNumber.Value()] = len(r.pages)
		r.pages = append(r.pages, p)
	}
	return r, nil
}
