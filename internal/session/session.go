// Package session holds the state of one interactive editing session: the
// open document, the annotation store, selection, page and zoom. It is the
// only place edits and saves are orchestrated from.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jackzampolin/destinator/internal/annot"
	"github.com/jackzampolin/destinator/internal/coords"
	"github.com/jackzampolin/destinator/internal/reconcile"
)

var (
	// ErrClosed is returned by operations on a saved or cancelled session.
	ErrClosed = errors.New("session is closed")

	// ErrNoSelection is returned by gestures and edits that need a selected destination.
	ErrNoSelection = errors.New("no destination selected")

	// ErrPartialWrite is returned when destinations were saved but rewriting
	// link annotations failed. The document holds the new destinations and
	// the old links.
	ErrPartialWrite = errors.New("destinations saved but link annotations were not")
)

// Document is the open PDF as seen by a session.
type Document interface {
	Path() string
	PageCount() int
	// PageHeight returns the unscaled height of page in points.
	PageHeight(page int) float64
	WriteDestinations(ctx context.Context, dests []reconcile.PlannedDest) error
	RewriteLinks(ctx context.Context, links []annot.LinkRegion) error
	Close() error
}

// Options are the editor tunables.
type Options struct {
	ZoomMin       float64 `mapstructure:"zoom_min" yaml:"zoom_min"`
	ZoomMax       float64 `mapstructure:"zoom_max" yaml:"zoom_max"`
	ZoomStep      float64 `mapstructure:"zoom_step" yaml:"zoom_step"`
	ZoomDefault   float64 `mapstructure:"zoom_default" yaml:"zoom_default"`
	DragThreshold float64 `mapstructure:"drag_threshold" yaml:"drag_threshold"`
	// BaseDPI is the preview resolution at zoom 1. Gesture coordinates are
	// pixels of a preview rendered at DPI().
	BaseDPI float64 `mapstructure:"base_dpi" yaml:"base_dpi"`
}

// DefaultOptions returns the built-in editor settings.
func DefaultOptions() Options {
	return Options{
		ZoomMin:       0.5,
		ZoomMax:       3.0,
		ZoomStep:      0.25,
		ZoomDefault:   1.0,
		DragThreshold: 10,
		BaseDPI:       coords.PointsPerInch,
	}
}

// withDefaults fills zero or inconsistent fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ZoomMin <= 0 {
		o.ZoomMin = d.ZoomMin
	}
	if o.ZoomMax < o.ZoomMin {
		o.ZoomMax = max(d.ZoomMax, o.ZoomMin)
	}
	if o.ZoomStep <= 0 {
		o.ZoomStep = d.ZoomStep
	}
	if o.ZoomDefault <= 0 {
		o.ZoomDefault = d.ZoomDefault
	}
	o.ZoomDefault = coords.ClampZoom(o.ZoomDefault, o.ZoomMin, o.ZoomMax)
	if o.DragThreshold <= 0 {
		o.DragThreshold = d.DragThreshold
	}
	if o.BaseDPI <= 0 {
		o.BaseDPI = d.BaseDPI
	}
	return o
}

// Config configures a new Session.
type Config struct {
	Document    Document
	Store       *annot.Store
	Diagnostics []reconcile.Diagnostic
	Options     Options
	Logger      *slog.Logger
}

// Session is owned by a single goroutine.
type Session struct {
	id     string
	doc    Document
	store  *annot.Store
	diags  []reconcile.Diagnostic
	opts   Options
	logger *slog.Logger

	page     int
	zoom     float64
	selected int
	gesture  gesture
	closed   bool
}

// New creates a session over an open document and a reconciled store.
func New(cfg Config) (*Session, error) {
	if cfg.Document == nil {
		return nil, fmt.Errorf("document is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Store.PageCount() != cfg.Document.PageCount() {
		return nil, fmt.Errorf("store has %d pages, document has %d", cfg.Store.PageCount(), cfg.Document.PageCount())
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New().String()
	opts := cfg.Options.withDefaults()

	s := &Session{
		id:       id,
		doc:      cfg.Document,
		store:    cfg.Store,
		diags:    cfg.Diagnostics,
		opts:     opts,
		logger:   logger.With("session", id),
		zoom:     opts.ZoomDefault,
		selected: -1,
	}
	if s.store.Len() > 0 {
		s.selected = 0
	}

	for _, d := range s.diags {
		s.logger.Warn("load diagnostic", "code", d.Code, "subject", d.Subject, "message", d.Message)
	}
	s.logger.Info("session started",
		"path", s.doc.Path(),
		"pages", s.doc.PageCount(),
		"destinations", s.store.Len(),
		"links", s.store.LinkCount())
	return s, nil
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Path returns the path of the document being edited.
func (s *Session) Path() string { return s.doc.Path() }

// Store returns the annotation store. Callers must not mutate it directly.
func (s *Session) Store() *annot.Store { return s.store }

// Diagnostics returns the anomalies found while loading.
func (s *Session) Diagnostics() []reconcile.Diagnostic { return s.diags }

// Options returns the active editor options.
func (s *Session) Options() Options { return s.opts }

// SetOptions replaces the editor options, e.g. after a config reload. The
// current zoom is clamped to the new bounds.
func (s *Session) SetOptions(o Options) {
	s.opts = o.withDefaults()
	s.zoom = coords.ClampZoom(s.zoom, s.opts.ZoomMin, s.opts.ZoomMax)
}

// Closed reports whether the session was saved or cancelled.
func (s *Session) Closed() bool { return s.closed }

// Page returns the current zero-based page.
func (s *Session) Page() int { return s.page }

// PageCount returns the number of pages of the document.
func (s *Session) PageCount() int { return s.doc.PageCount() }

// PageHeight returns the unscaled height of the current page.
func (s *Session) PageHeight() float64 { return s.doc.PageHeight(s.page) }

// Zoom returns the current zoom factor.
func (s *Session) Zoom() float64 { return s.zoom }

// DPI returns the resolution previews of the current zoom are rendered at.
func (s *Session) DPI() int { return coords.DPI(s.opts.BaseDPI, s.zoom) }

// Scale returns the pixels per point of a preview rendered at DPI. Gesture
// coordinates are divided by it.
func (s *Session) Scale() float64 { return coords.PixelScale(s.opts.BaseDPI, s.zoom) }

// Selected returns the index of the selected destination, or -1.
func (s *Session) Selected() int { return s.selected }

// SelectedDestination returns the selected destination.
func (s *Session) SelectedDestination() (annot.Destination, bool) {
	return s.store.Destination(s.selected)
}

// NextPage moves to the following page and reports whether the page changed.
func (s *Session) NextPage() bool {
	if s.closed || s.page+1 >= s.doc.PageCount() {
		return false
	}
	s.page++
	s.gesture.reset()
	return true
}

// PrevPage moves to the preceding page and reports whether the page changed.
func (s *Session) PrevPage() bool {
	if s.closed || s.page == 0 {
		return false
	}
	s.page--
	s.gesture.reset()
	return true
}

// GotoPage moves to the zero-based page.
func (s *Session) GotoPage(page int) error {
	if s.closed {
		return ErrClosed
	}
	if page < 0 || page >= s.doc.PageCount() {
		return fmt.Errorf("%w: page %d of %d", annot.ErrOutOfRange, page+1, s.doc.PageCount())
	}
	s.page = page
	s.gesture.reset()
	return nil
}

// ZoomIn increases the zoom by one step and returns the new zoom.
func (s *Session) ZoomIn() float64 {
	return s.SetZoom(s.zoom + s.opts.ZoomStep)
}

// ZoomOut decreases the zoom by one step and returns the new zoom.
func (s *Session) ZoomOut() float64 {
	return s.SetZoom(s.zoom - s.opts.ZoomStep)
}

// SetZoom sets the zoom, clamped to the configured bounds.
func (s *Session) SetZoom(z float64) float64 {
	if s.closed {
		return s.zoom
	}
	s.zoom = coords.ClampZoom(z, s.opts.ZoomMin, s.opts.ZoomMax)
	s.gesture.reset()
	return s.zoom
}

// Select selects the destination at index i and, when it is positioned,
// moves to its page.
func (s *Session) Select(i int) error {
	if s.closed {
		return ErrClosed
	}
	d, ok := s.store.Destination(i)
	if !ok {
		return fmt.Errorf("%w: destination %d of %d", annot.ErrOutOfRange, i+1, s.store.Len())
	}
	s.selected = i
	if pos, ok := s.store.Position(d.ID); ok && pos.Page != s.page {
		s.page = pos.Page
		s.gesture.reset()
	}
	return nil
}

// NextDestination selects the following destination, if any.
func (s *Session) NextDestination() error {
	if s.store.Len() == 0 {
		return ErrNoSelection
	}
	if s.selected+1 >= s.store.Len() {
		return nil
	}
	return s.Select(s.selected + 1)
}

// PrevDestination selects the preceding destination, if any.
func (s *Session) PrevDestination() error {
	if s.store.Len() == 0 {
		return ErrNoSelection
	}
	if s.selected <= 0 {
		return s.Select(0)
	}
	return s.Select(s.selected - 1)
}

// AddDestination adds a destination from a title or URL and selects it.
// When the id already exists the existing entry is selected and the
// annot.ErrDuplicate error is returned.
func (s *Session) AddDestination(text string) (int, error) {
	if s.closed {
		return -1, ErrClosed
	}
	i, err := s.store.AddDestination(text)
	if err != nil {
		if errors.Is(err, annot.ErrDuplicate) {
			s.selected = i
		}
		return i, err
	}
	s.selected = i
	d, _ := s.store.Destination(i)
	s.logger.Debug("destination added", "id", d.ID, "kind", d.Kind)
	return i, nil
}

// RemoveSelected removes the selected destination with its position and
// links. It returns the removed destination and how many links went with it.
func (s *Session) RemoveSelected() (annot.Destination, int, error) {
	if s.closed {
		return annot.Destination{}, 0, ErrClosed
	}
	if s.selected < 0 {
		return annot.Destination{}, 0, ErrNoSelection
	}
	d, n, err := s.store.RemoveDestination(s.selected)
	if err != nil {
		return annot.Destination{}, 0, err
	}
	if s.selected >= s.store.Len() {
		s.selected = s.store.Len() - 1
	}
	s.logger.Debug("destination removed", "id", d.ID, "links", n)
	return d, n, nil
}

// RemoveSelectedPosition clears the position of the selected destination
// and reports whether it had one.
func (s *Session) RemoveSelectedPosition() (bool, error) {
	if s.closed {
		return false, ErrClosed
	}
	d, ok := s.SelectedDestination()
	if !ok {
		return false, ErrNoSelection
	}
	removed := s.store.RemovePosition(d.ID)
	if removed {
		s.logger.Debug("position removed", "id", d.ID)
	}
	return removed, nil
}
