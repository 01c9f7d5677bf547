package session

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jackzampolin/destinator/internal/annot"
	"github.com/jackzampolin/destinator/internal/coords"
	"github.com/jackzampolin/destinator/internal/desired"
	"github.com/jackzampolin/destinator/internal/reconcile"
)

type fakeDoc struct {
	pages  int
	height float64

	destErr error
	linkErr error

	destWrites int
	linkWrites int
	dests      []reconcile.PlannedDest
	links      []annot.LinkRegion
	closed     int
}

func (f *fakeDoc) Path() string                { return "fake.pdf" }
func (f *fakeDoc) PageCount() int              { return f.pages }
func (f *fakeDoc) PageHeight(page int) float64 { return f.height }

func (f *fakeDoc) WriteDestinations(ctx context.Context, dests []reconcile.PlannedDest) error {
	if f.destErr != nil {
		return f.destErr
	}
	f.destWrites++
	f.dests = dests
	return nil
}

func (f *fakeDoc) RewriteLinks(ctx context.Context, links []annot.LinkRegion) error {
	if f.linkErr != nil {
		return f.linkErr
	}
	f.linkWrites++
	f.links = links
	return nil
}

func (f *fakeDoc) Close() error {
	f.closed++
	return nil
}

func newSession(t *testing.T, disc reconcile.Discovery, want []desired.Entry) (*Session, *fakeDoc) {
	t.Helper()
	if disc.PageCount == 0 {
		disc.PageCount = 3
	}
	doc := &fakeDoc{pages: disc.PageCount, height: 792}
	store, diags := reconcile.Load(disc, want, reconcile.DefaultPolicy())
	s, err := New(Config{Document: doc, Store: store, Diagnostics: diags})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, doc
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Store: annot.NewStore(1)}); err == nil {
		t.Error("expected error without a document")
	}
	if _, err := New(Config{Document: &fakeDoc{pages: 1}}); err == nil {
		t.Error("expected error without a store")
	}
	if _, err := New(Config{Document: &fakeDoc{pages: 2}, Store: annot.NewStore(1)}); err == nil {
		t.Error("expected error on page count mismatch")
	}
}

func TestSession_InitialState(t *testing.T) {
	s, _ := newSession(t, reconcile.Discovery{}, []desired.Entry{{Title: "Intro"}})

	if s.ID() == "" {
		t.Error("expected a session id")
	}
	if s.Page() != 0 || s.Zoom() != 1.0 || s.Selected() != 0 {
		t.Errorf("page=%d zoom=%v selected=%d", s.Page(), s.Zoom(), s.Selected())
	}

	empty, _ := newSession(t, reconcile.Discovery{}, nil)
	if empty.Selected() != -1 {
		t.Errorf("empty selection = %d", empty.Selected())
	}
}

func TestSession_PageNavigation(t *testing.T) {
	s, _ := newSession(t, reconcile.Discovery{PageCount: 2}, nil)

	if s.PrevPage() {
		t.Error("PrevPage on first page should not move")
	}
	if !s.NextPage() || s.Page() != 1 {
		t.Errorf("NextPage: page = %d", s.Page())
	}
	if s.NextPage() {
		t.Error("NextPage on last page should not move")
	}
	if err := s.GotoPage(5); !errors.Is(err, annot.ErrOutOfRange) {
		t.Errorf("GotoPage(5) error = %v", err)
	}
	if err := s.GotoPage(0); err != nil || s.Page() != 0 {
		t.Errorf("GotoPage(0) = %v, page %d", err, s.Page())
	}
}

func TestSession_ZoomBounds(t *testing.T) {
	s, _ := newSession(t, reconcile.Discovery{}, nil)

	for i := 0; i < 20; i++ {
		s.ZoomIn()
	}
	if s.Zoom() != 3.0 {
		t.Errorf("max zoom = %v", s.Zoom())
	}
	for i := 0; i < 20; i++ {
		s.ZoomOut()
	}
	if s.Zoom() != 0.5 {
		t.Errorf("min zoom = %v", s.Zoom())
	}
	if got := s.SetZoom(1.25); got != 1.25 {
		t.Errorf("SetZoom(1.25) = %v", got)
	}

	s.SetOptions(Options{ZoomMin: 0.5, ZoomMax: 1.0})
	if s.Zoom() != 1.0 {
		t.Errorf("zoom after narrowing bounds = %v", s.Zoom())
	}
	if s.Options().DragThreshold != 10 {
		t.Errorf("drag threshold should default, got %v", s.Options().DragThreshold)
	}
}

func TestSession_SelectJumpsToPage(t *testing.T) {
	disc := reconcile.Discovery{
		PageCount: 3,
		Catalog:   []reconcile.RawDest{{Name: "b", Page: 2, X: 1, Y: 1, Resolved: true}},
	}
	s, _ := newSession(t, disc, []desired.Entry{{Title: "A"}})

	if err := s.Select(1); err != nil {
		t.Fatalf("Select(1) error = %v", err)
	}
	if s.Page() != 2 {
		t.Errorf("page = %d, want 2", s.Page())
	}
	if err := s.Select(0); err != nil || s.Page() != 2 {
		t.Errorf("selecting an unpositioned destination should keep the page, got %d", s.Page())
	}
	if err := s.Select(9); !errors.Is(err, annot.ErrOutOfRange) {
		t.Errorf("Select(9) error = %v", err)
	}

	if err := s.NextDestination(); err != nil || s.Selected() != 1 {
		t.Errorf("NextDestination: %v, selected %d", err, s.Selected())
	}
	if err := s.NextDestination(); err != nil || s.Selected() != 1 {
		t.Errorf("NextDestination at end: %v, selected %d", err, s.Selected())
	}
	if err := s.PrevDestination(); err != nil || s.Selected() != 0 {
		t.Errorf("PrevDestination: %v, selected %d", err, s.Selected())
	}
}

func TestSession_AddAndRemove(t *testing.T) {
	s, _ := newSession(t, reconcile.Discovery{}, []desired.Entry{{Title: "Intro"}})

	i, err := s.AddDestination("Chapter Two")
	if err != nil || i != 1 || s.Selected() != 1 {
		t.Fatalf("AddDestination = %d, %v; selected %d", i, err, s.Selected())
	}

	i, err = s.AddDestination("intro")
	if !errors.Is(err, annot.ErrDuplicate) || i != 0 || s.Selected() != 0 {
		t.Errorf("duplicate add = %d, %v; selected %d", i, err, s.Selected())
	}

	if _, err := s.AddDestination("   "); !errors.Is(err, annot.ErrInvalidInput) {
		t.Errorf("blank add error = %v", err)
	}

	if err := s.Select(1); err != nil {
		t.Fatal(err)
	}
	d, _, err := s.RemoveSelected()
	if err != nil || d.ID != "chapter-two" {
		t.Fatalf("RemoveSelected = %+v, %v", d, err)
	}
	if s.Selected() != 0 {
		t.Errorf("selection after removing last = %d", s.Selected())
	}

	if _, _, err := s.RemoveSelected(); err != nil {
		t.Fatal(err)
	}
	if s.Selected() != -1 {
		t.Errorf("selection on empty list = %d", s.Selected())
	}
	if _, _, err := s.RemoveSelected(); !errors.Is(err, ErrNoSelection) {
		t.Errorf("remove on empty list error = %v", err)
	}
}

func TestSession_Gestures(t *testing.T) {
	tests := []struct {
		name     string
		zoom     float64
		from, to coords.Point
		action   Action
		pos      annot.Position
		rect     coords.Rect
	}{
		{
			name:   "click positions at press point",
			zoom:   2,
			from:   coords.Point{X: 200, Y: 100},
			to:     coords.Point{X: 205, Y: 104},
			action: ActionPositioned,
			pos:    annot.Position{Page: 0, X: 100, Y: 50},
		},
		{
			name:   "drag creates normalized region",
			zoom:   2,
			from:   coords.Point{X: 200, Y: 100},
			to:     coords.Point{X: 100, Y: 40},
			action: ActionLinked,
			rect:   coords.Rect{X0: 50, Y0: 20, X1: 100, Y1: 50},
		},
		{
			name:   "threshold distance is a drag",
			zoom:   1,
			from:   coords.Point{X: 0, Y: 0},
			to:     coords.Point{X: 6, Y: 8},
			action: ActionLinked,
			rect:   coords.Rect{X0: 0, Y0: 0, X1: 6, Y1: 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSession(t, reconcile.Discovery{}, []desired.Entry{{Title: "Intro"}})
			s.SetZoom(tt.zoom)

			out, err := s.Press(tt.from)
			if err != nil || out.Action != ActionDragStarted || !s.Dragging() {
				t.Fatalf("Press = %+v, %v", out, err)
			}
			out, err = s.Release(tt.to)
			if err != nil {
				t.Fatalf("Release error = %v", err)
			}
			if out.Action != tt.action {
				t.Fatalf("action = %s, want %s", out.Action, tt.action)
			}
			if s.Dragging() {
				t.Error("gesture should be idle after release")
			}

			switch tt.action {
			case ActionPositioned:
				pos, ok := s.Store().Position("intro")
				if !ok {
					t.Fatal("expected a position")
				}
				if diff := cmp.Diff(tt.pos, pos); diff != "" {
					t.Errorf("position mismatch (-want +got):\n%s", diff)
				}
			case ActionLinked:
				links := s.Store().Links()
				if len(links) != 1 {
					t.Fatalf("links = %d", len(links))
				}
				if diff := cmp.Diff(tt.rect, links[0].Rect); diff != "" {
					t.Errorf("rect mismatch (-want +got):\n%s", diff)
				}
				if links[0].TargetID != "intro" || links[0].Kind != annot.LinkLocal || links[0].Origin != annot.OriginUser {
					t.Errorf("link = %+v", links[0])
				}
			}
		})
	}
}

func TestSession_GesturesUsePreviewPixels(t *testing.T) {
	doc := &fakeDoc{pages: 1, height: 792}
	store, _ := reconcile.Load(reconcile.Discovery{PageCount: 1}, []desired.Entry{{Title: "Intro"}}, reconcile.DefaultPolicy())
	s, err := New(Config{Document: doc, Store: store, Options: Options{BaseDPI: 144}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.DPI() != 144 || s.Scale() != 2 {
		t.Fatalf("DPI() = %d, Scale() = %v", s.DPI(), s.Scale())
	}

	if _, err := s.Click(coords.Point{X: 200, Y: 100}); err != nil {
		t.Fatal(err)
	}
	pos, _ := s.Store().Position("intro")
	if diff := cmp.Diff(annot.Position{Page: 0, X: 100, Y: 50}, pos); diff != "" {
		t.Errorf("position mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.Drag(coords.Point{X: 200, Y: 100}, coords.Point{X: 300, Y: 200}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(coords.Rect{X0: 100, Y0: 50, X1: 150, Y1: 100}, s.Store().Links()[0].Rect); diff != "" {
		t.Errorf("rect mismatch (-want +got):\n%s", diff)
	}
	if _, ok := s.Hover(coords.Point{X: 250, Y: 150}); !ok {
		t.Error("hover inside the region in pixels should hit")
	}

	s.SetZoom(1.5)
	if s.DPI() != 216 || s.Scale() != 3 {
		t.Errorf("at zoom 1.5 DPI() = %d, Scale() = %v", s.DPI(), s.Scale())
	}
}

func TestSession_PressOnRegionDeletesIt(t *testing.T) {
	s, _ := newSession(t, reconcile.Discovery{}, []desired.Entry{{Title: "Intro"}})
	s.SetZoom(2)

	if _, err := s.Drag(coords.Point{X: 20, Y: 20}, coords.Point{X: 120, Y: 80}); err != nil {
		t.Fatal(err)
	}
	if i, ok := s.Hover(coords.Point{X: 60, Y: 60}); !ok || i != 0 {
		t.Errorf("Hover = %d, %v", i, ok)
	}
	if _, ok := s.Hover(coords.Point{X: 300, Y: 300}); ok {
		t.Error("Hover outside should miss")
	}

	out, err := s.Press(coords.Point{X: 60, Y: 60})
	if err != nil || out.Action != ActionLinkRemoved {
		t.Fatalf("Press on region = %+v, %v", out, err)
	}
	if s.Dragging() {
		t.Error("a deleting press must not start a drag")
	}
	if s.Store().LinkCount() != 0 {
		t.Error("region should be deleted")
	}

	s.NextPage()
	if _, err := s.Drag(coords.Point{X: 20, Y: 20}, coords.Point{X: 120, Y: 80}); err != nil {
		t.Fatal(err)
	}
	s.PrevPage()
	out, _ = s.Press(coords.Point{X: 60, Y: 60})
	if out.Action != ActionDragStarted {
		t.Errorf("regions of other pages are not hit, got %s", out.Action)
	}
}

func TestSession_GestureErrors(t *testing.T) {
	s, _ := newSession(t, reconcile.Discovery{}, nil)
	if out, err := s.Release(coords.Point{}); err != nil || out.Action != ActionNone {
		t.Errorf("release without press = %+v, %v", out, err)
	}
	if _, err := s.Click(coords.Point{X: 1, Y: 1}); !errors.Is(err, ErrNoSelection) {
		t.Errorf("click without selection error = %v", err)
	}

	if _, err := s.AddDestination("https://example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Click(coords.Point{X: 1, Y: 1}); !errors.Is(err, annot.ErrExternalPosition) {
		t.Errorf("click on external error = %v", err)
	}
	out, err := s.Drag(coords.Point{X: 1, Y: 1}, coords.Point{X: 50, Y: 50})
	if err != nil || out.Action != ActionLinked {
		t.Fatalf("drag to external = %+v, %v", out, err)
	}
	if l := s.Store().Links()[0]; l.Kind != annot.LinkExternal {
		t.Errorf("link kind = %s", l.Kind)
	}
}

func TestSession_SaveNoChanges(t *testing.T) {
	s, doc := newSession(t, reconcile.Discovery{}, []desired.Entry{{Title: "Intro"}})

	rep, err := s.Save(context.Background())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !rep.NoChanges {
		t.Error("expected NoChanges")
	}
	if doc.destWrites != 0 || doc.linkWrites != 0 {
		t.Errorf("nothing should be written: %d %d", doc.destWrites, doc.linkWrites)
	}
	if doc.closed != 1 || !s.Closed() {
		t.Error("document should be released")
	}
	if _, err := s.Save(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("second save error = %v", err)
	}
	if _, err := s.AddDestination("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("add after close error = %v", err)
	}
}

func TestSession_SaveWritesBothPasses(t *testing.T) {
	s, doc := newSession(t, reconcile.Discovery{}, []desired.Entry{{Title: "Intro"}})
	if _, err := s.Click(coords.Point{X: 10, Y: 20}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Drag(coords.Point{X: 100, Y: 100}, coords.Point{X: 200, Y: 150}); err != nil {
		t.Fatal(err)
	}

	rep, err := s.Save(context.Background())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if rep.NoChanges || rep.Modified != 1 || rep.AddedLinks != 1 || !rep.LinksRewritten {
		t.Errorf("report = %+v", rep)
	}
	want := []reconcile.PlannedDest{{ID: "intro", Position: annot.Position{Page: 0, X: 10, Y: 20}, Modified: true}}
	if diff := cmp.Diff(want, doc.dests); diff != "" {
		t.Errorf("written destinations mismatch (-want +got):\n%s", diff)
	}
	if len(doc.links) != 1 {
		t.Errorf("written links = %d", len(doc.links))
	}
}

func TestSession_SaveOnlyDestinations(t *testing.T) {
	s, doc := newSession(t, reconcile.Discovery{}, []desired.Entry{{Title: "Intro"}})
	if _, err := s.Click(coords.Point{X: 10, Y: 20}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(context.Background()); err != nil {
		t.Fatal(err)
	}
	if doc.destWrites != 1 || doc.linkWrites != 0 {
		t.Errorf("writes = %d %d", doc.destWrites, doc.linkWrites)
	}
}

func TestSession_SaveFailuresKeepSessionOpen(t *testing.T) {
	s, doc := newSession(t, reconcile.Discovery{}, []desired.Entry{{Title: "Intro"}})
	if _, err := s.Drag(coords.Point{X: 100, Y: 100}, coords.Point{X: 200, Y: 150}); err != nil {
		t.Fatal(err)
	}

	doc.destErr = errors.New("disk full")
	_, err := s.Save(context.Background())
	if err == nil || errors.Is(err, ErrPartialWrite) {
		t.Fatalf("pass 1 failure error = %v", err)
	}
	if s.Closed() || doc.closed != 0 {
		t.Fatal("session must stay open after a failed save")
	}

	doc.destErr = nil
	doc.linkErr = errors.New("permission denied")
	_, err = s.Save(context.Background())
	if !errors.Is(err, ErrPartialWrite) || !errors.Is(err, doc.linkErr) {
		t.Fatalf("pass 2 failure error = %v", err)
	}
	if s.Closed() || s.Store().LinkCount() != 1 {
		t.Fatal("store must be intact for retry")
	}

	doc.linkErr = nil
	if _, err := s.Save(context.Background()); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if !s.Closed() || doc.linkWrites != 1 {
		t.Errorf("closed=%v linkWrites=%d", s.Closed(), doc.linkWrites)
	}
}

func TestSession_Cancel(t *testing.T) {
	s, doc := newSession(t, reconcile.Discovery{}, []desired.Entry{{Title: "Intro"}})
	if _, err := s.Click(coords.Point{X: 1, Y: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.Cancel(); err != nil {
		t.Fatal(err)
	}
	if doc.destWrites != 0 || doc.closed != 1 {
		t.Errorf("cancel wrote %d, closed %d", doc.destWrites, doc.closed)
	}
	if err := s.Cancel(); !errors.Is(err, ErrClosed) {
		t.Errorf("second cancel error = %v", err)
	}
	if _, err := s.Press(coords.Point{}); !errors.Is(err, ErrClosed) {
		t.Errorf("press after cancel error = %v", err)
	}
}
