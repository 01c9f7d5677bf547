package session

import (
	"github.com/jackzampolin/destinator/internal/annot"
	"github.com/jackzampolin/destinator/internal/coords"
)

type gestureState int

const (
	gestureIdle gestureState = iota
	gestureDragging
)

// gesture tracks a press/release pair in preview pixel coordinates.
type gesture struct {
	state gestureState
	start coords.Point
}

func (g *gesture) reset() { *g = gesture{} }

// Action names the effect of a gesture.
type Action string

const (
	ActionNone        Action = "none"
	ActionDragStarted Action = "drag-started"
	ActionPositioned  Action = "positioned"
	ActionLinked      Action = "linked"
	ActionLinkRemoved Action = "link-removed"
)

// Outcome describes what a Press or Release did.
type Outcome struct {
	Action Action
	// ID is the destination positioned or targeted, or the target of the
	// removed link.
	ID string
	// Link is the store index of the created link region.
	Link     int
	Position annot.Position
	Rect     coords.Rect
}

// Dragging reports whether a press is waiting for its release.
func (s *Session) Dragging() bool { return s.gesture.state == gestureDragging }

// Press handles a button press at p in preview pixel coordinates. A press
// inside a link region of the current page deletes that region; anything
// else starts a drag.
func (s *Session) Press(p coords.Point) (Outcome, error) {
	if s.closed {
		return Outcome{Action: ActionNone}, ErrClosed
	}

	if i, ok := s.store.HitTestLinkRegion(s.page, coords.Unscale(p, s.Scale())); ok {
		l, err := s.store.RemoveLinkRegion(i)
		if err != nil {
			return Outcome{Action: ActionNone}, err
		}
		s.gesture.reset()
		s.logger.Debug("link removed", "page", l.Page, "target", l.TargetID)
		return Outcome{Action: ActionLinkRemoved, ID: l.TargetID, Rect: l.Rect, Link: i}, nil
	}

	s.gesture = gesture{state: gestureDragging, start: p}
	return Outcome{Action: ActionDragStarted}, nil
}

// Release completes a gesture at p in preview pixel coordinates. A release
// closer than the drag threshold to the press is a click and positions the
// selected destination at the press point. A longer drag creates a link
// region spanning both points that targets the selected destination.
func (s *Session) Release(p coords.Point) (Outcome, error) {
	if s.closed {
		return Outcome{Action: ActionNone}, ErrClosed
	}
	if s.gesture.state != gestureDragging {
		return Outcome{Action: ActionNone}, nil
	}
	start := s.gesture.start
	s.gesture.reset()

	d, ok := s.SelectedDestination()
	if !ok {
		return Outcome{Action: ActionNone}, ErrNoSelection
	}

	if coords.Distance(start, p) < s.opts.DragThreshold {
		at := coords.Unscale(start, s.Scale())
		pos := annot.Position{Page: s.page, X: at.X, Y: at.Y}
		if err := s.store.SetPosition(d.ID, pos); err != nil {
			return Outcome{Action: ActionNone}, err
		}
		s.logger.Debug("destination positioned", "id", d.ID, "page", pos.Page, "x", pos.X, "y", pos.Y)
		return Outcome{Action: ActionPositioned, ID: d.ID, Position: pos}, nil
	}

	rect := coords.RectFromPoints(coords.Unscale(start, s.Scale()), coords.Unscale(p, s.Scale()))
	i, err := s.store.AddLinkRegion(s.page, rect, d.ID)
	if err != nil {
		return Outcome{Action: ActionNone}, err
	}
	l := s.store.Links()[i]
	s.logger.Debug("link added", "page", l.Page, "target", l.TargetID, "kind", l.Kind)
	return Outcome{Action: ActionLinked, ID: d.ID, Link: i, Rect: l.Rect}, nil
}

// Click is a press immediately followed by a release at the same point.
func (s *Session) Click(p coords.Point) (Outcome, error) {
	out, err := s.Press(p)
	if err != nil || out.Action != ActionDragStarted {
		return out, err
	}
	return s.Release(p)
}

// Drag is a press at from followed by a release at to.
func (s *Session) Drag(from, to coords.Point) (Outcome, error) {
	out, err := s.Press(from)
	if err != nil || out.Action != ActionDragStarted {
		return out, err
	}
	return s.Release(to)
}

// Hover returns the store index of the link region of the current page
// under p, in preview pixel coordinates.
func (s *Session) Hover(p coords.Point) (int, bool) {
	return s.store.HitTestLinkRegion(s.page, coords.Unscale(p, s.Scale()))
}
