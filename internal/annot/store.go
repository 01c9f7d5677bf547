package annot

import (
	"fmt"
	"strings"

	"github.com/jackzampolin/destinator/internal/coords"
)

// Store is the working set of a session. It is owned by a single goroutine;
// nothing here is safe for concurrent use.
//
// Every operation either succeeds or leaves the store unchanged, and no
// operation leaves a position or link pointing at an id that is not in the
// destination list. Page pseudo-targets of LinkPage regions are the one
// exception: they name a page, not a destination.
type Store struct {
	pageCount int

	dests     []Destination
	index     map[string]int
	positions map[string]Position
	links     []LinkRegion

	// existing holds every position found in the document, including
	// destinations filtered out of the visible list.
	existing      map[string]Position
	existingOrder []string

	// edited holds ids whose position was set during the session.
	edited map[string]bool
	// removed holds ids whose document position the user deleted.
	removed map[string]bool

	originalLinks int
}

// NewStore creates an empty store for a document with pageCount pages.
func NewStore(pageCount int) *Store {
	return &Store{
		pageCount: pageCount,
		index:     make(map[string]int),
		positions: make(map[string]Position),
		existing:  make(map[string]Position),
		edited:    make(map[string]bool),
		removed:   make(map[string]bool),
	}
}

// PageCount returns the number of pages of the document.
func (s *Store) PageCount() int { return s.pageCount }

// Len returns the number of destinations.
func (s *Store) Len() int { return len(s.dests) }

// Destinations returns a copy of the ordered destination list.
func (s *Store) Destinations() []Destination {
	out := make([]Destination, len(s.dests))
	copy(out, s.dests)
	return out
}

// Destination returns the destination at index i.
func (s *Store) Destination(i int) (Destination, bool) {
	if i < 0 || i >= len(s.dests) {
		return Destination{}, false
	}
	return s.dests[i], true
}

// IndexOf returns the list index of id, or -1.
func (s *Store) IndexOf(id string) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// Position returns the position for id.
func (s *Store) Position(id string) (Position, bool) {
	p, ok := s.positions[id]
	return p, ok
}

// Positions returns a copy of the id to position map.
func (s *Store) Positions() map[string]Position {
	out := make(map[string]Position, len(s.positions))
	for k, v := range s.positions {
		out[k] = v
	}
	return out
}

// Links returns a copy of the link regions in insertion order.
func (s *Store) Links() []LinkRegion {
	out := make([]LinkRegion, len(s.links))
	copy(out, s.links)
	return out
}

// LinkCount returns the number of link regions.
func (s *Store) LinkCount() int { return len(s.links) }

// LinksOnPage returns the store indexes of regions on page, in insertion order.
func (s *Store) LinksOnPage(page int) []int {
	var out []int
	for i, l := range s.links {
		if l.Page == page {
			out = append(out, i)
		}
	}
	return out
}

// LinksTo counts the regions targeting the destination id. Page jumps are
// not counted.
func (s *Store) LinksTo(id string) int {
	n := 0
	for _, l := range s.links {
		if l.Kind != LinkPage && l.TargetID == id {
			n++
		}
	}
	return n
}

// Existing returns the ids of positions found in the document, in discovery order.
func (s *Store) Existing() []string {
	out := make([]string, len(s.existingOrder))
	copy(out, s.existingOrder)
	return out
}

// ExistingPosition returns the document's original position for id.
func (s *Store) ExistingPosition(id string) (Position, bool) {
	p, ok := s.existing[id]
	return p, ok
}

// Edited reports whether the position of id was set during the session.
func (s *Store) Edited(id string) bool { return s.edited[id] }

// Removed reports whether the user deleted the document position of id.
func (s *Store) Removed(id string) bool { return s.removed[id] }

// OriginalLinkCount returns how many link regions the document held at load.
func (s *Store) OriginalLinkCount() int { return s.originalLinks }

// AddDestination appends a user-created destination. Input starting with
// http:// or https:// becomes an external destination whose id is the URL;
// anything else is a local destination with an id derived by ToID.
// If the id already exists, ErrDuplicate is returned along with its index.
func (s *Store) AddDestination(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return -1, fmt.Errorf("%w: empty title", ErrInvalidInput)
	}

	d := Destination{Title: text, Origin: OriginUser}
	if IsURL(text) {
		d.ID = text
		d.Kind = KindExternal
	} else {
		d.ID = ToID(text)
		d.Kind = KindLocal
	}
	if d.ID == "" {
		return -1, fmt.Errorf("%w: %q has no usable characters for an id", ErrInvalidInput, text)
	}
	if i, ok := s.index[d.ID]; ok {
		return i, fmt.Errorf("%w: %s", ErrDuplicate, d.ID)
	}

	s.appendDestination(d)
	return len(s.dests) - 1, nil
}

// RemoveDestination deletes the destination at index i together with its
// position and every link region targeting it. Page jumps are not links to
// a destination, so they survive even when a destination's id matches
// their pseudo-target. It returns the removed destination and the number of
// link regions removed with it.
func (s *Store) RemoveDestination(i int) (Destination, int, error) {
	if i < 0 || i >= len(s.dests) {
		return Destination{}, 0, fmt.Errorf("%w: destination %d of %d", ErrOutOfRange, i, len(s.dests))
	}
	d := s.dests[i]

	s.dests = append(s.dests[:i], s.dests[i+1:]...)
	s.reindex()

	s.dropPosition(d.ID)

	kept := s.links[:0]
	removed := 0
	for _, l := range s.links {
		if l.Kind != LinkPage && l.TargetID == d.ID {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	s.links = kept

	return d, removed, nil
}

// SetPosition creates or replaces the position of id.
func (s *Store) SetPosition(id string, pos Position) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDestination, id)
	}
	if s.dests[i].Kind == KindExternal {
		return fmt.Errorf("%w: %s", ErrExternalPosition, id)
	}
	if err := s.checkPage(pos.Page); err != nil {
		return err
	}

	s.positions[id] = pos
	s.edited[id] = true
	delete(s.removed, id)
	return nil
}

// RemovePosition deletes the position of id and reports whether one existed.
func (s *Store) RemovePosition(id string) bool {
	if _, ok := s.positions[id]; !ok {
		return false
	}
	s.dropPosition(id)
	return true
}

// AddLinkRegion appends a user-created region on page targeting targetID.
// The link kind follows the kind of the target destination.
func (s *Store) AddLinkRegion(page int, rect coords.Rect, targetID string) (int, error) {
	i, ok := s.index[targetID]
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrUnknownDestination, targetID)
	}
	if err := s.checkPage(page); err != nil {
		return -1, err
	}

	s.links = append(s.links, LinkRegion{
		Page:     page,
		Rect:     rect.Normalize(),
		TargetID: targetID,
		Kind:     LinkKindFor(s.dests[i].Kind),
		Origin:   OriginUser,
	})
	return len(s.links) - 1, nil
}

// RemoveLinkRegion deletes the region at index i.
func (s *Store) RemoveLinkRegion(i int) (LinkRegion, error) {
	if i < 0 || i >= len(s.links) {
		return LinkRegion{}, fmt.Errorf("%w: link %d of %d", ErrOutOfRange, i, len(s.links))
	}
	l := s.links[i]
	s.links = append(s.links[:i], s.links[i+1:]...)
	return l, nil
}

// HitTestLinkRegion returns the index of the first region on page, in
// insertion order, containing p. Earlier regions win over later ones.
func (s *Store) HitTestLinkRegion(page int, p coords.Point) (int, bool) {
	for i, l := range s.links {
		if l.Page == page && l.Rect.Contains(p) {
			return i, true
		}
	}
	return -1, false
}

// SeedExisting records a position found in the document. The first
// position recorded for an id wins.
func (s *Store) SeedExisting(id string, pos Position) bool {
	if _, ok := s.existing[id]; ok {
		return false
	}
	s.existing[id] = pos
	s.existingOrder = append(s.existingOrder, id)
	return true
}

// SeedDestination appends a destination during reconciliation.
func (s *Store) SeedDestination(d Destination) error {
	if d.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidInput)
	}
	if _, ok := s.index[d.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, d.ID)
	}
	s.appendDestination(d)
	return nil
}

// SeedPosition sets a position adopted from the document. Unlike
// SetPosition it does not mark the id as edited.
func (s *Store) SeedPosition(id string, pos Position) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDestination, id)
	}
	if s.dests[i].Kind == KindExternal {
		return fmt.Errorf("%w: %s", ErrExternalPosition, id)
	}
	if err := s.checkPage(pos.Page); err != nil {
		return err
	}
	s.positions[id] = pos
	return nil
}

// SeedLink appends a region found in the document.
func (s *Store) SeedLink(l LinkRegion) {
	l.Rect = l.Rect.Normalize()
	l.Origin = OriginDocument
	s.links = append(s.links, l)
	s.originalLinks++
}

func (s *Store) appendDestination(d Destination) {
	s.index[d.ID] = len(s.dests)
	s.dests = append(s.dests, d)
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.dests))
	for i, d := range s.dests {
		s.index[d.ID] = i
	}
}

// dropPosition forgets the session position of id and tombstones it if the
// document held one, so that saving does not bring it back.
func (s *Store) dropPosition(id string) {
	delete(s.positions, id)
	delete(s.edited, id)
	if _, ok := s.existing[id]; ok {
		s.removed[id] = true
	}
}

func (s *Store) checkPage(page int) error {
	if page < 0 || page >= s.pageCount {
		return fmt.Errorf("%w: page %d of %d", ErrOutOfRange, page, s.pageCount)
	}
	return nil
}
