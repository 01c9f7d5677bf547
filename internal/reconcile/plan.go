package reconcile

import "github.com/jackzampolin/destinator/internal/annot"

// PlannedDest is a destination to be written to the catalog.
type PlannedDest struct {
	ID       string         `json:"id" yaml:"id"`
	Position annot.Position `json:"position" yaml:"position"`
	// Modified is true when the position was set during the session and
	// false when it is carried over from the document.
	Modified bool `json:"modified" yaml:"modified"`
}

// Plan is the write-back computed from a session's final state.
type Plan struct {
	Destinations []PlannedDest `json:"destinations" yaml:"destinations"`
	Modified     int           `json:"modified" yaml:"modified"`
	Preserved    int           `json:"preserved" yaml:"preserved"`
	Dropped      int           `json:"dropped" yaml:"dropped"`

	Links          []annot.LinkRegion `json:"links" yaml:"links"`
	AddedLinks     int                `json:"added_links" yaml:"added_links"`
	RemovedLinks   int                `json:"removed_links" yaml:"removed_links"`
	PreservedLinks int                `json:"preserved_links" yaml:"preserved_links"`
	// RewriteLinks is false when no link was added or removed; the link
	// annotations are then left untouched.
	RewriteLinks bool `json:"rewrite_links" yaml:"rewrite_links"`

	destinationsChanged bool
}

// Changed reports whether saving the plan would alter the document.
func (p *Plan) Changed() bool {
	return p.destinationsChanged || p.RewriteLinks
}

// DestinationsChanged reports whether the destination catalog differs from
// what the document held at load.
func (p *Plan) DestinationsChanged() bool {
	return p.destinationsChanged
}

// BuildPlan computes the destinations and links to persist.
//
// The destination map is every position found in the document, minus those
// the user deleted, overlaid with the session's positions. URL destinations
// never get a positional entry. Links are rewritten as a whole, in session
// order, and only when at least one was added or removed.
func BuildPlan(s *annot.Store) *Plan {
	final := make(map[string]annot.Position)
	for _, id := range s.Existing() {
		if s.Removed(id) {
			continue
		}
		pos, _ := s.ExistingPosition(id)
		final[id] = pos
	}
	for id, pos := range s.Positions() {
		final[id] = pos
	}
	for _, d := range s.Destinations() {
		if d.Kind == annot.KindExternal {
			delete(final, d.ID)
		}
	}

	p := &Plan{}

	// Session list order first, then document-only ids in discovery order.
	emitted := make(map[string]bool, len(final))
	emit := func(id string) {
		pos, ok := final[id]
		if !ok || emitted[id] {
			return
		}
		emitted[id] = true
		pd := PlannedDest{ID: id, Position: pos, Modified: s.Edited(id)}
		if pd.Modified {
			p.Modified++
		} else {
			p.Preserved++
		}
		p.Destinations = append(p.Destinations, pd)
	}
	for _, d := range s.Destinations() {
		emit(d.ID)
	}
	for _, id := range s.Existing() {
		emit(id)
	}

	existing := s.Existing()
	for _, id := range existing {
		if _, ok := final[id]; !ok {
			p.Dropped++
		}
	}
	p.destinationsChanged = len(final) != len(existing)
	if !p.destinationsChanged {
		for id, pos := range final {
			orig, ok := s.ExistingPosition(id)
			if !ok || orig != pos {
				p.destinationsChanged = true
				break
			}
		}
	}

	p.Links = s.Links()
	for _, l := range p.Links {
		if l.Origin == annot.OriginUser {
			p.AddedLinks++
		} else {
			p.PreservedLinks++
		}
	}
	p.RemovedLinks = s.OriginalLinkCount() - p.PreservedLinks
	p.RewriteLinks = p.AddedLinks > 0 || p.RemovedLinks > 0

	return p
}
