// Package annot holds the in-memory model of an editing session: the ordered
// destination list, destination positions and link regions, and which of
// them came from the document versus the user.
package annot

import (
	"fmt"

	"github.com/jackzampolin/destinator/internal/coords"
)

// Kind distinguishes page-position destinations from URL targets.
type Kind string

const (
	// KindLocal is a named position inside the document.
	KindLocal Kind = "local"
	// KindExternal is a URL. It has no position and only serves as a link target.
	KindExternal Kind = "url"
)

// Origin records where an entry came from.
type Origin string

const (
	OriginDocument Origin = "document"
	OriginUser     Origin = "user"
)

// Destination is a named anchor or an external link target.
type Destination struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Kind   Kind   `json:"kind" yaml:"kind"`
	Origin Origin `json:"origin" yaml:"origin"`
}

// Position places a destination on a page, in unscaled display space
// (origin top-left).
type Position struct {
	Page int     `json:"page" yaml:"page"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
}

// Point returns the position as a coords.Point.
func (p Position) Point() coords.Point {
	return coords.Point{X: p.X, Y: p.Y}
}

// LinkKind is how a link region is persisted.
type LinkKind string

const (
	// LinkLocal jumps to a named destination.
	LinkLocal LinkKind = "local"
	// LinkExternal opens a URI.
	LinkExternal LinkKind = "url"
	// LinkPage jumps straight to a page that has no named destination.
	// Its target id is a page-<n> pseudo-target.
	LinkPage LinkKind = "page"
)

// LinkRegion is a clickable rectangle on a page.
type LinkRegion struct {
	Page     int         `json:"page" yaml:"page"`
	Rect     coords.Rect `json:"rect" yaml:"rect"`
	TargetID string      `json:"target" yaml:"target"`
	Kind     LinkKind    `json:"kind" yaml:"kind"`
	Origin   Origin      `json:"origin" yaml:"origin"`
}

// PagePseudoID returns the pseudo-target id for a direct jump to the
// zero-based page index.
func PagePseudoID(page int) string {
	return fmt.Sprintf("page-%d", page+1)
}

// PageFromPseudoID parses a page pseudo-target id back to a zero-based index.
func PageFromPseudoID(id string) (int, bool) {
	var n int
	if _, err := fmt.Sscanf(id, "page-%d", &n); err != nil || n < 1 {
		return 0, false
	}
	if PagePseudoID(n-1) != id {
		return 0, false
	}
	return n - 1, true
}

// LinkKindFor returns the link kind used for regions targeting a destination
// of the given kind.
func LinkKindFor(k Kind) LinkKind {
	if k == KindExternal {
		return LinkExternal
	}
	return LinkLocal
}
