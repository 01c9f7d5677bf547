// Package reconcile merges the destinations and links found in a document
// with a caller-supplied list of desired destinations, and computes what has
// to be written back when a session is saved.
package reconcile

import (
	"fmt"

	"github.com/jackzampolin/destinator/internal/coords"
)

// Source names the place in a document a destination was read from.
type Source string

const (
	// SourceNameTree is the /Names /Dests name tree. It takes precedence.
	SourceNameTree Source = "names"
	// SourceCatalog is the catalog-level /Dests dictionary.
	SourceCatalog Source = "dests"
)

// RawDest is a destination as read from the document, already converted to
// unscaled display space using the height of its own page.
type RawDest struct {
	Name     string  `json:"name" yaml:"name"`
	Source   Source  `json:"source" yaml:"source"`
	Page     int     `json:"page" yaml:"page"`
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Resolved bool    `json:"resolved" yaml:"resolved"`
}

// TargetKind classifies what a link annotation points at.
type TargetKind string

const (
	TargetNamed TargetKind = "named"
	TargetPage  TargetKind = "page"
	TargetURI   TargetKind = "uri"
)

// LinkTarget is the decoded action or destination of a link annotation.
type LinkTarget struct {
	Kind TargetKind `json:"kind" yaml:"kind"`
	// Name is set for TargetNamed.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Page, HasPosition, X and Y are set for TargetPage. The position is in
	// unscaled display space of the target page.
	Page        int     `json:"page,omitempty" yaml:"page,omitempty"`
	HasPosition bool    `json:"has_position,omitempty" yaml:"has_position,omitempty"`
	X           float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y           float64 `json:"y,omitempty" yaml:"y,omitempty"`
	// URI is set for TargetURI.
	URI string `json:"uri,omitempty" yaml:"uri,omitempty"`
}

// RawLink is a link annotation as read from the document.
type RawLink struct {
	Page   int         `json:"page" yaml:"page"`
	Rect   coords.Rect `json:"rect" yaml:"rect"`
	Target LinkTarget  `json:"target" yaml:"target"`
}

// Discovery is everything the document adapter found at load time.
type Discovery struct {
	PageCount   int          `json:"page_count" yaml:"page_count"`
	PageHeights []float64    `json:"page_heights" yaml:"page_heights"`
	NameTree    []RawDest    `json:"name_tree" yaml:"name_tree"`
	Catalog     []RawDest    `json:"catalog" yaml:"catalog"`
	Links       []RawLink    `json:"links" yaml:"links"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Diagnostic codes. None of them stop a load; they are reported so the
// user can fix the problem visually.
const (
	CodeDestinationUnresolved = "destination-resolution-failure"
	CodeLinkUnresolved        = "unresolved-link"
	CodeDuplicateID           = "duplicate-id"
	CodeDuplicateDesired      = "duplicate-desired"
	CodeInvalidDesired        = "invalid-desired"
	CodeArtifactFiltered      = "artifact-filtered"
	CodeDanglingLink          = "dangling-link"
	CodeUnsupported           = "unsupported"
)

// Diagnostic is a non-fatal anomaly found while loading.
type Diagnostic struct {
	Code    string `json:"code" yaml:"code"`
	Subject string `json:"subject" yaml:"subject"`
	Message string `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Code, d.Subject, d.Message)
}

func diag(code, subject, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)}
}
