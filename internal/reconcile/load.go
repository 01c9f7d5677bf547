package reconcile

import (
	"math"
	"strings"

	"github.com/jackzampolin/destinator/internal/annot"
	"github.com/jackzampolin/destinator/internal/desired"
)

// Load builds the session store from what was found in the document and
// the desired destination list.
//
// The visible list is ordered: desired entries first, then destinations
// found only in the document, then URL targets of discovered links.
func Load(disc Discovery, want []desired.Entry, policy Policy) (*annot.Store, []Diagnostic) {
	store := annot.NewStore(disc.PageCount)
	diags := append([]Diagnostic(nil), disc.Diagnostics...)

	diags = append(diags, mergeExisting(store, disc)...)

	links, externals, linkDiags := classifyLinks(store, disc.Links, policy.tolerance())
	diags = append(diags, linkDiags...)

	linkTargets := make(map[string]bool)
	for _, l := range links {
		if l.Kind == annot.LinkLocal {
			linkTargets[l.TargetID] = true
		}
	}

	diags = append(diags, seedDesired(store, want)...)

	for _, id := range store.Existing() {
		if store.IndexOf(id) >= 0 {
			continue
		}
		if policy.IsArtifact(id) && !linkTargets[id] {
			diags = append(diags, diag(CodeArtifactFiltered, id, "authoring-tool bookmark hidden from the list"))
			continue
		}
		pos, _ := store.ExistingPosition(id)
		if err := store.SeedDestination(annot.Destination{
			ID:     id,
			Title:  annot.TitleFromID(id),
			Kind:   annot.KindLocal,
			Origin: annot.OriginDocument,
		}); err != nil {
			continue
		}
		store.SeedPosition(id, pos)
	}

	for _, uri := range externals {
		if store.IndexOf(uri) >= 0 {
			continue
		}
		store.SeedDestination(annot.Destination{
			ID:     uri,
			Title:  uri,
			Kind:   annot.KindExternal,
			Origin: annot.OriginDocument,
		})
	}

	for _, l := range links {
		if l.Kind == annot.LinkLocal && store.IndexOf(l.TargetID) < 0 {
			diags = append(diags, diag(CodeDanglingLink, l.TargetID,
				"link on page %d targets a destination the document does not define", l.Page+1))
			store.SeedDestination(annot.Destination{
				ID:     l.TargetID,
				Title:  annot.TitleFromID(l.TargetID),
				Kind:   annot.KindLocal,
				Origin: annot.OriginDocument,
			})
		}
		store.SeedLink(l)
	}

	return store, diags
}

// mergeExisting records document positions. Name tree entries are read
// first, so a catalog entry with the same id is ignored.
func mergeExisting(store *annot.Store, disc Discovery) []Diagnostic {
	var diags []Diagnostic
	for _, src := range [][]RawDest{disc.NameTree, disc.Catalog} {
		for _, d := range src {
			if d.Name == "" {
				continue
			}
			if _, ok := store.ExistingPosition(d.Name); ok {
				diags = append(diags, diag(CodeDuplicateID, d.Name,
					"defined in both the name tree and the catalog; using the name tree entry"))
				continue
			}
			if !d.Resolved || d.Page < 0 || d.Page >= disc.PageCount {
				diags = append(diags, diag(CodeDestinationUnresolved, d.Name,
					"could not determine the page (%s)", d.Source))
				continue
			}
			store.SeedExisting(d.Name, annot.Position{Page: d.Page, X: d.X, Y: d.Y})
		}
	}
	return diags
}

// classifyLinks turns raw annotations into link regions. It returns the
// URIs of external links in first-seen order.
func classifyLinks(store *annot.Store, raw []RawLink, tolerance float64) ([]annot.LinkRegion, []string, []Diagnostic) {
	var (
		links     []annot.LinkRegion
		externals []string
		seenURI   = make(map[string]bool)
		diags     []Diagnostic
	)

	for _, rl := range raw {
		lr := annot.LinkRegion{Page: rl.Page, Rect: rl.Rect.Normalize(), Origin: annot.OriginDocument}

		switch rl.Target.Kind {
		case TargetNamed:
			if rl.Target.Name == "" {
				diags = append(diags, diag(CodeUnsupported, annot.PagePseudoID(rl.Page), "link with an empty destination name skipped"))
				continue
			}
			lr.TargetID = rl.Target.Name
			lr.Kind = annot.LinkLocal

		case TargetURI:
			if rl.Target.URI == "" {
				diags = append(diags, diag(CodeUnsupported, annot.PagePseudoID(rl.Page), "link with an empty URI skipped"))
				continue
			}
			lr.TargetID = rl.Target.URI
			lr.Kind = annot.LinkExternal
			if !seenURI[rl.Target.URI] {
				seenURI[rl.Target.URI] = true
				externals = append(externals, rl.Target.URI)
			}

		case TargetPage:
			lr.Kind = annot.LinkPage
			lr.TargetID = annot.PagePseudoID(rl.Target.Page)
			if rl.Target.HasPosition {
				if id, ok := resolveByPosition(store, rl.Target, tolerance); ok {
					lr.Kind = annot.LinkLocal
					lr.TargetID = id
				} else {
					diags = append(diags, diag(CodeLinkUnresolved, lr.TargetID,
						"link on page %d jumps to (%.0f, %.0f) which matches no destination",
						rl.Page+1, rl.Target.X, rl.Target.Y))
				}
			}

		default:
			diags = append(diags, diag(CodeUnsupported, annot.PagePseudoID(rl.Page), "link target kind %q skipped", rl.Target.Kind))
			continue
		}

		links = append(links, lr)
	}
	return links, externals, diags
}

// resolveByPosition finds a document destination on the target page within
// tolerance of the target position.
func resolveByPosition(store *annot.Store, t LinkTarget, tolerance float64) (string, bool) {
	for _, id := range store.Existing() {
		pos, _ := store.ExistingPosition(id)
		if pos.Page != t.Page {
			continue
		}
		if math.Abs(pos.X-t.X) < tolerance && math.Abs(pos.Y-t.Y) < tolerance {
			return id, true
		}
	}
	return "", false
}

// strippedMatch returns the document id a title maps to when the document
// was written with ids that drop accented letters. id is returned unchanged
// unless it was derived from title and only the stripped form exists.
func strippedMatch(store *annot.Store, id, title string) string {
	title = strings.TrimSpace(title)
	if title == "" || annot.IsURL(title) || id != annot.ToID(title) {
		return id
	}
	if _, ok := store.ExistingPosition(id); ok {
		return id
	}
	stripped := annot.StrippedID(title)
	if stripped == "" || stripped == id {
		return id
	}
	if _, ok := store.ExistingPosition(stripped); ok {
		return stripped
	}
	return id
}

func seedDesired(store *annot.Store, want []desired.Entry) []Diagnostic {
	var diags []Diagnostic
	for i, e := range want {
		id := e.CanonicalID()
		if id == "" {
			diags = append(diags, diag(CodeInvalidDesired, e.DisplayTitle(), "entry %d has no usable id or title", i+1))
			continue
		}
		id = strippedMatch(store, id, e.Title)

		kind := annot.KindLocal
		if annot.IsURL(id) {
			kind = annot.KindExternal
		}
		if err := store.SeedDestination(annot.Destination{
			ID:     id,
			Title:  e.DisplayTitle(),
			Kind:   kind,
			Origin: annot.OriginUser,
		}); err != nil {
			diags = append(diags, diag(CodeDuplicateDesired, id, "listed more than once; keeping the first entry"))
			continue
		}

		if kind == annot.KindLocal {
			if pos, ok := store.ExistingPosition(id); ok {
				store.SeedPosition(id, pos)
			}
		}
	}
	return diags
}
