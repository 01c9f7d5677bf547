package pdfdoc

import (
	"fmt"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/jackzampolin/destinator/internal/coords"
	"github.com/jackzampolin/destinator/internal/reconcile"
)

// maxNameTreeDepth guards against cyclic /Kids.
const maxNameTreeDepth = 32

// Discover returns the destinations and link annotations of the document.
func (d *Document) Discover() reconcile.Discovery {
	r := d.r
	disc := reconcile.Discovery{
		PageCount:   len(r.pages),
		PageHeights: make([]float64, len(r.pages)),
	}
	for i, p := range r.pages {
		disc.PageHeights[i] = p.height
	}

	disc.NameTree = r.nameTreeDests()
	disc.Catalog = r.catalogDests()
	disc.Links, disc.Diagnostics = r.links()

	d.logger.Debug("discovered document contents",
		"path", d.path,
		"name_tree", len(disc.NameTree),
		"catalog", len(disc.Catalog),
		"links", len(disc.Links),
		"diagnostics", len(disc.Diagnostics))
	return disc
}

// PageInfo describes one page in a Diagnosis.
type PageInfo struct {
	Number int                 `json:"number" yaml:"number"`
	Width  float64             `json:"width" yaml:"width"`
	Height float64             `json:"height" yaml:"height"`
	Links  []reconcile.RawLink `json:"links,omitempty" yaml:"links,omitempty"`
}

// Diagnosis is a read-only dump of what the document holds.
type Diagnosis struct {
	Path        string                 `json:"path" yaml:"path"`
	PageCount   int                    `json:"page_count" yaml:"page_count"`
	Pages       []PageInfo             `json:"pages" yaml:"pages"`
	NameTree    []reconcile.RawDest    `json:"name_tree" yaml:"name_tree"`
	Catalog     []reconcile.RawDest    `json:"catalog" yaml:"catalog"`
	Diagnostics []reconcile.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Diagnose returns a Diagnosis of the document. Positions are in unscaled
// display space, with the origin at the top left of each page.
func (d *Document) Diagnose() *Diagnosis {
	disc := d.Discover()
	diag := &Diagnosis{
		Path:        d.path,
		PageCount:   disc.PageCount,
		NameTree:    disc.NameTree,
		Catalog:     disc.Catalog,
		Diagnostics: disc.Diagnostics,
	}
	for i, p := range d.r.pages {
		diag.Pages = append(diag.Pages, PageInfo{Number: i + 1, Width: p.width, Height: p.height})
	}
	for _, l := range disc.Links {
		diag.Pages[l.Page].Links = append(diag.Pages[l.Page].Links, l)
	}
	return diag
}

// nameTreeDests walks /Names /Dests.
func (r *reader) nameTreeDests() []reconcile.RawDest {
	root, err := r.pc.Catalog()
	if err != nil {
		return nil
	}
	names := r.dict(root, "Names")
	if names == nil {
		return nil
	}
	tree, ok := names.Find("Dests")
	if !ok {
		return nil
	}

	var out []reconcile.RawDest
	r.walkNameTree(tree, 0, func(name string, value types.Object) {
		out = append(out, r.rawDest(name, reconcile.SourceNameTree, value))
	})
	return out
}

func (r *reader) walkNameTree(o types.Object, depth int, fn func(string, types.Object)) {
	if depth > maxNameTreeDepth {
		return
	}
	node, err := r.pc.DereferenceDict(o)
	if err != nil || node == nil {
		return
	}

	if kids := r.array(node, "Kids"); kids != nil {
		for _, kid := range kids {
			r.walkNameTree(kid, depth+1, fn)
		}
	}

	pairs := r.array(node, "Names")
	for i := 0; i+1 < len(pairs); i += 2 {
		key, err := r.pc.Dereference(pairs[i])
		if err != nil {
			continue
		}
		name, ok := decodeString(key)
		if !ok || name == "" {
			continue
		}
		fn(name, pairs[i+1])
	}
}

// catalogDests reads the catalog /Dests dictionary, ordered by name.
func (r *reader) catalogDests() []reconcile.RawDest {
	root, err := r.pc.Catalog()
	if err != nil {
		return nil
	}
	dests := r.dict(root, "Dests")
	if dests == nil {
		return nil
	}

	keys := make([]string, 0, len(dests))
	for k := range dests {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]reconcile.RawDest, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.rawDest(k, reconcile.SourceCatalog, dests[k]))
	}
	return out
}

// rawDest resolves a destination value: an explicit array or a dictionary
// with a /D entry.
func (r *reader) rawDest(name string, src reconcile.Source, value types.Object) reconcile.RawDest {
	rd := reconcile.RawDest{Name: name, Source: src}
	arr := r.destArray(value)
	if arr == nil {
		return rd
	}
	t, ok := r.explicitDest(arr)
	if !ok {
		return rd
	}
	rd.Page, rd.X, rd.Y, rd.Resolved = t.Page, t.X, t.Y, true
	return rd
}

func (r *reader) destArray(value types.Object) types.Array {
	o, err := r.pc.Dereference(value)
	if err != nil {
		return nil
	}
	switch v := o.(type) {
	case types.Array:
		return v
	case types.Dict:
		return r.array(v, "D")
	}
	return nil
}

// explicitDest decodes [page /Kind args...]. Missing coordinates default to
// the top left corner of the page.
func (r *reader) explicitDest(arr types.Array) (reconcile.LinkTarget, bool) {
	t := reconcile.LinkTarget{Kind: reconcile.TargetPage}
	if len(arr) < 2 {
		return t, false
	}

	first, err := r.pc.Dereference(arr[0])
	if err != nil {
		return t, false
	}
	switch v := arr[0].(type) {
	case types.IndirectRef:
		idx, ok := r.byObj[v.ObjectNumber.Value()]
		if !ok {
			return t, false
		}
		t.Page = idx
	default:
		n, ok := first.(types.Integer)
		if !ok || n.Value() < 0 || n.Value() >= len(r.pages) {
			return t, false
		}
		t.Page = n.Value()
	}

	kind, ok := arr[1].(types.Name)
	if !ok {
		return t, false
	}
	h := r.pages[t.Page].height

	var left, top float64
	var hasLeft, hasTop bool
	at := func(i int) (float64, bool) {
		if i >= len(arr) {
			return 0, false
		}
		o, err := r.pc.Dereference(arr[i])
		if err != nil {
			return 0, false
		}
		return number(o)
	}
	switch kind.Value() {
	case "XYZ":
		left, hasLeft = at(2)
		top, hasTop = at(3)
	case "FitH", "FitBH":
		top, hasTop = at(2)
	case "FitV", "FitBV":
		left, hasLeft = at(2)
	case "FitR":
		left, hasLeft = at(2)
		top, hasTop = at(5)
	case "Fit", "FitB":
	default:
		return t, false
	}

	t.HasPosition = hasLeft || hasTop
	if hasLeft {
		t.X = left
	}
	if hasTop {
		t.Y = coords.FlipY(coords.Point{Y: top}, h).Y
	}
	return t, true
}

// links reads every link annotation of every page.
func (r *reader) links() ([]reconcile.RawLink, []reconcile.Diagnostic) {
	var (
		out   []reconcile.RawLink
		diags []reconcile.Diagnostic
	)
	for i, p := range r.pages {
		for _, ad := range r.annotations(p.dict) {
			if !isLink(ad) {
				continue
			}
			rect, ok := r.rect(ad)
			if !ok {
				diags = append(diags, reconcile.Diagnostic{
					Code:    reconcile.CodeUnsupported,
					Subject: fmt.Sprintf("page-%d", i+1),
					Message: "link annotation without a usable /Rect skipped",
				})
				continue
			}
			target, ok := r.linkTarget(ad)
			if !ok {
				diags = append(diags, reconcile.Diagnostic{
					Code:    reconcile.CodeUnsupported,
					Subject: fmt.Sprintf("page-%d", i+1),
					Message: "link annotation with an unsupported action left untouched",
				})
				continue
			}
			out = append(out, reconcile.RawLink{
				Page:   i,
				Rect:   coords.RectFromNative(rect, p.height),
				Target: target,
			})
		}
	}
	return out, diags
}

// managed reports whether links() loads ad into the session, and so
// whether a rewrite replaces it.
func (r *reader) managed(ad types.Dict) bool {
	if !isLink(ad) {
		return false
	}
	if _, ok := r.rect(ad); !ok {
		return false
	}
	_, ok := r.linkTarget(ad)
	return ok
}

// annotations returns the annotation dictionaries of a page.
func (r *reader) annotations(pageDict types.Dict) []types.Dict {
	var out []types.Dict
	for _, entry := range r.array(pageDict, "Annots") {
		ad, err := r.pc.DereferenceDict(entry)
		if err != nil || ad == nil {
			continue
		}
		out = append(out, ad)
	}
	return out
}

// linkTarget decodes /Dest or a GoTo or URI /A action. It reports false for
// anything else, and for empty names and URIs.
func (r *reader) linkTarget(ad types.Dict) (reconcile.LinkTarget, bool) {
	if dest, ok := ad.Find("Dest"); ok {
		return r.destTarget(dest)
	}

	action := r.dict(ad, "A")
	if action == nil {
		return reconcile.LinkTarget{}, false
	}
	s, ok := action.Find("S")
	if !ok {
		return reconcile.LinkTarget{}, false
	}
	name, ok := s.(types.Name)
	if !ok {
		return reconcile.LinkTarget{}, false
	}

	switch name.Value() {
	case "GoTo":
		d, ok := action.Find("D")
		if !ok {
			return reconcile.LinkTarget{}, false
		}
		return r.destTarget(d)
	case "URI":
		u, ok := action.Find("URI")
		if !ok {
			return reconcile.LinkTarget{}, false
		}
		o, err := r.pc.Dereference(u)
		if err != nil {
			return reconcile.LinkTarget{}, false
		}
		uri, ok := decodeString(o)
		if !ok || uri == "" {
			return reconcile.LinkTarget{}, false
		}
		return reconcile.LinkTarget{Kind: reconcile.TargetURI, URI: uri}, true
	}
	return reconcile.LinkTarget{}, false
}

func (r *reader) destTarget(o types.Object) (reconcile.LinkTarget, bool) {
	v, err := r.pc.Dereference(o)
	if err != nil || v == nil {
		return reconcile.LinkTarget{}, false
	}
	if arr := r.destArray(v); arr != nil {
		return r.explicitDest(arr)
	}
	name, ok := decodeString(v)
	if !ok || name == "" {
		return reconcile.LinkTarget{}, false
	}
	return reconcile.LinkTarget{Kind: reconcile.TargetNamed, Name: name}, true
}

// rect reads /Rect in native coordinates.
func (r *reader) rect(ad types.Dict) (coords.Rect, bool) {
	arr := r.array(ad, "Rect")
	if len(arr) != 4 {
		return coords.Rect{}, false
	}
	var v [4]float64
	for i, e := range arr {
		o, err := r.pc.Dereference(e)
		if err != nil {
			return coords.Rect{}, false
		}
		n, ok := number(o)
		if !ok {
			return coords.Rect{}, false
		}
		v[i] = n
	}
	return coords.Rect{X0: v[0], Y0: v[1], X1: v[2], Y1: v[3]}.Normalize(), true
}

func (r *reader) dict(d types.Dict, key string) types.Dict {
	o, ok := d.Find(key)
	if !ok {
		return nil
	}
	v, err := r.pc.DereferenceDict(o)
	if err != nil {
		return nil
	}
	return v
}

func (r *reader) array(d types.Dict, key string) types.Array {
	o, ok := d.Find(key)
	if !ok {
		return nil
	}
	v, err := r.pc.DereferenceArray(o)
	if err != nil {
		return nil
	}
	return v
}

func isLink(ad types.Dict) bool {
	o, ok := ad.Find("Subtype")
	if !ok {
		return false
	}
	n, ok := o.(types.Name)
	return ok && n.Value() == "Link"
}

func number(o types.Object) (float64, bool) {
	switch v := o.(type) {
	case types.Float:
		return v.Value(), true
	case types.Integer:
		return float64(v.Value()), true
	}
	return 0, false
}

func decodeString(o types.Object) (string, bool) {
	switch v := o.(type) {
	case types.StringLiteral:
		s, err := types.StringLiteralToString(v)
		return s, err == nil
	case types.HexLiteral:
		s, err := types.HexLiteralToString(v)
		return s, err == nil
	case types.Name:
		return v.Value(), true
	}
	return "", false
}
