// Package testutil builds small PDF files for tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Dest is a destination in native PDF coordinates.
type Dest struct {
	Name string
	// Page is zero-based.
	Page int
	X, Y float64
}

// Link is a link annotation. Exactly one of the target fields should be set.
type Link struct {
	Rect [4]float64
	// Dest is a named destination written as /Dest (name).
	Dest string
	// GoTo is a named destination written as /A << /S /GoTo /D (name) >>.
	GoTo string
	// URI is written as /A << /S /URI /URI (uri) >>.
	URI string
	// PageJump is an explicit destination [pageRef /XYZ x y null], or
	// [pageRef /Fit] when Fit is set.
	PageJump *PageJump
	// BadRect writes a three-element /Rect.
	BadRect bool
}

// PageJump is an explicit page destination.
type PageJump struct {
	Page int
	X, Y float64
	Fit  bool
}

// Page is one page of the fixture.
type Page struct {
	Width, Height float64
	Links         []Link
}

// Spec describes the fixture document.
type Spec struct {
	Pages []Page
	// Catalog entries go into the catalog /Dests dictionary.
	Catalog []Dest
	// NameTree entries go into /Names /Dests, sorted by name.
	NameTree []Dest
}

// Letter returns n US Letter pages.
func Letter(n int) []Page {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Width: 612, Height: 792}
	}
	return pages
}

// BuildPDF serializes spec as a PDF 1.7 file with a classic xref table.
//
// Object layout: 1 catalog, 2 page tree, then one object per page, then
// one per link annotation, then the name tree root if any.
func BuildPDF(spec Spec) []byte {
	const (
		catalogNr = 1
		pagesNr   = 2
		firstPage = 3
	)
	pageNr := func(i int) int { return firstPage + i }

	var objects []string

	nextNr := firstPage + len(spec.Pages)
	annotNrs := make([][]int, len(spec.Pages))
	var annotObjs []string
	for pi, p := range spec.Pages {
		for _, l := range p.Links {
			annotNrs[pi] = append(annotNrs[pi], nextNr)
			annotObjs = append(annotObjs, linkObject(l, pageNr(pi), pageNr))
			nextNr++
		}
	}

	nameTreeNr := 0
	if len(spec.NameTree) > 0 {
		nameTreeNr = nextNr
		nextNr++
	}

	catalog := fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R", pagesNr)
	if len(spec.Catalog) > 0 {
		var b strings.Builder
		b.WriteString(" /Dests <<")
		for _, d := range spec.Catalog {
			fmt.Fprintf(&b, " /%s %s", d.Name, destArray(pageNr(d.Page), d.X, d.Y))
		}
		b.WriteString(" >>")
		catalog += b.String()
	}
	if nameTreeNr > 0 {
		catalog += fmt.Sprintf(" /Names << /Dests %d 0 R >>", nameTreeNr)
	}
	catalog += " >>"
	objects = append(objects, catalog)

	kids := make([]string, len(spec.Pages))
	for i := range spec.Pages {
		kids[i] = fmt.Sprintf("%d 0 R", pageNr(i))
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(spec.Pages)))

	for i, p := range spec.Pages {
		obj := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %s %s] /Resources << >>",
			pagesNr, num(p.Width), num(p.Height))
		if len(annotNrs[i]) > 0 {
			refs := make([]string, len(annotNrs[i]))
			for j, nr := range annotNrs[i] {
				refs[j] = fmt.Sprintf("%d 0 R", nr)
			}
			obj += fmt.Sprintf(" /Annots [%s]", strings.Join(refs, " "))
		}
		obj += " >>"
		objects = append(objects, obj)
	}

	objects = append(objects, annotObjs...)

	if nameTreeNr > 0 {
		entries := append([]Dest(nil), spec.NameTree...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		var b strings.Builder
		b.WriteString("<< /Names [")
		for _, d := range entries {
			fmt.Fprintf(&b, " (%s) %s", d.Name, destArray(pageNr(d.Page), d.X, d.Y))
		}
		b.WriteString(" ] >>")
		objects = append(objects, b.String())
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, catalogNr, xref)
	return buf.Bytes()
}

// WritePDF writes the fixture into a temporary directory and returns its path.
func WritePDF(t *testing.T, spec Spec) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.pdf")
	if err := os.WriteFile(path, BuildPDF(spec), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func linkObject(l Link, ownPage int, pageNr func(int) int) string {
	rect := fmt.Sprintf("%s %s %s %s", num(l.Rect[0]), num(l.Rect[1]), num(l.Rect[2]), num(l.Rect[3]))
	if l.BadRect {
		rect = fmt.Sprintf("%s %s %s", num(l.Rect[0]), num(l.Rect[1]), num(l.Rect[2]))
	}
	obj := fmt.Sprintf("<< /Type /Annot /Subtype /Link /Rect [%s] /Border [0 0 0] /P %d 0 R", rect, ownPage)
	switch {
	case l.Dest != "":
		obj += fmt.Sprintf(" /Dest (%s)", l.Dest)
	case l.GoTo != "":
		obj += fmt.Sprintf(" /A << /S /GoTo /D (%s) >>", l.GoTo)
	case l.URI != "":
		obj += fmt.Sprintf(" /A << /S /URI /URI (%s) >>", l.URI)
	case l.PageJump != nil:
		if l.PageJump.Fit {
			obj += fmt.Sprintf(" /Dest [%d 0 R /Fit]", pageNr(l.PageJump.Page))
		} else {
			obj += fmt.Sprintf(" /Dest %s", destArray(pageNr(l.PageJump.Page), l.PageJump.X, l.PageJump.Y))
		}
	}
	return obj + " >>"
}

func destArray(pageObj int, x, y float64) string {
	return fmt.Sprintf("[%d 0 R /XYZ %s %s null]", pageObj, num(x), num(y))
}

func num(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}
