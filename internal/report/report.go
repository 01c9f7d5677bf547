// Package report formats diagnostics, save results and configuration as
// terminal tables.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/jackzampolin/destinator/internal/config"
	"github.com/jackzampolin/destinator/internal/pdfdoc"
	"github.com/jackzampolin/destinator/internal/reconcile"
	"github.com/jackzampolin/destinator/internal/session"
)

var (
	bold  = color.New(color.Bold)
	title = color.New(color.Bold, color.Underline)
	faint = color.New(color.Faint)
	warn  = color.New(color.FgYellow)
	good  = color.New(color.FgGreen)
)

func newTable() *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	return tbl
}

func heading(w io.Writer, s string, count int) {
	_, _ = title.Fprint(w, s)
	_, _ = faint.Fprintf(w, " - %d\n", count)
}

func none(w io.Writer) {
	_, _ = faint.Fprint(w, "  none\n\n")
}

// Diagnosis is the table form of a document diagnosis.
type Diagnosis struct {
	pdfdoc.Diagnosis `yaml:",inline"`
}

// WriteTable implements api.Tabler.
func (d Diagnosis) WriteTable(w io.Writer) error {
	_, _ = bold.Fprintf(w, "%s", d.Path)
	_, _ = faint.Fprintf(w, " (%d pages)\n\n", d.PageCount)

	dests(w, "Name tree destinations", d.NameTree)
	dests(w, "Catalog destinations", d.Catalog)

	var links int
	for _, p := range d.Pages {
		links += len(p.Links)
	}
	heading(w, "Links", links)
	if links == 0 {
		none(w)
	} else {
		tbl := newTable()
		tbl.AddRow(bold.Sprint("PAGE"), bold.Sprint("RECT"), bold.Sprint("KIND"), bold.Sprint("TARGET"))
		for _, p := range d.Pages {
			for _, l := range p.Links {
				tbl.AddRow(p.Number+1, formatRect(l.Rect.X0, l.Rect.Y0, l.Rect.X1, l.Rect.Y1), l.Target.Kind, LinkTarget(l.Target))
			}
		}
		tbl.RightAlign(0)
		_, _ = fmt.Fprintln(w, tbl)
		_, _ = fmt.Fprintln(w)
	}

	return Diagnostics(w, d.Diagnostics)
}

func dests(w io.Writer, name string, ds []reconcile.RawDest) {
	heading(w, name, len(ds))
	if len(ds) == 0 {
		none(w)
		return
	}
	tbl := newTable()
	tbl.AddRow(bold.Sprint("NAME"), bold.Sprint("PAGE"), bold.Sprint("X"), bold.Sprint("Y"))
	for _, d := range ds {
		if !d.Resolved {
			tbl.AddRow(d.Name, warn.Sprint("?"), "", "")
			continue
		}
		tbl.AddRow(d.Name, d.Page+1, formatFloat(d.X), formatFloat(d.Y))
	}
	tbl.RightAlign(1)
	_, _ = fmt.Fprintln(w, tbl)
	_, _ = fmt.Fprintln(w)
}

// LinkTarget describes a decoded link target in one short string.
func LinkTarget(t reconcile.LinkTarget) string {
	switch t.Kind {
	case reconcile.TargetNamed:
		return t.Name
	case reconcile.TargetURI:
		return t.URI
	case reconcile.TargetPage:
		if t.HasPosition {
			return fmt.Sprintf("page %d @ %s,%s", t.Page+1, formatFloat(t.X), formatFloat(t.Y))
		}
		return fmt.Sprintf("page %d", t.Page+1)
	default:
		return string(t.Kind)
	}
}

// Diagnostics writes resolution problems found while loading a document.
func Diagnostics(w io.Writer, diags []reconcile.Diagnostic) error {
	heading(w, "Diagnostics", len(diags))
	if len(diags) == 0 {
		none(w)
		return nil
	}
	tbl := newTable()
	tbl.AddRow(bold.Sprint("CODE"), bold.Sprint("SUBJECT"), bold.Sprint("MESSAGE"))
	for _, d := range diags {
		tbl.AddRow(warn.Sprint(d.Code), d.Subject, d.Message)
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

// Save is the table form of a save report.
type Save struct {
	session.Report `yaml:",inline"`
}

// WriteTable implements api.Tabler.
func (s Save) WriteTable(w io.Writer) error {
	if s.NoChanges {
		_, err := faint.Fprintf(w, "%s: no changes\n", s.Path)
		return err
	}
	_, _ = good.Fprint(w, "saved ")
	_, _ = bold.Fprintln(w, s.Path)

	tbl := newTable()
	tbl.AddRow(bold.Sprint(""), bold.Sprint("TOTAL"), bold.Sprint("CHANGED"), bold.Sprint("KEPT"), bold.Sprint("REMOVED"))
	tbl.AddRow("destinations", s.Destinations, s.Modified, s.Preserved, s.Dropped)
	if s.LinksRewritten {
		tbl.AddRow("links", s.Links, s.AddedLinks, s.PreservedLinks, s.RemovedLinks)
	} else {
		tbl.AddRow("links", faint.Sprint("unchanged"), "", "", "")
	}
	tbl.RightAlign(1)
	tbl.RightAlign(2)
	tbl.RightAlign(3)
	tbl.RightAlign(4)
	_, err := fmt.Fprintln(w, tbl)
	return err
}

// Config is the table form of the effective configuration.
type Config struct {
	File    string         `json:"file,omitempty" yaml:"file,omitempty"`
	Entries []config.Entry `json:"entries" yaml:"entries"`
}

// WriteTable implements api.Tabler.
func (c Config) WriteTable(w io.Writer) error {
	if c.File != "" {
		_, _ = faint.Fprintf(w, "# %s\n", c.File)
	} else {
		_, _ = faint.Fprintln(w, "# defaults (no config file)")
	}
	tbl := newTable()
	tbl.AddRow(bold.Sprint("KEY"), bold.Sprint("VALUE"), bold.Sprint("DESCRIPTION"))
	for _, e := range c.Entries {
		tbl.AddRow(e.Key, formatValue(e.Value), faint.Sprint(e.Description))
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

func formatValue(v any) string {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, ",")
	case []any:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ",")
	case string:
		if x == "" {
			return `""`
		}
		return x
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.1f", f)
}

func formatRect(x0, y0, x1, y1 float64) string {
	return fmt.Sprintf("%s,%s %s,%s", formatFloat(x0), formatFloat(y0), formatFloat(x1), formatFloat(y1))
}
