package pdfdoc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/jackzampolin/destinator/internal/annot"
	"github.com/jackzampolin/destinator/internal/coords"
	"github.com/jackzampolin/destinator/internal/reconcile"
)

// WriteDestinations replaces the destination catalog of the file with dests.
//
// Entries are written to the catalog /Dests dictionary as
// [page /XYZ x y null] in native coordinates. A /Names /Dests tree is
// removed; its entries are expected to be part of dests.
func (d *Document) WriteDestinations(ctx context.Context, dests []reconcile.PlannedDest) error {
	err := d.replace(ctx, func(r *reader) error {
		root, err := r.pc.Catalog()
		if err != nil {
			return fmt.Errorf("failed to read catalog: %w", err)
		}

		out := types.Dict{}
		for _, pd := range dests {
			if pd.Position.Page < 0 || pd.Position.Page >= len(r.pages) {
				return fmt.Errorf("%w: destination %s on page %d of %d",
					annot.ErrOutOfRange, pd.ID, pd.Position.Page+1, len(r.pages))
			}
			p := r.pages[pd.Position.Page]
			native := coords.FlipY(pd.Position.Point(), p.height)
			out[pd.ID] = types.Array{p.ref, types.Name("XYZ"), types.Float(native.X), types.Float(native.Y), nil}
		}

		if len(out) == 0 {
			delete(root, "Dests")
		} else {
			root["Dests"] = out
		}

		if names := r.dict(root, "Names"); names != nil {
			delete(names, "Dests")
			if len(names) == 0 {
				delete(root, "Names")
			}
		}
		delete(r.pc.Names, "Dests")
		return nil
	})
	if err != nil {
		return err
	}
	d.logger.Info("wrote destinations", "path", d.path, "count", len(dests))
	return nil
}

// RewriteLinks replaces every link annotation discovery loaded with links.
// Link annotations discovery skipped, for an unsupported action or an
// unusable /Rect, are kept.
func (d *Document) RewriteLinks(ctx context.Context, links []annot.LinkRegion) error {
	err := d.replace(ctx, func(r *reader) error {
		byPage := make([][]annot.LinkRegion, len(r.pages))
		for _, l := range links {
			if l.Page < 0 || l.Page >= len(r.pages) {
				return fmt.Errorf("%w: link on page %d of %d", annot.ErrOutOfRange, l.Page+1, len(r.pages))
			}
			byPage[l.Page] = append(byPage[l.Page], l)
		}

		for i, p := range r.pages {
			var kept types.Array
			for _, entry := range r.array(p.dict, "Annots") {
				ad, err := r.pc.DereferenceDict(entry)
				if err == nil && ad != nil && r.managed(ad) {
					continue
				}
				kept = append(kept, entry)
			}

			for _, l := range byPage[i] {
				ad, err := r.linkDict(l)
				if err != nil {
					return err
				}
				ref, err := r.pc.IndRefForNewObject(ad)
				if err != nil {
					return fmt.Errorf("failed to add link annotation: %w", err)
				}
				kept = append(kept, *ref)
			}

			if len(kept) == 0 {
				delete(p.dict, "Annots")
			} else {
				p.dict["Annots"] = kept
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	d.logger.Info("rewrote links", "path", d.path, "count", len(links))
	return nil
}

// linkDict builds a link annotation for l.
func (r *reader) linkDict(l annot.LinkRegion) (types.Dict, error) {
	own := r.pages[l.Page]
	rect := coords.RectToNative(l.Rect, own.height)

	ad := types.Dict{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Link"),
		"Rect":    types.Array{types.Float(rect.X0), types.Float(rect.Y0), types.Float(rect.X1), types.Float(rect.Y1)},
		"Border":  types.Array{types.Integer(0), types.Integer(0), types.Integer(0)},
		"P":       own.ref,
	}

	switch l.Kind {
	case annot.LinkExternal:
		uri, err := pdfString(l.TargetID)
		if err != nil {
			return nil, err
		}
		ad["A"] = types.Dict{"S": types.Name("URI"), "URI": uri}

	case annot.LinkPage:
		page, ok := annot.PageFromPseudoID(l.TargetID)
		if !ok || page >= len(r.pages) {
			return nil, fmt.Errorf("%w: page target %q", annot.ErrOutOfRange, l.TargetID)
		}
		ad["Dest"] = types.Array{r.pages[page].ref, types.Name("Fit")}

	default:
		name, err := pdfString(l.TargetID)
		if err != nil {
			return nil, err
		}
		ad["A"] = types.Dict{"S": types.Name("GoTo"), "D": name}
	}
	return ad, nil
}

func pdfString(s string) (types.StringLiteral, error) {
	esc, err := types.Escape(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode %q: %w", s, err)
	}
	return types.StringLiteral(*esc), nil
}

// replace re-reads the file, applies edit and atomically replaces the file
// with the result: the new content is written next to the original and
// renamed over it. On success the document reflects the new file.
func (d *Document) replace(ctx context.Context, edit func(*reader) error) error {
	if d.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r, err := readFile(d.path)
	if err != nil {
		return err
	}
	if err := edit(r); err != nil {
		return err
	}

	tmp := filepath.Join(filepath.Dir(d.path),
		fmt.Sprintf(".%s.%s.tmp", filepath.Base(d.path), uuid.New().String()[:8]))
	if err := api.WriteContextFile(r.pc, tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	attempts := d.RenameAttempts
	if attempts == 0 {
		attempts = DefaultRenameAttempts
	}
	err = retry.Do(
		func() error {
			return os.Rename(tmp, d.path)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			d.logger.Warn("rename failed, retrying", "path", d.path, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", d.path, err)
	}

	fresh, err := readFile(d.path)
	if err != nil {
		return fmt.Errorf("failed to re-read %s after save: %w", d.path, err)
	}
	d.r = fresh
	return nil
}
