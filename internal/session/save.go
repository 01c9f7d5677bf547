package session

import (
	"context"
	"fmt"

	"github.com/jackzampolin/destinator/internal/reconcile"
)

// Report summarizes a save.
type Report struct {
	SessionID string `json:"session_id" yaml:"session_id"`
	Path      string `json:"path" yaml:"path"`
	NoChanges bool   `json:"no_changes" yaml:"no_changes"`

	Destinations int `json:"destinations" yaml:"destinations"`
	Modified     int `json:"modified" yaml:"modified"`
	Preserved    int `json:"preserved" yaml:"preserved"`
	Dropped      int `json:"dropped" yaml:"dropped"`

	LinksRewritten bool `json:"links_rewritten" yaml:"links_rewritten"`
	Links          int  `json:"links" yaml:"links"`
	AddedLinks     int  `json:"added_links" yaml:"added_links"`
	RemovedLinks   int  `json:"removed_links" yaml:"removed_links"`
	PreservedLinks int  `json:"preserved_links" yaml:"preserved_links"`
}

// Plan returns the write-back the session would perform if saved now.
func (s *Session) Plan() *reconcile.Plan {
	return reconcile.BuildPlan(s.store)
}

// Save persists the session and closes it.
//
// When nothing differs from the document, nothing is written and the report
// has NoChanges set. Otherwise destinations are written first and link
// annotations second, each as a separate atomic replace of the file. If
// the first pass fails nothing was changed. If the second fails the error
// wraps ErrPartialWrite. On any error the session stays open so the save
// can be retried.
func (s *Session) Save(ctx context.Context) (*Report, error) {
	if s.closed {
		return nil, ErrClosed
	}

	plan := reconcile.BuildPlan(s.store)
	report := &Report{
		SessionID:      s.id,
		Path:           s.doc.Path(),
		Destinations:   len(plan.Destinations),
		Modified:       plan.Modified,
		Preserved:      plan.Preserved,
		Dropped:        plan.Dropped,
		LinksRewritten: plan.RewriteLinks,
		Links:          len(plan.Links),
		AddedLinks:     plan.AddedLinks,
		RemovedLinks:   plan.RemovedLinks,
		PreservedLinks: plan.PreservedLinks,
	}

	if !plan.Changed() {
		report.NoChanges = true
		s.logger.Info("no changes to save")
		if err := s.close(); err != nil {
			return report, err
		}
		return report, nil
	}

	if err := s.doc.WriteDestinations(ctx, plan.Destinations); err != nil {
		s.logger.Error("writing destinations failed", "error", err)
		return nil, fmt.Errorf("write destinations: %w", err)
	}
	s.logger.Info("destinations written",
		"count", len(plan.Destinations),
		"modified", plan.Modified,
		"preserved", plan.Preserved,
		"dropped", plan.Dropped)

	if plan.RewriteLinks {
		if err := s.doc.RewriteLinks(ctx, plan.Links); err != nil {
			s.logger.Error("rewriting links failed", "error", err)
			return nil, fmt.Errorf("%w: %w", ErrPartialWrite, err)
		}
		s.logger.Info("links rewritten",
			"count", len(plan.Links),
			"added", plan.AddedLinks,
			"removed", plan.RemovedLinks)
	}

	if err := s.close(); err != nil {
		return report, err
	}
	return report, nil
}

// Cancel closes the session without writing anything.
func (s *Session) Cancel() error {
	if s.closed {
		return ErrClosed
	}
	s.logger.Info("session cancelled")
	return s.close()
}

func (s *Session) close() error {
	s.closed = true
	s.gesture.reset()
	if err := s.doc.Close(); err != nil {
		return fmt.Errorf("close document: %w", err)
	}
	return nil
}
