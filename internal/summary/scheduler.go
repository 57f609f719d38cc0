// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summary

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// RebuildStore tracks the rebuild watermark.
type RebuildStore interface {
	LastRebuildTime(ctx context.Context) (time.Time, error)
	SetLastRebuildTime(ctx context.Context, t time.Time) error
}

// Rebuilder runs one summary index rebuild from a watermark.
type Rebuilder interface {
	Rebuild(ctx context.Context, since time.Time) (int, error)
}

// Scheduler decides when the summary index is rebuilt. At most one rebuild
// runs at a time; a trigger arriving while one is in flight is skipped, not
// queued.
type Scheduler struct {
	Store   RebuildStore
	Builder Rebuilder
	Config  types.SummaryConfig

	mu sync.Mutex
}

// shouldRebuild applies the accumulation threshold: enough new documents, or
// a stale index. A watermark that has never been set counts as stale.
func (s *Scheduler) shouldRebuild(docsIngested int, last time.Time, now time.Time) bool {
	thresholdDocs := s.Config.ThresholdDocs
	if thresholdDocs <= 0 {
		thresholdDocs = 10
	}
	thresholdAge := s.Config.ThresholdAge
	if thresholdAge <= 0 {
		thresholdAge = 6 * time.Hour
	}

	if docsIngested >= thresholdDocs {
		return true
	}
	return now.Sub(last) > thresholdAge
}

// MaybeRebuild rebuilds the summary index if the threshold is met and no
// rebuild is already running. It reports whether a rebuild ran to
// completion; a failed or skipped rebuild leaves the previous index and
// watermark in place.
func (s *Scheduler) MaybeRebuild(ctx context.Context, docsIngested int, w io.Writer) bool {
	last, err := s.Store.LastRebuildTime(ctx)
	if err != nil {
		fmt.Fprintf(w, "warning: reading rebuild state failed: %v\n", err)
		return false
	}
	if !s.shouldRebuild(docsIngested, last, time.Now()) {
		return false
	}

	if !s.mu.TryLock() {
		fmt.Fprintf(w, "summary rebuild already running, skipped\n")
		return false
	}
	defer s.mu.Unlock()

	started := time.Now()
	nodes, err := s.Builder.Rebuild(ctx, last)
	if err != nil {
		fmt.Fprintf(w, "warning: summary rebuild failed: %v\n", err)
		return false
	}

	if err := s.Store.SetLastRebuildTime(ctx, started); err != nil {
		fmt.Fprintf(w, "warning: recording rebuild time failed: %v\n", err)
	}
	fmt.Fprintf(w, "summary index rebuilt (%d nodes)\n", nodes)
	return true
}
