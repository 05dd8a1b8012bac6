package scanner

import (
	"context"
	"time"

	"misinfo-guard/internal/models"
	"misinfo-guard/internal/page"
	"misinfo-guard/pkg/logger"
)

// Handler receives each non-empty batch. The watcher waits for it to return
// before scanning again, so passes never overlap.
type Handler func(ctx context.Context, batch []models.ScanCandidate)

// Watcher drives a Scanner over the life of a page: one pass after the
// settle delay, then one pass per quiet period following DOM mutations.
type Watcher struct {
	scanner  *Scanner
	page     *page.Page
	settle   time.Duration
	debounce time.Duration
	handle   Handler
	log      *logger.Logger
}

func NewWatcher(s *Scanner, p *page.Page, settle, debounce time.Duration, h Handler, l *logger.Logger) *Watcher {
	return &Watcher{scanner: s, page: p, settle: settle, debounce: debounce, handle: h, log: l}
}

// Run blocks until ctx is done and returns its error.
func (w *Watcher) Run(ctx context.Context) error {
	// subscribe before settling so mutations during the delay are not lost
	changes, cancel := w.page.Observe()
	defer cancel()

	if err := sleep(ctx, w.settle); err != nil {
		return err
	}
	w.log.Debugf("running initial scan of %s", w.page.URL())
	w.pass(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
		}
		if err := w.quiet(ctx, changes); err != nil {
			return err
		}
		w.pass(ctx)
	}
}

func (w *Watcher) pass(ctx context.Context) {
	batch := w.scanner.Scan(w.page)
	if len(batch) == 0 {
		return
	}
	w.log.Infof("found %d new candidates on %s", len(batch), w.page.Hostname())
	w.handle(ctx, batch)
}

// quiet waits until no mutation has arrived for the debounce interval.
func (w *Watcher) quiet(ctx context.Context, changes <-chan struct{}) error {
	if w.debounce <= 0 {
		return nil
	}
	t := time.NewTimer(w.debounce)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
			t.Reset(w.debounce)
		case <-t.C:
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
