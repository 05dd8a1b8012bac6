// Package content is the page-embedded bulk scan agent: it watches a page,
// sends newly found text to the classification service and marks each
// anchor with the verdict.
package content

import (
	"context"
	"time"

	"misinfo-guard/internal/classifier"
	"misinfo-guard/internal/models"
	"misinfo-guard/internal/page"
	"misinfo-guard/internal/renderer"
	"misinfo-guard/internal/scanner"
	"misinfo-guard/pkg/logger"
)

// Classifier is the part of classifier.Client the agent needs.
type Classifier interface {
	Classify(ctx context.Context, texts []string) []models.AnalysisResult
}

type Options struct {
	Settle   time.Duration
	Debounce time.Duration
}

type Agent struct {
	page       *page.Page
	scanner    *scanner.Scanner
	classifier Classifier
	renderer   *renderer.Renderer
	opts       Options
	log        *logger.Logger
}

// New creates an agent for one page session. The scanner must carry a
// ProcessedSet scoped to that session.
func New(p *page.Page, s *scanner.Scanner, c Classifier, r *renderer.Renderer, opts Options, l *logger.Logger) *Agent {
	return &Agent{page: p, scanner: s, classifier: c, renderer: r, opts: opts, log: l}
}

// Run watches the page until ctx is done.
func (a *Agent) Run(ctx context.Context) error {
	w := scanner.NewWatcher(a.scanner, a.page, a.opts.Settle, a.opts.Debounce, func(ctx context.Context, batch []models.ScanCandidate) {
		a.Handle(ctx, batch)
	}, a.log)
	return w.Run(ctx)
}

// ScanOnce runs a single pass and annotates what it finds.
func (a *Agent) ScanOnce(ctx context.Context) []models.Annotation {
	return a.Handle(ctx, a.scanner.Scan(a.page))
}

// Handle classifies a batch and annotates every anchor whose text got a
// verdict.
func (a *Agent) Handle(ctx context.Context, batch []models.ScanCandidate) []models.Annotation {
	if len(batch) == 0 {
		return nil
	}
	texts := make([]string, 0, len(batch))
	for _, c := range batch {
		texts = append(texts, c.Text)
	}
	results := a.classifier.Classify(ctx, texts)

	bindings := classifier.Bind(batch, results)
	out := make([]models.Annotation, 0, len(bindings))
	for _, b := range bindings {
		a.renderer.Annotate(a.page, b.Candidate.Anchor, b.Result)
		out = append(out, models.Annotation{
			Text:    b.Candidate.Text,
			Profile: b.Candidate.Profile,
			Status:  b.Result.Status,
			Reason:  b.Result.Reason,
		})
	}
	if len(bindings) < len(batch) {
		a.log.Warnf("%d of %d candidates got no verdict", len(batch)-len(bindings), len(batch))
	}
	return out
}
