package extension

import (
	"context"

	"golang.org/x/sync/errgroup"

	"misinfo-guard/internal/crawler"
	"misinfo-guard/internal/models"
	"misinfo-guard/internal/parser"
)

// Fetcher retrieves live pages.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*crawler.Response, error)
}

// ScanURL fetches rawURL and scans it once. Fetch and parse failures are
// reported in the record, never returned.
func (e *Extension) ScanURL(ctx context.Context, f Fetcher, rawURL string) models.PageReport {
	rep := models.PageReport{URL: rawURL}
	if rawURL == "" {
		rep.Error = "empty url"
		return rep
	}
	resp, err := f.Fetch(ctx, rawURL)
	if err != nil {
		e.log.Warnf("fetch %s: %v", rawURL, err)
		rep.Error = err.Error()
		return rep
	}
	defer resp.Body.Close()
	rep.FetchMs = resp.Elapsed.Milliseconds()

	p, err := parser.New().Parse(resp.Body, resp.ContentType, resp.FinalURL)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.Annotations = e.ScanPage(ctx, p)
	e.log.Infof("%s: %d annotation(s)", rawURL, len(rep.Annotations))
	return rep
}

// ScanURLs scans every url with at most limit pages in flight. Reports keep
// the input order.
func (e *Extension) ScanURLs(ctx context.Context, f Fetcher, urls []string, limit int) []models.PageReport {
	if limit <= 0 {
		limit = 1
	}
	out := make([]models.PageReport, len(urls))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, u := range urls {
		g.Go(func() error {
			out[i] = e.ScanURL(ctx, f, u)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
