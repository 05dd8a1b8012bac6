// Package page holds one page session: a parsed document, its URL, and the
// mutation notifications other components react to. All DOM access goes
// through View or Mutate, which serialize readers and writers the way a
// browser's single event loop would.
package page

import (
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

type Page struct {
	mu  sync.Mutex
	url *url.URL
	doc *goquery.Document

	obsMu     sync.Mutex
	observers map[int]chan struct{}
	nextObs   int
}

// New wraps doc as a page loaded from rawURL. An unparsable URL leaves the
// page without a host.
func New(doc *goquery.Document, rawURL string) *Page {
	u, err := url.Parse(rawURL)
	if err != nil {
		u = &url.URL{}
	}
	return &Page{url: u, doc: doc, observers: map[int]chan struct{}{}}
}

// FromHTML parses markup into a page. Used for blank pages and tests.
func FromHTML(markup, rawURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return New(doc, rawURL), nil
}

// Blank returns an empty document.
func Blank(rawURL string) *Page {
	p, _ := FromHTML("<!doctype html><html><head></head><body></body></html>", rawURL)
	return p
}

func (p *Page) URL() string { return p.url.String() }

func (p *Page) Hostname() string { return strings.ToLower(p.url.Hostname()) }

// View runs fn with read access to the document.
func (p *Page) View(fn func(doc *goquery.Document)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.doc)
}

// Mutate runs fn with write access to the document and then notifies
// observers that the structure may have changed.
func (p *Page) Mutate(fn func(doc *goquery.Document) error) error {
	p.mu.Lock()
	err := fn(p.doc)
	p.mu.Unlock()
	p.notify()
	return err
}

// HTML renders the current document.
func (p *Page) HTML() (string, error) {
	var out string
	var err error
	p.View(func(doc *goquery.Document) {
		out, err = goquery.OuterHtml(doc.Selection)
	})
	return out, err
}

// Observe subscribes to mutation notifications. Notifications coalesce: a
// receiver that falls behind sees one pending signal, not one per mutation.
// The returned func cancels the subscription.
func (p *Page) Observe() (<-chan struct{}, func()) {
	p.obsMu.Lock()
	defer p.obsMu.Unlock()
	id := p.nextObs
	p.nextObs++
	ch := make(chan struct{}, 1)
	p.observers[id] = ch
	return ch, func() {
		p.obsMu.Lock()
		delete(p.observers, id)
		p.obsMu.Unlock()
	}
}

func (p *Page) notify() {
	p.obsMu.Lock()
	defer p.obsMu.Unlock()
	for _, ch := range p.observers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
