package host

import (
	"context"
	"fmt"
	"html"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"misinfo-guard/internal/bus"
	"misinfo-guard/internal/page"
)

type Tab struct {
	id      int
	browser *Browser
	mailbox *bus.Mailbox

	mu      sync.Mutex
	page    *page.Page
	styles  map[string]bool
	scripts map[string]bool
	closed  bool
	cancel  context.CancelFunc
}

func (t *Tab) ID() int { return t.id }

func (t *Tab) Page() *page.Page {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.page
}

// Reload ends the current page session and starts a new one on p. Injected
// styles, scripts and listeners do not survive it.
func (t *Tab) Reload(p *page.Page) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTabClosed
	}
	t.cancel()
	t.mu.Unlock()
	t.load(p)
	return nil
}

func (t *Tab) load(p *page.Page) {
	ctx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	t.page = p
	t.styles = map[string]bool{}
	t.scripts = map[string]bool{}
	t.cancel = cancel
	t.mu.Unlock()
	t.mailbox.Reset()
	t.browser.startContentScripts(ctx, t)
}

func (t *Tab) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.cancel()
	t.mu.Unlock()
	t.mailbox.Reset()
	t.browser.forget(t.id)
}

// InsertCSS adds a packaged stylesheet to the page head once per session.
func (t *Tab) InsertCSS(ctx context.Context, file string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTabClosed
	}
	if t.styles[file] {
		return nil
	}
	css, err := t.browser.assets.Load(ctx, file)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownResource, err)
	}
	err = t.page.Mutate(func(doc *goquery.Document) error {
		doc.Find("head").AppendHtml(`<style data-misinfo-guard="` + html.EscapeString(file) + `">` + css + `</style>`)
		return nil
	})
	if err != nil {
		return err
	}
	t.styles[file] = true
	return nil
}

// ExecuteScript runs a registered script once per page session and attaches
// the listener it returns.
func (t *Tab) ExecuteScript(ctx context.Context, file string) error {
	fn, ok := t.browser.script(file)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownResource, file)
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTabClosed
	}
	if t.scripts[file] {
		t.mu.Unlock()
		return nil
	}
	scripts := t.scripts
	scripts[file] = true
	t.mu.Unlock()

	h, err := fn(ctx, t)
	if err != nil {
		t.mu.Lock()
		delete(scripts, file)
		t.mu.Unlock()
		return err
	}
	if h != nil && !t.mailbox.Listen(h) {
		t.browser.log.Debugf("tab %d already has a listener", t.id)
	}
	return nil
}

// WaitReady blocks until a listener is attached to the tab.
func (t *Tab) WaitReady(ctx context.Context) error {
	return t.mailbox.WaitReady(ctx)
}

// SendMessage delivers m to the tab's listener.
func (t *Tab) SendMessage(ctx context.Context, m bus.Message) (bus.Ack, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return bus.Ack{}, ErrTabClosed
	}
	return t.mailbox.Send(ctx, m)
}

// SendRuntimeMessage delivers m from the page to the background context.
func (t *Tab) SendRuntimeMessage(ctx context.Context, m bus.Message) (bus.Ack, error) {
	return t.browser.runtime.Send(ctx, m)
}
