// Package host is an in-process extension host. It keeps tabs with their
// page sessions, injects packaged styles and scripts into them, routes
// messages between tabs and the background runtime, and records context
// menu items and system notifications.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"misinfo-guard/internal/assets"
	"misinfo-guard/internal/bus"
	"misinfo-guard/internal/page"
	"misinfo-guard/pkg/logger"
)

var (
	ErrTabClosed       = errors.New("tab is closed")
	ErrUnknownResource = errors.New("unknown resource")
	ErrDuplicateMenu   = errors.New("menu item already exists")
)

// ScriptFunc is the body of an injectable script. It runs once per page
// session and returns the listener to attach to the tab.
type ScriptFunc func(ctx context.Context, t *Tab) (bus.Handler, error)

// ContentScriptFunc runs for every page load until the page session ends.
type ContentScriptFunc func(ctx context.Context, t *Tab) error

type MenuItem struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Contexts []string `json:"contexts"`
}

type Notification struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	IconURL string    `json:"iconUrl"`
	At      time.Time `json:"at"`
}

type Browser struct {
	assets  *assets.Store
	runtime *bus.Mailbox
	log     *logger.Logger

	mu             sync.Mutex
	tabs           map[int]*Tab
	nextID         int
	scripts        map[string]ScriptFunc
	contentScripts []contentScript
	menus          map[string]MenuItem
	notifications  []Notification

	running sync.WaitGroup
}

func NewBrowser(store *assets.Store, l *logger.Logger) *Browser {
	return &Browser{
		assets:  store,
		runtime: bus.NewMailbox(),
		log:     l,
		tabs:    map[int]*Tab{},
		nextID:  1,
		scripts: map[string]ScriptFunc{},
		menus:   map[string]MenuItem{},
	}
}

func (b *Browser) Assets() *assets.Store { return b.assets }

// Runtime is the background context's mailbox.
func (b *Browser) Runtime() *bus.Mailbox { return b.runtime }

// RegisterScript makes fn injectable under file.
func (b *Browser) RegisterScript(file string, fn ScriptFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scripts[file] = fn
}

type contentScript struct {
	file string
	fn   ContentScriptFunc
}

// RegisterContentScript runs fn as file on every page opened or reloaded
// afterwards.
func (b *Browser) RegisterContentScript(file string, fn ContentScriptFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contentScripts = append(b.contentScripts, contentScript{file: file, fn: fn})
}

// ContentScripts lists the registered content script files.
func (b *Browser) ContentScripts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.contentScripts))
	for _, cs := range b.contentScripts {
		out = append(out, cs.file)
	}
	return out
}

func (b *Browser) CreateMenuItem(id, title string, contexts []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.menus[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMenu, id)
	}
	b.menus[id] = MenuItem{ID: id, Title: title, Contexts: contexts}
	return nil
}

func (b *Browser) Menus() []MenuItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]MenuItem, 0, len(b.menus))
	for _, m := range b.menus {
		out = append(out, m)
	}
	return out
}

// MaxNotifications bounds the notification history kept by a Browser.
const MaxNotifications = 100

// Notify shows a basic system notification. It is also recorded by the
// collector attached to ctx, if any.
func (b *Browser) Notify(ctx context.Context, title, message string) error {
	n := Notification{Title: title, Message: message, IconURL: b.assets.URL(assets.ExtensionIcon), At: time.Now()}
	b.mu.Lock()
	b.notifications = append(b.notifications, n)
	if over := len(b.notifications) - MaxNotifications; over > 0 {
		b.notifications = append(b.notifications[:0:0], b.notifications[over:]...)
	}
	b.mu.Unlock()
	if c, ok := ctx.Value(collectorKey{}).(*collector); ok {
		c.add(n)
	}
	b.log.Warnf("notification: %s: %s", title, message)
	return nil
}

type collectorKey struct{}

type collector struct {
	mu    sync.Mutex
	notes []Notification
}

func (c *collector) add(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
}

func (c *collector) list() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.notes...)
}

// CollectNotifications returns a context that records the notifications
// raised while handling it, and a func listing them.
func CollectNotifications(ctx context.Context) (context.Context, func() []Notification) {
	c := &collector{}
	return context.WithValue(ctx, collectorKey{}, c), c.list
}

// Notifications returns the most recent notifications, oldest first.
func (b *Browser) Notifications() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Notification(nil), b.notifications...)
}

// OpenTab starts a page session for p in a new tab.
func (b *Browser) OpenTab(p *page.Page) *Tab {
	b.mu.Lock()
	t := &Tab{id: b.nextID, browser: b, mailbox: bus.NewMailbox()}
	b.tabs[t.id] = t
	b.nextID++
	b.mu.Unlock()

	t.load(p)
	return t
}

func (b *Browser) Tab(id int) (*Tab, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tabs[id]
	return t, ok
}

// Close closes every tab and waits for their content scripts to stop.
func (b *Browser) Close() {
	b.mu.Lock()
	tabs := make([]*Tab, 0, len(b.tabs))
	for _, t := range b.tabs {
		tabs = append(tabs, t)
	}
	b.mu.Unlock()
	for _, t := range tabs {
		t.Close()
	}
	b.running.Wait()
}

func (b *Browser) script(file string) (ScriptFunc, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn, ok := b.scripts[file]
	return fn, ok
}

func (b *Browser) startContentScripts(ctx context.Context, t *Tab) {
	b.mu.Lock()
	scripts := append([]contentScript(nil), b.contentScripts...)
	b.mu.Unlock()
	for _, cs := range scripts {
		b.running.Add(1)
		go func() {
			defer b.running.Done()
			if err := cs.fn(ctx, t); err != nil && !errors.Is(err, context.Canceled) {
				b.log.Errorf("content script %s in tab %d: %v", cs.file, t.id, err)
			}
		}()
	}
}

func (b *Browser) forget(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tabs, id)
}
