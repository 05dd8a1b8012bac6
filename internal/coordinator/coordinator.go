// Package coordinator is the privileged background side. On an "analyze
// selection" trigger it injects the panel stylesheet and script into the
// tab, waits for the panel agent to listen, and delivers the request.
// Failures end in a system notification; nothing is retried.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"misinfo-guard/internal/assets"
	"misinfo-guard/internal/bus"
	"misinfo-guard/pkg/logger"
)

const (
	MenuItemID = "check-misinfo-guard"
	MenuTitle  = "Check headline with MisInfo Guard"
)

var (
	ErrInjection  = errors.New("could not inject the panel")
	ErrDelivery   = errors.New("could not deliver the request to the panel")
	ErrInvalidTab = errors.New("invalid tab")
)

// Tab is a page context the coordinator can inject into and message.
type Tab interface {
	ID() int
	InsertCSS(ctx context.Context, file string) error
	ExecuteScript(ctx context.Context, file string) error
	WaitReady(ctx context.Context) error
	SendMessage(ctx context.Context, m bus.Message) (bus.Ack, error)
}

type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

type MenuRegistrar interface {
	CreateMenuItem(id, title string, contexts []string) error
}

// Resources resolves packaged resource URLs.
type Resources interface {
	URL(name string) string
	StatusIcons() map[string]string
}

type DispatchMode string

const (
	// DispatchHandshake waits for the injected agent's listener.
	DispatchHandshake DispatchMode = "handshake"
	// DispatchDelay waits a fixed delay after injection.
	DispatchDelay DispatchMode = "delay"
)

type Options struct {
	APIURL       string
	Mode         DispatchMode
	Delay        time.Duration
	ReadyTimeout time.Duration
}

// Click is a context menu activation.
type Click struct {
	MenuItemID    string
	SelectionText string
	Tab           Tab
}

type Coordinator struct {
	opts     Options
	res      Resources
	notifier Notifier
	log      *logger.Logger
}

func New(opts Options, res Resources, n Notifier, l *logger.Logger) *Coordinator {
	if opts.Mode == "" {
		opts.Mode = DispatchHandshake
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 2 * time.Second
	}
	return &Coordinator{opts: opts, res: res, notifier: n, log: l}
}

// Register adds the context menu item. Failures, such as the item surviving
// from an earlier registration, are logged and otherwise ignored.
func (c *Coordinator) Register(r MenuRegistrar) {
	if err := r.CreateMenuItem(MenuItemID, MenuTitle, []string{"selection"}); err != nil {
		c.log.Errorf("creating context menu: %v", err)
		return
	}
	c.log.Infof("context menu created")
}

// HandleClick reacts to the context menu. Other menu items and empty
// selections are ignored.
func (c *Coordinator) HandleClick(ctx context.Context, click Click) error {
	if click.MenuItemID != MenuItemID {
		return nil
	}
	text := strings.TrimSpace(click.SelectionText)
	if text == "" {
		return nil
	}
	if click.Tab == nil {
		c.log.Errorf("click without a tab")
		return ErrInvalidTab
	}
	c.log.Infof("text selected in tab %d: %q", click.Tab.ID(), text)
	return c.Analyze(ctx, click.Tab, text)
}

// Analyze runs the inject, wait, dispatch sequence for text in tab.
func (c *Coordinator) Analyze(ctx context.Context, tab Tab, text string) error {
	if err := tab.InsertCSS(ctx, assets.PanelStylesheet); err != nil {
		return c.injectionFailed(ctx, "stylesheet", err)
	}
	c.log.Debugf("stylesheet injected into tab %d", tab.ID())
	if err := tab.ExecuteScript(ctx, assets.PanelScript); err != nil {
		return c.injectionFailed(ctx, "panel script", err)
	}
	c.log.Debugf("panel script injected into tab %d", tab.ID())

	if err := c.awaitListener(ctx, tab); err != nil {
		return c.deliveryFailed(ctx, err)
	}

	ack, err := tab.SendMessage(ctx, bus.ShowPanel{
		Headline:   text,
		APIURL:     c.opts.APIURL,
		Icons:      c.res.StatusIcons(),
		MGIcon:     c.res.URL(assets.ExtensionIcon),
		MGTitleImg: c.res.URL(assets.TitleImage),
		RequestID:  uuid.NewString(),
	})
	if err != nil {
		return c.deliveryFailed(ctx, err)
	}
	if !ack.Success {
		// the panel reports its own failures through a fallback notification
		c.log.Warnf("panel in tab %d could not show the result: %s", tab.ID(), ack.Error)
	}
	return nil
}

func (c *Coordinator) awaitListener(ctx context.Context, tab Tab) error {
	if c.opts.Mode == DispatchDelay {
		t := time.NewTimer(c.opts.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
	wctx, cancel := context.WithTimeout(ctx, c.opts.ReadyTimeout)
	defer cancel()
	if err := tab.WaitReady(wctx); err != nil {
		return fmt.Errorf("panel never became ready: %w", err)
	}
	return nil
}

// HandleMessage is the background runtime's listener.
func (c *Coordinator) HandleMessage(ctx context.Context, m bus.Message) (bus.Ack, error) {
	n, ok := m.(bus.FallbackNotification)
	if !ok {
		return bus.Ack{}, fmt.Errorf("%w: %s", bus.ErrUnknownMessage, m.Kind())
	}
	c.notify(ctx, n.Title, n.Message)
	return bus.Ack{Success: true}, nil
}

func (c *Coordinator) injectionFailed(ctx context.Context, what string, err error) error {
	c.log.Errorf("failed to inject %s: %v", what, err)
	c.notify(ctx, "Injection Error", "Could not load the panel on this page. Try refreshing the page.")
	return fmt.Errorf("%w: %s: %v", ErrInjection, what, err)
}

func (c *Coordinator) deliveryFailed(ctx context.Context, err error) error {
	c.log.Errorf("error sending message: %v", err)
	c.notify(ctx, "Communication Error", "Could not send data to the page panel. Please refresh and try again.")
	return fmt.Errorf("%w: %v", ErrDelivery, err)
}

func (c *Coordinator) notify(ctx context.Context, title, message string) {
	if err := c.notifier.Notify(ctx, "MisInfo Guard: "+title, message); err != nil {
		c.log.Errorf("failed to show notification: %v", err)
	}
}
