// Package panel owns the single result overlay of a page. Each request
// bumps a token; an outcome is applied only while its token is current and
// the panel is still loading, so results for dismissed or replaced panels
// are dropped.
package panel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"misinfo-guard/internal/assets"
	"misinfo-guard/internal/bus"
	"misinfo-guard/internal/classifier"
	"misinfo-guard/internal/models"
	"misinfo-guard/internal/page"
	"misinfo-guard/pkg/logger"
)

var (
	ErrMissingUIStructure = errors.New("panel template is missing required elements")
	ErrTemplateLoad       = errors.New("panel template could not be loaded")
)

type State int

const (
	Absent State = iota
	Loading
	Resolved
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Resolved:
		return "resolved"
	}
	return "absent"
}

// Templates loads packaged text resources.
type Templates interface {
	Load(ctx context.Context, name string) (string, error)
}

type Classifier interface {
	Classify(ctx context.Context, texts []string) []models.AnalysisResult
}

// ClassifierFactory returns a client for the endpoint named in a request.
type ClassifierFactory func(apiURL string) Classifier

// Fallback forwards a notification request to the coordinator.
type Fallback func(ctx context.Context, n bus.FallbackNotification)

type Controller struct {
	page        *page.Page
	templates   Templates
	classifiers ClassifierFactory
	fallback    Fallback
	log         *logger.Logger

	mu    sync.Mutex
	state State
	token uint64
	shown content
	req   models.AnalysisRequest

	inflight sync.WaitGroup
}

func New(p *page.Page, t Templates, cf ClassifierFactory, fb Fallback, l *logger.Logger) *Controller {
	return &Controller{page: p, templates: t, classifiers: cf, fallback: fb, log: l}
}

// Show tears down any existing overlay, builds a fresh one in the loading
// state and starts classifying msg.Headline in the background.
func (c *Controller) Show(ctx context.Context, msg bus.ShowPanel) error {
	c.mu.Lock()
	c.token++
	tok := c.token
	c.removeLocked()
	c.mu.Unlock()

	tpl, err := c.templates.Load(ctx, assets.PanelTemplate)
	if err != nil {
		c.log.Errorf("loading panel template: %v", err)
		if c.fallback != nil {
			c.fallback(ctx, bus.FallbackNotification{
				Title:   "Panel Load Error",
				Message: "Could not load UI: " + err.Error(),
			})
		}
		return fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if tok != c.token {
		// replaced or dismissed while the template was loading
		return nil
	}

	loading := content{
		headline:   msg.Headline,
		icons:      msg.Icons,
		mgIcon:     msg.MGIcon,
		mgTitleImg: msg.MGTitleImg,
		status:     statusChecking,
		reason:     "Analyzing selected text...",
	}
	err = c.page.Mutate(func(doc *goquery.Document) error {
		doc.Find("body").AppendHtml(`<div id="` + ContainerID + `">` + tpl + `</div>`)
		root := doc.Find("#" + ContainerID)
		if err := render(root, loading); err != nil {
			return err
		}
		root.Find("#mg-close-btn").SetAttr("data-mg-action", "dismiss")
		root.Find(".mg-panel").AddClass("mg-show")
		return nil
	})
	if err != nil {
		c.log.Errorf("panel elements not found, closing: %v", err)
		c.removeLocked()
		return err
	}
	c.state = Loading
	c.shown = loading
	c.req = models.AnalysisRequest{RequestID: msg.RequestID, Text: msg.Headline}
	c.log.Infof("panel shown for %q", preview(msg.Headline))

	c.inflight.Add(1)
	go c.classify(context.WithoutCancel(ctx), tok, msg)
	return nil
}

func (c *Controller) classify(ctx context.Context, tok uint64, msg bus.ShowPanel) {
	defer c.inflight.Done()
	results := c.classifiers(msg.APIURL).Classify(ctx, []string{msg.Headline})
	res, ok := classifier.Lookup(results, msg.Headline)
	if !ok {
		res = models.ErrorResult(msg.Headline, "Received no results or unclear data from server.")
	}
	c.apply(tok, res)
}

// apply renders res if tok still identifies the loading panel.
func (c *Controller) apply(tok uint64, res models.AnalysisResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tok != c.token || c.state != Loading {
		c.log.Debugf("panel closed or replaced before the result for %q arrived", preview(res.Headline))
		return false
	}
	next := c.shown
	next.mgIcon, next.mgTitleImg = "", ""
	next.status = string(res.Status)
	next.reason = res.Reason
	next.probabilities = res.Probabilities
	err := c.page.Mutate(func(doc *goquery.Document) error {
		return render(doc.Find("#"+ContainerID), next)
	})
	if err != nil {
		c.log.Errorf("panel elements not found, closing: %v", err)
		c.removeLocked()
		return false
	}
	c.state = Resolved
	c.shown = next
	return true
}

// Dismiss removes the overlay. Any result still in flight is discarded.
// It is the handler for the close button, the element marked
// data-mg-action="dismiss".
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token++
	if c.state != Absent {
		c.log.Infof("panel closed")
	}
	c.removeLocked()
}

func (c *Controller) removeLocked() {
	_ = c.page.Mutate(func(doc *goquery.Document) error {
		doc.Find("#" + ContainerID).Remove()
		return nil
	})
	c.state = Absent
	c.shown = content{}
	c.req = models.AnalysisRequest{}
}

// Request returns the request the overlay is showing, if any.
func (c *Controller) Request() (models.AnalysisRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req, c.state != Absent
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until every classification started so far has settled.
func (c *Controller) Wait() { c.inflight.Wait() }

// WaitContext is Wait bounded by ctx. The classification keeps running
// when ctx ends first; its result still lands if the panel is open.
func (c *Controller) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View summarizes what the panel currently displays.
type View struct {
	State      string `json:"state"`
	Headline   string `json:"headline,omitempty"`
	Status     string `json:"status,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Misleading string `json:"misleading,omitempty"`
	Verified   string `json:"verified,omitempty"`
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{State: c.state.String()}
	if c.state == Absent {
		return v
	}
	v.Headline = c.shown.headline
	v.Status = c.shown.status
	v.Reason = c.shown.reason
	if c.shown.probabilities != nil {
		m, ver := Normalize(c.shown.probabilities)
		v.Misleading, v.Verified = Percent(m), Percent(ver)
	}
	return v
}

// HandleMessage is the panel agent's listener.
func (c *Controller) HandleMessage(ctx context.Context, m bus.Message) (bus.Ack, error) {
	show, ok := m.(bus.ShowPanel)
	if !ok {
		return bus.Ack{}, fmt.Errorf("%w: %s", bus.ErrUnknownMessage, m.Kind())
	}
	if err := c.Show(ctx, show); err != nil {
		return bus.Ack{Success: false, Error: err.Error()}, nil
	}
	return bus.Ack{Success: true}, nil
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > 30 {
		return string(r[:30]) + "..."
	}
	return s
}
