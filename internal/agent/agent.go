// Package agent provides the scripts the host injects into pages: the
// panel script, which attaches a panel controller to a tab, and the content
// script, which runs the bulk scan agent for each page session.
package agent

import (
	"context"
	"sync"
	"time"

	"misinfo-guard/internal/bus"
	"misinfo-guard/internal/content"
	"misinfo-guard/internal/host"
	"misinfo-guard/internal/panel"
	"misinfo-guard/internal/renderer"
	"misinfo-guard/internal/scanner"
	"misinfo-guard/pkg/logger"
)

// Panels creates one panel controller per page session and remembers the
// latest one for each tab.
type Panels struct {
	templates   panel.Templates
	classifiers panel.ClassifierFactory
	log         *logger.Logger

	mu    sync.Mutex
	byTab map[int]*panel.Controller
}

func NewPanels(t panel.Templates, cf panel.ClassifierFactory, l *logger.Logger) *Panels {
	return &Panels{templates: t, classifiers: cf, log: l, byTab: map[int]*panel.Controller{}}
}

// Script is the panel script body.
func (ps *Panels) Script() host.ScriptFunc {
	return func(_ context.Context, tab *host.Tab) (bus.Handler, error) {
		fallback := func(ctx context.Context, n bus.FallbackNotification) {
			if _, err := tab.SendRuntimeMessage(ctx, n); err != nil {
				ps.log.Errorf("failed to send fallback message: %v", err)
			}
		}
		ctl := panel.New(tab.Page(), ps.templates, ps.classifiers, fallback, ps.log)
		ps.mu.Lock()
		ps.byTab[tab.ID()] = ctl
		ps.mu.Unlock()
		ps.log.Debugf("panel listener added to tab %d", tab.ID())
		return ctl.HandleMessage, nil
	}
}

// For returns the controller serving tab id.
func (ps *Panels) For(id int) (*panel.Controller, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	c, ok := ps.byTab[id]
	return c, ok
}

// Scan configures the content script.
type Scan struct {
	Profiles   *scanner.Profiles
	Options    scanner.Options
	Settle     time.Duration
	Debounce   time.Duration
	Classifier content.Classifier
}

// ContentScript runs the bulk scan agent with a fresh ProcessedSet for each
// page session.
func ContentScript(cfg Scan, l *logger.Logger) host.ContentScriptFunc {
	return func(ctx context.Context, tab *host.Tab) error {
		s := scanner.New(cfg.Profiles, scanner.NewProcessedSet(), cfg.Options, l)
		a := content.New(tab.Page(), s, cfg.Classifier, renderer.New(l),
			content.Options{Settle: cfg.Settle, Debounce: cfg.Debounce}, l)
		return a.Run(ctx)
	}
}
