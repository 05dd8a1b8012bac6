// Package extension assembles the background coordinator, the host and the
// injectable agents from a configuration, the way installing the browser
// extension would.
package extension

import (
	"context"

	"misinfo-guard/internal/agent"
	"misinfo-guard/internal/assets"
	"misinfo-guard/internal/classifier"
	"misinfo-guard/internal/config"
	"misinfo-guard/internal/content"
	"misinfo-guard/internal/coordinator"
	"misinfo-guard/internal/host"
	"misinfo-guard/internal/models"
	"misinfo-guard/internal/page"
	"misinfo-guard/internal/panel"
	"misinfo-guard/internal/renderer"
	"misinfo-guard/internal/scanner"
	"misinfo-guard/pkg/logger"
)

type Extension struct {
	Browser     *host.Browser
	Coordinator *coordinator.Coordinator
	Panels      *agent.Panels

	cfg      *config.Config
	profiles *scanner.Profiles
	client   *classifier.Client
	log      *logger.Logger
}

// New installs the extension. With contentScripts set every opened page is
// watched and annotated in the background.
func New(cfg *config.Config, l *logger.Logger, contentScripts bool) (*Extension, error) {
	profiles, err := scanner.NewProfiles(cfg.Profiles)
	if err != nil {
		return nil, err
	}
	store := assets.New(cfg.AssetBaseURL)
	b := host.NewBrowser(store, l.Named("host"))

	e := &Extension{Browser: b, cfg: cfg, profiles: profiles, log: l}
	e.client = e.newClient(cfg.APIURL)

	e.Coordinator = coordinator.New(coordinator.Options{
		APIURL:       cfg.APIURL,
		Mode:         coordinator.DispatchMode(cfg.Dispatch.Mode),
		Delay:        cfg.Dispatch.Delay,
		ReadyTimeout: cfg.Dispatch.ReadyTimeout,
	}, store, b, l.Named("coordinator"))

	e.Panels = agent.NewPanels(store, func(apiURL string) panel.Classifier {
		if apiURL == e.client.URL() {
			return e.client
		}
		return e.newClient(apiURL)
	}, l.Named("panel"))
	b.RegisterScript(assets.PanelScript, e.Panels.Script())

	if contentScripts {
		b.RegisterContentScript(assets.ContentScript, agent.ContentScript(agent.Scan{
			Profiles:   profiles,
			Options:    e.scanOptions(),
			Settle:     cfg.Scan.SettleDelay,
			Debounce:   cfg.Scan.Debounce,
			Classifier: e.client,
		}, l.Named("content")))
	}

	b.Runtime().Listen(e.Coordinator.HandleMessage)
	e.Coordinator.Register(b)
	return e, nil
}

func (e *Extension) newClient(apiURL string) *classifier.Client {
	c := e.cfg.Classifier
	return classifier.NewClient(apiURL, c.Timeout, c.DialTimeout, c.MaxBodyBytes, e.log.Named("classifier"))
}

func (e *Extension) scanOptions() scanner.Options {
	return scanner.Options{MinLength: e.cfg.Scan.MinLength, MaxLength: e.cfg.Scan.MaxLength}
}

// Analyze triggers the context menu on tab with text selected and waits for
// the panel to settle. If ctx ends first the panel is returned as it stands,
// usually still loading, together with ctx's error.
func (e *Extension) Analyze(ctx context.Context, tab *host.Tab, text string) (panel.View, error) {
	err := e.Coordinator.HandleClick(ctx, coordinator.Click{
		MenuItemID:    coordinator.MenuItemID,
		SelectionText: text,
		Tab:           tab,
	})
	if err != nil {
		return panel.View{State: panel.Absent.String()}, err
	}
	ctl, ok := e.Panels.For(tab.ID())
	if !ok {
		return panel.View{State: panel.Absent.String()}, nil
	}
	if err := ctl.WaitContext(ctx); err != nil {
		e.log.Warnf("stopped waiting for the verdict in tab %d: %v", tab.ID(), err)
		return ctl.View(), err
	}
	return ctl.View(), nil
}

// ScanPage runs one scan pass over p with a fresh ProcessedSet and
// annotates the page.
func (e *Extension) ScanPage(ctx context.Context, p *page.Page) []models.Annotation {
	s := scanner.New(e.profiles, scanner.NewProcessedSet(), e.scanOptions(), e.log.Named("scanner"))
	a := content.New(p, s, e.client, renderer.New(e.log.Named("renderer")), content.Options{}, e.log.Named("content"))
	return a.ScanOnce(ctx)
}

// Close closes all tabs and stops their content scripts.
func (e *Extension) Close() { e.Browser.Close() }
