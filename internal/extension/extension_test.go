package extension

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"misinfo-guard/internal/assets"
	"misinfo-guard/internal/config"
	"misinfo-guard/internal/coordinator"
	"misinfo-guard/internal/crawler"
	"misinfo-guard/internal/host"
	"misinfo-guard/internal/page"
	"misinfo-guard/internal/panel"
	"misinfo-guard/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// service answers every headline with status and counts calls.
func service(t *testing.T, status string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Headlines []string `json:"headlines"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		var out []map[string]any
		for _, h := range req.Headlines {
			out = append(out, map[string]any{
				"headline":      h,
				"status":        status,
				"reason":        "No hash match, AI model found it reliable.",
				"probabilities": map[string]float64{"misleading": 0.25, "verified": 0.75},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": out})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testConfig(apiURL string) *config.Config {
	cfg := config.Default()
	cfg.APIURL = apiURL
	cfg.AssetBaseURL = "ext://guard/"
	cfg.Scan.SettleDelay = 5 * time.Millisecond
	cfg.Scan.Debounce = 5 * time.Millisecond
	return cfg
}

func TestAnalyzeEndToEnd(t *testing.T) {
	var calls atomic.Int32
	ts := service(t, "verified", &calls)
	ext, err := New(testConfig(ts.URL), logger.Nop(), false)
	require.NoError(t, err)
	defer ext.Close()

	tab := ext.Browser.OpenTab(page.Blank("https://news.example.com/story"))
	view, err := ext.Analyze(context.Background(), tab, "  Local man wins lottery twice in one week  ")
	require.NoError(t, err)

	assert.Equal(t, panel.View{
		State:      "resolved",
		Headline:   "Local man wins lottery twice in one week",
		Status:     "verified",
		Reason:     "No hash match, AI model found it reliable.",
		Misleading: "25.0%",
		Verified:   "75.0%",
	}, view)
	assert.Empty(t, ext.Browser.Notifications())

	// a second request reuses the injected stylesheet and listener
	_, err = ext.Analyze(context.Background(), tab, "Another headline to check")
	require.NoError(t, err)
	tab.Page().View(func(doc *goquery.Document) {
		assert.Equal(t, 1, doc.Find("style[data-misinfo-guard]").Length())
		assert.Equal(t, 1, doc.Find("#"+panel.ContainerID).Length())
		assert.Equal(t, "Another headline to check", doc.Find("#mg-selected-headline").Text())
	})
	assert.Equal(t, int32(2), calls.Load())
}

func TestMenuRegisteredOnce(t *testing.T) {
	ext, err := New(testConfig("http://127.0.0.1:1"), logger.Nop(), false)
	require.NoError(t, err)
	defer ext.Close()

	ext.Coordinator.Register(ext.Browser)
	menus := ext.Browser.Menus()
	require.Len(t, menus, 1)
	assert.Equal(t, coordinator.MenuItemID, menus[0].ID)
	assert.Equal(t, []string{"selection"}, menus[0].Contexts)
}

func TestClosedTabRaisesInjectionError(t *testing.T) {
	ext, err := New(testConfig("http://127.0.0.1:1"), logger.Nop(), false)
	require.NoError(t, err)
	defer ext.Close()

	tab := ext.Browser.OpenTab(page.Blank("https://example.com/"))
	tab.Close()

	_, err = ext.Analyze(context.Background(), tab, "some text")
	require.ErrorIs(t, err, coordinator.ErrInjection)
	notes := ext.Browser.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "MisInfo Guard: Injection Error", notes[0].Title)
	assert.Equal(t, "ext://guard/icons/shield-48.png", notes[0].IconURL)
}

func TestContentScriptAnnotatesAndReloadResets(t *testing.T) {
	var calls atomic.Int32
	ts := service(t, "caution", &calls)
	ext, err := New(testConfig(ts.URL), logger.Nop(), true)
	require.NoError(t, err)
	defer ext.Close()
	assert.Equal(t, []string{assets.ContentScript}, ext.Browser.ContentScripts())

	const markup = `<html><body><h2>Officials deny that the river has turned into lemonade</h2></body></html>`
	glyphs := func(p *page.Page) int {
		var n int
		p.View(func(doc *goquery.Document) { n = doc.Find("h2 .misinfo-icon[data-status=caution]").Length() })
		return n
	}

	first, err := page.FromHTML(markup, "https://news.example.com/")
	require.NoError(t, err)
	tab := ext.Browser.OpenTab(first)
	require.Eventually(t, func() bool { return glyphs(first) == 1 }, 2*time.Second, 5*time.Millisecond)

	second, err := page.FromHTML(markup, "https://news.example.com/")
	require.NoError(t, err)
	require.NoError(t, tab.Reload(second))
	require.Eventually(t, func() bool { return glyphs(second) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, glyphs(first))
}

func TestScanPage(t *testing.T) {
	var calls atomic.Int32
	ts := service(t, "verified", &calls)
	ext, err := New(testConfig(ts.URL), logger.Nop(), false)
	require.NoError(t, err)
	defer ext.Close()

	p, err := page.FromHTML(`<html><body>
		<p>The same sentence appears twice on this page today.</p>
		<p>The same sentence appears twice on this page today.</p>
		<nav><p>Navigation text that should never be sent anywhere.</p></nav>
	</body></html>`, "https://example.com/")
	require.NoError(t, err)

	anns := ext.ScanPage(context.Background(), p)
	require.Len(t, anns, 2)
	for _, a := range anns {
		assert.Equal(t, "verified", string(a.Status))
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestScanURLs(t *testing.T) {
	var calls atomic.Int32
	api := service(t, "misleading", &calls)
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/story":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><h1>Breaking: the tide has been cancelled for good</h1></body></html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer site.Close()

	ext, err := New(testConfig(api.URL), logger.Nop(), false)
	require.NoError(t, err)
	defer ext.Close()

	f := crawler.NewHTTPClient(5*time.Second, time.Second, 1<<20)
	reps := ext.ScanURLs(context.Background(), f, []string{site.URL + "/story", site.URL + "/gone", ""}, 2)
	require.Len(t, reps, 3)

	require.Empty(t, reps[0].Error)
	require.Len(t, reps[0].Annotations, 1)
	assert.Equal(t, "Breaking: the tide has been cancelled for good", reps[0].Annotations[0].Text)
	assert.Equal(t, "misleading", string(reps[0].Annotations[0].Status))

	assert.Equal(t, "http status 404", reps[1].Error)
	assert.Equal(t, "empty url", reps[2].Error)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnalyzeReturnsWhenContextEnds(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	ext, err := New(testConfig(ts.URL), logger.Nop(), false)
	require.NoError(t, err)
	defer ext.Close()
	tab := ext.Browser.OpenTab(page.Blank("https://example.com/"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	view, err := ext.Analyze(ctx, tab, "A service that never answers this headline")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "loading", view.State)
	assert.Equal(t, "A service that never answers this headline", view.Headline)

	// the verdict still lands once the service answers
	close(release)
	ctl, ok := ext.Panels.For(tab.ID())
	require.True(t, ok)
	ctl.Wait()
	assert.Equal(t, "error", ctl.View().Status)
	assert.Equal(t, "API Error 503: Unknown server error.", ctl.View().Reason)
}

func TestAnalyzeReportsOnlyItsOwnNotifications(t *testing.T) {
	ext, err := New(testConfig("http://127.0.0.1:1"), logger.Nop(), false)
	require.NoError(t, err)
	defer ext.Close()
	require.NoError(t, ext.Browser.Notify(context.Background(), "earlier", "from another request"))

	tab := ext.Browser.OpenTab(page.Blank("https://example.com/"))
	tab.Close()
	ctx, notes := host.CollectNotifications(context.Background())
	_, err = ext.Analyze(ctx, tab, "some text")
	require.ErrorIs(t, err, coordinator.ErrInjection)

	got := notes()
	require.Len(t, got, 1)
	assert.Equal(t, "MisInfo Guard: Injection Error", got[0].Title)
	assert.Len(t, ext.Browser.Notifications(), 2)
}
