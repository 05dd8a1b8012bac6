
package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"misinfo-guard/internal/models"
	"misinfo-guard/pkg/logger"
)

func newTestClient(url string) *Client {
	return NewClient(url, 5*time.Second, 2*time.Second, 0, logger.Nop())
}

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func byHeadline(rs []models.AnalysisResult) map[string]models.AnalysisResult {
	out := map[string]models.AnalysisResult{}
	for _, r := range rs {
		out[r.Headline] = r
	}
	return out
}

func TestClassifySendsHeadlines(t *testing.T) {
	var got checkRequest
	ts := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"headline":"y","status":"misleading","reason":"hash match"},
			{"headline":"x","status":"verified","reason":"looks fine","probabilities":{"misleading":0.1,"verified":0.9}}
		]}`))
	})

	rs := newTestClient(ts.URL).Classify(context.Background(), []string{"x", "y", "x"})
	assert.Equal(t, []string{"x", "y"}, got.Headlines)
	require.Len(t, rs, 2)
	m := byHeadline(rs)
	assert.Equal(t, models.StatusVerified, m["x"].Status)
	assert.InDelta(t, 0.9, m["x"].Probabilities["verified"], 1e-9)
	assert.Equal(t, models.StatusMisleading, m["y"].Status)
	assert.Equal(t, "hash match", m["y"].Reason)
}

func TestClassifyNon2xxFailsWholeBatch(t *testing.T) {
	ts := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"detail":"model warming up"}`))
	})

	rs := newTestClient(ts.URL).Classify(context.Background(), []string{"a", "b", "c"})
	require.Len(t, rs, 3)
	for _, r := range rs {
		assert.Equal(t, models.StatusError, r.Status)
		assert.Equal(t, "API Error 503: model warming up", r.Reason)
	}
}

func TestClassifyNon2xxPlainBody(t *testing.T) {
	ts := serve(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	rs := newTestClient(ts.URL).Classify(context.Background(), []string{"a"})
	require.Len(t, rs, 1)
	assert.Equal(t, "API Error 500: boom", rs[0].Reason)
}

func TestClassifyErrorPayload(t *testing.T) {
	ts := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"quota exceeded"}`))
	})
	rs := newTestClient(ts.URL).Classify(context.Background(), []string{"a", "b"})
	require.Len(t, rs, 2)
	for _, r := range rs {
		assert.Equal(t, models.StatusError, r.Status)
		assert.Equal(t, "API Error: quota exceeded", r.Reason)
	}
}

func TestClassifyMalformedPayload(t *testing.T) {
	for name, body := range map[string]string{
		"not json":    `<html>oops</html>`,
		"no results":  `{"ok":true}`,
		"empty array": `{"results":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			ts := serve(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			rs := newTestClient(ts.URL).Classify(context.Background(), []string{"a", "b"})
			require.Len(t, rs, 2)
			for _, r := range rs {
				assert.Equal(t, models.StatusError, r.Status)
				assert.Equal(t, reasonNoResults, r.Reason)
			}
		})
	}
}

func TestClassifyTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	rs := newTestClient(url).Classify(context.Background(), []string{"a", "b", "c"})
	require.Len(t, rs, 3)
	for _, r := range rs {
		assert.Equal(t, models.StatusError, r.Status)
		assert.Equal(t, reasonConnection, r.Reason)
	}
}

func TestClassifyFillsMissingAndUnknown(t *testing.T) {
	ts := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[
			{"headline":"a","status":"satire","reason":"odd"},
			{"headline":"zzz","status":"verified","reason":"not asked"}
		]}`))
	})
	m := byHeadline(newTestClient(ts.URL).Classify(context.Background(), []string{"a", "b"}))
	require.Len(t, m, 2)
	assert.Equal(t, models.StatusError, m["a"].Status)
	assert.Equal(t, models.StatusError, m["b"].Status)
	assert.Equal(t, reasonMissing, m["b"].Reason)
}

func TestClassifyEmpty(t *testing.T) {
	assert.Nil(t, newTestClient("http://127.0.0.1:1").Classify(context.Background(), nil))
}

func TestBindMatchesByTextNotPosition(t *testing.T) {
	nx, ny, nx2 := &html.Node{Data: "p"}, &html.Node{Data: "p"}, &html.Node{Data: "h2"}
	cands := []models.ScanCandidate{
		{Anchor: nx, Text: "x"},
		{Anchor: ny, Text: "y"},
		{Anchor: nx2, Text: "x"},
	}
	results := []models.AnalysisResult{
		{Headline: "y", Status: models.StatusMisleading},
		{Headline: "x", Status: models.StatusVerified},
	}
	bs := Bind(cands, results)
	require.Len(t, bs, 3)
	for _, b := range bs {
		switch b.Candidate.Anchor {
		case nx, nx2:
			assert.Equal(t, models.StatusVerified, b.Result.Status)
		case ny:
			assert.Equal(t, models.StatusMisleading, b.Result.Status)
		}
	}
}
