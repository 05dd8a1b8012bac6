
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"misinfo-guard/internal/models"
	"misinfo-guard/pkg/logger"
)

const (
	reasonConnection = "API connection failed"
	reasonNoResults  = "Received no results or unclear data from server."
	reasonMissing    = "No verdict returned for this text."
)

// Client talks to the remote classification service. Every call yields
// exactly one result per distinct input text: when the call cannot be
// trusted as a whole, every text gets an error result.
type Client struct {
	client    *http.Client
	apiURL    string
	sizeCap   int64
	userAgent string
	log       *logger.Logger
}

// NewClient builds a client for apiURL. A zero timeout leaves requests
// without a deadline beyond their context.
func NewClient(apiURL string, timeout, dialTimeout time.Duration, sizeCap int64, l *logger.Logger) *Client {
	if sizeCap <= 0 {
		sizeCap = 1 << 20
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		apiURL:    apiURL,
		sizeCap:   sizeCap,
		userAgent: "misinfo-guard/0.5 (+https://example.com)",
		log:       l,
	}
}

// URL returns the service endpoint.
func (c *Client) URL() string { return c.apiURL }

type checkRequest struct {
	Headlines []string `json:"headlines"`
}

type checkResult struct {
	Headline      string               `json:"headline"`
	Status        string               `json:"status"`
	Reason        string               `json:"reason"`
	Probabilities models.Probabilities `json:"probabilities,omitempty"`
}

type checkResponse struct {
	Results []checkResult   `json:"results"`
	Error   string          `json:"error"`
	Detail  json.RawMessage `json:"detail"`
}

// Classify sends texts in one batch. Results are not positional: match them
// to inputs by Headline.
func (c *Client) Classify(ctx context.Context, texts []string) []models.AnalysisResult {
	unique := dedupe(texts)
	if len(unique) == 0 {
		return nil
	}
	c.log.Infof("sending %d texts to %s", len(unique), c.apiURL)

	payload, err := json.Marshal(checkRequest{Headlines: unique})
	if err != nil {
		return failAll(unique, err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		c.log.Errorf("building request: %v", err)
		return failAll(unique, reasonConnection)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Errorf("calling classification service: %v", err)
		return failAll(unique, reasonConnection)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.sizeCap))
	if err != nil {
		c.log.Errorf("reading classification response: %v", err)
		return failAll(unique, reasonConnection)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Errorf("classification request failed: %s", resp.Status)
		return failAll(unique, statusReason(resp.StatusCode, body))
	}

	var data checkResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.log.Errorf("malformed classification response: %v", err)
		return failAll(unique, reasonNoResults)
	}
	switch {
	case len(data.Results) > 0:
		return collect(unique, data.Results)
	case data.Error != "":
		c.log.Errorf("classification service returned an error: %s", data.Error)
		return failAll(unique, "API Error: "+data.Error)
	default:
		return failAll(unique, reasonNoResults)
	}
}

// collect keeps the first verdict per requested text and fills in the texts
// the service left out.
func collect(texts []string, results []checkResult) []models.AnalysisResult {
	wanted := make(map[string]bool, len(texts))
	for _, t := range texts {
		wanted[t] = true
	}
	out := make([]models.AnalysisResult, 0, len(texts))
	seen := make(map[string]bool, len(texts))
	for _, r := range results {
		if !wanted[r.Headline] || seen[r.Headline] {
			continue
		}
		seen[r.Headline] = true
		status, ok := models.ParseStatus(r.Status)
		reason := r.Reason
		if !ok {
			reason = fmt.Sprintf("Unknown status %q: %s", r.Status, r.Reason)
		}
		out = append(out, models.AnalysisResult{
			Headline:      r.Headline,
			Status:        status,
			Reason:        reason,
			Probabilities: r.Probabilities,
		})
	}
	for _, t := range texts {
		if !seen[t] {
			out = append(out, models.ErrorResult(t, reasonMissing))
		}
	}
	return out
}

func statusReason(code int, body []byte) string {
	msg := fmt.Sprintf("API Error %d", code)
	var data checkResponse
	if err := json.Unmarshal(body, &data); err == nil {
		switch {
		case len(data.Detail) > 0 && string(data.Detail) != "null":
			var s string
			if json.Unmarshal(data.Detail, &s) == nil {
				return msg + ": " + s
			}
			return msg + ": " + string(data.Detail)
		case data.Error != "":
			return msg + ": " + data.Error
		}
	}
	if txt := strings.TrimSpace(string(body)); txt != "" {
		return msg + ": " + txt
	}
	return msg + ": Unknown server error."
}

func failAll(texts []string, reason string) []models.AnalysisResult {
	out := make([]models.AnalysisResult, 0, len(texts))
	for _, t := range texts {
		out = append(out, models.ErrorResult(t, reason))
	}
	return out
}

func dedupe(texts []string) []string {
	seen := make(map[string]bool, len(texts))
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
