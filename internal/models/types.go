
package models

import (
	"strings"

	"golang.org/x/net/html"
)

type Status string

const (
	StatusVerified   Status = "verified"
	StatusMisleading Status = "misleading"
	StatusCaution    Status = "caution"
	StatusError      Status = "error"
)

// ParseStatus maps a service status string onto Status. Unknown values
// report ok=false and StatusError.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusVerified, StatusMisleading, StatusCaution, StatusError:
		return st, true
	}
	return StatusError, false
}

type SiteProfile string

const (
	ProfileGeneric   SiteProfile = "generic"
	ProfileMicroblog SiteProfile = "microblog"
)

// ScanCandidate is one piece of text found by a scan pass. Anchor points at
// the element the status glyph is attached to.
type ScanCandidate struct {
	Anchor  *html.Node  `json:"-"`
	Text    string      `json:"text"`
	Profile SiteProfile `json:"profile"`
}

// Probabilities maps a label ("misleading", "verified", ...) to a score in [0,1].
type Probabilities map[string]float64

type AnalysisRequest struct {
	RequestID    string     `json:"requestId"`
	Text         string     `json:"text"`
	SourceAnchor *html.Node `json:"-"`
}

type AnalysisResult struct {
	Headline      string        `json:"headline"`
	Status        Status        `json:"status"`
	Reason        string        `json:"reason"`
	Probabilities Probabilities `json:"probabilities,omitempty"`
}

// ErrorResult builds the fail-closed result for one text.
func ErrorResult(text, reason string) AnalysisResult {
	return AnalysisResult{Headline: text, Status: StatusError, Reason: reason}
}

// Annotation is the outcome of the bulk scan path for one anchor.
type Annotation struct {
	Text    string      `json:"text"`
	Profile SiteProfile `json:"profile"`
	Status  Status      `json:"status"`
	Reason  string      `json:"reason"`
}

type PageReport struct {
	URL         string       `json:"url"`
	FetchMs     int64        `json:"fetchMs,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Error       string       `json:"error,omitempty"`
}
