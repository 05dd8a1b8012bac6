package scanner

import (
	"strings"
	"unicode/utf16"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"misinfo-guard/internal/models"
	"misinfo-guard/internal/page"
	"misinfo-guard/pkg/logger"
)

const (
	DefaultMinLength = 25
	DefaultMaxLength = 1000
)

// excluded matches navigation, code and interactive markup plus our own UI.
var excluded = cascadia.MustCompile("nav, code, pre, script, style, button, a, #misinfo-guard-panel-container, .misinfo-icon")

type Options struct {
	// Text must be strictly longer than MinLength and strictly shorter than
	// MaxLength, counted in UTF-16 code units.
	MinLength int
	MaxLength int
}

type Scanner struct {
	profiles  *Profiles
	processed *ProcessedSet
	min, max  int
	log       *logger.Logger
}

func New(profiles *Profiles, processed *ProcessedSet, opts Options, l *logger.Logger) *Scanner {
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	return &Scanner{profiles: profiles, processed: processed, min: opts.MinLength, max: opts.MaxLength, log: l}
}

// Processed exposes the scanner's registry.
func (s *Scanner) Processed() *ProcessedSet { return s.processed }

// Scan runs one pass over p and returns the candidates not seen before.
// Every element it looks at is marked processed exactly once, emitted or not.
func (s *Scanner) Scan(p *page.Page) []models.ScanCandidate {
	prof := s.profiles.For(p.Hostname())
	var out []models.ScanCandidate
	var examined int
	p.View(func(doc *goquery.Document) {
		doc.FindMatcher(prof.container).Each(func(_ int, el *goquery.Selection) {
			node := el.Get(0)
			if !s.processed.Mark(node) {
				return
			}
			examined++
			if !visible(node) {
				return
			}
			anchor := el
			if prof.body != nil {
				if body := el.FindMatcher(prof.body).First(); body.Length() > 0 {
					anchor = body
				}
			}
			text := strings.TrimSpace(anchor.Text())
			switch n := textLength(text); {
			case n <= s.min:
				return
			case n >= s.max:
				s.log.Debugf("skipping <%s>: too long (%d)", node.Data, n)
				return
			}
			if el.ClosestMatcher(excluded).Length() > 0 {
				s.log.Debugf("skipping <%s>: navigation, code or interactive element", node.Data)
				return
			}
			out = append(out, models.ScanCandidate{Anchor: anchor.Get(0), Text: text, Profile: prof.Kind})
		})
	})
	if examined > 0 {
		s.log.Debugf("scan of %s (%s): examined %d, emitted %d", p.Hostname(), prof.Name, examined, len(out))
	}
	return out
}

// textLength counts UTF-16 code units, the unit page scripts measure in.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// visible reports whether n is attached to the document and no ancestor
// hides it.
func visible(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		switch cur.Type {
		case html.DocumentNode:
			return true
		case html.ElementNode:
		default:
			continue
		}
		switch cur.DataAtom {
		case atom.Head, atom.Template, atom.Noscript:
			return false
		}
		for _, a := range cur.Attr {
			switch strings.ToLower(a.Key) {
			case "hidden":
				return false
			case "aria-hidden":
				if strings.EqualFold(a.Val, "true") {
					return false
				}
			case "style":
				if hiddenStyle(a.Val) {
					return false
				}
			}
		}
	}
	return false
}

func hiddenStyle(style string) bool {
	s := strings.ToLower(strings.Join(strings.Fields(style), ""))
	return strings.Contains(s, "display:none") || strings.Contains(s, "visibility:hidden")
}
