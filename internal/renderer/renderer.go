// Package renderer attaches inline status glyphs to scanned anchors.
package renderer

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"misinfo-guard/internal/models"
	"misinfo-guard/internal/page"
	"misinfo-guard/pkg/logger"
)

// IconClass marks glyph elements; an anchor carries at most one.
const IconClass = "misinfo-icon"

type glyph struct {
	icon  string
	color string
}

var glyphs = map[models.Status]glyph{
	models.StatusVerified:   {"✅", "#17bf63"},
	models.StatusMisleading: {"❌", "#e0245e"},
	models.StatusCaution:    {"⚠️", "#ffad1f"},
	models.StatusError:      {"❓", "#1da1f2"},
}

var unknown = glyph{"❔", "gray"}

// Glyph returns the icon shown for status.
func Glyph(status models.Status) string {
	if g, ok := glyphs[status]; ok {
		return g.icon
	}
	return unknown.icon
}

// Tooltip returns the hover text for a result.
func Tooltip(res models.AnalysisResult) string {
	if res.Status == models.StatusError {
		return "MisInfo Guard Error: " + res.Reason
	}
	return "MisInfo Guard: " + res.Reason
}

type Renderer struct {
	log *logger.Logger
}

func New(l *logger.Logger) *Renderer { return &Renderer{log: l} }

// Annotate attaches a glyph for res to anchor. It reports false when the
// anchor already has one or is no longer part of the page.
func (r *Renderer) Annotate(p *page.Page, anchor *html.Node, res models.AnalysisResult) bool {
	var added bool
	_ = p.Mutate(func(doc *goquery.Document) error {
		sel := doc.FindNodes(anchor)
		if sel.Length() == 0 {
			r.log.Debugf("anchor <%s> left the page before its verdict arrived", anchor.Data)
			return nil
		}
		if sel.Find("." + IconClass).Length() > 0 {
			return nil
		}
		span := newGlyph(res)
		if appendsAtEnd(anchor) {
			anchor.AppendChild(span)
		} else {
			var next *html.Node
			if anchor.FirstChild != nil {
				next = anchor.FirstChild.NextSibling
			}
			anchor.InsertBefore(span, next)
		}
		added = true
		return nil
	})
	return added
}

// appendsAtEnd is true for paragraphs and headings; other containers get the
// glyph right after their first child.
func appendsAtEnd(n *html.Node) bool {
	switch n.DataAtom {
	case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func newGlyph(res models.AnalysisResult) *html.Node {
	g, ok := glyphs[res.Status]
	if !ok {
		g = unknown
	}
	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: IconClass},
			{Key: "data-status", Val: string(res.Status)},
			{Key: "title", Val: Tooltip(res)},
			{Key: "style", Val: "color: " + g.color + "; cursor: help; font-size: inherit; margin-left: 4px;"},
		},
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: " " + g.icon})
	return span
}
