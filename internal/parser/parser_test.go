
package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const sampleHTML = `<!doctype html><html lang="en"><head>
<title>Test Page</title>
</head><body>
<h1>Scientists confirm the moon is made of cheese</h1>
<p>Go is great for network services.</p>
</body></html>`

func TestParse(t *testing.T) {
	p := New()
	pg, err := p.Parse(strings.NewReader(sampleHTML), "text/html; charset=utf-8", "https://news.example.com/a")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if pg.Hostname() != "news.example.com" {
		t.Fatalf("want host news.example.com, got %q", pg.Hostname())
	}
	var h1 string
	pg.View(func(doc *goquery.Document) { h1 = doc.Find("h1").Text() })
	if h1 != "Scientists confirm the moon is made of cheese" {
		t.Fatalf("unexpected h1 %q", h1)
	}
}

func TestParseLatin1(t *testing.T) {
	body := "<html><body><p>caf\xe9 au lait</p></body></html>"
	pg, err := New().Parse(strings.NewReader(body), "text/html; charset=iso-8859-1", "https://example.com/")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	var txt string
	pg.View(func(doc *goquery.Document) { txt = doc.Find("p").Text() })
	if txt != "café au lait" {
		t.Fatalf("want decoded text, got %q", txt)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := New().Parse(strings.NewReader(""), "text/html", "https://example.com/"); err == nil {
		t.Fatal("expected error for empty body")
	}
}
