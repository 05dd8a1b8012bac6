package page

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostname(t *testing.T) {
	p := Blank("https://X.com/home")
	assert.Equal(t, "x.com", p.Hostname())
	assert.Equal(t, "", Blank("::bad").Hostname())
}

func TestObserveCoalesces(t *testing.T) {
	p := Blank("https://example.com/")
	ch, cancel := p.Observe()
	defer cancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Mutate(func(doc *goquery.Document) error {
			doc.Find("body").AppendHtml("<p>x</p>")
			return nil
		}))
	}
	<-ch
	select {
	case <-ch:
		t.Fatal("expected a single coalesced signal")
	default:
	}

	var n int
	p.View(func(doc *goquery.Document) { n = doc.Find("p").Length() })
	assert.Equal(t, 3, n)
}

func TestObserveCancel(t *testing.T) {
	p := Blank("https://example.com/")
	ch, cancel := p.Observe()
	cancel()
	require.NoError(t, p.Mutate(func(*goquery.Document) error { return nil }))
	select {
	case <-ch:
		t.Fatal("cancelled observer was notified")
	default:
	}
}

func TestHTMLReflectsMutations(t *testing.T) {
	p := Blank("https://example.com/")
	require.NoError(t, p.Mutate(func(doc *goquery.Document) error {
		doc.Find("body").AppendHtml(`<p id="x">hi</p>`)
		return nil
	}))
	out, err := p.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, `<body><p id="x">hi</p></body>`)
}
