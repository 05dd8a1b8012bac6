
package parser

import (
	"bytes"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"misinfo-guard/internal/page"
)

// ErrEmptyDocument is returned when the body holds no bytes at all.
var ErrEmptyDocument = errors.New("empty document")

type Parser struct{}

func New() *Parser { return &Parser{} }

// Parse decodes r to UTF-8 using the declared content type and any in-document
// hints, then starts a page session for pageURL.
func (p *Parser) Parse(r io.Reader, contentType, pageURL string) (*page.Page, error) {
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return nil, err
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return nil, err
	}
	return page.New(doc, pageURL), nil
}
