package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"

	md "github.com/JohannesKaufmann/html-to-markdown"
	readability "github.com/go-shiori/go-readability"

	"github.com/c360studio/codegraph/source"
)

// HTMLParser turns an HTML page into the same Document shape every other
// parser produces: go-readability strips chrome (nav, ads, boilerplate)
// down to the article body, then html-to-markdown converts what's left
// so the rest of the pipeline only ever chunks and embeds markdown-ish
// text, regardless of source format.
type HTMLParser struct {
	converter *md.Converter
}

// NewHTMLParser creates a new HTML parser.
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{converter: md.NewConverter("", true, nil)}
}

// Parse extracts the article body from content and converts it to
// markdown. If readability can't find an article (the page is a
// fragment, not a full document) the raw markup is converted directly.
func (p *HTMLParser) Parse(filename string, content []byte) (*source.Document, error) {
	pageURL, _ := url.Parse("file:///" + filepath.Base(filename))

	article, err := readability.FromReader(bytes.NewReader(content), pageURL)
	if err != nil {
		body, cerr := p.converter.ConvertString(string(content))
		if cerr != nil {
			return nil, fmt.Errorf("convert html: %w", cerr)
		}
		return &source.Document{
			ID:       GenerateDocID("html", filename, content),
			Filename: filepath.Base(filename),
			Content:  string(content),
			Body:     body,
		}, nil
	}

	body, err := p.converter.ConvertString(article.Content)
	if err != nil {
		return nil, fmt.Errorf("convert html: %w", err)
	}

	doc := &source.Document{
		ID:       GenerateDocID("html", filename, content),
		Filename: filepath.Base(filename),
		Content:  string(content),
		Body:     body,
	}
	if article.Title != "" {
		doc.Frontmatter = map[string]any{"title": article.Title}
	}
	if article.Excerpt != "" {
		if doc.Frontmatter == nil {
			doc.Frontmatter = map[string]any{}
		}
		doc.Frontmatter["excerpt"] = article.Excerpt
	}
	return doc, nil
}

// CanParse returns true if this parser can handle the given MIME type.
func (p *HTMLParser) CanParse(mimeType string) bool {
	return mimeType == "text/html"
}

// MimeType returns the primary MIME type for this parser.
func (p *HTMLParser) MimeType() string {
	return "text/html"
}
