// file: internal/news/extractor.go
package news

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	maxArticles       = 5
	minTitleRunes     = 10
	headlineTextLimit = 2000
	contentTextLimit  = 1000
	ellipsis          = "..."
)

// ParseFunc parses an HTML document.
type ParseFunc func(r io.Reader) (*html.Node, error)

// Extractor turns a FetchOutcome into the text returned by fetch_news. Output
// degrades through three tiers: article headlines, then all visible text,
// then the raw body when the document cannot be parsed.
type Extractor struct {
	site  string
	parse ParseFunc
}

// ExtractorOption customises an Extractor.
type ExtractorOption func(*Extractor)

// WithParser replaces html.Parse.
func WithParser(p ParseFunc) ExtractorOption {
	return func(e *Extractor) {
		if p != nil {
			e.parse = p
		}
	}
}

// NewExtractor creates an Extractor that names site in its output.
func NewExtractor(site string, opts ...ExtractorOption) *Extractor {
	e := &Extractor{site: site, parse: html.Parse}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract renders outcome for an already normalized category.
func (e *Extractor) Extract(outcome FetchOutcome, category string) string {
	switch o := outcome.(type) {
	case Success:
		return e.fromBody(o.Body, category)
	case HTTPError:
		return fmt.Sprintf("Failed to fetch news from %s. HTTP Status: %d", e.site, o.StatusCode)
	case Timeout:
		return fmt.Sprintf("Error: Request timeout while fetching %s news", e.site)
	case NetworkError:
		return fmt.Sprintf("Error fetching %s news: %s", e.site, o.Detail)
	case UnexpectedError:
		return "Unexpected error while fetching news: " + o.Detail
	default:
		return fmt.Sprintf("Unexpected error while fetching news: unknown outcome %T", outcome)
	}
}

func (e *Extractor) fromBody(body []byte, category string) string {
	doc, err := e.parse(bytes.NewReader(body))
	if err != nil || doc == nil {
		return truncateRunes(fmt.Sprintf("%s %s content:\n%s", e.site, category, body), contentTextLimit)
	}

	if titles := headlines(doc); len(titles) > 0 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Latest %s %s news:\n\n", e.site, category)
		for i, t := range titles {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString("• ")
			sb.WriteString(t)
		}
		return truncateRunes(sb.String(), headlineTextLimit)
	}

	text := strings.Join(visibleText(doc), " ")
	return truncateRunes(fmt.Sprintf("%s %s news content:\n%s", e.site, category, text), contentTextLimit)
}

// headlines returns the titles of the first maxArticles article containers
// that carry a usable title.
func headlines(doc *html.Node) []string {
	var titles []string
	for _, container := range articleContainers(doc, maxArticles) {
		title := findTitle(container)
		if title == nil {
			continue
		}
		text := strings.Join(visibleText(title), "")
		if utf8.RuneCountInString(text) > minTitleRunes {
			titles = append(titles, text)
		}
	}
	return titles
}

// articleContainers collects up to limit article or div elements whose class
// marks them as a post, in document order. Nested matches count.
func articleContainers(doc *html.Node, limit int) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode &&
			(n.DataAtom == atom.Article || n.DataAtom == atom.Div) &&
			hasClass(n, isArticleClass) {
			found = append(found, n)
			if len(found) == limit {
				return false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)
	return found
}

// findTitle returns the first h1, h2 or h3 below n with a title class.
func findTitle(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode &&
			(c.DataAtom == atom.H1 || c.DataAtom == atom.H2 || c.DataAtom == atom.H3) &&
			hasClass(c, isTitleClass) {
			return c
		}
		if found := findTitle(c); found != nil {
			return found
		}
	}
	return nil
}

// visibleText returns the trimmed, non-empty text nodes under n, skipping
// script, style, template and noscript content.
func visibleText(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				out = append(out, s)
			}
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Template, atom.Noscript:
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// truncateRunes cuts s to limit runes and appends an ellipsis when it cut.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + ellipsis
}
