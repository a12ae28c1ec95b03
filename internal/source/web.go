// Package source acquires raw text from documents and the web: HTTP pages,
// sitemaps, PDF and DOCX files, markdown and GitHub-hosted docs. Each
// acquisition path yields plain text plus a content-type hint; chunking and
// indexing happen elsewhere.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const userAgent = "Mozilla/5.0 (compatible; ragd/1.0; +http://localhost)"

// Content is one acquired unit of text.
type Content struct {
	Text        string
	ContentType string
	Title       string
	Size        int64 // bytes consumed from the source
	Truncated   bool
}

// WebFetcher downloads pages with a request timeout and a byte ceiling.
// Reads stream and stop once the ceiling is crossed, so an oversized page
// yields truncated text instead of unbounded memory use.
type WebFetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// NewWebFetcher creates a fetcher honoring the given per-request timeout
// and maximum body size.
func NewWebFetcher(timeout time.Duration, maxBytes int64, logger *slog.Logger) *WebFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Fetch downloads a URL and extracts its text. HTML pages are reduced to
// their main textual content and page title; other content types pass
// through as-is.
func (f *WebFetcher) Fetch(ctx context.Context, url string) (*Content, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	// Read one byte past the ceiling to detect truncation.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	truncated := int64(len(body)) > f.maxBytes
	if truncated {
		body = body[:f.maxBytes]
		f.logger.Warn("content exceeds size ceiling, truncating",
			"url", url, "limit_bytes", f.maxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	content := &Content{
		ContentType: contentType,
		Title:       url,
		Size:        int64(len(body)),
		Truncated:   truncated,
	}

	if strings.Contains(strings.ToLower(contentType), "text/html") {
		title, text := extractHTML(body)
		if title != "" {
			content.Title = title
		}
		content.Text = text
	} else {
		content.Text = string(body)
	}

	return content, nil
}

// skipElements are stripped before text extraction.
var skipElements = map[string]struct{}{
	"script": {}, "style": {}, "header": {}, "footer": {}, "nav": {},
	"aside": {}, "form": {}, "button": {}, "input": {}, "select": {},
	"textarea": {}, "noscript": {},
}

// blockElements separate text with blank lines.
var blockElements = map[string]struct{}{
	"p": {}, "div": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {},
	"h6": {}, "li": {}, "tr": {}, "br": {}, "section": {}, "article": {},
	"blockquote": {}, "pre": {},
}

// extractHTML pulls the page title and visible text from an HTML document,
// preferring <main> or <article> over the whole body.
func extractHTML(body []byte) (title, text string) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", string(body)
	}

	if node := findElement(doc, "title"); node != nil {
		title = strings.TrimSpace(nodeText(node))
	}

	root := findElement(doc, "main")
	if root == nil {
		root = findElement(doc, "article")
	}
	if root == nil {
		root = findElement(doc, "body")
	}
	if root == nil {
		root = doc
	}

	var b strings.Builder
	collectText(root, &b)
	return title, strings.TrimSpace(b.String())
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		if _, skip := skipElements[n.Data]; skip {
			return
		}
	}
	if n.Type == html.TextNode {
		if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
			b.WriteString(trimmed)
			b.WriteByte(' ')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
	if n.Type == html.ElementNode {
		if _, block := blockElements[n.Data]; block {
			b.WriteString("\n\n")
		}
	}
}
