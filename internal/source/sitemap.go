package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxSitemapIndexDepth caps how many sitemaps from a sitemap index are
// followed.
const maxSitemapIndexDepth = 5

type sitemapDoc struct {
	XMLName  xml.Name
	Sitemaps []sitemapLoc `xml:"sitemap"`
	URLs     []sitemapLoc `xml:"url"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// SitemapURLs discovers page URLs for a site. It tries the standard
// /sitemap.xml location first, then Sitemap entries in robots.txt, follows
// sitemap indexes up to five sitemaps deep, and returns at most maxURLs
// page URLs. Failures along the way are skipped, not fatal: an unreachable
// sitemap just yields fewer URLs.
func (f *WebFetcher) SitemapURLs(ctx context.Context, baseURL string, maxURLs int) []string {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		f.logger.Warn("cannot derive sitemap location", "url", baseURL, "error", err)
		return nil
	}
	baseDomain := parsed.Scheme + "://" + parsed.Host

	locations := f.discoverSitemaps(ctx, baseDomain)

	var pageURLs []string
	for i := 0; i < len(locations) && len(pageURLs) < maxURLs; i++ {
		body, err := f.fetchRaw(ctx, locations[i])
		if err != nil {
			f.logger.Warn("sitemap fetch failed, skipping", "sitemap", locations[i], "error", err)
			continue
		}

		var doc sitemapDoc
		if err := xml.Unmarshal(body, &doc); err != nil {
			f.logger.Warn("sitemap parse failed, skipping", "sitemap", locations[i], "error", err)
			continue
		}

		// A sitemap index points at further sitemaps; cap how many we chase.
		for _, sm := range doc.Sitemaps {
			if loc := strings.TrimSpace(sm.Loc); loc != "" && len(locations) < maxSitemapIndexDepth {
				locations = append(locations, loc)
			}
		}

		for _, u := range doc.URLs {
			if loc := strings.TrimSpace(u.Loc); loc != "" {
				pageURLs = append(pageURLs, loc)
				if len(pageURLs) >= maxURLs {
					break
				}
			}
		}
	}

	return pageURLs
}

// discoverSitemaps finds candidate sitemap locations: the conventional path
// first, robots.txt entries as fallback.
func (f *WebFetcher) discoverSitemaps(ctx context.Context, baseDomain string) []string {
	standard := baseDomain + "/sitemap.xml"
	if body, err := f.fetchRaw(ctx, standard); err == nil && looksLikeXML(body) {
		return []string{standard}
	}

	body, err := f.fetchRaw(ctx, baseDomain+"/robots.txt")
	if err != nil {
		return nil
	}

	const directive = "sitemap:"
	var locations []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if len(line) < len(directive) || !strings.EqualFold(line[:len(directive)], directive) {
			continue
		}
		// Case-insensitive match on the directive only; the URL keeps its
		// original casing.
		if loc := strings.TrimSpace(line[len(directive):]); loc != "" {
			locations = append(locations, loc)
		}
	}
	return locations
}

// fetchRaw downloads a URL body without text extraction, honoring the
// fetcher's byte ceiling.
func (f *WebFetcher) fetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
}

func looksLikeXML(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "<?xml") || strings.HasPrefix(trimmed, "<")
}
