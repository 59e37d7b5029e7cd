package bluesky

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// metaReadLimit caps how much of a page is read while looking for metadata.
const metaReadLimit = 1 << 20

// Attribute order varies across sites, so every tag gets two patterns:
// property-then-content and content-then-property.
var (
	ogTitlePattern     = regexp.MustCompile(`<meta[^>]+property=["']og:title["'][^>]+content=["']([^"']+)["']`)
	ogTitlePatternAlt  = regexp.MustCompile(`<meta[^>]+content=["']([^"']+)["'][^>]+property=["']og:title["']`)
	ogDescPattern      = regexp.MustCompile(`<meta[^>]+property=["']og:description["'][^>]+content=["']([^"']+)["']`)
	ogDescPatternAlt   = regexp.MustCompile(`<meta[^>]+content=["']([^"']+)["'][^>]+property=["']og:description["']`)
	ogImagePattern     = regexp.MustCompile(`<meta[^>]+property=["']og:image["'][^>]+content=["']([^"']+)["']`)
	ogImagePatternAlt  = regexp.MustCompile(`<meta[^>]+content=["']([^"']+)["'][^>]+property=["']og:image["']`)
	titlePattern       = regexp.MustCompile(`<title[^>]*>([^<]+)</title>`)
	metaDescPattern    = regexp.MustCompile(`<meta[^>]+name=["']description["'][^>]+content=["']([^"']+)["']`)
	metaDescPatternAlt = regexp.MustCompile(`<meta[^>]+content=["']([^"']+)["'][^>]+name=["']description["']`)
)

// OpenGraphFetcher is the default MetadataFetcher. It scans a page for
// OpenGraph tags, falling back to the document title and meta description.
type OpenGraphFetcher struct {
	// HTTPClient is used for page fetches. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Fetch downloads pageURL and extracts title, description, and image URLs.
func (f *OpenGraphFetcher) Fetch(ctx context.Context, pageURL string) (*PageMetadata, error) {
	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; BlueskyBot/1.0)")
	req.Header.Set("Accept", "text/html")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: "metadata fetch: " + pageURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, metaReadLimit))
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", pageURL, err)
	}

	return parseMetadata(string(body)), nil
}

func parseMetadata(page string) *PageMetadata {
	meta := &PageMetadata{}

	if match := firstSubmatch(page, ogTitlePattern, ogTitlePatternAlt, titlePattern); match != "" {
		meta.Title = cleanMetaText(match)
	}

	if match := firstSubmatch(page, ogDescPattern, ogDescPatternAlt, metaDescPattern, metaDescPatternAlt); match != "" {
		meta.Description = cleanMetaText(match)
	}

	seen := map[string]bool{}
	for _, pattern := range []*regexp.Regexp{ogImagePattern, ogImagePatternAlt} {
		for _, m := range pattern.FindAllStringSubmatch(page, -1) {
			img := html.UnescapeString(m[1])
			if img != "" && !seen[img] {
				meta.Images = append(meta.Images, img)
				seen[img] = true
			}
		}
	}

	return meta
}

func firstSubmatch(page string, patterns ...*regexp.Regexp) string {
	for _, pattern := range patterns {
		if m := pattern.FindStringSubmatch(page); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

func cleanMetaText(s string) string {
	return strings.TrimSpace(html.UnescapeString(s))
}
