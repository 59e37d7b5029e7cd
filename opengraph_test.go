package bluesky

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseMetadataOpenGraphTags(t *testing.T) {
	t.Parallel()

	page := `<html><head>
		<title>Fallback title</title>
		<meta property="og:title" content="OG Title &amp; More" />
		<meta property="og:description" content="A fine description" />
		<meta property="og:image" content="https://cdn.example/cover.png" />
		<meta property="og:image" content="https://cdn.example/alt.png" />
	</head></html>`

	meta := parseMetadata(page)
	if meta.Title != "OG Title & More" {
		t.Errorf("title: got %q, want %q", meta.Title, "OG Title & More")
	}
	if meta.Description != "A fine description" {
		t.Errorf("description: got %q", meta.Description)
	}
	if len(meta.Images) != 2 || meta.Images[0] != "https://cdn.example/cover.png" {
		t.Errorf("images: got %v", meta.Images)
	}
}

func TestParseMetadataReversedAttributeOrder(t *testing.T) {
	t.Parallel()

	page := `<meta content="Reversed" property="og:title" />
		<meta content="Reversed desc" property="og:description" />
		<meta content="/rel.jpg" property="og:image" />`

	meta := parseMetadata(page)
	if meta.Title != "Reversed" {
		t.Errorf("title: got %q", meta.Title)
	}
	if meta.Description != "Reversed desc" {
		t.Errorf("description: got %q", meta.Description)
	}
	if len(meta.Images) != 1 || meta.Images[0] != "/rel.jpg" {
		t.Errorf("images: got %v", meta.Images)
	}
}

func TestParseMetadataFallbacks(t *testing.T) {
	t.Parallel()

	page := `<html><head>
		<title> Plain Title </title>
		<meta name="description" content="Plain description" />
	</head></html>`

	meta := parseMetadata(page)
	if meta.Title != "Plain Title" {
		t.Errorf("title: got %q, want %q", meta.Title, "Plain Title")
	}
	if meta.Description != "Plain description" {
		t.Errorf("description: got %q", meta.Description)
	}
	if len(meta.Images) != 0 {
		t.Errorf("images: got %v, want none", meta.Images)
	}
}

func TestOpenGraphFetcher(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/html" {
			t.Errorf("accept header: got %q", got)
		}
		w.Write([]byte(`<meta property="og:title" content="Served" />`))
	}))
	defer server.Close()

	fetcher := &OpenGraphFetcher{HTTPClient: server.Client()}
	meta, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if meta.Title != "Served" {
		t.Errorf("title: got %q, want Served", meta.Title)
	}
}

func TestOpenGraphFetcherNonSuccessStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	fetcher := &OpenGraphFetcher{HTTPClient: server.Client()}
	_, err := fetcher.Fetch(context.Background(), server.URL)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Fetch: got %v, want APIError 404", err)
	}
}
