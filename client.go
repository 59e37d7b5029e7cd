// Package bluesky is a client library for publishing posts to Bluesky or any
// other AT Protocol service. It extracts rich-text facets (links, mentions,
// hashtags) with UTF-8 byte offsets, resolves mentions to DIDs, builds
// link-preview cards or image galleries, and submits the assembled record via
// com.atproto.repo.createRecord.
package bluesky

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultServiceURL is the service used when no base URL is configured.
const DefaultServiceURL = "https://bsky.social"

var defaultLanguages = []string{"en", "en-US"}

// Client publishes posts to an AT Protocol service. Create one with New and
// reuse it; it is safe for concurrent use.
type Client struct {
	languages  []string
	httpClient *http.Client
	logger     *slog.Logger

	sessions SessionSource
	resolver HandleResolver
	uploader BlobUploader
	records  RecordCreator
	metadata MetadataFetcher
}

type options struct {
	serviceURL   string
	languages    []string
	httpClient   *http.Client
	logger       *slog.Logger
	reuseSession bool

	sessions SessionSource
	resolver HandleResolver
	uploader BlobUploader
	records  RecordCreator
	metadata MetadataFetcher
}

// Option configures a Client.
type Option func(*options)

// WithServiceURL points the client at a service other than bsky.social.
func WithServiceURL(serviceURL string) Option {
	return func(o *options) { o.serviceURL = serviceURL }
}

// WithLanguages sets the default language tags attached to posts.
func WithLanguages(langs ...string) Option {
	return func(o *options) { o.languages = langs }
}

// WithHTTPClient replaces the HTTP client used for all outbound requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) { o.httpClient = httpClient }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSessionReuse caches sessions for 90 minutes instead of creating one per
// publish call.
func WithSessionReuse() Option {
	return func(o *options) { o.reuseSession = true }
}

// WithSessionSource replaces the default createSession-backed session source.
func WithSessionSource(s SessionSource) Option {
	return func(o *options) { o.sessions = s }
}

// WithHandleResolver replaces the default resolveHandle-backed resolver.
func WithHandleResolver(r HandleResolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithBlobUploader replaces the default uploadBlob-backed uploader.
func WithBlobUploader(u BlobUploader) Option {
	return func(o *options) { o.uploader = u }
}

// WithRecordCreator replaces the default createRecord-backed writer.
func WithRecordCreator(r RecordCreator) Option {
	return func(o *options) { o.records = r }
}

// WithMetadataFetcher replaces the default OpenGraph metadata fetcher.
func WithMetadataFetcher(m MetadataFetcher) Option {
	return func(o *options) { o.metadata = m }
}

// New creates a Client that authenticates with the given identifier (handle
// or email) and app password.
func New(identifier, password string, opts ...Option) *Client {
	o := options{
		serviceURL: DefaultServiceURL,
		languages:  defaultLanguages,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	api := &xrpcClient{
		baseURL:    strings.TrimRight(o.serviceURL, "/"),
		identifier: identifier,
		password:   password,
		httpClient: o.httpClient,
		logger:     o.logger,
	}

	if o.sessions == nil {
		o.sessions = api
	}
	if o.reuseSession {
		o.sessions = newCachedSessionSource(o.sessions)
	}
	if o.resolver == nil {
		o.resolver = api
	}
	if o.uploader == nil {
		o.uploader = api
	}
	if o.records == nil {
		o.records = api
	}
	if o.metadata == nil {
		o.metadata = &OpenGraphFetcher{HTTPClient: o.httpClient}
	}

	return &Client{
		languages:  o.languages,
		httpClient: o.httpClient,
		logger:     o.logger,
		sessions:   o.sessions,
		resolver:   o.resolver,
		uploader:   o.uploader,
		records:    o.records,
		metadata:   o.metadata,
	}
}

// Post publishes a text-only post. Links found in the text still produce a
// preview card.
func (c *Client) Post(ctx context.Context, text string) error {
	return c.Publish(ctx, Post{Text: text})
}

// PostWithLink publishes a post with a preview card for the given URL.
func (c *Client) PostWithLink(ctx context.Context, text, url string) error {
	return c.Publish(ctx, Post{Text: text, URL: url})
}

// PostWithImages publishes a post with an image gallery.
func (c *Client) PostWithImages(ctx context.Context, text string, images []Image) error {
	return c.Publish(ctx, Post{Text: text, Images: images})
}

// Publish runs the full pipeline for one post: get a session, extract facets,
// resolve mentions, build the embed, and submit the record. It fails fast at
// the first error; nothing is written to the service unless every earlier
// step succeeded.
func (c *Client) Publish(ctx context.Context, post Post) error {
	session, err := c.sessions.Session(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	if session == nil || session.AccessJwt == "" || session.DID == "" {
		return ErrAuthentication
	}

	facets := extractFacets(post.Text)
	if err := c.resolveMentions(ctx, facets); err != nil {
		return err
	}

	embed, err := c.buildEmbed(ctx, session, post, facets)
	if err != nil {
		return err
	}

	langs := post.Langs
	if len(langs) == 0 {
		langs = c.languages
	}

	record := postRecord{
		Type:      postCollection,
		Text:      post.Text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Langs:     langs,
		Facets:    facets,
		Embed:     embed,
	}

	if err := c.records.CreateRecord(ctx, session.AccessJwt, session.DID, postCollection, record); err != nil {
		return err
	}

	c.logger.Info("post published", "repo", session.DID, "facets", len(facets))
	return nil
}

// resolveMentions resolves every mention facet's handle to a DID. A failed
// lookup or a malformed DID aborts the publish; an unresolved mention is
// never submitted.
func (c *Client) resolveMentions(ctx context.Context, facets []*facet) error {
	for _, f := range facets {
		for _, feature := range f.Features {
			mention, ok := feature.(*mentionFeature)
			if !ok {
				continue
			}

			did, err := c.resolver.ResolveHandle(ctx, mention.handle)
			if err != nil {
				return fmt.Errorf("resolve mention %s: %w", mention.handle, err)
			}
			if err := mention.resolveDID(did); err != nil {
				return fmt.Errorf("resolve mention %s: %w", mention.handle, err)
			}
		}
	}
	return nil
}

// buildEmbed picks and builds the post's embed. Images take priority over a
// link card; the card URL is the explicit one if given, otherwise the first
// link facet. No embed is attached when neither is available or card
// generation is disabled.
func (c *Client) buildEmbed(ctx context.Context, session *Session, post Post, facets []*facet) (embed, error) {
	if len(post.Images) > 0 {
		e, err := c.buildImagesEmbed(ctx, session, post.Images)
		if err != nil {
			return nil, err
		}
		return e, nil
	}

	if post.DisableLinkCard {
		return nil, nil
	}

	pageURL := post.URL
	if pageURL == "" {
		pageURL = firstLinkURI(facets)
	}
	if pageURL == "" {
		return nil, nil
	}

	e, err := c.buildExternalEmbed(ctx, session, pageURL)
	if err != nil {
		return nil, err
	}
	return e, nil
}
