package bluesky

// Post is everything needed for one publish call. Construct it once, pass it
// to Client.Publish; it is not reused across calls.
type Post struct {
	// Text is the post body. Links, mentions, and hashtags found in it are
	// annotated as facets.
	Text string

	// URL, when set, is used for the link-preview card instead of the first
	// link found in Text.
	URL string

	// Images attaches an image gallery. When any image is present the gallery
	// takes priority and no link card is generated.
	Images []Image

	// Langs overrides the client's configured languages for this post.
	Langs []string

	// DisableLinkCard suppresses link-preview card generation. The zero value
	// keeps the default behavior of generating a card when a URL is available.
	DisableLinkCard bool
}

// Image is a caller-supplied image attachment.
type Image struct {
	// Content is the raw image bytes. Must be non-empty and at most
	// 1,000,000 bytes.
	Content []byte

	// MimeType is the declared image MIME type, e.g. "image/jpeg".
	MimeType string

	// Alt is the image's alt text.
	Alt string

	// Width and Height, when both are positive, are sent as an aspect-ratio
	// hint for the gallery entry.
	Width  int
	Height int
}
