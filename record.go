package bluesky

import (
	"fmt"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

// Lexicon identifiers for the record types and $type discriminators this
// client produces. The service re-parses records against these exact strings.
const (
	postCollection = "app.bsky.feed.post"

	featureTypeLink    = "app.bsky.richtext.facet#link"
	featureTypeMention = "app.bsky.richtext.facet#mention"
	featureTypeTag     = "app.bsky.richtext.facet#tag"

	embedTypeExternal = "app.bsky.embed.external"
	embedTypeImages   = "app.bsky.embed.images"

	blobType = "blob"
)

// Session is a bearer credential plus the account's repository DID, as
// returned by com.atproto.server.createSession.
type Session struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
}

// BlobRef references an uploaded blob by content link, MIME type, and size.
// Type is always the literal "blob" on the wire; it is set when the outbound
// payload is constructed, never taken from the upload response.
type BlobRef struct {
	Type     string   `json:"$type"`
	Ref      BlobLink `json:"ref"`
	MimeType string   `json:"mimeType"`
	Size     int64    `json:"size"`
}

// BlobLink is the content-addressed link inside a blob reference.
type BlobLink struct {
	Link string `json:"$link"`
}

// postRecord is the app.bsky.feed.post record body. Optional fields are
// omitted from the payload entirely rather than serialized as null.
type postRecord struct {
	Type      string   `json:"$type"`
	Text      string   `json:"text"`
	CreatedAt string   `json:"createdAt"`
	Langs     []string `json:"langs"`
	Facets    []*facet `json:"facets"`
	Embed     embed    `json:"embed,omitempty"`
}

// createRecordRequest is the body of com.atproto.repo.createRecord.
type createRecordRequest struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	Record     any    `json:"record"`
}

// facet annotates a byte range of the post text with one or more features.
// Byte offsets index into the UTF-8 encoding of the exact submitted text.
type facet struct {
	Index    byteSlice      `json:"index"`
	Features []facetFeature `json:"features"`
}

type byteSlice struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

// facetFeature is a closed sum over the three feature kinds. Each concrete
// feature carries its $type discriminator as a field so the literal string is
// emitted on the wire.
type facetFeature interface {
	isFacetFeature()
}

type linkFeature struct {
	Type string `json:"$type"`
	URI  string `json:"uri"`
}

func (*linkFeature) isFacetFeature() {}

// mentionFeature starts out holding the raw @handle from the text and is
// invalid for submission until resolveDID replaces it with a DID.
type mentionFeature struct {
	Type string `json:"$type"`
	DID  string `json:"did"`

	handle string
}

func (*mentionFeature) isFacetFeature() {}

// resolveDID finalizes the mention with a resolved identifier. The value must
// be a well-formed DID; an empty or malformed value is rejected so an
// unresolved mention can never reach the service.
func (m *mentionFeature) resolveDID(did string) error {
	if _, err := syntax.ParseDID(did); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDID, did)
	}
	m.DID = did
	return nil
}

func (m *mentionFeature) resolved() bool {
	_, err := syntax.ParseDID(m.DID)
	return err == nil
}

type tagFeature struct {
	Type string `json:"$type"`
	Tag  string `json:"tag"`
}

func (*tagFeature) isFacetFeature() {}

// embed is a closed sum over the two embed kinds. A post carries exactly one
// embed or none.
type embed interface {
	isEmbed()
}

// externalEmbed is a link-preview card.
type externalEmbed struct {
	Type     string       `json:"$type"`
	External externalCard `json:"external"`
}

func (*externalEmbed) isEmbed() {}

type externalCard struct {
	URI         string   `json:"uri"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Thumb       *BlobRef `json:"thumb,omitempty"`
}

// imagesEmbed is a gallery of up to four uploaded images.
type imagesEmbed struct {
	Type   string         `json:"$type"`
	Images []galleryImage `json:"images"`
}

func (*imagesEmbed) isEmbed() {}

type galleryImage struct {
	Image       *BlobRef     `json:"image"`
	Alt         string       `json:"alt"`
	AspectRatio *aspectRatio `json:"aspectRatio,omitempty"`
}

type aspectRatio struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
