package bluesky

import "context"

// SessionSource supplies a bearer credential and repository DID for write
// calls. Implementations may cache sessions; each Publish call still gets a
// valid session before any other network request is made.
type SessionSource interface {
	Session(ctx context.Context) (*Session, error)
}

// HandleResolver resolves a handle (with or without a leading @) to a DID.
// A failed lookup is an explicit error, never an empty identifier.
type HandleResolver interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
}

// BlobUploader uploads raw bytes as an authenticated blob and returns a
// content-addressed reference.
type BlobUploader interface {
	UploadBlob(ctx context.Context, accessJwt string, data []byte, mimeType string) (*BlobRef, error)
}

// RecordCreator writes a record into the given repository collection.
type RecordCreator interface {
	CreateRecord(ctx context.Context, accessJwt, repo, collection string, record any) error
}

// PageMetadata is what a MetadataFetcher discovers about a web page.
type PageMetadata struct {
	Title       string
	Description string
	Images      []string
}

// MetadataFetcher extracts link-preview metadata from a web page.
type MetadataFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*PageMetadata, error)
}
