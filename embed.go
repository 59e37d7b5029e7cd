package bluesky

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// maxImageBytes is the service's hard limit on a single uploaded image. The
// bound is inclusive; exceeding it fails the publish, nothing is truncated.
const maxImageBytes = 1_000_000

// buildImagesEmbed uploads the given images in input order and assembles a
// gallery embed whose order matches the input. An empty slice yields a valid
// embed with zero images.
func (c *Client) buildImagesEmbed(ctx context.Context, session *Session, images []Image) (*imagesEmbed, error) {
	items := make([]galleryImage, 0, len(images))

	for i, img := range images {
		blob, err := c.uploadImage(ctx, session, img.Content, img.MimeType)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}

		item := galleryImage{Image: blob, Alt: img.Alt}
		if img.Width > 0 && img.Height > 0 {
			item.AspectRatio = &aspectRatio{Width: img.Width, Height: img.Height}
		}
		items = append(items, item)
	}

	return &imagesEmbed{Type: embedTypeImages, Images: items}, nil
}

// buildExternalEmbed fetches page metadata for pageURL and assembles a
// link-preview card. When the page declares an image, the image is fetched
// and uploaded as the card thumbnail; any failure along the way fails the
// whole publish rather than silently degrading to a thumbnail-less card.
func (c *Client) buildExternalEmbed(ctx context.Context, session *Session, pageURL string) (*externalEmbed, error) {
	meta, err := c.metadata.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata for %s: %w", pageURL, err)
	}

	card := externalCard{
		URI:         pageURL,
		Title:       meta.Title,
		Description: meta.Description,
	}

	if len(meta.Images) > 0 {
		imageURL := strings.TrimSpace(meta.Images[0])
		if imageURL != "" {
			thumb, err := c.uploadThumbnail(ctx, session, pageURL, imageURL)
			if err != nil {
				return nil, err
			}
			card.Thumb = thumb
			c.logger.Debug("card thumbnail uploaded", "image", imageURL)
		}
	}

	return &externalEmbed{Type: embedTypeExternal, External: card}, nil
}

// uploadThumbnail fetches an image discovered in page metadata and uploads it
// through the shared image routine. Relative image URLs are resolved against
// the page URL; the MIME type comes from the image URL's file extension.
func (c *Client) uploadThumbnail(ctx context.Context, session *Session, pageURL, imageURL string) (*BlobRef, error) {
	resolved, err := resolveImageURL(pageURL, imageURL)
	if err != nil {
		return nil, fmt.Errorf("resolve thumbnail url %q: %w", imageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch thumbnail %s: %w", resolved, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: "thumbnail fetch: " + resolved}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read thumbnail %s: %w", resolved, err)
	}

	thumb, err := c.uploadImage(ctx, session, data, mimeTypeFromURL(resolved))
	if err != nil {
		return nil, fmt.Errorf("thumbnail %s: %w", resolved, err)
	}
	return thumb, nil
}

// uploadImage validates image content and uploads it as a blob. The returned
// reference always carries the literal "blob" discriminator, regardless of
// how the upload response tagged it.
func (c *Client) uploadImage(ctx context.Context, session *Session, data []byte, mimeType string) (*BlobRef, error) {
	if len(data) == 0 {
		return nil, ErrImageEmpty
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("%w: %d bytes maximum, got %d", ErrImageTooLarge, maxImageBytes, len(data))
	}

	blob, err := c.uploader.UploadBlob(ctx, session.AccessJwt, data, mimeType)
	if err != nil {
		return nil, err
	}

	blob.Type = blobType
	return blob, nil
}

// resolveImageURL makes an image URL absolute against the page it was
// discovered on.
func resolveImageURL(pageURL, imageURL string) (string, error) {
	if strings.Contains(imageURL, "://") {
		return imageURL, nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(imageURL)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// mimeTypeFromURL maps the URL's file extension to an image MIME type.
// Unknown or missing extensions fall back to application/octet-stream.
func mimeTypeFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "application/octet-stream"
	}
	return mimeTypeForExtension(path.Ext(u.Path))
}

func mimeTypeForExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".avif":
		return "image/avif"
	case ".heic":
		return "image/heic"
	case ".bmp":
		return "image/bmp"
	case ".ico", ".icon":
		return "image/x-icon"
	default:
		return "application/octet-stream"
	}
}
