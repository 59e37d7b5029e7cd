package bluesky

import (
	"regexp"
	"strings"
)

// Patterns for the three facet kinds. These intentionally match the loose
// shapes the service itself linkifies: a scheme followed by non-whitespace,
// an @ followed by dot-separated word segments (domain-style handles), and a
// # followed by word characters.
var (
	linkPattern    = regexp.MustCompile(`https?://\S+`)
	mentionPattern = regexp.MustCompile(`@\w+(?:\.\w+)*`)
	tagPattern     = regexp.MustCompile(`#\w+`)
)

// extractFacets scans post text for links, mentions, and hashtags and emits
// one facet per match, links first, then mentions, then tags.
//
// Match indices from regexp are byte offsets into the string, which for a Go
// string is exactly the UTF-8 byte stream the service re-parses, so they are
// used as facet indices directly. Multi-byte code points ahead of a match
// shift its byte range past its rune position, as required.
//
// The three scans are independent: overlapping matches (for example a
// mention whose tail also matches the tag pattern) are all emitted, and the
// service tolerates the overlap.
func extractFacets(text string) []*facet {
	facets := []*facet{}

	for _, m := range linkPattern.FindAllStringIndex(text, -1) {
		facets = append(facets, newFacet(m[0], m[1], &linkFeature{
			Type: featureTypeLink,
			URI:  text[m[0]:m[1]],
		}))
	}

	for _, m := range mentionPattern.FindAllStringIndex(text, -1) {
		facets = append(facets, newFacet(m[0], m[1], &mentionFeature{
			Type:   featureTypeMention,
			handle: text[m[0]:m[1]],
		}))
	}

	for _, m := range tagPattern.FindAllStringIndex(text, -1) {
		facets = append(facets, newFacet(m[0], m[1], &tagFeature{
			Type: featureTypeTag,
			Tag:  strings.TrimPrefix(text[m[0]:m[1]], "#"),
		}))
	}

	return facets
}

func newFacet(byteStart, byteEnd int, feature facetFeature) *facet {
	return &facet{
		Index:    byteSlice{ByteStart: byteStart, ByteEnd: byteEnd},
		Features: []facetFeature{feature},
	}
}

// firstLinkURI returns the URI of the first link facet, or "" if there is
// none. Used to pick a card URL when the caller did not supply one.
func firstLinkURI(facets []*facet) string {
	for _, f := range facets {
		for _, feat := range f.Features {
			if link, ok := feat.(*linkFeature); ok {
				return link.URI
			}
		}
	}
	return ""
}
