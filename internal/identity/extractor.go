// Package identity derives and matches actor identifiers. The scraper hands
// us profile URLs and raw urns that name the same person in different ways
// across sessions; everything here exists to collapse that into at most two
// identifier slots per actor.
package identity

import (
	"strings"
)

const (
	// memberIDPrefix marks the platform's opaque internal member ids,
	// e.g. "ACoAAB1v9y0B...". Anything else in the /in/ path segment is a
	// human-chosen vanity handle.
	memberIDPrefix = "ACoA"

	// personPathMarker precedes the identifier segment in person profile URLs.
	personPathMarker = "/in/"
)

// organizationPathMarkers identify profile URLs that belong to organizational
// entities rather than people. These cannot be enriched by the person-detail
// provider.
var organizationPathMarkers = []string{"/company/", "/school/", "/showcase/"}

// IsMemberID reports whether the value has the opaque internal member id shape.
func IsMemberID(value string) bool {
	return strings.HasPrefix(value, memberIDPrefix)
}

// IsOrganizationURL reports whether the profile URL points at an
// organizational entity instead of a person.
func IsOrganizationURL(profileURL string) bool {
	for _, marker := range organizationPathMarkers {
		if strings.Contains(profileURL, marker) {
			return true
		}
	}
	return false
}

// HandleFromURL extracts the path segment following the person marker, up to
// the next "/" or "?". Returns "" when the URL has no person segment.
func HandleFromURL(profileURL string) string {
	idx := strings.Index(profileURL, personPathMarker)
	if idx < 0 {
		return ""
	}

	handle := profileURL[idx+len(personPathMarker):]
	if end := strings.IndexAny(handle, "/?"); end >= 0 {
		handle = handle[:end]
	}
	return handle
}

// Extract derives the member id (primary identifier) and public handle
// (secondary identifier) from a raw actor reference. Either or both results
// may be empty; absent identifiers are a normal outcome and never an error.
//
// Classification order:
//  1. A URL-derived segment with the member id shape fills the member slot,
//     otherwise it fills the handle slot.
//  2. A raw urn with the member id shape fills a still-empty member slot.
//  3. A raw urn that is neither a URL nor empty falls back to the handle slot.
func Extract(profileURL, rawURN string) (memberID, publicHandle string) {
	if handle := HandleFromURL(profileURL); handle != "" {
		if IsMemberID(handle) {
			memberID = handle
		} else {
			publicHandle = handle
		}
	}

	if memberID == "" && rawURN != "" && IsMemberID(rawURN) {
		memberID = rawURN
	}

	if memberID == "" && publicHandle == "" && rawURN != "" && !strings.Contains(rawURN, "://") {
		publicHandle = rawURN
	}

	return memberID, publicHandle
}

// LookupKey derives the best external lookup key for enrichment: the
// URL-derived handle when present, otherwise a raw urn that already has the
// member id shape. Returns "" when the actor has no usable key.
func LookupKey(profileURL, rawURN string) string {
	if handle := HandleFromURL(profileURL); handle != "" {
		return handle
	}
	if IsMemberID(rawURN) {
		return rawURN
	}
	return ""
}
