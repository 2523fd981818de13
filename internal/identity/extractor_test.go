package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name         string
		profileURL   string
		rawURN       string
		wantMemberID string
		wantHandle   string
	}{
		{
			name:         "member id in URL path",
			profileURL:   "https://www.linkedin.com/in/ACoAjanedoe123",
			wantMemberID: "ACoAjanedoe123",
		},
		{
			name:       "vanity handle in URL path",
			profileURL: "https://www.linkedin.com/in/jane-doe-eng",
			wantHandle: "jane-doe-eng",
		},
		{
			name:       "handle terminated by slash",
			profileURL: "https://www.linkedin.com/in/jane-doe-eng/details/",
			wantHandle: "jane-doe-eng",
		},
		{
			name:       "handle terminated by query string",
			profileURL: "https://www.linkedin.com/in/jane-doe-eng?miniProfileUrn=xyz",
			wantHandle: "jane-doe-eng",
		},
		{
			name:         "vanity URL plus member-shaped raw urn",
			profileURL:   "https://www.linkedin.com/in/jane-doe-eng",
			rawURN:       "ACoAjanedoe123",
			wantMemberID: "ACoAjanedoe123",
			wantHandle:   "jane-doe-eng",
		},
		{
			name:         "no URL, member-shaped raw urn",
			rawURN:       "ACoAjanedoe123",
			wantMemberID: "ACoAjanedoe123",
		},
		{
			name:       "no URL, plain raw urn falls back to handle slot",
			rawURN:     "jane-doe-eng",
			wantHandle: "jane-doe-eng",
		},
		{
			name:   "no URL, raw urn that is itself a URL is ignored",
			rawURN: "https://www.linkedin.com/feed/",
		},
		{
			name:       "URL without person segment",
			profileURL: "https://www.linkedin.com/company/acme",
		},
		{
			name: "nothing usable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memberID, handle := Extract(tt.profileURL, tt.rawURN)
			assert.Equal(t, tt.wantMemberID, memberID)
			assert.Equal(t, tt.wantHandle, handle)
		})
	}
}

func TestIsMemberID(t *testing.T) {
	assert.True(t, IsMemberID("ACoAjanedoe123"))
	assert.False(t, IsMemberID("jane-doe-eng"))
	assert.False(t, IsMemberID(""))
}

func TestIsOrganizationURL(t *testing.T) {
	assert.True(t, IsOrganizationURL("https://www.linkedin.com/company/acme"))
	assert.True(t, IsOrganizationURL("https://www.linkedin.com/school/mit"))
	assert.True(t, IsOrganizationURL("https://www.linkedin.com/showcase/acme-cloud"))
	assert.False(t, IsOrganizationURL("https://www.linkedin.com/in/jane-doe-eng"))
}

func TestLookupKey(t *testing.T) {
	t.Run("prefers URL-derived handle", func(t *testing.T) {
		assert.Equal(t, "jane-doe-eng", LookupKey("https://www.linkedin.com/in/jane-doe-eng", "ACoAjanedoe123"))
	})

	t.Run("falls back to member-shaped urn", func(t *testing.T) {
		assert.Equal(t, "ACoAjanedoe123", LookupKey("", "ACoAjanedoe123"))
	})

	t.Run("empty when neither is usable", func(t *testing.T) {
		assert.Equal(t, "", LookupKey("", "jane-doe-eng"))
	})
}
