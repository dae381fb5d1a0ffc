package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seo-optimizer/metacheck/seo"
)

func TestBuildComplete(t *testing.T) {
	m := seo.Metadata{
		Title:              "Page title",
		Description:        "Page description",
		OGTitle:            "OG title",
		OGDescription:      "OG description",
		OGImage:            "https://example.com/og.png",
		TwitterCard:        "summary",
		TwitterTitle:       "Tw title",
		TwitterDescription: "Tw description",
		TwitterImage:       "https://example.com/tw.png",
		Canonical:          "https://www.example.com/article",
	}

	got := Build(m, "https://example.com/article?ref=x")

	assert.Equal(t, Card{
		Platform:    Google,
		Available:   true,
		Title:       Text{Value: "Page title"},
		Description: Text{Value: "Page description"},
		Domain:      "https://www.example.com/article",
	}, got.Google)
	assert.Equal(t, Card{
		Platform:    Facebook,
		Available:   true,
		Title:       Text{Value: "OG title"},
		Description: Text{Value: "OG description"},
		Image:       Text{Value: "https://example.com/og.png"},
		Domain:      "www.example.com",
	}, got.Facebook)
	assert.Equal(t, "Tw title", got.Twitter.Title.Value)
	assert.Equal(t, "www.example.com", got.Twitter.Domain)
}

func TestBuildEmpty(t *testing.T) {
	got := Build(seo.Metadata{}, "https://shop.example.org:8080/p/1")

	assert.True(t, got.Google.Available)
	assert.Equal(t, Text{Value: "Title tag not found", Missing: true}, got.Google.Title)
	assert.Equal(t, Text{Value: "Meta description not found", Missing: true}, got.Google.Description)
	assert.Equal(t, "shop.example.org", got.Google.Domain)

	assert.False(t, got.Facebook.Available)
	assert.Contains(t, got.Facebook.Placeholder, "Open Graph tags")
	assert.False(t, got.Twitter.Available)
	assert.Contains(t, got.Twitter.Placeholder, "Twitter Card tags")
}

func TestBuildFallsBackToPageTags(t *testing.T) {
	m := seo.Metadata{
		Title:       "Page title",
		Description: "Page description",
		OGImage:     "https://example.com/og.png",
		TwitterCard: "summary",
	}

	got := Build(m, "https://example.com/")

	assert.Equal(t, Text{Value: "Page title"}, got.Facebook.Title)
	assert.Equal(t, Text{Value: "Page description"}, got.Facebook.Description)
	assert.Equal(t, "example.com", got.Facebook.Domain)

	assert.True(t, got.Twitter.Available)
	assert.Equal(t, Text{Value: "Page title"}, got.Twitter.Title)
	assert.Equal(t, Text{Value: "twitter:image not found", Missing: true}, got.Twitter.Image)
}

func TestBuildPlaceholdersWithoutPageTags(t *testing.T) {
	got := Build(seo.Metadata{OGImage: "https://example.com/og.png"}, "https://example.com/")

	assert.Equal(t, Text{Value: "og:title not found", Missing: true}, got.Facebook.Title)
	assert.Equal(t, Text{Value: "og:description not found", Missing: true}, got.Facebook.Description)
}

func TestPreviewsGet(t *testing.T) {
	p := Build(seo.Metadata{}, "https://example.com")

	for _, key := range []string{Google, Facebook, Twitter} {
		card, ok := p.Get(key)
		assert.True(t, ok)
		assert.Equal(t, key, card.Platform)
	}
	_, ok := p.Get("linkedin")
	assert.False(t, ok)
}

func TestHostname(t *testing.T) {
	assert.Equal(t, "example.com", hostname("https://example.com:443/x"))
	assert.Equal(t, "not a url", hostname("not a url"))
	assert.Equal(t, "", hostname(""))
}
