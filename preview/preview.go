// Package preview builds the search result and social share cards for a
// metadata record. Missing tags become placeholder text, never errors.
package preview

import (
	"net/url"

	"github.com/seo-optimizer/metacheck/seo"
)

// Platform keys used by the presentation layer.
const (
	Google   = "google"
	Facebook = "facebook"
	Twitter  = "twitter"
)

const (
	titleNotFound              = "Title tag not found"
	descriptionNotFound        = "Meta description not found"
	openGraphNotFound          = "Open Graph tags (og:title, og:description, og:image) not found. Add them for a better Facebook preview."
	ogImageNotFound            = "og:image not found"
	ogTitleNotFound            = "og:title not found"
	ogDescriptionNotFound      = "og:description not found"
	twitterCardNotFound        = "Twitter Card tags (e.g., twitter:title, twitter:description, twitter:image) not found. Add them for a better Twitter preview."
	twitterImageNotFound       = "twitter:image not found"
	twitterTitleNotFound       = "twitter:title not found"
	twitterDescriptionNotFound = "twitter:description not found"
)

// Text is a rendered value. Missing is set when Value is placeholder text.
type Text struct {
	Value   string `json:"value"`
	Missing bool   `json:"missing"`
}

// Card is one platform preview. When Available is false only Placeholder is set.
type Card struct {
	Platform    string `json:"platform"`
	Available   bool   `json:"available"`
	Placeholder string `json:"placeholder,omitempty"`
	Title       Text   `json:"title"`
	Description Text   `json:"description"`
	Image       Text   `json:"image"`
	Domain      string `json:"domain"`
}

// Previews groups the three cards.
type Previews struct {
	Google   Card `json:"google"`
	Facebook Card `json:"facebook"`
	Twitter  Card `json:"twitter"`
}

// Get returns the card for a platform key.
func (p Previews) Get(platform string) (Card, bool) {
	switch platform {
	case Google:
		return p.Google, true
	case Facebook:
		return p.Facebook, true
	case Twitter:
		return p.Twitter, true
	}
	return Card{}, false
}

// Build renders all previews. baseURL stands in for the canonical URL when
// the page declares none.
func Build(m seo.Metadata, baseURL string) Previews {
	return Previews{
		Google:   googleCard(m, baseURL),
		Facebook: facebookCard(m, baseURL),
		Twitter:  twitterCard(m, baseURL),
	}
}

func googleCard(m seo.Metadata, baseURL string) Card {
	displayURL := m.Canonical
	if displayURL == "" {
		displayURL = hostname(baseURL)
	}
	return Card{
		Platform:    Google,
		Available:   true,
		Title:       text(titleNotFound, m.Title),
		Description: text(descriptionNotFound, m.Description),
		Domain:      displayURL,
	}
}

func facebookCard(m seo.Metadata, baseURL string) Card {
	if m.OGTitle == "" && m.OGDescription == "" && m.OGImage == "" {
		return Card{Platform: Facebook, Placeholder: openGraphNotFound}
	}
	return Card{
		Platform:    Facebook,
		Available:   true,
		Title:       text(ogTitleNotFound, m.OGTitle, m.Title),
		Description: text(ogDescriptionNotFound, m.OGDescription, m.Description),
		Image:       text(ogImageNotFound, m.OGImage),
		Domain:      hostname(first(m.Canonical, baseURL)),
	}
}

func twitterCard(m seo.Metadata, baseURL string) Card {
	if m.TwitterTitle == "" && m.TwitterDescription == "" && m.TwitterImage == "" && m.TwitterCard == "" {
		return Card{Platform: Twitter, Placeholder: twitterCardNotFound}
	}
	return Card{
		Platform:    Twitter,
		Available:   true,
		Title:       text(twitterTitleNotFound, m.TwitterTitle, m.Title),
		Description: text(twitterDescriptionNotFound, m.TwitterDescription, m.Description),
		Image:       text(twitterImageNotFound, m.TwitterImage),
		Domain:      hostname(first(m.Canonical, baseURL)),
	}
}

// text picks the first non-empty candidate, falling back to the placeholder.
func text(placeholder string, candidates ...string) Text {
	if v := first(candidates...); v != "" {
		return Text{Value: v}
	}
	return Text{Value: placeholder, Missing: true}
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// hostname returns the host part of raw, or raw itself when it does not parse
// as an absolute URL.
func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
