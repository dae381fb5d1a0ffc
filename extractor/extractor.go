// Package extractor pulls SEO and social metadata out of an HTML document.
package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"

	"github.com/seo-optimizer/metacheck/seo"
)

// DefaultFavicon is used when the document declares no icon link.
const DefaultFavicon = "/favicon.ico"

// Extract parses html and returns its metadata. It never fails: markup that
// cannot be parsed yields an empty record with the default favicon.
func Extract(html string, sourceURL string) seo.Metadata {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return seo.Metadata{
			Keywords: []string{},
			Favicon:  ResolveFavicon(DefaultFavicon, sourceURL),
		}
	}
	return FromDocument(doc, sourceURL)
}

// FromDocument extracts metadata from an already parsed document.
func FromDocument(doc *goquery.Document, sourceURL string) seo.Metadata {
	title := metaContent(doc, "title")
	if title == "" {
		title = documentTitle(doc)
	}

	return seo.Metadata{
		Title:              title,
		Description:        metaContent(doc, "description"),
		Keywords:           splitKeywords(metaContent(doc, "keywords")),
		OGTitle:            metaContent(doc, "og:title"),
		OGDescription:      metaContent(doc, "og:description"),
		OGImage:            metaContent(doc, "og:image"),
		TwitterCard:        metaContent(doc, "twitter:card"),
		TwitterTitle:       metaContent(doc, "twitter:title"),
		TwitterDescription: metaContent(doc, "twitter:description"),
		TwitterImage:       metaContent(doc, "twitter:image"),
		Canonical:          firstAttr(doc, `link[rel="canonical"]`, "href"),
		Robots:             metaContent(doc, "robots"),
		Viewport:           metaContent(doc, "viewport"),
		Charset:            firstAttr(doc, "meta[charset]", "charset"),
		Language:           firstAttr(doc, "html", "lang"),
		Author:             metaContent(doc, "author"),
		Favicon:            favicon(doc, sourceURL),
	}
}

// metaContent returns the content of the first meta tag whose name or
// property equals key.
func metaContent(doc *goquery.Document, key string) string {
	selector := `meta[name="` + key + `"], meta[property="` + key + `"]`
	return firstAttr(doc, selector, "content")
}

func firstAttr(doc *goquery.Document, selector, attr string) string {
	val, _ := doc.Find(selector).First().Attr(attr)
	return val
}

// documentTitle mirrors document.title: the first <title> with ASCII
// whitespace stripped and collapsed. Other spaces such as U+00A0 are kept.
func documentTitle(doc *goquery.Document) string {
	return strings.Join(strings.FieldsFunc(doc.Find("title").First().Text(), isASCIISpace), " ")
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

func splitKeywords(raw string) []string {
	return lo.FilterMap(strings.Split(raw, ","), func(k string, _ int) (string, bool) {
		k = strings.TrimSpace(k)
		return k, k != ""
	})
}

func favicon(doc *goquery.Document, sourceURL string) string {
	href := firstAttr(doc, `link[rel="icon"], link[rel="shortcut icon"]`, "href")
	if href == "" {
		href = DefaultFavicon
	}
	return ResolveFavicon(href, sourceURL)
}

// ResolveFavicon returns href unchanged when it already starts with http,
// otherwise resolves it against the origin of sourceURL. A sourceURL that is
// not absolute leaves href unresolved.
func ResolveFavicon(href, sourceURL string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}

	base, err := url.Parse(sourceURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}

	origin := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}
	return origin.ResolveReference(ref).String()
}
