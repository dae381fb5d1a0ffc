package seo

import (
	"fmt"
	"strings"
)

var issueDescriptions = map[string]string{
	"title":              "The title tag is crucial for search engines and users to understand your page content. It should be concise and descriptive, ideally between 30-60 characters.",
	"description":        "Meta descriptions appear in search results and should accurately summarize your page content to encourage clicks. Aim for 120-160 characters.",
	"keywords":           "While less important for ranking today, meta keywords can still help categorize your content for some search engines or internal site search.",
	"ogtitle":            "Open Graph (OG) title controls how your content appears when shared on social media like Facebook. Make it compelling.",
	"ogdescription":      "The OG description provides a summary when shared on social media. It should be engaging and concise.",
	"ogimage":            "An OG image makes your shared content more visually appealing on social platforms, increasing click-through rates.",
	"twittercard":        "Twitter Cards define how your content is displayed on Twitter, enabling rich media experiences.",
	"twittertitle":       "This title is used when your content is shared on Twitter. Keep it concise and relevant.",
	"twitterdescription": "The Twitter description summarizes your content on Twitter. Aim for engaging and informative text.",
	"twitterimage":       "An image specifically for Twitter shares can significantly boost engagement.",
	"canonical":          "A canonical URL specifies the preferred version of a web page, helping to prevent duplicate content issues.",
	"robots":             "The robots meta tag instructs search engine crawlers on how to crawl or index page content.",
	"viewport":           "The viewport meta tag ensures your page is responsive and displays correctly on all devices.",
	"charset":            "Character set declaration ensures proper text rendering across different browsers and languages.",
	"language":           "Declaring the page language helps search engines and browsers understand the content's language.",
	"author":             "Specifying an author can be beneficial for credibility and is sometimes used by search engines.",
	"favicon":            "A favicon is a small icon that represents your website in browser tabs and bookmarks, aiding brand recognition.",
}

// IssueDescription explains why a field matters.
func IssueDescription(field Field, severity Severity) string {
	if desc, ok := issueDescriptions[strings.ToLower(string(field))]; ok {
		return desc
	}
	return fmt.Sprintf("This %s relates to the '%s' field and is important for your site's SEO.", severity, field)
}

const (
	openGraphDetail   = "Ensure OG tags (og:title, og:description, og:image) are present and optimized for platforms like Facebook and LinkedIn."
	twitterCardDetail = "Implement Twitter Card tags (twitter:card, twitter:title, twitter:description, twitter:image) for better appearance on Twitter."
	openGraphMarker   = "open graph"
	twitterCardMarker = "twitter card"
)

// MentionsSocial reports whether a recommendation concerns Open Graph or Twitter Card tags.
func MentionsSocial(recommendation string) bool {
	lower := strings.ToLower(recommendation)
	return strings.Contains(lower, openGraphMarker) || strings.Contains(lower, twitterCardMarker)
}

// RecommendationDetail returns the extended explanation for a recommendation, or "".
func RecommendationDetail(recommendation string) string {
	lower := strings.ToLower(recommendation)
	switch {
	case strings.Contains(lower, openGraphMarker):
		return openGraphDetail
	case strings.Contains(lower, twitterCardMarker):
		return twitterCardDetail
	}
	return ""
}

// ScoreBand buckets a score into good, fair or poor.
func ScoreBand(score int) string {
	switch {
	case score >= 90:
		return "good"
	case score >= 70:
		return "fair"
	default:
		return "poor"
	}
}

// ScoreSummary is a one-line verdict for a score.
func ScoreSummary(score int) string {
	switch {
	case score >= 90:
		return "Excellent! Your website is well-optimized."
	case score >= 70:
		return "Good, but some areas need improvement."
	default:
		return "Needs significant improvement for better SEO."
	}
}
