package analyzer

import (
	"unicode/utf16"

	"github.com/seo-optimizer/metacheck/seo"
)

const (
	minTitleLength       = 30
	maxTitleLength       = 60
	minDescriptionLength = 120
	maxDescriptionLength = 160

	errorPenalty   = 15
	warningPenalty = 5
)

const (
	openGraphRecommendation   = "Add Open Graph meta tags for better social media sharing"
	twitterCardRecommendation = "Add Twitter Card meta tags for better Twitter sharing"
)

// Analyze scores a metadata record. It is deterministic and performs no I/O.
// Issues and recommendations are returned in rule evaluation order.
func Analyze(m seo.Metadata) seo.Analysis {
	issues := make([]seo.Issue, 0, 5)
	recommendations := make([]string, 0, 2)

	// Title
	if m.Title == "" {
		issues = append(issues, seo.Issue{Type: seo.SeverityError, Message: "Missing title tag", Field: seo.FieldTitle})
	} else if outside(m.Title, minTitleLength, maxTitleLength) {
		issues = append(issues, seo.Issue{
			Type:    seo.SeverityWarning,
			Message: "Title length should be between 30-60 characters",
			Field:   seo.FieldTitle,
		})
	}

	// Description
	if m.Description == "" {
		issues = append(issues, seo.Issue{Type: seo.SeverityError, Message: "Missing meta description", Field: seo.FieldDescription})
	} else if outside(m.Description, minDescriptionLength, maxDescriptionLength) {
		issues = append(issues, seo.Issue{
			Type:    seo.SeverityWarning,
			Message: "Description length should be between 120-160 characters",
			Field:   seo.FieldDescription,
		})
	}

	// Keywords
	if len(m.Keywords) == 0 {
		issues = append(issues, seo.Issue{Type: seo.SeverityWarning, Message: "Missing meta keywords", Field: seo.FieldKeywords})
	}

	// Open Graph. One issue covers all three tags and is attributed to ogTitle.
	if m.OGTitle == "" || m.OGDescription == "" || m.OGImage == "" {
		issues = append(issues, seo.Issue{
			Type:    seo.SeverityWarning,
			Message: "Missing Open Graph meta tags",
			Field:   seo.FieldOGTitle,
		})
		recommendations = append(recommendations, openGraphRecommendation)
	}

	// Twitter Card, attributed to twitterCard.
	if m.TwitterCard == "" || m.TwitterTitle == "" || m.TwitterDescription == "" || m.TwitterImage == "" {
		issues = append(issues, seo.Issue{
			Type:    seo.SeverityWarning,
			Message: "Missing Twitter Card meta tags",
			Field:   seo.FieldTwitterCard,
		})
		recommendations = append(recommendations, twitterCardRecommendation)
	}

	return seo.Analysis{
		Score:           Score(issues),
		Issues:          issues,
		Recommendations: recommendations,
	}
}

// Score starts at 100 and subtracts 15 per error and 5 per warning,
// clamped to [0, 100]. Info issues cost nothing.
func Score(issues []seo.Issue) int {
	score := 100
	for _, issue := range issues {
		switch issue.Type {
		case seo.SeverityError:
			score -= errorPenalty
		case seo.SeverityWarning:
			score -= warningPenalty
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func outside(s string, lower, upper int) bool {
	n := textLength(s)
	return n < lower || n > upper
}

// textLength counts UTF-16 code units, the length browsers report for a
// string. Characters outside the Basic Multilingual Plane count twice.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
