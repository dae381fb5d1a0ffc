package analyzer

import "github.com/seo-optimizer/metacheck/seo"

// Category identifies a display bucket.
type Category string

const (
	// CategorySEO covers search engine fields.
	CategorySEO Category = "seo"
	// CategorySMO covers social media (Open Graph, Twitter Card) fields.
	CategorySMO Category = "smo"
)

// Bucket is the per-category slice of an analysis.
type Bucket struct {
	Category        Category    `json:"category"`
	Fields          []seo.Field `json:"fields"`
	Issues          []seo.Issue `json:"issues"`
	Recommendations []string    `json:"recommendations"`
	Passed          int         `json:"passed"`
}

// Categories partitions an analysis into SEO and SMO buckets.
type Categories struct {
	SEO Bucket `json:"seo"`
	SMO Bucket `json:"smo"`
}

// Summary holds the counters shown next to the score.
type Summary struct {
	Score           int    `json:"score"`
	Band            string `json:"band"`
	Verdict         string `json:"verdict"`
	Errors          int    `json:"errors"`
	Warnings        int    `json:"warnings"`
	Infos           int    `json:"infos"`
	Recommendations int    `json:"recommendations"`
}
