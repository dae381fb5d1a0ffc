package analyzer

import (
	"slices"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/seo-optimizer/metacheck/seo"
)

var (
	seoFields = []seo.Field{
		seo.FieldTitle,
		seo.FieldDescription,
		seo.FieldKeywords,
		seo.FieldCanonical,
		seo.FieldRobots,
		seo.FieldViewport,
		seo.FieldCharset,
		seo.FieldLanguage,
		seo.FieldAuthor,
		seo.FieldFavicon,
	}

	smoFields = []seo.Field{
		seo.FieldOGTitle,
		seo.FieldOGDescription,
		seo.FieldOGImage,
		seo.FieldTwitterCard,
		seo.FieldTwitterTitle,
		seo.FieldTwitterDescription,
		seo.FieldTwitterImage,
	}
)

// CategoryOf returns the bucket a field belongs to.
func CategoryOf(f seo.Field) Category {
	if slices.Contains(smoFields, f) {
		return CategorySMO
	}
	return CategorySEO
}

// Categorize splits an analysis into SEO and SMO buckets for display.
// It is a read-only view; the analysis itself is not modified.
func Categorize(m seo.Metadata, a seo.Analysis) Categories {
	return Categories{
		SEO: bucket(CategorySEO, seoFields, m, a),
		SMO: bucket(CategorySMO, smoFields, m, a),
	}
}

func bucket(cat Category, fields []seo.Field, m seo.Metadata, a seo.Analysis) Bucket {
	issues := lo.Filter(a.Issues, func(issue seo.Issue, _ int) bool {
		return slices.Contains(fields, issue.Field)
	})
	recommendations := lo.Filter(a.Recommendations, func(r string, _ int) bool {
		return seo.MentionsSocial(r) == (cat == CategorySMO)
	})

	flagged := lo.SliceToMap(issues, func(issue seo.Issue) (seo.Field, struct{}) {
		return issue.Field, struct{}{}
	})
	passed := lo.CountBy(fields, func(f seo.Field) bool {
		_, bad := flagged[f]
		return !bad && present(m, f)
	})

	return Bucket{
		Category:        cat,
		Fields:          slices.Clone(fields),
		Issues:          issues,
		Recommendations: recommendations,
		Passed:          passed,
	}
}

// present treats whitespace-only strings as empty.
func present(m seo.Metadata, f seo.Field) bool {
	if f == seo.FieldKeywords {
		return len(m.Keywords) > 0
	}
	return strings.TrimSpace(m.Value(f)) != ""
}

// BySeverity returns a copy of issues ordered error, warning, info.
// Issues of equal severity keep their evaluation order.
func BySeverity(issues []seo.Issue) []seo.Issue {
	sorted := slices.Clone(issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Type.Rank() < sorted[j].Type.Rank()
	})
	return sorted
}

// Summarize counts issues by severity.
func Summarize(a seo.Analysis) Summary {
	counts := lo.CountValuesBy(a.Issues, func(issue seo.Issue) seo.Severity {
		return issue.Type
	})
	return Summary{
		Score:           a.Score,
		Band:            seo.ScoreBand(a.Score),
		Verdict:         seo.ScoreSummary(a.Score),
		Errors:          counts[seo.SeverityError],
		Warnings:        counts[seo.SeverityWarning],
		Infos:           counts[seo.SeverityInfo],
		Recommendations: len(a.Recommendations),
	}
}
