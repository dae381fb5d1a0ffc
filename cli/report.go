package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/seo-optimizer/metacheck/analyzer"
	"github.com/seo-optimizer/metacheck/inspector"
	"github.com/seo-optimizer/metacheck/preview"
	"github.com/seo-optimizer/metacheck/seo"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	bandStyles = map[string]lipgloss.Style{
		"good": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),  // green
		"fair": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")), // orange
		"poor": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")), // red
	}

	severityStyles = map[seo.Severity]lipgloss.Style{
		seo.SeverityError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		seo.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		seo.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
)

func renderReport(w io.Writer, r *inspector.Report) {
	s := r.Summary

	fmt.Fprintln(w, headingStyle.Render(r.URL))
	fmt.Fprintf(w, "Score: %s  %s\n",
		bandStyles[s.Band].Render(fmt.Sprintf("%d/100 (%s)", s.Score, s.Band)),
		s.Verdict)
	fmt.Fprintf(w, "%d errors, %d warnings, %d recommendations\n", s.Errors, s.Warnings, s.Recommendations)

	if len(r.Analysis.Issues) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render("Issues"))
		for _, issue := range analyzer.BySeverity(r.Analysis.Issues) {
			label := fmt.Sprintf("[%s]", strings.ToUpper(string(issue.Type)))
			fmt.Fprintf(w, "  %s %s (%s, %s)\n",
				severityStyles[issue.Type].Render(label),
				issue.Message,
				issue.Field,
				issue.Type.Priority())
			fmt.Fprintf(w, "      %s\n", dimStyle.Render(seo.IssueDescription(issue.Field, issue.Type)))
		}
	}

	if len(r.Analysis.Recommendations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render("Recommendations"))
		for _, rec := range r.Analysis.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
			if detail := seo.RecommendationDetail(rec); detail != "" {
				fmt.Fprintf(w, "      %s\n", dimStyle.Render(detail))
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render("Categories"))
	renderBucket(w, "SEO", r.Categories.SEO)
	renderBucket(w, "SMO", r.Categories.SMO)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render("Previews"))
	for _, platform := range []string{preview.Google, preview.Facebook, preview.Twitter} {
		card, _ := r.Previews.Get(platform)
		renderCard(w, card)
	}
}

func renderBucket(w io.Writer, name string, b analyzer.Bucket) {
	fmt.Fprintf(w, "  %s: %d/%d fields passed, %d issues\n", name, b.Passed, len(b.Fields), len(b.Issues))
}

func renderCard(w io.Writer, c preview.Card) {
	name := strings.ToUpper(c.Platform[:1]) + c.Platform[1:]
	if !c.Available {
		fmt.Fprintf(w, "  %s: %s\n", name, dimStyle.Render(c.Placeholder))
		return
	}

	fmt.Fprintf(w, "  %s:\n", name)
	fmt.Fprintf(w, "    %s\n", renderText(c.Title))
	if c.Domain != "" {
		fmt.Fprintf(w, "    %s\n", c.Domain)
	}
	fmt.Fprintf(w, "    %s\n", renderText(c.Description))
	if c.Platform != preview.Google {
		fmt.Fprintf(w, "    image: %s\n", renderText(c.Image))
	}
}

func renderText(t preview.Text) string {
	if t.Missing {
		return dimStyle.Render(t.Value)
	}
	return t.Value
}
