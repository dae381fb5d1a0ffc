package seo

import "strings"

// Field names a single Metadata entry. The value matches the JSON key.
type Field string

const (
	FieldTitle              Field = "title"
	FieldDescription        Field = "description"
	FieldKeywords           Field = "keywords"
	FieldOGTitle            Field = "ogTitle"
	FieldOGDescription      Field = "ogDescription"
	FieldOGImage            Field = "ogImage"
	FieldTwitterCard        Field = "twitterCard"
	FieldTwitterTitle       Field = "twitterTitle"
	FieldTwitterDescription Field = "twitterDescription"
	FieldTwitterImage       Field = "twitterImage"
	FieldCanonical          Field = "canonical"
	FieldRobots             Field = "robots"
	FieldViewport           Field = "viewport"
	FieldCharset            Field = "charset"
	FieldLanguage           Field = "language"
	FieldAuthor             Field = "author"
	FieldFavicon            Field = "favicon"
)

// Fields lists every Metadata field in declaration order.
var Fields = []Field{
	FieldTitle,
	FieldDescription,
	FieldKeywords,
	FieldOGTitle,
	FieldOGDescription,
	FieldOGImage,
	FieldTwitterCard,
	FieldTwitterTitle,
	FieldTwitterDescription,
	FieldTwitterImage,
	FieldCanonical,
	FieldRobots,
	FieldViewport,
	FieldCharset,
	FieldLanguage,
	FieldAuthor,
	FieldFavicon,
}

// Metadata is the flat record extracted from one HTML document.
// Absent values are empty strings (or an empty keyword list), never missing keys.
type Metadata struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Keywords           []string `json:"keywords"`
	OGTitle            string   `json:"ogTitle"`
	OGDescription      string   `json:"ogDescription"`
	OGImage            string   `json:"ogImage"`
	TwitterCard        string   `json:"twitterCard"`
	TwitterTitle       string   `json:"twitterTitle"`
	TwitterDescription string   `json:"twitterDescription"`
	TwitterImage       string   `json:"twitterImage"`
	Canonical          string   `json:"canonical"`
	Robots             string   `json:"robots"`
	Viewport           string   `json:"viewport"`
	Charset            string   `json:"charset"`
	Language           string   `json:"language"`
	Author             string   `json:"author"`
	Favicon            string   `json:"favicon"`
}

// Value returns the string form of a field. Keywords are joined with ", ".
// Unknown fields yield "".
func (m Metadata) Value(f Field) string {
	switch f {
	case FieldTitle:
		return m.Title
	case FieldDescription:
		return m.Description
	case FieldKeywords:
		return strings.Join(m.Keywords, ", ")
	case FieldOGTitle:
		return m.OGTitle
	case FieldOGDescription:
		return m.OGDescription
	case FieldOGImage:
		return m.OGImage
	case FieldTwitterCard:
		return m.TwitterCard
	case FieldTwitterTitle:
		return m.TwitterTitle
	case FieldTwitterDescription:
		return m.TwitterDescription
	case FieldTwitterImage:
		return m.TwitterImage
	case FieldCanonical:
		return m.Canonical
	case FieldRobots:
		return m.Robots
	case FieldViewport:
		return m.Viewport
	case FieldCharset:
		return m.Charset
	case FieldLanguage:
		return m.Language
	case FieldAuthor:
		return m.Author
	case FieldFavicon:
		return m.Favicon
	}
	return ""
}

// Has reports whether a field carries a value.
func (m Metadata) Has(f Field) bool {
	if f == FieldKeywords {
		return len(m.Keywords) > 0
	}
	return m.Value(f) != ""
}

// Severity classifies an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rank orders severities for display, most severe first.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Priority is the label shown next to an issue.
func (s Severity) Priority() string {
	switch s {
	case SeverityError:
		return "High Priority"
	case SeverityWarning:
		return "Medium Priority"
	default:
		return "Low Priority"
	}
}

// Issue is a finding about one Metadata field.
type Issue struct {
	Type    Severity `json:"type"`
	Message string   `json:"message"`
	Field   Field    `json:"field"`
}

// Analysis is the outcome of scoring a Metadata record.
type Analysis struct {
	Score           int      `json:"score"`
	Issues          []Issue  `json:"issues"`
	Recommendations []string `json:"recommendations"`
}
