package app

import (
	"regexp"
	"strings"
)

// Markdown headings need a space after the hashes to render.
var headingSpacing = regexp.MustCompile(`(?m)(#{1,6})([^ #])`)

// Domain keywords bolded when a response arrives with no emphasis of its own.
var emphasisPatterns = func() []*regexp.Regexp {
	keywords := []string{"penting", "kunci", "utama", "strategi", "rekomendasi", "solusi"}
	patterns := make([]*regexp.Regexp, len(keywords))
	for i, kw := range keywords {
		patterns[i] = regexp.MustCompile(`(?i)(\w*` + kw + `\w*)`)
	}
	return patterns
}()

// FormatResponse cleans up a raw model reply for display: well-formed heading
// syntax, and keyword emphasis only when the model used none itself.
func FormatResponse(text string) string {
	text = headingSpacing.ReplaceAllString(text, "$1 $2")

	if !strings.Contains(text, "*") {
		for _, pattern := range emphasisPatterns {
			text = pattern.ReplaceAllString(text, "**$1**")
		}
	}
	return text
}

// appendSources attaches a deduplicated citation block to an answer.
func appendSources(answer string, labels []string) string {
	if len(labels) == 0 {
		return answer
	}
	seen := make(map[string]bool, len(labels))
	var b strings.Builder
	b.WriteString(answer)
	b.WriteString("\n\n**Sumber:**\n")
	for _, label := range labels {
		if seen[label] {
			continue
		}
		seen[label] = true
		b.WriteString("- " + label + "\n")
	}
	return b.String()
}
