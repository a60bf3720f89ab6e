package llm

import (
	"fmt"
	"strings"

	"TrendPress/internal/domain"
)

const defaultLanguage = "Brazilian Portuguese"

const rewriteRules = `Rewrite the news article above as an original piece for a news blog.
Follow these rules:
1. Keep every fact, number and quote accurate. Do not invent information.
2. Restructure the text with your own wording and a new paragraph order.
3. Do not mention the original outlet or its journalists.
4. Write a new headline that differs from the original title.
5. Format the result as HTML: one <h1> with the headline, one <h2> with a subtitle, <p> paragraphs and <h3> section headings where useful.
6. Write at least three paragraphs.
7. Keep a neutral, informative tone.
8. Write in %s.
9. Return only the HTML, without Markdown code fences or commentary.`

// BuildPrompt renders the rewrite request for one news item.
// The same item and text always produce the same prompt.
func BuildPrompt(item domain.NewsItem, text, language string) string {
	if strings.TrimSpace(language) == "" {
		language = defaultLanguage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Trending topic: %s\n", item.Trend.Term)
	fmt.Fprintf(&b, "Original title: %s\n", item.Title)
	if item.SourceName != "" {
		fmt.Fprintf(&b, "Original outlet: %s\n", item.SourceName)
	}
	b.WriteString("\nOriginal text:\n")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, rewriteRules, language)
	return b.String()
}
