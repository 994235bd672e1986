package publisher

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var htmlTagRe = regexp.MustCompile(`<\s*(p|div|span|h[1-6]|ul|ol|li|a|img|pre|code|blockquote|table|br|strong|em)\b`)

// ContainsHTML reports whether a body looks like markup rather than
// Markdown.
func ContainsHTML(content string) bool {
	return htmlTagRe.MatchString(content)
}

// NormalizeContent returns the article body as Markdown, converting from
// HTML when needed.
func NormalizeContent(content string) (string, error) {
	if !ContainsHTML(content) {
		return content, nil
	}
	converter := md.NewConverter("", true, nil)
	out, err := converter.ConvertString(content)
	if err != nil {
		return "", err
	}
	return out, nil
}

// SummaryFromHTML extracts a plain-text summary from an HTML body, capped at
// maxLen runes.
func SummaryFromHTML(content string, maxLen int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return truncateRunes(content, maxLen)
	}
	text := strings.Join(strings.Fields(doc.Text()), " ")
	return truncateRunes(text, maxLen)
}

func truncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
