package sanitize

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

const maxQueryLength = 100

// Clean strips markup and unsafe characters from free-text search input
// before it reaches the network layer. Word characters, whitespace and basic
// punctuation survive; everything else is dropped.
func Clean(input string) string {
	text := input
	if strings.ContainsAny(input, "<>") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(input)); err == nil {
			text = doc.Text()
		}
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(r)
		case strings.ContainsRune(".,!?-", r):
			b.WriteRune(r)
		}
	}

	cleaned := strings.TrimSpace(b.String())
	runes := []rune(cleaned)
	if len(runes) > maxQueryLength {
		cleaned = string(runes[:maxQueryLength])
	}
	return cleaned
}
