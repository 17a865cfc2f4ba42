package archive

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// MaxContentLength is one less than the character limit of a single spreadsheet cell.
const MaxContentLength = 49999

// NormalizeContent collapses every run of whitespace into a single space, trims the result
// and truncates it to MaxContentLength characters.
func NormalizeContent(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= MaxContentLength {
		return text
	}
	return string([]rune(text)[:MaxContentLength])
}

// ExtractContent returns the normalized body of an email detail document, or an empty
// string if the document has no content region.
func ExtractContent(doc *goquery.Document) string {
	region := doc.Find(contentSelector)
	if region.Length() == 0 {
		return ""
	}
	return NormalizeContent(region.Text())
}
