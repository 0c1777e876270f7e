package indexer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	styleBlock   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptBlock  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	brTags       = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockClose   = regexp.MustCompile(`(?i)</(p|div)\s*>`)
	listClose    = regexp.MustCompile(`(?i)</li\s*>`)
	allTags      = regexp.MustCompile(`<[^>]+>`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpaces  = regexp.MustCompile(`[ \t]+`)
)

// Only these six entities are decoded. Anything else is left as-is.
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// StripHTML converts bill HTML to plain text. Paragraph and div ends become blank lines,
// <br> and list item ends become single newlines, and whitespace is collapsed.
// Stripping is regex based: malformed markup degrades to best-effort text rather than an error.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}
	text := styleBlock.ReplaceAllString(html, "")
	text = scriptBlock.ReplaceAllString(text, "")
	text = brTags.ReplaceAllString(text, "\n")
	text = blockClose.ReplaceAllString(text, "\n\n")
	text = listClose.ReplaceAllString(text, "\n")
	text = allTags.ReplaceAllString(text, "")
	text = entityReplacer.Replace(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	text = multiSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// EstimateTokens approximates the token count of text as ceil(chars/4).
// It is a sizing heuristic, not a tokenizer; chunk boundaries of stored data depend on it.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
