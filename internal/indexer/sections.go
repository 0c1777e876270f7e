package indexer

import (
	"regexp"
	"sort"
	"strings"
)

// Section headings: "Section 1.", "SECTION 2:", "§ 3", "Section 1-a.". lineMarker finds them at
// the start of a line in any case. inlineMarker finds capitalized headings that follow a
// sentence-ending period inside a line. Neither consumes the punctuation after the number, so
// back-to-back headings ("Section 1. Section 2.") both match.
var (
	lineMarker   = regexp.MustCompile(`(?im)^[ \t]*((?:section[ \t]+|§[ \t]*)\d+[a-z-]*)`)
	inlineMarker = regexp.MustCompile(`\.[ \t]+((?:Section[ \t]+|SECTION[ \t]+|§[ \t]*)\d+[a-z-]*)`)
)

// SplitSections splits bill body text before each section heading. Parts are trimmed and
// empty parts dropped. Text without at least two parts is returned whole as a single section.
func SplitSections(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	cuts := headingStarts(text)
	parts := make([]string, 0, len(cuts)+1)
	start := 0
	for _, at := range cuts {
		if at <= start {
			continue
		}
		if part := strings.TrimSpace(text[start:at]); part != "" {
			parts = append(parts, part)
		}
		start = at
	}
	if part := strings.TrimSpace(text[start:]); part != "" {
		parts = append(parts, part)
	}
	if len(parts) < 2 {
		return []string{text}
	}
	return parts
}

// headingStarts returns the sorted byte offsets of every section heading in text.
func headingStarts(text string) []int {
	seen := make(map[int]bool)
	var starts []int
	for _, re := range []*regexp.Regexp{lineMarker, inlineMarker} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if !headingEnds(text, m[3]) || seen[m[2]] {
				continue
			}
			seen[m[2]] = true
			starts = append(starts, m[2])
		}
	}
	sort.Ints(starts)
	return starts
}

// headingEnds reports whether the heading number ending at end is followed by '.', ':',
// whitespace or the end of text.
func headingEnds(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	switch text[end] {
	case '.', ':', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
