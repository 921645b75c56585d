package prompts

import (
	"strings"
	"unicode/utf16"
)

// FallbackTitle is used when nothing better can be derived
const FallbackTitle = "Job Application"

const maxLineTitle = 100

// DeriveTitle builds a title from company and position, or from the first
// non-blank line of the posting when it is shorter than 100 characters.
// Characters are counted in UTF-16 code units, so an emoji counts as two.
func DeriveTitle(jobPost string, company, position *string) string {
	if company != nil && position != nil {
		return *position + " at " + *company
	}
	if company != nil {
		return "Job Application for " + *company
	}

	for _, line := range strings.Split(jobPost, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf16Len(line) < maxLineTitle {
			return line
		}
		break
	}
	return FallbackTitle
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
