package parser

import (
	"regexp"
	"strings"
)

var (
	headerFooterRe = regexp.MustCompile(`(?m)^.*(Header|Footer).*$`)
	specialCharRe  = regexp.MustCompile(`[^A-Za-z0-9\s.,;:'"?!\-]`)
	repeatedDotRe  = regexp.MustCompile(`\.{2,}`)
	blankLinesRe   = regexp.MustCompile(`\n\s*\n`)
	spacesRe       = regexp.MustCompile(`\s+`)
)

// Preprocess cleans text extracted from a pdf page: header and footer lines
// go, so do characters outside plain punctuation, dot runs and extra spaces.
func Preprocess(text string) string {
	text = strings.TrimSpace(headerFooterRe.ReplaceAllString(text, ""))
	text = strings.TrimSpace(specialCharRe.ReplaceAllString(text, ""))
	text = strings.TrimSpace(repeatedDotRe.ReplaceAllString(text, "."))
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = spacesRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
