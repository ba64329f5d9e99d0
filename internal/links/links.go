// Package links finds puzzle URLs in free-form video descriptions.
package links

import (
	"regexp"
	"strings"
)

// urlPattern matches scheme://host.tld[/path]. The final path character may
// not be sentence punctuation such as '.' or ','.
var urlPattern = regexp.MustCompile(
	`(https?)://([\w_-]+(?:(?:\.[\w_-]+)+))([\w.,@?^=%&:/~+#-]*[\w@?^=%&/~+#-])`,
)

// allowedHosts are the host fragments of links that lead to a puzzle.
var allowedHosts = []string{
	"tinyurl.com",
	"sudokupad.app",
	"crackingthecryptic.com",
}

// catalogueLinks appear in most descriptions but point at the app catalogue,
// not at the featured puzzle.
var catalogueLinks = map[string]struct{}{
	"https://tinyurl.com/CTCCatalogue":     {},
	"https://crackingthecryptic.com/#apps": {},
}

// Extract returns the puzzle links found in text in order of first
// appearance. The result is never nil.
func Extract(text string) []string {
	found := make([]string, 0)
	seen := make(map[string]struct{})

	for _, match := range urlPattern.FindAllString(text, -1) {
		if !isAllowed(match) {
			continue
		}
		if _, deny := catalogueLinks[match]; deny {
			continue
		}
		if _, dup := seen[match]; dup {
			continue
		}
		seen[match] = struct{}{}
		found = append(found, match)
	}

	return found
}

// First returns the first puzzle link in text, or "" when there is none.
func First(text string) string {
	if found := Extract(text); len(found) > 0 {
		return found[0]
	}
	return ""
}

func isAllowed(link string) bool {
	lower := strings.ToLower(link)
	for _, host := range allowedHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}
