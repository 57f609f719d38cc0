// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"strings"
	"unicode"
)

// trashMarkers are phrases that identify paywalls, bot checks, and error
// pages masquerading as content.
var trashMarkers = []string{
	"enable javascript",
	"javascript is disabled",
	"subscribe to continue",
	"subscribe to read",
	"sign in to continue",
	"access denied",
	"page not found",
	"404 not found",
	"are you a robot",
	"verify you are human",
	"checking your browser",
	"accept cookies to continue",
}

// normalizeText collapses runs of whitespace inside lines and drops blank
// padding, keeping paragraph breaks.
func normalizeText(text string) string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// isTrash reports whether extracted text is boilerplate rather than
// content: a known blocker phrase near the top, or text that is mostly
// non-letters.
func isTrash(text string) bool {
	if text == "" {
		return true
	}

	head := strings.ToLower(text)
	if len(head) > 400 {
		head = head[:400]
	}
	for _, marker := range trashMarkers {
		if strings.Contains(head, marker) {
			return true
		}
	}

	var letters, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return true
	}
	return float64(letters)/float64(total) < 0.5
}
