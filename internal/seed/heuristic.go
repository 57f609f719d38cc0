// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seed

import (
	"regexp"
	"strings"
)

// candidatePattern matches runs of capitalized tokens ("Change Healthcare",
// "MOVEit", "FBI") — the usual shape of organization and place names in
// English query text.
var candidatePattern = regexp.MustCompile(`\b([A-Z][A-Za-z0-9\-]{2,}(?:\s+[A-Z][A-Za-z0-9\-]{1,}){0,3})\b`)

// entityStopwords are capitalized words that are sentence furniture, not
// entities.
var entityStopwords = map[string]struct{}{
	"the": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"and": {}, "but": {}, "for": {}, "with": {}, "from": {},
	"said": {}, "says": {}, "according": {}, "reported": {},
	"new": {}, "old": {}, "first": {}, "last": {}, "next": {},
	"recent": {}, "latest": {}, "current": {}, "former": {},
	"today": {}, "yesterday": {}, "tomorrow": {},
	"news": {}, "report": {}, "reports": {}, "article": {}, "story": {},
	"update": {}, "updates": {}, "information": {}, "data": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "how": {},
}

// HeuristicExtractor finds entities by capitalization patterns. It is the
// default extractor when no NLP collaborator is configured; it trades recall
// for zero external dependencies.
type HeuristicExtractor struct{}

// Entities returns candidate entities in first-occurrence order. Multi-word
// candidates score higher than single words, and short all-caps acronyms
// (FBI, NSA) keep their casing.
func (HeuristicExtractor) Entities(text string) []Entity {
	var out []Entity
	seen := make(map[string]struct{})
	for _, m := range candidatePattern.FindAllString(text, -1) {
		normalized := normalizeEntity(m)
		if normalized == "" {
			continue
		}
		key := strings.ToLower(normalized)
		if _, stop := entityStopwords[key]; stop {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Entity{Text: normalized, Confidence: heuristicConfidence(normalized)})
	}
	return out
}

// normalizeEntity collapses whitespace and lowercases, preserving short
// acronyms like FBI and NSA.
func normalizeEntity(t string) string {
	t = strings.Trim(t, `"' `)
	t = strings.Join(strings.Fields(t), " ")
	if len(t) <= 4 && t == strings.ToUpper(t) {
		return t
	}
	return strings.ToLower(t)
}

func heuristicConfidence(entity string) float64 {
	switch {
	case strings.Contains(entity, " "):
		return 0.8
	case entity == strings.ToUpper(entity):
		return 0.7
	default:
		return 0.5
	}
}
