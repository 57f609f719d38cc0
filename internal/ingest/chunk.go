// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+["')\]]*`)

// splitSentences breaks text into sentences. Paragraph breaks always start a
// new sentence; trailing text without terminal punctuation is kept as one.
func splitSentences(text string) []string {
	var sentences []string
	for _, paragraph := range strings.Split(text, "\n\n") {
		end := 0
		for _, loc := range sentencePattern.FindAllStringIndex(paragraph, -1) {
			if s := strings.TrimSpace(paragraph[loc[0]:loc[1]]); s != "" {
				sentences = append(sentences, s)
			}
			end = loc[1]
		}
		if rest := strings.TrimSpace(paragraph[end:]); rest != "" {
			sentences = append(sentences, rest)
		}
	}
	return sentences
}

// ChunkText slices document text into overlapping sentence windows. Chunk
// identifiers embed the document URL so they stay stable across re-ingests
// of the same page.
func ChunkText(url, text string, cfg types.IngestionConfig) []types.Chunk {
	window := cfg.ChunkSentences
	if window <= 0 {
		window = 6
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 || overlap >= window {
		overlap = 2
	}
	maxChars := cfg.ChunkMaxChars
	if maxChars <= 0 {
		maxChars = 1600
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	step := window - overlap
	var chunks []types.Chunk
	for start := 0; start < len(sentences); start += step {
		end := start + window
		if end > len(sentences) {
			end = len(sentences)
		}

		body := strings.Join(sentences[start:end], " ")
		if len(body) > maxChars {
			body = truncateAtWord(body, maxChars)
		}

		idx := len(chunks)
		chunks = append(chunks, types.Chunk{
			ID:    fmt.Sprintf("%s::c%04d", url, idx),
			Text:  body,
			Index: idx,
		})
		if end == len(sentences) {
			break
		}
	}
	return chunks
}

// truncateAtWord cuts text to at most maxChars, backing up to the previous
// word boundary when one is close enough.
func truncateAtWord(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	cut := text[:maxChars]
	if i := strings.LastIndexByte(cut, ' '); i > maxChars/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
