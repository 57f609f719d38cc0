// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

func TestSplitSentences(t *testing.T) {
	text := "First sentence. Second one! Third?\n\nNew paragraph without terminal punctuation"
	sents := splitSentences(text)

	want := []string{
		"First sentence.",
		"Second one!",
		"Third?",
		"New paragraph without terminal punctuation",
	}
	if len(sents) != len(want) {
		t.Fatalf("got %d sentences %v, want %d", len(sents), sents, len(want))
	}
	for i := range want {
		if sents[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, sents[i], want[i])
		}
	}
}

func TestSplitSentencesLeadingTerminator(t *testing.T) {
	sents := splitSentences("...Hello world. Next sentence.")

	want := []string{"Hello world.", "Next sentence."}
	if len(sents) != len(want) {
		t.Fatalf("got %d sentences %v, want %d", len(sents), sents, len(want))
	}
	for i := range want {
		if sents[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, sents[i], want[i])
		}
	}
}

func TestChunkTextWindows(t *testing.T) {
	var sents []string
	for i := 0; i < 10; i++ {
		sents = append(sents, fmt.Sprintf("Sentence number %d is here.", i))
	}
	text := strings.Join(sents, " ")

	chunks := ChunkText("https://example.com/a", text, types.IngestionConfig{})

	// window 6, overlap 2: starts at 0, 4, 8.
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if chunks[0].ID != "https://example.com/a::c0000" {
		t.Errorf("chunk ID = %q", chunks[0].ID)
	}
	if chunks[2].ID != "https://example.com/a::c0002" {
		t.Errorf("chunk ID = %q", chunks[2].ID)
	}
	if !strings.Contains(chunks[1].Text, "Sentence number 4") {
		t.Errorf("second window should start at sentence 4, got %q", chunks[1].Text)
	}
	if !strings.Contains(chunks[0].Text, "Sentence number 5") {
		t.Errorf("first window should span 6 sentences, got %q", chunks[0].Text)
	}
}

func TestChunkTextMaxChars(t *testing.T) {
	long := strings.Repeat("word ", 200) + "end."
	chunks := ChunkText("https://example.com/a", long, types.IngestionConfig{ChunkMaxChars: 100})

	for _, c := range chunks {
		if len(c.Text) > 100 {
			t.Errorf("chunk %s has %d chars, cap is 100", c.ID, len(c.Text))
		}
	}
}

func TestChunkTextEmpty(t *testing.T) {
	if chunks := ChunkText("https://example.com/a", "", types.IngestionConfig{}); chunks != nil {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestChunkTextShortDocument(t *testing.T) {
	chunks := ChunkText("https://example.com/a", "Only one sentence here.", types.IngestionConfig{})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Index != 0 {
		t.Errorf("index = %d, want 0", chunks[0].Index)
	}
}
