// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summary maintains the corpus summary index: extractive summaries
// of chunk groups, embedded for retrieval, rebuilt incrementally when enough
// new material has accumulated.
package summary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// summarySentenceCap bounds how many chunks contribute text to one node.
const summarySentenceCap = 5

// summaryExcerptChars truncates each contributing chunk in the node text.
const summaryExcerptChars = 240

// Embedder produces one vector per input text.
type Embedder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// NodeStore is the store surface the builder needs.
type NodeStore interface {
	DocumentsSince(ctx context.Context, since time.Time) ([]types.Document, error)
	UpsertSummaryNodes(ctx context.Context, nodes []types.SummaryNode) error
}

// Builder rebuilds the summary index from documents ingested after a
// watermark.
type Builder struct {
	Store    NodeStore
	Embedder Embedder
	Config   types.SummaryConfig
}

// chunkRef carries a chunk together with its document provenance.
type chunkRef struct {
	chunk types.Chunk
	host  string
	title string
}

// Rebuild summarizes chunks from documents ingested since the watermark and
// upserts the resulting nodes. It returns the number of nodes written.
func (b *Builder) Rebuild(ctx context.Context, since time.Time) (int, error) {
	maxChunks := b.Config.MaxChunks
	if maxChunks <= 0 {
		maxChunks = 500
	}
	groupTarget := b.Config.GroupTarget
	if groupTarget <= 0 {
		groupTarget = 24
	}

	docs, err := b.Store.DocumentsSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("loading new documents: %w", err)
	}

	var refs []chunkRef
	for _, doc := range docs {
		for _, c := range doc.Chunks {
			if len(refs) >= maxChunks {
				break
			}
			refs = append(refs, chunkRef{chunk: c, host: doc.Host, title: doc.Title})
		}
	}
	if len(refs) == 0 {
		return 0, nil
	}

	groups := groupByHost(refs, groupTarget)

	nodes := make([]types.SummaryNode, 0, len(groups))
	texts := make([]string, 0, len(groups))
	for _, group := range groups {
		content := summarizeGroup(group)
		chunkIDs := make([]string, len(group))
		for i, ref := range group {
			chunkIDs[i] = ref.chunk.ID
		}
		nodes = append(nodes, types.SummaryNode{
			ID:        uuid.NewString(),
			Level:     1,
			Content:   content,
			ChunkIDs:  chunkIDs,
			CreatedAt: time.Now(),
		})
		texts = append(texts, content)
	}

	vectors, err := b.Embedder.Encode(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding summaries: %w", err)
	}
	if len(vectors) != len(nodes) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d nodes", len(vectors), len(nodes))
	}
	for i := range nodes {
		nodes[i].Embedding = vectors[i]
	}

	if err := b.Store.UpsertSummaryNodes(ctx, nodes); err != nil {
		return 0, fmt.Errorf("storing summary nodes: %w", err)
	}
	return len(nodes), nil
}

// groupByHost buckets chunks by document host, then splits each bucket into
// groups of at most target chunks. Host order is deterministic.
func groupByHost(refs []chunkRef, target int) [][]chunkRef {
	byHost := make(map[string][]chunkRef)
	for _, r := range refs {
		byHost[r.host] = append(byHost[r.host], r)
	}

	hosts := make([]string, 0, len(byHost))
	for h := range byHost {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	var groups [][]chunkRef
	for _, h := range hosts {
		bucket := byHost[h]
		for start := 0; start < len(bucket); start += target {
			end := start + target
			if end > len(bucket) {
				end = len(bucket)
			}
			groups = append(groups, bucket[start:end])
		}
	}
	return groups
}

// summarizeGroup builds the extractive node text: a topic line from the
// group's documents, the contributing source hosts, and excerpts of the
// longest chunks.
func summarizeGroup(group []chunkRef) string {
	titleSeen := make(map[string]struct{})
	hostSeen := make(map[string]struct{})
	var titles, hosts []string
	for _, ref := range group {
		if _, ok := titleSeen[ref.title]; !ok && ref.title != "" {
			titleSeen[ref.title] = struct{}{}
			titles = append(titles, ref.title)
		}
		if _, ok := hostSeen[ref.host]; !ok && ref.host != "" {
			hostSeen[ref.host] = struct{}{}
			hosts = append(hosts, ref.host)
		}
	}

	picked := make([]chunkRef, len(group))
	copy(picked, group)
	sort.SliceStable(picked, func(i, j int) bool {
		return len(picked[i].chunk.Text) > len(picked[j].chunk.Text)
	})
	if len(picked) > summarySentenceCap {
		picked = picked[:summarySentenceCap]
	}

	var b strings.Builder
	topic := "untitled"
	if len(titles) > 0 {
		topic = titles[0]
	}
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	if len(hosts) > 0 {
		fmt.Fprintf(&b, "Sources: %s\n", strings.Join(hosts, ", "))
	}
	for i, ref := range picked {
		excerpt := ref.chunk.Text
		if len(excerpt) > summaryExcerptChars {
			excerpt = strings.TrimSpace(excerpt[:summaryExcerptChars])
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, excerpt)
	}
	return strings.TrimRight(b.String(), "\n")
}
