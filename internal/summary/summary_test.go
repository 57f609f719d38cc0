// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summary

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

type fakeNodeStore struct {
	mu    sync.Mutex
	docs  []types.Document
	nodes []types.SummaryNode

	last    time.Time
	lastErr error
}

func (s *fakeNodeStore) DocumentsSince(_ context.Context, _ time.Time) ([]types.Document, error) {
	return s.docs, nil
}

func (s *fakeNodeStore) UpsertSummaryNodes(_ context.Context, nodes []types.SummaryNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append(s.nodes, nodes...)
	return nil
}

func (s *fakeNodeStore) LastRebuildTime(_ context.Context) (time.Time, error) {
	return s.last, s.lastErr
}

func (s *fakeNodeStore) SetLastRebuildTime(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = t
	return nil
}

type fakeEmbedder struct{ err error }

func (e *fakeEmbedder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func docWithChunks(host, title string, n int) types.Document {
	doc := types.Document{ID: "https://" + host + "/a", Host: host, Title: title}
	for i := 0; i < n; i++ {
		doc.Chunks = append(doc.Chunks, types.Chunk{
			ID:   fmt.Sprintf("%s::c%04d", doc.ID, i),
			Text: fmt.Sprintf("Chunk %d from %s carrying enough text to be a real excerpt.", i, host),
		})
	}
	return doc
}

// --- builder ---

func TestRebuildGroupsByHost(t *testing.T) {
	store := &fakeNodeStore{docs: []types.Document{
		docWithChunks("alpha.example.com", "Alpha Story", 3),
		docWithChunks("beta.example.com", "Beta Story", 3),
	}}
	b := &Builder{Store: store, Embedder: &fakeEmbedder{}, Config: types.SummaryConfig{}}

	n, err := b.Rebuild(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, store.nodes, 2)

	node := store.nodes[0]
	assert.Equal(t, 1, node.Level)
	assert.NotEmpty(t, node.ID)
	assert.Len(t, node.ChunkIDs, 3)
	assert.Equal(t, []float32{1, 2, 3}, node.Embedding)
	assert.True(t, strings.HasPrefix(node.Content, "Topic: Alpha Story"), "content = %q", node.Content)
	assert.Contains(t, node.Content, "Sources: alpha.example.com")
	assert.Contains(t, node.Content, "1. Chunk")
}

func TestRebuildSplitsLargeGroups(t *testing.T) {
	store := &fakeNodeStore{docs: []types.Document{
		docWithChunks("alpha.example.com", "Alpha Story", 10),
	}}
	b := &Builder{Store: store, Embedder: &fakeEmbedder{}, Config: types.SummaryConfig{GroupTarget: 4}}

	n, err := b.Rebuild(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, n) // 4 + 4 + 2
}

func TestRebuildCapsChunks(t *testing.T) {
	store := &fakeNodeStore{docs: []types.Document{
		docWithChunks("alpha.example.com", "Alpha Story", 50),
	}}
	b := &Builder{Store: store, Embedder: &fakeEmbedder{}, Config: types.SummaryConfig{MaxChunks: 5, GroupTarget: 24}}

	n, err := b.Rebuild(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Len(t, store.nodes[0].ChunkIDs, 5)
}

func TestRebuildNothingNew(t *testing.T) {
	store := &fakeNodeStore{}
	b := &Builder{Store: store, Embedder: &fakeEmbedder{}}

	n, err := b.Rebuild(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.nodes)
}

// --- scheduler ---

func TestShouldRebuildThresholds(t *testing.T) {
	s := &Scheduler{Config: types.SummaryConfig{}}
	now := time.Now()
	fresh := now.Add(-time.Hour)
	stale := now.Add(-7 * time.Hour)

	tests := []struct {
		name string
		docs int
		last time.Time
		want bool
	}{
		{"below doc threshold, fresh index", 9, fresh, false},
		{"at doc threshold", 10, fresh, true},
		{"stale index, no new docs", 0, stale, true},
		{"never rebuilt", 0, time.Time{}, true},
		{"fresh index, no new docs", 0, fresh, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.shouldRebuild(tc.docs, tc.last, now); got != tc.want {
				t.Errorf("shouldRebuild(%d, %v) = %v, want %v", tc.docs, tc.last, got, tc.want)
			}
		})
	}
}

func TestMaybeRebuildSuccess(t *testing.T) {
	store := &fakeNodeStore{docs: []types.Document{
		docWithChunks("alpha.example.com", "Alpha Story", 2),
	}}
	s := &Scheduler{
		Store:   store,
		Builder: &Builder{Store: store, Embedder: &fakeEmbedder{}},
	}

	var out bytes.Buffer
	triggered := s.MaybeRebuild(context.Background(), 10, &out)

	assert.True(t, triggered)
	assert.False(t, store.last.IsZero(), "watermark not advanced")
	assert.Contains(t, out.String(), "summary index rebuilt")
}

func TestMaybeRebuildBelowThreshold(t *testing.T) {
	store := &fakeNodeStore{last: time.Now()}
	s := &Scheduler{Store: store, Builder: &Builder{Store: store, Embedder: &fakeEmbedder{}}}

	assert.False(t, s.MaybeRebuild(context.Background(), 1, &bytes.Buffer{}))
}

func TestMaybeRebuildFailureKeepsWatermark(t *testing.T) {
	store := &fakeNodeStore{
		last: time.Now().Add(-24 * time.Hour),
		docs: []types.Document{docWithChunks("alpha.example.com", "Alpha Story", 2)},
	}
	before := store.last
	s := &Scheduler{
		Store:   store,
		Builder: &Builder{Store: store, Embedder: &fakeEmbedder{err: fmt.Errorf("embed service down")}},
	}

	var out bytes.Buffer
	triggered := s.MaybeRebuild(context.Background(), 10, &out)

	assert.False(t, triggered)
	assert.Equal(t, before, store.last, "failed rebuild must not advance the watermark")
	assert.Contains(t, out.String(), "warning: summary rebuild failed")
}

type blockingRebuilder struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRebuilder) Rebuild(_ context.Context, _ time.Time) (int, error) {
	close(b.started)
	<-b.release
	return 0, nil
}

func TestMaybeRebuildContention(t *testing.T) {
	store := &fakeNodeStore{}
	blocker := &blockingRebuilder{started: make(chan struct{}), release: make(chan struct{})}
	s := &Scheduler{Store: store, Builder: blocker}

	done := make(chan bool)
	go func() {
		done <- s.MaybeRebuild(context.Background(), 10, &bytes.Buffer{})
	}()
	<-blocker.started

	var out bytes.Buffer
	contended := s.MaybeRebuild(context.Background(), 10, &out)
	assert.False(t, contended)
	assert.Contains(t, out.String(), "skipped")

	close(blocker.release)
	assert.True(t, <-done)
}
