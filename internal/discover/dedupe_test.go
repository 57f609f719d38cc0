// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases host", "https://Example.COM/Path", "https://example.com/Path"},
		{"strips fragment", "https://example.com/a#section", "https://example.com/a"},
		{"strips default https port", "https://example.com:443/a", "https://example.com/a"},
		{"strips default http port", "http://example.com:80/a", "http://example.com/a"},
		{"strips tracking params", "https://example.com/a?utm_source=x&utm_medium=y&id=7", "https://example.com/a?id=7"},
		{"strips fbclid", "https://example.com/a?fbclid=abc", "https://example.com/a"},
		{"trims trailing slash", "https://example.com/a/", "https://example.com/a"},
		{"keeps root slash", "https://example.com/", "https://example.com/"},
		{"unparseable passes through", "::not a url::", "::not a url::"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeURL(tc.in))
		})
	}
}

type fakeChecker struct {
	existing map[string]struct{}
	calls    int
	err      error
}

func (c *fakeChecker) ExistingURLs(_ context.Context, urls []string) (map[string]struct{}, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	out := make(map[string]struct{})
	for _, u := range urls {
		if _, ok := c.existing[u]; ok {
			out[u] = struct{}{}
		}
	}
	return out, nil
}

func newTestDeduplicator(t *testing.T, checker URLChecker) *Deduplicator {
	t.Helper()
	d, err := NewDeduplicator(checker, 16)
	require.NoError(t, err)
	return d
}

func TestDedupeCollapsesEquivalentURLs(t *testing.T) {
	d := newTestDeduplicator(t, &fakeChecker{})
	items := []types.DiscoveredItem{
		{URL: "https://Example.com/story?utm_source=rss", Title: "One"},
		{URL: "https://example.com/story", Title: "One again"},
		{URL: "https://example.com/other", Title: "Two"},
	}

	out := d.Dedupe(context.Background(), items, 0, &bytes.Buffer{})

	require.Len(t, out, 2)
	assert.Equal(t, "https://example.com/story", out[0].URL)
	assert.Equal(t, "One", out[0].Title, "first seen wins")
}

func TestDedupeCollapsesDuplicateTitles(t *testing.T) {
	d := newTestDeduplicator(t, &fakeChecker{})
	items := []types.DiscoveredItem{
		{URL: "https://a.example.com/story", Title: "Major Breach at Acme!"},
		{URL: "https://b.example.com/mirror", Title: "major breach at acme"},
	}

	out := d.Dedupe(context.Background(), items, 0, &bytes.Buffer{})

	require.Len(t, out, 1)
	assert.Equal(t, "https://a.example.com/story", out[0].URL)
}

func TestDedupeDropsKnownURLs(t *testing.T) {
	checker := &fakeChecker{existing: map[string]struct{}{
		"https://example.com/known": {},
	}}
	d := newTestDeduplicator(t, checker)
	items := []types.DiscoveredItem{
		{URL: "https://example.com/known", Title: "Known"},
		{URL: "https://example.com/new", Title: "New"},
	}

	out := d.Dedupe(context.Background(), items, 0, &bytes.Buffer{})

	require.Len(t, out, 1)
	assert.Equal(t, "https://example.com/new", out[0].URL)

	// The known URL is now cached; a second pass never reaches the checker
	// for it.
	checker.calls = 0
	out = d.Dedupe(context.Background(), []types.DiscoveredItem{
		{URL: "https://example.com/known", Title: "Known"},
	}, 0, &bytes.Buffer{})
	assert.Empty(t, out)
	assert.Equal(t, 0, checker.calls)
}

func TestDedupeKeepsBatchOnCheckerFailure(t *testing.T) {
	checker := &fakeChecker{err: fmt.Errorf("store offline")}
	d := newTestDeduplicator(t, checker)

	var out bytes.Buffer
	items := d.Dedupe(context.Background(), []types.DiscoveredItem{
		{URL: "https://example.com/a", Title: "A"},
	}, 0, &out)

	assert.Len(t, items, 1)
	assert.Contains(t, out.String(), "warning: known-URL check failed")
}

func TestDedupeTruncatesToMax(t *testing.T) {
	d := newTestDeduplicator(t, &fakeChecker{})
	var items []types.DiscoveredItem
	for i := 0; i < 10; i++ {
		items = append(items, types.DiscoveredItem{
			URL:   fmt.Sprintf("https://example.com/%d", i),
			Title: fmt.Sprintf("Story %d", i),
		})
	}

	out := d.Dedupe(context.Background(), items, 3, &bytes.Buffer{})

	require.Len(t, out, 3)
	assert.Equal(t, "https://example.com/0", out[0].URL)
	assert.Equal(t, "https://example.com/2", out[2].URL)
}

func TestMarkIngested(t *testing.T) {
	checker := &fakeChecker{}
	d := newTestDeduplicator(t, checker)

	d.MarkIngested([]string{"https://example.com/done"})
	out := d.Dedupe(context.Background(), []types.DiscoveredItem{
		{URL: "https://example.com/done", Title: "Done"},
	}, 0, &bytes.Buffer{})

	assert.Empty(t, out)
	assert.Equal(t, 0, checker.calls)
}
