// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// trackingParams are query parameters that vary per referral without
// changing the resource. They are stripped during URL normalization.
var trackingParams = map[string]struct{}{
	"fbclid": {}, "gclid": {}, "msclkid": {}, "mc_cid": {}, "mc_eid": {},
	"ref": {}, "ref_src": {}, "cmpid": {}, "ncid": {},
}

// NormalizeURL canonicalizes a URL for identity comparison: lowercase scheme
// and host, default port and fragment removed, tracking parameters stripped,
// trailing slash trimmed. Unparseable URLs come back unchanged so callers
// can still dedupe on the raw string.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	q := u.Query()
	for param := range q {
		if _, strip := trackingParams[param]; strip || strings.HasPrefix(param, "utm_") {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String()
}

// normalizeTitle reduces a title to a comparison key: lowercase, punctuation
// removed, whitespace collapsed.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// URLChecker reports which of the given normalized URLs are already known.
// The corpus store satisfies this.
type URLChecker interface {
	ExistingURLs(ctx context.Context, urls []string) (map[string]struct{}, error)
}

// Deduplicator removes duplicate and already-ingested items from a
// discovery batch. An LRU cache in front of the checker keeps repeat runs
// over the same feeds from hitting the store for every URL.
type Deduplicator struct {
	Checker URLChecker
	known   *lru.Cache[string, struct{}]
}

// NewDeduplicator builds a deduplicator with a known-URL cache of the given
// size.
func NewDeduplicator(checker URLChecker, cacheSize int) (*Deduplicator, error) {
	if cacheSize <= 0 {
		cacheSize = 4096
	}
	cache, err := lru.New[string, struct{}](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating known-URL cache: %w", err)
	}
	return &Deduplicator{Checker: checker, known: cache}, nil
}

// Dedupe filters a batch down to at most max novel items, preserving
// first-seen order. Duplicates collapse on normalized URL first, then on
// normalized title; items already present in the corpus are dropped. If the
// store lookup fails the batch passes through unchecked, with a warning,
// so a store hiccup cannot zero out discovery.
func (d *Deduplicator) Dedupe(ctx context.Context, items []types.DiscoveredItem, max int, w io.Writer) []types.DiscoveredItem {
	seenURLs := make(map[string]struct{}, len(items))
	seenTitles := make(map[string]struct{}, len(items))

	var (
		batch   []types.DiscoveredItem
		pending []string
	)
	for _, item := range items {
		normalized := NormalizeURL(item.URL)
		if normalized == "" {
			continue
		}
		if _, dup := seenURLs[normalized]; dup {
			continue
		}
		seenURLs[normalized] = struct{}{}

		if key := normalizeTitle(item.Title); key != "" {
			if _, dup := seenTitles[key]; dup {
				continue
			}
			seenTitles[key] = struct{}{}
		}

		item.URL = normalized
		if _, cached := d.known.Get(normalized); cached {
			continue
		}
		batch = append(batch, item)
		pending = append(pending, normalized)
	}

	if d.Checker != nil && len(pending) > 0 {
		existing, err := d.Checker.ExistingURLs(ctx, pending)
		if err != nil {
			fmt.Fprintf(w, "warning: known-URL check failed, keeping batch: %v\n", err)
		} else {
			kept := batch[:0]
			for _, item := range batch {
				if _, known := existing[item.URL]; known {
					d.known.Add(item.URL, struct{}{})
					continue
				}
				kept = append(kept, item)
			}
			batch = kept
		}
	}

	if max > 0 && len(batch) > max {
		batch = batch[:max]
	}
	return batch
}

// MarkIngested records URLs in the known cache after a successful ingest so
// subsequent runs skip them without a store round trip.
func (d *Deduplicator) MarkIngested(urls []string) {
	for _, u := range urls {
		d.known.Add(NormalizeURL(u), struct{}{})
	}
}
