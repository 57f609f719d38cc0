// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// chromeSelector matches page furniture that never carries article text.
const chromeSelector = "script, style, nav, header, footer, aside, form, iframe, noscript, svg, button"

// minBlockChars drops stray link text and bylines during extraction.
const minBlockChars = 30

// Extract pulls the title and main text out of page HTML. It prefers an
// <article> or <main> container and falls back to the whole body, taking
// paragraph-level blocks long enough to be prose.
func Extract(html []byte) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find(chromeSelector).Remove()

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		title = strings.TrimSpace(og)
	}

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("main").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var blocks []string
	root.Find("p, h1, h2, h3, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		block := strings.Join(strings.Fields(s.Text()), " ")
		if len(block) < minBlockChars {
			return
		}
		blocks = append(blocks, block)
	})

	return title, strings.Join(blocks, "\n\n"), nil
}
