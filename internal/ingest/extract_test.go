// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Page Title From Head</title>
  <meta property="og:title" content="Hospital Chain Hit By Ransomware">
  <script>window.tracker = "noise";</script>
</head>
<body>
  <nav><a href="/">Home</a> long navigation text that should never appear</nav>
  <article>
    <h1>Hospital Chain Hit By Ransomware</h1>
    <p>Attackers encrypted systems across twelve hospitals early on Monday morning.</p>
    <p>Staff reverted to paper records while federal investigators examined the breach.</p>
    <p>ok</p>
  </article>
  <footer>Copyright footer text that is long enough to pass the length filter</footer>
</body>
</html>`

func TestExtractPrefersArticleAndOGTitle(t *testing.T) {
	title, text, err := Extract([]byte(samplePage))
	if err != nil {
		t.Fatal(err)
	}

	if title != "Hospital Chain Hit By Ransomware" {
		t.Errorf("title = %q", title)
	}
	if !strings.Contains(text, "encrypted systems across twelve hospitals") {
		t.Errorf("article paragraph missing from %q", text)
	}
	if strings.Contains(text, "navigation text") {
		t.Error("nav content leaked into extraction")
	}
	if strings.Contains(text, "Copyright footer") {
		t.Error("footer content leaked into extraction")
	}
	if strings.Contains(text, "tracker") {
		t.Error("script content leaked into extraction")
	}
}

func TestExtractDropsShortBlocks(t *testing.T) {
	_, text, err := Extract([]byte(samplePage))
	if err != nil {
		t.Fatal(err)
	}
	for _, block := range strings.Split(text, "\n\n") {
		if len(block) < minBlockChars {
			t.Errorf("short block %q survived extraction", block)
		}
	}
}

func TestExtractFallsBackToBody(t *testing.T) {
	page := `<html><head><title>T</title></head><body>
<p>A body paragraph long enough to count as real prose content.</p>
</body></html>`
	_, text, err := Extract([]byte(page))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "real prose content") {
		t.Errorf("body fallback failed, got %q", text)
	}
}

func TestIsTrash(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", true},
		{"bot check", "Checking your browser before accessing the site.", true},
		{"paywall", "Subscribe to continue reading this article today.", true},
		{"mostly symbols", "{}[]<>##==--++ 1234 5678 $$$$ %%%%", true},
		{"real prose", "Attackers encrypted systems across twelve hospitals early on Monday.", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isTrash(tc.text); got != tc.want {
				t.Errorf("isTrash(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	in := "  spaced   out\ttext \n\n\n\n  second   paragraph  \n\n"
	want := "spaced out text\n\nsecond paragraph"
	if got := normalizeText(in); got != want {
		t.Errorf("normalizeText = %q, want %q", got, want)
	}
}
