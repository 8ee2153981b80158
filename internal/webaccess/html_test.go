package webaccess

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractTextPrefersMainContainer(t *testing.T) {
	doc := `<html><body>
	<nav>menu items</nav>
	<div class="sidebar">ads</div>
	<main><h1>Title</h1><p>Body   text with
	spread    whitespace.</p></main>
	<footer>legal</footer>
	</body></html>`

	text := extractText(doc)
	if !strings.Contains(text, "Title") || !strings.Contains(text, "Body text with spread whitespace.") {
		t.Errorf("main content missing or whitespace not collapsed: %q", text)
	}
	if strings.Contains(text, "menu items") || strings.Contains(text, "legal") {
		t.Errorf("chrome text must be dropped: %q", text)
	}
	// The sidebar lives outside main, so it is excluded too.
	if strings.Contains(text, "ads") {
		t.Errorf("text outside the content container leaked: %q", text)
	}
}

func TestExtractTextContentClassDiv(t *testing.T) {
	doc := `<html><body>
	<div class="wrapper">intro</div>
	<div class="post highlight"><p>The actual article.</p></div>
	</body></html>`

	text := extractText(doc)
	if !strings.Contains(text, "The actual article.") {
		t.Errorf("post div not selected: %q", text)
	}
	if strings.Contains(text, "intro") {
		t.Errorf("non-content div leaked: %q", text)
	}
}

func TestExtractTextFallsBackToBody(t *testing.T) {
	doc := `<html><head><style>p{color:red}</style></head>
	<body><p>Plain page without landmarks.</p><script>track()</script></body></html>`

	text := extractText(doc)
	if text != "Plain page without landmarks." {
		t.Errorf("expected bare body text, got %q", text)
	}
}

func TestExtractTextDropsScriptInsideContent(t *testing.T) {
	doc := `<main>visible<script>var hidden = 1;</script> words</main>`
	text := extractText(doc)
	if strings.Contains(text, "hidden") {
		t.Errorf("script body leaked: %q", text)
	}
	if !strings.Contains(text, "visible") || !strings.Contains(text, "words") {
		t.Errorf("surrounding text lost: %q", text)
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	got := truncate(strings.Repeat("я", 10), 4)
	if got != "яяяя" {
		t.Errorf("expected 4 runes, got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncated string is not valid UTF-8: %q", got)
	}
	if truncate("abc", 10) != "abc" {
		t.Error("short string must be returned unchanged")
	}
	if truncate("", 5) != "" {
		t.Error("empty string must be returned unchanged")
	}
}
