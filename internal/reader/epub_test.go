package reader

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractTextFromHTML(t *testing.T) {
	htmlContent := `
	<html>
		<head><title>Test</title><style>body { color: red }</style></head>
		<body>
			<h1>Chapter 1</h1>
			<p>This is the <b>first</b> paragraph.</p>
			<p>
				This is the second paragraph
				with a newline.
			</p>
			<script>var ignored = true;</script>
			<div>Some <span>nested</span> text.</div>
		</body>
	</html>
	`

	expectedWords := []string{"Chapter", "1", "This", "is", "the", "first", "paragraph.", "This", "is", "the", "second", "paragraph", "with", "a", "newline.", "Some", "nested", "text."}

	text := extractTextFromHTML(htmlContent)
	words := ParseText(text)

	if len(words) != len(expectedWords) {
		t.Errorf("Expected %d words, got %d: %v", len(expectedWords), len(words), words)
	}

	for i, word := range words {
		if i < len(expectedWords) && word != expectedWords[i] {
			t.Errorf("Word %d: expected %q, got %q", i, expectedWords[i], word)
		}
	}
}

func TestExtractTextFromHTMLInlineMarkup(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"drop cap", `<p><span class="dropcap">T</span>he night</p>`, "The night"},
		{"split word", `<p>dar<em>k</em>er</p>`, "darker"},
		{"punctuation after inline", `<p>than <b>usual</b>.</p>`, "than usual."},
		{"adjacent blocks", `<p>end</p><p>start</p>`, "end start"},
		{"line break", `<p>one<br/>two</p>`, "one two"},
		{"table cells", `<table><tr><td>a</td><td>b</td></tr></table>`, "a b"},
		{"heading then text", `<h2>Title</h2>Body`, "Title Body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(ParseText(extractTextFromHTML(tt.html)), " ")
			if got != tt.want {
				t.Errorf("extractTextFromHTML(%q) = %q, want %q", tt.html, got, tt.want)
			}
		})
	}
}

func TestEPUBInlineMarkupKeepsWordsWhole(t *testing.T) {
	p := writeEPUB(t, t.TempDir(), "dropcap.epub", fixture{
		title: "Drop Cap",
		chapters: []fixtureChapter{
			{id: "ch1", title: "One", body: `<p><span class="dropcap">T</span>he night was dar<em>k</em>er than <b>usual</b>.</p>`},
		},
	})

	book, err := Extract(p)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []string{"The", "night", "was", "darker", "than", "usual."}
	if strings.Join(book.Words, "|") != strings.Join(want, "|") {
		t.Errorf("words = %q, want %q", book.Words, want)
	}
}

func TestEPUBSkipsUnreadableSpineItem(t *testing.T) {
	fx := sampleBook()
	fx.missing = []string{"ghost"}
	fx.spine = []string{"ch1", "ghost", "ch2"}
	p := writeEPUB(t, t.TempDir(), "ghost.epub", fx)

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	book, err := NewExtractor(log).Extract(p)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	want := "Opening It was a dark night. Then the rain stopped."
	if got := strings.Join(book.Words, " "); got != want {
		t.Errorf("words = %q, want %q", got, want)
	}
	if !strings.Contains(buf.String(), "skipping spine item") || !strings.Contains(buf.String(), "ghost.xhtml") {
		t.Errorf("skip not logged: %s", buf.String())
	}
}

func sampleBook() fixture {
	return fixture{
		title: "Sample Book",
		chapters: []fixtureChapter{
			{id: "ch1", title: "Opening", body: "<h1>Opening</h1><p>It was a <em>dark</em> night.</p>"},
			{id: "ch2", title: "Middle", body: "<p>Then the rain stopped.</p>"},
			{id: "ch3", title: "Ending", body: "<p>Morning came at last.</p>"},
		},
		ncx: true,
	}
}

func TestEPUBExtractWordsInReadingOrder(t *testing.T) {
	p := writeEPUB(t, t.TempDir(), "sample.epub", sampleBook())

	book, err := Extract(p)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	want := strings.Fields("Opening It was a dark night. Then the rain stopped. Morning came at last.")
	if len(book.Words) != len(want) {
		t.Fatalf("got %d words, want %d: %v", len(book.Words), len(want), book.Words)
	}
	for i := range want {
		if book.Words[i] != want[i] {
			t.Errorf("word %d = %q, want %q", i, book.Words[i], want[i])
		}
	}
	if book.Title != "Sample Book" {
		t.Errorf("Title = %q, want Sample Book", book.Title)
	}
	if book.Format != "EPUB" {
		t.Errorf("Format = %q, want EPUB", book.Format)
	}
}

func TestEPUBSpineOrderWins(t *testing.T) {
	fx := sampleBook()
	fx.spine = []string{"ch3", "ch1"}
	p := writeEPUB(t, t.TempDir(), "reordered.epub", fx)

	book, err := Extract(p)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := strings.Join(book.Words, " ")
	want := "Morning came at last. Opening It was a dark night."
	if got != want {
		t.Errorf("words = %q, want %q", got, want)
	}
}

func TestEPUBChaptersAndTOC(t *testing.T) {
	p := writeEPUB(t, t.TempDir(), "sample.epub", sampleBook())

	book, err := Extract(p)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	wantChapters := []Chapter{
		{Title: "Opening", WordStart: 0, WordEnd: 5},
		{Title: "Middle", WordStart: 6, WordEnd: 9},
		{Title: "Ending", WordStart: 10, WordEnd: 13},
	}
	if len(book.Chapters) != len(wantChapters) {
		t.Fatalf("got %d chapters, want %d: %+v", len(book.Chapters), len(wantChapters), book.Chapters)
	}
	for i, want := range wantChapters {
		if book.Chapters[i] != want {
			t.Errorf("chapter %d = %+v, want %+v", i, book.Chapters[i], want)
		}
	}

	if len(book.TOC) != 3 {
		t.Fatalf("got %d TOC entries, want 3", len(book.TOC))
	}
	if book.TOC[1].Title != "Middle" || book.TOC[1].WordIndex != 6 {
		t.Errorf("TOC[1] = %+v, want Middle at word 6", book.TOC[1])
	}
	if book.TOC[2].Preview != "Morning came at last." {
		t.Errorf("TOC[2].Preview = %q", book.TOC[2].Preview)
	}

	ch, ok := book.ChapterAt(7)
	if !ok || ch.Title != "Middle" {
		t.Errorf("ChapterAt(7) = %+v, %v", ch, ok)
	}
}

func TestEPUBWithoutNCXUsesSectionTitles(t *testing.T) {
	fx := sampleBook()
	fx.ncx = false
	p := writeEPUB(t, t.TempDir(), "plain.epub", fx)

	book, err := Extract(p)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(book.TOC) != 0 {
		t.Errorf("expected no TOC, got %d entries", len(book.TOC))
	}
	if book.Chapters[1].Title != "Section 2" {
		t.Errorf("chapter title = %q, want Section 2", book.Chapters[1].Title)
	}
}

func TestEPUBCover(t *testing.T) {
	fx := sampleBook()
	fx.cover = []byte("\x89PNG\r\n\x1a\nnot really a png")
	p := writeEPUB(t, t.TempDir(), "cover.epub", fx)

	book, err := Extract(p)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if book.Cover == nil {
		t.Fatal("expected a cover")
	}
	if book.Cover.MediaType != "image/png" || !bytes.Equal(book.Cover.Data, fx.cover) {
		t.Errorf("cover = %s %q", book.Cover.MediaType, book.Cover.Data)
	}

	fx.cover = nil
	p = writeEPUB(t, t.TempDir(), "nocover.epub", fx)
	book, err = Extract(p)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if book.Cover != nil {
		t.Errorf("expected no cover, got %s", book.Cover.Name)
	}
}

func TestExtractErrors(t *testing.T) {
	dir := t.TempDir()

	notZip := filepath.Join(dir, "broken.epub")
	if err := os.WriteFile(notZip, []byte("this is not a zip archive"), 0644); err != nil {
		t.Fatal(err)
	}
	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("plain words here"), 0644); err != nil {
		t.Fatal(err)
	}
	imagesOnly := writeEPUB(t, dir, "images.epub", fixture{
		title: "Pictures",
		chapters: []fixtureChapter{
			{id: "p1", title: "Plate", body: `<img src="plate.png" alt=""/>`},
		},
	})

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing file", filepath.Join(dir, "missing.epub"), ErrFileNotFound},
		{"not a zip", notZip, ErrUnsupportedFormat},
		{"unregistered extension", text, ErrUnsupportedFormat},
		{"images only", imagesOnly, ErrEmptyBook},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, err := Extract(tt.path)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Extract(%s) error = %v, want %v", filepath.Base(tt.path), err, tt.want)
			}
			if book != nil {
				t.Errorf("expected nil book on error")
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrFileNotFound, "The file could not be found."},
		{errors.Join(ErrUnsupportedFormat, errors.New("zip: not a valid zip file")), "This file is not a readable book. Supported formats: EPUB (.epub), Markdown (.md, .markdown)."},
		{ErrEmptyBook, "This book has no text to read."},
		{errors.New("disk on fire"), "disk on fire"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
