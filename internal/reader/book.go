package reader

import "strings"

// Book is the result of extracting a file: its words in reading order plus
// the navigation data needed by the views.
type Book struct {
	Path     string
	Title    string
	Format   string
	Words    []string
	Chapters []Chapter
	TOC      []TOCEntry
	Cover    *Cover
}

// TOCEntry represents a single entry in a table of contents
type TOCEntry struct {
	Title     string
	Preview   string
	WordIndex int
	Level     int
}

// Chapter represents extracted chapter content with boundaries
type Chapter struct {
	Title     string
	WordStart int
	WordEnd   int
}

// Cover holds the raw bytes of a cover image.
type Cover struct {
	Name      string
	MediaType string
	Data      []byte
}

// ChapterAt returns the chapter containing the word at index.
func (b *Book) ChapterAt(index int) (Chapter, bool) {
	for i := len(b.Chapters) - 1; i >= 0; i-- {
		if index >= b.Chapters[i].WordStart {
			return b.Chapters[i], true
		}
	}
	return Chapter{}, false
}

const previewWords = 10

// fillPreviews sets each TOC entry's preview to the words that follow it.
func fillPreviews(b *Book) {
	for i := range b.TOC {
		start := b.TOC[i].WordIndex
		if start >= len(b.Words) {
			continue
		}
		end := min(start+previewWords, len(b.Words))
		b.TOC[i].Preview = strings.Join(b.Words[start:end], " ")
		if end < len(b.Words) {
			b.TOC[i].Preview += "..."
		}
	}
}
