package reader

import (
	"bytes"
	"log/slog"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownFormat implements Format for Markdown files.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

// Load parses the document with goldmark. Headings become chapters and TOC
// entries; h1 is level 0.
func (f *MarkdownFormat) Load(filename string, log *slog.Logger) (*Book, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	book := &Book{Path: filename, Format: f.Name()}

	var current *Chapter
	closeChapter := func() {
		if current != nil && len(book.Words) > current.WordStart {
			current.WordEnd = len(book.Words) - 1
			book.Chapters = append(book.Chapters, *current)
		}
		current = nil
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		words := ParseText(plainText(n, src))

		if h, ok := n.(*ast.Heading); ok {
			closeChapter()
			title := strings.Join(words, " ")
			if book.Title == "" && h.Level == 1 {
				book.Title = title
			}
			book.TOC = append(book.TOC, TOCEntry{
				Title:     title,
				WordIndex: len(book.Words),
				Level:     h.Level - 1,
			})
			current = &Chapter{Title: title, WordStart: len(book.Words)}
		}

		book.Words = append(book.Words, words...)
	}
	closeChapter()

	// If no chapters found, create a single chapter with all content
	if len(book.Chapters) == 0 && len(book.Words) > 0 {
		book.Chapters = append(book.Chapters, Chapter{
			Title:     "Document",
			WordStart: 0,
			WordEnd:   len(book.Words) - 1,
		})
	}

	log.Debug("markdown parsed", "file", filename, "headings", len(book.TOC))
	return book, nil
}

// plainText returns the readable text under n with markup removed.
func plainText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				buf.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
				buf.WriteByte(' ')
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
