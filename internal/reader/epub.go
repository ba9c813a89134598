package reader

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EPUBFormat implements Format for EPUB files.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

// Load reads the spine of an EPUB in order and strips each document to words.
func (f *EPUBFormat) Load(filename string, log *slog.Logger) (*Book, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("%w: no rootfiles found in epub", ErrUnsupportedFormat)
	}

	rf := rc.Rootfiles[0]
	nav := readNavPoints(rf)
	titles := navTitles(nav)

	book := &Book{
		Path:   filename,
		Title:  strings.TrimSpace(rf.Metadata.Title),
		Format: f.Name(),
	}
	spine := make(map[string]int)

	for i, ref := range rf.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		data, err := readItem(ref.Item)
		if err != nil {
			log.Debug("skipping spine item", "file", filename, "href", ref.Item.HREF, "error", err)
			continue
		}

		words := ParseText(extractTextFromHTML(string(data)))
		if ref.Item.HREF != "" {
			spine[ref.Item.HREF] = len(book.Words)
			spine[path.Base(ref.Item.HREF)] = len(book.Words)
		}
		if len(words) == 0 {
			continue
		}

		title := fmt.Sprintf("Section %d", i+1)
		if t, ok := lookupHref(titles, ref.Item.HREF); ok {
			title = t
		}

		book.Chapters = append(book.Chapters, Chapter{
			Title:     title,
			WordStart: len(book.Words),
			WordEnd:   len(book.Words) + len(words) - 1,
		})
		book.Words = append(book.Words, words...)
	}

	book.TOC = flattenNavPoints(nav, spine, 0)
	book.Cover = findCover(rf)
	return book, nil
}

func readItem(item *epub.Item) ([]byte, error) {
	r, err := item.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// findCover returns the first manifest image whose id or href mentions "cover".
func findCover(rf *epub.Rootfile) *Cover {
	for i := range rf.Manifest.Items {
		item := &rf.Manifest.Items[i]
		if !strings.HasPrefix(item.MediaType, "image/") {
			continue
		}
		if !strings.Contains(strings.ToLower(item.ID), "cover") &&
			!strings.Contains(strings.ToLower(item.HREF), "cover") {
			continue
		}
		data, err := readItem(item)
		if err != nil || len(data) == 0 {
			continue
		}
		return &Cover{Name: path.Base(item.HREF), MediaType: item.MediaType, Data: data}
	}
	return nil
}

// skipText lists elements whose text is never part of the reading flow.
var skipText = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
}

// blockElements start a new run of words; text inside inline elements is
// joined to its neighbours as written.
var blockElements = map[atom.Atom]bool{
	atom.Address:    true,
	atom.Article:    true,
	atom.Aside:      true,
	atom.Blockquote: true,
	atom.Body:       true,
	atom.Br:         true,
	atom.Caption:    true,
	atom.Dd:         true,
	atom.Div:        true,
	atom.Dl:         true,
	atom.Dt:         true,
	atom.Figcaption: true,
	atom.Figure:     true,
	atom.Footer:     true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Header:     true,
	atom.Hr:         true,
	atom.Li:         true,
	atom.Nav:        true,
	atom.Ol:         true,
	atom.P:          true,
	atom.Pre:        true,
	atom.Section:    true,
	atom.Table:      true,
	atom.Td:         true,
	atom.Th:         true,
	atom.Tr:         true,
	atom.Ul:         true,
}

func extractTextFromHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipText[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			out.WriteString(n.Data)
		}
		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			out.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			out.WriteByte(' ')
		}
	}
	walk(doc)
	return out.String()
}
