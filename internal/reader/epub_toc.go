package reader

import (
	"encoding/xml"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

const ncxMediaType = "application/x-dtbncx+xml"

// NCX XML structures for parsing toc.ncx
type ncx struct {
	NavMap navMap `xml:"navMap"`
}

type navMap struct {
	NavPoints []navPoint `xml:"navPoint"`
}

type navPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     navLabel   `xml:"navLabel"`
	Content   navContent `xml:"content"`
	Children  []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

// readNavPoints parses the NCX listed in the manifest. A book without one
// simply has no table of contents.
func readNavPoints(rf *epub.Rootfile) []navPoint {
	for i := range rf.Manifest.Items {
		item := &rf.Manifest.Items[i]
		if item.MediaType != ncxMediaType {
			continue
		}
		data, err := readItem(item)
		if err != nil {
			return nil
		}
		var toc ncx
		if err := xml.Unmarshal(data, &toc); err != nil {
			return nil
		}
		return toc.NavMap.NavPoints
	}
	return nil
}

// navTitles maps each nav point href (with and without fragment, full and
// base name) to its label. The first label for an href wins.
func navTitles(points []navPoint) map[string]string {
	result := make(map[string]string)

	var extract func(points []navPoint)
	extract = func(points []navPoint) {
		for _, np := range points {
			href := stripFragment(np.Content.Src)
			title := strings.TrimSpace(np.Label.Text)

			for _, k := range []string{href, path.Base(href)} {
				if _, exists := result[k]; !exists {
					result[k] = title
				}
			}
			extract(np.Children)
		}
	}
	extract(points)

	return result
}

func lookupHref(m map[string]string, href string) (string, bool) {
	if href == "" {
		return "", false
	}
	if t, ok := m[href]; ok {
		return t, true
	}
	t, ok := m[path.Base(href)]
	return t, ok
}

func stripFragment(href string) string {
	if idx := strings.Index(href, "#"); idx != -1 {
		return href[:idx]
	}
	return href
}

func flattenNavPoints(points []navPoint, spine map[string]int, level int) []TOCEntry {
	var entries []TOCEntry

	for _, np := range points {
		href := stripFragment(np.Content.Src)

		wordIndex := 0
		if idx, ok := spine[href]; ok {
			wordIndex = idx
		} else if idx, ok := spine[path.Base(href)]; ok {
			wordIndex = idx
		}

		entries = append(entries, TOCEntry{
			Title:     strings.TrimSpace(np.Label.Text),
			WordIndex: wordIndex,
			Level:     level,
		})
		if len(np.Children) > 0 {
			entries = append(entries, flattenNavPoints(np.Children, spine, level+1)...)
		}
	}

	return entries
}
