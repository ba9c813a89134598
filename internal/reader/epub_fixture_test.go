package reader

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fixtureChapter struct {
	id    string
	title string
	body  string
}

type fixture struct {
	title    string
	chapters []fixtureChapter
	// spine lists chapter ids in reading order; defaults to chapter order.
	spine []string
	ncx   bool
	cover []byte
	// missing lists manifest ids whose documents are absent from the archive.
	missing []string
}

// writeEPUB builds a minimal EPUB 2 container in dir and returns its path.
func writeEPUB(t *testing.T, dir, name string, fx fixture) string {
	t.Helper()

	p := filepath.Join(dir, name)
	out, err := os.Create(p)
	if err != nil {
		t.Fatalf("create epub: %v", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	add := func(name, body string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}

	add("mimetype", "application/epub+zip")
	add("META-INF/container.xml", `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`)

	var manifest, spine, nav strings.Builder
	for i, ch := range fx.chapters {
		fmt.Fprintf(&manifest, `    <item id="%s" href="%s.xhtml" media-type="application/xhtml+xml"/>`+"\n", ch.id, ch.id)
		add("OEBPS/"+ch.id+".xhtml", fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>%s</title><style>p { margin: 0 }</style></head>
<body>%s</body>
</html>`, ch.title, ch.body))
		fmt.Fprintf(&nav, `    <navPoint id="np%d" playOrder="%d"><navLabel><text>%s</text></navLabel><content src="%s.xhtml"/></navPoint>`+"\n",
			i+1, i+1, ch.title, ch.id)
	}

	for _, id := range fx.missing {
		fmt.Fprintf(&manifest, `    <item id="%s" href="%s.xhtml" media-type="application/xhtml+xml"/>`+"\n", id, id)
	}

	order := fx.spine
	if order == nil {
		for _, ch := range fx.chapters {
			order = append(order, ch.id)
		}
	}
	for _, id := range order {
		fmt.Fprintf(&spine, `    <itemref idref="%s"/>`+"\n", id)
	}

	spineAttr := ""
	if fx.ncx {
		manifest.WriteString(`    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>` + "\n")
		spineAttr = ` toc="ncx"`
		add("OEBPS/toc.ncx", `<?xml version="1.0" encoding="utf-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
`+nav.String()+`  </navMap>
</ncx>`)
	}
	if fx.cover != nil {
		manifest.WriteString(`    <item id="cover-image" href="images/cover.png" media-type="image/png"/>` + "\n")
		w, err := zw.Create("OEBPS/images/cover.png")
		if err != nil {
			t.Fatalf("zip create cover: %v", err)
		}
		w.Write(fx.cover)
	}

	add("OEBPS/content.opf", fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>%s</dc:title>
    <dc:identifier id="id">urn:uuid:00000000-0000-0000-0000-000000000000</dc:identifier>
  </metadata>
  <manifest>
%s  </manifest>
  <spine%s>
%s  </spine>
</package>`, fx.title, manifest.String(), spineAttr, spine.String()))

	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return p
}
