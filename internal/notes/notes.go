// Package notes extracts speaker-notes text from a presentation.
package notes

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/Slidecast/internal/opc"
	"github.com/FocuswithJustin/Slidecast/internal/xmlutil"
)

// Note is one slide's speaker notes.
type Note struct {
	// Slide is the 1-based position among the deck's slide parts.
	Slide int `json:"slide"`
	// Text is the notes body, empty when the slide has no notes part.
	Text string `json:"text"`
}

// Extract returns the notes of every visible slide in part order.
// Hidden slides (show="0" or "false" on the slide root, prefixed or
// bare) are skipped.
func Extract(pkg *opc.Package) ([]Note, error) {
	var out []Note
	for idx, part := range pkg.SlideParts() {
		doc, err := pkg.Doc(part)
		if err != nil {
			return nil, err
		}
		if slideHidden(doc) {
			continue
		}

		text, err := notesText(pkg, part)
		if err != nil {
			return nil, err
		}
		out = append(out, Note{Slide: idx + 1, Text: text})
	}
	return out, nil
}

func slideHidden(doc *xmlquery.Node) bool {
	root := xmlquery.FindOne(doc, "/p:sld")
	if root == nil {
		return false
	}
	v := xmlutil.Attr(root, "p", "show")
	return v == "0" || strings.EqualFold(v, "false")
}

// notesText resolves the slide's notes relationship and flattens the
// notes part's text runs, one line per paragraph.
func notesText(pkg *opc.Package, slidePart string) (string, error) {
	rels, err := opc.LoadRelationships(pkg, slidePart)
	if err != nil {
		return "", err
	}
	rel, ok := rels.FirstOfType(opc.NotesRelType)
	if !ok {
		return "", nil
	}

	notesPart := opc.ResolveTarget(slidePart, rel.Target)
	if !pkg.Has(notesPart) {
		return "", nil
	}
	doc, err := pkg.Doc(notesPart)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, para := range xmlquery.Find(doc, "//p:txBody/a:p") {
		var sb strings.Builder
		for _, run := range xmlquery.Find(para, ".//a:t") {
			sb.WriteString(run.InnerText())
		}
		lines = append(lines, sb.String())
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
