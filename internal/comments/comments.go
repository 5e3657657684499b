// Package comments extracts review comments from a presentation,
// resolving authors from the deck's comment-author parts.
package comments

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/Slidecast/internal/opc"
)

// Comment is one review comment on a slide.
type Comment struct {
	Slide  int    `json:"slide"` // 1-based position among the deck's slide parts
	Author string `json:"author"`
	Date   string `json:"date,omitempty"` // the dt attribute as written
	Text   string `json:"text"`
}

// Extract returns every slide comment in part order. Comments whose
// author id has no matching author entry are reported as "Unknown".
func Extract(pkg *opc.Package) ([]Comment, error) {
	authors, err := authorMap(pkg)
	if err != nil {
		return nil, err
	}

	var out []Comment
	for idx, part := range pkg.SlideParts() {
		rels, err := opc.LoadRelationships(pkg, part)
		if err != nil {
			return nil, err
		}
		rel, ok := rels.FirstOfType(opc.CommentsRelType)
		if !ok {
			continue
		}
		cmPart := opc.ResolveTarget(part, rel.Target)
		if !pkg.Has(cmPart) {
			continue
		}
		doc, err := pkg.Doc(cmPart)
		if err != nil {
			return nil, err
		}

		for _, cm := range xmlquery.Find(doc, "//p:cm") {
			author, ok := authors[cm.SelectAttr("authorId")]
			if !ok {
				author = "Unknown"
			}
			text := ""
			if t := xmlquery.FindOne(cm, ".//p:text"); t != nil {
				text = strings.TrimSpace(t.InnerText())
			}
			out = append(out, Comment{
				Slide:  idx + 1,
				Author: author,
				Date:   cm.SelectAttr("dt"),
				Text:   text,
			})
		}
	}
	return out, nil
}

// authorMap collects id -> name from every comment-author part.
func authorMap(pkg *opc.Package) (map[string]string, error) {
	authors := make(map[string]string)
	for _, name := range pkg.PartNames() {
		if !strings.HasPrefix(name, "ppt/commentAuthors") || !strings.HasSuffix(name, ".xml") {
			continue
		}
		doc, err := pkg.Doc(name)
		if err != nil {
			return nil, err
		}
		for _, n := range xmlquery.Find(doc, "//p:cmAuthor") {
			authors[n.SelectAttr("id")] = n.SelectAttr("name")
		}
	}
	return authors, nil
}
