// Package unhide reveals hidden slides: it clears the per-slide show
// attribute and the slide-list hidden flag so every slide renders.
package unhide

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/Slidecast/internal/opc"
	"github.com/FocuswithJustin/Slidecast/internal/xmlutil"
)

// Result counts what Run changed.
type Result struct {
	// SlidesShown is the number of slide parts whose show attribute was
	// cleared.
	SlidesShown int
	// ListEntriesShown is the number of slide-list entries whose hidden
	// flag was removed.
	ListEntriesShown int
}

// Run reveals every hidden slide in the package. Both the prefixed and
// the bare show attribute are checked because generators disagree on
// which one they write.
func Run(pkg *opc.Package) (*Result, error) {
	res := &Result{}

	for _, part := range pkg.SlideParts() {
		doc, err := pkg.Doc(part)
		if err != nil {
			return nil, err
		}
		root := xmlquery.FindOne(doc, "/p:sld")
		if root == nil {
			continue
		}
		if unhideRoot(root) {
			p, err := pkg.Part(part)
			if err != nil {
				return nil, err
			}
			p.MarkDirty()
			res.SlidesShown++
		}
	}

	presDoc, err := pkg.Doc(opc.PresentationPart)
	if err != nil {
		return nil, err
	}
	for _, sldID := range xmlquery.Find(presDoc, "//p:sldId[@hidden='1']") {
		xmlutil.RemoveAttr(sldID, "", "hidden")
		res.ListEntriesShown++
	}
	if res.ListEntriesShown > 0 {
		p, err := pkg.Part(opc.PresentationPart)
		if err != nil {
			return nil, err
		}
		p.MarkDirty()
	}

	return res, nil
}

func unhideRoot(root *xmlquery.Node) bool {
	changed := false
	for _, space := range []string{"", "p"} {
		v := xmlutil.Attr(root, space, "show")
		if v == "0" || strings.EqualFold(v, "false") {
			xmlutil.SetAttr(root, space, "show", "1")
			changed = true
		}
	}
	return changed
}
