// Package slide reads and rewrites individual slide parts: enumerating
// the shape universe and materializing static snapshots of it.
package slide

import (
	"strconv"

	"github.com/antchfx/xmlquery"

	cerrors "github.com/FocuswithJustin/Slidecast/core/errors"
	"github.com/FocuswithJustin/Slidecast/core/visibility"
	"github.com/FocuswithJustin/Slidecast/internal/xmlutil"
)

// shapeExpr matches every element kind that carries a shape id: plain
// shapes, pictures, graphic frames (tables/charts), group shapes and
// connectors.
const shapeExpr = "//p:sp | //p:pic | //p:graphicFrame | //p:grpSp | //p:cxnSp"

// ShapeIDs returns the ids of every shape on the slide, nested group
// members included. Elements without a parsable cNvPr id are ignored.
func ShapeIDs(doc *xmlquery.Node) []int {
	var ids []int
	for _, el := range shapeNodes(doc) {
		if id, ok := shapeID(el); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Materialize returns a static rendition of the slide: a fresh copy of
// raw with the whole p:timing subtree removed and every shape whose id
// the snapshot maps to hidden removed together with its descendants.
//
// Deletion happens at the element that carries the matched id: a group
// whose own id is hidden disappears entirely, while a hidden child
// inside an otherwise-visible group takes only its own subtree with it.
// Shape ids the snapshot does not track stay in place.
func Materialize(raw []byte, snap visibility.Snapshot) ([]byte, error) {
	doc, err := xmlutil.Parse(raw)
	if err != nil {
		return nil, cerrors.Wrap(err, "parsing slide part")
	}

	if timing := xmlquery.FindOne(doc, "//p:timing"); timing != nil {
		xmlutil.Remove(timing)
	}

	for _, el := range shapeNodes(doc) {
		id, ok := shapeID(el)
		if !ok || snap.Visible(id) {
			continue
		}
		if detached(el) {
			continue // an already-removed ancestor took this subtree with it
		}
		xmlutil.Remove(el)
	}

	return xmlutil.Serialize(doc), nil
}

func shapeNodes(doc *xmlquery.Node) []*xmlquery.Node {
	nodes, err := xmlquery.QueryAll(doc, shapeExpr)
	if err != nil {
		return nil
	}
	return nodes
}

// shapeID reads the id from the shape's non-visual properties element.
func shapeID(el *xmlquery.Node) (int, bool) {
	cNvPr := xmlquery.FindOne(el, ".//p:cNvPr")
	if cNvPr == nil {
		return 0, false
	}
	id, err := strconv.Atoi(cNvPr.SelectAttr("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

// detached reports whether el no longer hangs off a document root,
// which happens when a containing group was removed first.
func detached(el *xmlquery.Node) bool {
	for n := el; n != nil; n = n.Parent {
		if n.Type == xmlquery.DocumentNode {
			return false
		}
	}
	return true
}
