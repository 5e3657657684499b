// Package deck orchestrates whole-deck conversion: classifying each
// slide's timing tree, computing visibility snapshots, materializing
// static slides and splicing them into the package's slide list.
package deck

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	cerrors "github.com/FocuswithJustin/Slidecast/core/errors"
	"github.com/FocuswithJustin/Slidecast/internal/opc"
	"github.com/FocuswithJustin/Slidecast/internal/xmlutil"
)

const pmlNS = "http://schemas.openxmlformats.org/presentationml/2006/main"

// slideEntry pairs a p:sldId node with the slide part it references.
type slideEntry struct {
	node  *xmlquery.Node
	relID string
	part  string
}

// splicer owns the mutable deck state for one conversion run: the slide
// list, the deck-level relationship index, and the running counters for
// slide part numbers and slide-list ids. Counters only ever move
// forward; a number is never reused even across multiple insertions.
type splicer struct {
	pkg      *opc.Package
	presDoc  *xmlquery.Node
	sldIDLst *xmlquery.Node
	presRels *opc.Relationships

	slideNum int // highest slide part number seen or allocated
	sldID    int // highest slide-list id seen or allocated
}

func newSplicer(pkg *opc.Package) (*splicer, error) {
	presDoc, err := pkg.Doc(opc.PresentationPart)
	if err != nil {
		return nil, err
	}
	sldIDLst := xmlquery.FindOne(presDoc, "//p:sldIdLst")
	if sldIDLst == nil {
		return nil, cerrors.NewValidation(opc.PresentationPart, "missing sldIdLst element")
	}
	presRels, err := opc.LoadRelationships(pkg, opc.PresentationPart)
	if err != nil {
		return nil, err
	}

	s := &splicer{
		pkg:      pkg,
		presDoc:  presDoc,
		sldIDLst: sldIDLst,
		presRels: presRels,
		slideNum: pkg.MaxSlideNumber(),
	}
	entries, err := s.slideEntries()
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if id, err := strconv.Atoi(xmlutil.Attr(entry.node, "", "id")); err == nil && id > s.sldID {
			s.sldID = id
		}
	}
	return s, nil
}

// slideEntries returns the current slide-list entries in presentation
// order, resolved to slide part names. Entries of non-slide relationship
// types are skipped; an entry whose relationship id has no deck-level
// mapping makes the slide list unresolvable, which is fatal.
func (s *splicer) slideEntries() ([]slideEntry, error) {
	var entries []slideEntry
	for n := s.sldIDLst.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode || n.Data != "sldId" {
			continue
		}
		relID := xmlutil.Attr(n, "r", "id")
		rel, err := s.presRels.Resolve(relID)
		if err != nil {
			return nil, err
		}
		if !strings.HasSuffix(rel.Type, "/slide") {
			continue
		}
		entries = append(entries, slideEntry{
			node:  n,
			relID: relID,
			part:  opc.ResolveTarget(opc.PresentationPart, rel.Target),
		})
	}
	return entries, nil
}

// insertAfter writes data as a freshly numbered slide part, wires its
// relationships, registers its content type, appends a deck-level slide
// relationship, and inserts a new slide-list entry immediately after
// anchor. It returns the new entry's node so repeated insertions for
// one source stay contiguous and in emission order.
func (s *splicer) insertAfter(anchor *xmlquery.Node, data []byte, srcPart string) (*xmlquery.Node, error) {
	s.slideNum++
	partName := opc.SlidePartName(s.slideNum)
	s.pkg.SetBytes(partName, data)

	if err := s.cloneRels(srcPart, partName); err != nil {
		return nil, err
	}
	if err := s.pkg.EnsureOverride(partName, opc.SlideContentType); err != nil {
		return nil, err
	}

	relID := s.presRels.AllocateID("rId")
	s.presRels.Append(opc.Relationship{
		ID:     relID,
		Type:   opc.SlideRelType,
		Target: "slides/slide" + strconv.Itoa(s.slideNum) + ".xml",
	})

	s.sldID++
	node := xmlutil.NewElement("p", "sldId", pmlNS)
	xmlutil.SetAttr(node, "", "id", strconv.Itoa(s.sldID))
	xmlutil.SetAttr(node, "r", "id", relID)
	xmlutil.InsertAfter(anchor, node)

	return node, nil
}

// cloneRels copies the source slide's .rels bytes unchanged onto the
// clone, so every per-slide reference (layout, media, hyperlinks) stays
// valid by id.
func (s *splicer) cloneRels(srcPart, dstPart string) error {
	srcRelsName := opc.RelsPartName(srcPart)
	if !s.pkg.Has(srcRelsName) {
		return nil
	}
	data, err := s.pkg.Bytes(srcRelsName)
	if err != nil {
		return err
	}
	s.pkg.SetBytes(opc.RelsPartName(dstPart), data)
	return nil
}

// replacePart swaps a slide part's content in place, keeping its part
// name, slide-list entry and relationships.
func (s *splicer) replacePart(partName string, data []byte) {
	s.pkg.SetBytes(partName, data)
}

// flush persists the mutated presentation document and deck-level
// relationship index back into the package.
func (s *splicer) flush() error {
	part, err := s.pkg.Part(opc.PresentationPart)
	if err != nil {
		return err
	}
	part.MarkDirty()
	s.presRels.Save(s.pkg)
	return nil
}
