// Package opc implements the Open Packaging Conventions container layer:
// a zip archive of path-addressed parts plus per-part relationship sets.
// Parts that are never touched survive a load/save round trip
// byte-for-byte.
package opc

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/antchfx/xmlquery"

	cerrors "github.com/FocuswithJustin/Slidecast/core/errors"
	"github.com/FocuswithJustin/Slidecast/internal/xmlutil"
)

// Well-known part names and relationship types in a presentation package.
const (
	PresentationPart     = "ppt/presentation.xml"
	PresentationRelsPart = "ppt/_rels/presentation.xml.rels"
	ContentTypesPart     = "[Content_Types].xml"

	SlideRelType    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	ImageRelType    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	NotesRelType    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
	CommentsRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Part is one named document inside the package. It holds the raw bytes
// from the source archive and, once requested, a parsed XML tree. A part
// whose tree was mutated must be marked dirty so Save re-serializes it.
type Part struct {
	Name  string
	data  []byte
	doc   *xmlquery.Node
	dirty bool
}

// Bytes returns the part content, serializing a dirty tree on demand.
func (p *Part) Bytes() []byte {
	if p.dirty && p.doc != nil {
		p.data = xmlutil.Serialize(p.doc)
		p.dirty = false
	}
	return p.data
}

// Doc returns the part parsed as XML, caching the tree.
func (p *Part) Doc() (*xmlquery.Node, error) {
	if p.doc == nil {
		doc, err := xmlutil.Parse(p.data)
		if err != nil {
			return nil, cerrors.Wrapf(err, "parsing part %s", p.Name)
		}
		p.doc = doc
	}
	return p.doc, nil
}

// MarkDirty flags the part so Save serializes its tree instead of the
// original bytes.
func (p *Part) MarkDirty() {
	p.dirty = true
}

// Package is an in-memory presentation package. A Package is not safe
// for concurrent mutation from multiple goroutines; one conversion run
// owns it exclusively.
type Package struct {
	source string
	parts  map[string]*Part
	order  []string // zip entry order; new parts are appended
}

// Open loads every part of the archive at path into memory.
func Open(path string) (*Package, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, cerrors.NewCorruptArchive(path, err)
	}
	defer r.Close()

	pkg := &Package{
		source: path,
		parts:  make(map[string]*Part, len(r.File)),
	}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, cerrors.NewCorruptArchive(path, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, cerrors.NewCorruptArchive(path, err)
		}
		pkg.parts[f.Name] = &Part{Name: f.Name, data: data}
		pkg.order = append(pkg.order, f.Name)
	}
	return pkg, nil
}

// Has reports whether the named part exists.
func (pkg *Package) Has(name string) bool {
	_, ok := pkg.parts[name]
	return ok
}

// Part returns the named part or a PartNotFoundError.
func (pkg *Package) Part(name string) (*Part, error) {
	p, ok := pkg.parts[name]
	if !ok {
		return nil, cerrors.NewPartNotFound(name)
	}
	return p, nil
}

// Bytes returns the named part's content.
func (pkg *Package) Bytes(name string) ([]byte, error) {
	p, err := pkg.Part(name)
	if err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

// Doc returns the named part parsed as XML.
func (pkg *Package) Doc(name string) (*xmlquery.Node, error) {
	p, err := pkg.Part(name)
	if err != nil {
		return nil, err
	}
	return p.Doc()
}

// SetBytes upserts a part with raw content. An existing part loses any
// parsed tree; a new part is appended to the save order.
func (pkg *Package) SetBytes(name string, data []byte) {
	if p, ok := pkg.parts[name]; ok {
		p.data = data
		p.doc = nil
		p.dirty = false
		return
	}
	pkg.parts[name] = &Part{Name: name, data: data}
	pkg.order = append(pkg.order, name)
}

// PartNames returns all part names in save order.
func (pkg *Package) PartNames() []string {
	names := make([]string, len(pkg.order))
	copy(names, pkg.order)
	return names
}

// SlideParts returns the slide part names sorted by numeric suffix.
func (pkg *Package) SlideParts() []string {
	var slides []string
	for _, name := range pkg.order {
		if slidePartRe.MatchString(name) {
			slides = append(slides, name)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		return SlideNumber(slides[i]) < SlideNumber(slides[j])
	})
	return slides
}

// MaxSlideNumber returns the highest numeric suffix among slide parts,
// or zero when the package has none.
func (pkg *Package) MaxSlideNumber() int {
	max := 0
	for name := range pkg.parts {
		if n := SlideNumber(name); n > max {
			max = n
		}
	}
	return max
}

// SlideNumber extracts the numeric suffix from a slide part name,
// returning zero for non-slide parts.
func SlideNumber(name string) int {
	m := slidePartRe.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// SlidePartName builds the part name for a slide number.
func SlidePartName(num int) string {
	return "ppt/slides/slide" + strconv.Itoa(num) + ".xml"
}

// Save writes every current part to a new archive at dst. The write is
// atomic from the caller's point of view: the archive is built in a
// scratch file beside dst and renamed into place only when complete.
func (pkg *Package) Save(dst string) error {
	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, ".slidecast-*.tmp")
	if err != nil {
		return cerrors.NewIO("create", dst, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	zw := zip.NewWriter(tmp)
	for _, name := range pkg.order {
		part := pkg.parts[name]
		w, err := zw.Create(name)
		if err != nil {
			cleanup()
			return cerrors.NewIO("write", dst, err)
		}
		if _, err := w.Write(part.Bytes()); err != nil {
			cleanup()
			return cerrors.NewIO("write", dst, err)
		}
	}
	if err := zw.Close(); err != nil {
		cleanup()
		return cerrors.NewIO("write", dst, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return cerrors.NewIO("write", dst, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return cerrors.NewIO("rename", dst, err)
	}
	return nil
}
