package opc

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	cerrors "github.com/FocuswithJustin/Slidecast/core/errors"
	"github.com/FocuswithJustin/Slidecast/internal/xmlutil"

	"github.com/antchfx/xmlquery"
)

// Relationship is one typed reference from an owning part to a target.
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string // "External" for links outside the package, else empty
}

// Relationships is the relationship set owned by one part.
type Relationships struct {
	owner string // owning part name, e.g. "ppt/slides/slide1.xml"
	rels  []Relationship
	byID  map[string]int
}

// RelsPartName returns the relationship part name for an owning part:
// "ppt/slides/slide1.xml" -> "ppt/slides/_rels/slide1.xml.rels".
func RelsPartName(owner string) string {
	dir := path.Dir(owner)
	if dir == "." {
		return "_rels/" + path.Base(owner) + ".rels"
	}
	return dir + "/_rels/" + path.Base(owner) + ".rels"
}

// LoadRelationships parses the relationship part for owner. An absent
// relationship part yields an empty, appendable index, not an error.
func LoadRelationships(pkg *Package, owner string) (*Relationships, error) {
	r := &Relationships{owner: owner, byID: make(map[string]int)}

	relsName := RelsPartName(owner)
	if !pkg.Has(relsName) {
		return r, nil
	}
	doc, err := pkg.Doc(relsName)
	if err != nil {
		return nil, err
	}
	nodes, err := xmlquery.QueryAll(doc, "//Relationship")
	if err != nil {
		return nil, cerrors.Wrapf(err, "querying relationships of %s", owner)
	}
	for _, n := range nodes {
		r.add(Relationship{
			ID:         n.SelectAttr("Id"),
			Type:       n.SelectAttr("Type"),
			Target:     n.SelectAttr("Target"),
			TargetMode: n.SelectAttr("TargetMode"),
		})
	}
	return r, nil
}

func (r *Relationships) add(rel Relationship) {
	r.byID[rel.ID] = len(r.rels)
	r.rels = append(r.rels, rel)
}

// Owner returns the part name that owns this relationship set.
func (r *Relationships) Owner() string {
	return r.owner
}

// Len returns the number of relationships in the set.
func (r *Relationships) Len() int {
	return len(r.rels)
}

// All returns every relationship in document order.
func (r *Relationships) All() []Relationship {
	out := make([]Relationship, len(r.rels))
	copy(out, r.rels)
	return out
}

// Resolve looks up a relationship by id.
func (r *Relationships) Resolve(id string) (Relationship, error) {
	i, ok := r.byID[id]
	if !ok {
		return Relationship{}, cerrors.NewUnknownRelationship(r.owner, id)
	}
	return r.rels[i], nil
}

// ByType returns every relationship of the given type, in document order.
func (r *Relationships) ByType(relType string) []Relationship {
	var out []Relationship
	for _, rel := range r.rels {
		if rel.Type == relType {
			out = append(out, rel)
		}
	}
	return out
}

// FirstOfType returns the first relationship of the given type, if any.
func (r *Relationships) FirstOfType(relType string) (Relationship, bool) {
	for _, rel := range r.rels {
		if rel.Type == relType {
			return rel, true
		}
	}
	return Relationship{}, false
}

var numericSuffixRe = regexp.MustCompile(`\d+`)

// AllocateID returns a fresh id under prefix: one greater than the
// largest numeric suffix already present. Ids are never reused; calling
// AllocateID after Append always moves forward.
func (r *Relationships) AllocateID(prefix string) string {
	max := 0
	for _, rel := range r.rels {
		digits := numericSuffixRe.FindAllString(rel.ID, -1)
		if len(digits) == 0 {
			continue
		}
		n, err := strconv.Atoi(strings.Join(digits, ""))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return prefix + strconv.Itoa(max+1)
}

// Append inserts a new relationship at the end of the set.
func (r *Relationships) Append(rel Relationship) {
	r.add(rel)
}

// ResolveTarget normalizes a relationship target against the owning
// part's directory: ("ppt/slides/slide1.xml", "../media/image1.png")
// -> "ppt/media/image1.png". Package-absolute targets keep their path.
func ResolveTarget(owner, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(path.Dir(owner), target))
}

// Save serializes the set back into the package as the owner's
// relationship part.
func (r *Relationships) Save(pkg *Package) {
	var b strings.Builder
	b.WriteString(xmlutil.Declaration)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, rel := range r.rels {
		b.WriteString(`<Relationship Id="`)
		b.WriteString(xmlutil.EscapeAttr(rel.ID))
		b.WriteString(`" Type="`)
		b.WriteString(xmlutil.EscapeAttr(rel.Type))
		b.WriteString(`" Target="`)
		b.WriteString(xmlutil.EscapeAttr(rel.Target))
		b.WriteString(`"`)
		if rel.TargetMode != "" {
			b.WriteString(` TargetMode="`)
			b.WriteString(xmlutil.EscapeAttr(rel.TargetMode))
			b.WriteString(`"`)
		}
		b.WriteString(`/>`)
	}
	b.WriteString(`</Relationships>`)
	pkg.SetBytes(RelsPartName(r.owner), []byte(b.String()))
}
