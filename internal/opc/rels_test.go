package opc

import (
	"errors"
	"strings"
	"testing"

	cerrors "github.com/FocuswithJustin/Slidecast/core/errors"
)

const relsNS = "http://schemas.openxmlformats.org/package/2006/relationships"

func TestRelsPartName(t *testing.T) {
	tests := []struct {
		owner string
		want  string
	}{
		{"ppt/presentation.xml", "ppt/_rels/presentation.xml.rels"},
		{"ppt/slides/slide1.xml", "ppt/slides/_rels/slide1.xml.rels"},
		{"root.xml", "_rels/root.xml.rels"},
	}
	for _, tt := range tests {
		if got := RelsPartName(tt.owner); got != tt.want {
			t.Errorf("RelsPartName(%s) = %s, want %s", tt.owner, got, tt.want)
		}
	}
}

func relsFixture(t *testing.T) *Package {
	t.Helper()
	entries := minimalEntries()
	entries = append(entries, zipEntry{
		"ppt/slides/_rels/slide1.xml.rels",
		`<?xml version="1.0"?><Relationships xmlns="` + relsNS + `">` +
			`<Relationship Id="rId1" Type="` + slideLayoutType + `" Target="../slideLayouts/slideLayout1.xml"/>` +
			`<Relationship Id="rId2" Type="` + ImageRelType + `" Target="../media/image1.png"/>` +
			`<Relationship Id="rId3" Type="http://example.com/link" Target="https://example.com" TargetMode="External"/>` +
			`</Relationships>`,
	})
	pkg, err := Open(writeArchive(t, entries))
	if err != nil {
		t.Fatal(err)
	}
	return pkg
}

// slideLayoutType is only used by the fixture above.
const slideLayoutType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"

func TestLoadRelationships(t *testing.T) {
	pkg := relsFixture(t)
	rels, err := LoadRelationships(pkg, "ppt/slides/slide1.xml")
	if err != nil {
		t.Fatal(err)
	}
	if rels.Len() != 3 {
		t.Fatalf("Len = %d, want 3", rels.Len())
	}
	if rels.Owner() != "ppt/slides/slide1.xml" {
		t.Errorf("Owner = %s", rels.Owner())
	}

	rel, err := rels.Resolve("rId2")
	if err != nil {
		t.Fatal(err)
	}
	if rel.Type != ImageRelType || rel.Target != "../media/image1.png" {
		t.Errorf("Resolve(rId2) = %+v", rel)
	}

	ext, err := rels.Resolve("rId3")
	if err != nil {
		t.Fatal(err)
	}
	if ext.TargetMode != "External" {
		t.Errorf("TargetMode = %q, want External", ext.TargetMode)
	}
}

func TestLoadRelationshipsAbsentPart(t *testing.T) {
	pkg := relsFixture(t)
	rels, err := LoadRelationships(pkg, "ppt/slides/slide2.xml")
	if err != nil {
		t.Fatal(err)
	}
	if rels.Len() != 0 {
		t.Errorf("Len = %d, want 0 for absent rels part", rels.Len())
	}
	// The empty set is still appendable.
	rels.Append(Relationship{ID: "rId1", Type: ImageRelType, Target: "../media/image2.png"})
	if rels.Len() != 1 {
		t.Error("Append on empty set failed")
	}
}

func TestResolveUnknown(t *testing.T) {
	pkg := relsFixture(t)
	rels, err := LoadRelationships(pkg, "ppt/slides/slide1.xml")
	if err != nil {
		t.Fatal(err)
	}
	_, err = rels.Resolve("rId99")
	if !errors.Is(err, cerrors.ErrUnknownRelationship) {
		t.Errorf("error %v is not ErrUnknownRelationship", err)
	}
}

func TestAllocateID(t *testing.T) {
	pkg := relsFixture(t)
	rels, err := LoadRelationships(pkg, "ppt/slides/slide1.xml")
	if err != nil {
		t.Fatal(err)
	}

	id := rels.AllocateID("rId")
	if id != "rId4" {
		t.Errorf("AllocateID = %s, want rId4", id)
	}
	rels.Append(Relationship{ID: id, Type: SlideRelType, Target: "slides/slide9.xml"})

	// Monotonic: the next allocation moves past the appended id.
	if next := rels.AllocateID("rId"); next != "rId5" {
		t.Errorf("second AllocateID = %s, want rId5", next)
	}
}

func TestAllocateIDEmptySet(t *testing.T) {
	r := &Relationships{owner: "x", byID: map[string]int{}}
	if got := r.AllocateID("rId"); got != "rId1" {
		t.Errorf("AllocateID on empty set = %s, want rId1", got)
	}
}

func TestByType(t *testing.T) {
	pkg := relsFixture(t)
	rels, err := LoadRelationships(pkg, "ppt/slides/slide1.xml")
	if err != nil {
		t.Fatal(err)
	}
	images := rels.ByType(ImageRelType)
	if len(images) != 1 || images[0].ID != "rId2" {
		t.Errorf("ByType = %+v", images)
	}
	if _, ok := rels.FirstOfType(NotesRelType); ok {
		t.Error("FirstOfType found a type the set lacks")
	}
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		owner  string
		target string
		want   string
	}{
		{"ppt/slides/slide1.xml", "../media/image1.png", "ppt/media/image1.png"},
		{"ppt/presentation.xml", "slides/slide2.xml", "ppt/slides/slide2.xml"},
		{"ppt/slides/slide1.xml", "/ppt/media/image1.png", "ppt/media/image1.png"},
		{"ppt/slides/slide1.xml", "../notesSlides/notesSlide1.xml", "ppt/notesSlides/notesSlide1.xml"},
	}
	for _, tt := range tests {
		if got := ResolveTarget(tt.owner, tt.target); got != tt.want {
			t.Errorf("ResolveTarget(%s, %s) = %s, want %s", tt.owner, tt.target, got, tt.want)
		}
	}
}

func TestRelationshipsSave(t *testing.T) {
	pkg := relsFixture(t)
	rels, err := LoadRelationships(pkg, "ppt/slides/slide1.xml")
	if err != nil {
		t.Fatal(err)
	}
	rels.Append(Relationship{ID: "rId4", Type: SlideRelType, Target: "slides/slide9.xml"})
	rels.Save(pkg)

	data, err := pkg.Bytes("ppt/slides/_rels/slide1.xml.rels")
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `Id="rId4"`) {
		t.Errorf("appended relationship missing:\n%s", s)
	}
	if !strings.Contains(s, `TargetMode="External"`) {
		t.Errorf("external target mode lost:\n%s", s)
	}

	// The rewritten part must load back identically.
	reloaded, err := LoadRelationships(pkg, "ppt/slides/slide1.xml")
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 4 {
		t.Errorf("reloaded Len = %d, want 4", reloaded.Len())
	}
}
