package slide

import (
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/Slidecast/core/visibility"
	"github.com/FocuswithJustin/Slidecast/internal/xmlutil"
)

const slideHeader = `<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
	` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
	` xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`

func sp(id, name string) string {
	return `<p:sp><p:nvSpPr><p:cNvPr id="` + id + `" name="` + name + `"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/></p:sp>`
}

func buildSlide(shapes, timing string) []byte {
	s := slideHeader + `<p:cSld><p:spTree>` + shapes + `</p:spTree></p:cSld>`
	if timing != "" {
		s += `<p:timing>` + timing + `</p:timing>`
	}
	return []byte(s + `</p:sld>`)
}

func TestShapeIDs(t *testing.T) {
	raw := buildSlide(
		sp("2", "Title")+
			`<p:pic><p:nvPicPr><p:cNvPr id="3" name="Picture"/></p:nvPicPr></p:pic>`+
			`<p:grpSp><p:nvGrpSpPr><p:cNvPr id="4" name="Group"/></p:nvGrpSpPr>`+sp("5", "Member")+`</p:grpSp>`,
		"")
	doc, err := xmlutil.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}

	ids := ShapeIDs(doc)
	want := map[int]bool{2: true, 3: true, 4: true, 5: true}
	if len(ids) != len(want) {
		t.Fatalf("ShapeIDs = %v, want ids %v", ids, want)
	}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected shape id %d", id)
		}
	}
}

func TestMaterializeStripsTiming(t *testing.T) {
	raw := buildSlide(sp("2", "Title"), `<p:tnLst><p:par><p:cTn id="1"/></p:par></p:tnLst>`)
	out, err := Materialize(raw, visibility.Snapshot{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "p:timing") {
		t.Errorf("timing subtree survived materialization:\n%s", out)
	}
	if !strings.Contains(string(out), `id="2"`) {
		t.Error("visible shape was removed")
	}
	if !strings.HasPrefix(string(out), xmlutil.Declaration) {
		t.Error("output missing XML declaration")
	}
}

func TestMaterializeRemovesHiddenShapes(t *testing.T) {
	raw := buildSlide(sp("2", "Keep")+sp("3", "Drop"), "")
	out, err := Materialize(raw, visibility.Snapshot{3: false})
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, `name="Keep"`) {
		t.Error("visible shape removed")
	}
	if strings.Contains(s, `name="Drop"`) {
		t.Error("hidden shape survived")
	}
}

func TestMaterializeUntrackedShapesStay(t *testing.T) {
	raw := buildSlide(sp("2", "Untracked"), "")
	out, err := Materialize(raw, visibility.Snapshot{9: false})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `name="Untracked"`) {
		t.Error("shape absent from the snapshot should stay visible")
	}
}

func TestMaterializeGroupBoundaries(t *testing.T) {
	group := `<p:grpSp><p:nvGrpSpPr><p:cNvPr id="4" name="Group"/></p:nvGrpSpPr>` +
		sp("5", "InGroup") + sp("6", "AlsoInGroup") + `</p:grpSp>`

	t.Run("hidden group takes members with it", func(t *testing.T) {
		out, err := Materialize(buildSlide(group, ""), visibility.Snapshot{4: false, 5: false})
		if err != nil {
			t.Fatal(err)
		}
		s := string(out)
		for _, name := range []string{"Group", "InGroup", "AlsoInGroup"} {
			if strings.Contains(s, `name="`+name+`"`) {
				t.Errorf("%s survived removal of its group", name)
			}
		}
	})

	t.Run("hidden member leaves the group intact", func(t *testing.T) {
		out, err := Materialize(buildSlide(group, ""), visibility.Snapshot{5: false})
		if err != nil {
			t.Fatal(err)
		}
		s := string(out)
		if strings.Contains(s, `name="InGroup"`) {
			t.Error("hidden group member survived")
		}
		if !strings.Contains(s, `name="Group"`) || !strings.Contains(s, `name="AlsoInGroup"`) {
			t.Error("group or sibling removed with the hidden member")
		}
	})
}

func TestMaterializeDoesNotMutateInput(t *testing.T) {
	raw := buildSlide(sp("2", "A")+sp("3", "B"), "")
	orig := string(raw)

	if _, err := Materialize(raw, visibility.Snapshot{2: false}); err != nil {
		t.Fatal(err)
	}
	if string(raw) != orig {
		t.Error("materialization mutated the input bytes")
	}

	// A second materialization from the same bytes sees all shapes again.
	out, err := Materialize(raw, visibility.Snapshot{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `name="A"`) {
		t.Error("second materialization missing a shape removed by the first")
	}
}

func TestMaterializeMalformedXML(t *testing.T) {
	if _, err := Materialize([]byte("<p:sld"), visibility.Snapshot{}); err == nil {
		t.Error("expected an error for unparsable slide bytes")
	}
}

func TestShapeIDsIgnoresUnparsable(t *testing.T) {
	raw := buildSlide(`<p:sp><p:nvSpPr><p:cNvPr id="abc" name="Bad"/></p:nvSpPr></p:sp>`+sp("7", "Good"), "")
	doc, err := xmlquery.Parse(strings.NewReader(string(raw)))
	if err != nil {
		t.Fatal(err)
	}
	ids := ShapeIDs(doc)
	if len(ids) != 1 || ids[0] != 7 {
		t.Errorf("ShapeIDs = %v, want [7]", ids)
	}
}
