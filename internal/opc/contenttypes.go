package opc

import (
	"github.com/antchfx/xmlquery"

	cerrors "github.com/FocuswithJustin/Slidecast/core/errors"
	"github.com/FocuswithJustin/Slidecast/internal/xmlutil"
)

// SlideContentType is the declared content type of a slide part.
const SlideContentType = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"

const contentTypesNS = "http://schemas.openxmlformats.org/package/2006/content-types"

// EnsureOverride registers partName (a package path without leading
// slash) in [Content_Types].xml with the given content type, unless an
// Override for it already exists. New slide parts must be registered or
// the package is not well formed.
func (pkg *Package) EnsureOverride(partName, contentType string) error {
	doc, err := pkg.Doc(ContentTypesPart)
	if err != nil {
		return err
	}
	root, err := xmlquery.Query(doc, "/Types")
	if err != nil || root == nil {
		return cerrors.NewValidation(ContentTypesPart, "missing Types root element")
	}

	want := "/" + partName
	existing, err := xmlquery.QueryAll(root, "Override")
	if err != nil {
		return cerrors.Wrap(err, "querying content type overrides")
	}
	for _, n := range existing {
		if n.SelectAttr("PartName") == want {
			return nil
		}
	}

	override := xmlutil.NewElement("", "Override", contentTypesNS)
	xmlutil.SetAttr(override, "", "PartName", want)
	xmlutil.SetAttr(override, "", "ContentType", contentType)
	xmlutil.AppendChild(root, override)

	part, err := pkg.Part(ContentTypesPart)
	if err != nil {
		return err
	}
	part.MarkDirty()
	return nil
}
