// Package xmlutil provides node construction and tree-surgery helpers on
// top of xmlquery, shared by the OPC layer and the deck splicer.
package xmlutil

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Declaration is the XML declaration PresentationML parts carry.
const Declaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`

// Parse parses a complete XML part into a document node.
func Parse(data []byte) (*xmlquery.Node, error) {
	return xmlquery.Parse(bytes.NewReader(data))
}

// Serialize renders a document node back to bytes with the standard
// declaration, regardless of whether the source carried one.
func Serialize(doc *xmlquery.Node) []byte {
	var buf bytes.Buffer
	buf.WriteString(Declaration)
	for child := doc.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.DeclarationNode {
			continue
		}
		buf.WriteString(child.OutputXML(true))
	}
	return buf.Bytes()
}

// NewElement creates a detached element node. prefix may be empty.
func NewElement(prefix, local, namespaceURI string) *xmlquery.Node {
	return &xmlquery.Node{
		Type:         xmlquery.ElementNode,
		Data:         local,
		Prefix:       prefix,
		NamespaceURI: namespaceURI,
	}
}

// SetAttr sets or replaces an attribute. space is the attribute's
// namespace prefix as written in the document (e.g. "r"), not a URI.
func SetAttr(n *xmlquery.Node, space, local, value string) {
	for i, a := range n.Attr {
		if a.Name.Local == local && a.Name.Space == space {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, xmlquery.Attr{
		Name:  xml.Name{Space: space, Local: local},
		Value: value,
	})
}

// Attr returns the value of the named attribute, trying the prefixed form
// first and falling back to the bare local name. Generator tools disagree
// on whether attributes like "show" carry the element's prefix.
func Attr(n *xmlquery.Node, space, local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local && a.Name.Space == space {
			return a.Value
		}
	}
	if space != "" {
		for _, a := range n.Attr {
			if a.Name.Local == local && a.Name.Space == "" {
				return a.Value
			}
		}
	}
	return ""
}

// RemoveAttr deletes an attribute if present, reporting whether it was.
func RemoveAttr(n *xmlquery.Node, space, local string) bool {
	for i, a := range n.Attr {
		if a.Name.Local == local && a.Name.Space == space {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return true
		}
	}
	return false
}

// AppendChild attaches n as the last child of parent.
func AppendChild(parent, n *xmlquery.Node) {
	n.Parent = parent
	n.NextSibling = nil
	if parent.FirstChild == nil {
		parent.FirstChild = n
		n.PrevSibling = nil
	} else {
		last := parent.LastChild
		last.NextSibling = n
		n.PrevSibling = last
	}
	parent.LastChild = n
}

// InsertAfter places n as the immediate next sibling of anchor.
func InsertAfter(anchor, n *xmlquery.Node) {
	n.Parent = anchor.Parent
	n.PrevSibling = anchor
	n.NextSibling = anchor.NextSibling
	if anchor.NextSibling != nil {
		anchor.NextSibling.PrevSibling = n
	} else if anchor.Parent != nil {
		anchor.Parent.LastChild = n
	}
	anchor.NextSibling = n
}

// Remove detaches n from its tree.
func Remove(n *xmlquery.Node) {
	xmlquery.RemoveFromTree(n)
}

// EscapeAttr escapes a string for use inside a double-quoted XML attribute.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)
