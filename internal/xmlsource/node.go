package xmlsource

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// NodeKind tells which part of the document a MatchedNode points at.
type NodeKind int

const (
	// ElementNode is the first non-blank text of an element.
	ElementNode NodeKind = iota + 1

	// AttributeNode is the value of one attribute.
	AttributeNode
)

func (k NodeKind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case AttributeNode:
		return "attribute"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// MatchedNode is a value selected by a path expression.
type MatchedNode struct {
	Kind NodeKind
	elem *etree.Element
	attr *etree.Attr
}

func elementNode(e *etree.Element) MatchedNode {
	return MatchedNode{Kind: ElementNode, elem: e}
}

func attributeNode(e *etree.Element, a *etree.Attr) MatchedNode {
	return MatchedNode{Kind: AttributeNode, elem: e, attr: a}
}

// Value returns the node's current text.
func (n MatchedNode) Value() string {
	switch n.Kind {
	case ElementNode:
		if cd := textData(n.elem); cd != nil {
			return cd.Data
		}
		return n.elem.Text()
	case AttributeNode:
		return n.attr.Value
	default:
		return ""
	}
}

// SetValue replaces the node's text. Element text that was written as a
// CDATA section stays one. Comments and other text around it are kept.
func (n MatchedNode) SetValue(v string) {
	switch n.Kind {
	case ElementNode:
		if cd := textData(n.elem); cd != nil {
			cd.SetData(v)
			return
		}
		n.elem.SetText(v)
	case AttributeNode:
		n.attr.Value = v
	}
}

// Describe names the node for log output, e.g. "country" or "place/@code".
func (n MatchedNode) Describe() string {
	switch n.Kind {
	case ElementNode:
		return n.elem.FullTag()
	case AttributeNode:
		return n.elem.FullTag() + "/@" + n.attr.FullKey()
	default:
		return n.Kind.String()
	}
}

// textData returns the first character data child of e that is not blank,
// skipping comments and processing instructions before it.
func textData(e *etree.Element) *etree.CharData {
	for _, tok := range e.Child {
		if cd, ok := tok.(*etree.CharData); ok && strings.TrimSpace(cd.Data) != "" {
			return cd
		}
	}
	return nil
}
