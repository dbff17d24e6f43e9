package xmlsource

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/ginjaninja78/country-normalizer/internal/config"
)

var attrName = regexp.MustCompile(`^(\*|[A-Za-z_][\w.\-]*(:[A-Za-z_][\w.\-]*)?)$`)

// Expression is a compiled path expression: an element path, optionally
// followed by "/@name" (one attribute) or "/@*" (every attribute).
type Expression struct {
	source   string
	elements etree.Path
	absolute bool
	attr     string
}

// ParsePath compiles expr. Paths that start with "/" are evaluated against
// the document, others against the root element.
func ParsePath(expr string) (*Expression, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return nil, config.Errorf("xml path expression is empty")
	}

	e := &Expression{source: s}
	elemPart := s
	switch {
	case strings.HasPrefix(s, "@"):
		elemPart, e.attr = ".", s[1:]
	default:
		if i := strings.LastIndex(s, "/@"); i >= 0 && !strings.ContainsAny(s[i+2:], "/[]") {
			elemPart, e.attr = s[:i], s[i+2:]
		}
	}
	if e.attr != "" || strings.HasSuffix(s, "@") {
		if !attrName.MatchString(e.attr) {
			return nil, config.Errorf("invalid attribute selector in xml path %q", s)
		}
		if elemPart == "" {
			return nil, config.Errorf("xml path %q selects an attribute without an element", s)
		}
	}

	p, err := etree.CompilePath(elemPart)
	if err != nil {
		return nil, config.Errorf("invalid xml path %q: %w", s, err)
	}
	e.elements = p
	e.absolute = strings.HasPrefix(elemPart, "/")
	return e, nil
}

// String returns the expression as written.
func (e *Expression) String() string {
	return e.source
}

// Match returns the nodes of doc selected by the expression, in document
// order.
func (e *Expression) Match(doc *etree.Document) []MatchedNode {
	var elems []*etree.Element
	if e.absolute {
		elems = doc.FindElementsPath(e.elements)
	} else if root := doc.Root(); root != nil {
		elems = root.FindElementsPath(e.elements)
	}

	var nodes []MatchedNode
	for _, el := range elems {
		switch e.attr {
		case "":
			nodes = append(nodes, elementNode(el))
		case "*":
			for i := range el.Attr {
				nodes = append(nodes, attributeNode(el, &el.Attr[i]))
			}
		default:
			if a := el.SelectAttr(e.attr); a != nil {
				nodes = append(nodes, attributeNode(el, a))
			}
		}
	}
	return nodes
}
