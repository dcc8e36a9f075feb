package htmlgen

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// elem builds an element node. attrs alternates key, value.
func elem(tag string, attrs ...string) *html.Node {
	if len(attrs)%2 != 0 {
		panic(fmt.Sprintf("elem(%s): odd attribute list", tag))
	}
	n := &html.Node{Type: html.ElementNode, Data: tag}
	for i := 0; i < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// text builds a text node.
func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// comment builds a comment node.
func comment(s string) *html.Node {
	return &html.Node{Type: html.CommentNode, Data: s}
}

// class returns the value of the node's class attribute.
func class(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "class" {
			return a.Val
		}
	}
	return ""
}

// hasClass reports whether the node carries the given class.
func hasClass(n *html.Node, want string) bool {
	for _, c := range strings.Fields(class(n)) {
		if c == want {
			return true
		}
	}
	return false
}

// addClass appends a class to the node's class attribute.
func addClass(n *html.Node, c string) {
	for i, a := range n.Attr {
		if a.Key == "class" {
			n.Attr[i].Val = a.Val + " " + c
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: c})
}

// RenderNode serializes a node subtree to HTML.
func RenderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// voidElements take no closing tag. html.Render writes them with an
// XML-style slash; HTML 4.01 writes them bare.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// rawTextElements hold text children that are emitted verbatim.
var rawTextElements = map[string]bool{"script": true, "style": true}

// RenderNodeHTML4 serializes a node subtree as HTML 4.01: void elements
// are written without the self-closing slash. Everything else matches
// RenderNode.
func RenderNodeHTML4(n *html.Node) (string, error) {
	var sb strings.Builder
	if err := renderHTML4(&sb, n, false); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderHTML4(sb *strings.Builder, n *html.Node, raw bool) error {
	switch n.Type {
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := renderHTML4(sb, c, raw); err != nil {
				return err
			}
		}
		return nil
	case html.TextNode:
		if raw {
			sb.WriteString(n.Data)
		} else {
			sb.WriteString(html.EscapeString(n.Data))
		}
		return nil
	case html.CommentNode:
		sb.WriteString("<!--")
		sb.WriteString(n.Data)
		sb.WriteString("-->")
		return nil
	case html.ElementNode:
		sb.WriteByte('<')
		sb.WriteString(n.Data)
		for _, a := range n.Attr {
			sb.WriteByte(' ')
			sb.WriteString(a.Key)
			sb.WriteString(`="`)
			sb.WriteString(html.EscapeString(a.Val))
			sb.WriteByte('"')
		}
		sb.WriteByte('>')
		if voidElements[n.Data] {
			if n.FirstChild != nil {
				return fmt.Errorf("void element <%s> has child nodes", n.Data)
			}
			return nil
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := renderHTML4(sb, c, raw || rawTextElements[n.Data]); err != nil {
				return err
			}
		}
		sb.WriteString("</")
		sb.WriteString(n.Data)
		sb.WriteByte('>')
		return nil
	}
	return fmt.Errorf("cannot render node type %d", n.Type)
}
