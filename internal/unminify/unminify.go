// Package unminify resolves backreferences in minified HTML offline.
//
// Minified output replaces repeated hypothesis and conclusion blocks
// with <q> pointers that a small script resolves in the browser. This
// package performs the same resolution ahead of time, producing HTML
// that needs no script. Pointer targets are indexed in document order,
// so resolution must also proceed in document order: a target may itself
// contain pointers that have to be resolved before it is cloned.
package unminify

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// MalformedRefError reports a backreference whose text is not base16.
type MalformedRefError struct {
	Text string
}

func (e *MalformedRefError) Error() string {
	return fmt.Sprintf("malformed backreference %q: not a base16 index", e.Text)
}

// RangeError reports a backreference index with no matching target.
type RangeError struct {
	Index int
	Count int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("backreference %d out of range (%d targets)", e.Index, e.Count)
}

// ForwardRefError reports a backreference to a target that appears later
// in the document. Well-formed minified output only points backwards.
type ForwardRefError struct {
	Index int
}

func (e *ForwardRefError) Error() string {
	return fmt.Sprintf("backreference %d points forward", e.Index)
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, want string) bool {
	for _, c := range strings.Fields(attrVal(n, "class")) {
		if c == want {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func cloneNode(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(cloneNode(c))
	}
	return clone
}

// isTarget reports whether n is a backreference target. The target set
// matches the resolution script's selector: .goal-hyps blocks and their
// direct div children, and .goal-conclusion blocks, all inside an
// .alectryon-io block.
func isTarget(n *html.Node, insideIO bool) bool {
	if n.Type != html.ElementNode || !insideIO {
		return false
	}
	if hasClass(n, "goal-hyps") || hasClass(n, "goal-conclusion") {
		return true
	}
	return n.Data == "div" && n.Parent != nil && hasClass(n.Parent, "goal-hyps")
}

// scan walks the tree in document order collecting targets and pointers,
// recording each node's position for forward-reference detection.
func scan(root *html.Node) (targets []*html.Node, pointers []*html.Node, pos map[*html.Node]int) {
	pos = make(map[*html.Node]int)
	next := 0
	var walk func(n *html.Node, insideIO bool)
	walk = func(n *html.Node, insideIO bool) {
		pos[n] = next
		next++
		if isTarget(n, insideIO) {
			targets = append(targets, n)
		}
		if n.Type == html.ElementNode && n.Data == "q" && insideIO {
			pointers = append(pointers, n)
		}
		if n.Type == html.ElementNode && hasClass(n, "alectryon-io") {
			insideIO = true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, insideIO)
		}
	}
	walk(root, false)
	return targets, pointers, pos
}

// Document resolves every backreference under root in place. Pointers
// are processed in document order so that targets are fully resolved
// before they are cloned.
func Document(root *html.Node) error {
	targets, pointers, pos := scan(root)
	for _, q := range pointers {
		ref := textContent(q)
		idx, err := strconv.ParseInt(strings.TrimSpace(ref), 16, 64)
		if err != nil || idx < 0 {
			return &MalformedRefError{Text: ref}
		}
		if int(idx) >= len(targets) {
			return &RangeError{Index: int(idx), Count: len(targets)}
		}
		target := targets[idx]
		if pos[target] > pos[q] {
			return &ForwardRefError{Index: int(idx)}
		}
		clone := cloneNode(target)
		q.Parent.InsertBefore(clone, q)
		q.Parent.RemoveChild(q)
	}
	dropResolutionScripts(root)
	return nil
}

// dropResolutionScripts removes the in-browser resolution script. Once
// backreferences are resolved it has nothing to do.
func dropResolutionScripts(root *html.Node) {
	var doomed []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" &&
			strings.Contains(textContent(n), "Resolve backreferences") {
			doomed = append(doomed, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	for _, n := range doomed {
		n.Parent.RemoveChild(n)
	}
}

// Resolve reads minified HTML from r, resolves backreferences, and
// writes the result to w.
func Resolve(r io.Reader, w io.Writer) error {
	root, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("parse HTML: %w", err)
	}
	if err := Document(root); err != nil {
		return err
	}
	return html.Render(w, root)
}
