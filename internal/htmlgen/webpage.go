package htmlgen

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/mattam82/alectryon/internal/document"
)

// GeneratorName identifies this renderer in generator comments and meta
// tags.
const GeneratorName = "Alectryon"

// unminifyScriptBody resolves <q> backreferences at display time.
// Targets are indexed in document order, which matches the order in
// which the renderer assigns backreference ids.
const unminifyScriptBody = `
    // Resolve backreferences
    document.addEventListener("DOMContentLoaded", function() {
        var references = document.querySelectorAll(
            '.alectryon-io .goal-hyps, ' +
            '.alectryon-io .goal-hyps > div, ' +
            '.alectryon-io .goal-conclusion');
        document.querySelectorAll('.alectryon-io q').forEach(q =>
            q.replaceWith(references[parseInt(q.innerText, 16)].cloneNode(true)));
    });
`

// UnminifyScript is the resolution script as it appears in minified
// pages.
const UnminifyScript = "<script>" + unminifyScriptBody + "</script>"

// Stylesheet and script assets referenced by standalone pages. Callers
// copy these next to the output file.
var (
	StylesheetAssets = []string{"alectryon.css"}
	ScriptAssets     = []string{"alectryon.js"}
)

// Dialect selects the flavor of HTML emitted for standalone pages.
type Dialect string

const (
	DialectHTML4 Dialect = "html4"
	DialectHTML5 Dialect = "html5"
)

// ParseDialect validates a dialect name from a flag or config value.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case DialectHTML4, DialectHTML5:
		return Dialect(s), nil
	}
	return "", &UnknownDialectError{Name: s}
}

type UnknownDialectError struct {
	Name string
}

func (e *UnknownDialectError) Error() string {
	return "unknown HTML dialect: " + e.Name + " (expected html4 or html5)"
}

func (d Dialect) doctype() string {
	if d == DialectHTML4 {
		return `<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01 Transitional//EN" "http://www.w3.org/TR/html4/loose.dtd">`
	}
	return "<!DOCTYPE html>"
}

// Banner builds the standard footer banner crediting the prover used to
// process the document. Returns nil when generator is nil.
func Banner(generator *document.GeneratorInfo, includeVersion bool) *html.Node {
	if generator == nil {
		return nil
	}
	div := elem("div", "class", "alectryon-banner")
	div.AppendChild(text("Built with "))
	a := elem("a", "href", "https://github.com/cpitclaudel/alectryon/")
	a.AppendChild(text("Alectryon"))
	div.AppendChild(a)
	div.AppendChild(text(", running " + generator.Fmt(includeVersion) + ". Bubbles ("))
	div.AppendChild(elem("span", "class", "alectryon-bubble"))
	div.AppendChild(text(") indicate interactive fragments: hover for details, tap to reveal contents. Use "))
	for i, k := range []string{"Ctrl+↑", "Ctrl+↓"} {
		if i > 0 {
			div.AppendChild(text(" "))
		}
		kbd := elem("kbd")
		kbd.AppendChild(text(k))
		div.AppendChild(kbd)
	}
	div.AppendChild(text(" to navigate, "))
	kbd := elem("kbd")
	kbd.AppendChild(text("Ctrl+\U0001F5B1️"))
	div.AppendChild(kbd)
	div.AppendChild(text(" to focus. On Mac, use "))
	cmd := elem("kbd")
	cmd.AppendChild(text("⌘"))
	div.AppendChild(cmd)
	div.AppendChild(text(" instead of "))
	ctrl := elem("kbd")
	ctrl.AppendChild(text("Ctrl"))
	div.AppendChild(ctrl)
	div.AppendChild(text("."))
	return div
}

// WrapClasses computes the class list of the root article element. The
// root class always comes first.
func WrapClasses(classes ...string) string {
	out := []string{"alectryon-root"}
	for _, c := range classes {
		if c != "" {
			out = append(out, "alectryon-"+c)
		}
	}
	return strings.Join(out, " ")
}

// longestLine returns the length in runes of the longest text line under
// n. Lines are tracked across element boundaries.
func longestLine(n *html.Node) int {
	longest, current := 0, 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			for _, r := range n.Data {
				if r == '\n' {
					current = 0
					continue
				}
				current++
				if current > longest {
					longest = current
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return longest
}

// MarkLongLines adds the long-lines class to blocks whose longest text
// line exceeds threshold, which lets stylesheets enable wrapping only
// where it is needed. A negative threshold disables marking.
func MarkLongLines(block *html.Node, threshold int) {
	if threshold < 0 {
		return
	}
	if longestLine(block) > threshold {
		addClass(block, "alectryon-long-lines")
	}
}

// PageOptions configures standalone webpage assembly.
type PageOptions struct {
	Title     string
	Dialect   Dialect
	Style     string // webpage style: centered, floating, windowed
	Classes   []string
	Banner    *html.Node // nil omits the banner
	Minified  bool       // include the backreference resolution script
	ExtraCSS  []string
	ExtraJS   []string
	InlineCSS string // embedded style block, e.g. highlighter styles
}

// StandalonePage assembles snippets into a full HTML document and
// renders it.
func StandalonePage(snippets []*html.Node, opts PageOptions) (string, error) {
	root := elem("html", "class", "alectryon-standalone")
	head := elem("head")
	root.AppendChild(head)

	if opts.Dialect == DialectHTML4 {
		head.AppendChild(elem("meta", "http-equiv", "Content-Type", "content", "text/html; charset=utf-8"))
	} else {
		head.AppendChild(elem("meta", "charset", "utf-8"))
	}
	head.AppendChild(elem("meta", "name", "generator", "content", GeneratorName))
	head.AppendChild(elem("meta", "name", "viewport", "content", "width=device-width, initial-scale=1"))

	title := elem("title")
	title.AppendChild(text(opts.Title))
	head.AppendChild(title)

	for _, css := range append(append([]string{}, StylesheetAssets...), opts.ExtraCSS...) {
		head.AppendChild(elem("link", "rel", "stylesheet", "href", css))
	}
	if opts.InlineCSS != "" {
		style := elem("style", "type", "text/css")
		style.AppendChild(text(opts.InlineCSS))
		head.AppendChild(style)
	}
	for _, js := range append(append([]string{}, ScriptAssets...), opts.ExtraJS...) {
		head.AppendChild(elem("script", "src", js))
	}

	body := elem("body")
	root.AppendChild(body)
	article := elem("article", "class", WrapClasses(append([]string{opts.Style}, opts.Classes...)...))
	body.AppendChild(article)
	if opts.Banner != nil {
		article.AppendChild(opts.Banner)
	}
	for _, snippet := range snippets {
		article.AppendChild(snippet)
	}
	if opts.Minified {
		script := elem("script")
		script.AppendChild(text(unminifyScriptBody))
		body.AppendChild(script)
	}

	render := RenderNode
	if opts.Dialect == DialectHTML4 {
		render = RenderNodeHTML4
	}
	rendered, err := render(root)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(opts.Dialect.doctype())
	sb.WriteString("\n")
	sb.WriteString(rendered)
	sb.WriteString("\n")
	return sb.String(), nil
}

// BlockEndMarker separates snippets in snippets-html output so that
// consumers can split them back apart.
const BlockEndMarker = "<!-- alectryon-block-end -->"

// SnippetsPage renders snippets as a flat sequence separated by block
// end markers.
func SnippetsPage(snippets []*html.Node) (string, error) {
	var sb strings.Builder
	for _, snippet := range snippets {
		rendered, err := RenderNode(snippet)
		if err != nil {
			return "", err
		}
		sb.WriteString(rendered)
		sb.WriteString("\n")
		sb.WriteString(BlockEndMarker)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
