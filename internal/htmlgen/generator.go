package htmlgen

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/mattam82/alectryon/internal/document"
)

// Highlighter renders a piece of prover code as an HTML node.
type Highlighter func(code string) *html.Node

// PlainHighlighter wraps code in a bare highlight span. Drop-in for a
// syntax-highlighting implementation.
func PlainHighlighter(code string) *html.Node {
	span := elem("span", "class", "highlight")
	span.AppendChild(text(code))
	return span
}

// Generator renders annotated fragments to HTML. With minification
// enabled it maintains a backreference table: each goal-hyps block,
// hypothesis and conclusion is rendered once per distinct content, and
// repeats become <q> pointers resolved at display time.
type Generator struct {
	highlight Highlighter
	gensym    *Gensym

	// backrefs maps block content keys to base16 backreference ids.
	// nil when minification is off.
	backrefs map[string]string
}

// NewGenerator creates a Generator. stem seeds element id generation
// (pass the scrubbed document name); minify enables backreferences.
func NewGenerator(highlight Highlighter, stem string, minify bool) *Generator {
	if highlight == nil {
		highlight = PlainHighlighter
	}
	g := &Generator{highlight: highlight, gensym: NewGensym(stem)}
	if minify {
		g.backrefs = make(map[string]string)
	}
	return g
}

// dedup renders a deduplicatable block under parent. The first render of
// a given key emits the block and claims the next backreference id;
// later renders emit a <q> pointer. Ids are claimed before building so
// that nested blocks number themselves in document order, which is what
// the resolution script relies on.
func (g *Generator) dedup(parent *html.Node, key any, build func(parent *html.Node) error) error {
	if g.backrefs == nil {
		return build(parent)
	}
	k, err := document.BlockKey(key)
	if err != nil {
		return err
	}
	if ref, seen := g.backrefs[k]; seen {
		q := elem("q")
		q.AppendChild(text(ref))
		parent.AppendChild(q)
		return nil
	}
	g.backrefs[k] = b16(len(g.backrefs))
	return build(parent)
}

// hypKeyable converts a hypothesis to canonical-JSON-compatible form for
// block keying.
func hypKeyable(h document.Hypothesis) []any {
	return []any{h.Names, h.Body, h.Type}
}

func hypsKeyable(hyps []document.Hypothesis) []any {
	out := make([]any, len(hyps))
	for i, h := range hyps {
		out[i] = hypKeyable(h)
	}
	return out
}

// genLabel emits a label bound to a toggle checkbox, or a plain span
// when there is nothing to toggle.
func (g *Generator) genLabel(parent *html.Node, toggle, cls string) *html.Node {
	var n *html.Node
	if toggle != "" {
		n = elem("label", "class", cls, "for", toggle)
	} else {
		n = elem("span", "class", cls)
	}
	parent.AppendChild(n)
	return n
}

func (g *Generator) genHyp(parent *html.Node, h document.Hypothesis) error {
	return g.dedup(parent, []any{"hyp", hypKeyable(h)}, func(parent *html.Node) error {
		div := elem("div")
		names := elem("var")
		names.AppendChild(text(strings.Join(h.Names, ", ")))
		div.AppendChild(names)
		if h.Body != nil {
			body := elem("span", "class", "hyp-body")
			b := elem("b")
			b.AppendChild(text(":="))
			body.AppendChild(b)
			body.AppendChild(g.highlight(*h.Body))
			div.AppendChild(body)
		}
		typ := elem("span", "class", "hyp-type")
		b := elem("b")
		b.AppendChild(text(":"))
		typ.AppendChild(b)
		typ.AppendChild(g.highlight(h.Type))
		div.AppendChild(typ)
		parent.AppendChild(div)
		return nil
	})
}

func (g *Generator) genHyps(parent *html.Node, hyps []document.Hypothesis) error {
	return g.dedup(parent, []any{"hyps", hypsKeyable(hyps)}, func(parent *html.Node) error {
		div := elem("div", "class", "goal-hyps")
		for _, h := range hyps {
			if err := g.genHyp(div, h); err != nil {
				return err
			}
		}
		parent.AppendChild(div)
		return nil
	})
}

func (g *Generator) genCcl(parent *html.Node, conclusion string) error {
	return g.dedup(parent, []any{"ccl", conclusion}, func(parent *html.Node) error {
		div := elem("div", "class", "goal-conclusion")
		div.AppendChild(g.highlight(conclusion))
		parent.AppendChild(div)
		return nil
	})
}

// genGoal serializes a goal to HTML.
func (g *Generator) genGoal(parent *html.Node, goal document.Goal, toggle string) error {
	bq := elem("blockquote", "class", "alectryon-goal")
	parent.AppendChild(bq)
	if len(goal.Hypotheses) > 0 {
		// Empty hypothesis blocks break flex spacing (negative margins on
		// the container), so they are omitted entirely.
		if err := g.genHyps(bq, goal.Hypotheses); err != nil {
			return err
		}
	} else {
		toggle = ""
	}
	cls := "goal-separator"
	if toggle != "" {
		cls += " alectryon-extra-goal-label"
	}
	label := g.genLabel(bq, toggle, cls)
	label.AppendChild(elem("hr"))
	if goal.Name != nil {
		name := elem("span", "class", "goal-name")
		name.AppendChild(text(*goal.Name))
		label.AppendChild(name)
	}
	return g.genCcl(bq, goal.Conclusion)
}

// genCheckbox emits a hidden toggle checkbox and returns its id.
// The inline style hides it in RSS readers, which ignore stylesheets.
func (g *Generator) genCheckbox(parent *html.Node, checked bool, cls string) string {
	id := g.gensym.Next("chk")
	input := elem("input", "type", "checkbox", "id", id, "class", cls, "style", "display: none")
	if checked {
		input.Attr = append(input.Attr, html.Attribute{Key: "checked", Val: "checked"})
	}
	parent.AppendChild(input)
	return id
}

func (g *Generator) genGoals(parent *html.Node, first document.Goal, more []document.Goal) error {
	if err := g.genGoal(parent, first, ""); err != nil {
		return err
	}
	if len(more) == 0 {
		return nil
	}
	extra := elem("div", "class", "alectryon-extra-goals")
	parent.AppendChild(extra)
	for _, goal := range more {
		toggle := g.genCheckbox(extra, false, "alectryon-extra-goal-toggle")
		if err := g.genGoal(extra, goal, toggle); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) genInputToggle(parent *html.Node, fr document.RichSentence) string {
	if len(fr.Outputs) == 0 {
		return ""
	}
	return g.genCheckbox(parent, fr.Annots.Unfold, "alectryon-toggle")
}

func (g *Generator) genInput(parent *html.Node, fr document.RichSentence, toggle string) {
	cls := "alectryon-input"
	if fr.Annots.Fails {
		cls += " alectryon-failed"
	}
	label := g.genLabel(parent, toggle, cls)
	label.AppendChild(g.highlight(*fr.Contents))
}

func (g *Generator) genOutput(parent *html.Node, fr document.RichSentence) error {
	// <small> improves rendering in RSS feeds.
	small := elem("small", "class", "alectryon-output")
	parent.AppendChild(small)
	wrapper := elem("div", "class", "alectryon-output-sticky-wrapper")
	small.AppendChild(wrapper)
	for _, output := range fr.Outputs {
		switch out := output.(type) {
		case document.Messages:
			msgs := elem("div", "class", "alectryon-messages")
			wrapper.AppendChild(msgs)
			for _, m := range out.Messages {
				bq := elem("blockquote", "class", "alectryon-message")
				bq.AppendChild(g.highlight(m.Contents))
				msgs.AppendChild(bq)
			}
		case document.Goals:
			if len(out.Goals) == 0 {
				continue
			}
			goals := elem("div", "class", "alectryon-goals")
			wrapper.AppendChild(goals)
			if err := g.genGoals(goals, out.Goals[0], out.Goals[1:]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Generator) genWhitespace(parent *html.Node, wsps []string) {
	for _, wsp := range wsps {
		span := elem("span", "class", "alectryon-wsp")
		span.AppendChild(text(wsp))
		parent.AppendChild(span)
	}
}

func (g *Generator) genSentence(parent *html.Node, fr document.RichSentence) error {
	if fr.Contents != nil {
		g.genWhitespace(parent, fr.Prefixes)
	}
	span := elem("span", "class", "alectryon-sentence")
	parent.AppendChild(span)
	toggle := g.genInputToggle(span, fr)
	if fr.Contents != nil {
		g.genInput(span, fr, toggle)
	}
	if len(fr.Outputs) > 0 {
		if err := g.genOutput(span, fr); err != nil {
			return err
		}
	}
	if fr.Contents != nil {
		g.genWhitespace(span, fr.Suffixes)
	}
	return nil
}

func (g *Generator) genFragment(parent *html.Node, fr document.Fragment) error {
	switch f := fr.(type) {
	case document.Text:
		span := elem("span", "class", "alectryon-wsp")
		span.AppendChild(g.highlight(f.Contents))
		parent.AppendChild(span)
		return nil
	case document.Sentence:
		// Callers normally run document.Prepare first; tolerate raw
		// sentences by committing them on the fly.
		prepared := document.CommitIO([]document.Fragment{f})
		return g.genFragment(parent, prepared[0])
	case document.RichSentence:
		return g.genSentence(parent, f)
	}
	return nil
}

// GenFragments serializes one chunk's fragments into a pre.alectryon-io
// block. Display transforms are applied first.
func (g *Generator) GenFragments(fragments []document.Fragment, classes ...string) (*html.Node, error) {
	pre := elem("pre", "class", strings.Join(append([]string{"alectryon-io"}, classes...), " "))
	pre.AppendChild(comment(" Generator: " + GeneratorName + " "))
	fragments = document.Prepare(fragments)
	for _, fr := range fragments {
		if err := g.genFragment(pre, fr); err != nil {
			return nil, err
		}
	}
	return pre, nil
}

// Gen renders every chunk of a movie.
func (g *Generator) Gen(movie document.Movie) ([]*html.Node, error) {
	snippets := make([]*html.Node, 0, len(movie))
	for _, fragments := range movie {
		pre, err := g.GenFragments(fragments)
		if err != nil {
			return nil, err
		}
		snippets = append(snippets, pre)
	}
	return snippets, nil
}

// Minified reports whether any backreferences were emitted; pages must
// then include the resolution script.
func (g *Generator) Minified() bool {
	return g.backrefs != nil && len(g.backrefs) > 0
}
