package document

import "strings"

// CommitIO converts plain sentences into rich sentences with their prover
// responses grouped into output blocks. Messages come before goals, and
// empty blocks are omitted, so renderers can assume every block is
// non-empty.
func CommitIO(fragments []Fragment) []Fragment {
	out := make([]Fragment, 0, len(fragments))
	for _, fr := range fragments {
		s, ok := fr.(Sentence)
		if !ok {
			out = append(out, fr)
			continue
		}
		rich := RichSentence{Contents: StringPtr(s.Contents)}
		if len(s.Messages) > 0 {
			rich.Outputs = append(rich.Outputs, Messages{Messages: s.Messages})
		}
		if len(s.Goals) > 0 {
			rich.Outputs = append(rich.Outputs, Goals{Goals: s.Goals})
		}
		out = append(out, rich)
	}
	return out
}

// GroupWhitespace folds whitespace-only text fragments into the
// surrounding rich sentences: the run up to and including the first
// newline becomes a suffix of the preceding sentence, the rest a prefix
// of the following one. This keeps a sentence and its trailing newline in
// one display unit so sticky output wrappers do not split lines.
// Non-whitespace text fragments are left alone.
func GroupWhitespace(fragments []Fragment) []Fragment {
	out := make([]Fragment, 0, len(fragments))
	for _, fr := range fragments {
		txt, ok := fr.(Text)
		if !ok || strings.TrimSpace(txt.Contents) != "" {
			out = append(out, fr)
			continue
		}
		suffix, prefix := splitAfterNewline(txt.Contents)

		attached := false
		if suffix != "" && len(out) > 0 {
			if prev, ok := out[len(out)-1].(RichSentence); ok {
				prev.Suffixes = append(prev.Suffixes, suffix)
				out[len(out)-1] = prev
				attached = true
			}
		}
		if !attached {
			prefix = suffix + prefix
		}
		if prefix != "" {
			out = append(out, pendingPrefix(prefix))
		}
	}
	return resolvePrefixes(out)
}

// splitAfterNewline cuts s just past its first newline.
func splitAfterNewline(s string) (head, tail string) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i+1], s[i+1:]
	}
	return s, ""
}

// pendingPrefix marks whitespace awaiting attachment to the next sentence.
type pendingPrefix string

func (pendingPrefix) fragment() {}

// resolvePrefixes attaches pending whitespace to the sentence that
// follows it, or turns it back into a text fragment at end of input.
func resolvePrefixes(fragments []Fragment) []Fragment {
	out := make([]Fragment, 0, len(fragments))
	var pending []string
	for _, fr := range fragments {
		switch f := fr.(type) {
		case pendingPrefix:
			pending = append(pending, string(f))
		case RichSentence:
			f.Prefixes = append(f.Prefixes, pending...)
			pending = nil
			out = append(out, f)
		default:
			for _, p := range pending {
				out = append(out, Text{Contents: p})
			}
			pending = nil
			out = append(out, fr)
		}
	}
	for _, p := range pending {
		out = append(out, Text{Contents: p})
	}
	return out
}

// Prepare applies the default display transforms in order.
func Prepare(fragments []Fragment) []Fragment {
	return GroupWhitespace(CommitIO(fragments))
}
