package serde

import (
	"fmt"

	"github.com/mattam82/alectryon/internal/document"
)

// Type aliases used in the wire format, in the order their fields are
// emitted by the deduplicating serializers.
const (
	AliasText         = "text"
	AliasHypothesis   = "hypothesis"
	AliasGoal         = "goal"
	AliasMessage      = "message"
	AliasSentence     = "sentence"
	AliasGoals        = "goals"
	AliasMessages     = "messages"
	AliasRichSentence = "rich_sentence"
)

// fieldNames maps each alias to its field names, in declaration order.
// Plain encoding uses the names; dedup encoding uses the positions.
var fieldNames = map[string][]string{
	AliasText:         {"contents"},
	AliasHypothesis:   {"names", "body", "type"},
	AliasGoal:         {"name", "conclusion", "hypotheses"},
	AliasMessage:      {"contents"},
	AliasSentence:     {"contents", "messages", "goals"},
	AliasGoals:        {"goals"},
	AliasMessages:     {"messages"},
	AliasRichSentence: {"contents", "outputs", "annots", "prefixes", "suffixes"},
}

// typedNode recognizes document types and exposes their fields
// positionally. Returns ok=false for everything else (scalars, lists,
// maps), which the serializers handle generically.
func typedNode(v any) (alias string, fields []any, ok bool) {
	switch x := v.(type) {
	case document.Text:
		return AliasText, []any{x.Contents}, true
	case document.Hypothesis:
		return AliasHypothesis, []any{x.Names, x.Body, x.Type}, true
	case document.Goal:
		return AliasGoal, []any{x.Name, x.Conclusion, x.Hypotheses}, true
	case document.Message:
		return AliasMessage, []any{x.Contents}, true
	case document.Sentence:
		return AliasSentence, []any{x.Contents, x.Messages, x.Goals}, true
	case document.Goals:
		return AliasGoals, []any{x.Goals}, true
	case document.Messages:
		return AliasMessages, []any{x.Messages}, true
	case document.RichSentence:
		return AliasRichSentence, []any{x.Contents, x.Outputs, x.Annots, x.Prefixes, x.Suffixes}, true
	}
	return "", nil, false
}

// asList converts the slice shapes that occur in documents to []any.
func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case document.Movie:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, true
	case [][]document.Fragment:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, true
	case []document.Fragment:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, true
	case []document.Output:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, true
	case []document.Hypothesis:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, true
	case []document.Goal:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, true
	case []document.Message:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, true
	case []string:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}

// makeTyped constructs a document value from an alias and decoded fields
// in declaration order. Shared by the plain and dedup decoders.
func makeTyped(alias string, fields []any) (any, error) {
	names := fieldNames[alias]
	if names == nil {
		return nil, fmt.Errorf("unknown type alias %q", alias)
	}
	if len(fields) != len(names) {
		return nil, fmt.Errorf("%s: expected %d fields, got %d", alias, len(names), len(fields))
	}

	switch alias {
	case AliasText:
		contents, err := toString(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%s.contents: %w", alias, err)
		}
		return document.Text{Contents: contents}, nil

	case AliasHypothesis:
		names, err := toStrings(fields[0])
		if err != nil {
			return nil, fmt.Errorf("hypothesis.names: %w", err)
		}
		body, err := toStringPtr(fields[1])
		if err != nil {
			return nil, fmt.Errorf("hypothesis.body: %w", err)
		}
		typ, err := toString(fields[2])
		if err != nil {
			return nil, fmt.Errorf("hypothesis.type: %w", err)
		}
		return document.Hypothesis{Names: names, Body: body, Type: typ}, nil

	case AliasGoal:
		name, err := toStringPtr(fields[0])
		if err != nil {
			return nil, fmt.Errorf("goal.name: %w", err)
		}
		conclusion, err := toString(fields[1])
		if err != nil {
			return nil, fmt.Errorf("goal.conclusion: %w", err)
		}
		hyps, err := toHypotheses(fields[2])
		if err != nil {
			return nil, fmt.Errorf("goal.hypotheses: %w", err)
		}
		return document.Goal{Name: name, Conclusion: conclusion, Hypotheses: hyps}, nil

	case AliasMessage:
		contents, err := toString(fields[0])
		if err != nil {
			return nil, fmt.Errorf("message.contents: %w", err)
		}
		return document.Message{Contents: contents}, nil

	case AliasSentence:
		contents, err := toString(fields[0])
		if err != nil {
			return nil, fmt.Errorf("sentence.contents: %w", err)
		}
		msgs, err := toMessages(fields[1])
		if err != nil {
			return nil, fmt.Errorf("sentence.messages: %w", err)
		}
		goals, err := toGoals(fields[2])
		if err != nil {
			return nil, fmt.Errorf("sentence.goals: %w", err)
		}
		return document.Sentence{Contents: contents, Messages: msgs, Goals: goals}, nil

	case AliasGoals:
		goals, err := toGoals(fields[0])
		if err != nil {
			return nil, fmt.Errorf("goals.goals: %w", err)
		}
		return document.Goals{Goals: goals}, nil

	case AliasMessages:
		msgs, err := toMessages(fields[0])
		if err != nil {
			return nil, fmt.Errorf("messages.messages: %w", err)
		}
		return document.Messages{Messages: msgs}, nil

	case AliasRichSentence:
		contents, err := toStringPtr(fields[0])
		if err != nil {
			return nil, fmt.Errorf("rich_sentence.contents: %w", err)
		}
		outputs, err := toOutputs(fields[1])
		if err != nil {
			return nil, fmt.Errorf("rich_sentence.outputs: %w", err)
		}
		annots, err := toAnnots(fields[2])
		if err != nil {
			return nil, fmt.Errorf("rich_sentence.annots: %w", err)
		}
		prefixes, err := toStrings(fields[3])
		if err != nil {
			return nil, fmt.Errorf("rich_sentence.prefixes: %w", err)
		}
		suffixes, err := toStrings(fields[4])
		if err != nil {
			return nil, fmt.Errorf("rich_sentence.suffixes: %w", err)
		}
		return document.RichSentence{
			Contents: contents, Outputs: outputs, Annots: annots,
			Prefixes: prefixes, Suffixes: suffixes,
		}, nil
	}
	return nil, fmt.Errorf("unknown type alias %q", alias)
}

func toString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func toStringPtr(v any) (*string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *string:
		return x, nil
	case string:
		return document.StringPtr(x), nil
	}
	return nil, fmt.Errorf("expected string or null, got %T", v)
}

func toStrings(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := asList(v)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]string, len(list))
	for i, e := range list {
		s, err := toString(e)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

func toHypotheses(v any) ([]document.Hypothesis, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := asList(v)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]document.Hypothesis, len(list))
	for i, e := range list {
		h, ok := e.(document.Hypothesis)
		if !ok {
			return nil, fmt.Errorf("[%d]: expected hypothesis, got %T", i, e)
		}
		out[i] = h
	}
	return out, nil
}

func toGoals(v any) ([]document.Goal, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := asList(v)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]document.Goal, len(list))
	for i, e := range list {
		g, ok := e.(document.Goal)
		if !ok {
			return nil, fmt.Errorf("[%d]: expected goal, got %T", i, e)
		}
		out[i] = g
	}
	return out, nil
}

func toMessages(v any) ([]document.Message, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := asList(v)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]document.Message, len(list))
	for i, e := range list {
		m, ok := e.(document.Message)
		if !ok {
			return nil, fmt.Errorf("[%d]: expected message, got %T", i, e)
		}
		out[i] = m
	}
	return out, nil
}

func toOutputs(v any) ([]document.Output, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := asList(v)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]document.Output, len(list))
	for i, e := range list {
		o, ok := e.(document.Output)
		if !ok {
			return nil, fmt.Errorf("[%d]: expected output block, got %T", i, e)
		}
		out[i] = o
	}
	return out, nil
}

func toAnnots(v any) (document.Annots, error) {
	switch x := v.(type) {
	case nil:
		return document.Annots{}, nil
	case document.Annots:
		return x, nil
	case map[string]any:
		var a document.Annots
		if u, ok := x["unfold"].(bool); ok {
			a.Unfold = u
		}
		if f, ok := x["fails"].(bool); ok {
			a.Fails = f
		}
		return a, nil
	}
	return document.Annots{}, fmt.Errorf("expected annots object, got %T", v)
}
