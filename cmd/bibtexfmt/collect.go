package main

import (
	"strings"

	"github.com/drgo/bibtex"
)

// entry and field are plain generic records the CLI uses to dump or
// canonicalize a parsed .bib file. They deliberately live in cmd/, not in
// the bibtex package: the core's data-binding vocabulary is the Visitor
// protocol itself, not a typed entry struct (spec §1 rules those out of
// the library).
type entry struct {
	Kind   string  `json:"kind"`
	Key    string  `json:"key"`
	Fields []field `json:"fields,omitempty"`
}

type field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// collector implements bibtex.Visitor by flattening every regular entry
// into the generic entry/field shape above, using Resolved values unless
// -raw was requested.
type collector struct {
	raw      bool
	entries  []entry
	macros   []field
	preamble []string
	comments []string
}

func (c *collector) Regular(kind []byte) (bool, error) { return true, nil }

func (c *collector) Entry(kind, key []byte, fields *bibtex.Fields) error {
	e := entry{Kind: string(kind), Key: string(key)}
	for {
		k, val, ok, err := fields.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		v, err := c.renderValue(val)
		if err != nil {
			return err
		}
		e.Fields = append(e.Fields, field{Key: string(k), Value: v})
	}
	c.entries = append(c.entries, e)
	return nil
}

func (c *collector) Macro(name []byte, value bibtex.ResolvedValue) error {
	if name == nil {
		return nil
	}
	c.macros = append(c.macros, field{Key: string(name), Value: value.String()})
	return nil
}

func (c *collector) Preamble(value bibtex.ResolvedValue) error {
	c.preamble = append(c.preamble, value.String())
	return nil
}

func (c *collector) Comment(body []byte) error {
	c.comments = append(c.comments, string(body))
	return nil
}

func (c *collector) renderValue(val *bibtex.FieldValue) (string, error) {
	if c.raw {
		var sb strings.Builder
		for i, tok := range val.Raw() {
			if i > 0 {
				sb.WriteString(" # ")
			}
			sb.Write(tok.Text)
		}
		return sb.String(), nil
	}
	rv, err := val.Resolved()
	if err != nil {
		return "", err
	}
	return rv.String(), nil
}
