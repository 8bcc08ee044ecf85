// Command bibtexfmt is a thin consumer of the bibtex package: it
// validates, dumps, or canonicalizes .bib files from the command line.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/drgo/bibtex"
)

var (
	output    = flag.String("o", "", "write output to this file instead of stdout")
	rawValues = flag.Bool("raw", false, "emit raw token text instead of resolving macros and concatenation")
	canonical = flag.Bool("canonical", false, "re-emit a minimal, single-bracket-flavor canonical form instead of JSON")
	preambles = flag.Bool("preambles", false, "surface @preamble bodies")
	comments  = flag.Bool("comments", false, "surface @comment bodies")
	strictDup = flag.Bool("strict-duplicates", false, "reject entries with duplicate field keys")
	verbose   = flag.Bool("v", false, "verbose: report every recovered parse error to stderr")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: bibtexfmt [-o output] [-raw] [-canonical] [input.bib ...]\n")
	fmt.Fprintf(os.Stderr, "converts BibTeX files to a generic JSON dump, or to a canonical .bib form\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func verbosef(format string, v ...interface{}) {
	if !*verbose {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", v...)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("bibtexfmt: ")
	flag.Usage = usage
	flag.Parse()

	if err := run(flag.Args(), *output); err != nil {
		log.Fatal(err)
	}
}

func run(inputArgs []string, outputArg string) error {
	var inputs []io.Reader
	if len(inputArgs) == 0 {
		inputs = []io.Reader{os.Stdin}
	} else {
		for _, a := range inputArgs {
			f, err := os.Open(a)
			if err != nil {
				return fmt.Errorf("unable to open %q: %w", a, err)
			}
			defer f.Close()
			inputs = append(inputs, f)
		}
	}

	w := os.Stdout
	if outputArg != "" {
		f, err := os.Create(outputArg)
		if err != nil {
			return fmt.Errorf("unable to open %q for writing: %w", outputArg, err)
		}
		defer f.Close()
		w = f
	}

	for i, r := range inputs {
		name := "<stdin>"
		if i < len(inputArgs) {
			name = inputArgs[i]
		}
		if err := process(r, name, w); err != nil {
			return err
		}
	}
	return nil
}

func process(r io.Reader, name string, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read %q: %w", name, err)
	}

	opts := []bibtex.Option{
		bibtex.WithInitialMacros(bibtex.StandardMonthMacros()),
		bibtex.WithPreambles(*preambles),
		bibtex.WithComments(*comments),
		bibtex.WithDuplicateFields(!*strictDup),
	}
	d, err := bibtex.NewDeserializer(data, opts...)
	if err != nil {
		return fmt.Errorf("%q: %w", name, err)
	}

	c := &collector{raw: *rawValues}
	errCount := 0
	for parseErr := range d.All(c) {
		if parseErr == nil {
			continue
		}
		errCount++
		verbosef("%s: %s", name, parseErr)
	}
	if errCount > 0 {
		verbosef("%s: %d entries skipped due to parse errors", name, errCount)
	}

	if *canonical {
		return writeCanonical(w, c)
	}
	return writeJSON(w, c)
}

func writeJSON(w io.Writer, c *collector) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c.entries)
}

// writeCanonical re-emits a minimal, single-bracket-flavor .bib form: one
// field per line, values as collected (Resolved unless -raw was given), no
// alignment or column-wrapping. It
// exists to exercise the idempotent-re-parse testable property (spec
// §8), not as a general-purpose serializer (explicitly out of scope for
// the core library, spec §1).
func writeCanonical(w io.Writer, c *collector) error {
	for _, name := range uniqueMacroOrder(c.macros) {
		fmt.Fprintf(w, "@string{%s = {%s}}\n", name.Key, name.Value)
	}
	for _, e := range c.entries {
		fmt.Fprintf(w, "@%s{%s", e.Kind, e.Key)
		for _, f := range e.Fields {
			fmt.Fprintf(w, ",\n  %s = {%s}", f.Key, f.Value)
		}
		fmt.Fprintf(w, "\n}\n")
	}
	return nil
}

// uniqueMacroOrder keeps each macro's first-seen position but its last
// bound value, matching MacroTable's append-or-replace semantics (spec
// §4.4: "a new binding overrides an earlier one with the same (folded)
// name").
func uniqueMacroOrder(macros []field) []field {
	fold := func(s string) string {
		b := []byte(s)
		for i, c := range b {
			if 'A' <= c && c <= 'Z' {
				b[i] = c + ('a' - 'A')
			}
		}
		return string(b)
	}
	var order []string
	names := make(map[string]string, len(macros))
	latest := make(map[string]string, len(macros))
	for _, m := range macros {
		k := fold(m.Key)
		if _, ok := latest[k]; !ok {
			order = append(order, k)
			names[k] = m.Key
		}
		latest[k] = m.Value
	}
	out := make([]field, 0, len(order))
	for _, k := range order {
		out = append(out, field{Key: names[k], Value: latest[k]})
	}
	return out
}
