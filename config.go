package bibtex

import "fmt"

// Config holds the knobs spec §6 names under "Configuration surface".
// Construct via options passed to NewDeserializer rather than directly.
type Config struct {
	initialMacros        map[string]string
	surfacePreambles     bool
	surfaceComments      bool
	allowDuplicateFields bool
	validateUTF8         bool
}

func defaultConfig() Config {
	return Config{
		allowDuplicateFields: true,
	}
}

// Option configures a Deserializer. Options are applied in the order
// given to NewDeserializer; later options override earlier ones.
type Option func(*Config) error

// WithInitialMacros seeds the macro table with name->value bindings
// before any @string entry is parsed, e.g. StandardMonthMacros().
func WithInitialMacros(macros map[string]string) Option {
	return func(c *Config) error {
		c.initialMacros = macros
		return nil
	}
}

// WithPreambles controls whether @preamble bodies are surfaced to
// Visitor.Preamble (true) or silently discarded (false, the default).
func WithPreambles(surface bool) Option {
	return func(c *Config) error {
		c.surfacePreambles = surface
		return nil
	}
}

// WithComments controls whether @comment bodies are surfaced to
// Visitor.Comment (true) or silently discarded (false, the default).
func WithComments(surface bool) Option {
	return func(c *Config) error {
		c.surfaceComments = surface
		return nil
	}
}

// WithDuplicateFields controls whether a regular entry with two fields
// sharing a folded field_key is accepted (allow=true, the default,
// retaining both in input order) or rejected with a *SyntaxError
// (allow=false).
func WithDuplicateFields(allow bool) Option {
	return func(c *Config) error {
		c.allowDuplicateFields = allow
		return nil
	}
}

// WithUTF8Validation enables boundary UTF-8 validation of the input
// buffer at Deserializer construction time. When enabled and the input
// is not valid UTF-8, NewDeserializer returns an *InvalidUTF8Error.
// Disabled (the default) per spec §1: "the core operates on bytes and
// defers validation to the binding layer."
func WithUTF8Validation(enable bool) Option {
	return func(c *Config) error {
		c.validateUTF8 = enable
		return nil
	}
}

func applyOptions(opts []Option) (Config, error) {
	c := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&c); err != nil {
			return c, fmt.Errorf("bibtex: invalid option: %w", err)
		}
	}
	return c, nil
}
