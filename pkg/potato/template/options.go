package template

// MissingAction specifies how placeholders that cannot be resolved are
// rendered.
type MissingAction int

const (
	// MissingKeep keeps the placeholder as-is. This is the default.
	MissingKeep MissingAction = iota

	// MissingEmpty replaces the placeholder with an empty string.
	MissingEmpty

	// MissingError reports every unresolved placeholder in an
	// UnresolvedError.
	MissingError
)

// Option configures an Expander.
type Option func(*Expander)

// WithMissingAction sets how unresolved placeholders are handled.
//
//	exp := NewExpander(engine, WithMissingAction(MissingError))
//	_, err := exp.Expand(ctx, "${1 / 0}", scope)
//	// err lists "${1 / 0}" with its arithmetic error
func WithMissingAction(action MissingAction) Option {
	return func(e *Expander) {
		e.missingAction = action
	}
}

// WithBraceStyle enables or disables ${expr} expansion. Default: enabled.
func WithBraceStyle(enabled bool) Option {
	return func(e *Expander) {
		e.braceStyle = enabled
	}
}

// WithDollarStyle enables or disables $a.b expansion. Default: enabled.
func WithDollarStyle(enabled bool) Option {
	return func(e *Expander) {
		e.dollarStyle = enabled
	}
}
