package errors

import (
	"fmt"
	"log/slog"
	"strings"
)

// Policy selects what a Sink does with a reported error.
type Policy int

const (
	// PolicyRaise records the error and hands it back to the reporter,
	// which must stop the current operation immediately.
	PolicyRaise Policy = iota

	// PolicyCollect records the error and lets the reporter continue with a
	// substitute value. Stages stop before their next step once anything
	// has been collected.
	PolicyCollect

	// PolicySilent drops the error. Execution continues on whatever
	// fallback value the failing operation produced, so diagnostics are lost.
	PolicySilent
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyRaise:
		return "raise"
	case PolicyCollect:
		return "collect"
	case PolicySilent:
		return "silent"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name as produced by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raise", "throw":
		return PolicyRaise, nil
	case "collect", "log", "event":
		return PolicyCollect, nil
	case "silent", "ignore":
		return PolicySilent, nil
	default:
		return 0, fmt.Errorf("unknown error policy %q", s)
	}
}

// List is an ordered set of errors collected during one phase.
type List []*Error

// Error implements the error interface.
func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(l), strings.Join(parts, "; "))
}

// Unwrap returns the contained errors for errors.Is/As support.
func (l List) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}

// Sink receives errors from the lexer, compiler, evaluator and contexts and
// applies a single Policy to them.
//
// A Sink is not safe for concurrent use; each pipeline run owns its own.
type Sink struct {
	policy    Policy
	errs      List
	hook      func(*Error)
	logger    *slog.Logger
	forgetful bool
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithHook sets a callback invoked for every error the policy does not drop.
func WithHook(fn func(*Error)) SinkOption {
	return func(s *Sink) {
		s.hook = fn
	}
}

// WithSinkLogger sets a logger that receives every recorded error at debug level.
func WithSinkLogger(logger *slog.Logger) SinkOption {
	return func(s *Sink) {
		s.logger = logger
	}
}

// WithoutHistory keeps errors handed back under PolicyRaise out of the
// recorded list. Long-lived reporters that are never Reset use it so raised
// errors do not accumulate; the reporter already holds each one.
func WithoutHistory() SinkOption {
	return func(s *Sink) {
		s.forgetful = true
	}
}

// NewSink creates a Sink with the given policy.
func NewSink(policy Policy, opts ...SinkOption) *Sink {
	s := &Sink{policy: policy}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the sink's policy.
func (s *Sink) Policy() Policy {
	return s.policy
}

// Report records err according to the policy.
// It returns err only under PolicyRaise; callers that get a non-nil result
// must abandon the current operation.
func (s *Sink) Report(err *Error) error {
	if err == nil || s.policy == PolicySilent {
		return nil
	}
	if !s.forgetful || s.policy != PolicyRaise {
		s.errs = append(s.errs, err)
	}
	if s.logger != nil {
		s.logger.Debug("expression error",
			slog.String("kind", err.Kind.String()),
			slog.String("op", err.Op),
			slog.Int("pos", err.Pos),
			slog.String("error", err.Error()),
		)
	}
	if s.hook != nil {
		s.hook(err)
	}
	if s.policy == PolicyRaise {
		return err
	}
	return nil
}

// Reportf builds an Error and reports it.
func (s *Sink) Reportf(kind Kind, op string, cause error, format string, args ...any) error {
	return s.Report(New(kind, op, cause, format, args...))
}

// Failed reports whether any error has been recorded since the last Reset.
func (s *Sink) Failed() bool {
	return len(s.errs) > 0
}

// Errors returns a copy of the recorded errors.
func (s *Sink) Errors() List {
	if len(s.errs) == 0 {
		return nil
	}
	out := make(List, len(s.errs))
	copy(out, s.errs)
	return out
}

// Err returns the outcome of the phase as an error: the first error under
// PolicyRaise, all collected errors under PolicyCollect, nil otherwise.
func (s *Sink) Err() error {
	if len(s.errs) == 0 {
		return nil
	}
	if s.policy == PolicyRaise {
		return s.errs[0]
	}
	return s.Errors()
}

// Reset discards recorded errors so the sink can serve another phase.
func (s *Sink) Reset() {
	s.errs = s.errs[:0]
}
