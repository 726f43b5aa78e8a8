package errcode

import "fmt"

// Code is a stable, machine-readable error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Addressing: unknown path, key, sub-device name or board identifier.
	Addressing Code = "addressing"
	// Type: a stored value does not match the requested interpretation.
	Type Code = "type_mismatch"
	// Configuration: a fatal precondition was violated (e.g. no PPS signal).
	Configuration Code = "configuration"

	InvalidParams Code = "invalid_params"
	Unsupported   Code = "unsupported"
	Timeout       Code = "timeout"

	Error Code = "error" // generic fallback
)

// E carries a code with context and an optional cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.Addressing) match a wrapped *E.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// New builds an *E with a formatted message.
func New(c Code, op, format string, args ...any) *E {
	return &E{C: c, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and operation to an underlying error.
func Wrap(c Code, op string, err error) *E {
	return &E{C: c, Op: op, Err: err}
}

func Addressingf(format string, args ...any) error {
	return &E{C: Addressing, Msg: fmt.Sprintf(format, args...)}
}

func Typef(format string, args ...any) error {
	return &E{C: Type, Msg: fmt.Sprintf(format, args...)}
}

func Configf(format string, args ...any) error {
	return &E{C: Configuration, Msg: fmt.Sprintf(format, args...)}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	type unwrapper interface{ Unwrap() error }
	for e := err; e != nil; {
		if c, ok := e.(Code); ok {
			return c
		}
		if x, ok := e.(coder); ok {
			return x.Code()
		}
		u, ok := e.(unwrapper)
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return Error
}
