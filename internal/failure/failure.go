// Package failure defines the error kinds verdict distinguishes when deciding
// whether a problem aborts the run or only fails the affected fixtures.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	// KindUnknown is the zero value and is never produced by this package.
	KindUnknown Kind = iota
	// ConfigurationNotFound means no configuration file governs the entry point.
	ConfigurationNotFound
	// ResourceFormat means a diagnostic line could not be parsed into a warning.
	ResourceFormat
	// ProcessExecution means the analyzer could not be spawned or terminated abnormally.
	ProcessExecution
	// Timeout means the analyzer exceeded its allotted time.
	Timeout
	// InvalidArgument means an API was called with an argument it cannot accept.
	InvalidArgument
)

func (k Kind) String() string {
	switch k {
	case ConfigurationNotFound:
		return "ConfigurationNotFound"
	case ResourceFormat:
		return "ResourceFormat"
	case ProcessExecution:
		return "ProcessExecution"
	case Timeout:
		return "Timeout"
	case InvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// Fatal reports whether errors of this kind abort the whole run.
func (k Kind) Fatal() bool {
	return k == ConfigurationNotFound || k == InvalidArgument
}

// Error is a classified error. Paths lists the fixtures or files involved,
// if any.
type Error struct {
	Kind  Kind
	Op    string
	Paths []string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}
	if len(e.Paths) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Paths, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error whose cause is a formatted message.
func New(kind Kind, op string, paths []string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Paths: paths, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err. It returns nil when err is nil.
func Wrap(kind Kind, op string, paths []string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Paths: paths, Err: err}
}

// KindOf returns the kind of the first Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsKind reports whether err's chain contains an Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsFatal reports whether err should abort the run.
func IsFatal(err error) bool {
	return KindOf(err).Fatal()
}
