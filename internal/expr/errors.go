package expr

import (
	"errors"
	"fmt"
)

// Sentinel causes carried inside *Error.
var (
	ErrSyntax         = errors.New("syntax error")
	ErrUnresolvedName = errors.New("unresolved name")
	ErrDivisionByZero = errors.New("division by zero")
	ErrDisallowed     = errors.New("disallowed construct")
	ErrType           = errors.New("type error")
	ErrOverflow       = errors.New("numeric overflow")
)

// Error reports a failed compile or evaluation of a single expression.
type Error struct {
	Expr  string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("expression %q: %v", e.Expr, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
