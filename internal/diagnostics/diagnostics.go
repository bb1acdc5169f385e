// Package diagnostics defines the error value shared by every pipeline
// stage. A DiagnosticError carries a stable code, a message and the
// 1-indexed source position the message refers to (when known).
package diagnostics

import (
	"fmt"

	"github.com/funvibe/chorus/internal/token"
)

type DiagnosticError struct {
	Code    string
	Message string
	Line    int
	Column  int
	File    string
}

// NewError builds a diagnostic anchored at tok. A zero token yields a
// position-less diagnostic.
func NewError(code string, tok token.Token, message string) *DiagnosticError {
	return &DiagnosticError{
		Code:    code,
		Message: message,
		Line:    tok.Line,
		Column:  tok.Column,
	}
}

func (e *DiagnosticError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at %d:%d", e.Message, e.Line, e.Column)
	}
	return e.Message
}
