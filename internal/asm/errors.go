package asm

import "fmt"

// AssembleError is one line-tagged assembly failure: unknown opcode,
// bad arity, malformed operand, or unresolved label. Assemble collects
// these into a batch rather than stopping at the first one.
type AssembleError struct {
	Line    int
	Message string
}

func (e *AssembleError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func errAt(line int, format string, args ...any) *AssembleError {
	return &AssembleError{Line: line, Message: fmt.Sprintf(format, args...)}
}
