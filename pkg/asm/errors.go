package asm

import (
	"errors"
	"fmt"
)

// The following errors may be returned by the assembler. They are
// usually wrapped by an *Error carrying the source position.
var (
	// ErrUnknownOpcode indicates that a mnemonic is not in the catalog.
	ErrUnknownOpcode = errors.New("asm: unknown opcode")

	// ErrUnresolvedLabel indicates that an operand names a label that is
	// not defined in the same file.
	ErrUnresolvedLabel = errors.New("asm: unresolved label")

	// ErrInvalidOperandAlignment indicates that an odd register was used
	// where a double precision register pair is required.
	ErrInvalidOperandAlignment = errors.New("asm: double register must be even")

	// ErrMalformedDirectiveOperand indicates a non-numeric literal where
	// a directive requires a number.
	ErrMalformedDirectiveOperand = errors.New("asm: malformed directive operand")

	// ErrMalformedOperand indicates a missing or unparsable instruction operand.
	ErrMalformedOperand = errors.New("asm: malformed operand")

	// ErrShapeMismatch indicates that an opcode has no operand shape or that
	// its shape cannot be encoded with the catalog class.
	ErrShapeMismatch = errors.New("asm: operand shape does not match instruction class")

	// ErrMalformedDefinition indicates a bad instruction definition record.
	ErrMalformedDefinition = errors.New("asm: malformed instruction definition")
)

// Error is an assembly error bound to a position in a source file.
type Error struct {
	Err     error
	File    string
	Address uint32
	Lineno  int
	Token   string
}

// Error implements error.Error
func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: [%08x] %s near '%s'", e.File, e.Lineno, e.Address, e.Err, e.Token)
}

// Unwrap allows errors.Is to match the underlying sentinel.
func (e *Error) Unwrap() error {
	return e.Err
}

// errorAt wraps err with the position of line. When err is already
// an *Error the original position wins.
func errorAt(file string, line *Line, token string, err error) error {
	var already *Error
	if errors.As(err, &already) {
		return err
	}
	return &Error{Err: err, File: file, Address: line.Address, Lineno: line.Lineno, Token: token}
}

// tokenError is an error that remembers the offending token so that the
// driver can report it without each encoder knowing the file name.
type tokenError struct {
	err   error
	token string
}

func (te *tokenError) Error() string {
	return fmt.Sprintf("%s: '%s'", te.err, te.token)
}

func (te *tokenError) Unwrap() error {
	return te.err
}

// failAt returns an error wrapping sentinel and remembering token.
func failAt(sentinel error, token string) error {
	return &tokenError{err: sentinel, token: token}
}

// positioned converts an encoder error into an *Error for file and line.
func positioned(file string, line *Line, err error) error {
	if err == nil {
		return nil
	}
	token := line.Mnemonic
	var te *tokenError
	if errors.As(err, &te) {
		token = te.token
		err = te.err
	}
	return errorAt(file, line, token, err)
}
