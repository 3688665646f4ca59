package asm

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EncodeDirective is the second pass for a data directive: it returns
// one row per element laid out by line. Directives that only move the
// location counter produce no rows.
func EncodeDirective(line *Line, symbols SymbolTable) ([]Row, error) {
	if !line.Kind.IsData() {
		return nil, nil
	}
	rows := make([]Row, 0, len(line.Elements))
	for _, element := range line.Elements {
		text, err := encodeElement(line.Kind, element.Value, symbols)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{Address: element.Address, Text: text, Source: line})
	}
	return rows, nil
}

func encodeElement(kind LineKind, value string, symbols SymbolTable) (string, error) {
	switch kind {
	case KindAscii:
		return hex.EncodeToString([]byte(value)), nil
	case KindAsciiz:
		return hex.EncodeToString([]byte(value)) + "00", nil
	case KindDouble:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return "", failAt(ErrMalformedDirectiveOperand, value)
		}
		return fmt.Sprintf("%016x", math.Float64bits(f)), nil
	case KindFloat:
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return "", failAt(ErrMalformedDirectiveOperand, value)
		}
		return fmt.Sprintf("%08x", math.Float32bits(float32(f))), nil
	default: // KindWord
		w, err := ParseWord(value, symbols)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%08x", w), nil
	}
}

// ParseWord parses the operand of a .word directive: a hexadecimal
// literal with a 0x prefix and an optional minus sign, a signed decimal
// literal, or a label. The result is truncated to 32 bits.
func ParseWord(token string, symbols SymbolTable) (uint32, error) {
	digits := strings.TrimPrefix(token, "-")
	negative := len(digits) != len(token)
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		value, err := strconv.ParseUint(digits[2:], 16, 64)
		if err != nil {
			return 0, failAt(ErrMalformedDirectiveOperand, token)
		}
		if negative {
			value = -value
		}
		return uint32(value), nil
	}
	if value, err := strconv.ParseInt(token, 10, 64); err == nil {
		return uint32(value), nil
	}
	if addr, found := symbols.Resolve(token); found {
		return addr, nil
	}
	return 0, failAt(ErrMalformedDirectiveOperand, token)
}
