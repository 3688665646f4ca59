package asm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WordSize is the size in bytes of an instruction word.
const WordSize = 4

// Element is one value laid out by a data directive.
type Element struct {
	Address uint32
	Size    uint32
	Value   string
}

// Line is a classified source line placed at its memory address.
type Line struct {
	Kind     LineKind
	Tokens   []string
	Labels   []string
	Mnemonic string
	Operands []string
	Address  uint32
	Lineno   int
	Elements []Element
}

// Addr returns the address formatted as 8 lowercase hex digits.
func (l *Line) Addr() string {
	return FormatAddress(l.Address)
}

// String returns the source text of the line.
func (l *Line) String() string {
	return strings.Join(l.Tokens, " ")
}

// occupiesMemory returns whether the line places bytes in memory.
func (l *Line) occupiesMemory() bool {
	return l.Kind == KindInstruction || l.Kind == KindSpace || l.Kind.IsData()
}

// FormatAddress formats addr as 8 lowercase hex digits.
func FormatAddress(addr uint32) string {
	return fmt.Sprintf("%08x", addr)
}

// Program is the laid out content of a single source file. Lines are
// kept in scan order. Label only lines share the address of the
// content that follows them.
type Program struct {
	File  string
	Lines []Line
}

// Lookup returns the first content line placed at addr.
func (p *Program) Lookup(addr uint32) (*Line, bool) {
	for idx := range p.Lines {
		if p.Lines[idx].Address == addr && p.Lines[idx].occupiesMemory() {
			return &p.Lines[idx], true
		}
	}
	return nil, false
}

// layout is the state of the address assigner.
type layout struct {
	program   *Program
	addr      uint32 // address of the last placed slot
	next      uint32 // increment before the next slot
	seenSpace bool
}

// Layout reads a source file and assigns an address to each line.
func Layout(file string, r io.Reader) (*Program, error) {
	lay := &layout{program: &Program{File: file}}
	scanner := bufio.NewScanner(r)
	var lineno int
	for scanner.Scan() {
		lineno++
		tokens, ok := Tokenize(scanner.Text())
		if !ok {
			continue
		}
		line := Classify(tokens, lineno)
		if err := lay.place(line); err != nil {
			line.Address = lay.addr + lay.next
			return nil, positioned(file, &line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s:%d: %w", file, lineno+1, err)
	}
	return lay.program, nil
}

func (lay *layout) record(line Line, addr uint32) {
	line.Address = addr
	Trace("layout", "file", lay.program.File, "addr", line.Addr(), "line", line.String())
	lay.program.Lines = append(lay.program.Lines, line)
}

func (lay *layout) place(line Line) error {
	switch line.Kind {
	case KindReset, KindComment:
		return nil
	case KindLabel:
		lay.addr += lay.next
		lay.next = 0
		lay.record(line, lay.addr)
		return nil
	case KindText, KindData:
		var addr uint32
		if len(line.Operands) > 0 {
			value, err := parseHexAddress(line.Operands[0])
			if err != nil {
				return err
			}
			addr = value
		}
		lay.addr, lay.next = addr, 0
		lay.recordLabelled(line)
		return nil
	case KindAlign:
		n, err := directiveNumber(line.Operands, 0)
		if err != nil {
			return err
		}
		if n > 31 {
			return failAt(ErrMalformedDirectiveOperand, line.Operands[0])
		}
		lay.addr, lay.next = alignUp(lay.addr+lay.next, uint32(1)<<n), 0
		lay.recordLabelled(line)
		return nil
	case KindSpace:
		n, err := directiveNumber(line.Operands, 0)
		if err != nil {
			return err
		}
		start := lay.addr + lay.next
		if !lay.seenSpace {
			start = lay.addr
			lay.seenSpace = true
		}
		lay.record(line, start)
		lay.addr, lay.next = start+n, 0
		return nil
	case KindInstruction:
		lay.addr += lay.next
		lay.record(line, lay.addr)
		lay.next = WordSize
		return nil
	default:
		return lay.placeData(line)
	}
}

// recordLabelled records a layout-only directive when it carries a label,
// so the label designates the address the directive produced.
func (lay *layout) recordLabelled(line Line) {
	if len(line.Labels) > 0 {
		lay.record(line, lay.addr)
	}
}

func (lay *layout) placeData(line Line) error {
	if len(line.Operands) == 0 {
		return failAt(ErrMalformedDirectiveOperand, line.Mnemonic)
	}
	elements, err := dataElements(line.Kind, line.Operands)
	if err != nil {
		return err
	}
	start := lay.addr + lay.next
	addr := start
	for idx := range elements {
		elements[idx].Address = addr
		addr += elements[idx].Size
	}
	line.Elements = elements
	lay.record(line, start)
	lay.addr, lay.next = addr, 0
	return nil
}

// dataElements computes the size and the textual value of each operand
// of a data directive. The result is freshly allocated on each call.
func dataElements(kind LineKind, operands []string) ([]Element, error) {
	elements := make([]Element, 0, len(operands))
	for _, operand := range operands {
		element := Element{Value: operand}
		switch kind {
		case KindAscii, KindAsciiz:
			text, err := unquote(operand)
			if err != nil {
				return nil, err
			}
			element.Value = text
			element.Size = uint32(len(text))
			if kind == KindAsciiz {
				element.Size++
			}
		case KindDouble:
			element.Size = 8
		case KindFloat, KindWord:
			element.Size = WordSize
		}
		elements = append(elements, element)
	}
	return elements, nil
}

// unquote strips the quotes of a string literal and decodes its
// backslash escapes, so that the element size counts decoded bytes.
func unquote(operand string) (string, error) {
	if !strings.HasPrefix(operand, `"`) {
		return "", failAt(ErrMalformedDirectiveOperand, operand)
	}
	text, err := strconv.Unquote(operand)
	if err != nil {
		return "", failAt(ErrMalformedDirectiveOperand, operand)
	}
	return text, nil
}

func alignUp(addr, boundary uint32) uint32 {
	if rem := addr % boundary; rem != 0 {
		return addr + (boundary - rem)
	}
	return addr
}

func directiveNumber(operands []string, idx int) (uint32, error) {
	if idx >= len(operands) {
		return 0, failAt(ErrMalformedDirectiveOperand, "")
	}
	value, err := strconv.ParseUint(operands[idx], 0, 32)
	if err != nil {
		return 0, failAt(ErrMalformedDirectiveOperand, operands[idx])
	}
	return uint32(value), nil
}

func parseHexAddress(token string) (uint32, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(token, "0x"), "0X")
	value, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, failAt(ErrMalformedDirectiveOperand, token)
	}
	return uint32(value), nil
}
