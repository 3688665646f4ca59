package asm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The following constants define the bit layout of an instruction word.
const (
	opcodeShift = 26
	rs1Shift    = 21
	rs2Shift    = 16
	rdShift     = 11

	opcodeMask   = 0b11_1111
	registerMask = 0b1_1111
	functionMask = 0b11_1111
	imm16Mask    = 0xFFFF
	imm26Mask    = 0x3FF_FFFF

	// NumRegisters is the number of registers in each register file.
	NumRegisters = 32
)

// RegisterFile is the register file an operand belongs to.
type RegisterFile int

// The following constants define the register files.
const (
	GeneralRegister = RegisterFile(iota) // r0..r31
	FloatRegister                        // f0..f31
	DoubleRegister                       // even f registers holding a double
)

// moveOperands lists the destination and source register files of the
// two register move and convert shapes.
var moveOperands = map[Shape][2]RegisterFile{
	ShapeGprFpMove:        {GeneralRegister, FloatRegister},
	ShapeFpMoveFromGpr:    {FloatRegister, GeneralRegister},
	ShapeFpConvert:        {FloatRegister, FloatRegister},
	ShapeDoublePairMove:   {DoubleRegister, DoubleRegister},
	ShapeDoubleFromSingle: {DoubleRegister, FloatRegister},
	ShapeSingleFromDouble: {FloatRegister, DoubleRegister},
}

// threeOperands lists the register file of the three register shapes.
var threeOperands = map[Shape]RegisterFile{
	ShapeThreeGpr:      GeneralRegister,
	ShapeThreeFpSingle: FloatRegister,
	ShapeThreeFpDouble: DoubleRegister,
	ShapeFpCompare:     FloatRegister,
	ShapeDoubleCompare: DoubleRegister,
}

// memoryOperands lists the register file of the load and store shapes.
var memoryOperands = map[Shape]RegisterFile{
	ShapeGprBaseOffset:       GeneralRegister,
	ShapeFpBaseOffset:        FloatRegister,
	ShapeDoubleBaseOffset:    DoubleRegister,
	ShapeStoreGprToOffset:    GeneralRegister,
	ShapeStoreFpToOffset:     FloatRegister,
	ShapeStoreDoubleToOffset: DoubleRegister,
}

// EncodeInstruction is the second pass for an instruction line: it
// returns the 32-bit machine word of line using the catalog and the
// symbols of the file. No partial word is returned on error.
func EncodeInstruction(line *Line, symbols SymbolTable, catalog *Catalog) (uint32, error) {
	desc, err := catalog.Lookup(line.Mnemonic)
	if err != nil {
		return 0, err
	}
	shape, found := LookupShape(line.Mnemonic)
	if !found {
		return 0, failAt(ErrShapeMismatch, line.Mnemonic)
	}
	if !shape.allowedIn(desc.Class) {
		return 0, failAt(ErrShapeMismatch, fmt.Sprintf("%s (%s in %s-type)", line.Mnemonic, shape, desc.Class))
	}
	enc := &encoder{line: line, symbols: symbols, desc: desc, shape: shape}
	var body uint32
	switch desc.Class {
	case ClassJ:
		body, err = enc.encodeJ()
	case ClassR:
		body, err = enc.encodeR()
	default:
		body, err = enc.encodeI()
	}
	if err != nil {
		return 0, err
	}
	var out uint32
	out |= (desc.Encoding & opcodeMask) << opcodeShift
	out |= body
	return out, nil
}

// encoder encodes the operand bits of a single instruction.
type encoder struct {
	line    *Line
	symbols SymbolTable
	desc    InstructionDescriptor
	shape   Shape
}

// function returns the function code bits, or zero when the opcode
// does not carry a function code.
func (enc *encoder) function() uint32 {
	if enc.desc.FunctionCode < 0 {
		return 0
	}
	return uint32(enc.desc.FunctionCode) & functionMask
}

func (enc *encoder) operand(idx int) (string, error) {
	if idx >= len(enc.line.Operands) {
		return "", failAt(ErrMalformedOperand, enc.line.String())
	}
	return enc.line.Operands[idx], nil
}

func (enc *encoder) register(idx int, kind RegisterFile) (uint32, error) {
	token, err := enc.operand(idx)
	if err != nil {
		return 0, err
	}
	return ParseRegister(token, kind)
}

func (enc *encoder) immediate(idx int) (uint32, error) {
	token, err := enc.operand(idx)
	if err != nil {
		return 0, err
	}
	value, err := ResolveImmediate(enc.symbols, token)
	if err != nil {
		return 0, err
	}
	return uint32(value), nil
}

// displacement returns the PC-relative distance to the label operand
// at idx. A numeric operand is taken as the displacement itself.
func (enc *encoder) displacement(idx int) (uint32, error) {
	token, err := enc.operand(idx)
	if err != nil {
		return 0, err
	}
	if value, err := strconv.ParseInt(token, 0, 64); err == nil {
		return uint32(value), nil
	}
	target, found := enc.symbols.Resolve(token)
	if !found {
		return 0, failAt(ErrUnresolvedLabel, token)
	}
	return target - (enc.line.Address + WordSize), nil
}

func (enc *encoder) encodeJ() (uint32, error) {
	switch enc.shape {
	case ShapeNone:
		return 0, nil
	case ShapeImmediate:
		imm, err := enc.immediate(0)
		if err != nil {
			return 0, err
		}
		return imm & imm26Mask, nil
	default: // ShapeLabelOnlyJump
		disp, err := enc.displacement(0)
		if err != nil {
			return 0, err
		}
		return disp & imm26Mask, nil
	}
}

func (enc *encoder) encodeI() (uint32, error) {
	var out uint32
	switch enc.shape {
	case ShapeNone:
	case ShapeImmediate:
		imm, err := enc.immediate(0)
		if err != nil {
			return 0, err
		}
		out |= imm & imm16Mask
	case ShapeSingleGpr:
		rs1, err := enc.register(0, GeneralRegister)
		if err != nil {
			return 0, err
		}
		out |= rs1 << rs1Shift
	case ShapeGprAndLabel:
		rs1, err := enc.register(0, GeneralRegister)
		if err != nil {
			return 0, err
		}
		disp, err := enc.displacement(1)
		if err != nil {
			return 0, err
		}
		out |= rs1 << rs1Shift
		out |= disp & imm16Mask
	case ShapeLabelBranch:
		disp, err := enc.displacement(0)
		if err != nil {
			return 0, err
		}
		out |= disp & imm16Mask
	case ShapeGprImmediateLoad:
		rs1, err := enc.register(0, GeneralRegister)
		if err != nil {
			return 0, err
		}
		imm, err := enc.immediate(1)
		if err != nil {
			return 0, err
		}
		out |= rs1 << rs1Shift
		out |= imm & imm16Mask
	case ShapeGprGprInt, ShapeGprGprUint:
		rd, err := enc.register(0, GeneralRegister)
		if err != nil {
			return 0, err
		}
		rs1, err := enc.register(1, GeneralRegister)
		if err != nil {
			return 0, err
		}
		imm, err := enc.immediate(2)
		if err != nil {
			return 0, err
		}
		out |= rs1 << rs1Shift
		out |= rd << rs2Shift
		out |= imm & imm16Mask
	case ShapeGprBaseOffset, ShapeFpBaseOffset, ShapeDoubleBaseOffset:
		rd, err := enc.register(0, memoryOperands[enc.shape])
		if err != nil {
			return 0, err
		}
		token, err := enc.operand(1)
		if err != nil {
			return 0, err
		}
		offset, base, err := ParseOffset(enc.symbols, token)
		if err != nil {
			return 0, err
		}
		out |= base << rs1Shift
		out |= rd << rs2Shift
		out |= offset & imm16Mask
	case ShapeStoreGprToOffset, ShapeStoreFpToOffset, ShapeStoreDoubleToOffset:
		token, err := enc.operand(0)
		if err != nil {
			return 0, err
		}
		offset, base, err := ParseOffset(enc.symbols, token)
		if err != nil {
			return 0, err
		}
		rd, err := enc.register(1, memoryOperands[enc.shape])
		if err != nil {
			return 0, err
		}
		out |= base << rs1Shift
		out |= rd << rs2Shift
		out |= offset & imm16Mask
	default: // register moves keep the R-type trailer
		kinds := moveOperands[enc.shape]
		if _, err := enc.register(0, kinds[0]); err != nil {
			return 0, err
		}
		rs1, err := enc.register(1, kinds[1])
		if err != nil {
			return 0, err
		}
		out |= rs1 << rs1Shift
		out |= enc.function()
	}
	return out, nil
}

func (enc *encoder) encodeR() (uint32, error) {
	var out uint32
	switch enc.shape {
	case ShapeNone:
	case ShapeThreeGpr, ShapeThreeFpSingle, ShapeThreeFpDouble:
		kind := threeOperands[enc.shape]
		rd, err := enc.register(0, kind)
		if err != nil {
			return 0, err
		}
		rs1, err := enc.register(1, kind)
		if err != nil {
			return 0, err
		}
		rs2, err := enc.register(2, kind)
		if err != nil {
			return 0, err
		}
		out |= rs1 << rs1Shift
		out |= rs2 << rs2Shift
		out |= rd << rdShift
	case ShapeFpCompare, ShapeDoubleCompare:
		kind := threeOperands[enc.shape]
		rs1, err := enc.register(0, kind)
		if err != nil {
			return 0, err
		}
		rs2, err := enc.register(1, kind)
		if err != nil {
			return 0, err
		}
		out |= rs1 << rs1Shift
		out |= rs2 << rs2Shift
	default: // two register moves and converts
		kinds := moveOperands[enc.shape]
		rd, err := enc.register(0, kinds[0])
		if err != nil {
			return 0, err
		}
		rs1, err := enc.register(1, kinds[1])
		if err != nil {
			return 0, err
		}
		out |= rs1 << rs1Shift
		out |= rd << rdShift
	}
	out |= enc.function()
	return out, nil
}

// ParseRegister parses a register token such as `r7` or `f4`. A single
// leading class letter is stripped when present. Double registers
// must be even.
func ParseRegister(token string, kind RegisterFile) (uint32, error) {
	digits := token
	letter := "r"
	if kind != GeneralRegister {
		letter = "f"
	}
	if strings.HasPrefix(strings.ToLower(digits), letter) {
		digits = digits[1:]
	}
	value, err := strconv.ParseUint(digits, 10, 8)
	if err != nil || value >= NumRegisters {
		return 0, failAt(ErrMalformedOperand, token)
	}
	if kind == DoubleRegister && value%2 != 0 {
		return 0, failAt(ErrInvalidOperandAlignment, token)
	}
	return uint32(value) & registerMask, nil
}

// ResolveImmediate resolves the value of an immediate, which is either
// an integer literal or the name of a label.
func ResolveImmediate(symbols SymbolTable, name string) (int64, error) {
	value, err := strconv.ParseInt(name, 0, 64)
	if err != nil {
		addr, found := symbols.Resolve(name)
		if !found {
			return 0, failAt(ErrUnresolvedLabel, name)
		}
		return int64(addr), nil
	}
	return value, nil
}

var offsetPattern = regexp.MustCompile(`^(.*)\(([^()]+)\)$`)

// ParseOffset parses a memory operand written as `offset(base)`, where
// offset is a literal or a label, or as a bare label or literal, in which
// case the base register is r0.
func ParseOffset(symbols SymbolTable, token string) (offset, base uint32, err error) {
	var imm int64
	if m := offsetPattern.FindStringSubmatch(token); m != nil {
		if m[1] != "" {
			if imm, err = ResolveImmediate(symbols, m[1]); err != nil {
				return 0, 0, err
			}
		}
		if base, err = ParseRegister(m[2], GeneralRegister); err != nil {
			return 0, 0, err
		}
		return uint32(imm), base, nil
	}
	if imm, err = ResolveImmediate(symbols, token); err != nil {
		return 0, 0, err
	}
	return uint32(imm), 0, nil
}
