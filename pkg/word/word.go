// Package word decodes DLX instruction words and reads back the
// records written by the assembler.
//
// Instruction format
//
// Each instruction is 32 bits wide. We have three instruction formats:
//
// 1. I (immediate);
// 2. J (jump);
// 3. R (register).
//
// The following is the I format:
//
//     <Opcode:6><RS1:5><RD:5><Immediate:16>
//
// The following is the J format:
//
//     <Opcode:6><Displacement:26>
//
// The following is the R format:
//
//     <Opcode:6><RS1:5><RS2:5><RD:5><Unused:5><Function:6>
//
// Record format
//
// The assembler writes one record per line:
//
//     00000010: 20410004	#
//
// The address is 8 hex digits. The value is either an 8 hex digit
// instruction word or the hex text of a data directive, which may be
// of any even length. Everything after the hash sign is a comment.
package word

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformedRecord indicates that a record cannot be parsed.
var ErrMalformedRecord = errors.New("word: malformed record")

// DecodeOpcode decodes the opcode of an instruction.
func DecodeOpcode(ci uint32) uint32 {
	return (ci >> 26) & 0b11_1111
}

// DecodeRS1 decodes the first source register of an instruction.
func DecodeRS1(ci uint32) uint32 {
	return (ci >> 21) & 0b1_1111
}

// DecodeRS2 decodes the second register of an instruction. This is the
// destination register of I format instructions.
func DecodeRS2(ci uint32) uint32 {
	return (ci >> 16) & 0b1_1111
}

// DecodeRD decodes the destination register of an R format instruction.
func DecodeRD(ci uint32) uint32 {
	return (ci >> 11) & 0b1_1111
}

// DecodeFunction decodes the function code of an R format instruction.
func DecodeFunction(ci uint32) uint32 {
	return ci & 0b11_1111
}

// DecodeImm16 decodes the signed 16 bit immediate.
func DecodeImm16(ci uint32) uint32 {
	return SignExtend(ci&0xFFFF, 16)
}

// DecodeImm26 decodes the signed 26 bit displacement.
func DecodeImm26(ci uint32) uint32 {
	return SignExtend(ci&0x3FF_FFFF, 26)
}

// Fields contains all the fields of an instruction word. Which of them
// are meaningful depends on the instruction format.
type Fields struct {
	Opcode   uint32
	RS1      uint32
	RS2      uint32
	RD       uint32
	Function uint32
	Imm16    uint32
	Imm26    uint32
}

// Decode decodes an instruction.
func Decode(ci uint32) Fields {
	return Fields{
		Opcode:   DecodeOpcode(ci),
		RS1:      DecodeRS1(ci),
		RS2:      DecodeRS2(ci),
		RD:       DecodeRD(ci),
		Function: DecodeFunction(ci),
		Imm16:    DecodeImm16(ci),
		Imm26:    DecodeImm26(ci),
	}
}

// String returns the fields as key=value pairs.
func (f Fields) String() string {
	return fmt.Sprintf("op=%d rs1=%d rs2=%d rd=%d fn=%d imm=%d",
		f.Opcode, f.RS1, f.RS2, f.RD, f.Function, int32(f.Imm16))
}

// SignExtend extends the sign of the bits-wide value v.
func SignExtend(v uint32, bits uint) uint32 {
	if (v & (1 << (bits - 1))) != 0 {
		v |= ^uint32(0) << bits
	}
	return v
}

// Record is a parsed output record.
type Record struct {
	Address uint32
	Value   string
}

// Word returns the value of an instruction record.
func (r Record) Word() (uint32, error) {
	if len(r.Value) != 8 {
		return 0, fmt.Errorf("%w: '%s' is not a word", ErrMalformedRecord, r.Value)
	}
	value, err := strconv.ParseUint(r.Value, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrMalformedRecord, err.Error())
	}
	return uint32(value), nil
}

// ParseRecord parses a single record line.
func ParseRecord(line string) (Record, error) {
	if index := strings.Index(line, "#"); index >= 0 {
		line = line[:index]
	}
	addr, value, found := strings.Cut(strings.TrimSpace(line), ":")
	if !found {
		return Record{}, fmt.Errorf("%w: missing colon", ErrMalformedRecord)
	}
	address, err := strconv.ParseUint(strings.TrimSpace(addr), 16, 32)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s", ErrMalformedRecord, err.Error())
	}
	return Record{Address: uint32(address), Value: strings.TrimSpace(value)}, nil
}

// LoadRecords loads records from the specified io.Reader. Blank lines
// are skipped.
func LoadRecords(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, err := ParseRecord(line)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
