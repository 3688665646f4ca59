package asm

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Class is the encoding class of an instruction word.
type Class int

// The following constants define the instruction classes.
const (
	ClassI = Class(iota)
	ClassJ
	ClassR
)

// String implements fmt.Stringer
func (c Class) String() string {
	switch c {
	case ClassI:
		return "I"
	case ClassJ:
		return "J"
	case ClassR:
		return "R"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// NoFunctionCode is the function code of I-type and J-type instructions.
const NoFunctionCode = int32(-1)

// InstructionDescriptor describes how to encode an opcode.
type InstructionDescriptor struct {
	Opcode       string
	Encoding     uint32
	Class        Class
	FunctionCode int32
}

// Catalog maps opcode names to their descriptors. A catalog must be
// fully loaded before assembling; afterwards it is read only and may
// be shared by concurrent assemblies.
type Catalog struct {
	entries map[string]InstructionDescriptor
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]InstructionDescriptor)}
}

//go:embed defs
var defaultDefs embed.FS

// DefaultCatalog returns a catalog loaded from the built-in DLX
// instruction definitions.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, def := range []struct {
		name  string
		class Class
	}{{"defs/Itypes", ClassI}, {"defs/Jtypes", ClassJ}, {"defs/Rtypes", ClassR}} {
		fp, err := defaultDefs.Open(def.name)
		if err != nil {
			panic(err) // embedded, cannot happen
		}
		if _, err := c.Load(def.class, fp); err != nil {
			panic(err)
		}
		fp.Close()
	}
	return c
}

// Load reads tab separated definition records of the given class and
// returns the number of records loaded. I-type and J-type records are
// `opcode<TAB>encoding`; R-type records are `opcode<TAB>encoding<TAB>function`.
// An opcode loaded twice keeps the last definition.
func (c *Catalog) Load(class Class, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	var count, lineno int
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		desc, err := parseDefinition(class, line)
		if err != nil {
			return count, fmt.Errorf("%w on record %d: %s", ErrMalformedDefinition, lineno, err.Error())
		}
		c.entries[desc.Opcode] = desc
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}
	return count, nil
}

func parseDefinition(class Class, line string) (InstructionDescriptor, error) {
	fields := strings.Split(line, "\t")
	want := 2
	if class == ClassR {
		want = 3
	}
	if len(fields) < want {
		return InstructionDescriptor{}, fmt.Errorf("want %d fields, got %d", want, len(fields))
	}
	desc := InstructionDescriptor{
		Opcode:       strings.TrimSpace(fields[0]),
		Class:        class,
		FunctionCode: NoFunctionCode,
	}
	encoding, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 32)
	if err != nil {
		return InstructionDescriptor{}, err
	}
	desc.Encoding = uint32(encoding)
	if class == ClassR {
		fc, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 32)
		if err != nil {
			return InstructionDescriptor{}, err
		}
		desc.FunctionCode = int32(fc)
	}
	return desc, nil
}

// Lookup returns the descriptor of opcode or ErrUnknownOpcode.
func (c *Catalog) Lookup(opcode string) (InstructionDescriptor, error) {
	desc, found := c.entries[opcode]
	if !found {
		return InstructionDescriptor{}, failAt(ErrUnknownOpcode, opcode)
	}
	return desc, nil
}

// Len returns the number of opcodes in the catalog.
func (c *Catalog) Len() int {
	return len(c.entries)
}
