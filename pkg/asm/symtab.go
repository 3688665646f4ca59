package asm

// SymbolTable maps a label, including its trailing colon, to the
// address of the line it designates.
type SymbolTable map[string]uint32

// BuildSymbolTable is the first pass: it records every label defined
// by the lines of program. A line defines a label with its first token
// and, when the first token is a label, also with its second token. A
// label defined twice keeps the last address.
func BuildSymbolTable(program *Program) SymbolTable {
	symbols := make(SymbolTable)
	for _, line := range program.Lines {
		if len(line.Tokens) == 0 || !IsLabel(line.Tokens[0]) {
			continue
		}
		symbols[line.Tokens[0]] = line.Address
		if len(line.Tokens) > 1 && IsLabel(line.Tokens[1]) {
			symbols[line.Tokens[1]] = line.Address
		}
	}
	return symbols
}

// Resolve returns the address of the label referenced as name, which
// is written without the trailing colon.
func (st SymbolTable) Resolve(name string) (uint32, bool) {
	addr, found := st[name+":"]
	return addr, found
}
