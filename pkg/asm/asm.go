// Package asm contains the DLX assembler.
//
// Assembling a file takes two passes. Layout tokenizes and classifies
// each source line and assigns it a memory address. BuildSymbolTable
// then records the address of every label, and the second pass encodes
// each instruction into a 32-bit word and each data directive into its
// byte level text, resolving labels through the symbol table so that
// forward references work.
//
// Output format
//
// Each encoded row is rendered as follows:
//
//     00000010: 20410004	#
//
// that is, the address as 8 hex digits, a colon, the value, a tab and
// a hash sign. The value is the 8 hex digit instruction word or the
// text produced by a data directive.
package asm

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Row is an encoded output record.
type Row struct {
	Address uint32
	Word    uint32
	Text    string
	IsWord  bool
	Source  *Line
}

// Value returns the encoded value of the row.
func (r Row) Value() string {
	if r.IsWord {
		return fmt.Sprintf("%08x", r.Word)
	}
	return r.Text
}

// String renders the row in the output record format.
func (r Row) String() string {
	return fmt.Sprintf("%08x: %s\t#", r.Address, r.Value())
}

// RowOrError contains either an encoded row or an error that
// occurred while assembling.
type RowOrError struct {
	Row   Row
	Error error
}

// Encode encodes the current row or returns an error.
func (roe RowOrError) Encode() (string, error) {
	if roe.Error != nil {
		return "", roe.Error
	}
	return roe.Row.String() + "\n", nil
}

// Result is the outcome of assembling a single file.
type Result struct {
	File    string
	Program *Program
	Symbols SymbolTable
	Rows    []Row
}

// Source is a named source file.
type Source struct {
	Name   string
	Reader io.Reader
}

// Assemble runs both passes over a single source file.
func Assemble(file string, r io.Reader, catalog *Catalog) (*Result, error) {
	program, err := Layout(file, r)
	if err != nil {
		return nil, err
	}
	symbols := BuildSymbolTable(program)
	slog.Debug("symbol table created", "file", file, "labels", len(symbols))
	rows, err := Encode(program, symbols, catalog)
	if err != nil {
		return nil, err
	}
	return &Result{File: file, Program: program, Symbols: symbols, Rows: rows}, nil
}

// Encode is the second pass: it encodes every line of program. The
// first error aborts the pass and no rows are returned.
func Encode(program *Program, symbols SymbolTable, catalog *Catalog) ([]Row, error) {
	var rows []Row
	for idx := range program.Lines {
		line := &program.Lines[idx]
		switch {
		case line.Kind == KindInstruction:
			word, err := EncodeInstruction(line, symbols, catalog)
			if err != nil {
				return nil, positioned(program.File, line, err)
			}
			rows = append(rows, Row{Address: line.Address, Word: word, IsWord: true, Source: line})
		case line.Kind.IsData():
			encoded, err := EncodeDirective(line, symbols)
			if err != nil {
				return nil, positioned(program.File, line, err)
			}
			rows = append(rows, encoded...)
		}
	}
	return rows, nil
}

// StartAssembler starts the assembler in a background goroutine and
// returns a sequence of RowOrError. The channel is closed after the
// last row or after the first error.
func StartAssembler(ctx context.Context, file string, r io.Reader, catalog *Catalog) <-chan RowOrError {
	out := make(chan RowOrError)
	go AssemblerAsync(ctx, file, r, catalog, out)
	return out
}

// AssemblerAsync runs the assembler. It reads from the input reader
// and it writes RowOrError on the output channel.
func AssemblerAsync(ctx context.Context, file string, r io.Reader, catalog *Catalog, out chan<- RowOrError) {
	defer close(out)
	result, err := Assemble(file, r, catalog)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		select {
		case out <- RowOrError{Error: err}:
		case <-ctx.Done():
		}
		return
	}
	for _, row := range result.Rows {
		if ctx.Err() != nil {
			return
		}
		select {
		case out <- RowOrError{Row: row}:
		case <-ctx.Done():
			return
		}
	}
}

// Assembler assembles many files sharing the same catalog.
type Assembler struct {
	// Catalog is the instruction catalog. It must not be modified
	// while AssembleFiles is running.
	Catalog *Catalog

	// Jobs bounds the number of files assembled concurrently. Zero
	// or a negative value means one file at a time.
	Jobs int
}

// AssembleFiles assembles each source independently. Results are
// returned in the order of sources. The first error cancels the
// remaining files and is returned.
func (a *Assembler) AssembleFiles(ctx context.Context, sources []Source) ([]*Result, error) {
	results := make([]*Result, len(sources))
	group, ctx := errgroup.WithContext(ctx)
	jobs := a.Jobs
	if jobs <= 0 {
		jobs = 1
	}
	group.SetLimit(jobs)
	for idx, source := range sources {
		idx, source := idx, source
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := Assemble(source.Name, source.Reader, a.Catalog)
			if err != nil {
				return err
			}
			slog.Info("file assembled", "file", source.Name, "rows", len(result.Rows))
			results[idx] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
