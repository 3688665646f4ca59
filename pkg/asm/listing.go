package asm

import (
	"bufio"
	"io"
)

// RowWriter consumes encoded rows, for example to write a .hex file.
type RowWriter interface {
	WriteRow(row Row) error
	Flush() error
}

// WriteRows writes all rows to w and flushes it.
func WriteRows(w RowWriter, rows []Row) error {
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return w.Flush()
}

// TextWriter is a RowWriter emitting one output record per line.
type TextWriter struct {
	w *bufio.Writer
}

// NewTextWriter returns a TextWriter writing to w.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w)}
}

// WriteRow implements RowWriter.WriteRow
func (tw *TextWriter) WriteRow(row Row) error {
	_, err := tw.w.WriteString(row.String() + "\n")
	return err
}

// Flush implements RowWriter.Flush
func (tw *TextWriter) Flush() error {
	return tw.w.Flush()
}

var _ RowWriter = &TextWriter{}
