package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"

	"github.com/bassosimone/dlxasm/pkg/asm"
	"github.com/bassosimone/dlxasm/pkg/word"
)

// errOutputMismatch indicates that a written .hex file does not read
// back as the rows it was written from.
var errOutputMismatch = errors.New("dlxasm: output does not match the assembled rows")

// writeHexFile writes rows to path and reads the file back. Until the
// file is written and checked an exit handler removes it, so an aborted
// run leaves no partial output.
func writeHexFile(path string, rows []asm.Row) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	cleanup := atexit.Register(func() {
		slog.Warn("removing partial output", "file", path)
		os.Remove(path)
	})
	if err := asm.WriteRows(asm.NewTextWriter(fp), rows); err != nil {
		fp.Close()
		return err
	}
	if err := fp.Close(); err != nil {
		return err
	}
	if err := verifyHexFile(path, rows); err != nil {
		return err
	}
	return cleanup.Cancel()
}

// verifyHexFile checks that path holds exactly one record per row.
func verifyHexFile(path string, rows []asm.Row) error {
	fp, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	records, err := word.LoadRecords(fp)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(records) != len(rows) {
		return fmt.Errorf("%s: %w: %d records for %d rows", path, errOutputMismatch, len(records), len(rows))
	}
	for idx, record := range records {
		row := rows[idx]
		if record.Address != row.Address || record.Value != row.Value() {
			return fmt.Errorf("%s: %w at %08x", path, errOutputMismatch, row.Address)
		}
		if !row.IsWord {
			continue
		}
		if w, err := record.Word(); err != nil || w != row.Word {
			return fmt.Errorf("%s: %w at %08x", path, errOutputMismatch, row.Address)
		}
	}
	return nil
}
