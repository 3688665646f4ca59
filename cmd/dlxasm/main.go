// Command dlxasm assembles DLX source files into .hex listings.
//
// Usage:
//
//     dlxasm [--itypes Itypes --jtypes Jtypes --rtypes Rtypes] file.dlx...
//
// Each file.dlx is assembled independently and written as file.hex.
package main

import (
	"github.com/tebeka/atexit"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		atexit.Fatal(err)
	}
	atexit.Exit(0)
}
