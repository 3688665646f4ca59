package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bassosimone/dlxasm/pkg/asm"
	"github.com/bassosimone/dlxasm/pkg/word"
)

const program = `
; count down from four
start:  addi r1, r0, 4
loop:   subi r1, r1, 1
        bnez r1, loop
        trap 0
.data 0x40
msg:    .asciiz "ok"
`

func writeFile(dir, name, content string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
	return path
}

var _ = Describe("outputPath", func() {
	DescribeTable("should map sources to .hex files",
		func(file, outDir, expected string) {
			Expect(outputPath(file, outDir)).To(Equal(expected))
		},
		Entry("next to the source", "src/prog.dlx", "", "src/prog.hex"),
		Entry("inside the output directory", "src/prog.dlx", "build", filepath.Join("build", "prog.hex")),
	)
})

var _ = Describe("validateInputs", func() {
	It("should accept .dlx files", func() {
		var out bytes.Buffer

		Expect(validateInputs(newStatus(&out, true), []string{"a.dlx", "b/c.dlx"})).To(Succeed())
		Expect(out.String()).To(ContainSubstring("a.dlx file valid"))
	})

	It("should stop at the first file with another extension", func() {
		var out bytes.Buffer

		err := validateInputs(newStatus(&out, true), []string{"a.dlx", "b.s", "c.txt"})

		Expect(err).To(MatchError(ContainSubstring("b.s is not a .dlx file")))
		Expect(out.String()).To(ContainSubstring("STOPPED"))
		Expect(out.String()).NotTo(ContainSubstring("c.txt"))
	})
})

var _ = Describe("loadCatalog", func() {
	It("should use the built-in definitions by default", func() {
		var out bytes.Buffer

		catalog, err := loadCatalog(newStatus(&out, true), &options{})

		Expect(err).NotTo(HaveOccurred())
		Expect(catalog.Len()).To(Equal(asm.DefaultCatalog().Len()))
		Expect(out.String()).To(ContainSubstring("built-in definitions"))
	})

	It("should load only the given definition files", func() {
		dir := GinkgoT().TempDir()
		opts := &options{
			itypes: writeFile(dir, "Itypes", "addi\t8\nsubi\t10\n"),
			rtypes: writeFile(dir, "Rtypes", "add\t0\t32\n"),
		}
		var out bytes.Buffer

		catalog, err := loadCatalog(newStatus(&out, true), opts)

		Expect(err).NotTo(HaveOccurred())
		Expect(catalog.Len()).To(Equal(3))
		_, err = catalog.Lookup("j")
		Expect(err).To(MatchError(asm.ErrUnknownOpcode))
		Expect(out.String()).To(ContainSubstring("Itypes downloaded ==> 2 instructions"))
		Expect(out.String()).To(ContainSubstring("Rtypes downloaded ==> 1 instructions"))
	})

	It("should name the definition file that fails to load", func() {
		dir := GinkgoT().TempDir()
		opts := &options{jtypes: writeFile(dir, "Jtypes", "j\n")}

		_, err := loadCatalog(newStatus(&bytes.Buffer{}, true), opts)

		Expect(err).To(MatchError(asm.ErrMalformedDefinition))
		Expect(err.Error()).To(ContainSubstring("Jtypes"))
	})

	It("should fail when a definition file is missing", func() {
		opts := &options{itypes: filepath.Join(GinkgoT().TempDir(), "nope")}

		_, err := loadCatalog(newStatus(&bytes.Buffer{}, true), opts)

		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})

var _ = Describe("run", func() {
	It("should write a .hex file next to each source", func() {
		dir := GinkgoT().TempDir()
		src := writeFile(dir, "count.dlx", program)
		var out bytes.Buffer

		Expect(run(context.Background(), &options{jobs: 2, noColor: true}, []string{src}, &out, &bytes.Buffer{})).To(Succeed())

		fp, err := os.Open(filepath.Join(dir, "count.hex"))
		Expect(err).NotTo(HaveOccurred())
		defer fp.Close()
		records, err := word.LoadRecords(fp)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(Equal([]word.Record{
			{Address: 0x00, Value: "20010004"},
			{Address: 0x04, Value: "28210001"},
			{Address: 0x08, Value: "1420fff8"},
			{Address: 0x0c, Value: "44000000"},
			{Address: 0x40, Value: "6f6b00"},
		}))
		Expect(out.String()).To(ContainSubstring("DLXASM FINISHED"))
	})

	It("should honor the output directory and print a listing", func() {
		dir := GinkgoT().TempDir()
		outDir := filepath.Join(dir, "build")
		Expect(os.Mkdir(outDir, 0o755)).To(Succeed())
		src := writeFile(dir, "count.dlx", program)
		var out bytes.Buffer

		err := run(context.Background(), &options{outDir: outDir, listing: true, noColor: true}, []string{src}, &out, &bytes.Buffer{})

		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Join(outDir, "count.hex")).To(BeAnExistingFile())
		Expect(filepath.Join(dir, "count.hex")).NotTo(BeAnExistingFile())
		Expect(out.String()).To(ContainSubstring("bnez r1 loop"))
		Expect(out.String()).To(ContainSubstring("op=5"))
	})

	It("should not write any file when a source fails", func() {
		dir := GinkgoT().TempDir()
		good := writeFile(dir, "good.dlx", program)
		bad := writeFile(dir, "bad.dlx", "nop\nj nowhere\n")
		var out bytes.Buffer

		err := run(context.Background(), &options{noColor: true}, []string{good, bad}, &out, &bytes.Buffer{})

		Expect(err).To(MatchError(asm.ErrUnresolvedLabel))
		Expect(filepath.Join(dir, "good.hex")).NotTo(BeAnExistingFile())
		Expect(filepath.Join(dir, "bad.hex")).NotTo(BeAnExistingFile())
		Expect(out.String()).To(ContainSubstring("STOPPED"))
	})

	It("should stream the records on stdout without writing files", func() {
		dir := GinkgoT().TempDir()
		src := writeFile(dir, "count.dlx", program)
		var out, errOut bytes.Buffer

		err := run(context.Background(), &options{stdout: true, noColor: true}, []string{src}, &out, &errOut)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(Equal("" +
			"00000000: 20010004\t#\n" +
			"00000004: 28210001\t#\n" +
			"00000008: 1420fff8\t#\n" +
			"0000000c: 44000000\t#\n" +
			"00000040: 6f6b00\t#\n"))
		Expect(errOut.String()).To(ContainSubstring("DLXASM FINISHED"))
		Expect(filepath.Join(dir, "count.hex")).NotTo(BeAnExistingFile())
	})

	It("should stop streaming at the first failing source", func() {
		dir := GinkgoT().TempDir()
		bad := writeFile(dir, "bad.dlx", "nop\nfrob r1\n")
		good := writeFile(dir, "good.dlx", program)
		var out, errOut bytes.Buffer

		err := run(context.Background(), &options{stdout: true, noColor: true}, []string{bad, good}, &out, &errOut)

		Expect(err).To(MatchError(asm.ErrUnknownOpcode))
		Expect(out.String()).To(BeEmpty())
		Expect(errOut.String()).To(ContainSubstring("STOPPED"))
	})

	It("should print the stopped banner when a definition file fails", func() {
		dir := GinkgoT().TempDir()
		src := writeFile(dir, "count.dlx", program)
		opts := &options{itypes: filepath.Join(dir, "missing"), noColor: true}
		var out bytes.Buffer

		err := run(context.Background(), opts, []string{src}, &out, &bytes.Buffer{})

		Expect(err).To(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("STOPPED"))
	})

	It("should print the stopped banner when a source cannot be read", func() {
		src := filepath.Join(GinkgoT().TempDir(), "missing.dlx")
		var out bytes.Buffer

		err := run(context.Background(), &options{noColor: true}, []string{src}, &out, &bytes.Buffer{})

		Expect(os.IsNotExist(err)).To(BeTrue())
		Expect(out.String()).To(ContainSubstring("STOPPED"))
	})

	It("should print the stopped banner when the output cannot be written", func() {
		dir := GinkgoT().TempDir()
		src := writeFile(dir, "count.dlx", program)
		opts := &options{outDir: filepath.Join(dir, "no", "such", "dir"), noColor: true}
		var out bytes.Buffer

		err := run(context.Background(), opts, []string{src}, &out, &bytes.Buffer{})

		Expect(err).To(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("STOPPED"))
	})

	It("should run through the command line", func() {
		dir := GinkgoT().TempDir()
		src := writeFile(dir, "count.dlx", program)
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--no-color", "-j", "2", src})

		Expect(cmd.ExecuteContext(context.Background())).To(Succeed())
		Expect(filepath.Join(dir, "count.hex")).To(BeAnExistingFile())
	})

	It("should require at least one source", func() {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{})

		Expect(cmd.Execute()).To(HaveOccurred())
	})
})

var _ = Describe("writeHexFile", func() {
	rows := []asm.Row{
		{Address: 0, Word: 0x20010004, IsWord: true},
		{Address: 0x40, Text: "6f6b00"},
	}

	It("should write records that read back as the rows", func() {
		path := filepath.Join(GinkgoT().TempDir(), "out.hex")

		Expect(writeHexFile(path, rows)).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("00000000: 20010004\t#\n00000040: 6f6b00\t#\n"))
	})

	DescribeTable("should detect a file that does not match the rows",
		func(content string) {
			path := writeFile(GinkgoT().TempDir(), "out.hex", content)

			Expect(verifyHexFile(path, rows)).To(MatchError(errOutputMismatch))
		},
		Entry("missing record", "00000000: 20010004\t#\n"),
		Entry("wrong address", "00000004: 20010004\t#\n00000040: 6f6b00\t#\n"),
		Entry("wrong value", "00000000: 20010005\t#\n00000040: 6f6b00\t#\n"),
	)

	It("should reject a file with malformed records", func() {
		path := writeFile(GinkgoT().TempDir(), "out.hex", "garbage\n")

		Expect(verifyHexFile(path, rows)).To(MatchError(word.ErrMalformedRecord))
	})
})
