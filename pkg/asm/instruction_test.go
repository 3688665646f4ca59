package asm_test

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bassosimone/dlxasm/pkg/asm"
	"github.com/bassosimone/dlxasm/pkg/word"
)

// wordAt assembles src with the default catalog and returns the
// instruction word placed at addr.
func wordAt(src string, addr uint32) uint32 {
	result, err := asm.Assemble("test.dlx", strings.NewReader(src), asm.DefaultCatalog())
	Expect(err).NotTo(HaveOccurred())
	for _, row := range result.Rows {
		if row.Address == addr && row.IsWord {
			return row.Word
		}
	}
	Fail("no instruction word at the requested address")
	return 0
}

func assembleErr(src string) error {
	_, err := asm.Assemble("test.dlx", strings.NewReader(src), asm.DefaultCatalog())
	return err
}

var _ = Describe("EncodeInstruction", func() {
	DescribeTable("should encode a single instruction",
		func(src string, expected uint32) {
			Expect(wordAt(src, 0)).To(Equal(expected))
		},
		Entry("nop", "nop", uint32(0x00000000)),
		Entry("add", "add r1, r2, r3", uint32(0x00430820)),
		Entry("addi", "addi r1, r2, 5", uint32(0x20410005)),
		Entry("subi negative immediate", "subi r1, r2, -1", uint32(0x2841ffff)),
		Entry("lhi", "lhi r1, 0x1234", uint32(0x3c201234)),
		Entry("trap", "trap 6", uint32(0x44000006)),
		Entry("jr", "jr r31", uint32(0x4be00000)),
		Entry("lw with offset", "lw r1, 8(r2)", uint32(0x8c410008)),
		Entry("lw without offset", "lw r1, (r2)", uint32(0x8c410000)),
		Entry("sw negative offset", "sw -4(r30), r5", uint32(0xafc5fffc)),
		Entry("ld", "ld f2, 0(r4)", uint32(0x9c820000)),
		Entry("movd", "movd f2, f4", uint32(0x00801033)),
		Entry("movi2fp", "movi2fp f1, r2", uint32(0x00400835)),
		Entry("addd", "addd f2, f4, f6", uint32(0x04861004)),
		Entry("eqf", "eqf f1, f2", uint32(0x04220010)),
		Entry("register without class letter", "add 1, 2, 3", uint32(0x00430820)),
	)

	It("should round trip the fields of an R-type word", func() {
		fields := word.Decode(wordAt("add r1, r2, r3", 0))

		Expect(fields.Opcode).To(Equal(uint32(0)))
		Expect(fields.RS1).To(Equal(uint32(2)))
		Expect(fields.RS2).To(Equal(uint32(3)))
		Expect(fields.RD).To(Equal(uint32(1)))
		Expect(fields.Function).To(Equal(uint32(32)))
	})

	It("should encode a backward branch relative to the next instruction", func() {
		src := `
        nop
        nop
target: add r1, r2, r3
        nop
        beqz r1, target
`
		w := wordAt(src, 0x10)

		Expect(w & 0xffff).To(Equal(uint32((0x08 - 0x14) & 0xffff)))
		Expect(word.DecodeOpcode(w)).To(Equal(uint32(4)))
		Expect(word.DecodeRS1(w)).To(Equal(uint32(1)))
		Expect(int32(word.DecodeImm16(w))).To(Equal(int32(-12)))
	})

	It("should resolve forward references", func() {
		src := `
        j done
        nop
done:   jal done
`
		Expect(wordAt(src, 0)).To(Equal(uint32(0x08000004)))
		Expect(int32(word.DecodeImm26(wordAt(src, 8)))).To(Equal(int32(-4)))
	})

	It("should mask backward jumps to 26 bits", func() {
		src := `
top:    nop
        nop
        nop
        jal top
`
		Expect(wordAt(src, 0x0c)).To(Equal(uint32(0x0ffffff0)))
	})

	It("should accept labels in the immediate slot", func() {
		src := `
        addi r1, r0, value
        lw r3, value
        sw value(r0), r3
.data 0x100
value:  .word 42
`
		Expect(wordAt(src, 0)).To(Equal(uint32(0x20010100)))
		Expect(wordAt(src, 4)).To(Equal(uint32(0x8c030100)))
		Expect(wordAt(src, 8)).To(Equal(uint32(0xac030100)))
	})

	It("should encode floating point branches", func() {
		src := `
        bfpt skip
        nop
skip:   bfpf skip
`
		Expect(wordAt(src, 0)).To(Equal(uint32(0x18000004)))
		Expect(wordAt(src, 8)).To(Equal(uint32(0x1c00fffc)))
	})

	Context("with I-type register moves", func() {
		It("should keep the source register and the function code", func() {
			catalog := asm.NewCatalog()
			_, err := catalog.Load(asm.ClassI, strings.NewReader("movf\t9\n"))
			Expect(err).NotTo(HaveOccurred())
			line := asm.Classify([]string{"movf", "f1", "f2"}, 1)

			w, err := asm.EncodeInstruction(&line, asm.SymbolTable{}, catalog)

			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(uint32(9<<26 | 2<<21)))
		})
	})

	Context("when the input is wrong", func() {
		It("should report unknown opcodes without a word", func() {
			catalog := asm.DefaultCatalog()
			line := asm.Classify([]string{"frob", "r1"}, 3)

			w, err := asm.EncodeInstruction(&line, asm.SymbolTable{}, catalog)

			Expect(err).To(MatchError(asm.ErrUnknownOpcode))
			Expect(w).To(BeZero())
		})

		It("should report the position of the failing line", func() {
			err := assembleErr("nop\nnop\n  bnez r1, nowhere\n")

			Expect(err).To(MatchError(asm.ErrUnresolvedLabel))
			var asmErr *asm.Error
			Expect(errors.As(err, &asmErr)).To(BeTrue())
			Expect(asmErr.File).To(Equal("test.dlx"))
			Expect(asmErr.Address).To(Equal(uint32(8)))
			Expect(asmErr.Lineno).To(Equal(3))
			Expect(asmErr.Token).To(Equal("nowhere"))
			Expect(err.Error()).To(ContainSubstring("00000008"))
		})

		DescribeTable("should fail",
			func(src string, expected error) {
				Expect(assembleErr(src)).To(MatchError(expected))
			},
			Entry("unknown opcode", "nop\nfrob r1, r2\n", asm.ErrUnknownOpcode),
			Entry("unresolved load label", "lw r1, missing\n", asm.ErrUnresolvedLabel),
			Entry("unresolved jump", "j missing\n", asm.ErrUnresolvedLabel),
			Entry("odd double move", "movd f2, f5\n", asm.ErrInvalidOperandAlignment),
			Entry("odd double destination", "cvtf2d f1, f2\n", asm.ErrInvalidOperandAlignment),
			Entry("odd double arithmetic", "addd f2, f3, f4\n", asm.ErrInvalidOperandAlignment),
			Entry("odd double load", "ld f3, 0(r1)\n", asm.ErrInvalidOperandAlignment),
			Entry("missing operand", "add r1, r2\n", asm.ErrMalformedOperand),
			Entry("register out of range", "add r1, r2, r32\n", asm.ErrMalformedOperand),
			Entry("garbage register", "jr rx\n", asm.ErrMalformedOperand),
			Entry("bad base register", "lw r1, 4(q)\n", asm.ErrMalformedOperand),
		)

		It("should reject shapes that do not fit the catalog class", func() {
			catalog := asm.NewCatalog()
			_, err := catalog.Load(asm.ClassI, strings.NewReader("add\t0\n"))
			Expect(err).NotTo(HaveOccurred())
			line := asm.Classify([]string{"add", "r1", "r2", "r3"}, 1)

			_, err = asm.EncodeInstruction(&line, asm.SymbolTable{}, catalog)

			Expect(err).To(MatchError(asm.ErrShapeMismatch))
			Expect(err.Error()).To(ContainSubstring("add (gprgprgpr in I-type)"))
		})

		It("should reject opcodes without an operand shape", func() {
			catalog := asm.NewCatalog()
			_, err := catalog.Load(asm.ClassR, strings.NewReader("frob\t0\t1\n"))
			Expect(err).NotTo(HaveOccurred())
			line := asm.Classify([]string{"frob"}, 1)

			_, err = asm.EncodeInstruction(&line, asm.SymbolTable{}, catalog)

			Expect(err).To(MatchError(asm.ErrShapeMismatch))
		})
	})
})
