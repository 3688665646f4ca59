package asm

// Shape tells the encoder which operands an opcode takes and in which order.
type Shape int

// The following constants define the operand shapes. The comment next to
// each shape shows the operand syntax.
const (
	ShapeNone                = Shape(iota) // nop
	ShapeImmediate                         // trap 5
	ShapeSingleGpr                         // jr r31
	ShapeGprAndLabel                       // beqz r1, label
	ShapeLabelBranch                       // bfpt label
	ShapeGprFpMove                         // movfp2i r1, f2
	ShapeFpMoveFromGpr                     // movi2fp f1, r2
	ShapeFpConvert                         // movf f1, f2
	ShapeDoublePairMove                    // movd f2, f4
	ShapeDoubleFromSingle                  // cvtf2d f2, f1
	ShapeSingleFromDouble                  // cvtd2f f1, f2
	ShapeGprImmediateLoad                  // lhi r1, 0x1234
	ShapeGprGprInt                         // addi r1, r2, -4
	ShapeGprGprUint                        // addui r1, r2, 4
	ShapeThreeGpr                          // add r1, r2, r3
	ShapeThreeFpSingle                     // addf f1, f2, f3
	ShapeThreeFpDouble                     // addd f2, f4, f6
	ShapeFpCompare                         // eqf f1, f2
	ShapeDoubleCompare                     // eqd f2, f4
	ShapeGprBaseOffset                     // lw r1, 8(r2)
	ShapeFpBaseOffset                      // lf f1, 8(r2)
	ShapeDoubleBaseOffset                  // ld f2, 8(r2)
	ShapeStoreGprToOffset                  // sw 8(r2), r1
	ShapeStoreFpToOffset                   // sf 8(r2), f1
	ShapeStoreDoubleToOffset               // sd 8(r2), f2
	ShapeLabelOnlyJump                     // j label
)

var shapeNames = map[Shape]string{
	ShapeNone:                "none",
	ShapeImmediate:           "int",
	ShapeSingleGpr:           "gpr",
	ShapeGprAndLabel:         "gprlabel",
	ShapeLabelBranch:         "label16",
	ShapeGprFpMove:           "gprfpr",
	ShapeFpMoveFromGpr:       "fprgpr",
	ShapeFpConvert:           "fprfpr",
	ShapeDoublePairMove:      "dprdpr",
	ShapeDoubleFromSingle:    "dprfpr",
	ShapeSingleFromDouble:    "fprdpr",
	ShapeGprImmediateLoad:    "gpruint",
	ShapeGprGprInt:           "gprgprint",
	ShapeGprGprUint:          "gprgpruint",
	ShapeThreeGpr:            "gprgprgpr",
	ShapeThreeFpSingle:       "fprfprfpr",
	ShapeThreeFpDouble:       "dprdprdpr",
	ShapeFpCompare:           "fprfprcmp",
	ShapeDoubleCompare:       "dprdprcmp",
	ShapeGprBaseOffset:       "gproff",
	ShapeFpBaseOffset:        "fproff",
	ShapeDoubleBaseOffset:    "dproff",
	ShapeStoreGprToOffset:    "offgpr",
	ShapeStoreFpToOffset:     "offfpr",
	ShapeStoreDoubleToOffset: "offdpr",
	ShapeLabelOnlyJump:       "label",
}

// String implements fmt.Stringer
func (s Shape) String() string {
	if name, found := shapeNames[s]; found {
		return name
	}
	return "unknown"
}

// operandShapes is the static shape table of the DLX instruction set.
var operandShapes = map[string]Shape{
	"nop": ShapeNone,
	"rfe": ShapeNone,

	"trap": ShapeImmediate,

	"jr":   ShapeSingleGpr,
	"jalr": ShapeSingleGpr,

	"beqz": ShapeGprAndLabel,
	"bnez": ShapeGprAndLabel,
	"bfpt": ShapeLabelBranch,
	"bfpf": ShapeLabelBranch,

	"j":   ShapeLabelOnlyJump,
	"jal": ShapeLabelOnlyJump,

	"lhi": ShapeGprImmediateLoad,

	"addi":  ShapeGprGprInt,
	"subi":  ShapeGprGprInt,
	"slli":  ShapeGprGprInt,
	"srli":  ShapeGprGprInt,
	"srai":  ShapeGprGprInt,
	"seqi":  ShapeGprGprInt,
	"snei":  ShapeGprGprInt,
	"slti":  ShapeGprGprInt,
	"sgti":  ShapeGprGprInt,
	"slei":  ShapeGprGprInt,
	"sgei":  ShapeGprGprInt,
	"addui": ShapeGprGprUint,
	"subui": ShapeGprGprUint,
	"andi":  ShapeGprGprUint,
	"ori":   ShapeGprGprUint,
	"xori":  ShapeGprGprUint,
	"sequi": ShapeGprGprUint,
	"sneui": ShapeGprGprUint,
	"sltui": ShapeGprGprUint,
	"sgtui": ShapeGprGprUint,
	"sleui": ShapeGprGprUint,
	"sgeui": ShapeGprGprUint,

	"movfp2i": ShapeGprFpMove,
	"cvtf2i":  ShapeFpConvert,
	"movi2fp": ShapeFpMoveFromGpr,
	"cvti2f":  ShapeFpConvert,
	"movf":    ShapeFpConvert,
	"movd":    ShapeDoublePairMove,
	"cvtf2d":  ShapeDoubleFromSingle,
	"cvti2d":  ShapeDoubleFromSingle,
	"cvtd2f":  ShapeSingleFromDouble,
	"cvtd2i":  ShapeSingleFromDouble,

	"sll":  ShapeThreeGpr,
	"srl":  ShapeThreeGpr,
	"sra":  ShapeThreeGpr,
	"add":  ShapeThreeGpr,
	"addu": ShapeThreeGpr,
	"sub":  ShapeThreeGpr,
	"subu": ShapeThreeGpr,
	"and":  ShapeThreeGpr,
	"or":   ShapeThreeGpr,
	"xor":  ShapeThreeGpr,
	"seq":  ShapeThreeGpr,
	"sne":  ShapeThreeGpr,
	"slt":  ShapeThreeGpr,
	"sgt":  ShapeThreeGpr,
	"sle":  ShapeThreeGpr,
	"sge":  ShapeThreeGpr,
	"sequ": ShapeThreeGpr,
	"sneu": ShapeThreeGpr,
	"sltu": ShapeThreeGpr,
	"sgtu": ShapeThreeGpr,
	"sleu": ShapeThreeGpr,
	"sgeu": ShapeThreeGpr,

	"addf":  ShapeThreeFpSingle,
	"subf":  ShapeThreeFpSingle,
	"multf": ShapeThreeFpSingle,
	"divf":  ShapeThreeFpSingle,
	"mult":  ShapeThreeFpSingle,
	"div":   ShapeThreeFpSingle,
	"multu": ShapeThreeFpSingle,
	"divu":  ShapeThreeFpSingle,
	"addd":  ShapeThreeFpDouble,
	"subd":  ShapeThreeFpDouble,
	"multd": ShapeThreeFpDouble,
	"divd":  ShapeThreeFpDouble,

	"eqf": ShapeFpCompare,
	"nef": ShapeFpCompare,
	"ltf": ShapeFpCompare,
	"gtf": ShapeFpCompare,
	"lef": ShapeFpCompare,
	"gef": ShapeFpCompare,
	"eqd": ShapeDoubleCompare,
	"ned": ShapeDoubleCompare,
	"ltd": ShapeDoubleCompare,
	"gtd": ShapeDoubleCompare,
	"led": ShapeDoubleCompare,
	"ged": ShapeDoubleCompare,

	"lb":  ShapeGprBaseOffset,
	"lbu": ShapeGprBaseOffset,
	"lh":  ShapeGprBaseOffset,
	"lhu": ShapeGprBaseOffset,
	"lw":  ShapeGprBaseOffset,
	"lf":  ShapeFpBaseOffset,
	"ld":  ShapeDoubleBaseOffset,
	"sb":  ShapeStoreGprToOffset,
	"sh":  ShapeStoreGprToOffset,
	"sw":  ShapeStoreGprToOffset,
	"sf":  ShapeStoreFpToOffset,
	"sd":  ShapeStoreDoubleToOffset,
}

// LookupShape returns the operand shape of opcode.
func LookupShape(opcode string) (Shape, bool) {
	shape, found := operandShapes[opcode]
	return shape, found
}

// allowedIn returns whether the shape can be encoded in class.
func (s Shape) allowedIn(class Class) bool {
	switch s {
	case ShapeNone:
		return true
	case ShapeImmediate:
		return class == ClassI || class == ClassJ
	case ShapeLabelOnlyJump:
		return class == ClassJ
	case ShapeGprFpMove, ShapeFpMoveFromGpr, ShapeFpConvert, ShapeDoublePairMove,
		ShapeDoubleFromSingle, ShapeSingleFromDouble:
		return class == ClassI || class == ClassR
	case ShapeThreeGpr, ShapeThreeFpSingle, ShapeThreeFpDouble,
		ShapeFpCompare, ShapeDoubleCompare:
		return class == ClassR
	default:
		return class == ClassI
	}
}
