package effect

import "fmt"

// OpCode identifies an instruction. For the masked families (waits, vector
// writes, blend writes) the decoder reports the family's base value; the low
// bits of the raw byte only select which operands are present.
type OpCode byte

// OpWait covers raw bytes 0x00-0x7F. The low five bits hold a frame count,
// bit 0x20 extends the count with a second byte and bit 0x40 appends a data
// id byte.
const OpWait OpCode = 0x00

// Vector writes. The low three bits of the raw byte select which of the x, y
// and z operands follow.
const (
	OpSetPos OpCode = 0x80
	OpAddPos OpCode = 0x88
	OpSetVel OpCode = 0x90
	OpAddVel OpCode = 0x98
)

// Exact opcodes. The ones without an operand note take no operands in any
// known stream and are rejected by the decoder rather than guessed at.
const (
	OpSetSizeLerp   OpCode = 0xA0 // length count + target size
	OpSetFlags      OpCode = 0xA1 // flag byte
	OpSetGravity    OpCode = 0xA2
	OpSetFriction   OpCode = 0xA3
	OpMakeScript    OpCode = 0xA4 // script id
	OpMakeGenerator OpCode = 0xA5 // script id
	OpSetLifeRand   OpCode = 0xA6 // base + range
	OpTryDeadRand   OpCode = 0xA7 // probability byte
	OpAddVelRand    OpCode = 0xA8 // per-axis range
	OpSetVelAngle   OpCode = 0xA9 // angle in radians
	OpMakeRand      OpCode = 0xAA
	OpMulVel        OpCode = 0xAB // uniform factor
	OpSetSizeRand   OpCode = 0xAC // length count + base + range
	OpSetFlag80     OpCode = 0xAD
	OpNoMaskST      OpCode = 0xAE
	OpMaskS         OpCode = 0xAF
	OpMaskT         OpCode = 0xB0
	OpMaskST        OpCode = 0xB1
	OpAlphaBlend    OpCode = 0xB2
	OpNoDither      OpCode = 0xB3
	OpDither        OpCode = 0xB4
	OpNoNoise       OpCode = 0xB5
	OpNoise         OpCode = 0xB6
	OpSetDistVel    OpCode = 0xB7
	OpAddDistVelMag OpCode = 0xB8
	OpMakeID        OpCode = 0xB9 // script id
	OpPrimBlendRand OpCode = 0xBA
	OpEnvBlendRand  OpCode = 0xBB
	OpSetUnk0B      OpCode = 0xBC // base + range bytes
	OpSetVelMag     OpCode = 0xBD
	OpMulVelAxis    OpCode = 0xBE // per-axis factor
	OpSetAttachID   OpCode = 0xBF
)

// Blend color writes. The low four bits of the raw byte select which of the
// r, g, b and a channels follow the length count.
const (
	OpSetPrimBlend OpCode = 0xC0
	OpSetEnvBlend  OpCode = 0xD0
)

// Flow control.
const (
	OpSetLoop   OpCode = 0xFA // iteration count byte
	OpLoop      OpCode = 0xFB
	OpSetReturn OpCode = 0xFC
	OpReturn    OpCode = 0xFD
	OpDead      OpCode = 0xFE
	OpEnd       OpCode = 0xFF
)

var opNames = map[OpCode]string{
	OpWait:          "WAIT",
	OpSetPos:        "SET_POS",
	OpAddPos:        "ADD_POS",
	OpSetVel:        "SET_VEL",
	OpAddVel:        "ADD_VEL",
	OpSetSizeLerp:   "SET_SIZE_LERP",
	OpSetFlags:      "SET_FLAGS",
	OpSetGravity:    "SET_GRAVITY",
	OpSetFriction:   "SET_FRICTION",
	OpMakeScript:    "MAKE_SCRIPT",
	OpMakeGenerator: "MAKE_GENERATOR",
	OpSetLifeRand:   "SET_LIFE_RAND",
	OpTryDeadRand:   "TRY_DEAD_RAND",
	OpAddVelRand:    "ADD_VEL_RAND",
	OpSetVelAngle:   "SET_VEL_ANGLE",
	OpMakeRand:      "MAKE_RAND",
	OpMulVel:        "MUL_VEL",
	OpSetSizeRand:   "SET_SIZE_RAND",
	OpSetFlag80:     "SET_FLAG_80",
	OpNoMaskST:      "NO_MASK_ST",
	OpMaskS:         "MASK_S",
	OpMaskT:         "MASK_T",
	OpMaskST:        "MASK_ST",
	OpAlphaBlend:    "ALPHA_BLEND",
	OpNoDither:      "NO_DITHER",
	OpDither:        "DITHER",
	OpNoNoise:       "NO_NOISE",
	OpNoise:         "NOISE",
	OpSetDistVel:    "SET_DIST_VEL",
	OpAddDistVelMag: "ADD_DIST_VEL_MAG",
	OpMakeID:        "MAKE_ID",
	OpPrimBlendRand: "PRIM_BLEND_RAND",
	OpEnvBlendRand:  "ENV_BLEND_RAND",
	OpSetUnk0B:      "SET_UNK_0B",
	OpSetVelMag:     "SET_VEL_MAG",
	OpMulVelAxis:    "MUL_VEL_AXIS",
	OpSetAttachID:   "SET_ATTACH_ID",
	OpSetPrimBlend:  "SET_PRIM_BLEND",
	OpSetEnvBlend:   "SET_ENV_BLEND",
	OpSetLoop:       "SET_LOOP",
	OpLoop:          "LOOP",
	OpSetReturn:     "SET_RETURN",
	OpReturn:        "RETURN",
	OpDead:          "DEAD",
	OpEnd:           "END",
}

func (op OpCode) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("OP_%02X", byte(op))
}

type family uint8

const (
	famWait family = iota
	famVector
	famBlend
	famExact
)

// classify buckets a raw opcode byte by how its operands are encoded. The
// order matters: the wait range claims everything below 0x80 and the masked
// families claim their aligned blocks before the byte is compared exactly.
func classify(op byte) family {
	if op < 0x80 {
		return famWait
	}
	switch OpCode(op & 0xF8) {
	case OpSetPos, OpAddPos, OpSetVel, OpAddVel:
		return famVector
	}
	switch OpCode(op & 0xF0) {
	case OpSetPrimBlend, OpSetEnvBlend:
		return famBlend
	}
	return famExact
}

// canonical maps a raw opcode byte to the OpCode the decoder reports for it,
// folding operand-selector bits back into the family base.
func canonical(op byte) OpCode {
	switch classify(op) {
	case famWait:
		return OpWait
	case famVector:
		return OpCode(op & 0xF8)
	case famBlend:
		return OpCode(op & 0xF0)
	default:
		return OpCode(op)
	}
}
