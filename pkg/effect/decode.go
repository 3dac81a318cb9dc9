package effect

import (
	"errors"
	"fmt"
	"io"
)

// DecodeInstruction decodes the instruction at the cursor and leaves the
// cursor on the byte after its last operand. A cleanly exhausted stream is
// reported as io.EOF. Unknown opcodes fail with ErrInvalidOpcode, truncated
// operands with ErrOutOfBounds; either way the message carries the offset
// of the opcode byte.
func DecodeInstruction(cur *Cursor) (Instruction, error) {
	if !cur.Has(1) {
		return nil, io.EOF
	}
	start := cur.Pos()
	op, _ := cur.ReadU8()

	instr, err := decodeOperands(cur, op)
	if err != nil {
		if errors.Is(err, ErrInvalidOpcode) {
			return nil, fmt.Errorf("%w 0x%02X at offset %#x", ErrInvalidOpcode, op, start)
		}
		return nil, fmt.Errorf("%s at offset %#x: %w", canonical(op), start, err)
	}
	return instr, nil
}

func decodeOperands(cur *Cursor, op byte) (Instruction, error) {
	switch classify(op) {
	case famWait:
		return decodeWait(cur, op)
	case famVector:
		return decodeVector(cur, op)
	case famBlend:
		return decodeBlend(cur, op)
	default:
		return decodeExact(cur, OpCode(op))
	}
}

// decodeWait unpacks the frame count carried in the opcode byte itself. Bit
// 0x20 widens the five base bits to thirteen with an extension byte; bit
// 0x40 then appends a data id byte.
func decodeWait(cur *Cursor, op byte) (Instruction, error) {
	w := Wait{Frames: uint16(op & 0x1F)}
	if op&0x20 != 0 {
		ext, err := cur.ReadU8()
		if err != nil {
			return nil, err
		}
		w.Frames = w.Frames<<8 | uint16(ext)
	}
	if op&0x40 != 0 {
		id, err := cur.ReadU8()
		if err != nil {
			return nil, err
		}
		w.DataID = &id
	}
	return w, nil
}

// decodeVector reads one float per presence bit, always in x, y, z order.
func decodeVector(cur *Cursor, op byte) (Instruction, error) {
	v := Vector{Code: OpCode(op & 0xF8)}
	for _, sel := range []struct {
		bit byte
		dst **float32
	}{{0x01, &v.X}, {0x02, &v.Y}, {0x04, &v.Z}} {
		if op&sel.bit == 0 {
			continue
		}
		f, err := cur.ReadF32()
		if err != nil {
			return nil, err
		}
		*sel.dst = &f
	}
	return v, nil
}

// decodeBlend reads the length count and then one byte per presence bit,
// always in r, g, b, a order.
func decodeBlend(cur *Cursor, op byte) (Instruction, error) {
	length, err := cur.ReadVarU16()
	if err != nil {
		return nil, err
	}
	cb := ColorBlend{Code: OpCode(op & 0xF0), Length: length}
	for _, sel := range []struct {
		bit byte
		dst **uint8
	}{{0x01, &cb.Red}, {0x02, &cb.Green}, {0x04, &cb.Blue}, {0x08, &cb.Alpha}} {
		if op&sel.bit == 0 {
			continue
		}
		b, err := cur.ReadU8()
		if err != nil {
			return nil, err
		}
		*sel.dst = &b
	}
	return cb, nil
}

func decodeExact(cur *Cursor, op OpCode) (Instruction, error) {
	switch op {
	case OpSetSizeLerp:
		length, err := cur.ReadVarU16()
		if err != nil {
			return nil, err
		}
		size, err := cur.ReadF32()
		if err != nil {
			return nil, err
		}
		return SizeLerp{Length: length, Size: size}, nil

	case OpSetFlags:
		flags, err := cur.ReadU8()
		if err != nil {
			return nil, err
		}
		return SetFlags{Flags: flags}, nil

	case OpMakeScript, OpMakeGenerator, OpMakeID:
		id, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		return ScriptRef{Code: op, ID: id}, nil

	case OpSetLifeRand:
		base, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		rng, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		return LifeRand{Base: base, Range: rng}, nil

	case OpTryDeadRand:
		chance, err := cur.ReadU8()
		if err != nil {
			return nil, err
		}
		return DeadChance{Chance: chance}, nil

	case OpAddVelRand:
		rng, err := cur.ReadVec3()
		if err != nil {
			return nil, err
		}
		return VelRand{Range: rng}, nil

	case OpSetVelAngle:
		angle, err := cur.ReadF32()
		if err != nil {
			return nil, err
		}
		return VelAngle{Angle: angle}, nil

	case OpMulVel:
		factor, err := cur.ReadF32()
		if err != nil {
			return nil, err
		}
		return VelScale{Factor: factor}, nil

	case OpSetSizeRand:
		length, err := cur.ReadVarU16()
		if err != nil {
			return nil, err
		}
		base, err := cur.ReadF32()
		if err != nil {
			return nil, err
		}
		rng, err := cur.ReadF32()
		if err != nil {
			return nil, err
		}
		return SizeRand{Length: length, Base: base, Range: rng}, nil

	case OpSetUnk0B:
		base, err := cur.ReadU8()
		if err != nil {
			return nil, err
		}
		rng, err := cur.ReadU8()
		if err != nil {
			return nil, err
		}
		return ByteRange{Base: base, Range: rng}, nil

	case OpMulVelAxis:
		factor, err := cur.ReadVec3()
		if err != nil {
			return nil, err
		}
		return VelAxisScale{Factor: factor}, nil

	case OpSetLoop:
		count, err := cur.ReadU8()
		if err != nil {
			return nil, err
		}
		return SetLoop{Count: count}, nil

	case OpLoop, OpSetReturn, OpReturn, OpDead, OpEnd:
		return Simple{Code: op}, nil

	default:
		return nil, ErrInvalidOpcode
	}
}
