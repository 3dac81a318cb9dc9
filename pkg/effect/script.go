package effect

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
)

// Record is one decoded effect script: the fixed 48-byte header followed by
// its bytecode. Unk20 holds the twelve header bytes whose meaning is still
// unidentified; they are carried through untouched.
type Record struct {
	Kind             uint16
	TextureID        uint16
	EffectLifetime   uint16
	ParticleLifetime uint16
	Flags            uint32
	Gravity          float32
	Friction         float32
	Velocity         mgl32.Vec3
	Unk20            [12]byte
	Size             float32
	Bytecode         []Instruction
}

// Terminated reports whether the bytecode ended on an END instruction
// rather than at a boundary or a bad opcode.
func (r *Record) Terminated() bool {
	n := len(r.Bytecode)
	return n > 0 && r.Bytecode[n-1].Op() == OpEnd
}

// decodeRecord decodes one record starting at the cursor. limit is the
// absolute offset the bytecode may not run into, or -1 for none; it is only
// consulted between instructions, so an instruction that straddles it is
// still read whole. idx names the record in diagnostics.
func decodeRecord(cur *Cursor, limit int, opts Options, idx int) (*Record, error) {
	r := &Record{}
	var err error
	if r.Kind, err = cur.ReadU16(); err != nil {
		return nil, fmt.Errorf("kind: %w", err)
	}
	if r.TextureID, err = cur.ReadU16(); err != nil {
		return nil, fmt.Errorf("texture id: %w", err)
	}
	if r.EffectLifetime, err = cur.ReadU16(); err != nil {
		return nil, fmt.Errorf("effect lifetime: %w", err)
	}
	if r.ParticleLifetime, err = cur.ReadU16(); err != nil {
		return nil, fmt.Errorf("particle lifetime: %w", err)
	}
	if r.Flags, err = cur.ReadU32(); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if r.Gravity, err = cur.ReadF32(); err != nil {
		return nil, fmt.Errorf("gravity: %w", err)
	}
	if r.Friction, err = cur.ReadF32(); err != nil {
		return nil, fmt.Errorf("friction: %w", err)
	}
	if r.Velocity, err = cur.ReadVec3(); err != nil {
		return nil, fmt.Errorf("velocity: %w", err)
	}
	raw, err := cur.take(len(r.Unk20))
	if err != nil {
		return nil, fmt.Errorf("reserved bytes: %w", err)
	}
	copy(r.Unk20[:], raw)
	if r.Size, err = cur.ReadF32(); err != nil {
		return nil, fmt.Errorf("size: %w", err)
	}

	log := opts.logger()
	for {
		if limit >= 0 && cur.Pos() >= limit {
			break
		}
		start := cur.Pos()
		instr, err := DecodeInstruction(cur)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, ErrInvalidOpcode) && !opts.Strict {
				log.Warn().Msgf("record %d: %v, stopping bytecode decode", idx, err)
				cur.Seek(start)
				break
			}
			return nil, err
		}
		r.Bytecode = append(r.Bytecode, instr)
		if instr.Op() == OpEnd {
			break
		}
	}
	return r, nil
}

type instrJSON struct {
	Op   string `json:"op"`
	Args any    `json:"args,omitempty"`
}

func marshalBytecode(code []Instruction) []instrJSON {
	out := make([]instrJSON, len(code))
	for i, instr := range code {
		out[i] = instrJSON{Op: instr.Op().String()}
		if _, ok := instr.(Simple); !ok {
			out[i].Args = instr
		}
	}
	return out
}

// MarshalJSON renders the reserved bytes as hex and tags every bytecode
// instruction with its opcode mnemonic.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind             uint16      `json:"kind"`
		TextureID        uint16      `json:"textureId"`
		EffectLifetime   uint16      `json:"effectLifetime"`
		ParticleLifetime uint16      `json:"particleLifetime"`
		Flags            uint32      `json:"flags"`
		Gravity          float32     `json:"gravity"`
		Friction         float32     `json:"friction"`
		Velocity         mgl32.Vec3  `json:"velocity"`
		Unk20            string      `json:"unk20"`
		Size             float32     `json:"size"`
		Bytecode         []instrJSON `json:"bytecode"`
	}{
		Kind:             r.Kind,
		TextureID:        r.TextureID,
		EffectLifetime:   r.EffectLifetime,
		ParticleLifetime: r.ParticleLifetime,
		Flags:            r.Flags,
		Gravity:          r.Gravity,
		Friction:         r.Friction,
		Velocity:         r.Velocity,
		Unk20:            hex.EncodeToString(r.Unk20[:]),
		Size:             r.Size,
		Bytecode:         marshalBytecode(r.Bytecode),
	})
}
