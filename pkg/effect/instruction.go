package effect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Instruction is a single decoded bytecode instruction. The concrete types
// in this file are the only implementations; switch on them to recover the
// operands, or on Op to act by opcode alone.
type Instruction interface {
	Op() OpCode
	fmt.Stringer
	isInstruction()
}

func ftoa(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

// Wait pauses the script. Frames is 13 bits wide on the wire; DataID is only
// present when the raw opcode carried the id flag.
type Wait struct {
	Frames uint16 `json:"frames"`
	DataID *uint8 `json:"dataId,omitempty"`
}

func (Wait) isInstruction() {}
func (Wait) Op() OpCode     { return OpWait }

func (w Wait) String() string {
	if w.DataID != nil {
		return fmt.Sprintf("WAIT frames=%d id=%d", w.Frames, *w.DataID)
	}
	return fmt.Sprintf("WAIT frames=%d", w.Frames)
}

// Vector writes up to three axis components of the position or velocity.
// Absent components are nil and leave the particle's value untouched.
type Vector struct {
	Code OpCode   `json:"-"`
	X    *float32 `json:"x,omitempty"`
	Y    *float32 `json:"y,omitempty"`
	Z    *float32 `json:"z,omitempty"`
}

func (Vector) isInstruction() {}
func (v Vector) Op() OpCode   { return v.Code }

func (v Vector) String() string {
	parts := []string{v.Code.String()}
	if v.X != nil {
		parts = append(parts, "x="+ftoa(*v.X))
	}
	if v.Y != nil {
		parts = append(parts, "y="+ftoa(*v.Y))
	}
	if v.Z != nil {
		parts = append(parts, "z="+ftoa(*v.Z))
	}
	return strings.Join(parts, " ")
}

// ColorBlend interpolates the primitive or environment blend color toward
// the given channels over Length frames. Absent channels are nil.
type ColorBlend struct {
	Code   OpCode `json:"-"`
	Length uint16 `json:"len"`
	Red    *uint8 `json:"r,omitempty"`
	Green  *uint8 `json:"g,omitempty"`
	Blue   *uint8 `json:"b,omitempty"`
	Alpha  *uint8 `json:"a,omitempty"`
}

func (ColorBlend) isInstruction() {}
func (c ColorBlend) Op() OpCode   { return c.Code }

func (c ColorBlend) String() string {
	parts := []string{fmt.Sprintf("%s len=%d", c.Code, c.Length)}
	for _, ch := range []struct {
		name string
		v    *uint8
	}{{"r", c.Red}, {"g", c.Green}, {"b", c.Blue}, {"a", c.Alpha}} {
		if ch.v != nil {
			parts = append(parts, fmt.Sprintf("%s=%d", ch.name, *ch.v))
		}
	}
	return strings.Join(parts, " ")
}

// SizeLerp interpolates the particle size toward Size over Length frames.
type SizeLerp struct {
	Length uint16  `json:"len"`
	Size   float32 `json:"size"`
}

func (SizeLerp) isInstruction() {}
func (SizeLerp) Op() OpCode     { return OpSetSizeLerp }

func (s SizeLerp) String() string {
	return fmt.Sprintf("SET_SIZE_LERP len=%d size=%s", s.Length, ftoa(s.Size))
}

// ScriptRef spawns another script, generator or particle by table id.
type ScriptRef struct {
	Code OpCode `json:"-"`
	ID   uint16 `json:"id"`
}

func (ScriptRef) isInstruction() {}
func (s ScriptRef) Op() OpCode   { return s.Code }

func (s ScriptRef) String() string {
	return fmt.Sprintf("%s id=%d", s.Code, s.ID)
}

// LifeRand randomizes the particle lifetime to Base plus up to Range frames.
type LifeRand struct {
	Base  uint16 `json:"base"`
	Range uint16 `json:"range"`
}

func (LifeRand) isInstruction() {}
func (LifeRand) Op() OpCode     { return OpSetLifeRand }

func (l LifeRand) String() string {
	return fmt.Sprintf("SET_LIFE_RAND base=%d range=%d", l.Base, l.Range)
}

// DeadChance destroys the particle with the given chance out of 256.
type DeadChance struct {
	Chance uint8 `json:"chance"`
}

func (DeadChance) isInstruction() {}
func (DeadChance) Op() OpCode     { return OpTryDeadRand }

func (d DeadChance) String() string {
	return fmt.Sprintf("TRY_DEAD_RAND chance=%d", d.Chance)
}

// VelRand adds a random velocity bounded per axis by Range.
type VelRand struct {
	Range mgl32.Vec3 `json:"range"`
}

func (VelRand) isInstruction() {}
func (VelRand) Op() OpCode     { return OpAddVelRand }

func (v VelRand) String() string {
	return fmt.Sprintf("ADD_VEL_RAND x=%s y=%s z=%s", ftoa(v.Range.X()), ftoa(v.Range.Y()), ftoa(v.Range.Z()))
}

// VelAngle rotates the velocity by a random angle up to Angle radians.
type VelAngle struct {
	Angle float32 `json:"angle"`
}

func (VelAngle) isInstruction() {}
func (VelAngle) Op() OpCode     { return OpSetVelAngle }

func (v VelAngle) String() string {
	return fmt.Sprintf("SET_VEL_ANGLE angle=%s", ftoa(v.Angle))
}

// VelScale multiplies the velocity uniformly.
type VelScale struct {
	Factor float32 `json:"factor"`
}

func (VelScale) isInstruction() {}
func (VelScale) Op() OpCode     { return OpMulVel }

func (v VelScale) String() string {
	return fmt.Sprintf("MUL_VEL factor=%s", ftoa(v.Factor))
}

// VelAxisScale multiplies the velocity component-wise.
type VelAxisScale struct {
	Factor mgl32.Vec3 `json:"factor"`
}

func (VelAxisScale) isInstruction() {}
func (VelAxisScale) Op() OpCode     { return OpMulVelAxis }

func (v VelAxisScale) String() string {
	return fmt.Sprintf("MUL_VEL_AXIS x=%s y=%s z=%s", ftoa(v.Factor.X()), ftoa(v.Factor.Y()), ftoa(v.Factor.Z()))
}

// ByteRange sets an unidentified particle field to Base plus a random value
// up to Range. Carried through opaquely.
type ByteRange struct {
	Base  uint8 `json:"base"`
	Range uint8 `json:"range"`
}

func (ByteRange) isInstruction() {}
func (ByteRange) Op() OpCode     { return OpSetUnk0B }

func (b ByteRange) String() string {
	return fmt.Sprintf("SET_UNK_0B base=%d range=%d", b.Base, b.Range)
}

// SetFlags replaces the particle flag byte.
type SetFlags struct {
	Flags uint8 `json:"flags"`
}

func (SetFlags) isInstruction() {}
func (SetFlags) Op() OpCode     { return OpSetFlags }

func (s SetFlags) String() string {
	return fmt.Sprintf("SET_FLAGS 0x%02X", s.Flags)
}

// SetLoop opens a loop that LOOP jumps back to Count times.
type SetLoop struct {
	Count uint8 `json:"count"`
}

func (SetLoop) isInstruction() {}
func (SetLoop) Op() OpCode     { return OpSetLoop }

func (s SetLoop) String() string {
	return fmt.Sprintf("SET_LOOP count=%d", s.Count)
}

// SizeRand interpolates the size toward Base plus a random value up to
// Range over Length frames.
type SizeRand struct {
	Length uint16  `json:"len"`
	Base   float32 `json:"base"`
	Range  float32 `json:"range"`
}

func (SizeRand) isInstruction() {}
func (SizeRand) Op() OpCode     { return OpSetSizeRand }

func (s SizeRand) String() string {
	return fmt.Sprintf("SET_SIZE_RAND len=%d base=%s range=%s", s.Length, ftoa(s.Base), ftoa(s.Range))
}

// Simple is an instruction with no operands, such as LOOP or END.
type Simple struct {
	Code OpCode `json:"-"`
}

func (Simple) isInstruction() {}
func (s Simple) Op() OpCode   { return s.Code }

func (s Simple) String() string {
	return s.Code.String()
}
