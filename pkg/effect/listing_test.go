package effect

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimmerco/glimmer/internal/testutils"
)

func requireTextEqual(t *testing.T, expected, actual string) {
	t.Helper()
	if expected == actual {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	require.NoError(t, err)
	t.Fatalf("listing mismatch:\n%s", diff)
}

func TestTableListing(t *testing.T) {
	tbl, err := DecodeTable(sampleContainer(t), Options{})
	require.NoError(t, err)

	expected := `; 2 slots, 2 records

[0] offset 0x00000C
  kind=0 texture=0 life=20/30 flags=0x00000002
  gravity=1 friction=0.98 velocity=(0, 6, 0) size=5
  unk20=3dcccccd40490fda40400000
     0  END

[1] offset 0x000040
  kind=0 texture=1 life=80/100 flags=0x00000003
  gravity=0.03 friction=0.98 velocity=(0, 0.01, 2) size=20
  unk20=417000003f060a923f000000
     0  END
`
	requireTextEqual(t, expected, tbl.Listing())
}

func TestTableListingNullSlot(t *testing.T) {
	data := testutils.MustHex(t, "00 00 00 02 00 00 00 00 00 00 00 0C")
	data = append(data, make([]byte, 48)...)
	data = append(data, 0xFF)

	tbl, err := DecodeTable(data, Options{})
	require.NoError(t, err)

	listing := tbl.Listing()
	assert.Contains(t, listing, "; 2 slots, 1 records\n")
	assert.Contains(t, listing, "[0] null\n")
	assert.Contains(t, listing, "[1] offset 0x00000C\n")
}

func TestInstructionStrings(t *testing.T) {
	testCases := []struct {
		instr    Instruction
		expected string
	}{
		{Wait{Frames: 5}, "WAIT frames=5"},
		{Wait{Frames: 5, DataID: u8p(123)}, "WAIT frames=5 id=123"},
		{Vector{Code: OpSetPos, X: f32p(51), Y: f32p(1552), Z: f32p(-64)}, "SET_POS x=51 y=1552 z=-64"},
		{Vector{Code: OpSetVel, Y: f32p(6)}, "SET_VEL y=6"},
		{Vector{Code: OpAddVel}, "ADD_VEL"},
		{ColorBlend{Code: OpSetPrimBlend, Length: 61, Red: u8p(255), Green: u8p(255), Blue: u8p(255), Alpha: u8p(0)}, "SET_PRIM_BLEND len=61 r=255 g=255 b=255 a=0"},
		{ColorBlend{Code: OpSetEnvBlend, Length: 1}, "SET_ENV_BLEND len=1"},
		{SizeLerp{Length: 21, Size: 250}, "SET_SIZE_LERP len=21 size=250"},
		{ScriptRef{Code: OpMakeScript, ID: 72}, "MAKE_SCRIPT id=72"},
		{ScriptRef{Code: OpMakeGenerator, ID: 23}, "MAKE_GENERATOR id=23"},
		{LifeRand{Base: 50, Range: 50}, "SET_LIFE_RAND base=50 range=50"},
		{DeadChance{Chance: 10}, "TRY_DEAD_RAND chance=10"},
		{VelRand{Range: mgl32.Vec3{1, 0, 1}}, "ADD_VEL_RAND x=1 y=0 z=1"},
		{VelAngle{Angle: 0.5}, "SET_VEL_ANGLE angle=0.5"},
		{VelScale{Factor: 2}, "MUL_VEL factor=2"},
		{VelAxisScale{Factor: mgl32.Vec3{2, 0.5, 1}}, "MUL_VEL_AXIS x=2 y=0.5 z=1"},
		{ByteRange{Base: 0, Range: 3}, "SET_UNK_0B base=0 range=3"},
		{SetFlags{Flags: 0x80}, "SET_FLAGS 0x80"},
		{SetLoop{Count: 3}, "SET_LOOP count=3"},
		{SizeRand{Length: 1, Base: 5, Range: 30}, "SET_SIZE_RAND len=1 base=5 range=30"},
		{Simple{Code: OpEnd}, "END"},
		{Simple{Code: OpDead}, "DEAD"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, tc.instr.String())
	}
}
