package effect

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Listing renders the table as a readable disassembly: a header line per
// slot, then one numbered line per bytecode instruction.
func (t *Table) Listing() string {
	var b strings.Builder
	fmt.Fprintf(&b, "; %d slots, %d records\n", len(t.Entries), t.NumRecords())
	for i, e := range t.Entries {
		if e.Record == nil {
			fmt.Fprintf(&b, "\n[%d] null\n", i)
			continue
		}
		fmt.Fprintf(&b, "\n[%d] offset 0x%06X\n", i, e.Ptr)
		e.Record.listing(&b)
	}
	return b.String()
}

// Listing renders a single record the same way Table.Listing does.
func (r *Record) Listing() string {
	var b strings.Builder
	r.listing(&b)
	return b.String()
}

func (r *Record) listing(b *strings.Builder) {
	fmt.Fprintf(b, "  kind=%d texture=%d life=%d/%d flags=0x%08X\n",
		r.Kind, r.TextureID, r.EffectLifetime, r.ParticleLifetime, r.Flags)
	fmt.Fprintf(b, "  gravity=%s friction=%s velocity=(%s, %s, %s) size=%s\n",
		ftoa(r.Gravity), ftoa(r.Friction),
		ftoa(r.Velocity.X()), ftoa(r.Velocity.Y()), ftoa(r.Velocity.Z()), ftoa(r.Size))
	if r.Unk20 != [12]byte{} {
		fmt.Fprintf(b, "  unk20=%s\n", hex.EncodeToString(r.Unk20[:]))
	}
	for i, instr := range r.Bytecode {
		fmt.Fprintf(b, "  %4d  %s\n", i, instr)
	}
}
