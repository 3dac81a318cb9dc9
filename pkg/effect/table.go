// Package effect decodes the big-endian effect-script containers found in
// game asset archives: a pointer table up front, one script record per live
// pointer, and a variable-length bytecode stream inside each record.
package effect

import (
	"fmt"

	"github.com/rs/zerolog"
)

// BoundaryMode selects how far a record's bytecode may extend.
type BoundaryMode uint8

const (
	// ModeBounded stops each record's bytecode at the next live pointer, or
	// at the end of the buffer for the last one. Pointer order is trusted
	// over terminators.
	ModeBounded BoundaryMode = iota

	// ModeUnbounded decodes each record until its END instruction, then
	// checks that the stop offset, rounded up to four-byte alignment, lands
	// exactly on the next live pointer.
	ModeUnbounded
)

func (m BoundaryMode) String() string {
	switch m {
	case ModeBounded:
		return "bounded"
	case ModeUnbounded:
		return "unbounded"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseBoundaryMode is the inverse of BoundaryMode.String.
func ParseBoundaryMode(s string) (BoundaryMode, error) {
	switch s {
	case "bounded":
		return ModeBounded, nil
	case "unbounded":
		return ModeUnbounded, nil
	default:
		return ModeBounded, fmt.Errorf("unknown boundary mode %q", s)
	}
}

// Options control table decoding. The zero value decodes in bounded,
// lenient mode with warnings disabled.
type Options struct {
	Mode BoundaryMode

	// Strict turns invalid opcodes from logged warnings into errors.
	Strict bool

	// Log receives decode warnings. Nil discards them.
	Log *zerolog.Logger
}

func (o Options) logger() zerolog.Logger {
	if o.Log == nil {
		return zerolog.Nop()
	}
	return *o.Log
}

// TableEntry is one pointer-table slot. Record is nil for null slots.
type TableEntry struct {
	Ptr    uint32  `json:"ptr"`
	Record *Record `json:"record,omitempty"`
}

// Table is a decoded effect container.
type Table struct {
	Entries []TableEntry `json:"entries"`
}

// NumRecords counts the live slots.
func (t *Table) NumRecords() int {
	n := 0
	for _, e := range t.Entries {
		if e.Record != nil {
			n++
		}
	}
	return n
}

// DecodeTable decodes a whole container: the record count, the pointer
// array and every record the pointers reach. Null pointers stay null
// entries and keep their slot. The buffer must hold the entire container;
// pointers are byte offsets from its start.
func DecodeTable(data []byte, opts Options) (*Table, error) {
	cur := NewCursor(data)
	count, err := cur.ReadI32()
	if err != nil {
		return nil, fmt.Errorf("record count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative record count %d", ErrMalformedTable, count)
	}
	if int64(len(data)) < 4+4*int64(count) {
		return nil, fmt.Errorf("%w: %d pointers do not fit in %d bytes", ErrMalformedTable, count, len(data))
	}

	entries := make([]TableEntry, count)
	for i := range entries {
		if entries[i].Ptr, err = cur.ReadU32(); err != nil {
			return nil, fmt.Errorf("pointer %d: %w", i, err)
		}
	}

	for i := range entries {
		ptr := entries[i].Ptr
		if ptr == 0 {
			continue
		}
		limit := -1
		if opts.Mode == ModeBounded {
			limit = len(data)
			if next := nextLivePtr(entries, i+1); next > 0 {
				limit = next
			}
		}

		ret := cur.Pos()
		cur.Seek(int(ptr))
		rec, err := decodeRecord(cur, limit, opts, i)
		if err != nil {
			return nil, fmt.Errorf("record %d at offset %#x: %w", i, ptr, err)
		}
		end := cur.Pos()
		cur.Seek(ret)
		entries[i].Record = rec

		// A terminated record in unbounded mode must stop flush against the
		// next one, modulo padding to four-byte alignment. Anything else
		// means the pointers and the terminators disagree about layout.
		if opts.Mode == ModeUnbounded && rec.Terminated() {
			if next := nextLivePtr(entries, i+1); next > 0 {
				if aligned := align4(end); aligned != next {
					return nil, fmt.Errorf("%w: record %d ends at %#x (aligned %#x), next pointer is %#x",
						ErrStructuralMismatch, i, end, aligned, next)
				}
			}
		}
	}
	return &Table{Entries: entries}, nil
}

// nextLivePtr returns the first non-null pointer at or after index from, or
// 0 when the rest of the table is null.
func nextLivePtr(entries []TableEntry, from int) int {
	for _, e := range entries[from:] {
		if e.Ptr != 0 {
			return int(e.Ptr)
		}
	}
	return 0
}

func align4(off int) int {
	return (off + 3) &^ 3
}
