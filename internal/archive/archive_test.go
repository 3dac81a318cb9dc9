package archive

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/glimmerco/glimmer/internal/testutils"
	"github.com/glimmerco/glimmer/pkg/db/pebble"
	"github.com/glimmerco/glimmer/pkg/effect"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	kv, err := pebble.New(t.TempDir())
	require.NoError(t, err)
	arc := New(kv, zerolog.Nop())
	t.Cleanup(func() { _ = arc.Close() })
	return arc
}

// mustContainer builds a one-record container with a zeroed header and the
// given bytecode tail, and decodes it.
func mustContainer(t *testing.T, tail string) ([]byte, *effect.Table) {
	t.Helper()
	raw := testutils.MustHex(t, "00000001 00000008 "+strings.Repeat("00", 48)+tail)
	tbl, err := effect.DecodeTable(raw, effect.Options{})
	require.NoError(t, err)
	return raw, tbl
}

func TestIngestAndGet(t *testing.T) {
	arc := newTestArchive(t)
	raw, tbl := mustContainer(t, "ff")

	id, err := arc.Ingest("spark.bin", raw, tbl, effect.ModeBounded)
	require.NoError(t, err)
	assert.Equal(t, ID(blake2b.Sum256(raw)), id)

	got, meta, err := arc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
	assert.Equal(t, "spark.bin", meta.Name)
	assert.Equal(t, int64(len(raw)), meta.Size)
	assert.Equal(t, 1, meta.Slots)
	assert.Equal(t, 1, meta.Records)
	assert.Equal(t, "bounded", meta.Mode)
	assert.WithinDuration(t, time.Now(), meta.IngestedAt, 5*time.Second)
}

func TestGetUnknown(t *testing.T) {
	arc := newTestArchive(t)
	_, _, err := arc.Get(ID{0xAB})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve(t *testing.T) {
	arc := newTestArchive(t)
	raw1, tbl1 := mustContainer(t, "ff")
	raw2, tbl2 := mustContainer(t, "05ff")
	id1, err := arc.Ingest("spark.bin", raw1, tbl1, effect.ModeBounded)
	require.NoError(t, err)
	id2, err := arc.Ingest("trail.bin", raw2, tbl2, effect.ModeBounded)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		ref     string
		want    ID
		wantErr error
	}{
		{name: "by name", ref: "spark.bin", want: id1},
		{name: "by full id", ref: id1.String(), want: id1},
		{name: "by id prefix", ref: id2.String()[:12], want: id2},
		{name: "uppercase prefix", ref: strings.ToUpper(id1.String()[:12]), want: id1},
		{name: "unknown", ref: "missing.bin", wantErr: ErrNotFound},
		{name: "ambiguous", ref: "", wantErr: ErrAmbiguousRef},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := arc.Resolve(tc.ref)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestReingestSameBytes(t *testing.T) {
	arc := newTestArchive(t)
	raw, tbl := mustContainer(t, "ff")

	id1, err := arc.Ingest("first.bin", raw, tbl, effect.ModeBounded)
	require.NoError(t, err)
	id2, err := arc.Ingest("second.bin", raw, tbl, effect.ModeUnbounded)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	_, meta, err := arc.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, "second.bin", meta.Name)
	assert.Equal(t, "unbounded", meta.Mode)

	for _, ref := range []string{"first.bin", "second.bin"} {
		got, err := arc.Resolve(ref)
		require.NoError(t, err)
		assert.Equal(t, id1, got)
	}

	entries, err := arc.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestList(t *testing.T) {
	arc := newTestArchive(t)

	entries, err := arc.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	raw1, tbl1 := mustContainer(t, "ff")
	raw2, tbl2 := mustContainer(t, "05ff")
	_, err = arc.Ingest("spark.bin", raw1, tbl1, effect.ModeBounded)
	require.NoError(t, err)
	_, err = arc.Ingest("trail.bin", raw2, tbl2, effect.ModeBounded)
	require.NoError(t, err)

	entries, err = arc.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, -1, bytes.Compare(entries[0].ID[:], entries[1].ID[:]))

	names := make(map[string]bool)
	for _, e := range entries {
		names[e.Meta.Name] = true
	}
	assert.True(t, names["spark.bin"])
	assert.True(t, names["trail.bin"])
}

func TestDelete(t *testing.T) {
	arc := newTestArchive(t)
	raw1, tbl1 := mustContainer(t, "ff")
	raw2, tbl2 := mustContainer(t, "05ff")
	id1, err := arc.Ingest("spark.bin", raw1, tbl1, effect.ModeBounded)
	require.NoError(t, err)
	id2, err := arc.Ingest("trail.bin", raw2, tbl2, effect.ModeBounded)
	require.NoError(t, err)

	require.NoError(t, arc.Delete(id1))

	_, _, err = arc.Get(id1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = arc.Resolve("spark.bin")
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := arc.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id2, entries[0].ID)

	assert.ErrorIs(t, arc.Delete(id1), ErrNotFound)
}

func TestDeleteKeepsReassignedName(t *testing.T) {
	arc := newTestArchive(t)
	raw1, tbl1 := mustContainer(t, "ff")
	raw2, tbl2 := mustContainer(t, "05ff")

	id1, err := arc.Ingest("fx.bin", raw1, tbl1, effect.ModeBounded)
	require.NoError(t, err)
	id2, err := arc.Ingest("fx.bin", raw2, tbl2, effect.ModeBounded)
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	require.NoError(t, arc.Delete(id1))

	got, err := arc.Resolve("fx.bin")
	require.NoError(t, err)
	assert.Equal(t, id2, got)
}

func TestLoad(t *testing.T) {
	arc := newTestArchive(t)
	raw, tbl := mustContainer(t, "05ff")
	_, err := arc.Ingest("spark.bin", raw, tbl, effect.ModeUnbounded)
	require.NoError(t, err)

	got, meta, err := arc.Load("spark.bin", effect.Options{})
	require.NoError(t, err)
	assert.Equal(t, "unbounded", meta.Mode)
	require.Equal(t, 1, got.NumRecords())

	rec := got.Entries[0].Record
	require.Len(t, rec.Bytecode, 2)
	assert.Equal(t, effect.Wait{Frames: 5}, rec.Bytecode[0])
	assert.Equal(t, effect.Simple{Code: effect.OpEnd}, rec.Bytecode[1])

	_, _, err = arc.Load("missing.bin", effect.Options{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClosedArchive(t *testing.T) {
	arc := newTestArchive(t)
	raw, tbl := mustContainer(t, "ff")
	require.NoError(t, arc.Close())
	require.NoError(t, arc.Close())

	_, err := arc.Ingest("spark.bin", raw, tbl, effect.ModeBounded)
	assert.ErrorIs(t, err, ErrClosed)
	_, _, err = arc.Get(ID{})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = arc.Resolve("spark.bin")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = arc.List()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, arc.Delete(ID{}), ErrClosed)
}
