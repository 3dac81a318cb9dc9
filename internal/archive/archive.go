// Package archive keeps ingested effect containers in a key-value store,
// content-addressed: the raw bytes live under their blake2b hash, CBOR
// metadata beside them, and a name index points at the hash.
package archive

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"

	"github.com/glimmerco/glimmer/pkg/db"
	"github.com/glimmerco/glimmer/pkg/effect"
)

var (
	ErrNotFound     = errors.New("archive: container not found")
	ErrAmbiguousRef = errors.New("archive: reference matches multiple containers")
	ErrClosed       = errors.New("archive: closed")
)

const (
	prefixMeta byte = iota + 1
	prefixBlob
	prefixName
)

// ID is the blake2b-256 hash of a container's raw bytes.
type ID [32]byte

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Meta describes one ingested container.
type Meta struct {
	Name       string    `cbor:"name"`
	Size       int64     `cbor:"size"`
	Slots      int       `cbor:"slots"`
	Records    int       `cbor:"records"`
	Mode       string    `cbor:"mode"`
	IngestedAt time.Time `cbor:"ingestedAt"`
}

// Entry pairs an id with its metadata.
type Entry struct {
	ID   ID
	Meta Meta
}

// Archive stores effect containers. It owns the key-value store it was
// given and closes it with Close.
type Archive struct {
	db     db.KVStore
	log    zerolog.Logger
	closed atomic.Bool
}

func New(kv db.KVStore, log zerolog.Logger) *Archive {
	return &Archive{db: kv, log: log}
}

// Ingest stores a container's raw bytes and metadata atomically, keyed by
// content hash, and points the name index at it. Ingesting identical bytes
// again just refreshes the metadata and index.
func (a *Archive) Ingest(name string, raw []byte, tbl *effect.Table, mode effect.BoundaryMode) (ID, error) {
	if a.closed.Load() {
		return ID{}, ErrClosed
	}

	id := ID(blake2b.Sum256(raw))
	meta := Meta{
		Name:       name,
		Size:       int64(len(raw)),
		Slots:      len(tbl.Entries),
		Records:    tbl.NumRecords(),
		Mode:       mode.String(),
		IngestedAt: time.Now().UTC(),
	}
	metaBytes, err := cbor.Marshal(meta)
	if err != nil {
		return ID{}, fmt.Errorf("marshal metadata: %w", err)
	}

	batch := a.db.NewBatch()
	defer batch.Close()

	if err := batch.Put(makeKey(prefixBlob, id[:]), raw); err != nil {
		return ID{}, fmt.Errorf("store blob: %w", err)
	}
	if err := batch.Put(makeKey(prefixMeta, id[:]), metaBytes); err != nil {
		return ID{}, fmt.Errorf("store metadata: %w", err)
	}
	if err := batch.Put(makeKey(prefixName, []byte(name)), id[:]); err != nil {
		return ID{}, fmt.Errorf("store name index: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return ID{}, fmt.Errorf("commit batch: %w", err)
	}

	a.log.Info().Str("name", name).Str("id", id.String()).
		Int("records", meta.Records).Msg("container ingested")
	return id, nil
}

// Get returns the raw container bytes and metadata for an id.
func (a *Archive) Get(id ID) ([]byte, Meta, error) {
	if a.closed.Load() {
		return nil, Meta{}, ErrClosed
	}

	raw, err := a.db.Get(makeKey(prefixBlob, id[:]))
	if errors.Is(err, db.ErrNotFound) {
		return nil, Meta{}, ErrNotFound
	}
	if err != nil {
		return nil, Meta{}, fmt.Errorf("get blob: %w", err)
	}

	meta, err := a.getMeta(id)
	if err != nil {
		return nil, Meta{}, err
	}
	return raw, meta, nil
}

func (a *Archive) getMeta(id ID) (Meta, error) {
	metaBytes, err := a.db.Get(makeKey(prefixMeta, id[:]))
	if errors.Is(err, db.ErrNotFound) {
		return Meta{}, ErrNotFound
	}
	if err != nil {
		return Meta{}, fmt.Errorf("get metadata: %w", err)
	}

	var meta Meta
	if err := cbor.Unmarshal(metaBytes, &meta); err != nil {
		return Meta{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return meta, nil
}

// Resolve turns a name or a unique hex id prefix into an ID. Names win when
// a reference could be either.
func (a *Archive) Resolve(ref string) (ID, error) {
	if a.closed.Load() {
		return ID{}, ErrClosed
	}

	idBytes, err := a.db.Get(makeKey(prefixName, []byte(ref)))
	if err == nil {
		var id ID
		copy(id[:], idBytes)
		return id, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return ID{}, fmt.Errorf("resolve name: %w", err)
	}

	iter, err := a.db.NewIterator([]byte{prefixMeta})
	if err != nil {
		return ID{}, fmt.Errorf("scan ids: %w", err)
	}
	defer iter.Close()

	want := strings.ToLower(ref)
	var found ID
	matches := 0
	for iter.Next() {
		var id ID
		copy(id[:], iter.Key()[1:])
		if strings.HasPrefix(id.String(), want) {
			found = id
			matches++
		}
	}
	switch matches {
	case 0:
		return ID{}, ErrNotFound
	case 1:
		return found, nil
	default:
		return ID{}, fmt.Errorf("%w: %q", ErrAmbiguousRef, ref)
	}
}

// List returns every archived container in id order.
func (a *Archive) List() ([]Entry, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}

	iter, err := a.db.NewIterator([]byte{prefixMeta})
	if err != nil {
		return nil, fmt.Errorf("scan metadata: %w", err)
	}
	defer iter.Close()

	var entries []Entry
	for iter.Next() {
		val, err := iter.Value()
		if err != nil {
			return nil, fmt.Errorf("read metadata: %w", err)
		}
		var meta Meta
		if err := cbor.Unmarshal(val, &meta); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		var id ID
		copy(id[:], iter.Key()[1:])
		entries = append(entries, Entry{ID: id, Meta: meta})
	}
	return entries, nil
}

// Delete removes a container and its metadata. The name index entry goes
// too, unless the name has since been claimed by different content.
func (a *Archive) Delete(id ID) error {
	if a.closed.Load() {
		return ErrClosed
	}

	meta, err := a.getMeta(id)
	if err != nil {
		return err
	}

	batch := a.db.NewBatch()
	defer batch.Close()

	if err := batch.Delete(makeKey(prefixBlob, id[:])); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	if err := batch.Delete(makeKey(prefixMeta, id[:])); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}

	nameKey := makeKey(prefixName, []byte(meta.Name))
	owner, err := a.db.Get(nameKey)
	if err == nil && bytes.Equal(owner, id[:]) {
		if err := batch.Delete(nameKey); err != nil {
			return fmt.Errorf("delete name index: %w", err)
		}
	} else if err != nil && !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("check name index: %w", err)
	}

	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	a.log.Info().Str("id", id.String()).Msg("container deleted")
	return nil
}

// Load resolves ref, fetches the container and decodes it again under the
// boundary mode recorded at ingest time. opts supplies everything else.
func (a *Archive) Load(ref string, opts effect.Options) (*effect.Table, Meta, error) {
	id, err := a.Resolve(ref)
	if err != nil {
		return nil, Meta{}, err
	}
	raw, meta, err := a.Get(id)
	if err != nil {
		return nil, Meta{}, err
	}
	if mode, err := effect.ParseBoundaryMode(meta.Mode); err == nil {
		opts.Mode = mode
	}
	tbl, err := effect.DecodeTable(raw, opts)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("decode %s: %w", id, err)
	}
	return tbl, meta, nil
}

func (a *Archive) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	return a.db.Close()
}

func makeKey(prefix byte, suffix []byte) []byte {
	key := make([]byte, 1+len(suffix))
	key[0] = prefix
	copy(key[1:], suffix)
	return key
}
