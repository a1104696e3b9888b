// Package store persists the latest TokenState of each token/owner thread
// together with the unspent outpoint that carries it. The verifier itself is
// pure; this layer exists for tooling that follows threads across spends.
package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"kestrel.dev/ledger/consensus"
)

var bucketThreads = []byte("thread_by_slot")

// ThreadRecord is one thread head: the committed state and where it lives.
type ThreadRecord struct {
	Outpoint consensus.Outpoint
	State    consensus.TokenState
}

type DB struct {
	db *bolt.DB
}

func Open(datadir string) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("datadir required")
	}
	if err := os.MkdirAll(datadir, 0o700); err != nil {
		return nil, err
	}
	path := filepath.Join(datadir, "threads.db")
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketThreads)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func encodeRecord(rec *ThreadRecord) []byte {
	out := make([]byte, 0, 36+consensus.STATE_SCRIPT_BYTES)
	out = append(out, rec.Outpoint.TxID[:]...)
	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], rec.Outpoint.Vout)
	out = append(out, tmp4[:]...)
	out = append(out, consensus.StateScriptBytes(&rec.State)...)
	return out
}

func decodeRecord(b []byte) (*ThreadRecord, error) {
	if len(b) != 36+consensus.STATE_SCRIPT_BYTES {
		return nil, fmt.Errorf("store: thread record length invalid")
	}
	var rec ThreadRecord
	copy(rec.Outpoint.TxID[:], b[:32])
	rec.Outpoint.Vout = binary.LittleEndian.Uint32(b[32:36])
	st, err := consensus.ParseStateScript(b[36:])
	if err != nil {
		return nil, err
	}
	rec.State = *st
	return &rec, nil
}

// PutThread stores rec as the new head of its slot's thread, superseding any
// previous head.
func (d *DB) PutThread(rec *ThreadRecord) error {
	val := encodeRecord(rec)
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketThreads).Put(rec.State.SlotID[:], val)
	})
}

// GetThread returns the head of the thread for slotID, or nil if unknown.
func (d *DB) GetThread(slotID [32]byte) (*ThreadRecord, error) {
	var out *ThreadRecord
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketThreads).Get(slotID[:])
		if v == nil {
			return nil
		}
		rec, err := decodeRecord(v)
		if err != nil {
			return err
		}
		out = rec
		return nil
	})
	return out, err
}

// Threads lists every thread head.
func (d *DB) Threads() ([]*ThreadRecord, error) {
	var out []*ThreadRecord
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketThreads).ForEach(func(_, v []byte) error {
			rec, err := decodeRecord(v)
			if err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	return out, err
}
