// Coordinator-side storage (§3): WorkerRecord, FileRecord, BlockRecord
// tables backed by an in-memory buntdb database. Nothing here touches
// real disk (buntdb is opened against ":memory:"), a KV-store concern
// rather than a persistence concern.
/*
 * Copyright (c) 2018-2023.
 */
package coordinator

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/buntdb"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PlacementId is the immutable identity a worker reports at registration
// (§3). The coordinator treats it as an opaque handle.
type PlacementId struct {
	PodID, RackID, HostID uint32
}

// WorkerRecord is created on successful WORKER_REGISTER_REQ and lives
// until the coordinator terminates.
type WorkerRecord struct {
	Placement PlacementId
	IP        uint32
}

// FileRecord tracks one file's ordered block sequence.
type FileRecord struct {
	FileID uint32
	Name   string
	Blocks []uint32
}

// BlockRecord's Pipeline is immutable once assigned.
type BlockRecord struct {
	BlockID  uint32
	FileID   uint32
	Size     uint32
	Pipeline []uint32
}

// registry is the coordinator's single-writer view of buntdb: every
// mutation happens from the coordinator's run loop (§5). The read-only
// Coordinator accessors (Workers, FileBlocks, Block) call it from their
// callers' goroutines; buntdb's own locking keeps those reads safe.
type registry struct {
	db *buntdb.DB
}

func newRegistry() (*registry, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("coordinator: opening registry: %w", err)
	}
	return &registry{db: db}, nil
}

func (r *registry) Close() error { return r.db.Close() }

func workerKey(ordinal int) string { return fmt.Sprintf("worker/%010d", ordinal) }
func fileKey(id uint32) string     { return fmt.Sprintf("file/%010d", id) }
func blockKey(id uint32) string    { return fmt.Sprintf("block/%010d", id) }

func (r *registry) PutWorker(ordinal int, w WorkerRecord) error {
	b, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(workerKey(ordinal), string(b), nil)
		return err
	})
}

// Workers returns every registered worker in registration order (FIFO),
// which is what makes placement determinism (§8) testable.
func (r *registry) Workers() ([]WorkerRecord, error) {
	var out []WorkerRecord
	err := r.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("worker/*", func(key, value string) bool {
			var w WorkerRecord
			if jerr := json.Unmarshal([]byte(value), &w); jerr != nil {
				return false
			}
			out = append(out, w)
			return true
		})
	})
	return out, err
}

func (r *registry) PutFile(f FileRecord) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(fileKey(f.FileID), string(b), nil)
		return err
	})
}

func (r *registry) GetFile(id uint32) (FileRecord, bool, error) {
	var f FileRecord
	found := false
	err := r.db.View(func(tx *buntdb.Tx) error {
		v, gerr := tx.Get(fileKey(id))
		if gerr == buntdb.ErrNotFound {
			return nil
		}
		if gerr != nil {
			return gerr
		}
		found = true
		return json.Unmarshal([]byte(v), &f)
	})
	return f, found, err
}

func (r *registry) PutBlock(b BlockRecord) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(blockKey(b.BlockID), string(raw), nil)
		return err
	})
}

func (r *registry) GetBlock(id uint32) (BlockRecord, bool, error) {
	var b BlockRecord
	found := false
	err := r.db.View(func(tx *buntdb.Tx) error {
		v, gerr := tx.Get(blockKey(id))
		if gerr == buntdb.ErrNotFound {
			return nil
		}
		if gerr != nil {
			return gerr
		}
		found = true
		return json.Unmarshal([]byte(v), &b)
	})
	return b, found, err
}

// FileBlocks is the supplemented read-only accessor from SPEC_FULL.md's
// original_source/ section: it has no wire message of its own.
func (r *registry) FileBlocks(fileID uint32) ([]uint32, error) {
	f, ok, err := r.GetFile(fileID)
	if err != nil || !ok {
		return nil, err
	}
	return f.Blocks, nil
}
