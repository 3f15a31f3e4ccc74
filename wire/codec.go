// Package wire implements the on-wire message set of §4.1: a 4-byte type
// envelope followed by a per-type payload, all integers 4-byte unsigned
// network byte order, strings length-prefixed, booleans 4-byte integers.
//
// Three independent type-code namespaces share this framing: coordinator<->
// worker registration, coordinator<->client file/block bookkeeping, and the
// client<->worker<->worker pipeline protocol. Each gets its own file; this
// one holds the primitive reader/writer both build on.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package wire

import (
	"encoding/binary"
	"io"
)

const SizeU32 = 4

func putU32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }
func getU32(b []byte) uint32    { return binary.BigEndian.Uint32(b) }

func writeU32(w io.Writer, v uint32) error {
	var b [SizeU32]byte
	putU32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var b [SizeU32]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return getU32(b[:]), nil
}

func writeBool(w io.Writer, v bool) error {
	if v {
		return writeU32(w, 1)
	}
	return writeU32(w, 0)
}

func readBool(r io.Reader) (bool, error) {
	v, err := readU32(r)
	return v != 0, err
}

func writeString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// Result codes carried in every reply envelope. The protocol never
// surfaces errors above the actor boundary (§7): these exist for wire
// completeness and for tests, not for client-visible error handling.
const (
	ResultOK = uint32(0)
	ResultNo = uint32(1)
)
