// Package cos provides common low-level types and utilities shared by every
// actor package: the §7 error taxonomy and small helpers.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds named in §7. Each is non-fatal to the owning actor: the
// request is dropped and (where the taxonomy calls for it) a counter is
// bumped, but the actor keeps running.
type (
	// ErrCapacityExceeded: a fixed-size table (worker registry, a client's
	// file/block tables, a worker's block table) is already full.
	ErrCapacityExceeded struct {
		table string
		limit int
	}
	// ErrProtocolState: a message arrived while the receiving actor's
	// per-block state machine was not in a state that allows it.
	ErrProtocolState struct {
		msg   string
		state string
	}
	// ErrUnknownMessageType: the 4-byte envelope discriminator didn't match
	// any type code for the protocol it arrived on.
	ErrUnknownMessageType struct {
		proto   string
		msgType uint32
	}
	// ErrSelfNotInPipeline: a worker scanned a PIPELINE_CREATE_REQ's
	// pipeline vector and did not find its own IP.
	ErrSelfNotInPipeline struct {
		ip uint32
	}
	// ErrConnectFailed: a dial to a successor pipeline hop, or to the
	// coordinator, did not complete.
	ErrConnectFailed struct {
		addr string
		err  error
	}
)

func NewErrCapacityExceeded(table string, limit int) *ErrCapacityExceeded {
	return &ErrCapacityExceeded{table: table, limit: limit}
}

func (e *ErrCapacityExceeded) Error() string {
	return fmt.Sprintf("%s is at capacity (limit %d)", e.table, e.limit)
}

func NewErrProtocolState(msg, state string) *ErrProtocolState {
	return &ErrProtocolState{msg: msg, state: state}
}

func (e *ErrProtocolState) Error() string {
	return fmt.Sprintf("%s received while in state %s", e.msg, e.state)
}

func NewErrUnknownMessageType(proto string, msgType uint32) *ErrUnknownMessageType {
	return &ErrUnknownMessageType{proto: proto, msgType: msgType}
}

func (e *ErrUnknownMessageType) Error() string {
	return fmt.Sprintf("unknown message type %d on %s protocol", e.msgType, e.proto)
}

func NewErrSelfNotInPipeline(ip uint32) *ErrSelfNotInPipeline {
	return &ErrSelfNotInPipeline{ip: ip}
}

func (e *ErrSelfNotInPipeline) Error() string {
	return fmt.Sprintf("worker %d not found in pipeline vector", e.ip)
}

func NewErrConnectFailed(addr string, cause error) *ErrConnectFailed {
	return &ErrConnectFailed{addr: addr, err: cause}
}

func (e *ErrConnectFailed) Error() string {
	return fmt.Sprintf("connect to %s failed: %v", e.addr, e.err)
}
func (e *ErrConnectFailed) Unwrap() error { return e.err }

// Wrap adds call-site context to an error at an actor boundary without
// inventing a second wrapping convention; Cause unwinds it back.
func Wrap(err error, msg string) error { return errors.Wrap(err, msg) }
func Cause(err error) error            { return errors.Cause(err) }
