// Package topo builds the fat-tree topology fixture of §4.5: a
// deterministic node/endpoint naming and IPv4-shaped address scheme used
// both as the worker placement identity and as a reproducible test
// fixture. The bit layout below mirrors the original ns-3 fat-tree
// model's AssignIpAddr (src/fat-tree/model/fat-tree.cc in the source this
// spec was distilled from): a caller-chosen top byte, then a pod byte
// whose low bit selects the within-pod vs. aggregation/core address
// family, then a role-and-index pair in the remaining two bytes.
/*
 * Copyright (c) 2013-2023.
 */
package topo

import "fmt"

// Role identifies which of the six directed link endpoints an address
// describes (one role per direction per link layer, per §4.5).
type Role int

const (
	HostToEdge Role = iota
	EdgeToHost
	EdgeToAggr
	AggrToEdge
	AggrToCore
	CoreToAggr
)

func (r Role) String() string {
	switch r {
	case HostToEdge:
		return "host->edge"
	case EdgeToHost:
		return "edge->host"
	case EdgeToAggr:
		return "edge->aggr"
	case AggrToEdge:
		return "aggr->edge"
	case AggrToCore:
		return "aggr->core"
	case CoreToAggr:
		return "core->aggr"
	default:
		return "invalid"
	}
}

// Endpoint is the descriptor that must survive an Encode/Decode round
// trip bit-exactly (§8). Near/Far are role-dependent: for the four
// within-pod roles, Near is the edge-switch index and Far is the
// host/aggregation index; for the two aggregation<->core roles, Near is
// the aggregation or core index and Far is the other.
type Endpoint struct {
	Role  Role
	PodID int
	Near  int
	Far   int
}

const subRoleMask = 0x3
const coreRoleBit = 0x40 // bit 6 of the third byte distinguishes core->aggr

// Encode packs an Endpoint into a 4-byte IPv4-shaped identifier whose top
// byte is the caller-chosen base (the bit layout is otherwise fixed).
func Encode(base uint8, e Endpoint) (uint32, error) {
	var podByte, thirdByte, fourthByte uint32

	switch e.Role {
	case HostToEdge, EdgeToHost, EdgeToAggr, AggrToEdge:
		podByte = uint32(e.PodID) << 1
		var sub uint32
		switch e.Role {
		case HostToEdge:
			sub = 0
		case AggrToEdge:
			sub = 1
		case EdgeToHost:
			sub = 2
		case EdgeToAggr:
			sub = 3
		}
		thirdByte = uint32(e.Near)<<2 | sub
		fourthByte = uint32(e.Far)
	case AggrToCore:
		podByte = uint32(e.PodID)<<1 | 1
		thirdByte = uint32(e.Near) // aggregation index
		fourthByte = uint32(e.Far) // core index
	case CoreToAggr:
		podByte = uint32(e.PodID)<<1 | 1
		thirdByte = uint32(e.Near) + coreRoleBit // core index, role bit set
		fourthByte = uint32(e.Far)               // aggregation index
	default:
		return 0, fmt.Errorf("topo: invalid role %d", e.Role)
	}

	if podByte > 0xFF || thirdByte > 0xFF || fourthByte > 0xFF {
		return 0, fmt.Errorf("topo: endpoint %+v overflows its address field", e)
	}
	return uint32(base)<<24 | podByte<<16 | thirdByte<<8 | fourthByte, nil
}

// Decode recovers the Endpoint descriptor from an address produced by
// Encode, ignoring the top (base) byte.
func Decode(ip uint32) Endpoint {
	podByte := (ip >> 16) & 0xFF
	thirdByte := (ip >> 8) & 0xFF
	fourthByte := ip & 0xFF

	podID := int(podByte >> 1)
	if podByte&1 == 0 {
		sub := thirdByte & subRoleMask
		near := int(thirdByte >> 2)
		var role Role
		switch sub {
		case 0:
			role = HostToEdge
		case 1:
			role = AggrToEdge
		case 2:
			role = EdgeToHost
		case 3:
			role = EdgeToAggr
		}
		return Endpoint{Role: role, PodID: podID, Near: near, Far: int(fourthByte)}
	}

	if thirdByte&coreRoleBit != 0 {
		return Endpoint{Role: CoreToAggr, PodID: podID, Near: int(thirdByte - coreRoleBit), Far: int(fourthByte)}
	}
	return Endpoint{Role: AggrToCore, PodID: podID, Near: int(thirdByte), Far: int(fourthByte)}
}

// Base returns the caller-chosen top byte of an encoded address.
func Base(ip uint32) uint8 { return uint8(ip >> 24) }
