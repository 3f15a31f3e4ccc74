package wire

import "io"

// PipelineMsgType is the envelope discriminator on the client<->worker<->
// worker pipeline protocol (§4.1). DataPacket is special: only its header
// is framed here. The packetSize opaque payload bytes that follow on the
// same stream are the caller's responsibility (§4.1's "header-then-bulk"
// rule, enforced by the worker's blockRun.serveUpstream and the client's
// fileRun.sendPacket, not by this package).
type PipelineMsgType uint32

const (
	PipelineCreateReq PipelineMsgType = 0
	PipelineCreateRep PipelineMsgType = 1
	DataPacket        PipelineMsgType = 2
	PacketAck         PipelineMsgType = 4
	PacketComplete    PipelineMsgType = 5
)

type PipelineCreateReqMsg struct {
	BlockID  uint32
	Pipeline []uint32
}

type PipelineCreateRepMsg struct {
	ResultCode uint32
	BlockID    uint32
}

// DataPacketHeaderMsg is the 24-byte control unit that precedes exactly
// PacketSize opaque bytes on the stream (§4.1).
type DataPacketHeaderMsg struct {
	BlockID     uint32
	PacketID    uint32
	SegmentID   uint32
	LastSegment bool
	LastPacket  bool
	PacketSize  uint32
}

// PacketAckMsg and PacketCompleteMsg share a shape: the tail (or a
// forwarding intermediate) reports which packet and whether it is the
// block's last one.
type PacketAckMsg struct {
	ResultCode uint32
	BlockID    uint32
	PacketID   uint32
	LastPacket bool
	PacketSize uint32
}

type PacketCompleteMsg struct {
	ResultCode uint32
	BlockID    uint32
	PacketID   uint32
	LastPacket bool
	PacketSize uint32
}

func ReadPipelineMsgType(r io.Reader) (PipelineMsgType, error) {
	v, err := readU32(r)
	return PipelineMsgType(v), err
}

func WritePipelineCreateReq(w io.Writer, m PipelineCreateReqMsg) error {
	if err := writeU32(w, uint32(PipelineCreateReq)); err != nil {
		return err
	}
	if err := writeU32(w, m.BlockID); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(m.Pipeline))); err != nil {
		return err
	}
	for _, ip := range m.Pipeline {
		if err := writeU32(w, ip); err != nil {
			return err
		}
	}
	return nil
}

func ReadPipelineCreateReqBody(r io.Reader) (m PipelineCreateReqMsg, err error) {
	if m.BlockID, err = readU32(r); err != nil {
		return
	}
	var n uint32
	if n, err = readU32(r); err != nil {
		return
	}
	m.Pipeline = make([]uint32, n)
	for i := range m.Pipeline {
		if m.Pipeline[i], err = readU32(r); err != nil {
			return
		}
	}
	return
}

func WritePipelineCreateRep(w io.Writer, m PipelineCreateRepMsg) error {
	if err := writeU32(w, uint32(PipelineCreateRep)); err != nil {
		return err
	}
	if err := writeU32(w, m.ResultCode); err != nil {
		return err
	}
	return writeU32(w, m.BlockID)
}

func ReadPipelineCreateRepBody(r io.Reader) (m PipelineCreateRepMsg, err error) {
	if m.ResultCode, err = readU32(r); err != nil {
		return
	}
	m.BlockID, err = readU32(r)
	return
}

// WriteDataPacketHeader writes only the 24-byte control header. The
// caller must immediately write exactly m.PacketSize opaque bytes on the
// same stream afterward.
func WriteDataPacketHeader(w io.Writer, m DataPacketHeaderMsg) error {
	if err := writeU32(w, uint32(DataPacket)); err != nil {
		return err
	}
	if err := writeU32(w, m.BlockID); err != nil {
		return err
	}
	if err := writeU32(w, m.PacketID); err != nil {
		return err
	}
	if err := writeU32(w, m.SegmentID); err != nil {
		return err
	}
	if err := writeBool(w, m.LastSegment); err != nil {
		return err
	}
	if err := writeBool(w, m.LastPacket); err != nil {
		return err
	}
	return writeU32(w, m.PacketSize)
}

// ReadDataPacketHeaderBody reads the 24-byte header only; the caller must
// then read exactly m.PacketSize raw bytes before treating the stream as
// typed messages again (§4.1).
func ReadDataPacketHeaderBody(r io.Reader) (m DataPacketHeaderMsg, err error) {
	if m.BlockID, err = readU32(r); err != nil {
		return
	}
	if m.PacketID, err = readU32(r); err != nil {
		return
	}
	if m.SegmentID, err = readU32(r); err != nil {
		return
	}
	if m.LastSegment, err = readBool(r); err != nil {
		return
	}
	if m.LastPacket, err = readBool(r); err != nil {
		return
	}
	m.PacketSize, err = readU32(r)
	return
}

func WritePacketAck(w io.Writer, m PacketAckMsg) error {
	if err := writeU32(w, uint32(PacketAck)); err != nil {
		return err
	}
	for _, v := range []uint32{m.ResultCode, m.BlockID, m.PacketID} {
		if err := writeU32(w, v); err != nil {
			return err
		}
	}
	if err := writeBool(w, m.LastPacket); err != nil {
		return err
	}
	return writeU32(w, m.PacketSize)
}

func ReadPacketAckBody(r io.Reader) (m PacketAckMsg, err error) {
	vals := make([]uint32, 3)
	for i := range vals {
		if vals[i], err = readU32(r); err != nil {
			return
		}
	}
	m.ResultCode, m.BlockID, m.PacketID = vals[0], vals[1], vals[2]
	if m.LastPacket, err = readBool(r); err != nil {
		return
	}
	m.PacketSize, err = readU32(r)
	return
}

func WritePacketComplete(w io.Writer, m PacketCompleteMsg) error {
	if err := writeU32(w, uint32(PacketComplete)); err != nil {
		return err
	}
	for _, v := range []uint32{m.ResultCode, m.BlockID, m.PacketID} {
		if err := writeU32(w, v); err != nil {
			return err
		}
	}
	if err := writeBool(w, m.LastPacket); err != nil {
		return err
	}
	return writeU32(w, m.PacketSize)
}

func ReadPacketCompleteBody(r io.Reader) (m PacketCompleteMsg, err error) {
	vals := make([]uint32, 3)
	for i := range vals {
		if vals[i], err = readU32(r); err != nil {
			return
		}
	}
	m.ResultCode, m.BlockID, m.PacketID = vals[0], vals[1], vals[2]
	if m.LastPacket, err = readBool(r); err != nil {
		return
	}
	m.PacketSize, err = readU32(r)
	return
}
