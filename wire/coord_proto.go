package wire

import "io"

// ClientMsgType is the envelope discriminator on the coordinator<->client
// file/block bookkeeping protocol.
type ClientMsgType uint32

const (
	FileCreateReq  ClientMsgType = 0
	FileCreateRep  ClientMsgType = 1
	BlockAddReq    ClientMsgType = 2
	BlockAddRep    ClientMsgType = 3
	BlockCompleteT ClientMsgType = 4
)

type FileCreateReqMsg struct {
	Name string
}

type FileCreateRepMsg struct {
	ResultCode uint32
	FileID     uint32
	Name       string
}

type BlockAddReqMsg struct {
	FileID uint32
}

// BlockAddRepMsg carries the pipeline the coordinator chose for the new
// block: an ordered list of worker IPs, 1..MAX_PIPELINE_LEN long.
type BlockAddRepMsg struct {
	ResultCode uint32
	FileID     uint32
	BlockID    uint32
	BlockSize  uint32
	Pipeline   []uint32
}

type BlockCompleteMsg struct {
	ResultCode uint32
	BlockID    uint32
}

func ReadClientMsgType(r io.Reader) (ClientMsgType, error) {
	v, err := readU32(r)
	return ClientMsgType(v), err
}

func WriteFileCreateReq(w io.Writer, m FileCreateReqMsg) error {
	if err := writeU32(w, uint32(FileCreateReq)); err != nil {
		return err
	}
	return writeString(w, m.Name)
}

func ReadFileCreateReqBody(r io.Reader) (m FileCreateReqMsg, err error) {
	m.Name, err = readString(r)
	return
}

func WriteFileCreateRep(w io.Writer, m FileCreateRepMsg) error {
	if err := writeU32(w, uint32(FileCreateRep)); err != nil {
		return err
	}
	if err := writeU32(w, m.ResultCode); err != nil {
		return err
	}
	if err := writeU32(w, m.FileID); err != nil {
		return err
	}
	return writeString(w, m.Name)
}

func ReadFileCreateRepBody(r io.Reader) (m FileCreateRepMsg, err error) {
	if m.ResultCode, err = readU32(r); err != nil {
		return
	}
	if m.FileID, err = readU32(r); err != nil {
		return
	}
	m.Name, err = readString(r)
	return
}

func WriteBlockAddReq(w io.Writer, m BlockAddReqMsg) error {
	if err := writeU32(w, uint32(BlockAddReq)); err != nil {
		return err
	}
	return writeU32(w, m.FileID)
}

func ReadBlockAddReqBody(r io.Reader) (m BlockAddReqMsg, err error) {
	m.FileID, err = readU32(r)
	return
}

func WriteBlockAddRep(w io.Writer, m BlockAddRepMsg) error {
	if err := writeU32(w, uint32(BlockAddRep)); err != nil {
		return err
	}
	for _, v := range []uint32{m.ResultCode, m.FileID, m.BlockID, m.BlockSize, uint32(len(m.Pipeline))} {
		if err := writeU32(w, v); err != nil {
			return err
		}
	}
	for _, ip := range m.Pipeline {
		if err := writeU32(w, ip); err != nil {
			return err
		}
	}
	return nil
}

func ReadBlockAddRepBody(r io.Reader) (m BlockAddRepMsg, err error) {
	vals := make([]uint32, 5)
	for i := range vals {
		if vals[i], err = readU32(r); err != nil {
			return
		}
	}
	m.ResultCode, m.FileID, m.BlockID, m.BlockSize = vals[0], vals[1], vals[2], vals[3]
	pipelineLen := vals[4]
	m.Pipeline = make([]uint32, pipelineLen)
	for i := range m.Pipeline {
		if m.Pipeline[i], err = readU32(r); err != nil {
			return
		}
	}
	return
}

func WriteBlockComplete(w io.Writer, m BlockCompleteMsg) error {
	if err := writeU32(w, uint32(BlockCompleteT)); err != nil {
		return err
	}
	if err := writeU32(w, m.ResultCode); err != nil {
		return err
	}
	return writeU32(w, m.BlockID)
}

func ReadBlockCompleteBody(r io.Reader) (m BlockCompleteMsg, err error) {
	if m.ResultCode, err = readU32(r); err != nil {
		return
	}
	m.BlockID, err = readU32(r)
	return
}
