package client

import (
	"sync"

	"github.com/dcsim/hdfssim/cmn/cos"
	"github.com/dcsim/hdfssim/cmn/debug"
	"github.com/dcsim/hdfssim/cmn/mono"
	"github.com/dcsim/hdfssim/cmn/nlog"
	"github.com/dcsim/hdfssim/config"
	"github.com/dcsim/hdfssim/metrics"
	"github.com/dcsim/hdfssim/sim"
	"github.com/dcsim/hdfssim/wire"
	"github.com/dcsim/hdfssim/worker"
)

type fileState int

const (
	fileScheduled fileState = iota
	fileRegistrationRequested
	fileRegistered
)

type blockState int

const (
	blockRegistered blockState = iota
	blockPipelineInitiated
	blockPipelineEstablished
	blockTransferInProgress
	blockTransferCompleted
)

// fileRun is the client-side ClientBlockState of §3 plus the file-level
// state that precedes it. One fileRun handles exactly one scheduled file,
// which in this core means exactly one block (§4.3 describes a single
// BLOCK_ADD_REQ per scheduled file).
type fileRun struct {
	client *Client
	spec   config.ClientFileSpec
	start  mono.Time

	mu          sync.Mutex
	coordConn   sim.Conn
	headConn    sim.Conn
	cancelTimer func()
	canceled    bool

	fState fileState
	bState blockState

	fileID  uint32
	blockID uint32
	size    uint32

	totalPackets   uint32
	lastPacketSize uint32
	packetsAcked   uint32
	packetsComplete uint32
}

func (fr *fileRun) cancel() {
	fr.mu.Lock()
	if fr.canceled {
		fr.mu.Unlock()
		return
	}
	fr.canceled = true
	coordConn, headConn := fr.coordConn, fr.headConn
	fr.mu.Unlock()

	nlog.Warningf(component, "file %q abandoned at its stop time", fr.spec.Name)
	if coordConn != nil {
		coordConn.Close()
	}
	if headConn != nil {
		headConn.Close()
	}
}

func (fr *fileRun) setCoordConn(c sim.Conn) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.coordConn = c
}

func (fr *fileRun) setHeadConn(c sim.Conn) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.headConn = c
}

func (fr *fileRun) run(onDone func(Result)) {
	c := fr.client
	result := Result{Name: fr.spec.Name}
	defer func() {
		if fr.cancelTimer != nil {
			fr.cancelTimer()
		}
		result.FileID, result.BlockID = fr.fileID, fr.blockID
		result.Elapsed = c.clock.Now().Sub(fr.start)
		if onDone != nil {
			onDone(result)
		}
	}()

	conn, err := c.net.Dial(c.opts.CoordinatorClientAddr)
	if err != nil {
		c.metrics.Inc(component, metrics.ConnectFailed)
		nlog.Errorf(component, "%v", cos.Wrap(cos.NewErrConnectFailed(c.opts.CoordinatorClientAddr, err), "fileRun.run: dial coordinator"))
		return
	}
	fr.setCoordConn(conn)
	defer conn.Close()

	fr.fState = fileRegistrationRequested
	if err := wire.WriteFileCreateReq(conn, wire.FileCreateReqMsg{Name: fr.spec.Name}); err != nil {
		return
	}
	typ, err := wire.ReadClientMsgType(conn)
	if err != nil || typ != wire.FileCreateRep {
		return
	}
	frep, err := wire.ReadFileCreateRepBody(conn)
	if err != nil || frep.ResultCode != wire.ResultOK {
		return
	}
	fr.fileID = frep.FileID
	fr.fState = fileRegistered

	if !c.blocksSem.TryAcquire(1) {
		c.metrics.Inc(component, metrics.CapacityExceeded)
		nlog.Errorf(component, "%v", cos.Wrap(cos.NewErrCapacityExceeded("client block table", c.opts.MaxBlocksPerClient), "fileRun.run"))
		return
	}

	if err := wire.WriteBlockAddReq(conn, wire.BlockAddReqMsg{FileID: fr.fileID}); err != nil {
		return
	}
	typ, err = wire.ReadClientMsgType(conn)
	if err != nil || typ != wire.BlockAddRep {
		return
	}
	brep, err := wire.ReadBlockAddRepBody(conn)
	if err != nil || brep.ResultCode != wire.ResultOK || len(brep.Pipeline) == 0 {
		return
	}
	fr.blockID, fr.size = brep.BlockID, brep.BlockSize
	fr.bState = blockRegistered

	headAddr := worker.PipelineAddr(brep.Pipeline[0], c.opts.WorkerPipelinePort)
	headConn, err := c.net.Dial(headAddr)
	if err != nil {
		c.metrics.Inc(component, metrics.ConnectFailed)
		nlog.Errorf(component, "%v", cos.Wrap(cos.NewErrConnectFailed(headAddr, err), "fileRun.run: dial pipeline head"))
		return
	}
	fr.setHeadConn(headConn)
	defer headConn.Close()

	if err := wire.WritePipelineCreateReq(headConn, wire.PipelineCreateReqMsg{BlockID: fr.blockID, Pipeline: brep.Pipeline}); err != nil {
		return
	}
	fr.bState = blockPipelineInitiated

	ptyp, err := wire.ReadPipelineMsgType(headConn)
	if err != nil || ptyp != wire.PipelineCreateRep {
		return
	}
	prep, err := wire.ReadPipelineCreateRepBody(headConn)
	if err != nil || prep.ResultCode != wire.ResultOK {
		return
	}
	fr.bState = blockPipelineEstablished

	fr.totalPackets = (fr.size + uint32(c.opts.PacketSize) - 1) / uint32(c.opts.PacketSize)
	if fr.totalPackets == 0 {
		fr.totalPackets = 1
	}
	fr.lastPacketSize = fr.size - (fr.totalPackets-1)*uint32(c.opts.PacketSize)
	if fr.lastPacketSize == 0 {
		fr.lastPacketSize = uint32(c.opts.PacketSize)
	}
	debug.Assert(fr.totalPackets > 0, "a registered block must segment into at least one packet")
	debug.Assertf((fr.totalPackets-1)*uint32(c.opts.PacketSize)+fr.lastPacketSize == fr.size,
		"packet segmentation does not sum to block size: %d packets, last=%d, size=%d", fr.totalPackets, fr.lastPacketSize, fr.size)

	fr.bState = blockTransferInProgress
	if err := fr.sendPacket(1); err != nil {
		return
	}

	for {
		typ, err := wire.ReadPipelineMsgType(headConn)
		if err != nil {
			return
		}
		switch typ {
		case wire.PacketAck:
			if _, err := wire.ReadPacketAckBody(headConn); err != nil {
				return
			}
			fr.packetsAcked++
		case wire.PacketComplete:
			comp, err := wire.ReadPacketCompleteBody(headConn)
			if err != nil {
				return
			}
			fr.packetsComplete++
			if comp.PacketID < fr.totalPackets {
				if err := fr.sendPacket(comp.PacketID + 1); err != nil {
					return
				}
				continue
			}
			fr.bState = blockTransferCompleted
			if err := wire.WriteBlockComplete(conn, wire.BlockCompleteMsg{ResultCode: wire.ResultOK, BlockID: fr.blockID}); err != nil {
				return
			}
			result.Success = true
			return
		default:
			return
		}
	}
}

// sendPacket writes packet i's DATA_PACKET header followed immediately
// by packetSize opaque payload bytes (§4.1's header-then-bulk rule). The
// payload content is immaterial to the protocol; it is never inspected.
func (fr *fileRun) sendPacket(i uint32) error {
	fr.mu.Lock()
	headConn := fr.headConn
	fr.mu.Unlock()

	size := uint32(fr.client.opts.PacketSize)
	last := i == fr.totalPackets
	if last {
		size = fr.lastPacketSize
	}
	hdr := wire.DataPacketHeaderMsg{
		BlockID: fr.blockID, PacketID: i, SegmentID: 1,
		LastSegment: true, LastPacket: last, PacketSize: size,
	}
	if err := wire.WriteDataPacketHeader(headConn, hdr); err != nil {
		return err
	}
	payload := make([]byte, size)
	_, err := headConn.Write(payload)
	return err
}
