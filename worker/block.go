// Block-level pipeline splicing (§4.4): a worker plays head, intermediate,
// or tail for a block depending on its position in the pipeline vector
// carried in PIPELINE_CREATE_REQ. One blockRun handles exactly one block
// on exactly one accepted connection, for the connection's lifetime. The
// single-writer discipline of §5 falls out naturally because only the
// goroutine running blockRun.serve ever writes to socketPrev from the
// upstream side, and only its downstream goroutine ever writes to
// socketPrev from the successor side; the two never touch the same
// direction of traffic.
/*
 * Copyright (c) 2018-2023.
 */
package worker

import (
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/dcsim/hdfssim/cmn/cos"
	"github.com/dcsim/hdfssim/cmn/debug"
	"github.com/dcsim/hdfssim/cmn/nlog"
	"github.com/dcsim/hdfssim/metrics"
	"github.com/dcsim/hdfssim/sim"
	"github.com/dcsim/hdfssim/wire"
)

type blockPhase int

const (
	phasePipelineRequested blockPhase = iota
	phasePipelineEstablished
	phaseTransferInProgress
	phaseTransferCompleted
)

// blockRun is the per-block WorkerBlockState (§3) plus the connections it
// owns. It is created once per accepted pipeline connection and discarded
// once the block reaches TransferCompleted or its connection drops.
type blockRun struct {
	w *Worker

	blockID  uint32
	pipeline []uint32
	ownIndex int
	isTail   bool

	prev sim.Conn
	next sim.Conn

	phase blockPhase

	currentPacketID   uint32
	currentPacketSize uint32
	currentPacketLast bool
}

func (w *Worker) serveBlock(prev sim.Conn, req wire.PipelineCreateReqMsg) {
	defer prev.Close()

	ownIndex := indexOfIP(req.Pipeline, w.ip)
	if ownIndex < 0 {
		w.metrics.Inc(component, metrics.SelfNotInPipeline)
		nlog.Errorf(component, "%v", cos.Wrap(cos.NewErrSelfNotInPipeline(w.ip), "worker.serveBlock"))
		return
	}

	if !w.sem.TryAcquire(1) {
		w.metrics.Inc(component, metrics.CapacityExceeded)
		nlog.Errorf(component, "%v", cos.Wrap(cos.NewErrCapacityExceeded("worker block table", w.opts.MaxBlocksPerWorker), "worker.serveBlock"))
		return
	}
	defer w.sem.Release(1)

	br := &blockRun{
		w:        w,
		blockID:  req.BlockID,
		pipeline: req.Pipeline,
		ownIndex: ownIndex,
		isTail:   ownIndex == len(req.Pipeline)-1,
		prev:     prev,
		phase:    phasePipelineRequested,
	}
	br.serve(req)
}

func indexOfIP(pipeline []uint32, ip uint32) int {
	for i, v := range pipeline {
		if v == ip {
			return i
		}
	}
	return -1
}

// serve runs the pipeline splice for one block. For an intermediate hop,
// serveUpstream and serveDownstream run concurrently under an
// errgroup.Group rather than a bare go statement, so serve only returns
// once both directions have actually drained, letting the caller's
// deferred Close calls run after both goroutines are done touching the
// connections.
func (br *blockRun) serve(req wire.PipelineCreateReqMsg) {
	w := br.w

	debug.Assert(br.ownIndex >= 0 && br.ownIndex < len(br.pipeline), "own index out of pipeline bounds")
	debug.Assertf(br.isTail == (br.ownIndex == len(br.pipeline)-1), "tail flag disagrees with position: %d/%d", br.ownIndex, len(br.pipeline))

	if br.isTail {
		br.phase = phasePipelineEstablished
		if err := wire.WritePipelineCreateRep(br.prev, wire.PipelineCreateRepMsg{ResultCode: wire.ResultOK, BlockID: br.blockID}); err != nil {
			return
		}
		br.serveUpstream()
		return
	}

	nextIP := br.pipeline[br.ownIndex+1]
	nextAddr := pipelineAddr(nextIP, w.opts.WorkerPipelinePort)
	conn, err := w.net.Dial(nextAddr)
	if err != nil {
		w.metrics.Inc(component, metrics.ConnectFailed)
		nlog.Errorf(component, "%v", cos.Wrap(cos.NewErrConnectFailed(nextAddr, err), "blockRun.serve"))
		return // block stays blocked forever, per §7: no recovery in-scope
	}
	br.next = conn
	defer br.next.Close()

	if err := wire.WritePipelineCreateReq(br.next, wire.PipelineCreateReqMsg{BlockID: br.blockID, Pipeline: br.pipeline}); err != nil {
		return
	}
	br.phase = phasePipelineRequested

	var g errgroup.Group
	g.Go(func() error {
		br.serveDownstream()
		return nil
	})
	g.Go(func() error {
		br.serveUpstream()
		return nil
	})
	g.Wait()
}

// serveUpstream reads from the previous hop: the PIPELINE_CREATE_REQ has
// already been consumed by the accept handler, so every subsequent
// message here is a DATA_PACKET header (§4.1's header-then-bulk rule).
func (br *blockRun) serveUpstream() {
	w := br.w
	for {
		typ, err := wire.ReadPipelineMsgType(br.prev)
		if err != nil {
			return
		}
		if typ != wire.DataPacket {
			w.metrics.Inc(component, metrics.UnknownMessageType)
			nlog.Errorf(component, "%v", cos.Wrap(cos.NewErrUnknownMessageType("pipeline", uint32(typ)), "blockRun.serveUpstream"))
			return
		}
		if br.phase != phasePipelineEstablished && br.phase != phaseTransferInProgress {
			w.metrics.Inc(component, metrics.ProtocolState)
			nlog.Errorf(component, "%v", cos.Wrap(cos.NewErrProtocolState("DATA_PACKET", "not established"), "blockRun.serveUpstream"))
			return
		}

		hdr, err := wire.ReadDataPacketHeaderBody(br.prev)
		if err != nil {
			return
		}
		br.phase = phaseTransferInProgress
		br.currentPacketID, br.currentPacketSize, br.currentPacketLast = hdr.PacketID, hdr.PacketSize, hdr.LastPacket

		if !br.isTail {
			if err := wire.WriteDataPacketHeader(br.next, hdr); err != nil {
				return
			}
		} else {
			if err := wire.WritePacketAck(br.prev, wire.PacketAckMsg{
				ResultCode: wire.ResultOK, BlockID: br.blockID, PacketID: hdr.PacketID,
				LastPacket: hdr.LastPacket, PacketSize: hdr.PacketSize,
			}); err != nil {
				return
			}
		}

		dst := io.Writer(io.Discard)
		if !br.isTail {
			dst = br.next
		}
		if _, err := io.CopyN(dst, br.prev, int64(hdr.PacketSize)); err != nil {
			nlog.Errorf(component, "block %d packet %d: short relay: %v", br.blockID, hdr.PacketID, err)
			return
		}

		if br.isTail {
			if err := wire.WritePacketComplete(br.prev, wire.PacketCompleteMsg{
				ResultCode: wire.ResultOK, BlockID: br.blockID, PacketID: hdr.PacketID,
				LastPacket: hdr.LastPacket, PacketSize: hdr.PacketSize,
			}); err != nil {
				return
			}
		}
		if hdr.LastPacket {
			br.phase = phaseTransferCompleted
			if br.isTail {
				return
			}
			// An intermediate hop keeps socketNext open: serveDownstream is
			// still waiting on it for the successor's own PACKET_COMPLETE
			// for this packet. Both connections close once serve's errgroup
			// drains, not here.
		}
	}
}

// serveDownstream relays PIPELINE_CREATE_REP, PACKET_ACK, and
// PACKET_COMPLETE arriving from the successor back toward the client
// (§4.4 "On PACKET_ACK or PACKET_COMPLETE received from socketNext
// (intermediates only): forward backward on socketPrev").
func (br *blockRun) serveDownstream() {
	w := br.w

	typ, err := wire.ReadPipelineMsgType(br.next)
	if err != nil {
		return
	}
	if typ != wire.PipelineCreateRep {
		w.metrics.Inc(component, metrics.UnknownMessageType)
		nlog.Errorf(component, "%v", cos.Wrap(cos.NewErrUnknownMessageType("pipeline", uint32(typ)), "blockRun.serveDownstream"))
		return
	}
	rep, err := wire.ReadPipelineCreateRepBody(br.next)
	if err != nil {
		return
	}
	br.phase = phasePipelineEstablished
	if err := wire.WritePipelineCreateRep(br.prev, rep); err != nil {
		return
	}

	for {
		typ, err := wire.ReadPipelineMsgType(br.next)
		if err != nil {
			return
		}
		switch typ {
		case wire.PacketAck:
			ack, err := wire.ReadPacketAckBody(br.next)
			if err != nil {
				return
			}
			if err := wire.WritePacketAck(br.prev, ack); err != nil {
				return
			}
		case wire.PacketComplete:
			comp, err := wire.ReadPacketCompleteBody(br.next)
			if err != nil {
				return
			}
			if err := wire.WritePacketComplete(br.prev, comp); err != nil {
				return
			}
			if comp.LastPacket {
				br.phase = phaseTransferCompleted
				return
			}
		default:
			w.metrics.Inc(component, metrics.UnknownMessageType)
			nlog.Errorf(component, "%v", cos.Wrap(cos.NewErrUnknownMessageType("pipeline", uint32(typ)), "blockRun.serveDownstream"))
			return
		}
	}
}
