package worker_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/dcsim/hdfssim/config"
	"github.com/dcsim/hdfssim/metrics"
	"github.com/dcsim/hdfssim/sim"
	"github.com/dcsim/hdfssim/wire"
	"github.com/dcsim/hdfssim/worker"
)

func mustStart(t *testing.T, opts config.Options, net *sim.Network, m *metrics.Registry, pod, rack, host int) *worker.Worker {
	t.Helper()
	w, err := worker.New(opts, net, m, pod, rack, host)
	if err != nil {
		t.Fatalf("worker.New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("worker.Start: %v", err)
	}
	return w
}

// startCoordinatorStub accepts worker registrations on the options'
// worker-facing address and always replies success, just enough surface
// for Worker.Start to complete registration in isolation from the
// coordinator package.
func startCoordinatorStub(t *testing.T, net *sim.Network, addr string) {
	t.Helper()
	ln, err := net.Listen(addr)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				if _, err := wire.ReadWorkerMsgType(conn); err != nil {
					return
				}
				if _, err := wire.ReadWorkerRegisterReqBody(conn); err != nil {
					return
				}
				wire.WriteWorkerRegisterRep(conn, wire.WorkerRegisterRepMsg{ResultCode: wire.ResultOK})
			}()
		}
	}()
}

func TestSinglePacketBlockThroughThreeWorkers(t *testing.T) {
	opts := config.Defaults()
	net := sim.NewNetwork()
	m := metrics.NewRegistry()
	startCoordinatorStub(t, net, opts.CoordinatorWorkerAddr)

	w0 := mustStart(t, opts, net, m, 0, 0, 0)
	w1 := mustStart(t, opts, net, m, 0, 0, 1)
	w2 := mustStart(t, opts, net, m, 0, 0, 2)
	pipeline := []uint32{w0.IP(), w1.IP(), w2.IP()}

	conn, err := net.Dial(worker.PipelineAddr(w0.IP(), opts.WorkerPipelinePort))
	if err != nil {
		t.Fatalf("dial head: %v", err)
	}
	defer conn.Close()

	const blockID = uint32(1)
	if err := wire.WritePipelineCreateReq(conn, wire.PipelineCreateReqMsg{BlockID: blockID, Pipeline: pipeline}); err != nil {
		t.Fatal(err)
	}
	typ, err := wire.ReadPipelineMsgType(conn)
	if err != nil || typ != wire.PipelineCreateRep {
		t.Fatalf("expected PIPELINE_CREATE_REP, got %v err=%v", typ, err)
	}
	rep, err := wire.ReadPipelineCreateRepBody(conn)
	if err != nil || rep.ResultCode != wire.ResultOK || rep.BlockID != blockID {
		t.Fatalf("bad pipeline create rep: %+v err=%v", rep, err)
	}

	const packetSize = 500
	hdr := wire.DataPacketHeaderMsg{BlockID: blockID, PacketID: 1, SegmentID: 1, LastSegment: true, LastPacket: true, PacketSize: packetSize}
	if err := wire.WriteDataPacketHeader(conn, hdr); err != nil {
		t.Fatal(err)
	}
	payload := bytes.Repeat([]byte{0xAB}, packetSize)
	if _, err := conn.Write(payload); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	typ, err = wire.ReadPipelineMsgType(conn)
	if err != nil || typ != wire.PacketAck {
		t.Fatalf("expected PACKET_ACK, got %v err=%v", typ, err)
	}
	ack, err := wire.ReadPacketAckBody(conn)
	if err != nil || ack.PacketID != 1 || !ack.LastPacket || ack.PacketSize != packetSize {
		t.Fatalf("bad ack: %+v err=%v", ack, err)
	}

	typ, err = wire.ReadPipelineMsgType(conn)
	if err != nil || typ != wire.PacketComplete {
		t.Fatalf("expected PACKET_COMPLETE, got %v err=%v", typ, err)
	}
	comp, err := wire.ReadPacketCompleteBody(conn)
	if err != nil || comp.PacketID != 1 || !comp.LastPacket {
		t.Fatalf("bad complete: %+v err=%v", comp, err)
	}
}

func TestPipelineLengthOneTailIsHead(t *testing.T) {
	opts := config.Defaults()
	net := sim.NewNetwork()
	m := metrics.NewRegistry()
	startCoordinatorStub(t, net, opts.CoordinatorWorkerAddr)

	w0 := mustStart(t, opts, net, m, 0, 0, 0)
	pipeline := []uint32{w0.IP()}

	conn, err := net.Dial(worker.PipelineAddr(w0.IP(), opts.WorkerPipelinePort))
	if err != nil {
		t.Fatalf("dial head: %v", err)
	}
	defer conn.Close()

	if err := wire.WritePipelineCreateReq(conn, wire.PipelineCreateReqMsg{BlockID: 7, Pipeline: pipeline}); err != nil {
		t.Fatal(err)
	}
	typ, err := wire.ReadPipelineMsgType(conn)
	if err != nil || typ != wire.PipelineCreateRep {
		t.Fatalf("expected PIPELINE_CREATE_REP, got %v err=%v", typ, err)
	}
	rep, err := wire.ReadPipelineCreateRepBody(conn)
	if err != nil || rep.BlockID != 7 {
		t.Fatalf("bad rep: %+v err=%v", rep, err)
	}
}
