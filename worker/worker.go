// Package worker implements the storage worker actor of §4.4: it
// registers with the coordinator, then for every block whose pipeline
// names it, splices data forward and acknowledgments/completions
// backward until the block reaches TransferCompleted.
/*
 * Copyright (c) 2018-2023.
 */
package worker

import (
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/dcsim/hdfssim/cmn/nlog"
	"github.com/dcsim/hdfssim/config"
	"github.com/dcsim/hdfssim/metrics"
	"github.com/dcsim/hdfssim/sim"
	"github.com/dcsim/hdfssim/topo"
	"github.com/dcsim/hdfssim/wire"
)

const component = "worker"

// Worker owns its own listener and, per block, a blockRun (§3
// WorkerBlockState). It never touches another worker's or the
// coordinator's state directly; everything crosses the wire.
type Worker struct {
	opts    config.Options
	net     *sim.Network
	metrics *metrics.Registry

	podID, rackID, hostID uint32
	ip                     uint32

	sem *semaphore.Weighted
	ln  *sim.Listener
}

// New builds a worker whose placement identity is {podID, rackID, hostID}
// (§3 PlacementId) and whose IP is derived from the fat-tree host/edge
// addressing (§4.5), so the value the coordinator hands out in pipelines
// is the same scheme the topology fixture uses elsewhere.
func New(opts config.Options, net *sim.Network, m *metrics.Registry, podID, rackID, hostID int) (*Worker, error) {
	ip, err := topo.Encode(1, topo.Endpoint{Role: topo.HostToEdge, PodID: podID, Near: rackID, Far: hostID})
	if err != nil {
		return nil, fmt.Errorf("worker: deriving address: %w", err)
	}
	return &Worker{
		opts:    opts,
		net:     net,
		metrics: m,
		podID:   uint32(podID),
		rackID:  uint32(rackID),
		hostID:  uint32(hostID),
		ip:      ip,
		sem:     semaphore.NewWeighted(int64(opts.MaxBlocksPerWorker)),
	}, nil
}

func (w *Worker) IP() uint32 { return w.ip }

// Start registers with the coordinator and begins accepting pipeline
// connections at this worker's derived address.
func (w *Worker) Start() error {
	conn, err := w.net.Dial(w.opts.CoordinatorWorkerAddr)
	if err != nil {
		return fmt.Errorf("worker: dial coordinator: %w", err)
	}
	defer conn.Close()

	if err := wire.WriteWorkerRegisterReq(conn, wire.WorkerRegisterReqMsg{
		PodID: w.podID, RackID: w.rackID, HostID: w.hostID, IP: w.ip,
	}); err != nil {
		return err
	}
	typ, err := wire.ReadWorkerMsgType(conn)
	if err != nil {
		return err
	}
	if typ != wire.WorkerRegisterRep {
		return fmt.Errorf("worker: unexpected reply type %d from coordinator", typ)
	}
	rep, err := wire.ReadWorkerRegisterRepBody(conn)
	if err != nil {
		return err
	}
	if rep.ResultCode != wire.ResultOK {
		return fmt.Errorf("worker: registration rejected (capacity)")
	}
	nlog.Infof(component, "registered: pod=%d rack=%d host=%d ip=%d", w.podID, w.rackID, w.hostID, w.ip)

	w.ln, err = w.net.Listen(pipelineAddr(w.ip, w.opts.WorkerPipelinePort))
	if err != nil {
		return err
	}
	go w.acceptLoop()
	return nil
}

func (w *Worker) Stop() {
	if w.ln != nil {
		w.ln.Close()
	}
}

func (w *Worker) acceptLoop() {
	for {
		conn, err := w.ln.Accept()
		if err != nil {
			return
		}
		go w.handleConn(conn)
	}
}

func (w *Worker) handleConn(conn sim.Conn) {
	typ, err := wire.ReadPipelineMsgType(conn)
	if err != nil {
		conn.Close()
		return
	}
	if typ != wire.PipelineCreateReq {
		w.metrics.Inc(component, metrics.UnknownMessageType)
		nlog.Errorf(component, "unexpected first message type %d on pipeline connection", typ)
		conn.Close()
		return
	}
	req, err := wire.ReadPipelineCreateReqBody(conn)
	if err != nil {
		conn.Close()
		return
	}
	w.serveBlock(conn, req)
}
