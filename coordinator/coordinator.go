// Package coordinator implements the coordinator actor of §4.2: the
// single point of truth for worker registration and file/block mapping.
/*
 * Copyright (c) 2018-2023.
 */
package coordinator

import (
	"golang.org/x/sync/semaphore"

	"github.com/dcsim/hdfssim/cmn/debug"
	"github.com/dcsim/hdfssim/cmn/nlog"
	"github.com/dcsim/hdfssim/config"
	"github.com/dcsim/hdfssim/metrics"
	"github.com/dcsim/hdfssim/sim"
	"github.com/dcsim/hdfssim/wire"
)

const component = "coordinator"

type registerWorkerCmd struct {
	req   wire.WorkerRegisterReqMsg
	reply chan wire.WorkerRegisterRepMsg
}

type fileCreateCmd struct {
	req   wire.FileCreateReqMsg
	reply chan wire.FileCreateRepMsg
}

type blockAddCmd struct {
	req   wire.BlockAddReqMsg
	reply chan wire.BlockAddRepMsg
}

type blockCompleteCmd struct {
	req wire.BlockCompleteMsg
}

// Coordinator is the single actor owning every WorkerRecord, FileRecord,
// and BlockRecord (§4.2). All state mutation happens inside run(), its
// single goroutine mailbox loop, the single-writer discipline §5 asks
// for when actors are mapped onto real OS threads.
type Coordinator struct {
	opts    config.Options
	net     *sim.Network
	reg     *registry
	metrics *metrics.Registry
	sem     *semaphore.Weighted // worker-registry capacity

	nextFileID  uint32
	nextBlockID uint32

	cmds chan any
	done chan struct{}

	workerLn *sim.Listener
	clientLn *sim.Listener
}

func New(opts config.Options, net *sim.Network, m *metrics.Registry) (*Coordinator, error) {
	reg, err := newRegistry()
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		opts:        opts,
		net:         net,
		reg:         reg,
		metrics:     m,
		sem:         semaphore.NewWeighted(int64(opts.MaxWorkerRegistry)),
		nextFileID:  1,
		nextBlockID: 1,
		cmds:        make(chan any, 64),
		done:        make(chan struct{}),
	}, nil
}

// Start opens the two listening endpoints of §4.2 and begins serving.
func (c *Coordinator) Start() error {
	var err error
	if c.workerLn, err = c.net.Listen(c.opts.CoordinatorWorkerAddr); err != nil {
		return err
	}
	if c.clientLn, err = c.net.Listen(c.opts.CoordinatorClientAddr); err != nil {
		return err
	}
	go c.run()
	go c.acceptLoop(c.workerLn, c.handleWorkerConn)
	go c.acceptLoop(c.clientLn, c.handleClientConn)
	return nil
}

func (c *Coordinator) Stop() {
	close(c.done)
	c.workerLn.Close()
	c.clientLn.Close()
	c.reg.Close()
}

func (c *Coordinator) acceptLoop(l *sim.Listener, handle func(sim.Conn)) {
	for {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		go handle(conn)
	}
}

// run is the mailbox loop: every mutation of coordinator state funnels
// through here, one command at a time.
func (c *Coordinator) run() {
	for {
		select {
		case <-c.done:
			return
		case raw := <-c.cmds:
			switch cmd := raw.(type) {
			case registerWorkerCmd:
				cmd.reply <- c.onRegisterWorker(cmd.req)
			case fileCreateCmd:
				cmd.reply <- c.onFileCreate(cmd.req)
			case blockAddCmd:
				cmd.reply <- c.onBlockAdd(cmd.req)
			case blockCompleteCmd:
				c.onBlockComplete(cmd.req)
			}
		}
	}
}

func (c *Coordinator) handleWorkerConn(conn sim.Conn) {
	defer conn.Close()
	typ, err := wire.ReadWorkerMsgType(conn)
	if err != nil {
		return
	}
	if typ != wire.WorkerRegisterReq {
		c.metrics.Inc(component, metrics.UnknownMessageType)
		nlog.Errorf(component, "unknown worker message type %d", typ)
		return
	}
	req, err := wire.ReadWorkerRegisterReqBody(conn)
	if err != nil {
		return
	}
	reply := make(chan wire.WorkerRegisterRepMsg, 1)
	c.cmds <- registerWorkerCmd{req: req, reply: reply}
	rep := <-reply
	wire.WriteWorkerRegisterRep(conn, rep)
}

func (c *Coordinator) handleClientConn(conn sim.Conn) {
	defer conn.Close()
	for {
		typ, err := wire.ReadClientMsgType(conn)
		if err != nil {
			return
		}
		switch typ {
		case wire.FileCreateReq:
			req, err := wire.ReadFileCreateReqBody(conn)
			if err != nil {
				return
			}
			reply := make(chan wire.FileCreateRepMsg, 1)
			c.cmds <- fileCreateCmd{req: req, reply: reply}
			rep := <-reply
			if wire.WriteFileCreateRep(conn, rep) != nil {
				return
			}
		case wire.BlockAddReq:
			req, err := wire.ReadBlockAddReqBody(conn)
			if err != nil {
				return
			}
			reply := make(chan wire.BlockAddRepMsg, 1)
			c.cmds <- blockAddCmd{req: req, reply: reply}
			rep := <-reply
			if wire.WriteBlockAddRep(conn, rep) != nil {
				return
			}
		case wire.BlockCompleteT:
			req, err := wire.ReadBlockCompleteBody(conn)
			if err != nil {
				return
			}
			c.cmds <- blockCompleteCmd{req: req}
		default:
			c.metrics.Inc(component, metrics.UnknownMessageType)
			nlog.Errorf(component, "unknown client message type %d", typ)
			return
		}
	}
}

func (c *Coordinator) onRegisterWorker(req wire.WorkerRegisterReqMsg) wire.WorkerRegisterRepMsg {
	if !c.sem.TryAcquire(1) {
		c.metrics.Inc(component, metrics.CapacityExceeded)
		c.metrics.IncWorkerRegisterRejected()
		nlog.Errorf(component, "worker registry at capacity (%d), rejecting pod=%d rack=%d host=%d",
			c.opts.MaxWorkerRegistry, req.PodID, req.RackID, req.HostID)
		return wire.WorkerRegisterRepMsg{ResultCode: wire.ResultNo}
	}
	workers, err := c.reg.Workers()
	if err != nil {
		nlog.Errorf(component, "registry read failed: %v", err)
		return wire.WorkerRegisterRepMsg{ResultCode: wire.ResultNo}
	}
	rec := WorkerRecord{
		Placement: PlacementId{PodID: req.PodID, RackID: req.RackID, HostID: req.HostID},
		IP:        req.IP,
	}
	if err := c.reg.PutWorker(len(workers), rec); err != nil {
		nlog.Errorf(component, "registry write failed: %v", err)
		return wire.WorkerRegisterRepMsg{ResultCode: wire.ResultNo}
	}
	nlog.Infof(component, "worker registered: pod=%d rack=%d host=%d ip=%d", req.PodID, req.RackID, req.HostID, req.IP)
	return wire.WorkerRegisterRepMsg{ResultCode: wire.ResultOK}
}

func (c *Coordinator) onFileCreate(req wire.FileCreateReqMsg) wire.FileCreateRepMsg {
	fileID := c.nextFileID
	c.nextFileID++
	if err := c.reg.PutFile(FileRecord{FileID: fileID, Name: req.Name}); err != nil {
		nlog.Errorf(component, "registry write failed: %v", err)
		return wire.FileCreateRepMsg{ResultCode: wire.ResultNo}
	}
	nlog.Infof(component, "file created: id=%d name=%s", fileID, req.Name)
	return wire.FileCreateRepMsg{ResultCode: wire.ResultOK, FileID: fileID, Name: req.Name}
}

func (c *Coordinator) onBlockAdd(req wire.BlockAddReqMsg) wire.BlockAddRepMsg {
	file, ok, err := c.reg.GetFile(req.FileID)
	if err != nil || !ok {
		nlog.Errorf(component, "block add for unknown file %d", req.FileID)
		return wire.BlockAddRepMsg{ResultCode: wire.ResultNo, FileID: req.FileID}
	}

	workers, err := c.reg.Workers()
	if err != nil {
		nlog.Errorf(component, "registry read failed: %v", err)
		return wire.BlockAddRepMsg{ResultCode: wire.ResultNo, FileID: req.FileID}
	}
	pipeline := choosePlacement(workers, c.opts.MaxPipelineLen)
	debug.Assert(len(pipeline) <= c.opts.MaxPipelineLen, "placement exceeds configured pipeline length")

	blockID := c.nextBlockID
	c.nextBlockID++
	debug.Assert(blockID != 0, "block id must never be zero, it doubles as the not-found sentinel")
	blockSize := uint32(c.opts.DefaultBlockSize)

	if err := c.reg.PutBlock(BlockRecord{BlockID: blockID, FileID: req.FileID, Size: blockSize, Pipeline: pipeline}); err != nil {
		nlog.Errorf(component, "registry write failed: %v", err)
		return wire.BlockAddRepMsg{ResultCode: wire.ResultNo, FileID: req.FileID}
	}
	file.Blocks = append(file.Blocks, blockID)
	if err := c.reg.PutFile(file); err != nil {
		nlog.Errorf(component, "registry write failed: %v", err)
	}

	nlog.Infof(component, "block added: id=%d file=%d size=%d pipeline=%v", blockID, req.FileID, blockSize, pipeline)
	return wire.BlockAddRepMsg{
		ResultCode: wire.ResultOK,
		FileID:     req.FileID,
		BlockID:    blockID,
		BlockSize:  blockSize,
		Pipeline:   pipeline,
	}
}

func (c *Coordinator) onBlockComplete(req wire.BlockCompleteMsg) {
	nlog.Infof(component, "block complete: id=%d result=%d", req.BlockID, req.ResultCode)
}

// Workers is the supplemented read-only listing from SPEC_FULL.md,
// mirroring the original name node's registered-datanode listing.
func (c *Coordinator) Workers() ([]PlacementId, error) {
	workers, err := c.reg.Workers()
	if err != nil {
		return nil, err
	}
	out := make([]PlacementId, len(workers))
	for i, w := range workers {
		out[i] = w.Placement
	}
	return out, nil
}

// FileBlocks is the supplemented read-only accessor from SPEC_FULL.md.
func (c *Coordinator) FileBlocks(fileID uint32) ([]uint32, error) {
	return c.reg.FileBlocks(fileID)
}

// Block looks up a block's record, including its placement; a read-only
// accessor, not a wire operation.
func (c *Coordinator) Block(blockID uint32) (BlockRecord, bool, error) {
	return c.reg.GetBlock(blockID)
}
