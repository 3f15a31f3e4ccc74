// Package client implements the write-engine actor of §4.3: for each
// scheduled (fileName, scheduledTime) entry it drives file creation,
// block placement, pipeline construction, and packet streaming through
// to BLOCK_COMPLETE, or abandons the attempt at its configured stop time.
/*
 * Copyright (c) 2018-2023.
 */
package client

import (
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dcsim/hdfssim/cmn/cos"
	"github.com/dcsim/hdfssim/cmn/nlog"
	"github.com/dcsim/hdfssim/config"
	"github.com/dcsim/hdfssim/metrics"
	"github.com/dcsim/hdfssim/sim"
)

const component = "client"

// Result is the supplemented outcome record a caller observes for one
// scheduled file, standing in for the §1 "no user-visible error channel"
// rule at the harness boundary: the protocol itself never reports
// failure upward, but something driving the simulation needs to know
// when to stop waiting.
type Result struct {
	Name    string
	FileID  uint32
	BlockID uint32
	Success bool
	Elapsed time.Duration
}

// Client is the write-engine actor. Its two capacity tables (§3) are
// lifetime counters, not pools: a slot is never released once taken
// (file/block records are "retained for postcondition inspection; not
// reused").
type Client struct {
	opts    config.Options
	net     *sim.Network
	clock   *sim.Clock
	metrics *metrics.Registry

	filesSem  *semaphore.Weighted
	blocksSem *semaphore.Weighted
}

func New(opts config.Options, net *sim.Network, clock *sim.Clock, m *metrics.Registry) *Client {
	return &Client{
		opts:      opts,
		net:       net,
		clock:     clock,
		metrics:   m,
		filesSem:  semaphore.NewWeighted(int64(opts.MaxFilesPerClient)),
		blocksSem: semaphore.NewWeighted(int64(opts.MaxBlocksPerClient)),
	}
}

// Schedule arranges for spec to run at its ScheduledAt virtual time and,
// if StopAfter is set, for the attempt to be abandoned that long after it
// starts (§4.3 "Cancellation"). onDone, if non-nil, is called exactly
// once when the attempt finishes, succeeds, or is abandoned.
func (c *Client) Schedule(spec config.ClientFileSpec, onDone func(Result)) {
	c.clock.Schedule(spec.ScheduledAt, func() {
		c.runFile(spec, onDone)
	})
}

func (c *Client) runFile(spec config.ClientFileSpec, onDone func(Result)) {
	if !c.filesSem.TryAcquire(1) {
		c.metrics.Inc(component, metrics.CapacityExceeded)
		nlog.Errorf(component, "%v", cos.Wrap(cos.NewErrCapacityExceeded("client file table", c.opts.MaxFilesPerClient), "Client.runFile"))
		if onDone != nil {
			onDone(Result{Name: spec.Name})
		}
		return
	}

	fr := &fileRun{client: c, spec: spec, start: c.clock.Now()}
	if spec.StopAfter > 0 {
		fr.cancelTimer = c.clock.Schedule(spec.StopAfter, fr.cancel)
	}
	go fr.run(onDone)
}
