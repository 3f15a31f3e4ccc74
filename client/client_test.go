package client_test

import (
	"testing"
	"time"

	"github.com/dcsim/hdfssim/client"
	"github.com/dcsim/hdfssim/config"
	"github.com/dcsim/hdfssim/coordinator"
	"github.com/dcsim/hdfssim/metrics"
	"github.com/dcsim/hdfssim/sim"
	"github.com/dcsim/hdfssim/worker"
)

func startCluster(t *testing.T, opts config.Options, numWorkers int) (*sim.Network, *metrics.Registry) {
	t.Helper()
	net := sim.NewNetwork()
	m := metrics.NewRegistry()

	co, err := coordinator.New(opts, net, m)
	if err != nil {
		t.Fatalf("coordinator.New: %v", err)
	}
	if err := co.Start(); err != nil {
		t.Fatalf("coordinator.Start: %v", err)
	}
	t.Cleanup(co.Stop)

	for i := 0; i < numWorkers; i++ {
		w, err := worker.New(opts, net, m, 0, 0, i)
		if err != nil {
			t.Fatalf("worker.New: %v", err)
		}
		if err := w.Start(); err != nil {
			t.Fatalf("worker.Start: %v", err)
		}
		t.Cleanup(w.Stop)
	}
	return net, m
}

func awaitResult(t *testing.T, results chan client.Result) client.Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for file result")
		return client.Result{}
	}
}

func TestSinglePacketBlockEndToEnd(t *testing.T) {
	opts := config.Defaults()
	opts.DefaultBlockSize = 500
	net, m := startCluster(t, opts, 3)

	clock := sim.NewClock()
	c := client.New(opts, net, clock, m)

	results := make(chan client.Result, 1)
	c.Schedule(config.ClientFileSpec{Name: "single.blk"}, func(r client.Result) { results <- r })

	r := awaitResult(t, results)
	if !r.Success {
		t.Fatalf("expected success, got %+v", r)
	}
	if r.FileID == 0 || r.BlockID == 0 {
		t.Fatalf("expected nonzero file/block ids, got %+v", r)
	}
}

func TestThreePacketBlockEndToEnd(t *testing.T) {
	opts := config.Defaults()
	opts.DefaultBlockSize = 2500
	opts.PacketSize = 1000
	net, m := startCluster(t, opts, 3)

	clock := sim.NewClock()
	c := client.New(opts, net, clock, m)

	results := make(chan client.Result, 1)
	c.Schedule(config.ClientFileSpec{Name: "three.blk"}, func(r client.Result) { results <- r })

	r := awaitResult(t, results)
	if !r.Success {
		t.Fatalf("expected success, got %+v", r)
	}
}

func TestPipelineLengthTwoEndToEnd(t *testing.T) {
	opts := config.Defaults()
	opts.MaxPipelineLen = 2
	opts.DefaultBlockSize = 1000
	net, m := startCluster(t, opts, 2)

	clock := sim.NewClock()
	c := client.New(opts, net, clock, m)

	results := make(chan client.Result, 1)
	c.Schedule(config.ClientFileSpec{Name: "two-hop.blk"}, func(r client.Result) { results <- r })

	r := awaitResult(t, results)
	if !r.Success {
		t.Fatalf("expected success, got %+v", r)
	}
}

func TestCapacityRefusalStopsLocally(t *testing.T) {
	opts := config.Defaults()
	opts.MaxBlocksPerClient = 2
	opts.DefaultBlockSize = 500
	net, m := startCluster(t, opts, 3)

	clock := sim.NewClock()
	c := client.New(opts, net, clock, m)

	results := make(chan client.Result, 3)
	for i := 0; i < 3; i++ {
		name := string(rune('a' + i))
		c.Schedule(config.ClientFileSpec{Name: name}, func(r client.Result) { results <- r })
	}

	var successes int
	for i := 0; i < 3; i++ {
		if awaitResult(t, results).Success {
			successes++
		}
	}
	if successes != 2 {
		t.Fatalf("expected exactly 2 successes at MaxBlocksPerClient=2, got %d", successes)
	}
}
