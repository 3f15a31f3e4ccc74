package e2e_test

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/dcsim/hdfssim/client"
	"github.com/dcsim/hdfssim/config"
	"github.com/dcsim/hdfssim/coordinator"
	"github.com/dcsim/hdfssim/metrics"
	"github.com/dcsim/hdfssim/sim"
	"github.com/dcsim/hdfssim/topo"
	"github.com/dcsim/hdfssim/worker"
)

type cluster struct {
	net   *sim.Network
	reg   *metrics.Registry
	co    *coordinator.Coordinator
	clock *sim.Clock
	cl    *client.Client
}

func bootCluster(opts config.Options, numWorkers int) *cluster {
	net := sim.NewNetwork()
	reg := metrics.NewRegistry()

	co, err := coordinator.New(opts, net, reg)
	Expect(err).NotTo(HaveOccurred())
	Expect(co.Start()).To(Succeed())

	for i := 0; i < numWorkers; i++ {
		w, err := worker.New(opts, net, reg, 0, 0, i)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Start()).To(Succeed())
	}

	clock := sim.NewClock()
	return &cluster{net: net, reg: reg, co: co, clock: clock, cl: client.New(opts, net, clock, reg)}
}

func (cl *cluster) writeAndAwait(spec config.ClientFileSpec) client.Result {
	results := make(chan client.Result, 1)
	cl.cl.Schedule(spec, func(r client.Result) { results <- r })
	select {
	case r := <-results:
		return r
	case <-time.After(3 * time.Second):
		Fail("timed out waiting for file to complete")
		return client.Result{}
	}
}

var _ = Describe("single-packet block", func() {
	It("flows FILE_CREATE, BLOCK_ADD, one PIPELINE_CREATE through three workers, one ack/complete, then BLOCK_COMPLETE", func() {
		opts := config.Defaults()
		opts.DefaultBlockSize = 500
		opts.PacketSize = 1000
		c := bootCluster(opts, 3)

		r := c.writeAndAwait(config.ClientFileSpec{Name: "single.blk"})
		Expect(r.Success).To(BeTrue())
		Expect(r.FileID).NotTo(BeZero())
		Expect(r.BlockID).NotTo(BeZero())
	})
})

var _ = Describe("three-packet block", func() {
	It("segments 2500 bytes at packetSize 1000 into packets (1,1000), (2,1000), (3,500)", func() {
		opts := config.Defaults()
		opts.DefaultBlockSize = 2500
		opts.PacketSize = 1000
		c := bootCluster(opts, 3)

		r := c.writeAndAwait(config.ClientFileSpec{Name: "three.blk"})
		Expect(r.Success).To(BeTrue())
	})
})

var _ = Describe("pipeline length 2", func() {
	It("lets the tail worker reply PIPELINE_CREATE_REP directly with no further forward dial", func() {
		opts := config.Defaults()
		opts.MaxPipelineLen = 2
		opts.DefaultBlockSize = 1000
		c := bootCluster(opts, 2)

		r := c.writeAndAwait(config.ClientFileSpec{Name: "two-hop.blk"})
		Expect(r.Success).To(BeTrue())
	})
})

var _ = Describe("exactly divisible block", func() {
	It("yields 3 packets of 1000 bytes each with lastPacket only on packet 3", func() {
		opts := config.Defaults()
		opts.DefaultBlockSize = 3000
		opts.PacketSize = 1000
		c := bootCluster(opts, 3)

		r := c.writeAndAwait(config.ClientFileSpec{Name: "divisible.blk"})
		Expect(r.Success).To(BeTrue())
	})
})

var _ = Describe("fat-tree K=4 addressing round trip", func() {
	It("recovers every endpoint descriptor after encoding to the bit-packed form and back", func() {
		ft, err := topo.New(4)
		Expect(err).NotTo(HaveOccurred())

		for _, ep := range ft.Endpoints() {
			ip, err := topo.Encode(1, ep)
			Expect(err).NotTo(HaveOccurred())
			Expect(topo.Decode(ip)).To(Equal(ep))
		}
	})
})

var _ = Describe("capacity refusal", func() {
	It("rejects the file that would exceed MAX_BLOCKS_PER_CLIENT locally, without ever sending BLOCK_ADD_REQ", func() {
		opts := config.Defaults()
		opts.MaxBlocksPerClient = 1
		opts.DefaultBlockSize = 500
		c := bootCluster(opts, 3)

		first := c.writeAndAwait(config.ClientFileSpec{Name: "a.blk"})
		Expect(first.Success).To(BeTrue())

		second := c.writeAndAwait(config.ClientFileSpec{Name: "b.blk"})
		Expect(second.Success).To(BeFalse())
		Expect(second.BlockID).To(BeZero())
	})
})
