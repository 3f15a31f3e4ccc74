package main

import (
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"

	"github.com/dcsim/hdfssim/client"
	"github.com/dcsim/hdfssim/cmn/nlog"
	"github.com/dcsim/hdfssim/config"
	"github.com/dcsim/hdfssim/coordinator"
	"github.com/dcsim/hdfssim/metrics"
	"github.com/dcsim/hdfssim/sim"
	"github.com/dcsim/hdfssim/worker"
)

var runCommand = cli.Command{
	Name:      "run",
	Usage:     "boot a coordinator, its workers, and a client from a scenario file, then wait for completion",
	ArgsUsage: "scenario.yaml",
	Flags: []cli.Flag{
		cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "how long to wait for every scheduled file to finish"},
		cli.BoolFlag{Name: "json", Usage: "print the run summary as JSON instead of a table"},
	},
	Action: runRun,
}

func runRun(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("run: missing scenario file argument")
	}
	sc, err := config.LoadScenario(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	opts := sc.Options

	net := sim.NewNetwork()
	reg := metrics.NewRegistry()

	co, err := coordinator.New(opts, net, reg)
	if err != nil {
		return fmt.Errorf("run: coordinator: %w", err)
	}
	if err := co.Start(); err != nil {
		return fmt.Errorf("run: coordinator start: %w", err)
	}
	defer co.Stop()

	for i, ws := range sc.Workers {
		w, err := worker.New(opts, net, reg, ws.PodID, ws.RackID, ws.HostID)
		if err != nil {
			return fmt.Errorf("run: worker %d: %w", i, err)
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("run: worker %d start: %w", i, err)
		}
		defer w.Stop()
	}

	clock := sim.NewClock()
	defer clock.StopAll()
	cl := client.New(opts, net, clock, reg)

	progress := mpb.New(mpb.WithWidth(48))
	bar := progress.AddBar(int64(len(sc.Files)),
		mpb.PrependDecorators(decor.Name("files")),
		mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
	)

	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make([]client.Result, 0, len(sc.Files))

	for _, fs := range sc.Files {
		wg.Add(1)
		cl.Schedule(fs, func(r client.Result) {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			bar.Increment()
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	timeout := c.Duration("timeout")
	select {
	case <-done:
	case <-time.After(timeout):
		nlog.Warningf("cmd", "timed out after %s waiting for %d/%d files", timeout, len(results), len(sc.Files))
	}
	progress.Wait()

	if c.Bool("json") {
		j := jsoniter.ConfigCompatibleWithStandardLibrary
		b, err := j.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}

	var succeeded int
	for _, r := range results {
		status := "FAIL"
		if r.Success {
			status = "OK"
			succeeded++
		}
		fmt.Printf("%-20s file=%-6d block=%-6d %s elapsed=%s\n", r.Name, r.FileID, r.BlockID, status, r.Elapsed)
	}
	fmt.Printf("%d/%d files completed\n", succeeded, len(sc.Files))
	return nil
}
