package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/dcsim/hdfssim/topo"
)

var topoCommand = cli.Command{
	Name:      "topo",
	Usage:     "print the fat-tree fixture's host names and addresses for a given K",
	ArgsUsage: "K",
	Action:    runTopo,
}

func runTopo(c *cli.Context) error {
	k := 4
	if c.NArg() > 0 {
		if _, err := fmt.Sscanf(c.Args().Get(0), "%d", &k); err != nil {
			return fmt.Errorf("invalid K: %w", err)
		}
	}
	ft, err := topo.New(k)
	if err != nil {
		return err
	}
	ips, err := ft.HostIPs(1)
	if err != nil {
		return err
	}
	for pod := 0; pod < ft.NumPods(); pod++ {
		for edge := 0; edge < ft.NumEdgePerPod(); edge++ {
			for host := 0; host < ft.NumHostsPerEdge(); host++ {
				idx := (pod*ft.NumEdgePerPod()+edge)*ft.NumHostsPerEdge() + host
				fmt.Printf("%s\t%d.%d.%d.%d\n", topo.HostName(pod, edge, host), ips[idx]>>24, (ips[idx]>>16)&0xFF, (ips[idx]>>8)&0xFF, ips[idx]&0xFF)
			}
		}
	}
	return nil
}
