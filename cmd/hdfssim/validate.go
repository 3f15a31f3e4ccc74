package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/dcsim/hdfssim/config"
)

var validateCommand = cli.Command{
	Name:      "validate",
	Usage:     "load a scenario file and report its worker/file counts without running it",
	ArgsUsage: "scenario.yaml",
	Action:    runValidate,
}

func runValidate(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("validate: missing scenario file argument")
	}
	sc, err := config.LoadScenario(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	fmt.Printf("workers: %d\n", len(sc.Workers))
	fmt.Printf("files:   %d\n", len(sc.Files))
	fmt.Printf("fatTreeK: %d, maxPipelineLen: %d, defaultBlockSize: %d\n",
		sc.Options.FatTreeK, sc.Options.MaxPipelineLen, sc.Options.DefaultBlockSize)
	return nil
}
