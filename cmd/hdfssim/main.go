// Command hdfssim drives one simulation run: it boots a coordinator, a
// set of storage workers, and a client from a scenario file, then waits
// for every scheduled file write to finish or be abandoned (§4.3).
/*
 * Copyright (c) 2018-2023.
 */
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/dcsim/hdfssim/cmn/nlog"
)

const (
	appName = "hdfssim"
	usage   = "simulate an HDFS-style replication pipeline over a fat-tree fabric"
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = usage
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "no-color", Usage: "disable colored actor log output"},
	}
	app.Commands = []cli.Command{
		runCommand,
		topoCommand,
		validateCommand,
	}
	app.Before = func(c *cli.Context) error {
		nlog.SetColor(!c.GlobalBool("no-color"))
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("hdfssim: %v", err))
		os.Exit(1)
	}
}
