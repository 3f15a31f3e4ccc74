package worker

import "fmt"

// PipelineAddr is the sim.Network address a worker listens on for
// pipeline connections (§4.4). Workers are addressed by the IP the
// coordinator hands out in pipelines plus the cluster-wide pipeline port
// (config.Options.WorkerPipelinePort), not by pod/rack/host, so clients
// and successor workers both derive the dial address the same way.
func PipelineAddr(ip uint32, port int) string { return fmt.Sprintf("worker:%d:%d", ip, port) }

func pipelineAddr(ip uint32, port int) string { return PipelineAddr(ip, port) }
