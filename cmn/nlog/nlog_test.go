package nlog_test

import (
	"strings"
	"testing"

	"github.com/dcsim/hdfssim/cmn/nlog"
)

func TestLogLevelsAndComponent(t *testing.T) {
	nlog.Reset()
	nlog.SetColor(false)
	nlog.Infof("coordinator", "worker %d registered", 3)
	nlog.Warningf("worker", "pipeline %d dropped", 7)
	nlog.Errorf("client", "connect to %s failed", "10.0.0.1:9002")

	tail := nlog.Tail()
	for _, want := range []string{
		"[coordinator] worker 3 registered",
		"[worker] pipeline 7 dropped",
		"[client] connect to 10.0.0.1:9002 failed",
	} {
		if !strings.Contains(tail, want) {
			t.Fatalf("log tail missing %q, got:\n%s", want, tail)
		}
	}
}
