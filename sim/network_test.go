package sim_test

import (
	"io"
	"testing"
	"time"

	"github.com/dcsim/hdfssim/sim"
)

func TestDialBeforeListenFails(t *testing.T) {
	n := sim.NewNetwork()
	if _, err := n.Dial("nowhere:1"); err == nil {
		t.Fatal("expected dial to an unlistened address to fail")
	}
}

func TestListenAcceptDialRoundTrip(t *testing.T) {
	n := sim.NewNetwork()
	l, err := n.Listen("coordinator:8000")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	serverDone := make(chan string, 1)
	go func() {
		c, err := l.Accept()
		if err != nil {
			serverDone <- "accept error: " + err.Error()
			return
		}
		buf := make([]byte, 5)
		if _, err := io.ReadFull(c, buf); err != nil {
			serverDone <- "read error: " + err.Error()
			return
		}
		serverDone <- string(buf)
	}()

	client, err := n.Dial("coordinator:8000")
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	if _, err := client.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-serverDone:
		if got != "hello" {
			t.Fatalf("got %q, want hello", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server read")
	}
}

func TestClockScheduleAndCancel(t *testing.T) {
	c := sim.NewClock()
	fired := make(chan struct{}, 1)
	c.Schedule(10*time.Millisecond, func() { fired <- struct{}{} })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scheduled fn never fired")
	}

	fired2 := make(chan struct{}, 1)
	cancel := c.Schedule(50*time.Millisecond, func() { fired2 <- struct{}{} })
	cancel()
	select {
	case <-fired2:
		t.Fatal("canceled fn fired anyway")
	case <-time.After(100 * time.Millisecond):
	}
}
