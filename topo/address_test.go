package topo_test

import (
	"testing"

	"github.com/dcsim/hdfssim/topo"
)

func TestEndpointRoundTrip(t *testing.T) {
	cases := []topo.Endpoint{
		{Role: topo.HostToEdge, PodID: 3, Near: 1, Far: 0},
		{Role: topo.EdgeToHost, PodID: 3, Near: 1, Far: 0},
		{Role: topo.EdgeToAggr, PodID: 2, Near: 0, Far: 1},
		{Role: topo.AggrToEdge, PodID: 2, Near: 0, Far: 1},
		{Role: topo.AggrToCore, PodID: 1, Near: 1, Far: 3},
		{Role: topo.CoreToAggr, PodID: 1, Near: 3, Far: 1},
	}
	for _, want := range cases {
		ip, err := topo.Encode(10, want)
		if err != nil {
			t.Fatalf("encode %+v: %v", want, err)
		}
		got := topo.Decode(ip)
		if got != want {
			t.Fatalf("round trip mismatch: encoded %+v as %08x, decoded %+v", want, ip, got)
		}
		if topo.Base(ip) != 10 {
			t.Fatalf("base byte lost: got %d", topo.Base(ip))
		}
	}
}

func TestFatTreeK4Shape(t *testing.T) {
	ft, err := topo.New(4)
	if err != nil {
		t.Fatal(err)
	}
	if ft.NumPods() != 4 || ft.NumEdgePerPod() != 2 || ft.NumAggrPerPod() != 2 {
		t.Fatalf("unexpected shape: pods=%d edge=%d aggr=%d", ft.NumPods(), ft.NumEdgePerPod(), ft.NumAggrPerPod())
	}
	if ft.NumCoreSwitches() != 4 {
		t.Fatalf("core switches = %d, want 4", ft.NumCoreSwitches())
	}
	if ft.NumHosts() != 16 {
		t.Fatalf("hosts = %d, want 16", ft.NumHosts())
	}
}

func TestFatTreeEndpointsRoundTrip(t *testing.T) {
	ft, err := topo.New(4)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range ft.Endpoints() {
		ip, err := topo.Encode(10, want)
		if err != nil {
			t.Fatalf("encode %+v: %v", want, err)
		}
		if got := topo.Decode(ip); got != want {
			t.Fatalf("round trip mismatch for %+v: got %+v", want, got)
		}
	}
}

func TestHostIPsDeterministicOrderAndUnique(t *testing.T) {
	ft, err := topo.New(4)
	if err != nil {
		t.Fatal(err)
	}
	ips, err := ft.HostIPs(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ips) != ft.NumHosts() {
		t.Fatalf("got %d host IPs, want %d", len(ips), ft.NumHosts())
	}
	seen := make(map[uint32]bool, len(ips))
	for _, ip := range ips {
		if seen[ip] {
			t.Fatalf("duplicate host IP %08x", ip)
		}
		seen[ip] = true
	}

	ips2, err := ft.HostIPs(10)
	if err != nil {
		t.Fatal(err)
	}
	for i := range ips {
		if ips[i] != ips2[i] {
			t.Fatalf("HostIPs not deterministic at index %d: %08x != %08x", i, ips[i], ips2[i])
		}
	}
}

func TestNewRejectsOddK(t *testing.T) {
	if _, err := topo.New(5); err == nil {
		t.Fatal("expected error for odd K")
	}
	if _, err := topo.New(0); err == nil {
		t.Fatal("expected error for K=0")
	}
}
