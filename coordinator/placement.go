package coordinator

// choosePlacement is the coordinator's placement policy (§4.2),
// encapsulated behind its own operation so a rack-aware policy can
// replace it later without touching BlockAdd's surrounding bookkeeping.
// It ignores PlacementId entirely: it takes the first maxLen registered
// workers' IPs, in registration order.
func choosePlacement(workers []WorkerRecord, maxLen int) []uint32 {
	n := len(workers)
	if n > maxLen {
		n = maxLen
	}
	pipeline := make([]uint32, n)
	for i := 0; i < n; i++ {
		pipeline[i] = workers[i].IP
	}
	return pipeline
}
