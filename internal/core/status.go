package core

// Status is the connectivity reading delivered to the host.
// 0 = disconnected, 1 = connected.
type Status struct {
	Status uint32 `json:"status"`
}

// SignalStatus is the wireless signal reading delivered to the host.
// Strong is 1 while the hysteresis state machine considers the signal
// healthy, 0 while it is in the weak state. Quality is the 0–100 link
// quality reported by the wireless stack.
type SignalStatus struct {
	Strong  int32  `json:"strong"`
	Quality uint32 `json:"quality"`
	RSSI    int32  `json:"rssi"`
}

// QualitySample is one probe-cycle measurement delivered to the host.
// Latency fields are milliseconds. The TCP fields are in-cycle deltas
// against the previous cycle's cumulative counters, not lifetime totals.
type QualitySample struct {
	LatencyAvgMS             uint32  `json:"latency_avg_ms"`
	LatencyMinMS             uint32  `json:"latency_min_ms"`
	LatencyMaxMS             uint32  `json:"latency_max_ms"`
	JitterMS                 uint32  `json:"jitter_ms"`
	PacketLossPercent        float64 `json:"packet_loss_percent"`
	TCPRetransmissionPercent float64 `json:"tcp_retransmission_percent"`
	TCPSegmentsSent          int64   `json:"tcp_segments_sent"`
	TCPSegmentsRetransmitted int64   `json:"tcp_segments_retransmitted"`
}
