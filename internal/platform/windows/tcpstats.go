//go:build windows

package windows

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/SkyLord2/perception-network-status/internal/platform"
)

var procGetTcpStatisticsEx = modIPHlpAPI.NewProc("GetTcpStatisticsEx")

// MIB_TCPSTATS: fifteen DWORDs, no padding.
type mibTCPStats struct {
	RtoAlgorithm uint32
	RtoMin       uint32
	RtoMax       uint32
	MaxConn      uint32
	ActiveOpens  uint32
	PassiveOpens uint32
	AttemptFails uint32
	EstabResets  uint32
	CurrEstab    uint32
	InSegs       uint32
	OutSegs      uint32
	RetransSegs  uint32
	InErrs       uint32
	OutRsts      uint32
	NumConns     uint32
}

// tcpStatsReader samples the system-wide IPv4 TCP counters.
type tcpStatsReader struct{}

// NewTCPStatsReader returns a reader backed by GetTcpStatisticsEx.
func NewTCPStatsReader() (platform.TCPStatsReader, error) {
	r := &tcpStatsReader{}
	// Probe once so a broken iphlpapi surfaces at startup, not mid-cycle.
	if _, err := r.Read(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *tcpStatsReader) Read() (platform.TCPCounters, error) {
	var stats mibTCPStats
	ret, _, _ := procGetTcpStatisticsEx.Call(
		uintptr(unsafe.Pointer(&stats)),
		uintptr(windows.AF_INET),
	)
	if ret != 0 {
		return platform.TCPCounters{}, fmt.Errorf("GetTcpStatisticsEx failed: %w", windows.Errno(ret))
	}
	return platform.TCPCounters{
		SegmentsSent:          int64(stats.OutSegs),
		SegmentsRetransmitted: int64(stats.RetransSegs),
	}, nil
}
