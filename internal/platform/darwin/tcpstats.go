//go:build darwin

package darwin

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/SkyLord2/perception-network-status/internal/platform"
)

// tcpStatsReader samples the system-wide TCP counters via netstat.
type tcpStatsReader struct{}

// NewTCPStatsReader returns a reader backed by `netstat -s -p tcp`.
func NewTCPStatsReader() (platform.TCPStatsReader, error) {
	r := &tcpStatsReader{}
	// Probe once so a missing netstat surfaces at startup, not mid-cycle.
	if _, err := r.Read(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *tcpStatsReader) Read() (platform.TCPCounters, error) {
	out, err := exec.Command("netstat", "-s", "-p", "tcp").Output()
	if err != nil {
		return platform.TCPCounters{}, fmt.Errorf("netstat failed: %w", err)
	}
	return parseNetstatTCP(out)
}

// parseNetstatTCP extracts the sent and retransmitted packet counters from
// netstat's tcp section. Expected lines:
//
//	123456 packets sent
//	    789 data packets (456 bytes) retransmitted
func parseNetstatTCP(out []byte) (platform.TCPCounters, error) {
	var c platform.TCPCounters
	var haveSent, haveRetrans bool

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		n, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			continue
		}
		switch {
		case !haveSent && fields[1] == "packets" && fields[2] == "sent":
			c.SegmentsSent = n
			haveSent = true
		case !haveRetrans && fields[1] == "data" && fields[2] == "packets" &&
			strings.HasSuffix(line, "retransmitted"):
			c.SegmentsRetransmitted = n
			haveRetrans = true
		}
	}
	if !haveSent {
		return platform.TCPCounters{}, fmt.Errorf("netstat output missing tcp counters")
	}
	return c, nil
}
