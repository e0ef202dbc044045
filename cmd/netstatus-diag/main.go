// netstatus-diag runs the network status monitor in a console and prints
// every status update. Useful for checking what the monitor reports on a
// given machine without embedding it anywhere.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SkyLord2/perception-network-status/internal/core"
	"github.com/SkyLord2/perception-network-status/internal/monitor"
	"github.com/SkyLord2/perception-network-status/internal/platform"
	"github.com/SkyLord2/perception-network-status/internal/probe"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	duration := flag.Duration("duration", 0, "Stop after this long (0 = run until interrupted)")
	probeOnce := flag.Bool("probe-once", false, "Run a single quality probe cycle and exit")
	flag.Parse()

	cm := core.NewConfigManager(*configPath)
	if err := cm.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot load config: %v\n", err)
		os.Exit(1)
	}
	cfg := cm.Get()
	core.Log = core.NewLogger(cfg.Logging)

	plat := newPlatform()

	if *probeOnce {
		runProbeOnce(cfg, plat)
		return
	}

	sup := monitor.NewSupervisor(cfg, plat, core.Log)
	err := sup.Register(
		func(st core.Status) {
			fmt.Printf("connectivity: connected=%v\n", st.Status != 0)
		},
		func(st core.SignalStatus) {
			fmt.Printf("signal: strong=%d quality=%d\n", st.Strong, st.Quality)
		},
		func(sample core.QualitySample) {
			b, _ := json.Marshal(sample)
			fmt.Printf("quality: %s\n", b)
		},
		nil, // log lines stay on stderr via the default logger
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := sup.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	if *duration > 0 {
		select {
		case <-sig:
		case <-time.After(*duration):
		}
	} else {
		<-sig
	}

	fmt.Println("shutting down")
	sup.Shutdown()
}

// runProbeOnce executes a single quality probe cycle and prints the sample.
func runProbeOnce(cfg core.Config, plat *platform.Platform) {
	var stats platform.TCPStatsReader
	if plat.NewTCPStatsReader != nil {
		r, err := plat.NewTCPStatsReader()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: TCP statistics unavailable: %v\n", err)
		} else {
			stats = r
		}
	}

	p := probe.NewProber(cfg.Probe, stats, nil, core.Log)
	sample := p.ProbeOnce()
	b, _ := json.MarshalIndent(sample, "", "  ")
	fmt.Println(string(b))
}
