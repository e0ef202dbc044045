package core

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Signal quality threshold defaults, applied when the config supplies zero.
const (
	DefaultThresholdDrop    uint32 = 30
	DefaultThresholdRecover uint32 = 40

	// MinThresholdGap is the enforced distance between the drop and recover
	// thresholds. A recover value closer than this to drop would defeat the
	// hysteresis dead zone.
	MinThresholdGap uint32 = 5
)

// Quality probe defaults.
const (
	DefaultProbeTarget   = "8.8.8.8"
	DefaultProbeCount    = 4
	DefaultProbeTimeout  = 3 * time.Second
	DefaultProbeInterval = 10 * time.Second
	DefaultFallbackPort  = 443
)

// SignalConfig holds wireless signal hysteresis thresholds.
type SignalConfig struct {
	// ThresholdDrop: quality at or below this marks the signal weak.
	ThresholdDrop uint32 `yaml:"threshold_drop,omitempty"`
	// ThresholdRecover: quality at or above this clears the weak state.
	ThresholdRecover uint32 `yaml:"threshold_recover,omitempty"`
}

// ProbeConfig holds quality probe settings. Durations are strings parsed
// with time.ParseDuration; invalid or empty values fall back to defaults.
type ProbeConfig struct {
	Target   string `yaml:"target,omitempty"`
	Count    int    `yaml:"count,omitempty"`
	Timeout  string `yaml:"timeout,omitempty"`
	Interval string `yaml:"interval,omitempty"`
	// FallbackPort is the TCP port used for handshake-timing probes when
	// every echo probe in a cycle fails.
	FallbackPort int `yaml:"fallback_port,omitempty"`
}

// TimeoutDuration returns the per-attempt probe timeout.
func (pc ProbeConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(pc.Timeout); err == nil && d > 0 {
		return d
	}
	return DefaultProbeTimeout
}

// IntervalDuration returns the probe cycle period.
func (pc ProbeConfig) IntervalDuration() time.Duration {
	if d, err := time.ParseDuration(pc.Interval); err == nil && d > 0 {
		return d
	}
	return DefaultProbeInterval
}

// EffectiveTarget returns the probe target host.
func (pc ProbeConfig) EffectiveTarget() string {
	if pc.Target != "" {
		return pc.Target
	}
	return DefaultProbeTarget
}

// EffectiveCount returns the number of probes per cycle.
func (pc ProbeConfig) EffectiveCount() int {
	if pc.Count > 0 {
		return pc.Count
	}
	return DefaultProbeCount
}

// EffectiveFallbackPort returns the TCP handshake fallback port.
func (pc ProbeConfig) EffectiveFallbackPort() int {
	if pc.FallbackPort > 0 && pc.FallbackPort < 65536 {
		return pc.FallbackPort
	}
	return DefaultFallbackPort
}

// NotifyConfig controls desktop notifications for status transitions.
type NotifyConfig struct {
	Enabled          bool `yaml:"enabled,omitempty"`
	ConnectivityLoss bool `yaml:"connectivity_loss,omitempty"`
	WeakSignal       bool `yaml:"weak_signal,omitempty"`
}

// Config is the top-level monitor configuration.
type Config struct {
	Signal        SignalConfig `yaml:"signal,omitempty"`
	Probe         ProbeConfig  `yaml:"probe,omitempty"`
	Notifications NotifyConfig `yaml:"notifications,omitempty"`
	Logging       LogConfig    `yaml:"logging,omitempty"`
}

// NormalizeThresholds resolves the configured drop/recover pair into a valid
// hysteresis band: zeros become defaults, and recover is forced to sit at
// least MinThresholdGap above drop.
func NormalizeThresholds(drop, recover uint32) (uint32, uint32) {
	if drop == 0 {
		drop = DefaultThresholdDrop
	}
	if recover == 0 {
		recover = DefaultThresholdRecover
	}
	if recover < drop+MinThresholdGap {
		recover = drop + MinThresholdGap
	}
	return drop, recover
}

// ConfigManager handles loading and saving the monitor configuration file.
type ConfigManager struct {
	mu       sync.RWMutex
	config   Config
	filePath string
}

// NewConfigManager creates a config manager that reads from the given file.
func NewConfigManager(filePath string) *ConfigManager {
	return &ConfigManager{filePath: filePath}
}

// defaultConfig returns an empty but valid configuration.
func defaultConfig() Config {
	return Config{}
}

// Load reads and parses the configuration from disk.
// If the config file does not exist, it creates one with default values.
func (cm *ConfigManager) Load() error {
	data, err := os.ReadFile(cm.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			Log.Infof("Core", "Config %s not found, creating default config", cm.filePath)
			cm.mu.Lock()
			cm.config = defaultConfig()
			cm.mu.Unlock()
			if saveErr := cm.Save(); saveErr != nil {
				return fmt.Errorf("[Core] failed to create default config: %w", saveErr)
			}
			return nil
		}
		return fmt.Errorf("[Core] failed to read config %s: %w", cm.filePath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("[Core] failed to parse config: %w", err)
	}

	cm.mu.Lock()
	cm.config = cfg
	cm.mu.Unlock()

	return nil
}

// Save writes the current configuration to disk.
func (cm *ConfigManager) Save() error {
	cm.mu.RLock()
	data, err := yaml.Marshal(&cm.config)
	cm.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("[Core] failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.filePath, data, 0644); err != nil {
		return fmt.Errorf("[Core] failed to write config %s: %w", cm.filePath, err)
	}

	return nil
}

// Get returns a copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// Set replaces the configuration held in memory.
func (cm *ConfigManager) Set(cfg Config) {
	cm.mu.Lock()
	cm.config = cfg
	cm.mu.Unlock()
}
