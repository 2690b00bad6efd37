// SPDX-License-Identifier: MIT

// Package config carries the tunables of the playback controller and
// their environment-variable overrides.
package config

import (
	"fmt"
	"time"
)

// Defaults for all controller tunables.
const (
	DefaultProbeTimeout      = 5 * time.Second
	DefaultNetworkRetryLimit = 3
	DefaultControlsHideDelay = 3 * time.Second
	DefaultAudioCheckDelay   = 3 * time.Second
)

// Config holds the controller tunables.
type Config struct {
	// ProbeTimeout bounds a single classification probe.
	ProbeTimeout time.Duration

	// NetworkRetryLimit caps consecutive network-error recoveries per
	// segmented session.
	NetworkRetryLimit int

	// ControlsHideDelay is the pointer-idle window before playback
	// controls auto-hide.
	ControlsHideDelay time.Duration

	// AudioCheckDelay is the wait before the deferred audio
	// compatibility check.
	AudioCheckDelay time.Duration

	// LogLevel configures the global logger ("debug", "info", ...).
	LogLevel string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ProbeTimeout:      DefaultProbeTimeout,
		NetworkRetryLimit: DefaultNetworkRetryLimit,
		ControlsHideDelay: DefaultControlsHideDelay,
		AudioCheckDelay:   DefaultAudioCheckDelay,
		LogLevel:          "info",
	}
}

// FromEnv returns the default configuration with environment-variable
// overrides applied.
func FromEnv() Config {
	return Config{
		ProbeTimeout:      ParseDuration("PLAYCTL_PROBE_TIMEOUT", DefaultProbeTimeout),
		NetworkRetryLimit: ParseInt("PLAYCTL_NETWORK_RETRY_LIMIT", DefaultNetworkRetryLimit),
		ControlsHideDelay: ParseDuration("PLAYCTL_CONTROLS_HIDE_DELAY", DefaultControlsHideDelay),
		AudioCheckDelay:   ParseDuration("PLAYCTL_AUDIO_CHECK_DELAY", DefaultAudioCheckDelay),
		LogLevel:          ParseString("PLAYCTL_LOG_LEVEL", "info"),
	}
}

// Validate checks the configuration for plausibility.
func (c Config) Validate() error {
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %v", c.ProbeTimeout)
	}
	if c.NetworkRetryLimit < 0 {
		return fmt.Errorf("network retry limit must not be negative, got %d", c.NetworkRetryLimit)
	}
	if c.ControlsHideDelay <= 0 {
		return fmt.Errorf("controls hide delay must be positive, got %v", c.ControlsHideDelay)
	}
	if c.AudioCheckDelay <= 0 {
		return fmt.Errorf("audio check delay must be positive, got %v", c.AudioCheckDelay)
	}
	return nil
}
