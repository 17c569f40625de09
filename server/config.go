// File: server/config.go
// Package server implements the Server facade: binds the listener,
// constructs one wsconn.Conn per accepted connection, and owns the
// shared buffer pool, metrics registry, and config store the
// connections draw on.
//
// Grounded on the teacher's server/types.go (Config/DefaultConfig)
// and server/options.go (functional options idiom).
package server

import "time"

// Config holds all server-side configuration parameters.
type Config struct {
	BindAddress             string
	Port                    uint16
	LenientConnectionHeader bool
	IOBufferSize            int
	ChannelCapacity         int
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	ShutdownTimeout         time.Duration
	NUMANode                int
	EnableDebug             bool
}

// Overlay projects the hot-reloadable subset of Config into the
// key/value shape control.ConfigStore carries. Server seeds its
// ConfigStore with this at startup so Server.UpdateConfig can retune
// these fields without a restart.
func (c *Config) Overlay() map[string]any {
	return map[string]any{
		"io_buffer_size":   c.IOBufferSize,
		"channel_capacity": c.ChannelCapacity,
		"read_timeout":     c.ReadTimeout,
		"write_timeout":    c.WriteTimeout,
		"numa_node":        c.NUMANode,
	}
}

// DefaultConfig returns sensible defaults, matching spec.md §6 and the
// teacher's server/types.go DefaultConfig.
func DefaultConfig() *Config {
	return &Config{
		BindAddress:             "0.0.0.0",
		Port:                    80,
		LenientConnectionHeader: true,
		IOBufferSize:            64 * 1024,
		ChannelCapacity:         64,
		ReadTimeout:             0,
		WriteTimeout:            0,
		ShutdownTimeout:         30 * time.Second,
		NUMANode:                -1,
		EnableDebug:             false,
	}
}
