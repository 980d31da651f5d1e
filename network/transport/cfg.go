// Package transport implements the single-session TCP transport: a
// listener that accepts one client at a time, performs the protocol
// handshake, and exchanges length-prefixed frames. Writes from concurrent
// workers are serialized by a spinlock so messages never interleave.
package transport

import "errors"

// TransportCfg holds all configuration parameters for the session transport.
type TransportCfg struct {
	Addr          string `mapstructure:"addr"`          // The network address (e.g., ":9000") for the server to listen on.
	IdleTimeout   uint32 `mapstructure:"idleTimeout"`   // Seconds a connection may be idle before reads/writes fail; 0 disables.
	MaxBufferSize int    `mapstructure:"maxBufferSize"` // The size of the read/write buffers for the underlying TCP connection.
}

// GetName returns the configuration key for TransportCfg.
func (c *TransportCfg) GetName() string {
	return "transport"
}

// Validate checks if the TransportCfg parameters are valid.
func (c *TransportCfg) Validate() error {
	if c.Addr == "" {
		return errors.New("Addr cannot be empty")
	}
	if c.MaxBufferSize < 0 {
		return errors.New("MaxBufferSize cannot be negative")
	}
	return nil
}
