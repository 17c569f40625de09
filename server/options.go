// File: server/options.go
// Functional options for the Server facade, grounded on the teacher's
// server/options.go ServerOption idiom.
package server

// Option customizes server initialization.
type Option func(*Server)

// WithNUMANode overrides Config.NUMANode after construction.
func WithNUMANode(node int) Option {
	return func(s *Server) {
		s.cfg.NUMANode = node
	}
}

// WithIOBufferSize overrides Config.IOBufferSize after construction.
func WithIOBufferSize(size int) Option {
	return func(s *Server) {
		s.cfg.IOBufferSize = size
	}
}

// WithChannelCapacity overrides Config.ChannelCapacity after construction.
func WithChannelCapacity(capacity int) Option {
	return func(s *Server) {
		s.cfg.ChannelCapacity = capacity
	}
}

// WithDebug toggles server.Trace output.
func WithDebug(enabled bool) Option {
	return func(s *Server) {
		s.cfg.EnableDebug = enabled
	}
}
