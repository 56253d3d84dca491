// Package config holds the gateway's process-wide settings and the
// Cobra flag set that populates them.
package config

import (
	"errors"

	"github.com/spf13/cobra"
)

// Config is the process-wide configuration, set once at startup and
// shared by reference across all request handlers.
type Config struct {
	// Upstream is the base URL of the manifest/proxy upstream. Required.
	Upstream string

	// StripPrefix, if non-empty, must be an exact prefix of every
	// incoming request path; the gateway strips it before forwarding.
	// A configured non-empty prefix absent from the path is a client
	// error (400), not a silent pass-through.
	StripPrefix string

	// HeaderValue is the value sent in the X-Via-Zip-Stream header on
	// every upstream request.
	HeaderValue string

	// Listen is the address the gateway's HTTP server binds to.
	Listen string

	// MaxManifestBytes caps how much of an upstream X-Zip-Stream body the
	// gateway will buffer before giving up and returning 503.
	MaxManifestBytes int64
}

const defaultMaxManifestBytes = 8 << 20 // 8 MiB

// ErrMissingUpstream is returned by Validate when no upstream URL was
// configured.
var ErrMissingUpstream = errors.New("config: --upstream is required")

// Validate checks that required fields are set and fills in any field
// left at its zero value with its default.
func (c *Config) Validate() error {
	if c.Upstream == "" {
		return ErrMissingUpstream
	}
	if c.MaxManifestBytes == 0 {
		c.MaxManifestBytes = defaultMaxManifestBytes
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:3000"
	}
	if c.HeaderValue == "" {
		c.HeaderValue = "true"
	}
	return nil
}

// RegisterFlags binds cmd's flags to c, mirroring the upstream/strip-prefix/
// header-value/listen surface spec.md §6 names.
func RegisterFlags(cmd *cobra.Command, c *Config) {
	flags := cmd.Flags()
	flags.StringVar(&c.Upstream, "upstream", "", "base URL of the upstream manifest/proxy service (required)")
	flags.StringVar(&c.StripPrefix, "strip-prefix", "", "path prefix to strip before forwarding to upstream")
	flags.StringVar(&c.HeaderValue, "header-value", "true", "value of the X-Via-Zip-Stream header sent to upstream")
	flags.StringVar(&c.Listen, "listen", "127.0.0.1:3000", "address for the gateway's HTTP listener")
	flags.Int64Var(&c.MaxManifestBytes, "max-manifest-bytes", defaultMaxManifestBytes, "maximum size of a buffered X-Zip-Stream manifest body")
	cmd.MarkFlagRequired("upstream")
}
