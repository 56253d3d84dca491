package main

import (
	"github.com/spf13/cobra"

	"github.com/3drobotics/zipstream/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

func buildRootCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "zipstream",
		Version: version,
		Short:   "Synthesize ZIP archives on demand from an upstream manifest of object-store members",
		Long: `zipstream is an HTTP gateway. For every request it asks an upstream
service whether the request names an archive; if so, the upstream's JSON
manifest of members is turned into a virtual ZIP file whose byte layout is
computed up front, and arbitrary byte ranges of it are served by fetching
only the relevant slices of the relevant objects. Requests the upstream
does not claim as archives are proxied through unchanged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}

	config.RegisterFlags(cmd, cfg)
	return cmd
}
