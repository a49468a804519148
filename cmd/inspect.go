package cmd

import (
	"fmt"

	"github.com/sheridans/pfopn-convert-sub000/internal/detect"
	"github.com/sheridans/pfopn-convert-sub000/internal/report"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// InspectOptions carries the inspect subcommand flags.
type InspectOptions struct {
	File    string
	Section string
	Depth   int
	Detect  bool
	Plugins bool
}

// RunInspect prints the structure of a single config, with optional
// platform and plugin detection.
func RunInspect(opts InspectOptions) error {
	node, err := xmltree.ParseFile(opts.File)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.File, err)
	}

	if opts.Detect {
		version := detect.VersionInfo(node)
		backend := detect.DHCPBackend(node)
		Printf("type=%s version=%s version_source=%s version_confidence=%s dhcp_backend=%s backend_reason=%s\n",
			detect.Config(node), version.Value, version.Source, version.Confidence,
			backend.Mode, backend.Reason)
	}

	if opts.Plugins {
		inventory := report.DetectPlugins(node)
		Printf("plugins platform=%s\n", inventory.Platform)
		for _, plugin := range inventory.Plugins {
			Printf("- %s declared=%t configured=%t enabled=%t\n",
				plugin.Plugin, plugin.Declared, plugin.Configured, plugin.Enabled)
			for _, evidence := range plugin.Evidence {
				Printf("  evidence: %s\n", evidence)
			}
		}
	}

	target := node
	if opts.Section != "" {
		target = node.Child(opts.Section)
		if target == nil {
			return fmt.Errorf("section '%s' not found", opts.Section)
		}
	}

	Printf("%s", report.RenderTree(target, opts.Depth))
	return nil
}
