package cmd

import (
	"fmt"

	"github.com/sheridans/pfopn-convert-sub000/internal/convert"
	"github.com/sheridans/pfopn-convert-sub000/internal/logging"
	"github.com/sheridans/pfopn-convert-sub000/internal/transform/dhcp"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// ConvertOptions carries the convert subcommand flags.
type ConvertOptions struct {
	Input           string
	Output          string
	From            string
	To              string
	TargetFile      string
	MinimalTemplate bool
	NoTransferUsers bool
	NoTransferCerts bool
	NoTransferCAs   bool
	LanIP           string
	DisableDHCP     bool
	Backend         string
	Verbose         bool
}

// RunConvert converts one config toward a target platform and writes
// the result.
func RunConvert(opts ConvertOptions) error {
	if err := convert.EnsureOutputNotSame(opts.Output, []string{opts.Input, opts.TargetFile}); err != nil {
		return err
	}

	source, err := xmltree.ParseFile(opts.Input)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.Input, err)
	}

	backend, err := dhcp.ParseRequestedBackend(opts.Backend)
	if err != nil {
		return err
	}
	to, err := convert.NormalizeToPlatform(opts.To)
	if err != nil {
		return err
	}
	target, err := resolveConvertTarget(opts, to)
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	if opts.Verbose {
		logCfg.Level = logging.LevelDebug
	}
	logger := logging.New(logCfg).WithComponent("convert")

	runOpts := convert.Options{
		From:          opts.From,
		To:            opts.To,
		Backend:       backend,
		TransferUsers: !opts.NoTransferUsers,
		TransferCerts: !opts.NoTransferCerts,
		TransferCAs:   !opts.NoTransferCAs,
		LanIP:         opts.LanIP,
		DisableDHCP:   opts.DisableDHCP,
		Logger:        logger,
	}

	result, err := convert.Run(source, target, runOpts)
	if err != nil {
		return err
	}

	if err := xmltree.WriteFile(result.Output, opts.Output); err != nil {
		return fmt.Errorf("failed to write output XML %s: %w", opts.Output, err)
	}

	for _, line := range convert.RenderMigrationSummary(result.MigrationStats, result.Backend, result.PreservedLegacyIPv6) {
		Printf("%s\n", line)
	}
	Printf("%s\n", result.Summary.Render())
	return nil
}

// resolveConvertTarget loads the baseline config for the destination
// platform, or builds a bare root for dev runs.
func resolveConvertTarget(opts ConvertOptions, to string) (*xmltree.Node, error) {
	if opts.TargetFile != "" {
		parsed, err := xmltree.ParseFile(opts.TargetFile)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", opts.TargetFile, err)
		}
		return parsed, nil
	}
	if opts.MinimalTemplate {
		return xmltree.New(to), nil
	}
	return nil, fmt.Errorf("missing --target-file; provide a destination baseline config or use --minimal-template for dev/testing")
}
