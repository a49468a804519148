package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/sheridans/pfopn-convert-sub000/internal/report"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// MigrateCheckOptions carries the migrate-check subcommand flags.
type MigrateCheckOptions struct {
	File          string
	To            string
	TargetVersion string
	Format        string
	ProfilesDir   string
	Verbose       bool
	Strict        bool
}

// RunMigrateCheck runs the strict go/no-go migration gate.
func RunMigrateCheck(opts MigrateCheckOptions) error {
	if opts.To == "" {
		return fmt.Errorf("--to is required for migrate-check (pfsense or opnsense)")
	}
	node, err := xmltree.ParseFile(opts.File)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.File, err)
	}
	rpt := report.BuildMigrateCheckReportWithVersion(node, opts.To, opts.TargetVersion, opts.ProfilesDir)

	switch opts.Format {
	case "json":
		raw, err := json.MarshalIndent(rpt, "", "  ")
		if err != nil {
			return err
		}
		Println(string(raw))
	default:
		Println(report.RenderMigrateCheckText(rpt, opts.Verbose))
	}

	if !rpt.Pass {
		return fmt.Errorf("migrate-check failed: one or more required checks did not pass")
	}
	if opts.Strict && rpt.Warnings > 0 {
		return fmt.Errorf("migrate-check failed in strict mode: %d warnings", rpt.Warnings)
	}
	return nil
}
