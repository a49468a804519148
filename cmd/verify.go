package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/sheridans/pfopn-convert-sub000/internal/report"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// VerifyOptions carries the verify subcommand flags.
type VerifyOptions struct {
	File          string
	To            string
	TargetVersion string
	Format        string
	ProfilesDir   string
	Verbose       bool
	Strict        bool
}

// RunVerify validates one config for pre-restore readiness. Errors
// fail the command; warnings fail only under --strict.
func RunVerify(opts VerifyOptions) error {
	node, err := xmltree.ParseFile(opts.File)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.File, err)
	}
	rpt := report.BuildVerifyReportWithVersion(node, opts.To, opts.TargetVersion, opts.ProfilesDir)

	switch opts.Format {
	case "json":
		raw, err := json.MarshalIndent(rpt, "", "  ")
		if err != nil {
			return err
		}
		Println(string(raw))
	default:
		Println(report.RenderVerifyText(rpt, opts.Verbose))
	}

	if rpt.Errors > 0 {
		return fmt.Errorf("verify failed: %d errors", rpt.Errors)
	}
	if opts.Strict && rpt.Warnings > 0 {
		return fmt.Errorf("verify failed in strict mode: %d warnings", rpt.Warnings)
	}
	return nil
}
