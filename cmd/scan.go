package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/sheridans/pfopn-convert-sub000/internal/report"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// ScanOptions carries the scan subcommand flags.
type ScanOptions struct {
	File          string
	To            string
	TargetVersion string
	Format        string
	MappingsDir   string
	Verbose       bool
}

// RunScan reports one config's migration readiness.
func RunScan(opts ScanOptions) error {
	node, err := xmltree.ParseFile(opts.File)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.File, err)
	}
	rpt := report.BuildScanReportWithVersion(node, opts.To, opts.TargetVersion, opts.MappingsDir)

	switch opts.Format {
	case "json":
		raw, err := json.MarshalIndent(rpt, "", "  ")
		if err != nil {
			return err
		}
		Println(string(raw))
	default:
		Println(report.RenderScanText(rpt, opts.Verbose))
	}
	return nil
}
