package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/sheridans/pfopn-convert-sub000/internal/mappings"
	"github.com/sheridans/pfopn-convert-sub000/internal/report"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// SectionsOptions carries the sections subcommand flags.
type SectionsOptions struct {
	File1        string
	File2        string
	Format       string
	Verbose      bool
	Extras       bool
	ExtrasJSON   bool
	MappingsFile string
	MappingsDir  string
}

// RunSections lists top-level sections of two configs and suggests
// cross-platform mapping hints.
func RunSections(opts SectionsOptions) error {
	left, err := xmltree.ParseFile(opts.File1)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.File1, err)
	}
	right, err := xmltree.ParseFile(opts.File2)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.File2, err)
	}

	sectionMappings, mappingsSource := resolveMappings(opts.MappingsFile, opts.MappingsDir)
	inventory := report.BuildInventory(left, right, opts.Extras || opts.ExtrasJSON, sectionMappings, mappingsSource)

	if opts.ExtrasJSON {
		raw, err := json.MarshalIndent(report.ExtrasReport(inventory), "", "  ")
		if err != nil {
			return err
		}
		Println(string(raw))
		return nil
	}

	switch opts.Format {
	case "json":
		raw, err := json.MarshalIndent(inventory, "", "  ")
		if err != nil {
			return err
		}
		Println(string(raw))
	default:
		if opts.Verbose {
			Printf("Using mappings: %s\n", mappingsSource)
		}
		Println(report.RenderSectionInventory(inventory))
	}
	return nil
}

// resolveMappings loads section mappings from an explicit file, a
// mappings directory, or the embedded table, in that order.
func resolveMappings(mappingsFile, mappingsDir string) ([]mappings.SectionMapping, string) {
	chosen := mappingsFile
	if chosen == "" && mappingsDir != "" {
		chosen = filepath.Join(mappingsDir, "sections.yaml")
	}
	if chosen == "" {
		return mappings.DefaultSectionMappings(), "embedded"
	}
	loaded, err := mappings.LoadSectionMappings(chosen)
	if err != nil {
		Warnf("failed to load mappings from %s (%v); using embedded defaults", chosen, err)
		return mappings.DefaultSectionMappings(), "embedded"
	}
	return loaded, "file:" + chosen
}
