package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/cmd"
)

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "diff":
		err = runDiff(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "sections":
		err = runSections(os.Args[2:])
	case "scan":
		err = runScan(os.Args[2:])
	case "verify":
		err = runVerify(os.Args[2:])
	case "migrate-check":
		err = runMigrateCheck(os.Args[2:])
	case "convert":
		err = runConvert(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func runDiff(args []string) error {
	flags := flag.NewFlagSet("diff", flag.ExitOnError)
	var opts cmd.DiffOptions
	var ignore stringList
	flags.StringVar(&opts.Section, "section", "", "Restrict output to one section and its platform equivalents")
	flags.Var(&ignore, "ignore", "Path substring to ignore (repeatable)")
	flags.StringVar(&opts.Format, "format", "text", "Output format: text, json, or unified")
	flags.BoolVar(&opts.Summary, "summary", false, "Show counts only")
	flags.BoolVar(&opts.Verbose, "verbose", false, "Include identical entries")
	flags.BoolVar(&opts.Verbose, "v", false, "Include identical entries (short)")
	flags.BoolVar(&opts.Quiet, "quiet", false, "Counts only, no entry listing")
	flags.BoolVar(&opts.Quiet, "q", false, "Counts only (short)")
	flags.StringVar(&opts.Plan, "plan", "", "Write the action plan as JSON to this file")
	flags.StringVar(&opts.Output, "output", "", "Apply the safe merge and write the result here")
	flags.BoolVar(&opts.Strict, "strict", false, "Fail when manual conflicts are detected")
	flags.StringVar(&opts.MergeTo, "merge-to", "right", "Merge direction: left or right")
	flags.BoolVar(&opts.NoTransferUsers, "no-transfer-users", false, "Do not transfer referenced system users")
	flags.BoolVar(&opts.NoTransferCerts, "no-transfer-certs", false, "Do not transfer referenced certificates")
	flags.BoolVar(&opts.NoTransferCAs, "no-transfer-cas", false, "Do not transfer referenced CAs")
	flags.BoolVar(&opts.SectionSummary, "section-summary", false, "Show per-section summary table")
	flags.Parse(args)

	rest := flags.Args()
	if len(rest) != 2 {
		return fmt.Errorf("diff requires exactly two files")
	}
	if opts.MergeTo != "left" && opts.MergeTo != "right" {
		return fmt.Errorf("invalid merge direction %q (want left or right)", opts.MergeTo)
	}
	opts.File1, opts.File2 = rest[0], rest[1]
	opts.Ignore = ignore
	return cmd.RunDiff(opts)
}

func runInspect(args []string) error {
	flags := flag.NewFlagSet("inspect", flag.ExitOnError)
	var opts cmd.InspectOptions
	flags.StringVar(&opts.Section, "section", "", "Show only this top-level section")
	flags.IntVar(&opts.Depth, "depth", 3, "Maximum tree depth to render")
	flags.BoolVar(&opts.Detect, "detect", false, "Show platform/version/backend detection")
	flags.BoolVar(&opts.Plugins, "plugins", false, "Show plugin detection (declared/configured/enabled)")
	flags.Parse(args)

	rest := flags.Args()
	if len(rest) != 1 {
		return fmt.Errorf("inspect requires exactly one file")
	}
	opts.File = rest[0]
	return cmd.RunInspect(opts)
}

func runSections(args []string) error {
	flags := flag.NewFlagSet("sections", flag.ExitOnError)
	var opts cmd.SectionsOptions
	flags.StringVar(&opts.Format, "format", "text", "Output format: text or json")
	flags.BoolVar(&opts.Verbose, "verbose", false, "Show data source metadata")
	flags.BoolVar(&opts.Extras, "extras", false, "Enable heuristic extras (moved/renamed section hints)")
	flags.BoolVar(&opts.ExtrasJSON, "extras-json", false, "Emit grouped extras/unmatched payload as JSON")
	flags.StringVar(&opts.MappingsFile, "mappings-file", "", "Section mappings YAML file")
	flags.StringVar(&opts.MappingsDir, "mappings-dir", "", "Mappings directory (expects sections.yaml, plugins.yaml)")
	flags.Parse(args)

	rest := flags.Args()
	if len(rest) != 2 {
		return fmt.Errorf("sections requires exactly two files")
	}
	if opts.MappingsFile != "" && opts.MappingsDir != "" {
		return fmt.Errorf("--mappings-file and --mappings-dir are mutually exclusive")
	}
	opts.File1, opts.File2 = rest[0], rest[1]
	return cmd.RunSections(opts)
}

func runScan(args []string) error {
	flags := flag.NewFlagSet("scan", flag.ExitOnError)
	var opts cmd.ScanOptions
	flags.StringVar(&opts.To, "to", "", "Target platform for compatibility hints (pfsense or opnsense)")
	flags.StringVar(&opts.TargetVersion, "target-version", "", "Target version metadata override")
	flags.StringVar(&opts.Format, "format", "text", "Output format: text or json")
	flags.StringVar(&opts.MappingsDir, "mappings-dir", "", "Mappings directory (expects sections.yaml, plugins.yaml)")
	flags.BoolVar(&opts.Verbose, "verbose", false, "Show data source metadata")
	flags.Parse(args)

	rest := flags.Args()
	if len(rest) != 1 {
		return fmt.Errorf("scan requires exactly one file")
	}
	if err := validatePlatformFlag(opts.To, true); err != nil {
		return err
	}
	opts.File = rest[0]
	return cmd.RunScan(opts)
}

func runVerify(args []string) error {
	flags := flag.NewFlagSet("verify", flag.ExitOnError)
	var opts cmd.VerifyOptions
	flags.StringVar(&opts.To, "to", "", "Target platform for compatibility checks (pfsense or opnsense)")
	flags.StringVar(&opts.TargetVersion, "target-version", "", "Target schema/profile version override (for example 24.7, 2.7.2)")
	flags.StringVar(&opts.Format, "format", "text", "Output format: text or json")
	flags.StringVar(&opts.ProfilesDir, "profiles-dir", "", "Profiles directory (expects <dir>/<platform>/<version>.yaml)")
	flags.BoolVar(&opts.Verbose, "verbose", false, "Show data source metadata")
	flags.BoolVar(&opts.Strict, "strict", false, "Treat warnings as failures")
	flags.Parse(args)

	rest := flags.Args()
	if len(rest) != 1 {
		return fmt.Errorf("verify requires exactly one file")
	}
	if err := validatePlatformFlag(opts.To, true); err != nil {
		return err
	}
	opts.File = rest[0]
	return cmd.RunVerify(opts)
}

func runMigrateCheck(args []string) error {
	flags := flag.NewFlagSet("migrate-check", flag.ExitOnError)
	var opts cmd.MigrateCheckOptions
	flags.StringVar(&opts.To, "to", "", "Required target platform (pfsense or opnsense)")
	flags.StringVar(&opts.TargetVersion, "target-version", "", "Target schema/profile version override (for example 24.7, 2.7.2)")
	flags.StringVar(&opts.Format, "format", "text", "Output format: text or json")
	flags.StringVar(&opts.ProfilesDir, "profiles-dir", "", "Profiles directory (expects <dir>/<platform>/<version>.yaml)")
	flags.BoolVar(&opts.Verbose, "verbose", false, "Show data source metadata")
	flags.BoolVar(&opts.Strict, "strict", false, "Treat warnings as failures")
	flags.Parse(args)

	rest := flags.Args()
	if len(rest) != 1 {
		return fmt.Errorf("migrate-check requires exactly one file")
	}
	if opts.To != "" {
		if err := validatePlatformFlag(opts.To, true); err != nil {
			return err
		}
	}
	opts.File = rest[0]
	return cmd.RunMigrateCheck(opts)
}

func runConvert(args []string) error {
	flags := flag.NewFlagSet("convert", flag.ExitOnError)
	var opts cmd.ConvertOptions
	flags.StringVar(&opts.Output, "output", "", "Output file path (required)")
	flags.StringVar(&opts.Output, "o", "", "Output file path (short)")
	flags.StringVar(&opts.From, "from", "auto", "Source platform (auto detects from root tag)")
	flags.StringVar(&opts.To, "to", "", "Destination platform (required)")
	flags.StringVar(&opts.TargetFile, "target-file", "", "Target baseline/template config")
	flags.BoolVar(&opts.MinimalTemplate, "minimal-template", false, "Build from a minimal target root (dev/testing only)")
	flags.BoolVar(&opts.NoTransferUsers, "no-transfer-users", false, "Do not transfer referenced system users")
	flags.BoolVar(&opts.NoTransferCerts, "no-transfer-certs", false, "Do not transfer referenced certificates")
	flags.BoolVar(&opts.NoTransferCAs, "no-transfer-cas", false, "Do not transfer referenced CAs")
	flags.StringVar(&opts.LanIP, "lan-ip", "", "Set LAN IPv4 address on output and remap LAN DHCP values")
	flags.BoolVar(&opts.DisableDHCP, "disable-dhcp", false, "Disable DHCP services in output (lab restore guard)")
	flags.StringVar(&opts.Backend, "backend", "auto", "DHCP backend policy: auto, kea, or isc")
	flags.BoolVar(&opts.Verbose, "verbose", false, "Enable debug logging")
	flags.Parse(args)

	rest := flags.Args()
	if len(rest) != 1 {
		return fmt.Errorf("convert requires exactly one input file")
	}
	if opts.Output == "" {
		return fmt.Errorf("--output is required")
	}
	if err := validatePlatformFlag(opts.To, false); err != nil {
		return err
	}
	opts.Input = rest[0]
	return cmd.RunConvert(opts)
}

func validatePlatformFlag(value string, optional bool) error {
	switch value {
	case "pfsense", "opnsense":
		return nil
	case "":
		if optional {
			return nil
		}
		return fmt.Errorf("--to is required (pfsense or opnsense)")
	}
	return fmt.Errorf("invalid platform %q (want pfsense or opnsense)", value)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `pfopn-convert - compare, inspect, and convert firewall XML configurations

Usage:
  pfopn-convert <command> [flags] [files]

Commands:
  diff <file1> <file2>      Compare two configs and show differences
  inspect <file>            Show parsed structure of a single config
  sections <file1> <file2>  List top-level sections and mapping hints
  scan <file>               Report migration readiness for one config
  verify <file>             Validate one config for pre-restore readiness
  migrate-check <file>      Strict go/no-go migration gate (requires --to)
  convert <file>            Convert one config toward a target platform

Run 'pfopn-convert <command> -h' for command flags.`)
}
