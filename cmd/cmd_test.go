package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

const pfsenseFixture = `<pfsense>
  <version>23.05</version>
  <system><hostname>edge</hostname><domain>example.lan</domain></system>
  <interfaces>
    <wan><if>em0</if><ipaddr>dhcp</ipaddr><enable/></wan>
    <lan><if>em1</if><ipaddr>192.168.1.1</ipaddr><subnet>24</subnet><enable/></lan>
  </interfaces>
  <filter>
    <rule><tracker>100</tracker><type>pass</type><interface>lan</interface></rule>
  </filter>
</pfsense>`

const opnsenseFixture = `<opnsense>
  <version>24.7</version>
  <system><hostname>base</hostname></system>
  <interfaces>
    <wan><if>vtnet0</if></wan>
    <lan><if>vtnet1</if></lan>
  </interfaces>
</opnsense>`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunScan(t *testing.T) {
	dir := t.TempDir()
	file := writeFixture(t, dir, "source.xml", pfsenseFixture)

	assert.NoError(t, RunScan(ScanOptions{File: file, Format: "text"}))
	assert.NoError(t, RunScan(ScanOptions{File: file, To: "opnsense", Format: "json"}))

	err := RunScan(ScanOptions{File: filepath.Join(dir, "missing.xml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestRunVerify(t *testing.T) {
	dir := t.TempDir()
	good := writeFixture(t, dir, "good.xml", pfsenseFixture)
	assert.NoError(t, RunVerify(VerifyOptions{File: good}))

	broken := writeFixture(t, dir, "broken.xml", `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <filter><rule><tracker>1</tracker><interface>opt9</interface></rule></filter>
</pfsense>`)
	err := RunVerify(VerifyOptions{File: broken})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify failed")
}

func TestRunVerifyStrictFailsOnWarnings(t *testing.T) {
	dir := t.TempDir()
	file := writeFixture(t, dir, "warn.xml", `<pfsense>
  <system/>
  <interfaces><wan/><lan/></interfaces>
  <filter/>
  <nat><outbound><mode>bogus</mode></outbound></nat>
</pfsense>`)

	assert.NoError(t, RunVerify(VerifyOptions{File: file}))

	err := RunVerify(VerifyOptions{File: file, Strict: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict mode")
}

func TestRunDiffWritesPlanAndMerge(t *testing.T) {
	dir := t.TempDir()
	left := writeFixture(t, dir, "left.xml", "<config><system><hostname>a</hostname></system><aliases><alias><name>web</name></alias></aliases></config>")
	right := writeFixture(t, dir, "right.xml", "<config><system><hostname>a</hostname></system></config>")
	plan := filepath.Join(dir, "plan.json")
	output := filepath.Join(dir, "merged.xml")

	err := RunDiff(DiffOptions{
		File1:  left,
		File2:  right,
		Quiet:  true,
		Plan:   plan,
		Output: output,
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(plan)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.NotEmpty(t, rows)

	merged, err := xmltree.ParseFile(output)
	require.NoError(t, err)
	// The aliases block only the left side carries lands in the merged
	// right tree.
	assert.NotNil(t, merged.Find("aliases", "alias"))
}

func TestRunDiffStrictFailsOnConflicts(t *testing.T) {
	dir := t.TempDir()
	left := writeFixture(t, dir, "left.xml", "<config><system><hostname>a</hostname></system></config>")
	right := writeFixture(t, dir, "right.xml", "<config><system><hostname>b</hostname></system></config>")

	err := RunDiff(DiffOptions{File1: left, File2: right, Quiet: true, Strict: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manual conflicts")
}

func TestRunDiffUnifiedFormat(t *testing.T) {
	dir := t.TempDir()
	left := writeFixture(t, dir, "left.xml", "<config><hostname>a</hostname></config>")
	right := writeFixture(t, dir, "right.xml", "<config><hostname>b</hostname></config>")

	assert.NoError(t, RunDiff(DiffOptions{File1: left, File2: right, Format: "unified"}))
}

func TestRunDiffRejectsOutputOverInput(t *testing.T) {
	dir := t.TempDir()
	left := writeFixture(t, dir, "left.xml", "<config/>")
	right := writeFixture(t, dir, "right.xml", "<config/>")

	err := RunDiff(DiffOptions{File1: left, File2: right, Quiet: true, Output: left})
	assert.Error(t, err)
}

func TestRunSections(t *testing.T) {
	dir := t.TempDir()
	left := writeFixture(t, dir, "left.xml", pfsenseFixture)
	right := writeFixture(t, dir, "right.xml", opnsenseFixture)

	assert.NoError(t, RunSections(SectionsOptions{File1: left, File2: right}))
	assert.NoError(t, RunSections(SectionsOptions{File1: left, File2: right, Extras: true, Format: "json"}))
	assert.NoError(t, RunSections(SectionsOptions{File1: left, File2: right, ExtrasJSON: true}))
}

func TestRunSectionsFallsBackOnBadMappingsFile(t *testing.T) {
	dir := t.TempDir()
	left := writeFixture(t, dir, "left.xml", pfsenseFixture)
	right := writeFixture(t, dir, "right.xml", opnsenseFixture)

	assert.NoError(t, RunSections(SectionsOptions{
		File1:        left,
		File2:        right,
		MappingsFile: filepath.Join(dir, "nope.yaml"),
	}))
}

func TestRunInspect(t *testing.T) {
	dir := t.TempDir()
	file := writeFixture(t, dir, "source.xml", pfsenseFixture)

	assert.NoError(t, RunInspect(InspectOptions{File: file, Depth: 3, Detect: true, Plugins: true}))
	assert.NoError(t, RunInspect(InspectOptions{File: file, Section: "system", Depth: 2}))

	err := RunInspect(InspectOptions{File: file, Section: "nonexistent", Depth: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunMigrateCheck(t *testing.T) {
	dir := t.TempDir()
	file := writeFixture(t, dir, "source.xml", pfsenseFixture)

	err := RunMigrateCheck(MigrateCheckOptions{File: file})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--to is required")

	assert.NoError(t, RunMigrateCheck(MigrateCheckOptions{File: file, To: "pfsense"}))

	err = RunMigrateCheck(MigrateCheckOptions{File: file, To: "opnsense"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate-check failed")
}

func TestRunConvert(t *testing.T) {
	dir := t.TempDir()
	source := writeFixture(t, dir, "source.xml", pfsenseFixture)
	target := writeFixture(t, dir, "target.xml", opnsenseFixture)
	output := filepath.Join(dir, "out.xml")

	err := RunConvert(ConvertOptions{
		Input:      source,
		Output:     output,
		To:         "opnsense",
		TargetFile: target,
	})
	require.NoError(t, err)

	out, err := xmltree.ParseFile(output)
	require.NoError(t, err)
	assert.Equal(t, "opnsense", out.Tag)
	assert.Equal(t, "edge", out.Find("system", "hostname").Text)
}

func TestRunConvertValidation(t *testing.T) {
	dir := t.TempDir()
	source := writeFixture(t, dir, "source.xml", pfsenseFixture)

	// Output must not overwrite an input.
	err := RunConvert(ConvertOptions{Input: source, Output: source, To: "opnsense", MinimalTemplate: true})
	assert.Error(t, err)

	// A destination baseline is required.
	err = RunConvert(ConvertOptions{Input: source, Output: filepath.Join(dir, "out.xml"), To: "opnsense"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--target-file")

	// Target platform must be explicit.
	err = RunConvert(ConvertOptions{Input: source, Output: filepath.Join(dir, "out.xml"), To: "auto", MinimalTemplate: true})
	assert.Error(t, err)
}
