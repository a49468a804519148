package merge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree/xmldiff"
)

func mustParse(t *testing.T, src string) *xmltree.Node {
	t.Helper()
	n, err := xmltree.Parse([]byte(src))
	require.NoError(t, err)
	return n
}

func TestApplySafeInsertsOnlyLeftIntoRight(t *testing.T) {
	left := mustParse(t, "<config><notes><note>a</note><note>b</note></notes></config>")
	right := mustParse(t, "<config><notes><note>a</note></notes></config>")

	entries := xmldiff.Diff(left, right)
	out, err := ApplySafe(left, right, entries, TargetRight, DefaultOptions())
	require.NoError(t, err)

	notes := out.Child("notes")
	require.NotNil(t, notes)
	require.Len(t, notes.All("note"), 2)
	assert.Equal(t, "b", notes.All("note")[1].Text)

	// Inputs must remain untouched.
	assert.Len(t, right.Child("notes").All("note"), 1)
}

func TestApplySafeInsertsOnlyRightIntoLeft(t *testing.T) {
	left := mustParse(t, "<config><notes/></config>")
	right := mustParse(t, "<config><notes><note>new</note></notes></config>")

	entries := xmldiff.Diff(left, right)
	out, err := ApplySafe(left, right, entries, TargetLeft, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, out.Child("notes").All("note"), 1)
	assert.Equal(t, "new", out.Find("notes", "note").Text)
}

func TestApplySafeNeverAppliesModified(t *testing.T) {
	left := mustParse(t, "<config><notes><note>left-value</note></notes></config>")
	right := mustParse(t, "<config><notes><note>right-value</note></notes></config>")

	entries := xmldiff.Diff(left, right)
	require.NotEmpty(t, entries)

	out, err := ApplySafe(left, right, entries, TargetRight, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "right-value", out.Find("notes", "note").Text)
}

func TestApplySafeParentNotFound(t *testing.T) {
	left := mustParse(t, "<config/>")
	right := mustParse(t, "<config/>")

	entries := []xmldiff.Entry{{
		Kind: xmldiff.OnlyLeft,
		Path: "config.missing[1].child[1]",
		Node: xmltree.NewText("child", "x"),
	}}

	_, err := ApplySafe(left, right, entries, TargetRight, DefaultOptions())
	var parentErr *ParentNotFoundError
	require.True(t, errors.As(err, &parentErr))
	assert.Equal(t, "config.missing[1]", parentErr.Path)
}

func TestApplySafeUnsupportedPath(t *testing.T) {
	left := mustParse(t, "<config/>")
	right := mustParse(t, "<config/>")

	entries := []xmldiff.Entry{{
		Kind: xmldiff.OnlyLeft,
		Path: "config",
		Node: xmltree.New("config"),
	}}

	_, err := ApplySafe(left, right, entries, TargetRight, DefaultOptions())
	var pathErr *UnsupportedPathError
	require.True(t, errors.As(err, &pathErr))
}

func TestApplySafeSyncsSharedSectionsFromSource(t *testing.T) {
	left := mustParse(t, "<config><system><hostname>src</hostname></system></config>")
	right := mustParse(t, "<config><system><hostname>base</hostname></system></config>")

	out, err := ApplySafe(left, right, nil, TargetRight, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "src", out.Find("system", "hostname").Text)
}

func TestApplySafeTransfersMissingCAs(t *testing.T) {
	left := mustParse(t, `<pfsense>
  <ca><refid>ca1</refid><descr>root ca</descr></ca>
  <openvpn><openvpn-server><caref>ca1</caref></openvpn-server></openvpn>
</pfsense>`)
	right := mustParse(t, "<pfsense><system/></pfsense>")

	out, err := ApplySafe(left, right, nil, TargetRight, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, out.All("ca"), 1)
	assert.Equal(t, "ca1", out.All("ca")[0].ChildText("refid"))
}

func TestApplySafeTransferOptionsDisable(t *testing.T) {
	left := mustParse(t, `<pfsense>
  <ca><refid>ca1</refid></ca>
  <openvpn><openvpn-server><caref>ca1</caref></openvpn-server></openvpn>
</pfsense>`)
	right := mustParse(t, "<pfsense><system/></pfsense>")

	out, err := ApplySafe(left, right, nil, TargetRight, Options{})
	require.NoError(t, err)
	assert.Empty(t, out.All("ca"))
}

func TestApplySafeDoesNotDuplicateTransferredCA(t *testing.T) {
	left := mustParse(t, `<pfsense>
  <ca><refid>ca1</refid></ca>
  <openvpn><openvpn-server><caref>ca1</caref></openvpn-server></openvpn>
</pfsense>`)
	right := mustParse(t, "<pfsense><ca><refid>ca1</refid></ca></pfsense>")

	out, err := ApplySafe(left, right, nil, TargetRight, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, out.All("ca"), 1)
}
