package merge

import (
	"github.com/sheridans/pfopn-convert-sub000/internal/deps"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// applyOpenVPNDependencyTransfer copies CAs, certs, and system users
// that the source's OpenVPN config references but the target lacks.
// Every transfer checks for an existing entry first so nothing is
// duplicated even when the base merge already inserted the node.
func applyOpenVPNDependencyTransfer(out, left, right *xmltree.Node, target Target, options Options) {
	report := deps.CompareOpenVPN(left, right)
	source, targetTree := left, right
	gap := report.LeftToRight
	if target == TargetLeft {
		source, targetTree = right, left
		gap = report.RightToLeft
	}

	if options.TransferCAs {
		transferSectionByRefids(out, source, "ca", gap.MissingCAIDs)
	}
	if options.TransferCerts {
		transferSectionByRefids(out, source, "cert", gap.MissingCertIDs)
	}
	if options.TransferUsers {
		transferUsers(out, source, targetTree, gap.MissingUsers)
	}
}

// transferSectionByRefids copies top-level ca or cert nodes from the
// source whose refid appears in missingIDs and is not yet present in
// the output.
func transferSectionByRefids(out, source *xmltree.Node, sectionTag string, missingIDs []string) {
	if len(missingIDs) == 0 {
		return
	}

	existing := make(map[string]bool)
	for _, node := range out.All(sectionTag) {
		if refid := node.ChildText("refid"); refid != "" {
			existing[refid] = true
		}
	}

	for _, missing := range missingIDs {
		if existing[missing] {
			continue
		}
		for _, node := range source.All(sectionTag) {
			if node.ChildText("refid") == missing {
				out.Append(node.Clone())
				existing[missing] = true
				break
			}
		}
	}
}

// transferUsers copies system.user nodes referenced by OpenVPN from
// the source. Existence is checked against the original target tree,
// not the output, since the output's system section may already have
// been reshaped by earlier passes.
func transferUsers(out, source, targetTree *xmltree.Node, missingUsers []string) {
	if len(missingUsers) == 0 {
		return
	}

	existing := make(map[string]bool)
	if system := targetTree.Child("system"); system != nil {
		for _, user := range system.All("user") {
			if name := user.ChildText("name"); name != "" {
				existing[name] = true
			}
		}
	}

	systemOut := out.Child("system")
	systemSource := source.Child("system")
	if systemOut == nil || systemSource == nil {
		return
	}

	for _, missing := range missingUsers {
		if existing[missing] {
			continue
		}
		for _, user := range systemSource.All("user") {
			if user.ChildText("name") == missing {
				systemOut.Append(user.Clone())
				break
			}
		}
	}
}
