package transform

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// UsersToOpnsense transfers all users wholesale from pfSense to
// OPNsense, renaming the default admin account (admin becomes root).
// Unlike the system_users pass it does not touch credentials or
// privileges on users that already exist in the output.
func UsersToOpnsense(out, source, baseline *xmltree.Node) {
	transferUsers(out, source, "admin", "root")
}

// UsersToPfSense transfers all users wholesale from OPNsense to
// pfSense, renaming the default admin account (root becomes admin).
func UsersToPfSense(out, source, baseline *xmltree.Node) {
	transferUsers(out, source, "root", "admin")
}

// transferUsers copies every named user from the source system section
// into the output, skipping names that already exist there. The default
// admin account is renamed from fromDefault to toDefault on the way.
func transferUsers(out, source *xmltree.Node, fromDefault, toDefault string) {
	srcSystem := source.Child("system")
	if srcSystem == nil {
		return
	}

	var srcUsers []*xmltree.Node
	for _, user := range srcSystem.All("user") {
		if user.ChildText("name") != "" {
			srcUsers = append(srcUsers, user.Clone())
		}
	}
	if len(srcUsers) == 0 {
		return
	}

	outSystem := out.Child("system")
	if outSystem == nil {
		return
	}

	existing := map[string]bool{}
	for _, user := range outSystem.All("user") {
		if name := user.ChildText("name"); name != "" {
			existing[strings.ToLower(name)] = true
		}
	}

	for _, user := range srcUsers {
		name := user.ChildText("name")
		if name == "" {
			continue
		}

		if strings.EqualFold(name, fromDefault) {
			if !existing[strings.ToLower(toDefault)] {
				user.SetChildText("name", toDefault)
				outSystem.Append(user)
				existing[strings.ToLower(toDefault)] = true
			}
			continue
		}

		if existing[strings.ToLower(name)] {
			continue
		}
		existing[strings.ToLower(name)] = true
		outSystem.Append(user)
	}
}
