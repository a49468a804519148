package transform

import (
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/logging"
	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// SystemUsersToOpnsense converts user accounts from pfSense to the
// OPNsense conventions.
//
// The default admin user is named "admin" on pfSense and "root" on
// OPNsense, and pfSense stores password hashes under <bcrypt-hash>
// while OPNsense uses <password> (still a hash, different tag). The
// pass maps the source admin onto the target root with credential
// conversion, carries over the other GUI users, and removes the old
// "admin" account to avoid duplicates.
func SystemUsersToOpnsense(out, source, baseline *xmltree.Node) {
	mapLoginUser(out, source, "admin", "root", "password")
	preserveGUIUsers(out, source, "password")
	removeUserByName(out, "admin")
}

// SystemUsersToPfSense converts user accounts from OPNsense to the
// pfSense conventions, the mirror image of SystemUsersToOpnsense.
func SystemUsersToPfSense(out, source, baseline *xmltree.Node) {
	mapLoginUser(out, source, "root", "admin", "bcrypt-hash")
	preserveGUIUsers(out, source, "bcrypt-hash")
	removeUserByName(out, "root")
}

// mapLoginUser maps the default admin user from the source platform to
// the target platform. The source admin is found by name, falling back
// to UID 0 when the expected name is missing (renamed admins). Existing
// admin candidates in the target (matching name or UID 0) get their
// credential updated in place; when none exist a new user is created
// under the target name.
func mapLoginUser(out, source *xmltree.Node, sourceName, targetName, targetCredentialTag string) {
	sourceUser := findUser(source, sourceName)
	if sourceUser == nil {
		sourceUser = findUserByUID(source, "0")
	}
	if sourceUser == nil {
		return
	}
	sourceUser = sourceUser.Clone()

	credential := userCredential(sourceUser)
	systemOut := out.Child("system")
	if systemOut == nil {
		return
	}

	if updateExistingLoginCandidates(systemOut, targetName, targetCredentialTag, credential) {
		return
	}

	newUser := sourceUser
	newUser.SetChildText("name", targetName)
	setUserCredential(newUser, targetCredentialTag, credential)
	systemOut.Append(newUser)
}

// updateExistingLoginCandidates updates credentials on users matching
// the target admin name (case-insensitive) or UID 0. Reports whether at
// least one user was updated.
func updateExistingLoginCandidates(system *xmltree.Node, targetName, targetCredentialTag, credential string) bool {
	updated := false
	for _, user := range system.All("user") {
		nameMatch := strings.EqualFold(strings.TrimSpace(user.ChildText("name")), targetName)
		uid0 := strings.TrimSpace(user.ChildText("uid")) == "0"
		if nameMatch || uid0 {
			setUserCredential(user, targetCredentialTag, credential)
			updated = true
		}
	}
	return updated
}

func findUser(root *xmltree.Node, wantedName string) *xmltree.Node {
	system := root.Child("system")
	if system == nil {
		return nil
	}
	for _, user := range system.All("user") {
		if strings.EqualFold(strings.TrimSpace(user.ChildText("name")), wantedName) {
			return user
		}
	}
	return nil
}

func findUserByUID(root *xmltree.Node, wantedUID string) *xmltree.Node {
	system := root.Child("system")
	if system == nil {
		return nil
	}
	return findUserByUIDIn(system, wantedUID)
}

func findUserByUIDIn(system *xmltree.Node, wantedUID string) *xmltree.Node {
	for _, user := range system.All("user") {
		if uid, ok := user.PathText("uid"); ok && strings.TrimSpace(uid) == wantedUID {
			return user
		}
	}
	return nil
}

// userCredential extracts a user's password hash from any supported
// credential field, in priority order: <password> (OPNsense), then
// <bcrypt-hash> (pfSense), then <sha512-hash> (legacy).
func userCredential(user *xmltree.Node) string {
	for _, tag := range []string{"password", "bcrypt-hash", "sha512-hash"} {
		if value := strings.TrimSpace(user.ChildText(tag)); value != "" {
			return value
		}
	}
	return ""
}

// setUserCredential sets a user's credential under the preferred tag.
// An existing preferred tag is updated in place; an existing credential
// under a different tag is renamed; otherwise a new element is added.
func setUserCredential(user *xmltree.Node, preferredTag, value string) {
	if value == "" {
		return
	}
	if node := user.Child(preferredTag); node != nil {
		node.Text = value
		return
	}
	for _, child := range user.Children {
		switch child.Tag {
		case "password", "bcrypt-hash", "sha512-hash":
			child.Tag = preferredTag
			child.Text = value
			return
		}
	}
	user.Append(xmltree.NewText(preferredTag, value))
}

// removeUserByName deletes users matching the given name from the
// system section. Used to clean up the old default admin after mapping.
func removeUserByName(root *xmltree.Node, targetName string) {
	system := root.Child("system")
	if system == nil {
		return
	}
	system.RetainChildren(func(n *xmltree.Node) bool {
		if n.Tag != "user" {
			return true
		}
		return !strings.EqualFold(strings.TrimSpace(n.ChildText("name")), targetName)
	})
}

// guiUser is the in-flight representation of a GUI user during
// transfer.
type guiUser struct {
	name string
	uid  string
	node *xmltree.Node
}

// preserveGUIUsers copies the non-admin GUI users from the source into
// the output, matching against existing users by UID then by name, and
// converting credential tags to the target platform's convention.
func preserveGUIUsers(out, source *xmltree.Node, targetCredentialTag string) {
	guiUsers := collectGUIUsers(source)
	if len(guiUsers) == 0 {
		return
	}
	systemOut := out.Child("system")
	if systemOut == nil {
		return
	}
	for _, gu := range guiUsers {
		applyGUIUser(systemOut, gu, targetCredentialTag)
	}
}

// collectGUIUsers gathers the source users with web interface access:
// UID other than 0, enabled, and holding page-* privileges or admins
// group membership. Each is sanitized down to the fields safe to
// transfer.
func collectGUIUsers(root *xmltree.Node) []guiUser {
	system := root.Child("system")
	if system == nil {
		return nil
	}
	var out []guiUser
	for _, user := range system.All("user") {
		uid := ""
		if v, ok := user.PathText("uid"); ok {
			uid = strings.TrimSpace(v)
		}
		if uid == "0" {
			continue
		}
		if !userEnabled(user) {
			continue
		}
		if !hasGUIPrivileges(user) {
			continue
		}

		sanitized := sanitizeGUIUser(user)
		name := strings.TrimSpace(sanitized.ChildText("name"))
		if name == "" && uid == "" {
			continue
		}
		out = append(out, guiUser{name: name, uid: uid, node: sanitized})
	}
	return out
}

// applyGUIUser updates an existing output user (matched by UID first,
// then by name) or appends a new one.
func applyGUIUser(systemOut *xmltree.Node, gu guiUser, targetCredentialTag string) {
	if gu.uid != "" && gu.uid != "0" {
		if dest := findUserByUIDIn(systemOut, gu.uid); dest != nil {
			if strings.TrimSpace(dest.ChildText("name")) != strings.TrimSpace(gu.name) {
				logging.Warn("UID collision for GUI user",
					"user", gu.name, "uid", gu.uid)
			}
			updateGUIUser(dest, gu, targetCredentialTag)
			return
		}
	}

	for _, dest := range systemOut.All("user") {
		if strings.TrimSpace(dest.ChildText("name")) == strings.TrimSpace(gu.name) {
			updateGUIUser(dest, gu, targetCredentialTag)
			return
		}
	}

	newUser := gu.node.Clone()
	setUserCredential(newUser, targetCredentialTag, userCredential(gu.node))
	systemOut.Append(newUser)
}

// updateGUIUser refreshes an existing user's privileges, descriptive
// fields, and credential from the source.
func updateGUIUser(dest *xmltree.Node, gu guiUser, targetCredentialTag string) {
	dest.RemoveChildren("priv")
	for _, priv := range gu.node.All("priv") {
		dest.Append(priv.Clone())
	}

	for _, tag := range []string{"disabled", "descr", "scope", "groupname", "authorizedkeys"} {
		copyUserField(dest, gu.node, tag)
	}

	setUserCredential(dest, targetCredentialTag, userCredential(gu.node))
}

func copyUserField(dest, source *xmltree.Node, tag string) {
	value := strings.TrimSpace(source.ChildText(tag))
	if value == "" {
		return
	}
	dest.SetChildText(tag, value)
}

// userEnabled reports whether a user is enabled. Users are enabled by
// default unless <disabled>1</disabled> is present.
func userEnabled(user *xmltree.Node) bool {
	if v, ok := user.PathText("disabled"); ok {
		return strings.TrimSpace(v) != "1"
	}
	return true
}

// hasGUIPrivileges reports whether a user has web interface access:
// membership in the admins group or any page-* privilege.
func hasGUIPrivileges(user *xmltree.Node) bool {
	if strings.EqualFold(strings.TrimSpace(user.ChildText("groupname")), "admins") {
		return true
	}
	for _, p := range user.All("priv") {
		priv := strings.TrimSpace(p.Text)
		if strings.EqualFold(priv, "page-all") || strings.HasPrefix(priv, "page-") {
			return true
		}
	}
	return false
}

// sanitizeGUIUser copies a user node keeping only the fields safe to
// transfer across platforms.
func sanitizeGUIUser(user *xmltree.Node) *xmltree.Node {
	allowed := map[string]bool{
		"name": true, "uid": true, "disabled": true, "descr": true,
		"scope": true, "groupname": true, "priv": true,
		"password": true, "bcrypt-hash": true, "sha512-hash": true,
		"authorizedkeys": true,
	}
	sanitized := xmltree.New("user")
	sanitized.Attrs = append(sanitized.Attrs, user.Attrs...)
	for _, child := range user.Children {
		if allowed[child.Tag] {
			sanitized.Append(child.Clone())
		}
	}
	return sanitized
}
