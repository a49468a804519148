package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sheridans/pfopn-convert-sub000/internal/xmltree"
)

// ruleFingerprint captures every field that affects what traffic a
// rule matches. Rules with equal fingerprints are duplicates.
type ruleFingerprint struct {
	iface     string
	action    string
	ipproto   string
	proto     string
	src       string
	srcPort   string
	dst       string
	dstPort   string
	direction string
	floating  bool
	quick     bool
	disabled  bool
	gateway   string
	schedule  string
}

type ruleMeta struct {
	idx     int
	tracker string
	descr   string
}

// ruleDuplicateFindings groups filter rules by fingerprint and reports
// groups of two or more. A default rule sharing a signature with a
// custom rule is reported as an overlap instead of a duplicate.
func ruleDuplicateFindings(root *xmltree.Node) []Finding {
	filter := root.Child("filter")
	if filter == nil {
		return nil
	}
	byFP := map[ruleFingerprint][]ruleMeta{}
	var order []ruleFingerprint
	for idx, rule := range filter.All("rule") {
		fp := fingerprintRule(rule)
		if _, seen := byFP[fp]; !seen {
			order = append(order, fp)
		}
		byFP[fp] = append(byFP[fp], ruleMeta{
			idx:     idx,
			tracker: strings.TrimSpace(rule.ChildText("tracker")),
			descr:   strings.TrimSpace(rule.ChildText("descr")),
		})
	}
	sort.Slice(order, func(i, j int) bool { return byFP[order[i]][0].idx < byFP[order[j]][0].idx })

	var out []Finding
	for _, fp := range order {
		rows := byFP[fp]
		if len(rows) < 2 {
			continue
		}
		hasDefault, hasCustom := false, false
		for _, r := range rows {
			if isDefaultDescr(r.descr) {
				hasDefault = true
			} else {
				hasCustom = true
			}
		}
		if hasDefault && hasCustom {
			out = append(out, warnFinding("default_rule_overlap",
				"default rule overlaps custom rule signatures (trackers: %s)", trackerList(rows)))
			continue
		}
		out = append(out, warnFinding("duplicate_firewall_rule",
			"duplicate firewall rule signature detected (trackers: %s)", trackerList(rows)))
	}
	return out
}

func fingerprintRule(rule *xmltree.Node) ruleFingerprint {
	schedule := strings.TrimSpace(rule.ChildText("sched"))
	if schedule == "" {
		schedule = strings.TrimSpace(rule.ChildText("schedule"))
	}
	return ruleFingerprint{
		iface:     lowerText(rule, "interface"),
		action:    lowerText(rule, "type"),
		ipproto:   lowerText(rule, "ipprotocol"),
		proto:     lowerText(rule, "protocol"),
		src:       strings.ToLower(sideAddr(rule, "source")),
		srcPort:   strings.ToLower(sidePort(rule, "source")),
		dst:       strings.ToLower(sideAddr(rule, "destination")),
		dstPort:   strings.ToLower(sidePort(rule, "destination")),
		direction: lowerText(rule, "direction"),
		floating:  rule.HasChild("floating"),
		quick:     rule.HasChild("quick"),
		disabled:  rule.HasChild("disabled"),
		gateway:   lowerText(rule, "gateway"),
		schedule:  strings.ToLower(schedule),
	}
}

func sideAddr(rule *xmltree.Node, side string) string {
	node := rule.Child(side)
	if node == nil {
		return ""
	}
	if addr := strings.TrimSpace(node.ChildText("address")); addr != "" {
		return addr
	}
	if node.HasChild("any") {
		return "any"
	}
	if network := strings.TrimSpace(node.ChildText("network")); network != "" {
		return "network:" + network
	}
	return ""
}

func sidePort(rule *xmltree.Node, side string) string {
	node := rule.Child(side)
	if node == nil {
		return ""
	}
	return strings.TrimSpace(node.ChildText("port"))
}

func lowerText(node *xmltree.Node, tag string) string {
	return strings.ToLower(strings.TrimSpace(node.ChildText(tag)))
}

func isDefaultDescr(value string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(value)), "default ")
}

func trackerList(rows []ruleMeta) string {
	labels := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.tracker == "" {
			labels = append(labels, fmt.Sprintf("idx%d", r.idx))
		} else {
			labels = append(labels, r.tracker)
		}
	}
	return strings.Join(labels, ",")
}
