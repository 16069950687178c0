package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ChangeType represents the type of interface change.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeModify ChangeType = "modify"
	ChangeDelete ChangeType = "delete"
)

// Change represents one interface that differs between two reads.
type Change struct {
	Interface string            `json:"interface"`
	Type      ChangeType        `json:"type"`
	OldValue  map[string]string `json:"old_value,omitempty"`
	NewValue  map[string]string `json:"new_value,omitempty"`
}

// ChangeSet represents the differences between two reads of a device.
type ChangeSet struct {
	Changes []Change `json:"changes"`
}

// fields flattens a record into comparable key/value pairs.
func fields(r InterfaceRecord) map[string]string {
	m := map[string]string{
		"description": r.Description,
		"enabled":     strconv.FormatBool(r.Enabled),
	}
	if r.Type != "" {
		m["type"] = r.Type
	}
	addrs := make([]string, len(r.Addresses))
	for i, a := range r.Addresses {
		addrs[i] = a.IP + "/" + a.Netmask
	}
	m["ipv4"] = strings.Join(addrs, ",")
	return m
}

// Diff compares two reads. Changes follow the order of after, with deleted
// interfaces appended in the order of before. Modify entries carry only the
// fields that changed.
func Diff(before, after []InterfaceRecord) *ChangeSet {
	cs := &ChangeSet{Changes: make([]Change, 0)}

	old := make(map[string]InterfaceRecord, len(before))
	for _, r := range before {
		old[r.Name] = r
	}
	seen := make(map[string]bool, len(after))

	for _, r := range after {
		seen[r.Name] = true
		prev, ok := old[r.Name]
		if !ok {
			cs.Changes = append(cs.Changes, Change{Interface: r.Name, Type: ChangeAdd, NewValue: fields(r)})
			continue
		}
		of, nf := fields(prev), fields(r)
		oldDiff, newDiff := map[string]string{}, map[string]string{}
		for k, v := range nf {
			if of[k] != v {
				oldDiff[k], newDiff[k] = of[k], v
			}
		}
		for k, v := range of {
			if _, ok := nf[k]; !ok {
				oldDiff[k], newDiff[k] = v, ""
			}
		}
		if len(newDiff) > 0 {
			cs.Changes = append(cs.Changes, Change{Interface: r.Name, Type: ChangeModify, OldValue: oldDiff, NewValue: newDiff})
		}
	}

	for _, r := range before {
		if !seen[r.Name] {
			cs.Changes = append(cs.Changes, Change{Interface: r.Name, Type: ChangeDelete, OldValue: fields(r)})
		}
	}
	return cs
}

// IsEmpty returns true if there are no changes.
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.Changes) == 0
}

// String returns a human-readable representation of the changes.
func (cs *ChangeSet) String() string {
	if cs.IsEmpty() {
		return "No changes"
	}

	var sb strings.Builder
	for _, c := range cs.Changes {
		typeStr := ""
		switch c.Type {
		case ChangeAdd:
			typeStr = "[ADD]"
		case ChangeModify:
			typeStr = "[MOD]"
		case ChangeDelete:
			typeStr = "[DEL]"
		}

		sb.WriteString(fmt.Sprintf("  %s %s", typeStr, c.Interface))
		switch c.Type {
		case ChangeModify:
			for _, k := range sortedKeys(c.NewValue) {
				sb.WriteString(fmt.Sprintf(" %s: %q → %q", k, c.OldValue[k], c.NewValue[k]))
			}
		case ChangeAdd:
			sb.WriteString(" → " + joinFields(c.NewValue))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinFields(m map[string]string) string {
	var parts []string
	for _, k := range sortedKeys(m) {
		if m[k] != "" {
			parts = append(parts, k+"="+m[k])
		}
	}
	return strings.Join(parts, " ")
}
