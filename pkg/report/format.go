package report

import (
	"fmt"
	"strconv"
	"strings"
)

// Row renders one record as
// name:<20> state:<10> IP:<30> description:<rest>.
// Missing fields render as Absent; it never fails.
func Row(r InterfaceRecord) string {
	addr, mask := r.Address, r.Mask
	if addr == "" {
		addr = Absent
	}
	if mask == "" {
		mask = Absent
	}
	return fmt.Sprintf("name:%-20s state:%-10s IP:%-30s description:%s",
		r.Name, strconv.FormatBool(r.Enabled), addr+"/"+mask, r.Description)
}

// Format renders every record on its own line.
func Format(records []InterfaceRecord) string {
	var sb strings.Builder
	for _, r := range records {
		sb.WriteString(Row(r))
		sb.WriteString("\n")
	}
	return sb.String()
}
