// Package report turns get-config reply trees into interface records and
// renders them as a fixed-width table and as before/after change sets.
package report

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/newtron-network/ifconf/pkg/util"
	"github.com/newtron-network/ifconf/pkg/xmltree"
)

// Absent marks an address or mask that is not configured.
const Absent = "No"

// ErrPartialData is the sentinel wrapped by PartialDataError.
var ErrPartialData = errors.New("partial data")

// PartialDataError reports a reply tree missing a node the parser needs.
type PartialDataError struct {
	Path   string
	Reason string
}

func (e *PartialDataError) Error() string {
	return fmt.Sprintf("reply incomplete at %s: %s", e.Path, e.Reason)
}

func (e *PartialDataError) Unwrap() error {
	return ErrPartialData
}

// Address is one configured IPv4 address.
type Address struct {
	IP      string `json:"ip"`
	Netmask string `json:"netmask"`
}

// InterfaceRecord is the parsed view of one interface. Address and Mask
// hold the first configured address, or Absent.
type InterfaceRecord struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type,omitempty"`
	Enabled     bool      `json:"enabled"`
	Address     string    `json:"address"`
	Mask        string    `json:"mask"`
	Addresses   []Address `json:"addresses,omitempty"`
}

// HasAddress reports whether any IPv4 address is configured.
func (r InterfaceRecord) HasAddress() bool {
	return r.Address != "" && r.Address != Absent
}

// Parse walks rpc-reply/data/interfaces/interface and returns one record per
// interface node in document order. The tree may also be rooted at data or
// interfaces. An empty data element yields no records.
func Parse(tree *xmltree.Node) ([]InterfaceRecord, error) {
	if tree == nil {
		return nil, &PartialDataError{Path: "/", Reason: "no reply"}
	}

	var container *xmltree.Node
	switch tree.Name {
	case "rpc-reply":
		data := tree.Child("data")
		if data == nil {
			return nil, &PartialDataError{Path: "rpc-reply/data", Reason: "missing data element"}
		}
		container = data.Child("interfaces")
	case "data":
		container = tree.Child("interfaces")
	case "interfaces":
		container = tree
	default:
		return nil, &PartialDataError{Path: tree.Name, Reason: "unexpected root element"}
	}

	nodes := container.ChildrenNamed("interface")
	records := make([]InterfaceRecord, 0, len(nodes))
	for i, n := range nodes {
		r, err := parseInterface(n)
		if err != nil {
			var pde *PartialDataError
			if errors.As(err, &pde) {
				pde.Path = fmt.Sprintf("interfaces/interface[%d]/%s", i+1, pde.Path)
			}
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func parseInterface(n *xmltree.Node) (InterfaceRecord, error) {
	name, _ := n.ChildText("name")
	if name == "" {
		return InterfaceRecord{}, &PartialDataError{Path: "name", Reason: "interface without name"}
	}

	r := InterfaceRecord{Name: name, Enabled: true, Address: Absent, Mask: Absent}
	r.Description, _ = n.ChildText("description")
	r.Type, _ = n.ChildText("type")
	if v, ok := n.ChildText("enabled"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return InterfaceRecord{}, &PartialDataError{Path: "enabled", Reason: fmt.Sprintf("not a boolean: %q", v)}
		}
		r.Enabled = enabled
	}

	for _, a := range n.Find("ipv4").ChildrenNamed("address") {
		addr := Address{IP: Absent, Netmask: Absent}
		if ip, ok := a.ChildText("ip"); ok && ip != "" {
			addr.IP = ip
		}
		if mask, ok := a.ChildText("netmask"); ok && mask != "" {
			addr.Netmask = mask
		} else if pl, ok := a.ChildText("prefix-length"); ok {
			if n, err := strconv.Atoi(pl); err == nil {
				if dotted, err := util.PrefixToNetmask(n); err == nil {
					addr.Netmask = dotted
				}
			}
		}
		r.Addresses = append(r.Addresses, addr)
	}
	if len(r.Addresses) > 0 {
		r.Address = r.Addresses[0].IP
		r.Mask = r.Addresses[0].Netmask
	}
	return r, nil
}
