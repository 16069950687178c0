package simdevice

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/newtron-network/ifconf/pkg/util"
	"github.com/newtron-network/ifconf/pkg/xmltree"
)

type editError struct {
	tag string
	msg string
}

func editErrorf(tag, format string, args ...interface{}) *editError {
	return &editError{tag: tag, msg: fmt.Sprintf(format, args...)}
}

func operation(n *xmltree.Node) string {
	op, _ := n.Attr("operation")
	if op == "" {
		return "merge"
	}
	return op
}

func applyInterface(ds datastore, n *xmltree.Node) (datastore, *editError) {
	name, _ := n.ChildText("name")
	if name == "" {
		return nil, editErrorf("missing-element", "interface without <name>")
	}
	idx := ds.index(name)

	switch op := operation(n); op {
	case "delete", "remove":
		if idx < 0 {
			if op == "remove" {
				return ds, nil
			}
			return nil, editErrorf("data-missing", "interface %s does not exist", name)
		}
		return append(ds[:idx:idx], ds[idx+1:]...), nil
	case "create":
		if idx >= 0 {
			return nil, editErrorf("data-exists", "interface %s already exists", name)
		}
	case "replace":
		if idx >= 0 {
			ds = append(ds[:idx:idx], ds[idx+1:]...)
			idx = -1
		}
	case "merge":
	default:
		return nil, editErrorf("bad-attribute", "unknown operation %q", op)
	}

	var intf Interface
	if idx >= 0 {
		intf = ds[idx]
	} else {
		typ, _ := n.ChildText("type")
		if typ == "" {
			return nil, editErrorf("missing-element", "new interface %s requires <type>", name)
		}
		intf = Interface{Name: name, Enabled: true}
	}

	if v, ok := n.ChildText("description"); ok {
		intf.Description = v
	}
	if v, ok := n.ChildText("type"); ok && v != "" {
		intf.Type = v
	}
	if v, ok := n.ChildText("enabled"); ok {
		switch v {
		case "true":
			intf.Enabled = true
		case "false":
			intf.Enabled = false
		default:
			return nil, editErrorf("invalid-value", "interface %s: enabled must be true or false, got %q", name, v)
		}
	}

	for _, addr := range n.Find("ipv4").ChildrenNamed("address") {
		var err *editError
		intf.Addresses, err = applyAddress(name, intf.Addresses, addr)
		if err != nil {
			return nil, err
		}
	}

	if idx >= 0 {
		ds[idx] = intf
	} else {
		ds = append(ds, intf)
	}
	return ds, nil
}

func applyAddress(intf string, addrs []Address, n *xmltree.Node) ([]Address, *editError) {
	ip, _ := n.ChildText("ip")
	if !util.IsValidIPv4(ip) {
		return nil, editErrorf("invalid-value", "interface %s: invalid IPv4 address %q", intf, ip)
	}
	idx := -1
	for i, a := range addrs {
		if a.IP == ip {
			idx = i
			break
		}
	}

	switch op := operation(n); op {
	case "delete", "remove":
		if idx < 0 {
			if op == "remove" {
				return addrs, nil
			}
			return nil, editErrorf("data-missing", "interface %s has no address %s", intf, ip)
		}
		return append(addrs[:idx:idx], addrs[idx+1:]...), nil
	case "merge", "create", "replace":
		mask, _ := n.ChildText("netmask")
		if !util.IsValidNetmask(mask) {
			return nil, editErrorf("invalid-value", "interface %s: invalid netmask %q", intf, mask)
		}
		if idx >= 0 {
			if op == "create" {
				return nil, editErrorf("data-exists", "interface %s already has address %s", intf, ip)
			}
			addrs[idx].Netmask = mask
			return addrs, nil
		}
		return append(addrs, Address{IP: ip, Netmask: mask}), nil
	default:
		return nil, editErrorf("bad-attribute", "unknown operation %q", op)
	}
}

func escape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
