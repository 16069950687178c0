// Package simdevice is an in-memory NETCONF peer that serves the
// ietf-interfaces model. It stands in for a router in tests and in
// --simulate runs.
package simdevice

import (
	"encoding/xml"
	"strings"
)

// Namespaces served by the device.
const (
	NSInterfaces = "urn:ietf:params:xml:ns:yang:ietf-interfaces"
	NSIP         = "urn:ietf:params:xml:ns:yang:ietf-ip"
	NSIANAIfType = "urn:ietf:params:xml:ns:yang:iana-if-type"
)

// Interface types.
const (
	TypeEthernet = "ianaift:ethernetCsmacd"
	TypeLoopback = "ianaift:softwareLoopback"
)

// Address is one IPv4 address with its dotted-quad mask.
type Address struct {
	IP      string
	Netmask string
}

// Interface is one configured interface.
type Interface struct {
	Name        string
	Description string
	Type        string
	Enabled     bool
	Addresses   []Address
}

func (i Interface) clone() Interface {
	i.Addresses = append([]Address(nil), i.Addresses...)
	return i
}

// datastore is an ordered interface list.
type datastore []Interface

func (ds datastore) clone() datastore {
	out := make(datastore, len(ds))
	for i, intf := range ds {
		out[i] = intf.clone()
	}
	return out
}

func (ds datastore) index(name string) int {
	for i, intf := range ds {
		if intf.Name == name {
			return i
		}
	}
	return -1
}

// XML shapes for get-config replies.
type interfacesXML struct {
	XMLName    xml.Name       `xml:"interfaces"`
	Xmlns      string         `xml:"xmlns,attr"`
	Interfaces []interfaceXML `xml:"interface"`
}

type interfaceXML struct {
	Name        string   `xml:"name"`
	Description string   `xml:"description,omitempty"`
	Type        *typeXML `xml:"type,omitempty"`
	Enabled     bool     `xml:"enabled"`
	IPv4        ipXML    `xml:"ipv4"`
	IPv6        ipXML    `xml:"ipv6"`
}

type typeXML struct {
	Xmlns string `xml:"xmlns:ianaift,attr"`
	Value string `xml:",chardata"`
}

type ipXML struct {
	Xmlns     string       `xml:"xmlns,attr"`
	Addresses []addressXML `xml:"address"`
}

type addressXML struct {
	IP      string `xml:"ip"`
	Netmask string `xml:"netmask"`
}

func (ds datastore) marshal() (string, error) {
	doc := interfacesXML{Xmlns: NSInterfaces}
	for _, intf := range ds {
		x := interfaceXML{
			Name:        intf.Name,
			Description: intf.Description,
			Enabled:     intf.Enabled,
			IPv4:        ipXML{Xmlns: NSIP},
			IPv6:        ipXML{Xmlns: NSIP},
		}
		if intf.Type != "" {
			x.Type = &typeXML{Xmlns: NSIANAIfType, Value: intf.Type}
		}
		for _, a := range intf.Addresses {
			x.IPv4.Addresses = append(x.IPv4.Addresses, addressXML{IP: a.IP, Netmask: a.Netmask})
		}
		doc.Interfaces = append(doc.Interfaces, x)
	}
	var sb strings.Builder
	if err := xml.NewEncoder(&sb).Encode(doc); err != nil {
		return "", err
	}
	return sb.String(), nil
}
