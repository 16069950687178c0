// Package device implements the NETCONF session client: opening a session to
// a router, reading and validating configuration, and submitting edits.
package device

import (
	"fmt"
	"sort"
	"time"

	"github.com/newtron-network/ifconf/pkg/util"
)

// DefaultPort is the IANA-assigned NETCONF-over-SSH port.
const DefaultPort = 830

// DefaultTimeout bounds the SSH dial and handshake.
const DefaultTimeout = 30 * time.Second

// Dialects accepted for Endpoint.Dialect. The names follow the device
// handler names used by common NETCONF clients.
var Dialects = map[string]string{
	"default":    "generic RFC 6241 device",
	"csr":        "Cisco CSR1000v",
	"iosxe":      "Cisco IOS XE",
	"iosxr":      "Cisco IOS XR",
	"nexus":      "Cisco Nexus",
	"junos":      "Juniper Junos",
	"huawei":     "Huawei VRP",
	"huaweiyang": "Huawei VRP (YANG)",
	"sros":       "Nokia SR OS",
	"h3c":        "H3C Comware",
	"hpcomware":  "HPE Comware",
}

// DialectNames returns the accepted dialect identifiers, sorted.
func DialectNames() []string {
	names := make([]string, 0, len(Dialects))
	for n := range Dialects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Endpoint identifies a device and how to authenticate to it. It is a value
// type; build it once from configuration and pass it by value.
type Endpoint struct {
	Name     string // label for logs and audit records; defaults to Host
	Host     string
	Port     int
	Username string
	Password string
	Dialect  string

	// KnownHostsFile overrides ~/.ssh/known_hosts.
	KnownHostsFile string

	// InsecureIgnoreHostKey accepts any server key. Every Open with this set
	// logs a warning.
	InsecureIgnoreHostKey bool

	Timeout time.Duration
}

// NewEndpoint builds a validated endpoint with default port, dialect and
// timeout filled in.
func NewEndpoint(host string, port int, username, password, dialect string) (Endpoint, error) {
	ep := Endpoint{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		Dialect:  dialect,
	}.withDefaults()
	if err := ep.Validate(); err != nil {
		return Endpoint{}, err
	}
	return ep, nil
}

func (e Endpoint) withDefaults() Endpoint {
	if e.Port == 0 {
		e.Port = DefaultPort
	}
	if e.Dialect == "" {
		e.Dialect = "default"
	}
	if e.Timeout == 0 {
		e.Timeout = DefaultTimeout
	}
	return e
}

// Validate checks the endpoint for missing or out-of-range fields.
func (e Endpoint) Validate() error {
	var vb util.ValidationBuilder
	vb.Add(e.Host != "", "host is required")
	vb.Add(e.Port > 0 && e.Port <= 65535, fmt.Sprintf("port %d out of range", e.Port))
	vb.Add(e.Username != "", "username is required")
	if _, ok := Dialects[e.Dialect]; !ok {
		vb.AddErrorf("unknown dialect %q", e.Dialect)
	}
	vb.Add(e.Timeout >= 0, "timeout must not be negative")
	return vb.Build()
}

// Address returns host:port.
func (e Endpoint) Address() string {
	return util.EnsurePort(e.Host, e.Port)
}

// Label returns the name used in logs.
func (e Endpoint) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Host
}

// String omits the password.
func (e Endpoint) String() string {
	return fmt.Sprintf("%s@%s (%s)", e.Username, e.Address(), e.Dialect)
}
